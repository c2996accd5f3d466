package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"greenledger.io/greenledger/internal/security"
)

type blobFlags struct {
	orgID  int64
	inPath string
	out    string
}

func (f *blobFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.orgID, "org", 0, "organization id whose key is used")
	cmd.Flags().StringVar(&f.inPath, "in", "", "input file")
	cmd.Flags().StringVar(&f.out, "out", "", "output file")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
}

// engine prefers MASTER_KEY from the environment and falls back to the config.
func (o *rootOptions) engine() (*security.Engine, error) {
	if engine := security.NewEngineFromEnv(); engine.Configured() {
		return engine, nil
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	engine := security.NewEngine(cfg.Security.MasterKey)
	if !engine.Configured() {
		return nil, security.ErrMasterKeyMissing
	}
	return engine, nil
}

func encryptCmd(opts *rootOptions) *cobra.Command {
	var flags blobFlags
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a file with an organization key",
		Long: `Encrypt a file into the document blob format (nonce, tag, ciphertext).

Example:
  MASTER_KEY=... ledgerctl encrypt --org 3 --in facture.pdf --out facture.enc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(flags.inPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			blob, err := engine.Encrypt(data, flags.orgID)
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}
			if err := os.WriteFile(flags.out, blob, 0o600); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", security.Hash(data), flags.inPath)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func decryptCmd(opts *rootOptions) *cobra.Command {
	var flags blobFlags
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a document blob with an organization key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			blob, err := os.ReadFile(flags.inPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			data, err := engine.Decrypt(blob, flags.orgID)
			if err != nil {
				return fmt.Errorf("decrypt: %w", err)
			}
			if err := os.WriteFile(flags.out, data, 0o600); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", security.Hash(data), flags.out)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [file...]",
		Short: "Print the SHA-256 checksum stored for uploaded documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", security.Hash(data), path)
			}
			return nil
		},
	}
}
