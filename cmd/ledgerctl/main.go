// Package main is ledgerctl, the GreenLedger operator CLI.
//
// It queries an emission factor export offline, encrypts and decrypts
// evidence blobs with the organization key, and mints API tokens.
//
// Import Path: greenledger.io/greenledger/cmd/ledgerctl
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"greenledger.io/greenledger/internal/config"
	"greenledger.io/greenledger/internal/pkg/logger"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	catalogPath string
	jsonOutput  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "ledgerctl - GreenLedger operator tooling",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init("warn", "console")
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "emission factor CSV (default: catalog.path from config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.jsonOutput, "json", "j", false, "output as JSON")

	rootCmd.AddCommand(searchCmd(opts))
	rootCmd.AddCommand(factorCmd(opts))
	rootCmd.AddCommand(categoriesCmd(opts))
	rootCmd.AddCommand(sourcesCmd(opts))
	rootCmd.AddCommand(statsCmd(opts))
	rootCmd.AddCommand(encryptCmd(opts))
	rootCmd.AddCommand(decryptCmd(opts))
	rootCmd.AddCommand(hashCmd())
	rootCmd.AddCommand(tokenCmd(opts))

	return rootCmd
}

// loadConfig reads the config file and environment like the server does.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) resolveCatalogPath() (string, error) {
	if o.catalogPath != "" {
		return o.catalogPath, nil
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Catalog.Path, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
