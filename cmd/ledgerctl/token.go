package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"greenledger.io/greenledger/internal/api/middleware"
	"greenledger.io/greenledger/internal/app/modules"
	"greenledger.io/greenledger/internal/domain"
)

func tokenCmd(opts *rootOptions) *cobra.Command {
	var (
		userID   string
		username string
		orgID    int64
		role     string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token signed with the session secret",
		Long: `Mint a bearer token for the GreenLedger API. The signing key is
security.session_secret, so the server and ledgerctl must share it.

Example:
  SECURITY_SESSION_SECRET=... ledgerctl token --user u-1 --org 3 --role worker`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := domain.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			jwtCfg := modules.NewJWTConfig(cfg)
			if ttl > 0 {
				jwtCfg.ExpiresIn = ttl
			}

			token, expiresAt, err := middleware.GenerateToken(jwtCfg, middleware.Identity{
				UserID:         userID,
				Username:       username,
				OrganizationID: orgID,
				Role:           r,
			})
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, map[string]any{
					"token":      token,
					"expires_at": expiresAt.UTC(),
				})
			}
			fmt.Fprintln(out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (sub)")
	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().Int64Var(&orgID, "org", 0, "organization id")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "platform_admin, org_admin, worker, auditor or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: security.token_ttl)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
