// ABOUTME: token command: mints an HS256 bearer token for the JSON API
// ABOUTME: Uses auth.jwt_secret from the config file

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389/personal-crm/internal/auth"
)

// defaultTokenTTL is 30 days.
const defaultTokenTTL = 30 * 24 * time.Hour

func (a *app) tokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a JWT for the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.configPath)
			if err != nil {
				return err
			}
			if !cfg.Auth.Enabled() {
				return fmt.Errorf("auth.jwt_secret not configured in %s (run crm init)", a.configPath)
			}
			if subject == "" {
				return errors.New("--subject is required")
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}

			verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
			if err != nil {
				return fmt.Errorf("creating JWT verifier: %w", err)
			}
			token, err := verifier.Generate(subject, ttl)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Token subject (who is calling)")
	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "How long the token stays valid")
	return cmd
}
