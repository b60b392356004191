// ABOUTME: serve command: starts the web UI and JSON API
// ABOUTME: Prints the startup banner and runs until SIGINT or SIGTERM

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/personal-crm/internal/server"
	"github.com/2389/personal-crm/internal/store"
)

func (a *app) serveCommand() *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cyan := color.New(color.FgCyan)
			cyan.Print(banner)

			gray := color.New(color.FgHiBlack)
			gray.Printf("    version: %s\n\n", version)

			cfg, err := loadConfig(a.configPath)
			if err != nil {
				return err
			}
			if memory {
				cfg.Database.Path = ":memory:"
			}

			logger := setupLogger(cfg.Logging)

			green := color.New(color.FgGreen)
			yellow := color.New(color.FgYellow)

			green.Print("    ▶ ")
			fmt.Printf("Config:    %s\n", a.configPath)
			green.Print("    ▶ ")
			fmt.Printf("Database:  %s\n", cfg.Database.Path)
			green.Print("    ▶ ")
			fmt.Printf("HTTP:      http://%s\n", cfg.Server.HTTPAddr)
			if cfg.Metrics.Enabled {
				green.Print("    ▶ ")
				fmt.Printf("Metrics:   %s\n", cfg.Metrics.Path)
			}
			if !cfg.Auth.Enabled() {
				yellow.Println("    ! API auth disabled (no auth.jwt_secret)")
			}
			fmt.Println()

			logger.Info("starting crm",
				"config", a.configPath,
				"http_addr", cfg.Server.HTTPAddr,
				"database", cfg.Database.Path,
			)

			var s store.Store
			if memory {
				s = store.NewMemoryStore()
			} else {
				sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				s = sqlStore
			}

			srv, err := server.New(cfg, s, logger)
			if err != nil {
				_ = s.Close()
				return fmt.Errorf("creating server: %w", err)
			}

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", false, "Keep data in memory only (nothing is written to disk)")
	return cmd
}
