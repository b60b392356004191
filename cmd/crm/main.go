// ABOUTME: Entry point for the crm binary: web/API server plus terminal commands
// ABOUTME: Builds the cobra command tree and resolves config and data paths

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/personal-crm/internal/config"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

const banner = `
                 _
  ___ _ __ _ __ | |
 / __| '__| '_ \| |
| (__| |  | | | | |
 \___|_|  |_| |_|_|
`

// errRejected is returned after the presenter has already shown why a command failed.
var errRejected = errors.New("rejected")

// getConfigPath returns the path to the crm config file.
// Priority: CRM_CONFIG env var > XDG_CONFIG_HOME/crm/config.yaml > ~/.config/crm/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("CRM_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "crm", "config.yaml")
}

// getDataPath returns the path to the crm data directory.
// Priority: XDG_DATA_HOME/crm > ~/.local/share/crm
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "crm")
}

// loadConfig loads path, or falls back to defaults with the database under
// the data directory when the file does not exist yet.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		dbPath := filepath.Join(getDataPath(), "crm.db")
		return config.Parse([]byte(fmt.Sprintf("database:\n  path: %q\n", dbPath)), false)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// app holds state shared by every subcommand.
type app struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "crm",
		Short:         "Personal CRM: clients, profile and activity",
		Long:          "crm keeps a validated list of clients and a personal profile, served over HTTP or managed from the terminal.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", getConfigPath(), "Config file path (YAML, or TOML by extension)")

	root.AddCommand(
		a.serveCommand(),
		a.initCommand(),
		a.tokenCommand(),
		a.clientsCommand(),
		a.profileCommand(),
		a.activityCommand(),
	)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := newRootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}
	if !errors.Is(err, errRejected) {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
