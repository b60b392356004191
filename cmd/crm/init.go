// ABOUTME: init command: writes a config file with a random JWT secret
// ABOUTME: Prompts for each setting; pressing enter keeps the default

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new config file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout(), a.configPath)
		},
	}
}

// initAnswers are the values written by runInit.
type initAnswers struct {
	HTTPAddr  string
	DBPath    string
	JWTSecret string
	LogLevel  string
	LogFormat string
	Metrics   bool
}

func runInit(in io.Reader, out io.Writer, defaultConfigPath string) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "crm configuration setup")
	fmt.Fprintln(out, "=======================")
	fmt.Fprintln(out)

	outputFile := prompt(reader, out, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, out, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	secret, err := generateSecret()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	ans := initAnswers{JWTSecret: secret}
	ans.HTTPAddr = prompt(reader, out, "HTTP address", "127.0.0.1:8080")

	fmt.Fprintln(out, "\n--- Database Configuration ---")
	ans.DBPath = prompt(reader, out, "SQLite database path", filepath.Join(getDataPath(), "crm.db"))

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	ans.LogLevel = prompt(reader, out, "Log level (debug/info/warn/error)", "info")
	ans.LogFormat = prompt(reader, out, "Log format (text/json)", "text")

	fmt.Fprintln(out, "\n--- Metrics ---")
	ans.Metrics = isYes(prompt(reader, out, "Expose Prometheus metrics?", "yes"))

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// The file holds the JWT secret.
	if err := os.WriteFile(outputFile, []byte(renderConfig(ans)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(ans.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	green := color.New(color.FgGreen)
	fmt.Fprintln(out)
	green.Fprintf(out, "  ✓ Config written to %s\n", outputFile)
	green.Fprintf(out, "  ✓ Data directory: %s\n", dataDir)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintln(out, "  crm serve")
	fmt.Fprintln(out, "\nTo call the API, mint a token:")
	fmt.Fprintln(out, "  crm token --subject me")

	return nil
}

func renderConfig(ans initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# crm configuration\n")
	cfg.WriteString("# Generated by crm init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", ans.HTTPAddr))
	cfg.WriteString("  shutdown_timeout: \"5s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", ans.DBPath))
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  jwt_secret: %q\n", ans.JWTSecret))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", ans.LogLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", ans.LogFormat))
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", ans.Metrics))
	cfg.WriteString("  path: \"/metrics\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("idempotency:\n")
	cfg.WriteString("  ttl: \"10m\"\n")
	return cfg.String()
}

// generateSecret returns 32 random bytes, base64 encoded.
func generateSecret() (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(secretBytes), nil
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "yes" || s == "y"
}
