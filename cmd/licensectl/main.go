package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"licensekeys/internal/config"
	"licensekeys/internal/infrastructure"
	"licensekeys/pkg/contracts"
)

var rootCmd = &cobra.Command{
	Use:           "licensectl",
	Version:       contracts.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Short:         "Generate key pairs and issue, validate or inspect license keys offline",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = infrastructure.NewLogger(config.LoggingConfig{Level: rootArgs.logLevel}, cmd.ErrOrStderr())
	},
}

type rootFlags struct {
	logLevel string
}

var (
	rootArgs = rootFlags{logLevel: "warn"}
	logger   = slog.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootArgs.logLevel, "log-level", rootArgs.logLevel,
		"log level written to stderr: debug, info, warn or error")
	rootCmd.SetVersionTemplate("licensectl " + contracts.GetVersionString() + "\n")
	rootCmd.SetOut(os.Stdout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("✗ %v\n", err)
		os.Exit(1)
	}
}

// readKey returns the PEM text at path. With no path the key comes from the
// server configuration, so PRIVATE_KEY and PUBLIC_KEY work here too.
func readKey(path string, fallback func(*config.KeysConfig) string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read key file: %w", err)
		}
		return string(data), nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(fallback(&cfg.Keys)), nil
}

func isDir(dir string) error {
	f, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("directory %s does not exist", dir)
	}
	if !f.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
