package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"licensekeys/internal/license"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a signing key pair",
	Example: `  # Write private.pem and public.pem to the current directory
  licensectl keygen

  # Print an Ed25519 pair as environment variables
  licensectl keygen --algorithm ed25519 --env >> .env
`,
	Args: cobra.NoArgs,
	RunE: keygenCmdRun,
}

type keygenFlags struct {
	algorithm string
	outputDir string
	env       bool
}

var keygenArgs = keygenFlags{algorithm: license.AlgorithmRSA, outputDir: "."}

func init() {
	keygenCmd.Flags().StringVarP(&keygenArgs.algorithm, "algorithm", "a", keygenArgs.algorithm,
		"key algorithm: rsa, ecdsa or ed25519")
	keygenCmd.Flags().StringVarP(&keygenArgs.outputDir, "output-dir", "o", keygenArgs.outputDir,
		"path to output directory")
	keygenCmd.Flags().BoolVar(&keygenArgs.env, "env", false,
		"print PRIVATE_KEY and PUBLIC_KEY assignments instead of writing files")
	rootCmd.AddCommand(keygenCmd)
}

func keygenCmdRun(cmd *cobra.Command, args []string) error {
	privatePEM, publicPEM, err := license.GenerateKeyPair(keygenArgs.algorithm)
	if err != nil {
		return err
	}

	if keygenArgs.env {
		rootCmd.Printf("PRIVATE_KEY=\"%s\"\n", license.EscapeNewlines(privatePEM))
		rootCmd.Printf("PUBLIC_KEY=\"%s\"\n", license.EscapeNewlines(publicPEM))
		return nil
	}

	if err := isDir(keygenArgs.outputDir); err != nil {
		return err
	}

	privatePath := filepath.Join(keygenArgs.outputDir, "private.pem")
	publicPath := filepath.Join(keygenArgs.outputDir, "public.pem")

	if err := os.WriteFile(privatePath, privatePEM, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(publicPath, publicPEM, 0o644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	logger.Debug("key pair generated", "algorithm", keygenArgs.algorithm)
	rootCmd.Printf("✔ private key written to: %s\n", privatePath)
	rootCmd.Printf("✔ public key written to: %s\n", publicPath)
	return nil
}
