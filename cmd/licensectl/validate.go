package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"licensekeys/internal/config"
	"licensekeys/internal/license"
)

var validateCmd = &cobra.Command{
	Use:   "validate [LICENSE_KEY]",
	Short: "Verify a license key against a public key",
	Example: `  # Verify with the public key from a file
  licensectl validate "$KEY" --public-key ./public.pem
`,
	Args: cobra.ExactArgs(1),
	RunE: validateCmdRun,
}

type validateFlags struct {
	publicKeyPath string
}

var validateArgs validateFlags

// errInvalidLicense makes the command exit non-zero for a key that does not
// verify.
var errInvalidLicense = errors.New("license key is not valid")

func init() {
	validateCmd.Flags().StringVar(&validateArgs.publicKeyPath, "public-key", "",
		"path to the PEM public key (defaults to the PUBLIC_KEY environment variable)")
	rootCmd.AddCommand(validateCmd)
}

func validateCmdRun(cmd *cobra.Command, args []string) error {
	publicPEM, err := readKey(validateArgs.publicKeyPath, func(k *config.KeysConfig) string { return k.PublicKey })
	if err != nil {
		return err
	}
	if publicPEM == "" {
		return fmt.Errorf("%w: pass --public-key or set PUBLIC_KEY", license.ErrPublicKeyNotConfigured)
	}

	keys, err := license.LoadKeyPair("", publicPEM)
	if err != nil {
		return err
	}

	result, err := license.NewManager(keys).Verify(args[0])
	if err != nil {
		return err
	}
	if !result.Valid {
		return errInvalidLicense
	}

	rootCmd.Println("✔ license key is valid")
	if result.Data != nil {
		rootCmd.Printf("  product: %s\n", result.Data.ProductID)
		rootCmd.Printf("  machine: %s\n", result.Data.MachineID)
		rootCmd.Printf("  period:  %d days\n", result.Data.PeriodDays)
	}
	return nil
}
