package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"licensekeys/internal/license"
	api "licensekeys/pkg/contracts/api/v1"
)

var extractCmd = &cobra.Command{
	Use:   "extract [LICENSE_KEY]",
	Short: "Decode the fields of a license key without checking its signature",
	Long: `Decode the product, machine and period carried by a license key.

The signature is NOT checked: a forged key is decoded just like a genuine one.
Use "licensectl validate" to establish authenticity.`,
	Args: cobra.ExactArgs(1),
	RunE: extractCmdRun,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func extractCmdRun(cmd *cobra.Command, args []string) error {
	data, ok := license.NewManager(nil).Extract(args[0])
	if !ok {
		return errors.New("license key is malformed")
	}

	out, err := json.MarshalIndent(api.ExtractLicenseResponse{LicenseData: data, Verified: false}, "", "  ")
	if err != nil {
		return err
	}

	logger.Warn("license key decoded without signature verification")
	rootCmd.Println(string(out))
	return nil
}
