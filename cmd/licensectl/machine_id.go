package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"licensekeys/internal/machine"
)

var machineIDCmd = &cobra.Command{
	Use:   "machine-id",
	Short: "Print the machine id of this host",
	Example: `  # Request a key for the current host
  licensectl issue --product-id XYZ123 --machine-id "$(licensectl machine-id)" --period-days 365
`,
	Args: cobra.NoArgs,
	RunE: machineIDCmdRun,
}

type machineIDFlags struct {
	json bool
}

var machineIDArgs machineIDFlags

func init() {
	machineIDCmd.Flags().BoolVar(&machineIDArgs.json, "json", false,
		"print every fingerprint factor as JSON")
	rootCmd.AddCommand(machineIDCmd)
}

func machineIDCmdRun(cmd *cobra.Command, args []string) error {
	fp := machine.NewFingerprinter(logger).Generate()

	if !machineIDArgs.json {
		rootCmd.Println(fp.MachineID)
		return nil
	}

	out, err := json.MarshalIndent(fp, "", "  ")
	if err != nil {
		return err
	}
	rootCmd.Println(string(out))
	return nil
}
