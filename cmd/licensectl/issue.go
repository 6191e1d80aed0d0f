package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"licensekeys/internal/config"
	"licensekeys/internal/license"
	"licensekeys/pkg/contracts/domain"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a license key bound to a machine",
	Example: `  # Issue a one year key with the signing key from a file
  licensectl issue --product-id XYZ123 --machine-id cpu-abc-123 --period-days 365 \
  --private-key ./private.pem

  # Read the signing key from the environment
  export PRIVATE_KEY="$(cat private.pem)"
  licensectl issue --product-id XYZ123 --machine-id cpu-abc-123 --period-days 30
`,
	Args: cobra.NoArgs,
	RunE: issueCmdRun,
}

type issueFlags struct {
	productID      string
	machineID      string
	periodDays     int
	privateKeyPath string
}

var issueArgs issueFlags

func init() {
	issueCmd.Flags().StringVar(&issueArgs.productID, "product-id", "", "product identifier, must not contain '-'")
	issueCmd.Flags().StringVar(&issueArgs.machineID, "machine-id", "", "machine (CPU) identifier")
	issueCmd.Flags().IntVar(&issueArgs.periodDays, "period-days", 0, "license period in days")
	issueCmd.Flags().StringVar(&issueArgs.privateKeyPath, "private-key", "",
		"path to the PEM private key (defaults to the PRIVATE_KEY environment variable)")
	_ = issueCmd.MarkFlagRequired("product-id")
	_ = issueCmd.MarkFlagRequired("machine-id")
	_ = issueCmd.MarkFlagRequired("period-days")
	rootCmd.AddCommand(issueCmd)
}

func issueCmdRun(cmd *cobra.Command, args []string) error {
	if err := validateIssueRequest(domain.LicenseRequest{
		ProductID:  issueArgs.productID,
		MachineID:  issueArgs.machineID,
		PeriodDays: issueArgs.periodDays,
	}); err != nil {
		return err
	}

	privatePEM, err := readKey(issueArgs.privateKeyPath, func(k *config.KeysConfig) string { return k.PrivateKey })
	if err != nil {
		return err
	}
	if privatePEM == "" {
		return fmt.Errorf("%w: pass --private-key or set PRIVATE_KEY", license.ErrPrivateKeyNotConfigured)
	}

	keys, err := license.LoadKeyPair(privatePEM, "")
	if err != nil {
		return err
	}

	key, err := license.NewManager(keys).Issue(issueArgs.productID, issueArgs.machineID, issueArgs.periodDays)
	if err != nil {
		return err
	}

	logger.Info("license key issued",
		"product_id", issueArgs.productID,
		"period_days", issueArgs.periodDays)
	rootCmd.Println(key)
	return nil
}

// validateIssueRequest applies the same field rules as the HTTP API, so the
// CLI never prints a key that cannot be split back into its four fields.
func validateIssueRequest(req domain.LicenseRequest) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "excludes":
			msgs = append(msgs, fmt.Sprintf("%s must not contain %q", fe.Field(), fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", license.ErrInvalidRequest, strings.Join(msgs, "; "))
}
