package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetor-hq/praetor/internal/certify"
	"github.com/praetor-hq/praetor/internal/model"
)

var certifyJSON bool

func init() {
	rootCmd.AddCommand(certifyCmd)
	certifyCmd.Flags().BoolVar(&certifyJSON, "json", false, "Output JSON instead of text")
}

var certifyCmd = &cobra.Command{
	Use:   "certify",
	Short: "Run the governance conformance suite",
	Long: "Runs live conformance checks against a freshly constructed governor:\n" +
		"classification, trust, enforcement, constitution, monitor and audit\n" +
		"properties. Exit code 0 if all checks pass, 1 if any fail.",
	RunE: runCertify,
}

func runCertify(cmd *cobra.Command, args []string) error {
	result, err := certify.Run(model.Mode(flagMode))
	if err != nil {
		return err
	}

	if certifyJSON {
		out, err := certify.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	} else {
		fmt.Print(certify.FormatText(result))
	}

	if result.Failed > 0 {
		os.Exit(1)
	}
	return nil
}
