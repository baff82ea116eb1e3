package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetor-hq/praetor/internal/constdiff"
	"github.com/praetor-hq/praetor/internal/constitution"
)

var diffFormat string

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text", "Output format (text|json)")
}

var diffCmd = &cobra.Command{
	Use:   "diff <old.yaml> <new.yaml>",
	Short: "Compare two constitutions and show changes",
	Long: "Loads two constitution YAML files and shows what changed in governance\n" +
		"terms: principles added/removed/changed, red flags, escalation triggers,\n" +
		"activity envelopes, and the integrity hash.",
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldC, err := loadConstitutionFile(args[0])
	if err != nil {
		return fmt.Errorf("load old constitution: %w", err)
	}

	newC, err := loadConstitutionFile(args[1])
	if err != nil {
		return fmt.Errorf("load new constitution: %w", err)
	}

	result := constdiff.Diff(oldC, newC)
	result.OldPath = args[0]
	result.NewPath = args[1]

	switch diffFormat {
	case "json":
		out, err := constdiff.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(constdiff.FormatText(result))
	}

	return nil
}

// loadConstitutionFile loads a constitution and requires the file to
// exist: diffing against the silent built-in default would be misleading.
func loadConstitutionFile(path string) (*constitution.Constitution, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return constitution.Load(path)
}
