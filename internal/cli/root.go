package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetor-hq/praetor/internal/integrity"
)

var (
	flagConstitution string
	flagMode         string
	flagAuditLog     string
	flagTrustDB      string
	flagReviewDir    string
)

var rootCmd = &cobra.Command{
	Use:   "praetor",
	Short: "Constitutional governance engine for AI agent systems",
	Long: "Evaluates agent inputs and outputs against a constitution, tracks per-agent\n" +
		"trust and behavioral suspicion, and enforces verdicts — deny, escalate,\n" +
		"suspend — before content crosses the boundary.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := integrity.Verify(); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(78) // EX_CONFIG
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConstitution, "constitution", "", "Path to constitution YAML (default ~/.praetor/constitution.yaml)")
	pf.StringVar(&flagMode, "mode", "", "Enforcement mode: passive|normative|coercive|adaptive (default normative)")
	pf.StringVar(&flagAuditLog, "audit-log", "", "Path to the hash-chained JSONL audit log")
	pf.StringVar(&flagTrustDB, "trust-db", "", "Path to the SQLite trust store")
	pf.StringVar(&flagReviewDir, "review-dir", "", "Directory for the human review queue (default ~/.praetor/reviews)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
