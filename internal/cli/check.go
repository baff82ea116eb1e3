package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetor-hq/praetor/internal/model"
)

var (
	checkAgent     string
	checkDirection string
	checkThoughts  string
	checkJSON      bool
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkAgent, "agent", "cli", "Agent identifier the verdict is recorded under")
	checkCmd.Flags().StringVar(&checkDirection, "direction", "input", "Evaluation direction (input|output)")
	checkCmd.Flags().StringVar(&checkThoughts, "thoughts", "", "Reasoning trace to feed the behavioral monitor")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the full verdict as JSON")
}

var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Evaluate one piece of content and print the verdict",
	Long: "Runs a single evaluation through the full pipeline: classification,\n" +
		"behavioral monitoring, trust, enforcement. Reads stdin when text is\n" +
		"\"-\" or absent.\n\n" +
		"Exit code 0 if approved, 1 if denied, 2 if denied pending human review.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	content, err := checkContent(args)
	if err != nil {
		return err
	}

	gov, done, err := buildGovernor()
	if err != nil {
		return err
	}
	defer done()

	var mctx *model.Context
	if checkThoughts != "" {
		mctx = &model.Context{Thoughts: checkThoughts}
	}

	var v *model.Verdict
	switch checkDirection {
	case "input", "":
		v = gov.EvaluateInput(checkAgent, content, mctx)
	case "output":
		v = gov.EvaluateOutput(checkAgent, content, mctx)
	default:
		return fmt.Errorf("unknown direction %q: use input or output", checkDirection)
	}

	if checkJSON {
		out, err := json.MarshalIndent(v.ToMap(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		fmt.Print(formatVerdict(v))
	}

	switch {
	case v.Approved:
		return nil
	case v.RequiresHumanReview:
		os.Exit(2)
	default:
		os.Exit(1)
	}
	return nil
}

// checkContent resolves the text under evaluation: a literal argument,
// or stdin when the argument is "-" or absent.
func checkContent(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", fmt.Errorf("no content: pass text as an argument or pipe it to stdin")
	}
	return string(data), nil
}

// formatVerdict renders a one-evaluation terminal summary.
func formatVerdict(v *model.Verdict) string {
	var b strings.Builder

	status := "DENIED"
	switch {
	case v.Approved:
		status = "APPROVED"
	case v.RequiresHumanReview:
		status = "DENIED (needs human review)"
	}
	fmt.Fprintf(&b, "%s  [%s]\n", status, v.ID)
	fmt.Fprintf(&b, "  result:     %s (confidence %.2f, severity %s)\n",
		v.Report.Result, v.Report.Confidence, v.Report.Severity)
	fmt.Fprintf(&b, "  agent:      %s (trust %.2f)\n", v.AgentID, v.Trust.Score)
	if v.Trust.Suspended {
		fmt.Fprintf(&b, "  suspended:  %s\n", v.Trust.SuspensionReason)
	}
	if v.Suspicion != nil {
		fmt.Fprintf(&b, "  suspicion:  %.0f\n", v.Suspicion.Score)
	}
	fmt.Fprintf(&b, "  reasoning:  %s\n", v.Reasoning)
	if len(v.Actions) > 0 {
		names := make([]string, len(v.Actions))
		for i, a := range v.Actions {
			names[i] = string(a.Type)
		}
		fmt.Fprintf(&b, "  actions:    %s\n", strings.Join(names, ", "))
	}
	if len(v.Basis) > 0 {
		fmt.Fprintf(&b, "  basis:      %s\n", strings.Join(v.Basis, ", "))
	}
	return b.String()
}
