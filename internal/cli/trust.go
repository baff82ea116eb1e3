package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetor-hq/praetor/internal/model"
	"github.com/praetor-hq/praetor/internal/trust"
)

var liftReason string

func init() {
	rootCmd.AddCommand(trustCmd)
	trustCmd.AddCommand(trustListCmd)
	trustCmd.AddCommand(trustShowCmd)
	trustCmd.AddCommand(trustLiftCmd)
	trustCmd.AddCommand(trustDecayCmd)
	trustLiftCmd.Flags().StringVar(&liftReason, "reason", "", "Reason recorded with the lift (required)")
	trustLiftCmd.MarkFlagRequired("reason")
}

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Trust score inspection",
	Long:  "Commands for inspecting and correcting agent trust state in the SQLite store.",
}

var trustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all agents and their trust state",
	RunE:  runTrustList,
}

var trustShowCmd = &cobra.Command{
	Use:   "show <agent>",
	Short: "Show one agent's trust state and recent events",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrustShow,
}

var trustLiftCmd = &cobra.Command{
	Use:   "lift <agent>",
	Short: "Lift an agent's suspension",
	Long:  "Clears an active suspension. The lift is recorded as a trust event;\nthe score itself is not changed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrustLift,
}

var trustDecayCmd = &cobra.Command{
	Use:   "decay <agent>",
	Short: "Apply temporal decay to an agent's trust score",
	Long: "Re-derives a hypothetical score from the violation history with a 24h\n" +
		"half-life and blends it 50/50 with the current score. Old violations\n" +
		"fade; recent ones keep their weight.",
	Args: cobra.ExactArgs(1),
	RunE: runTrustDecay,
}

// openTrust loads the persistent trust engine from --trust-db.
func openTrust() (*trust.Engine, *trust.Store, error) {
	if flagTrustDB == "" {
		return nil, nil, fmt.Errorf("no trust store: set --trust-db")
	}
	store, err := trust.OpenStore(flagTrustDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open trust store: %w", err)
	}
	eng, err := trust.NewPersistent(store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return eng, store, nil
}

func runTrustList(cmd *cobra.Command, args []string) error {
	eng, store, err := openTrust()
	if err != nil {
		return err
	}
	defer store.Close()

	agents := eng.Agents()
	if len(agents) == 0 {
		fmt.Println("No agents recorded.")
		return nil
	}

	fmt.Printf("%-24s %-7s %-6s %-10s %s\n", "AGENT", "SCORE", "GOOD", "SUSPENDED", "UPDATED")
	for _, id := range agents {
		snap, ok := eng.Snapshot(id)
		if !ok {
			continue
		}
		fmt.Println(trustRow(snap))
	}
	return nil
}

func trustRow(snap model.TrustSnapshot) string {
	suspended := "no"
	if snap.Suspended {
		suspended = "yes"
	}
	return fmt.Sprintf("%-24s %-7.2f %-6d %-10s %s",
		snap.AgentID, snap.Score, snap.ConsecutiveGood, suspended,
		snap.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func runTrustShow(cmd *cobra.Command, args []string) error {
	eng, store, err := openTrust()
	if err != nil {
		return err
	}
	defer store.Close()

	agentID := args[0]
	snap, ok := eng.Snapshot(agentID)
	if !ok {
		return fmt.Errorf("unknown agent %q", agentID)
	}

	fmt.Printf("Agent:       %s\n", snap.AgentID)
	fmt.Printf("Score:       %.3f\n", snap.Score)
	fmt.Printf("Good streak: %d\n", snap.ConsecutiveGood)
	fmt.Printf("Events:      %d\n", snap.EventCount)
	if snap.Suspended {
		fmt.Printf("Suspended:   yes (%s, until %s)\n",
			snap.SuspensionReason, snap.SuspensionExpiry.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Suspended:   no")
	}
	fmt.Printf("Updated:     %s\n", snap.UpdatedAt.Format("2006-01-02 15:04:05"))

	events := eng.Events(agentID)
	if len(events) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println("Recent events:")
	start := len(events) - 10
	if start < 0 {
		start = 0
	}
	for _, ev := range events[start:] {
		desc := ev.Description
		if ev.Type != "" {
			desc = fmt.Sprintf("%s/%s %s", ev.Type, ev.Severity, desc)
		}
		fmt.Printf("  %s %-10s %+.3f  %s\n",
			ev.Timestamp.Format("15:04:05"), ev.Kind, ev.Impact, strings.TrimSpace(desc))
	}
	return nil
}

func runTrustDecay(cmd *cobra.Command, args []string) error {
	eng, store, err := openTrust()
	if err != nil {
		return err
	}
	defer store.Close()

	agentID := args[0]
	before, ok := eng.Snapshot(agentID)
	if !ok {
		return fmt.Errorf("unknown agent %q", agentID)
	}
	after := eng.ApplyTemporalDecay(agentID)
	fmt.Printf("Applied temporal decay to %q: %.3f -> %.3f\n", agentID, before.Score, after.Score)
	return nil
}

func runTrustLift(cmd *cobra.Command, args []string) error {
	eng, store, err := openTrust()
	if err != nil {
		return err
	}
	defer store.Close()

	agentID := args[0]
	if err := eng.LiftSuspension(agentID, liftReason); err != nil {
		return err
	}
	fmt.Printf("Lifted suspension for %q: %s\n", agentID, liftReason)
	return nil
}
