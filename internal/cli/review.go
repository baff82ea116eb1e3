package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetor-hq/praetor/internal/review"
)

var (
	reviewStatus string
	reviewBy     string
	reviewNote   string
)

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewDenyCmd)
	reviewListCmd.Flags().StringVar(&reviewStatus, "status", "pending", "Filter by status (pending|approved|denied|expired|all)")
	for _, c := range []*cobra.Command{reviewApproveCmd, reviewDenyCmd} {
		c.Flags().StringVar(&reviewBy, "by", "", "Reviewer identity recorded with the decision")
		c.Flags().StringVar(&reviewNote, "note", "", "Free-form note recorded with the decision")
	}
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Human review queue",
	Long:  "Commands for listing and resolving verdicts escalated to a human.",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review items",
	RunE:  runReviewList,
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <key>",
	Short: "Approve a pending review item",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewApprove,
}

var reviewDenyCmd = &cobra.Command{
	Use:   "deny <key>",
	Short: "Deny a pending review item",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewDeny,
}

// openReviews opens the review store at --review-dir or the default.
func openReviews() (*review.Store, error) {
	dir := flagReviewDir
	if dir == "" {
		dir = review.DefaultDir()
	}
	return review.NewStore(dir)
}

// reviewer resolves the identity recorded with a decision.
func reviewer() string {
	if reviewBy != "" {
		return reviewBy
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "operator"
}

func runReviewList(cmd *cobra.Command, args []string) error {
	store, err := openReviews()
	if err != nil {
		return fmt.Errorf("open review store: %w", err)
	}

	status := review.Status(reviewStatus)
	if reviewStatus == "all" {
		status = ""
	}

	items, err := store.List(status)
	if err != nil {
		return fmt.Errorf("list review items: %w", err)
	}
	if len(items) == 0 {
		fmt.Println("No review items.")
		return nil
	}

	fmt.Printf("%-36s %-16s %-9s %-40s %s\n", "KEY", "AGENT", "STATUS", "REASON", "CREATED")
	for _, item := range items {
		fmt.Printf("%-36s %-16s %-9s %-40s %s\n",
			item.Key,
			truncate(item.Agent, 16),
			item.Status,
			truncate(item.Reason, 40),
			item.Created.Format("2006-01-02 15:04"),
		)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func runReviewApprove(cmd *cobra.Command, args []string) error {
	store, err := openReviews()
	if err != nil {
		return fmt.Errorf("open review store: %w", err)
	}
	if err := store.Approve(args[0], reviewer(), reviewNote); err != nil {
		return err
	}
	fmt.Printf("Approved %q\n", args[0])
	return nil
}

func runReviewDeny(cmd *cobra.Command, args []string) error {
	store, err := openReviews()
	if err != nil {
		return fmt.Errorf("open review store: %w", err)
	}
	if err := store.Deny(args[0], reviewer(), reviewNote); err != nil {
		return err
	}
	fmt.Printf("Denied %q\n", args[0])
	return nil
}
