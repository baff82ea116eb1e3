package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/praetor-hq/praetor/internal/constitution"
	praetormcp "github.com/praetor-hq/praetor/internal/mcp"
)

var serveWatch bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Hot-reload the constitution when the file changes")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP governor server on stdio",
	Long: "Runs praetor as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes governance tools: evaluate_input, evaluate_output, agent_status,\n" +
		"lift_suspension, constitution_info.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveWatch && flagConstitution == "" {
		return fmt.Errorf("--watch requires --constitution")
	}

	cfg := praetormcp.Config{
		ConstitutionPath: flagConstitution,
		Mode:             flagMode,
		AuditLogPath:     flagAuditLog,
		TrustDBPath:      flagTrustDB,
		ReviewDir:        flagReviewDir,
	}

	srv, err := praetormcp.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down praetor...")
		cancel()
	}()

	if serveWatch {
		w := constitution.NewWatcher(flagConstitution, func(c *constitution.Constitution) {
			if err := srv.Governor().ReloadConstitution(c); err != nil {
				fmt.Fprintf(os.Stderr, "constitution reload rejected: %v\n", err)
				return
			}
			fmt.Fprintf(os.Stderr, "constitution reloaded (hash %s)\n", srv.Governor().ConstitutionHash())
		})
		go func() {
			if err := w.Run(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "constitution watcher stopped: %v\n", err)
			}
		}()
	}

	fmt.Fprintln(os.Stderr, "praetor MCP server running on stdio")
	fmt.Fprintf(os.Stderr, "Constitution hash: %s\n", srv.Governor().ConstitutionHash())
	fmt.Fprintf(os.Stderr, "Mode: %s\n", srv.Governor().Mode())
	fmt.Fprintln(os.Stderr)

	err = srv.Run(ctx)

	// Session metrics for the operator; verdict details live in the audit log.
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Session metrics:")
	out, _ := json.MarshalIndent(srv.Governor().Metrics(), "", "  ")
	fmt.Fprintln(os.Stderr, string(out))

	return err
}
