package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/praetor-hq/praetor/internal/constitution"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing constitution")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default constitution",
	Long: "Creates the praetor config directory and writes the commented default\n" +
		"constitution YAML. Honors --constitution as the target path; defaults\n" +
		"to ~/.praetor/constitution.yaml.",
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := flagConstitution
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, ".praetor", "constitution.yaml")
	}

	wrote, err := writeIfMissing(path, constitution.DefaultYAML())
	if err != nil {
		return err
	}
	if !wrote {
		fmt.Printf("%s already exists (use --force to overwrite).\n", path)
		return nil
	}

	fmt.Println("praetor init complete.")
	fmt.Println()
	fmt.Println("Created:")
	fmt.Printf("  %s\n", path)
	fmt.Println()
	fmt.Println("Try an evaluation:")
	fmt.Println("  praetor check --agent demo \"refactor the token parser\"")
	fmt.Println()
	fmt.Println("Start the MCP server:")
	fmt.Printf("  praetor serve --constitution %s --watch\n", path)
	return nil
}

// writeIfMissing writes content to path unless it already exists and
// --force is unset. Returns true when the file was written.
func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
