//go:build dogfight

// Package dogfight runs adversarial rounds against a compiled praetor
// binary: benign traffic must flow, attacks must be denied, and the audit
// chain must survive tampering attempts.
//
// Run: go test -tags dogfight -v ./internal/dogfight/
package dogfight

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// binaryPath is the compiled praetor binary, built once in TestMain.
var binaryPath string

func TestMain(m *testing.M) {
	root := findRepoRoot()

	tmpDir, err := os.MkdirTemp("", "dogfight-bin-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "praetor")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/praetor")
	cmd.Dir = root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build praetor binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func findRepoRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		panic("getwd: " + err.Error())
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("go.mod not found above " + dir)
		}
		dir = parent
	}
}

// arena is one isolated praetor deployment: its own audit log, trust
// store and review queue, default constitution.
type arena struct {
	dir      string
	auditLog string
	trustDB  string
	reviews  string
}

func newArena(t *testing.T) *arena {
	t.Helper()
	dir := t.TempDir()
	return &arena{
		dir:      dir,
		auditLog: filepath.Join(dir, "audit.log"),
		trustDB:  filepath.Join(dir, "trust.db"),
		reviews:  filepath.Join(dir, "reviews"),
	}
}

// run executes the binary with the arena's persistent flags prepended and
// returns exit code, stdout and stderr.
func (a *arena) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	full := append([]string{
		"--audit-log", a.auditLog,
		"--trust-db", a.trustDB,
		"--review-dir", a.reviews,
	}, args...)
	cmd := exec.Command(binaryPath, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if err != nil {
		ee, ok := err.(*exec.ExitError)
		if !ok {
			t.Fatalf("run praetor %v: %v", args, err)
		}
		code = ee.ExitCode()
	}
	return code, stdout.String(), stderr.String()
}

// check evaluates one piece of content for an agent.
func (a *arena) check(t *testing.T, agent, direction, content string) (int, string) {
	t.Helper()
	code, out, _ := a.run(t, "check", "--agent", agent, "--direction", direction, content)
	return code, out
}

func (a *arena) expectApprove(t *testing.T, agent, direction, content string) {
	t.Helper()
	code, out := a.check(t, agent, direction, content)
	if code != 0 {
		t.Errorf("expected approval (exit 0), got exit %d\ncontent: %q\noutput:\n%s", code, content, out)
	}
}

func (a *arena) expectDeny(t *testing.T, agent, direction, content string) {
	t.Helper()
	code, out := a.check(t, agent, direction, content)
	if code == 0 {
		t.Errorf("expected denial, got approval\ncontent: %q\noutput:\n%s", content, out)
	}
}

// parseEntries reads the arena's audit log as JSONL.
func (a *arena) parseEntries(t *testing.T) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(a.auditLog)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	var entries []map[string]any
	for i, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("audit line %d is not JSON: %v", i+1, err)
		}
		entries = append(entries, e)
	}
	return entries
}

// evaluations filters the audit log down to evaluation-category entries.
func (a *arena) evaluations(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, e := range a.parseEntries(t) {
		if cat, _ := e["category"].(string); cat == "evaluation" {
			out = append(out, e)
		}
	}
	return out
}

func (a *arena) verifyChain(t *testing.T) {
	t.Helper()
	code, out, errOut := a.run(t, "audit", "verify", a.auditLog)
	if code != 0 {
		t.Errorf("audit chain verification failed (exit %d)\nstdout: %s\nstderr: %s", code, out, errOut)
	}
}

func (a *arena) verifyChainBroken(t *testing.T) {
	t.Helper()
	code, _, _ := a.run(t, "audit", "verify", a.auditLog)
	if code == 0 {
		t.Errorf("audit chain verified clean, expected it to be broken")
	}
}
