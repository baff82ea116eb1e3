//go:build fieldtest

package fieldtest

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/praetor-hq/praetor/internal/audit"
	"github.com/praetor-hq/praetor/internal/constitution"
	"github.com/praetor-hq/praetor/internal/governor"
	"github.com/praetor-hq/praetor/internal/model"
	"github.com/praetor-hq/praetor/internal/review"
	"github.com/praetor-hq/praetor/internal/trust"
)

// engine is one running governor over file-backed state. Starting a second
// engine on the same root models a process restart: the audit chain and the
// trust state resume from disk.
type engine struct {
	gov     *governor.Governor
	store   *trust.Store
	reviews *review.Store
	root    string
	stopped bool
}

func auditPath(root string) string  { return filepath.Join(root, "logs", "audit.jsonl") }
func trustPath(root string) string  { return filepath.Join(root, "state", "trust.db") }
func reviewPath(root string) string { return filepath.Join(root, "reviews") }

// newArena creates the state root one engine run lives under and returns
// it together with the audit log path.
func newArena(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	return root, auditPath(root)
}

// startEngine assembles a governor in normative mode over the arena's
// audit log, trust database and review directory.
func startEngine(t *testing.T, root string) *engine {
	t.Helper()

	sink, err := audit.OpenFile(auditPath(root))
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	store, err := trust.OpenStore(trustPath(root))
	if err != nil {
		t.Fatalf("open trust store: %v", err)
	}
	reviews, err := review.NewStore(reviewPath(root))
	if err != nil {
		t.Fatalf("open review store: %v", err)
	}

	gov, err := governor.New(constitution.Default(), governor.Options{
		Mode:        model.ModeNormative,
		AuditSinks:  []audit.Sink{sink},
		TrustStore:  store,
		ReviewStore: reviews,
	})
	if err != nil {
		t.Fatalf("build governor: %v", err)
	}
	if err := gov.Start(); err != nil {
		t.Fatalf("start governor: %v", err)
	}

	e := &engine{gov: gov, store: store, reviews: reviews, root: root}
	t.Cleanup(func() {
		if !e.stopped {
			e.stopped = true
			e.gov.Stop()
			e.store.Close()
		}
	})
	return e
}

// stop shuts the governor down and releases the trust store. Stopping the
// governor closes the audit sink; closing the store drains pending saves.
func (e *engine) stop(t *testing.T) {
	t.Helper()
	if e.stopped {
		return
	}
	e.stopped = true
	if err := e.gov.Stop(); err != nil {
		t.Fatalf("stop governor: %v", err)
	}
	if err := e.store.Close(); err != nil {
		t.Fatalf("close trust store: %v", err)
	}
}

// evalExpectApprove evaluates input content and asserts approval.
func evalExpectApprove(t *testing.T, e *engine, agent, content string) *model.Verdict {
	t.Helper()
	v := e.gov.EvaluateInput(agent, content, nil)
	if !v.Approved {
		t.Errorf("expected approval for %q, got denial: %s", content, v.Reasoning)
	}
	return v
}

// evalExpectDeny evaluates input content and asserts denial.
func evalExpectDeny(t *testing.T, e *engine, agent, content string) *model.Verdict {
	t.Helper()
	v := e.gov.EvaluateInput(agent, content, nil)
	if v.Approved {
		t.Errorf("expected denial for %q, got approval", content)
	}
	return v
}

// outputExpectApprove evaluates produced content and asserts approval.
func outputExpectApprove(t *testing.T, e *engine, agent, content string) *model.Verdict {
	t.Helper()
	v := e.gov.EvaluateOutput(agent, content, nil)
	if !v.Approved {
		t.Errorf("expected output approval for %q, got denial: %s", content, v.Reasoning)
	}
	return v
}

// outputExpectDeny evaluates produced content and asserts denial.
func outputExpectDeny(t *testing.T, e *engine, agent, content string) *model.Verdict {
	t.Helper()
	v := e.gov.EvaluateOutput(agent, content, nil)
	if v.Approved {
		t.Errorf("expected output denial for %q, got approval", content)
	}
	return v
}

// hasAction reports whether the verdict carries an action of the given type.
func hasAction(v *model.Verdict, typ model.ActionType) bool {
	for _, a := range v.Actions {
		if a.Type == typ {
			return true
		}
	}
	return false
}

// verifyChain asserts the audit hash chain is intact.
func verifyChain(t *testing.T, auditLogPath string) {
	t.Helper()
	res := audit.Verify(auditLogPath)
	if !res.Valid {
		t.Fatalf("audit chain verification failed at line %d: %s", res.ErrorLine, res.Error)
	}
}

// countEntries counts the number of non-empty lines in the audit log.
func countEntries(t *testing.T, auditLogPath string) int {
	t.Helper()
	f, err := os.Open(auditLogPath)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan audit log: %v", err)
	}
	return count
}

// countEvaluations counts evaluation-category entries; one is written per
// finished verdict.
func countEvaluations(t *testing.T, auditLogPath string) int {
	t.Helper()
	entries := parseEntries(t, auditLogPath)
	count := 0
	for _, e := range entries {
		if c, ok := e["category"].(string); ok && c == "evaluation" {
			count++
		}
	}
	return count
}

// countVerdicts counts evaluation entries carrying a specific message,
// e.g. "input approved" or "output denied".
func countVerdicts(t *testing.T, auditLogPath, message string) int {
	t.Helper()
	entries := parseEntries(t, auditLogPath)
	count := 0
	for _, e := range entries {
		c, ok := e["category"].(string)
		if !ok || c != "evaluation" {
			continue
		}
		if m, ok := e["message"].(string); ok && m == message {
			count++
		}
	}
	return count
}

// parseEntries parses all JSON objects from the audit log.
func parseEntries(t *testing.T, auditLogPath string) []map[string]any {
	t.Helper()
	f, err := os.Open(auditLogPath)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("parse audit entry: %v\nline: %s", err, line)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan audit log: %v", err)
	}
	return entries
}
