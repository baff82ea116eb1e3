//go:build research

package redaction

import (
	"strings"
	"testing"

	"github.com/praetor-hq/praetor/internal/model"
	"github.com/praetor-hq/praetor/internal/redact"
)

// TestMaskLeaksNothing walks the labeled corpus and asserts no secret
// literal survives into the masked form, the form excerpts are built from.
func TestMaskLeaksNothing(t *testing.T) {
	for _, tc := range corpus {
		t.Run(tc.name, func(t *testing.T) {
			masked := redact.Mask(tc.content)
			for _, secret := range tc.secrets {
				if strings.Contains(masked, secret) {
					t.Errorf("secret %q survived masking:\n%s", secret, masked)
				}
			}
			if !strings.Contains(masked, "[MASKED:") {
				t.Errorf("no mask marker in output:\n%s", masked)
			}
		})
	}
}

// TestMaskKeepsContext checks that masking removes the value, not the
// evidence: a reviewer reading the excerpt must still see what kind of
// material the agent was handling.
func TestMaskKeepsContext(t *testing.T) {
	masked := redact.Mask("password=hunter2hunter2 for the staging database")
	if !strings.Contains(masked, "password=") {
		t.Errorf("key name lost: %q", masked)
	}
	if !strings.Contains(masked, "staging database") {
		t.Errorf("surrounding context lost: %q", masked)
	}
	if !strings.Contains(masked, "[MASKED:credential]") {
		t.Errorf("kind marker missing: %q", masked)
	}
}

// TestMaskIdempotent re-masks masked output. The markers themselves must
// not look like secrets, or excerpts would churn on every pass.
func TestMaskIdempotent(t *testing.T) {
	for _, tc := range corpus {
		once := redact.Mask(tc.content)
		twice := redact.Mask(once)
		if once != twice {
			t.Errorf("%s: masking is not idempotent:\n once: %q\ntwice: %q", tc.name, once, twice)
		}
	}
}

// TestExcerptAfterMask reproduces the verdict pipeline's order: mask, then
// truncate. A secret sitting across the excerpt boundary must already be
// gone before truncation can split it into an unrecognizable fragment.
func TestExcerptAfterMask(t *testing.T) {
	filler := strings.Repeat("x", model.ExcerptLen-10)
	content := filler + " password=tail-secret-value-1"

	excerpt := model.Excerpt(redact.Mask(content))
	if strings.Contains(excerpt, "tail-secret") {
		t.Errorf("secret fragment in excerpt: %q", excerpt)
	}

	// The reverse order is exactly the leak this test pins down.
	leaky := redact.Mask(model.Excerpt(content))
	if !strings.Contains(leaky, "tail-secret") {
		t.Logf("note: truncate-then-mask happened to catch the fragment; order still matters for longer values")
	}
}
