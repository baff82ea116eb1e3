package certify

import (
	"fmt"

	"github.com/praetor-hq/praetor/internal/model"
)

// CaseResult is the outcome of one conformance check.
type CaseResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// CategoryResult aggregates the checks under one heading.
type CategoryResult struct {
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}

// CertResult is the full conformance outcome.
type CertResult struct {
	Suite      string           `json:"suite"`
	Version    string           `json:"version"`
	Mode       string           `json:"mode"`
	Total      int              `json:"total"`
	Passed     int              `json:"passed"`
	Failed     int              `json:"failed"`
	Categories []CategoryResult `json:"categories"`
}

// Run executes every conformance check against the given enforcement mode.
// Each check drives its own governor; a failed check never contaminates
// the next. Only harness construction can error.
func Run(mode model.Mode) (*CertResult, error) {
	if mode == "" {
		mode = model.ModeNormative
	}
	if _, err := model.ParseMode(string(mode)); err != nil {
		return nil, err
	}

	result := &CertResult{
		Suite:   suiteName,
		Version: suiteVersion,
		Mode:    string(mode),
	}

	index := make(map[string]int)
	for _, chk := range checks {
		h, err := newHarness(mode)
		if err != nil {
			return nil, err
		}
		caseResult := CaseResult{Name: chk.Name, Passed: true}
		if err := runCheck(chk, h); err != nil {
			caseResult.Passed = false
			caseResult.Detail = err.Error()
		}
		h.close()

		i, ok := index[chk.Category]
		if !ok {
			i = len(result.Categories)
			index[chk.Category] = i
			result.Categories = append(result.Categories, CategoryResult{Name: chk.Category})
		}
		cat := &result.Categories[i]
		cat.Total++
		cat.Cases = append(cat.Cases, caseResult)
		result.Total++
		if caseResult.Passed {
			cat.Passed++
			result.Passed++
		} else {
			cat.Failed++
			result.Failed++
		}
	}
	return result, nil
}

// runCheck contains a panicking check the same way the engine contains a
// panicking evaluation: it becomes a failure, not a crash.
func runCheck(chk Check, h *harness) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check panicked: %v", r)
		}
	}()
	return chk.Run(h)
}
