package praetor

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// AgentHeader names the request header carrying the agent identity.
const AgentHeader = "X-Praetor-Agent"

// maxBodyBytes caps how much of a request body the middleware evaluates.
const maxBodyBytes = 1 << 20

// Middleware returns an http.Handler that evaluates each request body as
// agent input before passing to the next handler. The agent identity
// comes from the X-Praetor-Agent header; absent, requests share the
// "http" agent. Denied requests receive a 403 with a JSON body.
func (c *Client) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agentID := r.Header.Get(AgentHeader)
		if agentID == "" {
			agentID = "http"
		}

		var content string
		if r.Body != nil && r.ContentLength != 0 {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))
			content = string(body)
		}

		// Empty bodies still run the pipeline: suspension checks apply
		// to every request.
		result := c.EvaluateInput(agentID, content)
		if !result.Approved {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"blocked":               true,
				"verdict_id":            result.VerdictID,
				"result":                result.Classification,
				"reasoning":             result.Reasoning,
				"requires_human_review": result.RequiresHumanReview,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
