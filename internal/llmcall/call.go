// Package llmcall records every backend invocation for traceability.
// Each call is stored with its prompt key, category, model, response and latency.
package llmcall

import (
	"time"

	"github.com/google/uuid"
)

// Call represents a recorded backend invocation.
type Call struct {
	// Unique identifier
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	RunID string `json:"run_id,omitempty"`

	// Prompt traceability
	PromptKey string `json:"prompt_key"`

	// Routing info
	Category string `json:"category"`
	Model    string `json:"model"`

	// Response
	Response string `json:"response"`

	// Status
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording a call.
type RecordOptions struct {
	RunID     string
	PromptKey string
	Category  string
	Model     string
}

// NewCall builds a Call from the outcome of a single invocation.
func NewCall(opts RecordOptions, started time.Time, response string, err error) *Call {
	call := &Call{
		ID:        uuid.New().String(),
		Timestamp: started,
		LatencyMs: int(time.Since(started).Milliseconds()),
		RunID:     opts.RunID,
		PromptKey: opts.PromptKey,
		Category:  opts.Category,
		Model:     opts.Model,
		Response:  response,
		Success:   err == nil,
	}
	if err != nil {
		call.Error = err.Error()
	}
	return call
}
