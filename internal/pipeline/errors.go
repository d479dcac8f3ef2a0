package pipeline

import (
	"fmt"

	"github.com/jackzampolin/storyboard/internal/types"
)

// maxRawSnippet bounds how much of a bad response is kept in a ParseError.
const maxRawSnippet = 500

// ParseError reports backend output that is not valid JSON of the expected shape.
// It is never retried.
type ParseError struct {
	Stage string // "split", "shots" or "assets"
	Raw   string // Leading part of the raw response
	Err   error
}

// NewParseError builds a ParseError, truncating raw.
func NewParseError(stage, raw string, err error) *ParseError {
	r := []rune(raw)
	if len(r) > maxRawSnippet {
		raw = string(r[:maxRawSnippet])
	}
	return &ParseError{Stage: stage, Raw: raw, Err: err}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v (raw response: %q)", e.Stage, e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PartialFailureError reports a chunk that failed after earlier chunks succeeded.
// Shots holds the completed shots, already renumbered, so callers may keep them.
type PartialFailureError struct {
	ChunkIndex     int // 0-based index of the failing chunk
	TotalChunks    int
	CompletedShots int
	Shots          []types.Shot
	Err            error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("chunk %d of %d failed after %d shots were generated: %v",
		e.ChunkIndex+1, e.TotalChunks, e.CompletedShots, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// FirstChunkError reports that the first chunk failed, so nothing was produced.
type FirstChunkError struct {
	TotalChunks int
	Err         error
}

func (e *FirstChunkError) Error() string {
	return fmt.Sprintf("first of %d chunks failed, no shots were generated: %v; "+
		"try shortening the input document, reducing the requested shot count, or checking backend connectivity",
		e.TotalChunks, e.Err)
}

func (e *FirstChunkError) Unwrap() error {
	return e.Err
}
