package types

import "strings"

// NarrativeContext is optional precomputed analysis of a document.
type NarrativeContext struct {
	PlotSummary    string   `json:"plot_summary,omitempty" yaml:"plot_summary,omitempty"`
	EmotionalBeats []string `json:"emotional_beats,omitempty" yaml:"emotional_beats,omitempty"`
	HiddenDetails  []string `json:"hidden_details,omitempty" yaml:"hidden_details,omitempty"`
}

// IsEmpty reports whether the context carries no usable information.
func (n *NarrativeContext) IsEmpty() bool {
	if n == nil {
		return true
	}
	return strings.TrimSpace(n.PlotSummary) == "" && len(n.EmotionalBeats) == 0 && len(n.HiddenDetails) == 0
}

// Document is the source text of a pipeline run. It is never mutated by the pipeline.
type Document struct {
	Title     string
	Text      string
	Narrative *NarrativeContext
}

// Len returns the document length in characters (runes).
func (d Document) Len() int {
	return len([]rune(d.Text))
}

// ChunkPlan describes how a run divides its target shot count across chunks.
type ChunkPlan struct {
	TargetCount int `json:"target_count" yaml:"target_count"`
	ChunkSize   int `json:"chunk_size" yaml:"chunk_size"`
	NumChunks   int `json:"num_chunks" yaml:"num_chunks"`
	PerChunkMin int `json:"per_chunk_min" yaml:"per_chunk_min"`
	PerChunkMax int `json:"per_chunk_max" yaml:"per_chunk_max"`
}

// Progress is reported before and after every chunk.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// ProgressFunc receives progress notifications. It must not block.
type ProgressFunc func(Progress)
