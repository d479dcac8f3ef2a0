package pipeline

import (
	"testing"

	"github.com/jackzampolin/storyboard/internal/types"
)

func chunkOf(index int, numbers []int, tag string) types.ChunkResult {
	shots := make([]types.Shot, len(numbers))
	for i, n := range numbers {
		shots[i] = types.Shot{ShotNumber: n, Dialogue: tag}
	}
	return types.ChunkResult{ChunkIndex: index, Shots: shots}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name   string
		chunks []types.ChunkResult
	}{
		{"all zero", []types.ChunkResult{chunkOf(0, []int{0, 0, 0}, "a"), chunkOf(1, []int{0, 0}, "b")}},
		{"duplicates", []types.ChunkResult{chunkOf(0, []int{1, 2, 3}, "a"), chunkOf(1, []int{1, 2, 3}, "b")}},
		{"gaps and reversed", []types.ChunkResult{chunkOf(0, []int{9, 4, 100}, "a"), chunkOf(1, []int{-1, 7}, "b")}},
		{"out of order input", []types.ChunkResult{chunkOf(1, []int{1, 2}, "b"), chunkOf(0, []int{50, 51, 52}, "a")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assemble(tt.chunks)
			if len(got) != 5 {
				t.Fatalf("len = %d, want 5", len(got))
			}
			for i, s := range got {
				if s.ShotNumber != i+1 {
					t.Errorf("shot %d numbered %d", i, s.ShotNumber)
				}
			}
			for i, want := range []string{"a", "a", "a", "b", "b"} {
				if got[i].Dialogue != want {
					t.Errorf("shot %d from chunk %q, want %q", i+1, got[i].Dialogue, want)
				}
			}
		})
	}
}

func TestAssemble_DoesNotMutateInput(t *testing.T) {
	chunks := []types.ChunkResult{chunkOf(0, []int{7, 7}, "a")}
	Assemble(chunks)
	if chunks[0].Shots[0].ShotNumber != 7 {
		t.Errorf("input renumbered to %d", chunks[0].Shots[0].ShotNumber)
	}
}

func TestAssemble_Empty(t *testing.T) {
	if got := Assemble(nil); len(got) != 0 {
		t.Errorf("Assemble(nil) = %v", got)
	}
}
