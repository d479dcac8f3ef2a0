package pipeline

import (
	"sort"

	"github.com/jackzampolin/storyboard/internal/types"
)

// Assemble concatenates chunk shots in chunk-index order and numbers them 1..K.
// Backend-provided numbers are discarded.
func Assemble(chunks []types.ChunkResult) []types.Shot {
	ordered := make([]types.ChunkResult, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ChunkIndex < ordered[j].ChunkIndex
	})

	total := 0
	for _, c := range ordered {
		total += len(c.Shots)
	}

	shots := make([]types.Shot, 0, total)
	for _, c := range ordered {
		shots = append(shots, c.Shots...)
	}
	for i := range shots {
		shots[i].ShotNumber = i + 1
	}
	return shots
}
