package pipeline

import "github.com/jackzampolin/storyboard/internal/types"

// chunkSizeFor picks how many shots one chunk should target.
// Larger runs use smaller chunks so each call stays within output limits.
func chunkSizeFor(target int) int {
	switch {
	case target > 100:
		return 30
	case target > 60:
		return 40
	default:
		return 50
	}
}

// Plan computes the chunk layout for a run asking for between minCount and
// maxCount shots. Callers validate minCount <= maxCount.
func Plan(minCount, maxCount int) types.ChunkPlan {
	target := (minCount + maxCount) / 2
	size := chunkSizeFor(target)

	n := (target + size - 1) / size
	if n < 1 {
		n = 1
	}

	return types.ChunkPlan{
		TargetCount: target,
		ChunkSize:   size,
		NumChunks:   n,
		PerChunkMin: size * 8 / 10,
		PerChunkMax: size * 12 / 10,
	}
}
