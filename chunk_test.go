package spandoc_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/spandoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanChunks_SingleChunk(t *testing.T) {
	t.Parallel()

	text := "short canonical text"
	chunks, err := spandoc.PlanChunks(text, spandoc.DefaultChunkConfig())
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(text), chunks[0].End)
	assert.Equal(t, 0, chunks[0].Overlap)
	assert.Equal(t, text, chunks[0].Text(text))
}

func TestPlanChunks_SplitsLongText(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", 10000)
	cfg := spandoc.ChunkConfig{MaxSize: 4000, Overlap: 400}

	chunks, err := spandoc.PlanChunks(text, cfg)
	require.NoError(t, err)

	require.Greater(t, len(chunks), 1)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(text), chunks[len(chunks)-1].End)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, c.End-c.Start, cfg.MaxSize)
		if i < len(chunks)-1 {
			// Consecutive chunks share exactly Overlap bytes.
			assert.Equal(t, cfg.Overlap, c.Overlap)
			assert.Equal(t, c.End-c.Overlap, chunks[i+1].Start)
		} else {
			assert.Equal(t, 0, c.Overlap)
		}
	}
}

func TestPlanChunks_FullCoverage(t *testing.T) {
	t.Parallel()

	configs := []spandoc.ChunkConfig{
		{MaxSize: 100, Overlap: 10},
		{MaxSize: 100, Overlap: 50},
		{MaxSize: 7, Overlap: 3},
		{MaxSize: 4000, Overlap: 400},
	}
	lengths := []int{0, 1, 7, 99, 100, 101, 250, 4001, 12345}

	for _, cfg := range configs {
		for _, n := range lengths {
			text := strings.Repeat("x", n)
			chunks, err := spandoc.PlanChunks(text, cfg)
			require.NoError(t, err)

			// The union of chunk ranges, after removing overlaps once,
			// must equal [0, n) with no gaps and no double counting.
			covered := 0
			for i, c := range chunks {
				require.LessOrEqual(t, c.Start, c.End)
				if i == 0 {
					require.Equal(t, 0, c.Start)
				} else {
					prev := chunks[i-1]
					require.Equal(t, prev.End-prev.Overlap, c.Start)
				}
				covered += (c.End - c.Start) - c.Overlap
			}
			require.Equal(t, n, covered, "config %+v length %d", cfg, n)
			require.Equal(t, n, chunks[len(chunks)-1].End)
		}
	}
}

func TestChunkConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  spandoc.ChunkConfig
	}{
		{"zero max size", spandoc.ChunkConfig{MaxSize: 0, Overlap: 0}},
		{"negative overlap", spandoc.ChunkConfig{MaxSize: 10, Overlap: -1}},
		{"overlap equals max size", spandoc.ChunkConfig{MaxSize: 10, Overlap: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := spandoc.PlanChunks("text", tt.cfg)
			require.Error(t, err)
			assert.Equal(t, spandoc.EINVALID, spandoc.ErrorCode(err))
		})
	}
}
