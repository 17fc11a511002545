package spandoc

// Default chunk planning parameters. Texts at or below DefaultChunkSize are
// processed as a single chunk; longer texts are split into overlapping
// windows so spans straddling a window boundary are fully contained in the
// next window.
const (
	DefaultChunkSize    = 4000
	DefaultChunkOverlap = 400
)

// Chunk represents a window of canonical text sent to the extraction model.
// Start and End are absolute canonical-text coordinates (half-open), so
// chunk-local match offsets can be translated to global coordinates by
// adding Start.
type Chunk struct {
	Index   int `json:"index"`
	Start   int `json:"start"`
	End     int `json:"end"`
	Overlap int `json:"overlap"` // trailing overlap shared with the next chunk
}

// Text returns the chunk's slice of canonical text.
func (c Chunk) Text(canonical string) string {
	return canonical[c.Start:c.End]
}

// ChunkConfig configures the chunk planner.
type ChunkConfig struct {
	// MaxSize is the maximum chunk length in bytes.
	MaxSize int

	// Overlap is the number of trailing bytes each chunk shares with the
	// next. Must be smaller than MaxSize.
	Overlap int
}

// DefaultChunkConfig returns the default planner configuration.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{MaxSize: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// Validate returns an error if the configuration cannot make progress.
func (c ChunkConfig) Validate() error {
	if c.MaxSize <= 0 {
		return Errorf(EINVALID, "chunk max size must be positive")
	}
	if c.Overlap < 0 {
		return Errorf(EINVALID, "chunk overlap must not be negative")
	}
	if c.Overlap >= c.MaxSize {
		return Errorf(EINVALID, "chunk overlap %d must be smaller than max size %d", c.Overlap, c.MaxSize)
	}
	return nil
}

// PlanChunks splits canonical text into overlapping windows. Texts at or
// below cfg.MaxSize yield a single chunk covering the whole text. The last
// chunk always ends exactly at len(canonical); together the chunks cover
// the full text with no gaps, and consecutive chunks share exactly
// Overlap bytes.
func PlanChunks(canonical string, cfg ChunkConfig) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := len(canonical)
	if n <= cfg.MaxSize {
		return []Chunk{{Index: 0, Start: 0, End: n}}, nil
	}

	stride := cfg.MaxSize - cfg.Overlap

	var chunks []Chunk
	for start := 0; ; start += stride {
		end := start + cfg.MaxSize
		if end >= n {
			chunks = append(chunks, Chunk{Index: len(chunks), Start: start, End: n})
			break
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Start:   start,
			End:     end,
			Overlap: end - (start + stride),
		})
	}

	return chunks, nil
}
