package spandoc

import "sort"

// Default merge thresholds: two aligned candidates are duplicates when
// their global ranges overlap by more than half of the shorter range and
// their texts are equal or near-equal.
const (
	DefaultMergeOverlapRatio   = 0.5
	DefaultMergeTextSimilarity = 0.9
)

// MergeConfig configures duplicate detection during entity merging.
type MergeConfig struct {
	// OverlapRatio is the minimum overlap, as a fraction of the shorter
	// range, for two candidates to be considered the same passage.
	OverlapRatio float64

	// TextSimilarity is the minimum similarity for two candidate texts to
	// be considered near-equal.
	TextSimilarity float64
}

// DefaultMergeConfig returns the default merge configuration.
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		OverlapRatio:   DefaultMergeOverlapRatio,
		TextSimilarity: DefaultMergeTextSimilarity,
	}
}

// Validate returns an error if the configuration is incoherent.
func (c MergeConfig) Validate() error {
	if c.OverlapRatio <= 0 || c.OverlapRatio >= 1 {
		return Errorf(EINVALID, "merge overlap ratio must be in (0, 1)")
	}
	if c.TextSimilarity <= 0 || c.TextSimilarity > 1 {
		return Errorf(EINVALID, "merge text similarity must be in (0, 1]")
	}
	return nil
}

// Merge combines aligned candidates from all chunks into one deduplicated,
// globally-offset entity set. aligned[i] holds the aligned candidates of
// chunks[i]; chunk-local offsets are translated to canonical-text
// coordinates by adding the chunk's start offset. Overlapping chunks
// produce duplicate candidates for passages straddling a boundary; each
// duplicate cluster collapses to a single entity, preferring higher
// alignment rank, then higher confidence, then the earlier chunk. The
// surviving offsets come from an exact member when one exists, otherwise
// from the widest matching span. Merging is idempotent: running it again
// over its own output changes nothing.
//
// The returned entities carry class, text, offsets, attributes, alignment
// and confidence; the caller assigns identity (run and document IDs) before
// persisting. Results are ordered by start offset.
func Merge(chunks []Chunk, aligned [][]AlignedCandidate, cfg MergeConfig) ([]*Entity, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(aligned) != len(chunks) {
		return nil, Errorf(EINVALID, "aligned candidate lists (%d) must match chunks (%d)", len(aligned), len(chunks))
	}

	// Translate to global coordinates.
	var all []AlignedCandidate
	for i, chunk := range chunks {
		for _, ac := range aligned[i] {
			ac.Start += chunk.Start
			ac.End += chunk.Start
			ac.ChunkIndex = chunk.Index
			all = append(all, ac)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].End < all[j].End
	})

	// Greedy clustering over the sorted candidates.
	var clusters [][]AlignedCandidate
	for _, ac := range all {
		placed := false
		for ci := range clusters {
			for _, member := range clusters[ci] {
				if isDuplicate(ac, member, cfg) {
					clusters[ci] = append(clusters[ci], ac)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			clusters = append(clusters, []AlignedCandidate{ac})
		}
	}

	entities := make([]*Entity, 0, len(clusters))
	for _, cluster := range clusters {
		entities = append(entities, collapse(cluster))
	}

	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		return entities[i].End < entities[j].End
	})

	return entities, nil
}

// isDuplicate reports whether two globally-offset candidates cover the
// same passage: range overlap above the ratio of the shorter range, same
// class, and equal or near-equal text.
func isDuplicate(a, b AlignedCandidate, cfg MergeConfig) bool {
	if a.Class != b.Class {
		return false
	}

	overlap := min(a.End, b.End) - max(a.Start, b.Start)
	if overlap <= 0 {
		return false
	}
	shorter := min(a.End-a.Start, b.End-b.Start)
	if shorter <= 0 {
		return false
	}
	if float64(overlap)/float64(shorter) <= cfg.OverlapRatio {
		return false
	}

	return a.Text == b.Text || TextSimilarity(a.Text, b.Text) >= cfg.TextSimilarity
}

// collapse reduces a duplicate cluster to its surviving entity.
func collapse(cluster []AlignedCandidate) *Entity {
	best := cluster[0]
	for _, ac := range cluster[1:] {
		if preferred(ac, best) {
			best = ac
		}
	}

	start, end := best.Start, best.End
	if best.Status != AlignmentExact {
		// No exact member: keep the widest matching span.
		for _, ac := range cluster {
			if ac.End-ac.Start > end-start {
				start, end = ac.Start, ac.End
			}
		}
	}

	return &Entity{
		Class:      best.Class,
		Text:       best.Text,
		Start:      start,
		End:        end,
		Attributes: best.Attributes,
		Alignment:  best.Status,
		Confidence: best.Confidence,
		Valid:      true,
	}
}

// preferred reports whether a beats b: higher alignment rank, then higher
// confidence, then earlier chunk index.
func preferred(a, b AlignedCandidate) bool {
	if a.Status.Rank() != b.Status.Rank() {
		return a.Status.Rank() > b.Status.Rank()
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.ChunkIndex < b.ChunkIndex
}
