package spandoc

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// AlignmentStatus classifies how a candidate's quoted text was located in
// canonical text: verbatim, high-similarity, or moderate-overlap only.
// Downstream consumers depend on the three-way distinction.
type AlignmentStatus string

// Alignment statuses in decreasing order of match quality.
const (
	AlignmentExact   AlignmentStatus = "exact"
	AlignmentFuzzy   AlignmentStatus = "fuzzy"
	AlignmentPartial AlignmentStatus = "partial"
)

// Rank orders statuses for merge preference: exact > fuzzy > partial.
func (s AlignmentStatus) Rank() int {
	switch s {
	case AlignmentExact:
		return 3
	case AlignmentFuzzy:
		return 2
	case AlignmentPartial:
		return 1
	}
	return 0
}

// AlignedCandidate is a candidate with recovered chunk-local offsets.
// Start and End are byte offsets into the chunk text (half-open). For
// exact alignments chunkText[Start:End] equals the candidate text; for
// fuzzy and partial alignments the slice is the best located match.
type AlignedCandidate struct {
	Candidate
	Start      int             `json:"start"`
	End        int             `json:"end"`
	Status     AlignmentStatus `json:"status"`
	Confidence float64         `json:"confidence"`
}

// Rejection records a candidate that no tier could place above the partial
// floor, kept for alignment-quality diagnostics.
type Rejection struct {
	Class     string  `json:"class"`
	Text      string  `json:"text"`
	BestScore float64 `json:"bestScore"`
}

// Default alignment thresholds. These were tuned empirically in the system
// this package models and are configuration, not constants of the
// algorithm.
const (
	DefaultFuzzyFloor   = 0.85
	DefaultPartialFloor = 0.5
	DefaultMinLength    = 3
)

// AlignConfig configures the grounding aligner.
type AlignConfig struct {
	// FuzzyFloor is the minimum similarity for a non-verbatim match to be
	// classified fuzzy.
	FuzzyFloor float64

	// PartialFloor is the minimum similarity for a partial match; below it
	// the candidate is rejected.
	PartialFloor float64

	// MinLength is the minimum quoted-text length in runes; shorter quotes
	// are rejected outright as unanchorable.
	MinLength int
}

// DefaultAlignConfig returns the default aligner configuration.
func DefaultAlignConfig() AlignConfig {
	return AlignConfig{
		FuzzyFloor:   DefaultFuzzyFloor,
		PartialFloor: DefaultPartialFloor,
		MinLength:    DefaultMinLength,
	}
}

// Validate returns an error if the thresholds are incoherent.
func (c AlignConfig) Validate() error {
	if c.FuzzyFloor <= 0 || c.FuzzyFloor > 1 {
		return Errorf(EINVALID, "fuzzy floor must be in (0, 1]")
	}
	if c.PartialFloor <= 0 || c.PartialFloor > 1 {
		return Errorf(EINVALID, "partial floor must be in (0, 1]")
	}
	if c.PartialFloor > c.FuzzyFloor {
		return Errorf(EINVALID, "partial floor %.2f must not exceed fuzzy floor %.2f", c.PartialFloor, c.FuzzyFloor)
	}
	if c.MinLength < 1 {
		return Errorf(EINVALID, "min length must be at least 1")
	}
	return nil
}

// Aligner grounds candidates in chunk text using a three-tier strategy:
// exact substring search, best-window fuzzy alignment, partial coverage.
type Aligner struct {
	cfg AlignConfig
}

// NewAligner creates an Aligner with the given configuration.
func NewAligner(cfg AlignConfig) (*Aligner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Aligner{cfg: cfg}, nil
}

// alignOutcome memoizes the result of aligning one distinct quoted text so
// duplicate candidates (the extraction model guarantees no uniqueness)
// are aligned once per chunk.
type alignOutcome struct {
	start      int
	end        int
	status     AlignmentStatus
	confidence float64
	rejected   bool
	bestScore  float64
}

// Align grounds each candidate in chunkText. Candidates that clear a tier
// become AlignedCandidates with chunk-local offsets; candidates below the
// partial floor are returned as Rejections. Candidate quoted text is
// canonicalized before matching, since chunk text lives in canonical
// whitespace space; the aligned candidate carries the canonicalized text so
// exact matches satisfy chunkText[Start:End] == Text. Ties within a tier
// resolve to the earliest chunk-local offset.
func (a *Aligner) Align(chunkText string, candidates []Candidate) ([]AlignedCandidate, []Rejection) {
	var (
		aligned   []AlignedCandidate
		rejected  []Rejection
		memo      = make(map[uint64]alignOutcome)
		chunkToks tokenization
		tokenized bool
	)

	for _, cand := range candidates {
		quote := Canonicalize(cand.Text)
		if len([]rune(quote)) < a.cfg.MinLength {
			rejected = append(rejected, Rejection{Class: cand.Class, Text: cand.Text})
			continue
		}

		key := xxhash.Sum64String(cand.Class + "\x1f" + quote)
		out, ok := memo[key]
		if !ok {
			// Tier 1: exact substring search, first occurrence.
			if i := strings.Index(chunkText, quote); i >= 0 {
				out = alignOutcome{start: i, end: i + len(quote), status: AlignmentExact, confidence: 1}
			} else {
				if !tokenized {
					chunkToks = tokenize(chunkText)
					tokenized = true
				}
				out = a.alignApproximate(chunkText, chunkToks, quote)
			}
			memo[key] = out
		}

		if out.rejected {
			rejected = append(rejected, Rejection{Class: cand.Class, Text: cand.Text, BestScore: out.bestScore})
			continue
		}

		cand.Text = quote
		aligned = append(aligned, AlignedCandidate{
			Candidate:  cand,
			Start:      out.start,
			End:        out.end,
			Status:     out.status,
			Confidence: out.confidence,
		})
	}

	return aligned, rejected
}

// alignApproximate implements tiers 2 and 3: it scans word windows of the
// chunk for the window most similar to the quote and classifies the best
// score against the fuzzy and partial floors.
func (a *Aligner) alignApproximate(chunkText string, toks tokenization, quote string) alignOutcome {
	qWords := len(strings.Fields(quote))
	if qWords == 0 || len(toks.starts) == 0 {
		return alignOutcome{rejected: true}
	}

	folded := strings.ToLower(quote)

	// Window sizes bracket the quote's word count: the model may merge or
	// split a couple of words relative to the source.
	minSize := qWords - 2
	if minSize < 1 {
		minSize = 1
	}
	maxSize := qWords + 2

	bestScore := 0.0
	bestStart, bestEnd := 0, 0

	for size := minSize; size <= maxSize; size++ {
		if size > len(toks.starts) {
			break
		}
		for i := 0; i+size <= len(toks.starts); i++ {
			start := toks.starts[i]
			end := toks.ends[i+size-1]
			score := levenshteinRatio(strings.ToLower(chunkText[start:end]), folded)
			if score > bestScore || (score == bestScore && bestEnd > 0 && start < bestStart) {
				bestScore = score
				bestStart, bestEnd = start, end
			}
		}
	}

	switch {
	case bestScore >= a.cfg.FuzzyFloor:
		return alignOutcome{start: bestStart, end: bestEnd, status: AlignmentFuzzy, confidence: bestScore}
	case bestScore >= a.cfg.PartialFloor:
		return alignOutcome{start: bestStart, end: bestEnd, status: AlignmentPartial, confidence: bestScore}
	default:
		return alignOutcome{rejected: true, bestScore: bestScore}
	}
}

// tokenization holds the byte offsets of each word in a chunk.
type tokenization struct {
	starts []int
	ends   []int
}

// tokenize records the start and end byte offset of every
// whitespace-separated word in text.
func tokenize(text string) tokenization {
	var t tokenization
	inWord := false
	for i := 0; i < len(text); i++ {
		isSpace := text[i] == ' '
		if !isSpace && !inWord {
			t.starts = append(t.starts, i)
			inWord = true
		} else if isSpace && inWord {
			t.ends = append(t.ends, i)
			inWord = false
		}
	}
	if inWord {
		t.ends = append(t.ends, len(text))
	}
	return t
}

// TextSimilarity returns the case-folded normalized edit-distance
// similarity of two strings in [0, 1]. It is the measure used both for
// fuzzy alignment scoring and for near-equality tests during entity
// merging.
func TextSimilarity(a, b string) float64 {
	return levenshteinRatio(strings.ToLower(a), strings.ToLower(b))
}

// levenshteinRatio computes 1 - dist/maxLen over runes.
func levenshteinRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 || lb == 0 {
		return 0
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d := prev[j] + 1 // deletion
			if ins := curr[j-1] + 1; ins < d {
				d = ins
			}
			if sub := prev[j-1] + cost; sub < d {
				d = sub
			}
			curr[j] = d
		}
		prev, curr = curr, prev
	}

	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	return 1 - float64(prev[lb])/float64(maxLen)
}
