package spandoc

import "context"

// Candidate is a span proposed by the extraction model for one chunk. The
// model supplies a class label, a quoted text, and free-form attributes but
// no positions; quoted text carries no guarantee of verbatim accuracy.
// Candidates are ephemeral and chunk-scoped; they are never persisted
// directly.
type Candidate struct {
	Class      string            `json:"class"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
	ChunkIndex int               `json:"chunkIndex"`
}

// Validate returns an error if the candidate is missing a required field.
// Malformed candidates are skipped individually and never abort a batch.
func (c *Candidate) Validate() error {
	if c.Class == "" {
		return Errorf(EINVALID, "candidate class label required")
	}
	if c.Text == "" {
		return Errorf(EINVALID, "candidate quoted text required")
	}
	return nil
}

// Example is a few-shot demonstration of the expected extraction for a
// short sample text.
type Example struct {
	Text       string      `json:"text"`
	Candidates []Candidate `json:"candidates"`
}

// Prompt configures one extraction invocation: a task description plus an
// ordered list of few-shot examples.
type Prompt struct {
	Instruction string    `json:"instruction"`
	Examples    []Example `json:"examples,omitempty"`
}

// Validate returns an error if the prompt is unusable.
func (p *Prompt) Validate() error {
	if p.Instruction == "" {
		return Errorf(EINVALID, "prompt instruction required")
	}
	return nil
}

// Extractor invokes a language model to extract candidate spans from a
// chunk of canonical text. Implementations exist per provider (gemini/,
// openai/) and hide provider-specific calling conventions. The returned
// candidates are unordered and may contain duplicates or malformed entries.
type Extractor interface {
	Extract(ctx context.Context, chunkText string, prompt Prompt) ([]Candidate, error)
}
