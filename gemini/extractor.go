package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/spandoc"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// Ensure Extractor implements spandoc.Extractor at compile time.
var _ spandoc.Extractor = (*Extractor)(nil)

// Extractor implements spandoc.Extractor using Google Gemini.
type Extractor struct {
	client *genai.Client
}

// NewExtractor creates a new Extractor.
func NewExtractor(client *genai.Client) *Extractor {
	return &Extractor{client: client}
}

// Extract asks Gemini to extract candidate spans from a chunk of text.
func (e *Extractor) Extract(ctx context.Context, chunkText string, prompt spandoc.Prompt) ([]spandoc.Candidate, error) {
	if err := prompt.Validate(); err != nil {
		return nil, err
	}
	if chunkText == "" {
		return nil, spandoc.Errorf(spandoc.EINVALID, "chunk text required")
	}

	result, err := e.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(prompt, chunkText)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, spandoc.Errorf(spandoc.EINTERNAL, "gemini returned nil result")
	}

	return ParseCandidates(result.Text())
}

// BuildConfig returns the GenerateContentConfig for extraction calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.2)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You extract text spans from documents. Quote every extraction verbatim from the provided text, without paraphrasing, correcting, or reordering. Respond with a JSON array of objects, each with a \"class\" string, a \"text\" string quoting the source, and an optional \"attributes\" object of string values. Respond with an empty array if nothing matches.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
}

// BuildUserPrompt builds the user prompt containing the task, few-shot
// examples, and the chunk to extract from.
func BuildUserPrompt(prompt spandoc.Prompt, chunkText string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\n\n", prompt.Instruction)
	if len(prompt.Examples) > 0 {
		sb.WriteString("<examples>\n")
		for _, ex := range prompt.Examples {
			sb.WriteString("<example>\n")
			fmt.Fprintf(&sb, "<text>%s</text>\n", ex.Text)
			out, _ := json.Marshal(exampleRecords(ex.Candidates))
			fmt.Fprintf(&sb, "<output>%s</output>\n", out)
			sb.WriteString("</example>\n")
		}
		sb.WriteString("</examples>\n\n")
	}
	fmt.Fprintf(&sb, "<text>%s</text>", chunkText)
	return sb.String()
}

// ParseCandidates parses the model's JSON array response. Markdown code
// fences around the JSON are tolerated.
func ParseCandidates(raw string) ([]spandoc.Candidate, error) {
	raw = stripFences(raw)
	if raw == "" {
		return nil, nil
	}

	var records []candidateRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, spandoc.Errorf(spandoc.EINTERNAL, "malformed extraction response: %v", err)
	}

	candidates := make([]spandoc.Candidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, spandoc.Candidate{
			Class:      r.Class,
			Text:       r.Text,
			Attributes: r.Attributes,
		})
	}
	return candidates, nil
}

// candidateRecord is the wire shape of a single extraction.
type candidateRecord struct {
	Class      string            `json:"class"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func exampleRecords(candidates []spandoc.Candidate) []candidateRecord {
	records := make([]candidateRecord, 0, len(candidates))
	for _, c := range candidates {
		records = append(records, candidateRecord{Class: c.Class, Text: c.Text, Attributes: c.Attributes})
	}
	return records
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
