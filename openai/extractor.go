package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/spandoc"
	"github.com/openai/openai-go"
)

const systemPrompt = "You extract text spans from documents. Quote every extraction verbatim from the provided text, without paraphrasing, correcting, or reordering. Respond with a JSON array of objects, each with a \"class\" string, a \"text\" string quoting the source, and an optional \"attributes\" object of string values. Respond with an empty array if nothing matches."

// Ensure Extractor implements spandoc.Extractor at compile time.
var _ spandoc.Extractor = (*Extractor)(nil)

// Extractor implements spandoc.Extractor using OpenAI chat completions.
type Extractor struct {
	client openai.Client
	model  openai.ChatModel
}

// NewExtractor creates a new Extractor. An empty model selects GPT-4o.
func NewExtractor(client openai.Client, model string) *Extractor {
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return &Extractor{client: client, model: model}
}

// Extract asks the model to extract candidate spans from a chunk of text.
func (e *Extractor) Extract(ctx context.Context, chunkText string, prompt spandoc.Prompt) ([]spandoc.Candidate, error) {
	if err := prompt.Validate(); err != nil {
		return nil, err
	}
	if chunkText == "" {
		return nil, spandoc.Errorf(spandoc.EINVALID, "chunk text required")
	}

	completion, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildUserPrompt(prompt, chunkText)),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, spandoc.Errorf(spandoc.EINTERNAL, "openai returned no choices")
	}

	return ParseCandidates(completion.Choices[0].Message.Content)
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
