package spandoc

import (
	"bufio"
	"encoding/json"
	"io"
)

// exportRecord is the line-oriented interchange representation of an
// entity. Field names are fixed by the export contract consumed by
// external analysis tooling.
type exportRecord struct {
	ClassLabel      string            `json:"class_label"`
	Text            string            `json:"text"`
	StartOffset     int               `json:"start_offset"`
	EndOffset       int               `json:"end_offset"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	AlignmentStatus AlignmentStatus   `json:"alignment_status"`
	Confidence      float64           `json:"confidence"`
}

// WriteEntities serializes entities as one JSON object per line.
func WriteEntities(w io.Writer, entities []*Entity) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, e := range entities {
		rec := exportRecord{
			ClassLabel:      e.Class,
			Text:            e.Text,
			StartOffset:     e.Start,
			EndOffset:       e.End,
			Attributes:      e.Attributes,
			AlignmentStatus: e.Alignment,
			Confidence:      e.Confidence,
		}
		if err := enc.Encode(&rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}
