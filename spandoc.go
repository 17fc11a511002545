// Package spandoc grounds LLM-extracted text spans in source documents.
// A document is reduced to a single canonical text, long texts are split
// into overlapping chunks, an extraction model returns quoted spans with
// no positions, and the aligner recovers character offsets for each span.
// Merged, deduplicated entities can later be re-located inside a live,
// differently-formatted rendering of the same content for highlighting.
//
// This package contains domain types, pure core algorithms, and interfaces
// following Ben Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., sqlite/,
// gemini/, goquery/).
package spandoc
