// Package pipeline orchestrates extraction runs. It coordinates chunk
// planning, parallel model invocation, per-chunk grounding, and the final
// merge into a persisted entity set.
package pipeline
