package spandoc

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Canonicalize produces the definitive plain-text representation of a
// document: every whitespace run (spaces, tabs, newlines) collapses to a
// single space and leading/trailing whitespace is trimmed. Case and
// punctuation are preserved exactly because downstream offset matching
// depends on exact bytes.
//
// Every component that produces or compares canonical text must use this
// function; it is the single source of truth for coordinate consistency.
func Canonicalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// FingerprintText computes the hex-encoded SHA-256 fingerprint of canonical
// text. Equal fingerprints are treated as proof of equal text. A changed
// fingerprint on re-import invalidates all entities grounded against the
// previous text.
func FingerprintText(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
