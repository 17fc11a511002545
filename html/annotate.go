// Package html injects anchor markers into a document's source HTML so a
// browser can scroll to and highlight grounded entities. Entity offsets
// live in canonical-text coordinates, so annotation maps each offset
// through two layers: canonical text -> extracted text content -> raw
// HTML position.
package html

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/fwojciec/spandoc"
)

// AnchorClass is the CSS class carried by every injected anchor span.
const AnchorClass = "spandoc-anchor"

// entityPattern matches HTML character references (&amp; &nbsp; &#233;).
var entityPattern = regexp.MustCompile(`^&(?:#[xX]?[0-9a-fA-F]+|[a-zA-Z]+);`)

// anchorPattern matches anchor spans injected by a previous annotation.
var anchorPattern = regexp.MustCompile(`<span class="` + AnchorClass + `"[^>]*></span>`)

// Annotate returns rawHTML with an empty
// <span class="spandoc-anchor" data-entity-id="..."></span> inserted at
// each entity's position. Previously injected anchors are stripped
// first, so annotating is idempotent and always reflects exactly the
// given entity set. Entities whose text cannot be found are skipped.
func Annotate(rawHTML string, entities []*spandoc.Entity) (string, error) {
	if rawHTML == "" {
		return rawHTML, nil
	}

	// Strip even when there is nothing to insert: the output must reflect
	// exactly the given entity set, including an empty one.
	stripped := StripAnchors(rawHTML)
	if len(entities) == 0 {
		return stripped, nil
	}
	extracted, textToHTML := buildMapping(stripped)
	canonical, canToExtract := canonicalMapping(extracted)

	type insertion struct {
		htmlPos  int
		entityID string
	}
	var insertions []insertion

	for _, e := range entities {
		canPos := -1
		want := spandoc.Canonicalize(e.Text)

		if e.End > e.Start && e.Start >= 0 && e.Start < len(canonical) && offsetsVerify(canonical, e.Start, want) {
			canPos = e.Start
		} else {
			canPos = searchText(canonical, want)
		}
		if canPos < 0 || canPos >= len(canToExtract) {
			continue
		}

		extractPos := canToExtract[canPos]
		if extractPos >= len(textToHTML) {
			continue
		}
		insertions = append(insertions, insertion{htmlPos: textToHTML[extractPos], entityID: e.ID})
	}

	if len(insertions) == 0 {
		return stripped, nil
	}

	// Insert back to front so earlier positions stay valid.
	sort.SliceStable(insertions, func(i, j int) bool {
		return insertions[i].htmlPos > insertions[j].htmlPos
	})

	annotated := stripped
	for _, ins := range insertions {
		anchor := fmt.Sprintf(`<span class="%s" data-entity-id="%s"></span>`, AnchorClass, ins.entityID)
		annotated = annotated[:ins.htmlPos] + anchor + annotated[ins.htmlPos:]
	}

	return annotated, nil
}

// StripAnchors removes every previously injected anchor span.
func StripAnchors(rawHTML string) string {
	return anchorPattern.ReplaceAllString(rawHTML, "")
}

// ExtractText returns the canonical text content of rawHTML, using the
// same walk as Annotate so positions derived from one agree with the
// other.
func ExtractText(rawHTML string) string {
	extracted, _ := buildMapping(rawHTML)
	return spandoc.Canonicalize(extracted)
}

// buildMapping walks rawHTML and reconstructs its text content, recording
// for every extracted byte the raw HTML position it came from. Tags
// advance only the HTML cursor; character references decode to one or
// more text bytes that all map back to the reference's start. A sentinel
// entry past the last byte supports insertion at the very end.
func buildMapping(rawHTML string) (string, []int) {
	var text strings.Builder
	var toHTML []int

	htmlPos := 0
	for htmlPos < len(rawHTML) {
		c := rawHTML[htmlPos]

		if c == '<' {
			end := strings.IndexByte(rawHTML[htmlPos:], '>')
			if end < 0 {
				break
			}
			htmlPos += end + 1
			continue
		}

		if c == '&' {
			if m := entityPattern.FindString(rawHTML[htmlPos:]); m != "" {
				decoded := html.UnescapeString(m)
				for i := 0; i < len(decoded); i++ {
					toHTML = append(toHTML, htmlPos)
					text.WriteByte(decoded[i])
				}
				htmlPos += len(m)
				continue
			}
		}

		toHTML = append(toHTML, htmlPos)
		text.WriteByte(c)
		htmlPos++
	}

	toHTML = append(toHTML, htmlPos)
	return text.String(), toHTML
}

// canonicalMapping collapses extracted text the way Canonicalize does,
// recording for every canonical byte its position in the extracted text.
// A collapsed space maps to the character that follows the whitespace
// run, so an anchor inserted "at" the space lands before the next word.
func canonicalMapping(extracted string) (string, []int) {
	var canonical strings.Builder
	var toExtract []int

	pendingSpace := false
	for i, r := range extracted {
		if unicode.IsSpace(r) {
			if canonical.Len() > 0 {
				pendingSpace = true
			}
			continue
		}
		if pendingSpace {
			canonical.WriteByte(' ')
			toExtract = append(toExtract, i)
			pendingSpace = false
		}
		start := canonical.Len()
		canonical.WriteRune(r)
		for b := start; b < canonical.Len(); b++ {
			toExtract = append(toExtract, i+(b-start))
		}
	}

	toExtract = append(toExtract, len(extracted))
	return canonical.String(), toExtract
}

// offsetsVerify checks that the canonical text at start actually begins
// with the entity's text. Short texts are taken on faith; longer ones
// compare a leading slice, catching stale offsets from an earlier
// document version.
func offsetsVerify(canonical string, start int, want string) bool {
	if len(want) <= 5 {
		return true
	}
	prefix := want
	if len(prefix) > 15 {
		prefix = prefix[:15]
	}
	return strings.HasPrefix(canonical[start:], prefix)
}

// searchText finds want in canonical text: exact match first, then the
// target's leading characters, for extractions the model lightly
// truncated or rephrased at the tail.
func searchText(canonical, want string) int {
	if len([]rune(want)) < 3 {
		return -1
	}

	if idx := strings.Index(canonical, want); idx >= 0 {
		return idx
	}

	runes := []rune(want)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	prefix := string(runes)
	if len([]rune(prefix)) >= 10 {
		if idx := strings.Index(canonical, prefix); idx >= 0 {
			return idx
		}
	}

	return -1
}
