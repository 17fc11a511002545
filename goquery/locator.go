package goquery

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/spandoc"
	"golang.org/x/net/html"
)

// blockSelectors lists the container elements searched by the block,
// prefix, and word tiers, most fine-grained first so a paragraph wins
// over the div that wraps it.
var blockSelectors = []string{
	"p", "li", "h1", "h2", "h3", "h4", "h5", "h6",
	"td", "th", "blockquote", "pre", "div",
}

const (
	// minTargetLength guards against degenerate targets that would match
	// almost anywhere.
	minTargetLength = 3

	// prefixLength is how much of a long target the prefix tier searches
	// for; minPrefixLength is the shortest prefix worth searching.
	prefixLength    = 60
	minPrefixLength = 10

	// locateWordCount is how many leading words the word tier keeps.
	locateWordCount = 5
)

// Ensure Locator implements spandoc.Locator at compile time.
var _ spandoc.Locator = (*Locator)(nil)

// Locator re-finds grounded span text inside a parsed HTML document.
// The live tree's layout has nothing in common with the canonical text
// the span was grounded against, so every search works on normalized
// text alone.
type Locator struct {
	doc *goquery.Document
}

// NewLocator parses rawHTML into a searchable document. Nodes matching
// the exclude selector are removed before any search runs; pass "" to
// keep the whole tree.
func NewLocator(rawHTML, exclude string) (*Locator, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, spandoc.Errorf(spandoc.EINVALID, "failed to parse HTML: %v", err)
	}
	if exclude != "" {
		doc.Find(exclude).Remove()
	}
	return &Locator{doc: doc}, nil
}

// Locate runs the strategy cascade and returns the first hit. A miss is
// reported as an ENOTFOUND error; callers treat it as "no highlight".
func (l *Locator) Locate(target string) (*spandoc.Position, error) {
	target = spandoc.Canonicalize(target)
	if len([]rune(target)) < minTargetLength {
		return nil, spandoc.Errorf(spandoc.EINVALID, "target too short to locate")
	}

	if pos := l.locateDocument(target); pos != nil {
		return pos, nil
	}
	if pos := l.locateBlocks(target, spandoc.LocateBlock); pos != nil {
		return pos, nil
	}
	if prefix := targetPrefix(target); prefix != "" {
		if pos := l.locateBlocks(prefix, spandoc.LocatePrefix); pos != nil {
			return pos, nil
		}
	}
	if words := targetWords(target); words != "" {
		if pos := l.locateBlocks(words, spandoc.LocateWords); pos != nil {
			return pos, nil
		}
	}

	return nil, spandoc.Errorf(spandoc.ENOTFOUND, "target text not found in document")
}

// locateDocument searches the normalized rendered text of the whole
// document. Normalizing first means source formatting inside the target,
// or a block boundary crossing it, cannot hide a match; offsets index the
// normalized text, the same coordinate space as every other tier.
func (l *Locator) locateDocument(target string) *spandoc.Position {
	body := l.doc.Find("body")
	if body.Length() == 0 {
		body = l.doc.Selection
	}

	text := spandoc.Canonicalize(body.Text())
	idx := strings.Index(text, target)
	if idx < 0 {
		return nil
	}

	return &spandoc.Position{
		Start:     idx,
		End:       idx + len(target),
		Container: "body",
		Strategy:  spandoc.LocateDocument,
		Text:      target,
	}
}

// locateBlocks searches block-level containers for the needle, finest
// containers first.
func (l *Locator) locateBlocks(needle string, strategy spandoc.LocateStrategy) *spandoc.Position {
	for _, selector := range blockSelectors {
		var found *spandoc.Position
		l.doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := spandoc.Canonicalize(sel.Text())
			idx := strings.Index(text, needle)
			if idx < 0 {
				return true
			}
			found = &spandoc.Position{
				Start:     idx,
				End:       idx + len(needle),
				Container: nodePath(sel),
				Strategy:  strategy,
				Text:      needle,
			}
			return false
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// targetPrefix returns the leading prefixLength runes of a long target.
// Targets at or below prefixLength are skipped: the block tier already
// searched them whole.
func targetPrefix(target string) string {
	runes := []rune(target)
	if len(runes) <= prefixLength {
		return ""
	}
	prefix := strings.TrimSpace(string(runes[:prefixLength]))
	if len([]rune(prefix)) < minPrefixLength {
		return ""
	}
	return prefix
}

// targetWords returns the first locateWordCount words of the target, or
// "" when the target is already that short.
func targetWords(target string) string {
	words := strings.Fields(target)
	if len(words) <= locateWordCount {
		return ""
	}
	return strings.Join(words[:locateWordCount], " ")
}

// nodePath builds a CSS-style path from body down to the node.
func nodePath(sel *goquery.Selection) string {
	if len(sel.Nodes) == 0 {
		return ""
	}

	var parts []string
	for n := sel.Nodes[0]; n != nil && n.Type == html.ElementNode && n.Data != "html"; n = n.Parent {
		if n.Data == "body" {
			parts = append(parts, "body")
			break
		}
		parts = append(parts, fmt.Sprintf("%s:nth-of-type(%d)", n.Data, typeIndex(n)))
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// typeIndex is the node's 1-based position among same-tag element
// siblings, matching CSS nth-of-type semantics.
func typeIndex(n *html.Node) int {
	i := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			i++
		}
	}
	return i
}
