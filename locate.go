package spandoc

// LocateStrategy names the cascade tier that produced a position, from the
// most precise (whole rendered text) to the loosest (first words).
type LocateStrategy string

// Locate strategies in cascade order.
const (
	LocateDocument LocateStrategy = "document"
	LocateBlock    LocateStrategy = "block"
	LocatePrefix   LocateStrategy = "prefix"
	LocateWords    LocateStrategy = "words"
)

// Position is the location of a grounded span inside a live document tree.
// Start and End are offsets into the normalized text of the container
// node; Container is a CSS-style path to that node.
type Position struct {
	Start     int            `json:"start"`
	End       int            `json:"end"`
	Container string         `json:"container"`
	Strategy  LocateStrategy `json:"strategy"`
	Text      string         `json:"text"`
}

// Locator re-finds a grounded span's text inside a live, differently
// structured rendering of the same content, for highlighting and
// navigation. Stored canonical-text offsets are not valid against the live
// tree's own layout, so location works on text alone.
//
// A miss returns an ENOTFOUND coded error; it is a normal, expected
// outcome (stale content) and callers must treat it as "no highlight",
// never as a failure.
type Locator interface {
	Locate(target string) (*Position, error)
}
