package mock

import "github.com/fwojciec/spandoc"

var _ spandoc.Locator = (*Locator)(nil)

// Locator is a mock implementation of spandoc.Locator.
type Locator struct {
	LocateFn func(target string) (*spandoc.Position, error)
}

func (l *Locator) Locate(target string) (*spandoc.Position, error) {
	return l.LocateFn(target)
}
