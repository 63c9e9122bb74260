package browser

import "fmt"

type targetKind int

const (
	byName targetKind = iota
	byHandle
)

// Target identifies an element either by selector or by an already built
// Locator. It is resolved against the page on every use and never cached.
type Target struct {
	kind     targetKind
	selector string
	handle   Locator
}

// ByName targets the elements matching a selector string
func ByName(selector string) Target {
	return Target{kind: byName, selector: selector}
}

// ByHandle targets the elements referenced by a Locator
func ByHandle(l Locator) Target {
	return Target{kind: byHandle, handle: l}
}

// Resolve returns the Locator for t on page p
func (t Target) Resolve(p Page) Locator {
	if t.kind == byHandle {
		return t.handle
	}
	return p.Locator(t.selector)
}

// IsZero reports whether t refers to nothing
func (t Target) IsZero() bool {
	if t.kind == byHandle {
		return t.handle == nil
	}
	return t.selector == ""
}

func (t Target) String() string {
	switch t.kind {
	case byHandle:
		if t.handle == nil {
			return "handle(<nil>)"
		}
		return t.handle.String()
	default:
		return fmt.Sprintf("selector(%s)", t.selector)
	}
}
