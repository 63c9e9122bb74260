package action

import (
	"strconv"
	"time"

	"github.com/testforge/shopsuite/internal/observability"
	"github.com/testforge/shopsuite/internal/wait"
)

// Option configures an Actions instance
type Option func(*Actions)

// WithMetrics records operation durations and swallowed failures in m
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Actions) { a.metrics = m }
}

// ClickOption tunes a single Click
type ClickOption func(*clickOptions)

type clickOptions struct {
	force    bool
	timeout  time.Duration
	postWait *wait.Condition
}

// Force skips the runtime's actionability checks
func Force() ClickOption {
	return func(o *clickOptions) { o.force = true }
}

// Timeout overrides the runtime click timeout
func Timeout(d time.Duration) ClickOption {
	return func(o *clickOptions) { o.timeout = d }
}

// ThenWaitFor waits for a page lifecycle condition after the click
func ThenWaitFor(c wait.Condition) ClickOption {
	return func(o *clickOptions) { o.postWait = &c }
}

type choiceKind int

const (
	valueOrLabel choiceKind = iota
	byValue
	byLabel
	byIndex
)

// Choice describes which <option> SelectOption picks
type Choice struct {
	kind  choiceKind
	text  string
	index int
}

// ValueOrLabel matches the option value first and falls back to its label.
// The label attempt only starts once the value attempt has used up the action
// timeout, so prefer ByLabel when the label is what the caller has.
func ValueOrLabel(s string) Choice { return Choice{kind: valueOrLabel, text: s} }

// ByValue matches the option value only
func ByValue(s string) Choice { return Choice{kind: byValue, text: s} }

// ByLabel matches the visible option label only
func ByLabel(s string) Choice { return Choice{kind: byLabel, text: s} }

// ByIndex picks the option at position i
func ByIndex(i int) Choice { return Choice{kind: byIndex, index: i} }

func (c Choice) String() string {
	switch c.kind {
	case byValue:
		return "value=" + c.text
	case byLabel:
		return "label=" + c.text
	case byIndex:
		return "index=" + strconv.Itoa(c.index)
	default:
		return c.text
	}
}
