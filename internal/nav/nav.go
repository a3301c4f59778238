// Package nav tracks the current card page.
package nav

import "fmt"

// Signal reports the outcome of a navigation step.
type Signal int

const (
	// NoChange means the step was clamped at a boundary.
	NoChange Signal = iota
	// PageChanged means the current page moved by one.
	PageChanged
	// SequenceComplete means advance was requested on the last page.
	SequenceComplete
)

func (s Signal) String() string {
	switch s {
	case PageChanged:
		return "page-changed"
	case SequenceComplete:
		return "sequence-complete"
	default:
		return "no-change"
	}
}

// Navigator is a clamped page index over a fixed number of pages.
type Navigator struct {
	current int
	total   int
}

// New returns a Navigator positioned on the first of total pages.
func New(total int) (*Navigator, error) {
	if total < 1 {
		return nil, fmt.Errorf("page count must be >= 1, got %d", total)
	}
	return &Navigator{total: total}, nil
}

// Advance moves to the next page, or signals completion on the last page.
func (n *Navigator) Advance() Signal {
	if n.current < n.total-1 {
		n.current++
		return PageChanged
	}
	return SequenceComplete
}

// Retreat moves to the previous page when there is one.
func (n *Navigator) Retreat() Signal {
	if n.current > 0 {
		n.current--
		return PageChanged
	}
	return NoChange
}

// Reset returns to the first page.
func (n *Navigator) Reset() {
	n.current = 0
}

// CanRetreat reports whether a previous page exists.
func (n *Navigator) CanRetreat() bool {
	return n.current > 0
}

// IsLast reports whether the current page is the last one.
func (n *Navigator) IsLast() bool {
	return n.current == n.total-1
}

// Current returns the zero-based page index.
func (n *Navigator) Current() int {
	return n.current
}

// Total returns the number of pages.
func (n *Navigator) Total() int {
	return n.total
}
