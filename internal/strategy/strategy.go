// Package strategy holds the entry policies that decide when a closed
// session may open.
package strategy

// EntryPolicy decides whether the current gap is long enough to open a session.
type EntryPolicy interface {
	// Ready reports whether a session may open at the given gap
	// (the gap before the current event resolves).
	Ready(gap int) bool

	// Observe feeds one completed gap length. Policies without history ignore it.
	Observe(length int)

	// Threshold returns the gap required to open, or threshold.Unreachable.
	Threshold() int

	// ID returns the policy identifier including parameters.
	ID() string
}
