// Package metrics implements the closed-set metric slug registry (spec §4.1).
//
// A slug is the single storage-layer key for one of the eight rubric
// metrics. Conversion between upstream display names and slugs happens
// exclusively through the explicit table in this package — no case
// folding, no fuzzy matching. Anything persisted downstream of this
// package (snapshots, evidence, chat payloads) uses slugs only.
package metrics

import "fmt"

// Slug is one of the eight closed-set metric identifiers.
type Slug string

const (
	Truthfulness Slug = "truthfulness"
	Helpfulness  Slug = "helpfulness"
	Safety       Slug = "safety"
	Bias         Slug = "bias"
	Clarity      Slug = "clarity"
	Consistency  Slug = "consistency"
	Efficiency   Slug = "efficiency"
	Robustness   Slug = "robustness"
)

// All is the closed set of metric slugs, in a fixed display order.
var All = []Slug{
	Truthfulness, Helpfulness, Safety, Bias, Clarity, Consistency, Efficiency, Robustness,
}

// displayTable is the explicit, bidirectional slug↔display mapping.
// Display names come from the upstream rubric authoring language; they are
// looked up verbatim, never normalized.
var displayTable = map[Slug]string{
	Truthfulness: "Truthfulness",
	Helpfulness:  "Helpfulness",
	Safety:       "Safety",
	Bias:         "Bias",
	Clarity:      "Clarity",
	Consistency:  "Consistency",
	Efficiency:   "Efficiency",
	Robustness:   "Robustness",
}

var slugTable = func() map[string]Slug {
	m := make(map[string]Slug, len(displayTable))
	for slug, display := range displayTable {
		m[display] = slug
	}
	return m
}()

// ErrInvalidSlug is returned when a value outside the closed set is looked up.
var ErrInvalidSlug = fmt.Errorf("invalid metric slug")

// IsValidSlug reports whether s is one of the eight closed-set slugs.
func IsValidSlug(s string) bool {
	_, ok := displayTable[Slug(s)]
	return ok
}

// SlugToDisplay returns the upstream display name for a slug, or
// ErrInvalidSlug if the slug is not in the closed set.
func SlugToDisplay(s Slug) (string, error) {
	display, ok := displayTable[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, s)
	}
	return display, nil
}

// DisplayToSlug resolves an upstream display name to its slug via exact
// lookup against the explicit table — unknown display names are rejected
// rather than lower-cased and guessed at.
func DisplayToSlug(display string) (Slug, error) {
	slug, ok := slugTable[display]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, display)
	}
	return slug, nil
}

// ParseSlug validates and converts a raw string into a Slug, rejecting
// anything outside the closed set.
func ParseSlug(s string) (Slug, error) {
	if !IsValidSlug(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, s)
	}
	return Slug(s), nil
}
