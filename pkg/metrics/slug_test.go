package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		name  string
		slug  string
		valid bool
	}{
		{"truthfulness", "truthfulness", true},
		{"helpfulness", "helpfulness", true},
		{"safety", "safety", true},
		{"bias", "bias", true},
		{"clarity", "clarity", true},
		{"consistency", "consistency", true},
		{"efficiency", "efficiency", true},
		{"robustness", "robustness", true},
		{"unknown", "niceness", false},
		{"empty", "", false},
		{"wrong case not folded", "Truthfulness", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidSlug(tt.slug))
		})
	}
}

func TestDisplayToSlugRoundTrip(t *testing.T) {
	for _, slug := range All {
		display, err := SlugToDisplay(slug)
		require.NoError(t, err)

		got, err := DisplayToSlug(display)
		require.NoError(t, err)
		assert.Equal(t, slug, got)
	}
}

func TestDisplayToSlugRejectsCaseVariants(t *testing.T) {
	_, err := DisplayToSlug("truthfulness")
	require.ErrorIs(t, err, ErrInvalidSlug)
}

func TestParseSlugRejectsUnknown(t *testing.T) {
	_, err := ParseSlug("creativity")
	require.ErrorIs(t, err, ErrInvalidSlug)
}

func TestAllHasEightEntries(t *testing.T) {
	require.Len(t, All, 8)
	seen := make(map[Slug]bool)
	for _, s := range All {
		assert.False(t, seen[s], "duplicate slug %s", s)
		seen[s] = true
	}
}
