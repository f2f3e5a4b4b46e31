package domain

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want *float64
	}{
		{"nil stays nil", nil, nil},
		{"above one", ptr(1.7), ptr(1.0)},
		{"below zero", ptr(-0.3), ptr(0.0)},
		{"inside range", ptr(0.42), ptr(0.42)},
		{"nan dropped", ptr(math.NaN()), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampConfidence(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestAuthorProfileNormalize(t *testing.T) {
	p := &AuthorProfile{
		Summary:      strings.Repeat("a", 3000),
		NotableWorks: strings.Repeat("b", 1500),
	}
	p.Normalize()

	assert.Equal(t, 2000, utf8.RuneCountInString(p.Summary))
	assert.Equal(t, 1000, utf8.RuneCountInString(p.NotableWorks))
}

func TestAuthorProfileEmpty(t *testing.T) {
	var nilProfile *AuthorProfile
	assert.True(t, nilProfile.Empty())
	assert.True(t, (&AuthorProfile{ExternalID: "123"}).Empty(), "profile with only an id should be empty")
	assert.False(t, (&AuthorProfile{Summary: "bio"}).Empty())
}

func TestQuoteAndRemarkNormalize(t *testing.T) {
	q := &Quote{Text: strings.Repeat("q", 600), Source: ptr(strings.Repeat("s", 300))}
	q.Normalize()
	assert.Equal(t, 500, utf8.RuneCountInString(q.Text))
	require.NotNil(t, q.Source)
	assert.Equal(t, 200, utf8.RuneCountInString(*q.Source))

	r := &Remark{Content: strings.Repeat("r", 5000), Title: ptr("  ")}
	r.Normalize()
	assert.Equal(t, 4000, utf8.RuneCountInString(r.Content))
	assert.Nil(t, r.Title, "blank title should normalise to nil")
}

func TestRecommendationNormalize(t *testing.T) {
	r := &Recommendation{RecommendedAuthor: "Jane Doe", Confidence: ptr(1.7)}
	r.Normalize()
	require.NotNil(t, r.Confidence)
	assert.Equal(t, 1.0, *r.Confidence)
}
