package domain

import (
	"time"

	"github.com/cesargomez89/shelfwise/internal/constants"
	"github.com/cesargomez89/shelfwise/internal/textutil"
)

// Origin tells who wrote a quote or remark.
type Origin string

const (
	OriginMine      Origin = "mine"
	OriginCommunity Origin = "community"
)

// Author is shared by many books and outlives any of them.
type Author struct {
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	ProfileRefreshedAt *time.Time `json:"profile_refreshed_at,omitempty" db:"profile_refreshed_at"`
	ExternalID         *string    `json:"external_id,omitempty" db:"external_id"`
	ProfileSummary     *string    `json:"profile_summary,omitempty" db:"profile_summary"`
	NotableWorks       *string    `json:"notable_works,omitempty" db:"notable_works"`
	Name               string     `json:"name" db:"name"`
	ID                 int64      `json:"id" db:"id"`
}

// Book is the owning record for quotes and remarks.
type Book struct {
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
	AuthorID          *int64    `json:"author_id,omitempty" db:"author_id"`
	Title             string    `json:"title" db:"title"`
	ExternalSubjectID string    `json:"external_subject_id" db:"external_subject_id"`
	CoverURL          string    `json:"cover_url" db:"cover_url"`
	ID                int64     `json:"id" db:"id"`
}

// Quote is a passage attached to a book.
type Quote struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Source    *string   `json:"source,omitempty" db:"source"`
	Text      string    `json:"text" db:"text"`
	Origin    Origin    `json:"origin" db:"origin"`
	ID        int64     `json:"id" db:"id"`
	BookID    int64     `json:"book_id" db:"book_id"`
}

// Normalize enforces the persisted field limits.
func (q *Quote) Normalize() {
	q.Text = textutil.Truncate(q.Text, constants.MaxQuoteText)
	q.Source = textutil.TruncatePtr(q.Source, constants.MaxQuoteSource)
}

// Remark is a review or comment attached to a book.
type Remark struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Title     *string   `json:"title,omitempty" db:"title"`
	Content   string    `json:"content" db:"content"`
	Origin    Origin    `json:"origin" db:"origin"`
	ID        int64     `json:"id" db:"id"`
	BookID    int64     `json:"book_id" db:"book_id"`
}

// Normalize enforces the persisted field limits.
func (r *Remark) Normalize() {
	r.Content = textutil.Truncate(r.Content, constants.MaxRemarkContent)
	r.Title = textutil.TruncatePtr(r.Title, constants.MaxRemarkTitle)
}

// AuthorProfile is the scraped biography block for an author.
type AuthorProfile struct {
	ExternalID   string
	Summary      string
	NotableWorks string
}

// Empty reports whether the scrape produced anything worth storing.
func (p *AuthorProfile) Empty() bool {
	return p == nil || (p.Summary == "" && p.NotableWorks == "")
}

// Normalize enforces the persisted field limits.
func (p *AuthorProfile) Normalize() {
	p.Summary = textutil.Truncate(p.Summary, constants.MaxProfileSummary)
	p.NotableWorks = textutil.Truncate(p.NotableWorks, constants.MaxNotableWorks)
}

// Recommendation is keyed by (focus author, recommended author).
type Recommendation struct {
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	Rationale         *string   `json:"rationale,omitempty" db:"rationale"`
	ImageURL          *string   `json:"image_url,omitempty" db:"image_url"`
	Confidence        *float64  `json:"confidence,omitempty" db:"confidence"`
	FocusAuthor       string    `json:"focus_author" db:"focus_author"`
	RecommendedAuthor string    `json:"recommended_author" db:"recommended_author"`
	ID                int64     `json:"id" db:"id"`
}

// Normalize enforces the persisted field limits.
func (r *Recommendation) Normalize() {
	r.RecommendedAuthor = textutil.Truncate(r.RecommendedAuthor, constants.MaxSuggestionName)
	r.Rationale = textutil.TruncatePtr(r.Rationale, constants.MaxSuggestionReason)
	r.ImageURL = textutil.TruncatePtr(r.ImageURL, constants.MaxSuggestionURL)
	r.Confidence = ClampConfidence(r.Confidence)
}

// SeriesSuggestion proposes the next book to read after a title.
type SeriesSuggestion struct {
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	Author         *string   `json:"author,omitempty" db:"author"`
	Rationale      *string   `json:"rationale,omitempty" db:"rationale"`
	Confidence     *float64  `json:"confidence,omitempty" db:"confidence"`
	FocusTitle     string    `json:"focus_title" db:"focus_title"`
	SuggestedTitle string    `json:"suggested_title" db:"suggested_title"`
	ID             int64     `json:"id" db:"id"`
}

// Normalize enforces the persisted field limits.
func (s *SeriesSuggestion) Normalize() {
	s.SuggestedTitle = textutil.Truncate(s.SuggestedTitle, constants.MaxSuggestionName)
	s.Author = textutil.TruncatePtr(s.Author, constants.MaxSuggestionName)
	s.Rationale = textutil.TruncatePtr(s.Rationale, constants.MaxSuggestionReason)
	s.Confidence = ClampConfidence(s.Confidence)
}

// AdaptationSuggestion is a film, series or other adaptation of a title.
type AdaptationSuggestion struct {
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	Medium          *string   `json:"medium,omitempty" db:"medium"`
	Year            *int      `json:"year,omitempty" db:"year"`
	Rationale       *string   `json:"rationale,omitempty" db:"rationale"`
	Confidence      *float64  `json:"confidence,omitempty" db:"confidence"`
	FocusTitle      string    `json:"focus_title" db:"focus_title"`
	AdaptationTitle string    `json:"adaptation_title" db:"adaptation_title"`
	ID              int64     `json:"id" db:"id"`
}

// Normalize enforces the persisted field limits.
func (a *AdaptationSuggestion) Normalize() {
	a.AdaptationTitle = textutil.Truncate(a.AdaptationTitle, constants.MaxSuggestionName)
	a.Medium = textutil.TruncatePtr(a.Medium, constants.MaxSuggestionMedium)
	a.Rationale = textutil.TruncatePtr(a.Rationale, constants.MaxSuggestionReason)
	a.Confidence = ClampConfidence(a.Confidence)
}

// ClampConfidence pins a confidence score into [0, 1].
func ClampConfidence(c *float64) *float64 {
	if c == nil {
		return nil
	}
	v := *c
	switch {
	case v != v: // NaN
		return nil
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	return &v
}
