package domain

import "time"

// Item kinds used in logs.
const (
	ItemKindCommunity      = "community_content"
	ItemKindRecommendation = "recommendation"
)

// CommunityContentItem asks for the community quotes and remarks of one book.
// SubjectID is captured at enqueue time for the stale-enqueue guard.
type CommunityContentItem struct {
	EnqueuedAt time.Time
	ID         string
	SubjectID  string
	BookID     int64
}

func (i CommunityContentItem) ItemID() string { return i.ID }
func (i CommunityContentItem) Kind() string   { return ItemKindCommunity }

// RecommendationItem asks for refreshed suggestions, either for the whole
// library or for a set of focus authors.
type RecommendationItem struct {
	EnqueuedAt   time.Time
	ID           string
	FocusAuthors []string
	FullRefresh  bool
}

func (i RecommendationItem) ItemID() string { return i.ID }
func (i RecommendationItem) Kind() string   { return ItemKindRecommendation }
