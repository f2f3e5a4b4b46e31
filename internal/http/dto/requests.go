package dto

import (
	"strings"
)

// CommunityRefreshRequest asks for the community content of one book.
type CommunityRefreshRequest struct {
	SubjectID string `json:"subject_id" form:"subject_id"`
}

func (r *CommunityRefreshRequest) Normalize() {
	r.SubjectID = strings.TrimSpace(r.SubjectID)
}

func (r *CommunityRefreshRequest) Validate() []ValidationError {
	return validateSubjectID(r.SubjectID)
}

// RecommendationRefreshRequest targets the named authors, or the whole
// library when no authors are given at all.
type RecommendationRefreshRequest struct {
	Authors []string `json:"authors" form:"authors[]"`

	// set by Normalize when names were sent but every one was blank
	blankOnly bool
}

func (r *RecommendationRefreshRequest) Normalize() {
	authors := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	r.blankOnly = len(r.Authors) > 0 && len(authors) == 0
	r.Authors = authors
}

func (r *RecommendationRefreshRequest) Full() bool {
	return len(r.Authors) == 0 && !r.blankOnly
}

func (r *RecommendationRefreshRequest) Validate() []ValidationError {
	if r.blankOnly {
		return []ValidationError{{Field: "authors", Message: "must contain at least one non-blank name"}}
	}
	return validateAuthors(r.Authors)
}

// ScheduleResponse is returned with 202 Accepted.
type ScheduleResponse struct {
	Status string `json:"status"`
	Scope  string `json:"scope,omitempty"`
}

// SweepStatusResponse reports the last recorded cache-warming pass.
type SweepStatusResponse struct {
	LastRunAt  string `json:"last_run_at,omitempty"`
	Candidates int    `json:"candidates"`
	Cached     int    `json:"cached"`
	Fetched    int    `json:"fetched"`
	Failed     int    `json:"failed"`
}
