package app

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/shelfwise/internal/community"
	"github.com/cesargomez89/shelfwise/internal/domain"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/queue"
	"github.com/cesargomez89/shelfwise/internal/textutil"
)

// Scheduler validates refresh requests and enqueues them. It never waits
// for the work to run.
type Scheduler struct {
	community       *queue.WorkQueue[domain.CommunityContentItem]
	recommendations *queue.WorkQueue[domain.RecommendationItem]
	Logger          *logger.Logger
}

// NewScheduler wires the two queues. A nil recommendations queue disables
// recommendation scheduling.
func NewScheduler(
	communityQueue *queue.WorkQueue[domain.CommunityContentItem],
	recommendationQueue *queue.WorkQueue[domain.RecommendationItem],
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		community:       communityQueue,
		recommendations: recommendationQueue,
		Logger:          log.WithComponent("scheduler"),
	}
}

// ScheduleCommunityContentFetch queues a community refresh for a book.
// It reports whether the item was accepted.
func (s *Scheduler) ScheduleCommunityContentFetch(bookID int64, subjectID string) bool {
	subjectID = strings.TrimSpace(subjectID)
	if bookID <= 0 || subjectID == "" {
		s.Logger.Info("Rejected community refresh", "book_id", bookID, "subject_id", subjectID, "reason", "missing id")
		return false
	}
	if !community.ValidSubjectID(subjectID) {
		s.Logger.Info("Rejected community refresh", "book_id", bookID, "subject_id", subjectID, "reason", "non-numeric subject")
		return false
	}

	item := domain.CommunityContentItem{
		ID:         uuid.New().String(),
		BookID:     bookID,
		SubjectID:  subjectID,
		EnqueuedAt: time.Now(),
	}
	if err := s.community.Enqueue(item); err != nil {
		s.Logger.Warn("Failed to enqueue community refresh", "book_id", bookID, "error", err)
		return false
	}
	s.Logger.Info("Community refresh enqueued", "item_id", item.ID, "book_id", bookID, "subject_id", subjectID)
	return true
}

// ScheduleAuthorRecommendationRefresh queues a refresh for the named authors.
// Blank names are ignored and duplicates collapse case-insensitively.
func (s *Scheduler) ScheduleAuthorRecommendationRefresh(authorNames []string) bool {
	names := make([]string, 0, len(authorNames))
	for _, n := range authorNames {
		names = append(names, strings.TrimSpace(n))
	}
	names = textutil.Dedupe(names, func(n string) string { return n })
	if len(names) == 0 {
		s.Logger.Info("Rejected recommendation refresh", "reason", "no author names")
		return false
	}
	return s.enqueueRecommendation(domain.RecommendationItem{FocusAuthors: names})
}

// ScheduleFullRecommendationRefresh queues a refresh for the whole library.
func (s *Scheduler) ScheduleFullRecommendationRefresh() bool {
	return s.enqueueRecommendation(domain.RecommendationItem{FullRefresh: true})
}

func (s *Scheduler) enqueueRecommendation(item domain.RecommendationItem) bool {
	if s.recommendations == nil {
		s.Logger.Warn("Recommendations are disabled, dropping refresh request", "full", item.FullRefresh)
		return false
	}
	item.ID = uuid.New().String()
	item.EnqueuedAt = time.Now()
	if err := s.recommendations.Enqueue(item); err != nil {
		s.Logger.Warn("Failed to enqueue recommendation refresh", "error", err)
		return false
	}
	s.Logger.Info("Recommendation refresh enqueued",
		"item_id", item.ID, "full", item.FullRefresh, "authors", len(item.FocusAuthors))
	return true
}

// Pending returns the queued item counts.
func (s *Scheduler) Pending() (communityItems, recommendationItems int) {
	communityItems = s.community.Len()
	if s.recommendations != nil {
		recommendationItems = s.recommendations.Len()
	}
	return communityItems, recommendationItems
}
