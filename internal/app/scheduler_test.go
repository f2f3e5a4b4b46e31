package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesargomez89/shelfwise/internal/domain"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/queue"
)

func newTestScheduler(withRecommendations bool) (*Scheduler, *queue.WorkQueue[domain.CommunityContentItem], *queue.WorkQueue[domain.RecommendationItem]) {
	cq := queue.NewWorkQueue[domain.CommunityContentItem]()
	var rq *queue.WorkQueue[domain.RecommendationItem]
	if withRecommendations {
		rq = queue.NewWorkQueue[domain.RecommendationItem]()
	}
	return NewScheduler(cq, rq, logger.Discard()), cq, rq
}

func TestScheduleCommunityContentFetch(t *testing.T) {
	s, cq, _ := newTestScheduler(true)

	assert.True(t, s.ScheduleCommunityContentFetch(42, " 1003354 "))
	assert.True(t, s.ScheduleCommunityContentFetch(42, "1003354"), "duplicates are not collapsed")
	assert.False(t, s.ScheduleCommunityContentFetch(42, ""))
	assert.False(t, s.ScheduleCommunityContentFetch(42, "   "))
	assert.False(t, s.ScheduleCommunityContentFetch(0, "1003354"))
	assert.False(t, s.ScheduleCommunityContentFetch(42, "../1"))
	require.Equal(t, 2, cq.Len())

	first, err := cq.Dequeue(context.Background())
	require.NoError(t, err)
	second, err := cq.Dequeue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(42), first.BookID)
	assert.Equal(t, "1003354", first.SubjectID)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.EnqueuedAt.IsZero())
}

func TestScheduleAuthorRecommendationRefresh(t *testing.T) {
	s, _, rq := newTestScheduler(true)

	assert.False(t, s.ScheduleAuthorRecommendationRefresh(nil))
	assert.False(t, s.ScheduleAuthorRecommendationRefresh([]string{"", "  "}))
	assert.True(t, s.ScheduleAuthorRecommendationRefresh([]string{"Yu Hua", " yu hua ", "", "Mo Yan"}))
	require.Equal(t, 1, rq.Len())

	item, err := rq.Dequeue(context.Background())
	require.NoError(t, err)
	assert.False(t, item.FullRefresh)
	assert.Equal(t, []string{"Yu Hua", "Mo Yan"}, item.FocusAuthors)
}

func TestScheduleFullRecommendationRefresh(t *testing.T) {
	s, _, rq := newTestScheduler(true)

	assert.True(t, s.ScheduleFullRecommendationRefresh())
	item, err := rq.Dequeue(context.Background())
	require.NoError(t, err)
	assert.True(t, item.FullRefresh)
	assert.Empty(t, item.FocusAuthors)
}

func TestSchedule_RecommendationsDisabled(t *testing.T) {
	s, _, _ := newTestScheduler(false)

	assert.False(t, s.ScheduleFullRecommendationRefresh())
	assert.False(t, s.ScheduleAuthorRecommendationRefresh([]string{"Yu Hua"}))
	c, r := s.Pending()
	assert.Zero(t, c)
	assert.Zero(t, r)
}

func TestSchedule_ClosedQueue(t *testing.T) {
	s, cq, rq := newTestScheduler(true)
	cq.Close()
	rq.Close()

	assert.False(t, s.ScheduleCommunityContentFetch(1, "1"))
	assert.False(t, s.ScheduleFullRecommendationRefresh())
}
