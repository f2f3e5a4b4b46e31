// Package app wires the queues, workers, refreshers, file cache and sweep
// into one lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/shelfwise/internal/community"
	"github.com/cesargomez89/shelfwise/internal/config"
	"github.com/cesargomez89/shelfwise/internal/constants"
	"github.com/cesargomez89/shelfwise/internal/domain"
	"github.com/cesargomez89/shelfwise/internal/filecache"
	"github.com/cesargomez89/shelfwise/internal/httpclient"
	"github.com/cesargomez89/shelfwise/internal/llm"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/queue"
	"github.com/cesargomez89/shelfwise/internal/recommend"
	"github.com/cesargomez89/shelfwise/internal/store"
	"github.com/cesargomez89/shelfwise/internal/sweep"
)

// ErrRecommendationsDisabled is returned when no model is configured.
var ErrRecommendationsDisabled = errors.New("recommendations are disabled: LLM_API_KEY is not set")

// Services owns every background component.
type Services struct {
	DB          *store.DB
	Cache       *filecache.Cache
	Scheduler   *Scheduler
	Sweeper     *sweep.Sweeper
	Community   *community.Refresher
	Recommender *recommend.Refresher
	Logger      *logger.Logger

	communityQueue       *queue.WorkQueue[domain.CommunityContentItem]
	recommendationQueue  *queue.WorkQueue[domain.RecommendationItem]
	communityWorker      *queue.Worker[domain.CommunityContentItem]
	recommendationWorker *queue.Worker[domain.RecommendationItem]

	mu          sync.Mutex
	cancelSweep context.CancelFunc
	sweepDone   chan struct{}
}

func NewServices(cfg *config.Config, db *store.DB, log *logger.Logger) (*Services, error) {
	cache, err := filecache.New(cfg.CacheDir, filecache.Options{
		UserAgent: cfg.UserAgent,
		MaxBytes:  cfg.CacheMaxBytes,
	}, log)
	if err != nil {
		return nil, err
	}

	scrapeHTTP := httpclient.NewClient(nil, cfg.ScrapeMinInterval, httpclient.WithUserAgent(cfg.UserAgent))
	source := community.NewCachedClient(
		community.NewClient(scrapeHTTP, cfg.CommunityBaseURL),
		db,
		constants.DefaultCacheTTL,
	)

	s := &Services{
		DB:             db,
		Cache:          cache,
		Community:      community.NewRefresher(db, source, log),
		Logger:         log.WithComponent("app"),
		communityQueue: queue.NewWorkQueue[domain.CommunityContentItem](),
	}
	s.communityWorker = queue.NewWorker("community-worker", s.communityQueue, s.Community.Handle, cfg.ItemTimeout, log)

	if cfg.LLMEnabled() {
		model := llm.NewClient(llm.Config{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
		})
		s.Recommender = recommend.NewRefresher(db, model, recommend.Options{
			MaxSuggestions: cfg.MaxSuggestions,
			ContextLimit:   cfg.ContextLimit,
		}, log)
		s.recommendationQueue = queue.NewWorkQueue[domain.RecommendationItem]()
		s.recommendationWorker = queue.NewWorker("recommendation-worker", s.recommendationQueue, s.Recommender.Handle, cfg.ItemTimeout, log)
	} else {
		s.Logger.Warn("LLM_API_KEY not set, recommendation refreshes are disabled")
	}

	s.Scheduler = NewScheduler(s.communityQueue, s.recommendationQueue, log)
	s.Sweeper = sweep.New(db, cache, sweep.Options{
		Interval: cfg.SweepInterval,
		Throttle: cfg.SweepThrottle,
		Backoff:  cfg.SweepBackoff,
	}, log)
	return s, nil
}

// Start launches the workers and, when withSweep is set, the periodic sweep.
func (s *Services) Start(ctx context.Context, withSweep bool) {
	s.communityWorker.Start(ctx)
	if s.recommendationWorker != nil {
		s.recommendationWorker.Start(ctx)
	}
	if !withSweep {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sweepDone != nil {
		return
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancelSweep = cancel
	s.sweepDone = make(chan struct{})
	go func() {
		defer close(s.sweepDone)
		s.Sweeper.Run(sweepCtx)
	}()
}

// Stop closes the queues and waits for the in-flight items and the sweep.
func (s *Services) Stop() {
	s.communityQueue.Close()
	if s.recommendationQueue != nil {
		s.recommendationQueue.Close()
	}

	s.communityWorker.Stop()
	if s.recommendationWorker != nil {
		s.recommendationWorker.Stop()
	}

	s.mu.Lock()
	cancel, done := s.cancelSweep, s.sweepDone
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	s.Logger.Info("Background services stopped")
}

// RefreshRecommendationsNow runs a full recommendation refresh in the
// caller's goroutine.
func (s *Services) RefreshRecommendationsNow(ctx context.Context) error {
	if s.Recommender == nil {
		return ErrRecommendationsDisabled
	}
	item := domain.RecommendationItem{
		ID:          uuid.New().String(),
		FullRefresh: true,
		EnqueuedAt:  time.Now(),
	}
	if err := s.Recommender.Handle(ctx, item); err != nil {
		return fmt.Errorf("recommendation refresh: %w", err)
	}
	return nil
}
