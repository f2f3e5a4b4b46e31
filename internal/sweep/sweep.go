// Package sweep periodically warms the file cache for remote images that
// books and recommendations point at.
package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/cesargomez89/shelfwise/internal/constants"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/store"
)

// ErrBusy means another process holds the sweep lock.
var ErrBusy = errors.New("another sweep is running")

// Cache is the part of the file cache the sweep drives.
type Cache interface {
	Dir() string
	Lookup(rawURL string) (string, bool)
	GetOrFetch(ctx context.Context, rawURL string) (string, bool)
}

// Result summarises one pass.
type Result struct {
	Candidates int `json:"candidates"`
	Cached     int `json:"cached"`
	Fetched    int `json:"fetched"`
	Failed     int `json:"failed"`
}

// Options set the sweep timings.
type Options struct {
	Interval time.Duration
	Throttle time.Duration
	Backoff  time.Duration
}

type Sweeper struct {
	db       *store.DB
	settings *store.SettingsRepo
	cache    Cache
	lock     *flock.Flock
	opts     Options
	logger   *logger.Logger
	now      func() time.Time
}

func New(db *store.DB, cache Cache, opts Options, log *logger.Logger) *Sweeper {
	if opts.Interval <= 0 {
		opts.Interval = constants.DefaultSweepInterval
	}
	if opts.Backoff <= 0 {
		opts.Backoff = constants.DefaultSweepBackoff
	}
	return &Sweeper{
		db:       db,
		settings: store.NewSettingsRepo(db),
		cache:    cache,
		lock:     flock.New(filepath.Join(cache.Dir(), constants.SweepLockFile)),
		opts:     opts,
		logger:   log.WithComponent("sweep"),
		now:      time.Now,
	}
}

// Run sweeps every Interval until ctx is cancelled. A failed pass waits
// Backoff instead. A recent pass recorded in settings delays the first run.
func (s *Sweeper) Run(ctx context.Context) {
	wait := s.initialDelay(ctx)
	for {
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		res, err := s.runSafely(ctx)
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, ErrBusy):
			s.logger.Info("Sweep skipped, lock held elsewhere")
			wait = s.opts.Interval
		case err != nil:
			s.logger.Error("Sweep failed", "error", err, "retry_in", s.opts.Backoff)
			wait = s.opts.Backoff
		default:
			s.logger.Info("Sweep finished",
				"candidates", res.Candidates, "cached", res.Cached,
				"fetched", res.Fetched, "failed", res.Failed)
			wait = s.opts.Interval
		}
	}
}

func (s *Sweeper) runSafely(ctx context.Context) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panicked: %v", r)
		}
	}()
	return s.RunOnce(ctx)
}

func (s *Sweeper) initialDelay(ctx context.Context) time.Duration {
	raw, err := s.settings.Get(ctx, store.SettingLastSweepAt)
	if err != nil || raw == "" {
		return 0
	}
	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0
	}
	next := last.Add(s.opts.Interval)
	if d := next.Sub(s.now()); d > 0 {
		return d
	}
	return 0
}

// RunOnce performs a single pass. Per-URL failures are counted, not returned.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	locked, err := s.lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !locked {
		return Result{}, ErrBusy
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("Failed to release sweep lock", "error", err)
		}
	}()

	urls, err := s.candidates(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Result{Candidates: len(urls)}
	fetchedAny := false
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, ok := s.cache.Lookup(u); ok {
			res.Cached++
			continue
		}

		if fetchedAny && s.opts.Throttle > 0 {
			timer := time.NewTimer(s.opts.Throttle)
			select {
			case <-ctx.Done():
				timer.Stop()
				return res, ctx.Err()
			case <-timer.C:
			}
		}
		fetchedAny = true

		if _, ok := s.cache.GetOrFetch(ctx, u); ok {
			res.Fetched++
		} else {
			res.Failed++
			s.logger.Debug("Sweep could not cache", "url", u)
		}
	}

	s.record(ctx, res)
	return res, nil
}

func (s *Sweeper) candidates(ctx context.Context) ([]string, error) {
	covers, err := s.db.ListExternalCoverURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list covers: %w", err)
	}
	portraits, err := s.db.ListRecommendationImageURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendation images: %w", err)
	}

	seen := make(map[string]struct{}, len(covers)+len(portraits))
	urls := make([]string, 0, len(covers)+len(portraits))
	for _, u := range append(covers, portraits...) {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls, nil
}

func (s *Sweeper) record(ctx context.Context, res Result) {
	if err := s.settings.Set(ctx, store.SettingLastSweepAt, s.now().UTC().Format(time.RFC3339)); err != nil {
		s.logger.Warn("Failed to record sweep time", "error", err)
	}
	if data, err := json.Marshal(res); err == nil {
		if err := s.settings.Set(ctx, store.SettingLastSweepResult, string(data)); err != nil {
			s.logger.Warn("Failed to record sweep result", "error", err)
		}
	}
}

// LastResult returns the most recently recorded pass, if any.
func (s *Sweeper) LastResult(ctx context.Context) (*Result, time.Time, error) {
	raw, err := s.settings.Get(ctx, store.SettingLastSweepResult)
	if err != nil || raw == "" {
		return nil, time.Time{}, err
	}
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, time.Time{}, fmt.Errorf("corrupt sweep result: %w", err)
	}
	at, _ := s.settings.Get(ctx, store.SettingLastSweepAt)
	t, _ := time.Parse(time.RFC3339, at)
	return &res, t, nil
}
