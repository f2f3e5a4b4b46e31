package sweep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesargomez89/shelfwise/internal/constants"
	"github.com/cesargomez89/shelfwise/internal/domain"
	"github.com/cesargomez89/shelfwise/internal/filecache"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/store"
)

type fixture struct {
	db    *store.DB
	cache *filecache.Cache
	srv   *httptest.Server
	hits  int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.hits, 1)
		if r.URL.Path == "/broken.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(f.srv.Close)

	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	f.db = db

	f.cache, err = filecache.New(filepath.Join(t.TempDir(), "covers"), filecache.Options{HTTPClient: f.srv.Client()}, logger.Discard())
	require.NoError(t, err)
	return f
}

func (f *fixture) addBook(t *testing.T, title, cover string) {
	t.Helper()
	require.NoError(t, f.db.CreateBook(context.Background(), &domain.Book{Title: title, CoverURL: cover}))
}

func TestRunOnce_CountsOutcomes(t *testing.T) {
	f := newFixture(t)
	f.addBook(t, "A", f.srv.URL+"/a.jpg")
	f.addBook(t, "B", f.srv.URL+"/a.jpg")
	f.addBook(t, "C", f.srv.URL+"/broken.jpg")
	f.addBook(t, "D", "/static/local.jpg")
	f.addBook(t, "E", "")
	require.NoError(t, f.db.ReplaceRecommendations(context.Background(), "Someone", []domain.Recommendation{
		{RecommendedAuthor: "Other", ImageURL: strPtr(f.srv.URL + "/portrait.png")},
	}))

	s := New(f.db, f.cache, Options{Throttle: time.Millisecond}, logger.Discard())
	ctx := context.Background()

	res, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Candidates: 3, Fetched: 2, Failed: 1}, res)

	res, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Candidates: 3, Cached: 2, Failed: 1}, res)

	// one fetch per cached url plus the broken one on both passes
	assert.Equal(t, int32(4), atomic.LoadInt32(&f.hits))

	last, at, err := s.LastResult(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 2, last.Cached)
	assert.False(t, at.IsZero())
}

func TestRunOnce_BusyWhenLockHeld(t *testing.T) {
	f := newFixture(t)
	other := flock.New(filepath.Join(f.cache.Dir(), constants.SweepLockFile))
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	s := New(f.db, f.cache, Options{}, logger.Discard())
	_, err = s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
}

func TestRunOnce_HonoursCancellation(t *testing.T) {
	f := newFixture(t)
	f.addBook(t, "A", f.srv.URL+"/a.jpg")
	f.addBook(t, "B", f.srv.URL+"/b.jpg")

	s := New(f.db, f.cache, Options{Throttle: time.Hour}, logger.Discard())
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := s.RunOnce(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, res.Fetched)
}

type panickyCache struct {
	dir   string
	calls int32
}

func (p *panickyCache) Dir() string { return p.dir }
func (p *panickyCache) Lookup(string) (string, bool) { return "", false }
func (p *panickyCache) GetOrFetch(context.Context, string) (string, bool) {
	atomic.AddInt32(&p.calls, 1)
	panic("boom")
}

func TestRun_BacksOffAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.addBook(t, "A", f.srv.URL+"/a.jpg")
	pc := &panickyCache{dir: t.TempDir()}

	s := New(f.db, pc, Options{Interval: time.Hour, Backoff: 20 * time.Millisecond}, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run(ctx)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&pc.calls) >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	s := New(f.db, f.cache, Options{Interval: time.Hour}, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, at, _ := s.LastResult(context.Background())
		return !at.IsZero()
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestInitialDelay(t *testing.T) {
	f := newFixture(t)
	s := New(f.db, f.cache, Options{Interval: 6 * time.Hour}, logger.Discard())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	assert.Zero(t, s.initialDelay(ctx))

	settings := store.NewSettingsRepo(f.db)
	require.NoError(t, settings.Set(ctx, store.SettingLastSweepAt, now.Add(-time.Hour).Format(time.RFC3339)))
	assert.Equal(t, 5*time.Hour, s.initialDelay(ctx))

	require.NoError(t, settings.Set(ctx, store.SettingLastSweepAt, now.Add(-7*time.Hour).Format(time.RFC3339)))
	assert.Zero(t, s.initialDelay(ctx))
}

func strPtr(s string) *string { return &s }
