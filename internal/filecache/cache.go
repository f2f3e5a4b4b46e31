// Package filecache is a content-addressable disk cache for remote images.
// Concurrent requests for the same URL share one download.
package filecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cesargomez89/shelfwise/internal/constants"
	"github.com/cesargomez89/shelfwise/internal/httpclient"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/storage"
)

var (
	ErrInvalidURL = errors.New("source must be an absolute http(s) URL")
	ErrTooLarge   = errors.New("response exceeds the cache size ceiling")
	ErrNotImage   = errors.New("response is not an image")
	ErrUnsafeName = errors.New("unsafe cache file name")
	ErrNotCached  = errors.New("file is not cached")
)

// CachedFile describes one file on disk.
type CachedFile struct {
	LastModified time.Time
	Key          string
	Path         string
	ContentType  string
	Size         int64
}

// Options tune a Cache.
type Options struct {
	HTTPClient *http.Client
	UserAgent  string
	MaxBytes   int64
}

// keyLock is a per-key mutex with a waiter count. The registry entry is
// removed when the last holder or waiter leaves.
type keyLock struct {
	sem  chan struct{}
	refs int
}

// Cache stores fetched images under dir.
type Cache struct {
	dir      string
	client   *httpclient.Client
	maxBytes int64
	logger   *logger.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

func New(dir string, opts Options, log *logger.Logger) (*Cache, error) {
	if err := storage.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: constants.ImageHTTPTimeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = constants.DefaultUserAgent
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = constants.DefaultCacheMaxBytes
	}
	return &Cache{
		dir:      dir,
		client:   httpclient.NewClient(hc, 0, httpclient.WithUserAgent(ua)),
		maxBytes: maxBytes,
		logger:   log.WithComponent("filecache"),
		locks:    make(map[string]*keyLock),
	}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Lookup returns the cached path for rawURL without touching the network.
func (c *Cache) Lookup(rawURL string) (string, bool) {
	key, err := Key(rawURL)
	if err != nil {
		return "", false
	}
	p := filepath.Join(c.dir, key)
	if !storage.Exists(p) {
		return "", false
	}
	return p, true
}

// GetOrFetch returns the local path of rawURL, downloading it on a miss.
// Failures are logged and reported as a miss; the call can simply be retried.
func (c *Cache) GetOrFetch(ctx context.Context, rawURL string) (string, bool) {
	p, err := c.Fetch(ctx, rawURL)
	if err != nil {
		if errors.Is(err, ErrInvalidURL) {
			c.logger.Debug("Rejected cache source", "url", rawURL, "error", err)
		} else if ctx.Err() == nil {
			c.logger.Warn("Failed to cache file", "url", rawURL, "error", err)
		}
		return "", false
	}
	return p, true
}

// Fetch is GetOrFetch with the failure reason.
func (c *Cache) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := ParseSource(rawURL)
	if err != nil {
		return "", err
	}
	key := keyFor(u)
	p := filepath.Join(c.dir, key)

	if storage.Exists(p) {
		c.logger.Debug("Cache hit", "key", key)
		return p, nil
	}

	lock, err := c.acquire(ctx, key)
	if err != nil {
		return "", err
	}
	defer c.release(key, lock)

	// another waiter may have finished the download while we queued
	if storage.Exists(p) {
		return p, nil
	}

	if err := c.download(ctx, u.String(), p); err != nil {
		return "", err
	}
	return p, nil
}

func (c *Cache) download(ctx context.Context, src, dst string) error {
	resp, err := c.client.Get(ctx, src, "image/*")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, constants.ImageMediaPrefix) {
		return fmt.Errorf("%w: %q", ErrNotImage, resp.Header.Get("Content-Type"))
	}
	if resp.ContentLength > c.maxBytes {
		return fmt.Errorf("%w: declared %s", ErrTooLarge, humanize.Bytes(uint64(resp.ContentLength)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return fmt.Errorf("%w: more than %s", ErrTooLarge, humanize.Bytes(uint64(c.maxBytes)))
	}

	if err := storage.WriteFileAtomic(dst, data); err != nil {
		return err
	}

	modified := time.Now()
	if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		modified = lm
	}
	if err := os.Chtimes(dst, modified, modified); err != nil {
		c.logger.Debug("Failed to set modification time", "path", dst, "error", err)
	}

	c.logger.Info("Cached file", "key", filepath.Base(dst), "size", humanize.Bytes(uint64(len(data))))
	return nil
}

// Open looks up a cached file by its key. Names that could escape the cache
// directory are rejected before any filesystem access.
func (c *Cache) Open(name string) (*CachedFile, error) {
	if !storage.SafeName(name) || !ValidKey(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	p := filepath.Join(c.dir, name)
	info, err := os.Stat(p)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotCached, name)
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, name)
	}
	return &CachedFile{
		LastModified: info.ModTime(),
		Key:          name,
		Path:         p,
		ContentType:  contentTypeFor(name),
		Size:         info.Size(),
	}, nil
}

// ETag is the strong validator served with a cached file.
func (f *CachedFile) ETag() string {
	return strconv.Quote(f.Key)
}

func (c *Cache) acquire(ctx context.Context, key string) (*keyLock, error) {
	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		c.locks[key] = l
	}
	l.refs++
	c.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return l, nil
	case <-ctx.Done():
		c.unref(key, l)
		return nil, ctx.Err()
	}
}

func (c *Cache) release(key string, l *keyLock) {
	<-l.sem
	c.unref(key, l)
}

func (c *Cache) unref(key string, l *keyLock) {
	c.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(c.locks, key)
	}
	c.mu.Unlock()
}

// pendingLocks is the number of keys with a holder or waiter.
func (c *Cache) pendingLocks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
