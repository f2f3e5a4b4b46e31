// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort              = "8080"
	DefaultDBPath            = "shelfwise.db"
	DefaultCacheDir          = "cache/covers"
	DefaultCommunityBaseURL  = "https://book.douban.com"
	DefaultLLMBaseURL        = "https://api.openai.com/v1"
	DefaultLLMModel          = "gpt-4o-mini"
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	DefaultScrapeMinInterval = 1500 * time.Millisecond
	DefaultHTTPTimeout       = 20 * time.Second
	ImageHTTPTimeout         = 30 * time.Second
	LLMHTTPTimeout           = 2 * time.Minute
	DefaultItemTimeout       = 5 * time.Minute
	DefaultRetryCount        = 3
	DefaultRetryBase         = 1 * time.Second
	DefaultCacheTTL          = 7 * 24 * time.Hour
	MaxPageBytes             = 4 << 20
)

// Recommendation pipeline
const (
	DefaultMaxSuggestions = 6
	DefaultContextLimit   = 40
)

// File cache
const (
	DefaultCacheMaxBytes = 10 << 20 // 10 MiB
	CacheKeyHexLength    = 32
	FallbackImageExt     = ".jpg"
	ImageMediaPrefix     = "image/"
)

// Periodic sweep
const (
	DefaultSweepInterval = 6 * time.Hour
	DefaultSweepThrottle = 500 * time.Millisecond
	DefaultSweepBackoff  = 1 * time.Hour
	SweepLockFile        = ".sweep.lock"
)

// Community content limits
const (
	CommunityListCap    = 3
	NotableWorksCap     = 5
	MaxQuoteText        = 500
	MaxQuoteSource      = 200
	MaxRemarkContent    = 4000
	MaxRemarkTitle      = 200
	MaxProfileSummary   = 2000
	MaxNotableWorks     = 1000
	MaxSuggestionName   = 200
	MaxSuggestionReason = 1000
	MaxSuggestionURL    = 1000
	MaxSuggestionMedium = 100
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// HTTP caching of served cache files
const CacheControlImmutable = "public, max-age=31536000, immutable"
