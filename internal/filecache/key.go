package filecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cesargomez89/shelfwise/internal/constants"
)

// imageExts maps recognised extensions to their stored form and media type.
var imageExts = map[string]struct {
	ext         string
	contentType string
}{
	".jpg":  {".jpg", "image/jpeg"},
	".jpeg": {".jpg", "image/jpeg"},
	".png":  {".png", "image/png"},
	".gif":  {".gif", "image/gif"},
	".webp": {".webp", "image/webp"},
	".bmp":  {".bmp", "image/bmp"},
	".svg":  {".svg", "image/svg+xml"},
	".avif": {".avif", "image/avif"},
}

var keyPattern = regexp.MustCompile(fmt.Sprintf(`^[0-9a-f]{%d}\.(jpg|png|gif|webp|bmp|svg|avif)$`, constants.CacheKeyHexLength))

// ParseSource accepts only absolute http(s) URLs.
func ParseSource(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u, nil
}

// Key derives the cache file name of a source URL: a hex prefix of the
// SHA-256 of the full URL (query included) plus a normalised extension.
func Key(rawURL string) (string, error) {
	u, err := ParseSource(rawURL)
	if err != nil {
		return "", err
	}
	return keyFor(u), nil
}

func keyFor(u *url.URL) string {
	sum := sha256.Sum256([]byte(u.String()))
	return hex.EncodeToString(sum[:])[:constants.CacheKeyHexLength] + normalizeExt(u.Path)
}

func normalizeExt(p string) string {
	if known, ok := imageExts[strings.ToLower(path.Ext(p))]; ok {
		return known.ext
	}
	return constants.FallbackImageExt
}

// contentTypeFor returns the media type implied by a cache key.
func contentTypeFor(key string) string {
	if known, ok := imageExts[path.Ext(key)]; ok {
		return known.contentType
	}
	return "application/octet-stream"
}

// ValidKey reports whether name has the exact shape produced by Key.
func ValidKey(name string) bool {
	return keyPattern.MatchString(name)
}
