// Package community scrapes quotes, remarks and author profiles from the
// community book site and replaces a book's community content with them.
package community

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/cesargomez89/shelfwise/internal/constants"
	"github.com/cesargomez89/shelfwise/internal/domain"
	"github.com/cesargomez89/shelfwise/internal/httpclient"
)

// ErrInvalidID is returned for subject or author ids that are not numeric.
var ErrInvalidID = errors.New("invalid community id")

var numericID = regexp.MustCompile(`^\d+$`)

// ValidSubjectID reports whether id can be used to build community URLs.
func ValidSubjectID(id string) bool {
	return numericID.MatchString(id)
}

// Source is everything the refresher needs from the community site.
type Source interface {
	FetchQuotes(ctx context.Context, subjectID string) ([]Quote, error)
	FetchRemarks(ctx context.Context, subjectID string) ([]Remark, error)
	FindAuthorID(ctx context.Context, subjectID string) (string, error)
	FetchAuthorProfile(ctx context.Context, authorID string) (domain.AuthorProfile, error)
}

var _ Source = (*Client)(nil)
var _ Source = (*CachedClient)(nil)

// Client talks to the community site over a polite HTTP client.
type Client struct {
	http    *httpclient.Client
	baseURL string
}

func NewClient(http *httpclient.Client, baseURL string) *Client {
	return &Client{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchQuotes loads the subject's quote listing sorted by score.
func (c *Client) FetchQuotes(ctx context.Context, subjectID string) ([]Quote, error) {
	body, err := c.page(ctx, "/subject/%s/blockquotes?sort=score", subjectID)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseQuotes(body)
}

// FetchRemarks loads the subject's comment listing sorted by score.
func (c *Client) FetchRemarks(ctx context.Context, subjectID string) ([]Remark, error) {
	body, err := c.page(ctx, "/subject/%s/comments/?sort=score", subjectID)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseRemarks(body)
}

// FindAuthorID reads the subject detail page for a linked author.
func (c *Client) FindAuthorID(ctx context.Context, subjectID string) (string, error) {
	body, err := c.page(ctx, "/subject/%s/", subjectID)
	if err != nil {
		return "", err
	}
	defer body.Close()
	return ParseAuthorID(body)
}

// FetchAuthorProfile loads an author page.
func (c *Client) FetchAuthorProfile(ctx context.Context, authorID string) (domain.AuthorProfile, error) {
	body, err := c.page(ctx, "/author/%s/", authorID)
	if err != nil {
		return domain.AuthorProfile{}, err
	}
	defer body.Close()

	profile, err := ParseAuthorProfile(body)
	if err != nil {
		return domain.AuthorProfile{}, err
	}
	profile.ExternalID = authorID
	return profile, nil
}

type limitedBody struct {
	io.Reader
	io.Closer
}

func (c *Client) page(ctx context.Context, pathFmt, id string) (io.ReadCloser, error) {
	if !numericID.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	resp, err := c.http.Get(ctx, c.baseURL+fmt.Sprintf(pathFmt, id), "text/html")
	if err != nil {
		return nil, err
	}
	return limitedBody{Reader: io.LimitReader(resp.Body, constants.MaxPageBytes), Closer: resp.Body}, nil
}

// Cache is the key/value store used to memoise author discovery.
type Cache interface {
	GetCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// CachedClient remembers which author a subject links to, so repeated
// refreshes of the same subject skip the detail page.
type CachedClient struct {
	*Client
	cache Cache
	ttl   time.Duration
}

func NewCachedClient(client *Client, cache Cache, ttl time.Duration) *CachedClient {
	return &CachedClient{
		Client: client,
		cache:  cache,
		ttl:    ttl,
	}
}

type cachedAuthor struct {
	AuthorID string `json:"author_id"`
	NotFound bool   `json:"not_found"`
}

func (c *CachedClient) FindAuthorID(ctx context.Context, subjectID string) (string, error) {
	cacheKey := "community:author:" + subjectID

	data, err := c.cache.GetCache(ctx, cacheKey)
	if err != nil {
		return "", err
	}
	if data != nil {
		var cached cachedAuthor
		if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil {
			return cached.AuthorID, nil
		}
	}

	id, err := c.Client.FindAuthorID(ctx, subjectID)
	if err != nil {
		return "", err
	}

	cached := cachedAuthor{AuthorID: id, NotFound: id == ""}
	if data, marshalErr := json.Marshal(cached); marshalErr == nil {
		_ = c.cache.SetCache(ctx, cacheKey, data, c.ttl)
	}
	return id, nil
}
