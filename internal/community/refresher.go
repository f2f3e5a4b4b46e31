package community

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cesargomez89/shelfwise/internal/constants"
	"github.com/cesargomez89/shelfwise/internal/domain"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/store"
	"github.com/cesargomez89/shelfwise/internal/textutil"
)

// ErrStaleItem means the book was deleted or re-linked after the item was
// scheduled. Nothing is written.
var ErrStaleItem = errors.New("stale community content item")

// Refresher replaces the community quotes and remarks of one book per item.
type Refresher struct {
	db     *store.DB
	source Source
	logger *logger.Logger
	now    func() time.Time
}

func NewRefresher(db *store.DB, source Source, log *logger.Logger) *Refresher {
	return &Refresher{
		db:     db,
		source: source,
		logger: log.WithComponent("community"),
		now:    time.Now,
	}
}

// Handle is the worker entry point. Stale items are logged and swallowed.
func (r *Refresher) Handle(ctx context.Context, item domain.CommunityContentItem) error {
	err := r.Refresh(ctx, item)
	if errors.Is(err, ErrStaleItem) {
		r.logger.WithBook(item.BookID, item.SubjectID).Info("Skipping stale community refresh", "reason", err)
		return nil
	}
	return err
}

// Refresh fetches, cleans and persists the community content for the item's
// book. Transport and parse failures degrade to empty lists.
func (r *Refresher) Refresh(ctx context.Context, item domain.CommunityContentItem) error {
	log := r.logger.WithBook(item.BookID, item.SubjectID)

	sess, err := r.db.Session(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := checkSubject(ctx, sess, item); err != nil {
		return err
	}

	quotes, err := r.source.FetchQuotes(ctx, item.SubjectID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warn("Failed to fetch community quotes", "error", err)
		quotes = nil
	}

	remarks, err := r.source.FetchRemarks(ctx, item.SubjectID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warn("Failed to fetch community remarks", "error", err)
		remarks = nil
	}

	profile := r.fetchProfile(ctx, item.SubjectID, log)
	if err := ctx.Err(); err != nil {
		return err
	}

	content := store.CommunityContent{
		RefreshedAt: r.now(),
		Profile:     profile,
		Quotes:      toQuotes(quotes),
		Remarks:     toRemarks(remarks),
	}

	err = sess.ReplaceCommunityContent(ctx, item.BookID, item.SubjectID, content)
	if errors.Is(err, store.ErrSubjectChanged) {
		return fmt.Errorf("%w: %w", ErrStaleItem, err)
	}
	if err != nil {
		return fmt.Errorf("failed to persist community content: %w", err)
	}

	log.Info("Community content refreshed",
		"quotes", len(content.Quotes),
		"remarks", len(content.Remarks),
		"profile", profile != nil)
	return nil
}

func checkSubject(ctx context.Context, q *store.Session, item domain.CommunityContentItem) error {
	book, err := q.GetBook(ctx, item.BookID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: book %d no longer exists", ErrStaleItem, item.BookID)
	}
	if err != nil {
		return fmt.Errorf("failed to load book: %w", err)
	}
	if book.ExternalSubjectID != item.SubjectID {
		return fmt.Errorf("%w: book %d now points at %q", ErrStaleItem, item.BookID, book.ExternalSubjectID)
	}
	return nil
}

// fetchProfile never fails the refresh; any problem just skips the update.
func (r *Refresher) fetchProfile(ctx context.Context, subjectID string, log *logger.Logger) *domain.AuthorProfile {
	authorID, err := r.source.FindAuthorID(ctx, subjectID)
	if err != nil {
		log.Debug("Author discovery failed", "error", err)
		return nil
	}
	if authorID == "" {
		return nil
	}

	profile, err := r.source.FetchAuthorProfile(ctx, authorID)
	if err != nil {
		log.Debug("Author profile fetch failed", "author_id", authorID, "error", err)
		return nil
	}
	profile.ExternalID = authorID
	if profile.Empty() {
		return nil
	}
	return &profile
}

// toQuotes truncates before deduplicating, so texts that only differ past
// the length limit collapse into one row.
func toQuotes(parsed []Quote) []domain.Quote {
	out := make([]domain.Quote, 0, len(parsed))
	for _, p := range parsed {
		q := domain.Quote{Text: p.Text, Source: optional(p.Source), Origin: domain.OriginCommunity}
		q.Normalize()
		out = append(out, q)
	}
	out = textutil.Dedupe(out, func(q domain.Quote) string { return q.Text })
	if len(out) > constants.CommunityListCap {
		out = out[:constants.CommunityListCap]
	}
	return out
}

func toRemarks(parsed []Remark) []domain.Remark {
	out := make([]domain.Remark, 0, len(parsed))
	for _, p := range parsed {
		r := domain.Remark{Content: p.Content, Title: optional(p.Title), Origin: domain.OriginCommunity}
		r.Normalize()
		out = append(out, r)
	}
	out = textutil.Dedupe(out, func(r domain.Remark) string { return r.Content })
	if len(out) > constants.CommunityListCap {
		out = out[:constants.CommunityListCap]
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
