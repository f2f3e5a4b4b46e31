package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cesargomez89/shelfwise/internal/domain"
)

// ErrSubjectChanged means the book was removed or re-linked to another
// external subject while a refresh was in flight.
var ErrSubjectChanged = errors.New("book subject changed since scheduling")

// CommunityContent is the full replacement set for one book.
type CommunityContent struct {
	RefreshedAt time.Time
	Profile     *domain.AuthorProfile // nil leaves the author untouched
	Quotes      []domain.Quote
	Remarks     []domain.Remark
}

// ReplaceCommunityContent deletes every community-origin quote and remark of
// the book and inserts the new sets in the same transaction. Personal rows are
// never touched. The book must still point at subjectID or nothing is written.
func (qs *Queries) ReplaceCommunityContent(ctx context.Context, bookID int64, subjectID string, content CommunityContent) error {
	return qs.RunInTx(ctx, func(tx *Queries) error {
		var book domain.Book
		err := tx.q.GetContext(ctx, &book, `SELECT * FROM books WHERE id = ?`, bookID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("book %d: %w", bookID, ErrSubjectChanged)
		}
		if err != nil {
			return fmt.Errorf("failed to reload book: %w", err)
		}
		if book.ExternalSubjectID != subjectID {
			return fmt.Errorf("book %d now %q: %w", bookID, book.ExternalSubjectID, ErrSubjectChanged)
		}

		if _, err := tx.q.ExecContext(ctx,
			`DELETE FROM quotes WHERE book_id = ? AND origin = ?`, bookID, domain.OriginCommunity); err != nil {
			return fmt.Errorf("failed to clear community quotes: %w", err)
		}
		if _, err := tx.q.ExecContext(ctx,
			`DELETE FROM remarks WHERE book_id = ? AND origin = ?`, bookID, domain.OriginCommunity); err != nil {
			return fmt.Errorf("failed to clear community remarks: %w", err)
		}

		now := time.Now()
		for i := range content.Quotes {
			q := content.Quotes[i]
			q.BookID = bookID
			q.Origin = domain.OriginCommunity
			q.CreatedAt = now
			if err := tx.insertQuote(ctx, &q); err != nil {
				return err
			}
		}
		for i := range content.Remarks {
			r := content.Remarks[i]
			r.BookID = bookID
			r.Origin = domain.OriginCommunity
			r.CreatedAt = now
			if err := tx.insertRemark(ctx, &r); err != nil {
				return err
			}
		}

		if content.Profile != nil && !content.Profile.Empty() && book.AuthorID != nil {
			at := content.RefreshedAt
			if at.IsZero() {
				at = now
			}
			if err := tx.UpdateAuthorProfile(ctx, *book.AuthorID, *content.Profile, at); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddQuote stores a personal quote.
func (qs *Queries) AddQuote(ctx context.Context, q *domain.Quote) error {
	if q.Origin == "" {
		q.Origin = domain.OriginMine
	}
	q.CreatedAt = time.Now()
	return qs.insertQuote(ctx, q)
}

// AddRemark stores a personal remark.
func (qs *Queries) AddRemark(ctx context.Context, r *domain.Remark) error {
	if r.Origin == "" {
		r.Origin = domain.OriginMine
	}
	r.CreatedAt = time.Now()
	return qs.insertRemark(ctx, r)
}

func (qs *Queries) insertQuote(ctx context.Context, q *domain.Quote) error {
	q.Normalize()
	result, err := qs.q.ExecContext(ctx,
		`INSERT INTO quotes (book_id, text, source, origin, created_at) VALUES (?, ?, ?, ?, ?)`,
		q.BookID, q.Text, q.Source, q.Origin, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	q.ID, _ = result.LastInsertId()
	return nil
}

func (qs *Queries) insertRemark(ctx context.Context, r *domain.Remark) error {
	r.Normalize()
	result, err := qs.q.ExecContext(ctx,
		`INSERT INTO remarks (book_id, content, title, origin, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.BookID, r.Content, r.Title, r.Origin, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert remark: %w", err)
	}
	r.ID, _ = result.LastInsertId()
	return nil
}

// ListQuotes returns the quotes of a book in insertion order. An empty origin
// returns both personal and community rows.
func (qs *Queries) ListQuotes(ctx context.Context, bookID int64, origin domain.Origin) ([]domain.Quote, error) {
	var quotes []domain.Quote
	query := `SELECT * FROM quotes WHERE book_id = ? AND (? = '' OR origin = ?) ORDER BY id`
	err := qs.q.SelectContext(ctx, &quotes, query, bookID, origin, origin)
	return quotes, err
}

// ListRemarks returns the remarks of a book in insertion order.
func (qs *Queries) ListRemarks(ctx context.Context, bookID int64, origin domain.Origin) ([]domain.Remark, error) {
	var remarks []domain.Remark
	query := `SELECT * FROM remarks WHERE book_id = ? AND (? = '' OR origin = ?) ORDER BY id`
	err := qs.q.SelectContext(ctx, &remarks, query, bookID, origin, origin)
	return remarks, err
}
