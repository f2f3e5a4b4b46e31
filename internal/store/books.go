package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/shelfwise/internal/domain"
)

// GetOrCreateAuthor returns the author with the given name (case-insensitive),
// inserting it first when missing.
func (qs *Queries) GetOrCreateAuthor(ctx context.Context, name string) (*domain.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("author name cannot be empty")
	}

	_, err := qs.q.ExecContext(ctx,
		`INSERT INTO authors (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create author: %w", err)
	}

	var author domain.Author
	if err := qs.q.GetContext(ctx, &author, `SELECT * FROM authors WHERE name = ?`, name); err != nil {
		return nil, fmt.Errorf("failed to load author: %w", err)
	}
	return &author, nil
}

func (qs *Queries) GetAuthor(ctx context.Context, id int64) (*domain.Author, error) {
	var author domain.Author
	err := qs.q.GetContext(ctx, &author, `SELECT * FROM authors WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// ListAuthorNames returns every author that has at least one book.
func (qs *Queries) ListAuthorNames(ctx context.Context) ([]string, error) {
	var names []string
	err := qs.q.SelectContext(ctx, &names, `
		SELECT DISTINCT a.name FROM authors a
		JOIN books b ON b.author_id = a.id
		ORDER BY a.name COLLATE NOCASE`)
	return names, err
}

// UpdateAuthorProfile stores a scraped profile and stamps the refresh time.
func (qs *Queries) UpdateAuthorProfile(ctx context.Context, authorID int64, profile domain.AuthorProfile, at time.Time) error {
	profile.Normalize()

	var externalID *string
	if profile.ExternalID != "" {
		externalID = &profile.ExternalID
	}
	result, err := qs.q.ExecContext(ctx, `
		UPDATE authors SET
			external_id = COALESCE(?, external_id),
			profile_summary = ?,
			notable_works = ?,
			profile_refreshed_at = ?
		WHERE id = ?`,
		externalID, nullIfEmpty(profile.Summary), nullIfEmpty(profile.NotableWorks), at, authorID)
	if err != nil {
		return fmt.Errorf("failed to update author profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("author with id %d: %w", authorID, ErrNotFound)
	}
	return nil
}

func (qs *Queries) CreateBook(ctx context.Context, book *domain.Book) error {
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now

	result, err := qs.q.ExecContext(ctx, `
		INSERT INTO books (title, author_id, external_subject_id, cover_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		book.Title, book.AuthorID, book.ExternalSubjectID, book.CoverURL, book.CreatedAt, book.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read book id: %w", err)
	}
	book.ID = id
	return nil
}

func (qs *Queries) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	var book domain.Book
	err := qs.q.GetContext(ctx, &book, `SELECT * FROM books WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (qs *Queries) UpdateBookSubject(ctx context.Context, id int64, subjectID string) error {
	result, err := qs.q.ExecContext(ctx,
		`UPDATE books SET external_subject_id = ?, updated_at = ? WHERE id = ?`,
		subjectID, time.Now(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("book with id %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteBook removes a book; its quotes and remarks go with it.
func (qs *Queries) DeleteBook(ctx context.Context, id int64) error {
	_, err := qs.q.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	return err
}

// ListBookTitles returns every distinct title in the library.
func (qs *Queries) ListBookTitles(ctx context.Context) ([]string, error) {
	var titles []string
	err := qs.q.SelectContext(ctx, &titles,
		`SELECT DISTINCT title FROM books WHERE title <> '' ORDER BY title COLLATE NOCASE`)
	return titles, err
}

// ListTitlesByAuthors returns the titles written by any of the named authors.
func (qs *Queries) ListTitlesByAuthors(ctx context.Context, authors []string) ([]string, error) {
	if len(authors) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT DISTINCT b.title FROM books b
		JOIN authors a ON a.id = b.author_id
		WHERE a.name IN (?) AND b.title <> ''
		ORDER BY b.title COLLATE NOCASE`, authors)
	if err != nil {
		return nil, err
	}
	var titles []string
	err = qs.q.SelectContext(ctx, &titles, query, args...)
	return titles, err
}

// ListExternalCoverURLs returns the distinct cover references that point at
// a remote http(s) origin.
func (qs *Queries) ListExternalCoverURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := qs.q.SelectContext(ctx, &urls, `
		SELECT cover_url FROM books
		WHERE cover_url LIKE 'http://%' OR cover_url LIKE 'https://%'
		GROUP BY cover_url
		ORDER BY MIN(id)`)
	return urls, err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
