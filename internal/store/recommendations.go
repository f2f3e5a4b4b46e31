package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cesargomez89/shelfwise/internal/domain"
)

// ReplaceRecommendations swaps the full recommendation set of a focus author.
// An empty slice clears it.
func (qs *Queries) ReplaceRecommendations(ctx context.Context, focusAuthor string, recs []domain.Recommendation) error {
	return qs.RunInTx(ctx, func(tx *Queries) error {
		if _, err := tx.q.ExecContext(ctx,
			`DELETE FROM recommendations WHERE focus_author = ?`, focusAuthor); err != nil {
			return fmt.Errorf("failed to clear recommendations: %w", err)
		}
		now := time.Now()
		for i := range recs {
			r := recs[i]
			r.FocusAuthor = focusAuthor
			r.CreatedAt = now
			r.Normalize()
			if _, err := tx.q.ExecContext(ctx, `
				INSERT INTO recommendations (focus_author, recommended_author, rationale, image_url, confidence, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				r.FocusAuthor, r.RecommendedAuthor, r.Rationale, r.ImageURL, r.Confidence, r.CreatedAt); err != nil {
				return fmt.Errorf("failed to insert recommendation %q: %w", r.RecommendedAuthor, err)
			}
		}
		return nil
	})
}

// ReplaceSeriesSuggestions swaps the full series-continuation set of a title.
func (qs *Queries) ReplaceSeriesSuggestions(ctx context.Context, focusTitle string, items []domain.SeriesSuggestion) error {
	return qs.RunInTx(ctx, func(tx *Queries) error {
		if _, err := tx.q.ExecContext(ctx,
			`DELETE FROM series_suggestions WHERE focus_title = ?`, focusTitle); err != nil {
			return fmt.Errorf("failed to clear series suggestions: %w", err)
		}
		now := time.Now()
		for i := range items {
			s := items[i]
			s.FocusTitle = focusTitle
			s.CreatedAt = now
			s.Normalize()
			if _, err := tx.q.ExecContext(ctx, `
				INSERT INTO series_suggestions (focus_title, suggested_title, author, rationale, confidence, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				s.FocusTitle, s.SuggestedTitle, s.Author, s.Rationale, s.Confidence, s.CreatedAt); err != nil {
				return fmt.Errorf("failed to insert series suggestion %q: %w", s.SuggestedTitle, err)
			}
		}
		return nil
	})
}

// ReplaceAdaptations swaps the full adaptation set of a title.
func (qs *Queries) ReplaceAdaptations(ctx context.Context, focusTitle string, items []domain.AdaptationSuggestion) error {
	return qs.RunInTx(ctx, func(tx *Queries) error {
		if _, err := tx.q.ExecContext(ctx,
			`DELETE FROM adaptation_suggestions WHERE focus_title = ?`, focusTitle); err != nil {
			return fmt.Errorf("failed to clear adaptations: %w", err)
		}
		now := time.Now()
		for i := range items {
			a := items[i]
			a.FocusTitle = focusTitle
			a.CreatedAt = now
			a.Normalize()
			if _, err := tx.q.ExecContext(ctx, `
				INSERT INTO adaptation_suggestions (focus_title, adaptation_title, medium, year, rationale, confidence, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				a.FocusTitle, a.AdaptationTitle, a.Medium, a.Year, a.Rationale, a.Confidence, a.CreatedAt); err != nil {
				return fmt.Errorf("failed to insert adaptation %q: %w", a.AdaptationTitle, err)
			}
		}
		return nil
	})
}

func (qs *Queries) ListRecommendations(ctx context.Context, focusAuthor string) ([]domain.Recommendation, error) {
	var recs []domain.Recommendation
	err := qs.q.SelectContext(ctx, &recs,
		`SELECT * FROM recommendations WHERE focus_author = ? ORDER BY id`, focusAuthor)
	return recs, err
}

func (qs *Queries) ListSeriesSuggestions(ctx context.Context, focusTitle string) ([]domain.SeriesSuggestion, error) {
	var items []domain.SeriesSuggestion
	err := qs.q.SelectContext(ctx, &items,
		`SELECT * FROM series_suggestions WHERE focus_title = ? ORDER BY id`, focusTitle)
	return items, err
}

func (qs *Queries) ListAdaptations(ctx context.Context, focusTitle string) ([]domain.AdaptationSuggestion, error) {
	var items []domain.AdaptationSuggestion
	err := qs.q.SelectContext(ctx, &items,
		`SELECT * FROM adaptation_suggestions WHERE focus_title = ? ORDER BY id`, focusTitle)
	return items, err
}

// ListRecommendationImageURLs returns the distinct remote portraits attached
// to recommendations.
func (qs *Queries) ListRecommendationImageURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := qs.q.SelectContext(ctx, &urls, `
		SELECT image_url FROM recommendations
		WHERE image_url LIKE 'http://%' OR image_url LIKE 'https://%'
		GROUP BY image_url
		ORDER BY MIN(id)`)
	return urls, err
}
