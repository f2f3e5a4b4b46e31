package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/cesargomez89/shelfwise/internal/domain"
	"github.com/cesargomez89/shelfwise/internal/llm"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/store"
	"github.com/cesargomez89/shelfwise/internal/textutil"
)

// Options bound prompt sizes.
type Options struct {
	MaxSuggestions int
	ContextLimit   int
}

// Refresher handles RecommendationItems: author recommendations for every
// focus author, then series and adaptation suggestions for their titles.
type Refresher struct {
	db          *store.DB
	model       llm.Completer
	logger      *logger.Logger
	opts        Options
	authors     *Pipeline[domain.Recommendation]
	series      *Pipeline[domain.SeriesSuggestion]
	adaptations *Pipeline[domain.AdaptationSuggestion]
}

func NewRefresher(db *store.DB, model llm.Completer, opts Options, log *logger.Logger) *Refresher {
	return &Refresher{
		db:          db,
		model:       model,
		logger:      log.WithComponent("recommend"),
		opts:        opts,
		authors:     AuthorPipeline(),
		series:      SeriesPipeline(),
		adaptations: AdaptationPipeline(),
	}
}

// Scope is the resolved working set of one item.
type Scope struct {
	Authors        []string
	Titles         []string
	LibraryAuthors []string
	LibraryTitles  []string
}

// Empty reports whether there is nothing to refresh.
func (s Scope) Empty() bool {
	return len(s.Authors) == 0 && len(s.Titles) == 0
}

// Handle runs every focus unit of the item. A failing unit is logged and the
// rest still run; the failures come back joined. Cancellation stops at once.
func (r *Refresher) Handle(ctx context.Context, item domain.RecommendationItem) error {
	log := r.logger.WithItem(item.ID, item.Kind())

	sess, err := r.db.Session(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	scope, err := r.resolve(ctx, sess.Queries, item)
	if err != nil {
		return err
	}
	if scope.Empty() {
		log.Info("Nothing to refresh", "full", item.FullRefresh, "requested", len(item.FocusAuthors))
		return nil
	}

	var errs []error
	run := func(pipeline string, focus string, fn func() (int, error)) error {
		n, err := fn()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Error("Suggestion refresh failed", "pipeline", pipeline, "focus", focus, "error", err)
			errs = append(errs, fmt.Errorf("%s %q: %w", pipeline, focus, err))
			return nil
		}
		log.Debug("Suggestion refresh done", "pipeline", pipeline, "focus", focus, "count", n)
		return nil
	}

	for _, author := range scope.Authors {
		library := bounded(without(scope.LibraryAuthors, author), r.opts.ContextLimit)
		if err := run(r.authors.Name, author, func() (int, error) {
			return r.authors.Run(ctx, r.model, sess.Queries, author, library, r.opts.MaxSuggestions, log)
		}); err != nil {
			return err
		}
	}

	for _, title := range scope.Titles {
		library := bounded(without(scope.LibraryTitles, title), r.opts.ContextLimit)
		if err := run(r.series.Name, title, func() (int, error) {
			return r.series.Run(ctx, r.model, sess.Queries, title, library, r.opts.MaxSuggestions, log)
		}); err != nil {
			return err
		}
		if err := run(r.adaptations.Name, title, func() (int, error) {
			return r.adaptations.Run(ctx, r.model, sess.Queries, title, nil, r.opts.MaxSuggestions, log)
		}); err != nil {
			return err
		}
	}

	log.Info("Recommendations refreshed",
		"authors", len(scope.Authors),
		"titles", len(scope.Titles),
		"failed", len(errs))
	return errors.Join(errs...)
}

// resolve picks the focus authors and titles. Requested names that are not
// in the library are dropped; matching ignores case and uses the library's
// spelling.
func (r *Refresher) resolve(ctx context.Context, q *store.Queries, item domain.RecommendationItem) (Scope, error) {
	var scope Scope
	var err error

	scope.LibraryAuthors, err = q.ListAuthorNames(ctx)
	if err != nil {
		return Scope{}, fmt.Errorf("failed to list authors: %w", err)
	}
	scope.LibraryTitles, err = q.ListBookTitles(ctx)
	if err != nil {
		return Scope{}, fmt.Errorf("failed to list titles: %w", err)
	}

	if item.FullRefresh {
		scope.Authors = scope.LibraryAuthors
		scope.Titles = scope.LibraryTitles
		return scope, nil
	}

	requested := make(map[string]struct{}, len(item.FocusAuthors))
	for _, name := range item.FocusAuthors {
		if k := textutil.FoldKey(name); k != "" {
			requested[k] = struct{}{}
		}
	}
	for _, name := range scope.LibraryAuthors {
		if _, ok := requested[textutil.FoldKey(name)]; ok {
			scope.Authors = append(scope.Authors, name)
		}
	}
	if len(scope.Authors) == 0 {
		return scope, nil
	}

	scope.Titles, err = q.ListTitlesByAuthors(ctx, scope.Authors)
	if err != nil {
		return Scope{}, fmt.Errorf("failed to list titles: %w", err)
	}
	return scope, nil
}

func without(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !sameName(name, s) {
			out = append(out, s)
		}
	}
	return out
}

func bounded(list []string, limit int) []string {
	if limit >= 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
