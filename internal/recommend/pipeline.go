// Package recommend asks a chat model for author recommendations, series
// continuations and adaptations, and stores each focus unit's answer as a
// full replacement set.
package recommend

import (
	"context"
	"errors"

	"github.com/cesargomez89/shelfwise/internal/llm"
	"github.com/cesargomez89/shelfwise/internal/logger"
	"github.com/cesargomez89/shelfwise/internal/store"
	"github.com/cesargomez89/shelfwise/internal/textutil"
)

// Pipeline turns one focus unit into a persisted suggestion set of shape S.
type Pipeline[S any] struct {
	Name    string
	Prompt  func(focus string, library []string, limit int) llm.Prompt
	Parse   func(item map[string]any) (S, bool)
	Key     func(S) string
	Persist func(ctx context.Context, q *store.Queries, focus string, items []S) error
}

// Run asks the model about focus and replaces the stored set. A reply without
// usable JSON persists an empty set. Endpoint failures persist nothing.
func (p *Pipeline[S]) Run(ctx context.Context, model llm.Completer, q *store.Queries, focus string, library []string, limit int, log *logger.Logger) (int, error) {
	log = &logger.Logger{Logger: log.With("pipeline", p.Name, "focus", focus)}

	content, err := model.Complete(ctx, p.Prompt(focus, library, limit))
	if err != nil && !errors.Is(err, llm.ErrEmptyResponse) {
		return 0, err
	}

	raw, ok := llm.ExtractItems(content)
	if !ok {
		log.Warn("Model reply had no suggestion list")
	}

	items := p.parseAll(raw, focus)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	if err := p.Persist(ctx, q, focus, items); err != nil {
		return 0, err
	}
	log.Debug("Suggestions stored", "count", len(items))
	return len(items), nil
}

func (p *Pipeline[S]) parseAll(raw []map[string]any, focus string) []S {
	parsed := make([]S, 0, len(raw))
	for _, m := range raw {
		s, ok := p.Parse(m)
		if !ok || sameName(focus, p.Key(s)) {
			continue
		}
		parsed = append(parsed, s)
	}
	return textutil.Dedupe(parsed, p.Key)
}
