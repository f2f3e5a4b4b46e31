package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/cesargomez89/shelfwise/internal/domain"
	"github.com/cesargomez89/shelfwise/internal/llm"
	"github.com/cesargomez89/shelfwise/internal/store"
)

const systemPrompt = "You are a well-read librarian. Reply with JSON only, no commentary."

// AuthorPipeline recommends authors similar to a focus author.
func AuthorPipeline() *Pipeline[domain.Recommendation] {
	return &Pipeline[domain.Recommendation]{
		Name: "authors",
		Prompt: func(focus string, library []string, limit int) llm.Prompt {
			return llm.Prompt{
				System: systemPrompt,
				User: instruction(
					fmt.Sprintf("Recommend up to %d authors for a reader who enjoys %q.", limit, focus),
					"Authors already in the reader's library", library,
					`{"name": string, "reason": string, "image_url": string or null, "confidence": number between 0 and 1}`,
				),
			}
		},
		Parse: func(m map[string]any) (domain.Recommendation, bool) {
			name := stringField(m, "name", "author")
			if name == nil {
				return domain.Recommendation{}, false
			}
			r := domain.Recommendation{
				RecommendedAuthor: *name,
				Rationale:         stringField(m, "reason", "rationale"),
				ImageURL:          urlField(m, "image_url", "imageUrl"),
				Confidence:        floatField(m, "confidence"),
			}
			r.Normalize()
			return r, true
		},
		Key: func(r domain.Recommendation) string { return r.RecommendedAuthor },
		Persist: func(ctx context.Context, q *store.Queries, focus string, items []domain.Recommendation) error {
			return q.ReplaceRecommendations(ctx, focus, items)
		},
	}
}

// SeriesPipeline suggests what to read after a focus title.
func SeriesPipeline() *Pipeline[domain.SeriesSuggestion] {
	return &Pipeline[domain.SeriesSuggestion]{
		Name: "series",
		Prompt: func(focus string, library []string, limit int) llm.Prompt {
			return llm.Prompt{
				System: systemPrompt,
				User: instruction(
					fmt.Sprintf("List up to %d books that continue or belong to the same series as %q, in reading order.", limit, focus),
					"Titles already in the reader's library", library,
					`{"title": string, "author": string or null, "reason": string, "confidence": number between 0 and 1}`,
				),
			}
		},
		Parse: func(m map[string]any) (domain.SeriesSuggestion, bool) {
			title := stringField(m, "title", "name")
			if title == nil {
				return domain.SeriesSuggestion{}, false
			}
			s := domain.SeriesSuggestion{
				SuggestedTitle: *title,
				Author:         stringField(m, "author"),
				Rationale:      stringField(m, "reason", "rationale"),
				Confidence:     floatField(m, "confidence"),
			}
			s.Normalize()
			return s, true
		},
		Key: func(s domain.SeriesSuggestion) string { return s.SuggestedTitle },
		Persist: func(ctx context.Context, q *store.Queries, focus string, items []domain.SeriesSuggestion) error {
			return q.ReplaceSeriesSuggestions(ctx, focus, items)
		},
	}
}

// AdaptationPipeline lists film, television or stage adaptations of a title.
func AdaptationPipeline() *Pipeline[domain.AdaptationSuggestion] {
	return &Pipeline[domain.AdaptationSuggestion]{
		Name: "adaptations",
		Prompt: func(focus string, library []string, limit int) llm.Prompt {
			return llm.Prompt{
				System: systemPrompt,
				User: instruction(
					fmt.Sprintf("List up to %d known adaptations (film, television, stage, audio) of the book %q. Only include adaptations that exist.", limit, focus),
					"", nil,
					`{"title": string, "medium": string, "year": integer or null, "reason": string, "confidence": number between 0 and 1}`,
				),
			}
		},
		Parse: func(m map[string]any) (domain.AdaptationSuggestion, bool) {
			title := stringField(m, "title", "name")
			if title == nil {
				return domain.AdaptationSuggestion{}, false
			}
			a := domain.AdaptationSuggestion{
				AdaptationTitle: *title,
				Medium:          stringField(m, "medium", "type"),
				Year:            intField(m, "year"),
				Rationale:       stringField(m, "reason", "rationale"),
				Confidence:      floatField(m, "confidence"),
			}
			a.Normalize()
			return a, true
		},
		Key: func(a domain.AdaptationSuggestion) string { return a.AdaptationTitle },
		Persist: func(ctx context.Context, q *store.Queries, focus string, items []domain.AdaptationSuggestion) error {
			return q.ReplaceAdaptations(ctx, focus, items)
		},
	}
}

func instruction(task, contextLabel string, library []string, shape string) string {
	var b strings.Builder
	b.WriteString(task)
	b.WriteString("\n")
	if len(library) > 0 {
		b.WriteString(contextLabel)
		b.WriteString(" (do not suggest these): ")
		b.WriteString(strings.Join(library, "; "))
		b.WriteString("\n")
	}
	b.WriteString(`Respond with a JSON object {"` + llm.ListKey + `": [...]} where each element is `)
	b.WriteString(shape)
	b.WriteString(". Use an empty array if you have nothing reliable.")
	return b.String()
}
