package memory

import (
	"context"
	"errors"
	"fmt"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/interpolation"
	"ts-catalog/internal/textutil"
	"ts-catalog/internal/worker"

	"github.com/rs/zerolog/log"
)

// ErrNoLanguage is returned when a catalog has no language attribute.
var ErrNoLanguage = errors.New("catalog has no language")

// Backend stores and searches embedded records.
type Backend interface {
	Store(ctx context.Context, records []Record) error
	Search(ctx context.Context, language string, queryVector []float32, topK int) ([]Match, error)
}

// Memory is a translation memory over finished translations of every
// indexed catalog.
type Memory struct {
	backend    Backend
	dimensions int
	minScore   float64
	workers    int
}

func New(backend Backend, dimensions int, minScore float64, workers int) *Memory {
	return &Memory{
		backend:    backend,
		dimensions: dimensions,
		minScore:   minScore,
		workers:    workers,
	}
}

// Index stores every finished, non-plural translation of c under name.
func (m *Memory) Index(ctx context.Context, name string, c *catalog.Catalog) (int, error) {
	if c.Language == "" {
		return 0, fmt.Errorf("%w: %s", ErrNoLanguage, name)
	}

	var records []Record
	for cx, msg := range c.Messages() {
		if msg.Type != catalog.Finished || msg.Numerus || !msg.Translated() {
			continue
		}
		records = append(records, Record{
			Hash:        textutil.Hash(c.Language, cx.Name, msg.Source, msg.Comment),
			Catalog:     name,
			Language:    c.Language,
			Context:     cx.Name,
			Source:      msg.Source,
			Comment:     msg.Comment,
			Translation: msg.Text(),
			Vector:      Embed(msg.Source, m.dimensions),
		})
	}

	if err := m.backend.Store(ctx, records); err != nil {
		return 0, err
	}
	log.Info().Str("catalog", name).Int("entries", len(records)).Msg("Indexed translation memory")
	return len(records), nil
}

// Suggest returns up to topK remembered translations in language whose
// source resembles source, best first.
func (m *Memory) Suggest(ctx context.Context, language, source string, topK int) ([]Match, error) {
	matches, err := m.backend.Search(ctx, language, Embed(source, m.dimensions), topK)
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, match := range matches {
		if match.Score >= m.minScore {
			out = append(out, match)
		}
	}
	return out, nil
}

type pending struct {
	key    catalog.Key
	source string
}

// Fill proposes translations for the untranslated messages of c. A
// suggestion is only taken when its placeholders match the source.
func (m *Memory) Fill(ctx context.Context, c *catalog.Catalog, topK int) (map[catalog.Key]string, error) {
	if c.Language == "" {
		return nil, ErrNoLanguage
	}

	var todo []pending
	for cx, msg := range c.Messages() {
		if msg.Type.Retired() || msg.Numerus || msg.Translated() {
			continue
		}
		todo = append(todo, pending{key: msg.Key(cx.Name), source: msg.Source})
	}

	pool := worker.NewPool(m.workers, func(ctx context.Context, p pending) (string, error) {
		matches, err := m.Suggest(ctx, c.Language, p.source, topK)
		if err != nil {
			return "", err
		}
		for _, match := range matches {
			if interpolation.SamePlaceholders(p.source, match.Translation) {
				return match.Translation, nil
			}
		}
		return "", nil
	})

	tasks := pool.Execute(ctx, todo)
	if failed := worker.Errors(tasks); len(failed) > 0 {
		return nil, fmt.Errorf("suggest %q: %w", failed[0].Input.source, failed[0].Err)
	}

	suggestions := make(map[catalog.Key]string)
	for _, task := range tasks {
		if task.Result != "" {
			suggestions[task.Input.key] = task.Result
		}
	}

	log.Info().
		Int("untranslated", len(todo)).
		Int("suggested", len(suggestions)).
		Msg("Filled from translation memory")
	return suggestions, nil
}
