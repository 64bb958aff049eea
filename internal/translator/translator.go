package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/interpolation"

	"github.com/cloudfoundry/jibber_jabber"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// ErrNoCatalog is returned when no catalog matches the requested language.
var ErrNoCatalog = errors.New("no catalog for language")

// Auto asks Use to detect the language from the operating system.
const Auto = "auto"

type table struct {
	tag   language.Tag
	index *catalog.Index
}

// Translator serves lookups from the active catalog. Reads never block;
// Use swaps in a complete new table.
type Translator struct {
	source    Source
	detect    func() (string, error)
	fallback  language.Tag
	indexOpts []catalog.IndexOption
	active    atomic.Pointer[table]
}

// Option configures a Translator.
type Option func(*Translator)

// WithDetector replaces operating system language detection.
func WithDetector(detect func() (string, error)) Option {
	return func(t *Translator) { t.detect = detect }
}

// WithFallback adds a second language preference tried when the requested
// one has no catalog.
func WithFallback(lang string) Option {
	return func(t *Translator) {
		if tag, err := language.Parse(lang); err == nil {
			t.fallback = tag
		}
	}
}

// WithIndexOptions passes options to every index the translator builds.
func WithIndexOptions(opts ...catalog.IndexOption) Option {
	return func(t *Translator) { t.indexOpts = append(t.indexOpts, opts...) }
}

func New(src Source, opts ...Option) *Translator {
	t := &Translator{
		source: src,
		detect: jibber_jabber.DetectIETF,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Translator) desired(lang string) ([]language.Tag, error) {
	if strings.EqualFold(lang, Auto) {
		detected, err := t.detect()
		if err != nil {
			return nil, fmt.Errorf("detect language: %w", err)
		}
		lang = detected
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", lang, err)
	}
	tags := []language.Tag{tag}
	if t.fallback != language.Und {
		tags = append(tags, t.fallback)
	}
	return tags, nil
}

// Use loads the catalog best matching lang and makes it active. On any
// failure the previously active catalog stays in place.
func (t *Translator) Use(ctx context.Context, lang string) error {
	desired, err := t.desired(lang)
	if err != nil {
		return err
	}

	available, err := t.source.Languages(ctx)
	if err != nil {
		return fmt.Errorf("list languages: %w", err)
	}
	if len(available) == 0 {
		return fmt.Errorf("%w: %s", ErrNoCatalog, desired[0])
	}

	_, i, conf := language.NewMatcher(available).Match(desired...)
	if conf == language.No {
		return fmt.Errorf("%w: %s", ErrNoCatalog, desired[0])
	}
	tag := available[i]

	c, err := t.source.Load(ctx, tag)
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", tag, err)
	}

	next := &table{tag: tag, index: catalog.NewIndex(c, t.indexOpts...)}
	t.active.Store(next)

	log.Info().
		Str("requested", desired[0].String()).
		Str("language", tag.String()).
		Int("entries", next.index.Len()).
		Msg("Activated catalog")
	return nil
}

// Reset drops the active catalog so every lookup returns its source.
func (t *Translator) Reset() { t.active.Store(nil) }

// Language is the active catalog's language, or "" when none is active.
func (t *Translator) Language() string {
	if a := t.active.Load(); a != nil {
		return a.tag.String()
	}
	return ""
}

// Translate looks up the message, falling back to source.
func (t *Translator) Translate(context, source, comment string) string {
	a := t.active.Load()
	if a == nil {
		return source
	}
	return a.index.Translate(context, source, comment)
}

// Tr translates source without a disambiguation comment and substitutes
// args into its %N markers.
func (t *Translator) Tr(context, source string, args ...string) string {
	return interpolation.Arg(t.Translate(context, source, ""), args...)
}
