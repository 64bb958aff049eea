package catalog

import (
	"iter"
	"strings"

	"github.com/samber/lo"
)

// TranslationType is the state recorded on a <translation> element.
type TranslationType string

const (
	Finished   TranslationType = ""
	Unfinished TranslationType = "unfinished"
	Vanished   TranslationType = "vanished"
	Obsolete   TranslationType = "obsolete"
)

// Retired reports whether the message no longer exists in the sources.
func (t TranslationType) Retired() bool {
	return t == Vanished || t == Obsolete
}

// VariantSeparator joins the length variants of one translation, longest
// first. It is the separator Qt uses in compiled catalogs.
const VariantSeparator = "\u009c"

// Location is a source reference recorded by the extraction tool.
type Location struct {
	// File is the path relative to the catalog, e.g. "../filedialog.cpp".
	File string
	// Line is the 1-based line number, 0 when absent. Relative line
	// offsets are resolved to absolute numbers when a catalog is read.
	Line int
}

// Message is one translatable unit inside a context.
type Message struct {
	ID                string
	Locations         []Location
	Source            string
	OldSource         string
	Comment           string
	OldComment        string
	ExtraComment      string
	TranslatorComment string
	Translation       string
	Numerus           bool
	NumerusForms      []string
	Type              TranslationType
}

// Key returns the lookup key of the message inside the named context.
func (m *Message) Key(context string) Key {
	return Key{Context: context, Source: m.Source, Comment: m.Comment}
}

// Translated reports whether the message carries any translated text.
func (m *Message) Translated() bool {
	if m.Numerus {
		return lo.SomeBy(m.NumerusForms, hasText)
	}
	return hasText(m.Translation)
}

// Text returns the translation used for display. Numerus messages yield
// their first non-empty form; plural selection is up to the caller. Of
// several length variants the first non-empty, longest one is returned.
func (m *Message) Text() string {
	text := m.Translation
	if m.Numerus {
		text, _ = lo.Find(m.NumerusForms, hasText)
	}
	variant, _ := lo.Find(Variants(text), hasText)
	return variant
}

func hasText(s string) bool { return strings.Trim(s, VariantSeparator) != "" }

// Variants splits a translation into its length variants. Text without a
// separator is its own single variant.
func Variants(text string) []string {
	return strings.Split(text, VariantSeparator)
}

// Context groups the messages of one UI class or dialog.
type Context struct {
	Name     string
	Comment  string
	Messages []*Message
}

// Catalog is a parsed translation document.
type Catalog struct {
	Version        string
	Language       string
	SourceLanguage string
	// RelativeLocations records that locations were written as line
	// offsets (lupdate -locations relative) and must be written back so.
	RelativeLocations bool
	Contexts          []*Context
}

// Key identifies a message at lookup time.
type Key struct {
	Context string
	Source  string
	Comment string
}

// Context returns the first context block with the given name.
func (c *Catalog) Context(name string) *Context {
	ctx, _ := lo.Find(c.Contexts, func(x *Context) bool { return x.Name == name })
	return ctx
}

// Messages iterates over every message in document order.
func (c *Catalog) Messages() iter.Seq2[*Context, *Message] {
	return func(yield func(*Context, *Message) bool) {
		for _, ctx := range c.Contexts {
			for _, m := range ctx.Messages {
				if !yield(ctx, m) {
					return
				}
			}
		}
	}
}

// Stats summarises translation progress.
type Stats struct {
	Contexts   int
	Messages   int
	Finished   int
	Unfinished int
	Empty      int
	Obsolete   int
	Numerus    int
}

// Stats counts messages by state. Contexts are counted by distinct name.
func (c *Catalog) Stats() Stats {
	s := Stats{
		Contexts: len(lo.Uniq(lo.Map(c.Contexts, func(x *Context, _ int) string { return x.Name }))),
	}
	for _, m := range c.Messages() {
		s.Messages++
		if m.Numerus {
			s.Numerus++
		}
		switch {
		case m.Type.Retired():
			s.Obsolete++
		case !m.Translated():
			s.Empty++
		case m.Type == Unfinished:
			s.Unfinished++
		default:
			s.Finished++
		}
	}
	return s
}

// Apply sets translations for every message whose key is present in
// translations and marks them finished. It returns the number of messages
// that changed.
func (c *Catalog) Apply(translations map[Key]string) int {
	return c.ApplyAs(translations, Finished)
}

// ApplyAs is Apply with an explicit resulting type, e.g. Unfinished for
// machine suggestions awaiting review.
func (c *Catalog) ApplyAs(translations map[Key]string, typ TranslationType) int {
	changed := 0
	for ctx, m := range c.Messages() {
		text, ok := translations[m.Key(ctx.Name)]
		if !ok || m.Type.Retired() || m.Numerus {
			continue
		}
		if m.Translation == text && m.Type == typ {
			continue
		}
		m.Translation = text
		m.Type = typ
		changed++
	}
	return changed
}
