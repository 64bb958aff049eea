package catalog

// Index is an immutable lookup table built from a catalog. It is safe for
// concurrent use because nothing writes to it after NewIndex returns.
type Index struct {
	language        string
	entries         map[Key]string
	commentFallback bool
}

type indexOptions struct {
	skipUnfinished  bool
	commentFallback bool
}

// IndexOption configures NewIndex.
type IndexOption func(*indexOptions)

// WithoutUnfinished drops translations marked unfinished.
func WithoutUnfinished() IndexOption {
	return func(o *indexOptions) { o.skipUnfinished = true }
}

// WithCommentFallback retries a miss that carries a disambiguation comment
// with an empty comment, the way the Qt runtime does.
func WithCommentFallback() IndexOption {
	return func(o *indexOptions) { o.commentFallback = true }
}

// NewIndex builds the lookup table for c. Retired and empty messages are
// left out so that lookups fall back to the source text. When a key occurs
// more than once the first live entry decides it, even when that entry has
// no translation.
func NewIndex(c *Catalog, opts ...IndexOption) *Index {
	var o indexOptions
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{
		language:        c.Language,
		entries:         make(map[Key]string),
		commentFallback: o.commentFallback,
	}
	seen := make(map[Key]bool)
	for ctx, m := range c.Messages() {
		if m.Type.Retired() {
			continue
		}
		key := m.Key(ctx.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !m.Translated() || (o.skipUnfinished && m.Type == Unfinished) {
			continue
		}
		idx.entries[key] = m.Text()
	}
	return idx
}

// Language is the language attribute of the indexed catalog.
func (idx *Index) Language() string {
	if idx == nil {
		return ""
	}
	return idx.language
}

// Len is the number of lookup keys.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Lookup returns the stored translation for key.
func (idx *Index) Lookup(key Key) (string, bool) {
	if idx == nil {
		return "", false
	}
	if text, ok := idx.entries[key]; ok {
		return text, true
	}
	if idx.commentFallback && key.Comment != "" {
		key.Comment = ""
		text, ok := idx.entries[key]
		return text, ok
	}
	return "", false
}

// Translate returns the translation of source, or source unchanged when
// the catalog has none.
func (idx *Index) Translate(context, source, comment string) string {
	if text, ok := idx.Lookup(Key{Context: context, Source: source, Comment: comment}); ok {
		return text
	}
	return source
}
