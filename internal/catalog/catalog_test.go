package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() *Catalog {
	return &Catalog{
		Version:  "2.1",
		Language: "he",
		Contexts: []*Context{
			{
				Name: "Fm::FileOperation",
				Messages: []*Message{
					{Source: "Error", Translation: "שגיאה", Locations: []Location{{File: "../fileoperation.cpp", Line: 309}}},
					{Source: "Cancel", Translation: "ביטול", Type: Unfinished},
				},
			},
			{
				Name: "Fm::FileDialog",
				Messages: []*Message{
					{Source: "Go Back", Translation: "חזרה"},
					{Source: "Alt+Left", Comment: "Go Back", Translation: "Alt+שמאלה"},
					{Source: "F5", Comment: "Reload"},
					{Source: "Old", Translation: "ישן", Type: Vanished},
				},
			},
			{
				Name: "Fm::FileOperation",
				Messages: []*Message{
					{Source: "Error", Translation: "תקלה"},
				},
			},
		},
	}
}

func TestIndexTranslate(t *testing.T) {
	idx := NewIndex(sampleCatalog())

	assert.Equal(t, "שגיאה", idx.Translate("Fm::FileOperation", "Error", ""))
	assert.Equal(t, "Errorr", idx.Translate("Fm::FileOperation", "Errorr", ""))
	assert.Equal(t, "Error", idx.Translate("Fm::FileDialog", "Error", ""))
	assert.Equal(t, "he", idx.Language())
}

func TestIndexDisambiguationComment(t *testing.T) {
	idx := NewIndex(sampleCatalog())

	assert.Equal(t, "Alt+שמאלה", idx.Translate("Fm::FileDialog", "Alt+Left", "Go Back"))
	assert.Equal(t, "Alt+Left", idx.Translate("Fm::FileDialog", "Alt+Left", ""))
	assert.Equal(t, "Go Back", idx.Translate("Fm::FileDialog", "Go Back", "Toolbar"))
}

func TestIndexCommentFallback(t *testing.T) {
	idx := NewIndex(sampleCatalog(), WithCommentFallback())

	assert.Equal(t, "חזרה", idx.Translate("Fm::FileDialog", "Go Back", "Toolbar"))
	assert.Equal(t, "Alt+Left", idx.Translate("Fm::FileDialog", "Alt+Left", "Other"))
}

func TestIndexSkipsEmptyAndRetired(t *testing.T) {
	idx := NewIndex(sampleCatalog())

	assert.Equal(t, "F5", idx.Translate("Fm::FileDialog", "F5", "Reload"))
	assert.Equal(t, "Old", idx.Translate("Fm::FileDialog", "Old", ""))
	assert.Equal(t, "ביטול", idx.Translate("Fm::FileOperation", "Cancel", ""))

	strict := NewIndex(sampleCatalog(), WithoutUnfinished())
	assert.Equal(t, "Cancel", strict.Translate("Fm::FileOperation", "Cancel", ""))
}

func TestIndexFirstDuplicateWins(t *testing.T) {
	idx := NewIndex(sampleCatalog())

	text, ok := idx.Lookup(Key{Context: "Fm::FileOperation", Source: "Error"})
	require.True(t, ok)
	assert.Equal(t, "שגיאה", text)
	assert.Equal(t, 4, idx.Len())
}

func TestIndexFirstLiveDuplicateDecides(t *testing.T) {
	c := &Catalog{Contexts: []*Context{{
		Name: "Fm::FilePropsDialog",
		Messages: []*Message{
			{Source: "SetUID", Translation: "ישן", Type: Obsolete},
			{Source: "SetUID"},
			{Source: "SetUID", Translation: "מזהה משתמש"},
		},
	}}}

	idx := NewIndex(c)
	assert.Equal(t, "SetUID", idx.Translate("Fm::FilePropsDialog", "SetUID", ""))
	assert.Equal(t, 0, idx.Len())

	c.Contexts[0].Messages[1].Type = Unfinished
	c.Contexts[0].Messages[1].Translation = "טיוטה"
	idx = NewIndex(c, WithoutUnfinished())
	assert.Equal(t, "SetUID", idx.Translate("Fm::FilePropsDialog", "SetUID", ""))
}

func TestNilIndexFallsBack(t *testing.T) {
	var idx *Index
	assert.Equal(t, "Error", idx.Translate("Fm::FileOperation", "Error", ""))
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, "", idx.Language())
}

func TestTextPicksFirstLengthVariant(t *testing.T) {
	m := &Message{Source: "Size", Translation: "גודל הקובץ" + VariantSeparator + "גודל"}
	assert.True(t, m.Translated())
	assert.Equal(t, "גודל הקובץ", m.Text())
	assert.Equal(t, []string{"גודל הקובץ", "גודל"}, Variants(m.Translation))

	m.Translation = VariantSeparator + "גודל"
	assert.Equal(t, "גודל", m.Text())

	m.Translation = VariantSeparator
	assert.False(t, m.Translated())
}

func TestStats(t *testing.T) {
	s := sampleCatalog().Stats()

	assert.Equal(t, Stats{
		Contexts:   2,
		Messages:   7,
		Finished:   4,
		Unfinished: 1,
		Empty:      1,
		Obsolete:   1,
	}, s)
}

func TestApply(t *testing.T) {
	c := sampleCatalog()

	changed := c.Apply(map[Key]string{
		{Context: "Fm::FileOperation", Source: "Cancel"}:            "ביטול",
		{Context: "Fm::FileDialog", Source: "F5", Comment: "Reload"}: "F5",
		{Context: "Fm::FileDialog", Source: "Old"}:                  "x",
		{Context: "Fm::FileDialog", Source: "Go Back"}:              "חזרה",
	})

	assert.Equal(t, 2, changed)
	assert.Equal(t, Finished, c.Contexts[0].Messages[1].Type)
	assert.Equal(t, "F5", c.Contexts[1].Messages[2].Translation)
	assert.Equal(t, "ישן", c.Contexts[1].Messages[3].Translation)
}

func TestApplyAsUnfinished(t *testing.T) {
	c := sampleCatalog()

	changed := c.ApplyAs(map[Key]string{
		{Context: "Fm::FileDialog", Source: "F5", Comment: "Reload"}: "F5",
		{Context: "Fm::FileOperation", Source: "Cancel"}:            "ביטול",
	}, Unfinished)

	assert.Equal(t, 1, changed)
	assert.Equal(t, Unfinished, c.Contexts[1].Messages[2].Type)
	assert.Equal(t, 4, c.Stats().Finished)
}

func TestContextAndMessages(t *testing.T) {
	c := sampleCatalog()

	require.NotNil(t, c.Context("Fm::FileDialog"))
	assert.Nil(t, c.Context("Missing"))

	var sources []string
	for _, m := range c.Messages() {
		sources = append(sources, m.Source)
		if len(sources) == 3 {
			break
		}
	}
	assert.Equal(t, []string{"Error", "Cancel", "Go Back"}, sources)
}

func TestNumerusMessage(t *testing.T) {
	m := &Message{Source: "%n file(s)", Numerus: true, NumerusForms: []string{"", "%n קבצים"}}
	assert.True(t, m.Translated())
	assert.Equal(t, "%n קבצים", m.Text())

	empty := &Message{Numerus: true, NumerusForms: []string{"", ""}}
	assert.False(t, empty.Translated())
}
