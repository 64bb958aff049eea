package lint

import (
	"os"
	"testing"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/format"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loc() []catalog.Location {
	return []catalog.Location{{File: "../filedialog.cpp", Line: 1}}
}

func TestCheckHebrewCatalogIsClean(t *testing.T) {
	f, err := os.Open("../format/testdata/libfm-qt_he.ts")
	require.NoError(t, err)
	defer f.Close()
	c, err := format.NewTS().Decode(f)
	require.NoError(t, err)

	report := Check(c, Options{})

	assert.False(t, report.HasErrors())
	assert.Equal(t, 0, report.Count(Warning))
	assert.Len(t, report.ByRule(RuleUntranslated), 8)

	quiet := Check(c, Options{MinSeverity: Warning})
	assert.Empty(t, quiet.Findings)
}

func TestCheckDuplicateKeys(t *testing.T) {
	c := &catalog.Catalog{Contexts: []*catalog.Context{
		{Name: "Fm::FileDialog", Messages: []*catalog.Message{
			{Source: "Alt+Left", Comment: "Go Back", Translation: "Alt+שמאלה", Locations: loc()},
			{Source: "Open", Translation: "פתיחה", Locations: loc()},
			{Source: "Open", Translation: "לפתוח", Locations: loc()},
			{Source: "Alt+Left", Translation: "Alt+שמאלה", Locations: loc()},
		}},
		{Name: "Fm::FileDialog", Messages: []*catalog.Message{
			{Source: "Alt+Left", Comment: "Go Back", Translation: "Alt+שמאלה", Locations: loc()},
			{Source: "Open", Translation: "פתיחה", Type: catalog.Obsolete},
		}},
	}}

	dups := Check(c, Options{}).ByRule(RuleDuplicateKey)

	require.Len(t, dups, 2)
	assert.Equal(t, catalog.Key{Context: "Fm::FileDialog", Source: "Alt+Left", Comment: "Go Back"}, dups[0].Key)
	assert.Equal(t, Warning, dups[0].Severity)
	assert.Equal(t, catalog.Key{Context: "Fm::FileDialog", Source: "Open"}, dups[1].Key)
	assert.Equal(t, Error, dups[1].Severity)
}

func TestCheckMissingLocation(t *testing.T) {
	c := &catalog.Catalog{Contexts: []*catalog.Context{
		{Name: "QObject", Messages: []*catalog.Message{
			{Source: "Error", Translation: "שגיאה"},
			{Source: "Generated", Translation: "נוצר"},
			{Source: "Old", Translation: "ישן", Type: catalog.Vanished},
		}},
	}}

	report := Check(c, Options{ExemptLocations: []catalog.Key{{Context: "QObject", Source: "Generated"}}})

	missing := report.ByRule(RuleMissingLocation)
	require.Len(t, missing, 1)
	assert.Equal(t, "Error", missing[0].Key.Source)
	assert.False(t, report.HasErrors())
}

func TestCheckPlaceholdersAndMarkup(t *testing.T) {
	c := &catalog.Catalog{Contexts: []*catalog.Context{
		{Name: "Fm::FileOperation", Messages: []*catalog.Message{
			{Source: "Copy %1 to %2", Translation: "העתקת %2 אל %1", Locations: loc()},
			{Source: "Delete '%s'?", Translation: "למחוק?", Locations: loc()},
			{Source: "<b>Warning</b>", Translation: "אזהרה", Locations: loc()},
			{Source: "%n file(s)", Numerus: true, NumerusForms: []string{"קובץ אחד", "%n קבצים"}, Locations: loc()},
			{Source: "Retry %1", Translation: "ניסיון", Type: catalog.Unfinished, Locations: loc()},
			{Source: "%1s remaining", Translation: "נותרו %1 שניות", Locations: loc()},
			{Source: "Size: %1", Translation: "גודל הקובץ: %1" + catalog.VariantSeparator + "%1", Locations: loc()},
			{Source: "Free: %1", Translation: "מקום פנוי: %1" + catalog.VariantSeparator + "פנוי", Locations: loc()},
		}},
	}}

	report := Check(c, Options{})

	mismatches := report.ByRule(RulePlaceholderMismatch)
	require.Len(t, mismatches, 3)
	assert.Equal(t, "Delete '%s'?", mismatches[0].Key.Source)
	assert.Equal(t, "source has [%s], translation has []", mismatches[0].Message)
	assert.Equal(t, "Retry %1", mismatches[1].Key.Source)
	assert.Equal(t, "Free: %1", mismatches[2].Key.Source)
	assert.Equal(t, "source has [%1], translation has []", mismatches[2].Message)

	markup := report.ByRule(RuleMarkupMismatch)
	require.Len(t, markup, 1)
	assert.Equal(t, Warning, markup[0].Severity)

	assert.Len(t, report.ByRule(RuleUnfinished), 1)
	assert.True(t, report.HasErrors())
	assert.Equal(t, 3, report.Count(Error))
}

func TestFindingString(t *testing.T) {
	f := Finding{
		Rule:     RuleDuplicateKey,
		Severity: Error,
		Key:      catalog.Key{Context: "Fm::FileDialog", Source: "Alt+Left", Comment: "Go Back"},
		Message:  "2 entries with different translations, add a disambiguation comment",
	}
	assert.Equal(t, "error [duplicate-key] Fm::FileDialog / Alt+Left (Go Back): 2 entries with different translations, add a disambiguation comment", f.String())
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"info": Info, "WARN": Warning, "warning": Warning, "Error": Error} {
		got, err := ParseSeverity(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSeverity("fatal")
	assert.Error(t, err)
}
