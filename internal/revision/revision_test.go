package revision

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/format"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileOpCatalog(msgs ...*catalog.Message) *catalog.Catalog {
	return &catalog.Catalog{
		Language: "he",
		Contexts: []*catalog.Context{{Name: "Fm::FileOperation", Messages: msgs}},
	}
}

func loc(line int) []catalog.Location {
	return []catalog.Location{{File: "../fileoperation.cpp", Line: line}}
}

func TestDiff(t *testing.T) {
	base := fileOpCatalog(
		&catalog.Message{Source: "Error", Translation: "תקלה", Locations: loc(300)},
		&catalog.Message{Source: "Cancel", Translation: "ביטול", Locations: loc(310)},
		&catalog.Message{Source: "Skip", Translation: "דילוג", Locations: loc(320)},
		&catalog.Message{Source: "Old", Translation: "ישן", Type: catalog.Vanished},
	)
	target := fileOpCatalog(
		&catalog.Message{Source: "Error", Translation: "שגיאה", Locations: loc(309)},
		&catalog.Message{Source: "Cancel", Translation: "ביטול", Locations: loc(312)},
		&catalog.Message{Source: "Retry", Translation: "ניסיון חוזר", Locations: loc(330)},
		&catalog.Message{Source: "Skip", Translation: "דילוג", Locations: loc(320), Type: catalog.Obsolete},
	)

	changes := Diff(base, target)

	assert.Equal(t, []Change{
		{Kind: Retranslated, Key: catalog.Key{Context: "Fm::FileOperation", Source: "Error"}, Before: "תקלה", After: "שגיאה"},
		{Kind: Relocated, Key: catalog.Key{Context: "Fm::FileOperation", Source: "Cancel"},
			Before: "../fileoperation.cpp:310", After: "../fileoperation.cpp:312"},
		{Kind: Added, Key: catalog.Key{Context: "Fm::FileOperation", Source: "Retry"}, After: "ניסיון חוזר"},
		{Kind: Removed, Key: catalog.Key{Context: "Fm::FileOperation", Source: "Skip"}, Before: "דילוג"},
	}, changes)

	assert.Equal(t, map[Kind]int{Retranslated: 1, Relocated: 1, Added: 1, Removed: 1}, Summary(changes))
	assert.Empty(t, Diff(target, target))
}

func TestChangeString(t *testing.T) {
	c := Change{Kind: Added, Key: catalog.Key{Context: "Fm::FileDialog", Source: "F5", Comment: "Reload"}, After: "F5"}
	assert.Equal(t, `+ Fm::FileDialog / F5 (Reload): "F5"`, c.String())

	c = Change{Kind: Retranslated, Key: catalog.Key{Context: "C", Source: "S"}, Before: "a", After: "b"}
	assert.Equal(t, `~ C / S [retranslated]: "a" -> "b"`, c.String())
}

func TestFormatLocations(t *testing.T) {
	assert.Equal(t, "a.cpp:1, b.ui", FormatLocations([]catalog.Location{{File: "a.cpp", Line: 1}, {File: "b.ui"}}))
	assert.Equal(t, "", FormatLocations(nil))
}

const revisionTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="he">
<context>
    <name>Fm::FileOperation</name>
    <message>
        <location filename="../fileoperation.cpp" line="309"/>
        <source>Error</source>
        <translation>%s</translation>
    </message>
</context>
</TS>
`

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-c", "user.name=test", "-c", "user.email=test@example.com"}, args...)...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestGitLoader(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	repo := t.TempDir()
	git(t, repo, "init", "-q")

	path := filepath.Join("translations", "libfm-qt_he.ts")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "translations"), 0755))

	write := func(translation string) {
		content := []byte(fmt.Sprintf(revisionTS, translation))
		require.NoError(t, os.WriteFile(filepath.Join(repo, path), content, 0644))
	}

	write("תקלה")
	git(t, repo, "add", ".")
	git(t, repo, "commit", "-q", "-m", "first")
	git(t, repo, "tag", "v1")

	write("שגיאה")
	require.NoError(t, os.WriteFile(filepath.Join(repo, "translations", "notes.txt"), []byte("x"), 0644))
	git(t, repo, "add", ".")
	git(t, repo, "commit", "-q", "-m", "second")

	gl := NewGitLoader(format.Default())
	ctx := context.Background()

	c, err := gl.CatalogAt(ctx, repo, "v1", path)
	require.NoError(t, err)
	assert.Equal(t, "תקלה", c.Contexts[0].Messages[0].Translation)

	files, err := gl.ChangedCatalogs(ctx, repo, "v1", "HEAD", "translations")
	require.NoError(t, err)
	assert.Equal(t, []string{"translations/libfm-qt_he.ts"}, files)

	changes, err := gl.DiffFile(ctx, repo, "v1", "HEAD", path)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, Retranslated, changes[0].Kind)
	assert.Equal(t, "שגיאה", changes[0].After)

	_, err = gl.CatalogAt(ctx, repo, "v1", "translations/missing_he.ts")
	assert.Error(t, err)

	_, err = gl.DiffFile(ctx, repo, "no-such-rev", "HEAD", path)
	assert.ErrorIs(t, err, ErrBadRevision)
	_, err = gl.DiffFile(ctx, repo, "v1", "no-such-rev", path)
	assert.ErrorIs(t, err, ErrBadRevision)
}

func TestGitLoaderAddedAndDeletedCatalogs(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	repo := t.TempDir()
	git(t, repo, "init", "-q")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "translations"), 0755))

	he := filepath.Join("translations", "libfm-qt_he.ts")
	de := filepath.Join("translations", "libfm-qt_de.ts")

	require.NoError(t, os.WriteFile(filepath.Join(repo, he), []byte(fmt.Sprintf(revisionTS, "שגיאה")), 0644))
	git(t, repo, "add", ".")
	git(t, repo, "commit", "-q", "-m", "hebrew")

	git(t, repo, "rm", "-q", he)
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "translations"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, de), []byte(fmt.Sprintf(revisionTS, "Fehler")), 0644))
	git(t, repo, "add", ".")
	git(t, repo, "commit", "-q", "-m", "swap hebrew for german")

	gl := NewGitLoader(format.Default())
	ctx := context.Background()

	files, err := gl.ChangedCatalogs(ctx, repo, "HEAD~1", "HEAD", "translations")
	require.NoError(t, err)
	assert.Equal(t, []string{"translations/libfm-qt_de.ts", "translations/libfm-qt_he.ts"}, files)

	removed, err := gl.DiffFile(ctx, repo, "HEAD~1", "HEAD", he)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, Removed, removed[0].Kind)
	assert.Equal(t, "שגיאה", removed[0].Before)

	added, err := gl.DiffFile(ctx, repo, "HEAD~1", "HEAD", de)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, Added, added[0].Kind)
	assert.Equal(t, "Fehler", added[0].After)
}
