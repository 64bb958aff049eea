package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"ts-catalog/internal/format"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="he">
<context>
    <name>Fm::FileOperation</name>
    <message>
        <location filename="../fileoperation.cpp" line="309"/>
        <source>Error</source>
        <translation>שגיאה</translation>
    </message>
</context>
</TS>
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWalkFindsDecodableCatalogs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "libfm-qt_he.ts"), minimalTS)
	writeFile(t, filepath.Join(root, "sub", "app_de.json"), `{"contexts":[]}`)
	writeFile(t, filepath.Join(root, "export.po"), "msgid \"\"\n")
	writeFile(t, filepath.Join(root, "README.md"), "docs")
	writeFile(t, filepath.Join(root, ".git", "hidden_he.ts"), minimalTS)

	w := NewWalker(format.Default())
	entries, err := w.Walk(root)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(root, "libfm-qt_he.ts"), entries[0].Path)
	assert.Equal(t, ".ts", entries[0].Ext)
	assert.Equal(t, filepath.Join(root, "sub", "app_de.json"), entries[1].Path)
	assert.Equal(t, "json", entries[1].Codec.Name())
}

func TestWalkSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libfm-qt_he.ts")
	writeFile(t, path, minimalTS)

	w := NewWalker(format.Default())
	entries, err := w.Walk(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	c, err := w.Decode(entries[0])
	require.NoError(t, err)
	assert.Equal(t, "he", c.Language)
	assert.Equal(t, "שגיאה", c.Contexts[0].Messages[0].Translation)
}

func TestWalkRejectsUnknownFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, path, "x")

	_, err := NewWalker(format.Default()).Walk(path)
	assert.ErrorIs(t, err, format.ErrUnknownFormat)

	_, err = NewWalker(format.Default()).Walk(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
