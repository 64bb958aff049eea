package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "format", "testdata", "libfm-qt_he.ts"))
	require.NoError(t, err)
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLookup(t *testing.T) {
	path := fixture(t)

	out, err := run(t, "lookup", path, "Fm::FileOperation", "Error")
	require.NoError(t, err)
	assert.Equal(t, "שגיאה\n", out)

	out, err = run(t, "lookup", path, "Fm::FileOperation", "Errorr")
	require.NoError(t, err)
	assert.Equal(t, "Errorr\n", out)

	out, err = run(t, "lookup", path, "Fm::FileDialog", "Alt+Left", "--comment", "Go Back")
	require.NoError(t, err)
	assert.Equal(t, "Alt+שמאלה\n", out)

	out, err = run(t, "lookup", path, "Fm::FileDialog", "F5", "--comment", "Reload")
	require.NoError(t, err)
	assert.Equal(t, "F5\n", out)

	_, err = run(t, "lookup", filepath.Join(t.TempDir(), "missing.ts"), "a", "b")
	assert.Error(t, err)
}

func TestConvertRoundTrip(t *testing.T) {
	path := fixture(t)
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "he.json")
	tsPath := filepath.Join(dir, "out", "libfm-qt_he.ts")

	_, err := run(t, "convert", path, jsonPath)
	require.NoError(t, err)
	_, err = run(t, "convert", jsonPath, tsPath)
	require.NoError(t, err)

	want, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := os.ReadFile(tsPath)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	poPath := filepath.Join(dir, "he.txt")
	_, err = run(t, "convert", path, poPath, "--format", "po")
	require.NoError(t, err)
	po, err := os.ReadFile(poPath)
	require.NoError(t, err)
	assert.Contains(t, string(po), `msgctxt "Fm::FileOperation"`)

	_, err = run(t, "convert", path, filepath.Join(dir, "he.xliff"))
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	out, err := run(t, "check", fixture(t))
	require.NoError(t, err)
	assert.Contains(t, out, "0 errors, 0 warnings, 8 info")

	bad := filepath.Join(t.TempDir(), "bad_he.ts")
	require.NoError(t, os.WriteFile(bad, []byte(`<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="he">
<context>
    <name>Fm::DirListJob</name>
    <message>
        <location filename="../core/dirlistjob.cpp" line="46"/>
        <source>The specified directory &apos;%1&apos; is not valid</source>
        <translation>התיקייה שצוינה אינה תקנית</translation>
    </message>
</context>
</TS>
`), 0644))

	out, err = run(t, "check", bad)
	assert.Error(t, err)
	assert.Contains(t, out, "placeholder-mismatch")

	_, err = run(t, "check", fixture(t), "--min-severity", "loud")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	out, err := run(t, "stats", fixture(t))
	require.NoError(t, err)
	assert.Contains(t, out, "libfm-qt_he")
	assert.Contains(t, out, "269")
	assert.Contains(t, out, "97.0%")
}

func TestTr(t *testing.T) {
	data, err := os.ReadFile(fixture(t))
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "libfm-qt_he.ts"), data, 0644))

	out, err := run(t, "tr", "--lang", "he", "--dir", dir, "--domain", "libfm-qt",
		"Fm::RenameDialog", "Type: %1\nModified: %2", "text/plain", "today")
	require.NoError(t, err)
	assert.Equal(t, "סוג: text/plain\nשינוי: today\n", out)

	out, err = run(t, "tr", "--lang", "he", "--dir", dir, "--comment", "Go Back", "Fm::FileDialog", "Alt+Left")
	require.NoError(t, err)
	assert.Equal(t, "Alt+שמאלה\n", out)

	out, err = run(t, "tr", "--lang", "fr", "--dir", dir, "Fm::FileOperation", "Error")
	require.NoError(t, err)
	assert.Equal(t, "Error\n", out)
}

func TestCatalogName(t *testing.T) {
	assert.Equal(t, "libfm-qt_he", catalogName("/srv/translations/libfm-qt_he.ts"))
	assert.Equal(t, "app", catalogName("app.json"))
}
