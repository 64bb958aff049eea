package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/format"

	"github.com/rs/zerolog/log"
)

// Walker finds catalog files and decodes them with the matching codec.
type Walker struct {
	registry *format.Registry
}

// NewWalker creates a Walker over the codecs in registry.
func NewWalker(registry *format.Registry) *Walker {
	return &Walker{registry: registry}
}

// FileEntry is a discovered catalog file.
type FileEntry struct {
	Path  string
	Ext   string
	Codec format.Codec
}

// Walk returns every decodable catalog under root, sorted by path. root
// may also name a single file.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		entry, ok := w.entryFor(root)
		if !ok {
			return nil, fmt.Errorf("%w: %s", format.ErrUnknownFormat, root)
		}
		return []FileEntry{entry}, nil
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if entry, ok := w.entryFor(path); ok {
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered catalogs")
	return entries, nil
}

func (w *Walker) entryFor(path string) (FileEntry, bool) {
	codec, err := w.registry.ForPath(path)
	if err != nil || !codec.CanDecode() {
		return FileEntry{}, false
	}
	return FileEntry{
		Path:  path,
		Ext:   strings.ToLower(filepath.Ext(path)),
		Codec: codec,
	}, true
}

// Decode reads and decodes a single entry.
func (w *Walker) Decode(entry FileEntry) (*catalog.Catalog, error) {
	f, err := os.Open(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := entry.Codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", entry.Path, err)
	}
	log.Debug().Str("file", entry.Path).Int("contexts", len(c.Contexts)).Msg("Decoded catalog")
	return c, nil
}
