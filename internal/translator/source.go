package translator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/format"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// Source provides catalogs by language.
type Source interface {
	Languages(ctx context.Context) ([]language.Tag, error)
	Load(ctx context.Context, tag language.Tag) (*catalog.Catalog, error)
}

// DirSource serves catalogs stored as <domain>_<lang>.<ext> files in one
// directory, the layout Qt applications install translations in.
type DirSource struct {
	dir      string
	domain   string
	registry *format.Registry
}

// NewDirSource reads catalogs from dir. An empty domain accepts any prefix.
func NewDirSource(dir, domain string, registry *format.Registry) *DirSource {
	return &DirSource{dir: dir, domain: domain, registry: registry}
}

// LanguageFromFilename extracts the language tag from a catalog file name
// such as libfm-qt_he.ts or app_pt_BR.json.
func LanguageFromFilename(name, domain string) (language.Tag, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var lang string
	if domain != "" {
		rest, ok := strings.CutPrefix(stem, domain+"_")
		if !ok {
			return language.Und, false
		}
		lang = rest
	} else {
		_, rest, ok := strings.Cut(stem, "_")
		if !ok {
			return language.Und, false
		}
		lang = rest
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

func (s *DirSource) files() (map[language.Tag]string, []language.Tag, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read catalog directory: %w", err)
	}

	paths := make(map[language.Tag]string)
	var tags []language.Tag
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		codec, err := s.registry.ForPath(e.Name())
		if err != nil || !codec.CanDecode() {
			continue
		}
		tag, ok := LanguageFromFilename(e.Name(), s.domain)
		if !ok {
			continue
		}
		if _, seen := paths[tag]; seen {
			log.Debug().Str("file", e.Name()).Str("language", tag.String()).Msg("Skipping duplicate language file")
			continue
		}
		paths[tag] = filepath.Join(s.dir, e.Name())
		tags = append(tags, tag)
	}
	return paths, tags, nil
}

// Languages lists the languages with a catalog file.
func (s *DirSource) Languages(_ context.Context) ([]language.Tag, error) {
	_, tags, err := s.files()
	return tags, err
}

// Load decodes the catalog for tag.
func (s *DirSource) Load(_ context.Context, tag language.Tag) (*catalog.Catalog, error) {
	paths, _, err := s.files()
	if err != nil {
		return nil, err
	}
	path, ok := paths[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCatalog, tag)
	}
	return s.registry.DecodeFile(path)
}
