package store

import (
	"context"
	"fmt"
	"strings"

	"ts-catalog/internal/cache"
	"ts-catalog/internal/catalog"

	"golang.org/x/text/language"
)

// Catalogs is the part of Store that Source reads from.
type Catalogs interface {
	ListCatalogs(ctx context.Context) ([]CatalogInfo, error)
	LoadCatalog(ctx context.Context, name string) (*catalog.Catalog, error)
}

// Source serves stored catalogs to a translator. Catalog names follow the
// file naming scheme, so domain filters by the "<domain>_" prefix.
type Source struct {
	catalogs Catalogs
	cache    *cache.CatalogCache
	domain   string
}

// NewSource creates a Source over catalogs.
func NewSource(catalogs Catalogs, domain string) *Source {
	return &Source{
		catalogs: catalogs,
		cache:    cache.NewCatalogCache(catalogs),
		domain:   domain,
	}
}

type named struct {
	name string
	tag  language.Tag
}

func (s *Source) list(ctx context.Context) ([]named, error) {
	infos, err := s.catalogs.ListCatalogs(ctx)
	if err != nil {
		return nil, err
	}
	var out []named
	seen := make(map[language.Tag]bool)
	for _, info := range infos {
		if s.domain != "" && !strings.HasPrefix(info.Name, s.domain+"_") {
			continue
		}
		tag, err := language.Parse(strings.ReplaceAll(info.Language, "_", "-"))
		if err != nil || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, named{name: info.Name, tag: tag})
	}
	return out, nil
}

// Languages lists the languages of the stored catalogs.
func (s *Source) Languages(ctx context.Context) ([]language.Tag, error) {
	list, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	tags := make([]language.Tag, len(list))
	for i, n := range list {
		tags[i] = n.tag
	}
	return tags, nil
}

// Load returns the stored catalog for tag.
func (s *Source) Load(ctx context.Context, tag language.Tag) (*catalog.Catalog, error) {
	list, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range list {
		if n.tag == tag {
			return s.cache.Get(ctx, n.name)
		}
	}
	return nil, fmt.Errorf("%w: language %s", ErrNotFound, tag)
}
