package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ts-catalog/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	mu    sync.Mutex
	calls map[string]int
	data  map[string]*catalog.Catalog
}

var errMissing = errors.New("missing")

func (f *fakeLoader) LoadCatalog(_ context.Context, name string) (*catalog.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	c, ok := f.data[name]
	if !ok {
		return nil, errMissing
	}
	return c, nil
}

func newFake() *fakeLoader {
	return &fakeLoader{
		calls: make(map[string]int),
		data: map[string]*catalog.Catalog{
			"libfm-qt_he": {Language: "he"},
			"libfm-qt_de": {Language: "de"},
		},
	}
}

func TestGetLoadsOnce(t *testing.T) {
	loader := newFake()
	c := NewCatalogCache(loader)

	for range 3 {
		got, err := c.Get(context.Background(), "libfm-qt_he")
		require.NoError(t, err)
		assert.Equal(t, "he", got.Language)
	}
	assert.Equal(t, 1, loader.calls["libfm-qt_he"])
	assert.Equal(t, 1, c.Len())
}

func TestGetMissIsNotCached(t *testing.T) {
	loader := newFake()
	c := NewCatalogCache(loader)

	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, errMissing)
	_, err = c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, errMissing)
	assert.Equal(t, 2, loader.calls["nope"])
	assert.Zero(t, c.Len())
}

func TestSetAndInvalidate(t *testing.T) {
	loader := newFake()
	c := NewCatalogCache(loader)

	c.Set("libfm-qt_he", &catalog.Catalog{Language: "he-IL"})
	got, err := c.Get(context.Background(), "libfm-qt_he")
	require.NoError(t, err)
	assert.Equal(t, "he-IL", got.Language)
	assert.Zero(t, loader.calls["libfm-qt_he"])

	c.Invalidate("libfm-qt_he")
	got, err = c.Get(context.Background(), "libfm-qt_he")
	require.NoError(t, err)
	assert.Equal(t, "he", got.Language)
}

func TestPreload(t *testing.T) {
	c := NewCatalogCache(newFake())

	require.NoError(t, c.Preload(context.Background(), []string{"libfm-qt_he", "libfm-qt_de"}))
	assert.Equal(t, 2, c.Len())

	assert.Error(t, c.Preload(context.Background(), []string{"nope"}))
}
