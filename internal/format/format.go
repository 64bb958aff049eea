package format

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ts-catalog/internal/catalog"
)

var (
	// ErrMalformed is returned when a document cannot be decoded.
	ErrMalformed = errors.New("malformed catalog")
	// ErrUnsupported is returned by codecs that only go one way.
	ErrUnsupported = errors.New("operation not supported by format")
	// ErrUnknownFormat is returned when no codec matches a name or path.
	ErrUnknownFormat = errors.New("unknown catalog format")
)

// Codec reads and writes catalogs in one file format.
type Codec interface {
	// Name is the short format name used on the command line.
	Name() string
	// Extensions lists the file extensions handled, with leading dot.
	Extensions() []string
	// CanDecode reports whether Decode is implemented.
	CanDecode() bool
	Decode(r io.Reader) (*catalog.Catalog, error)
	Encode(w io.Writer, c *catalog.Catalog) error
}

// Registry holds codecs by name and extension.
type Registry struct {
	byName map[string]Codec
	byExt  map[string]Codec
	names  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Codec),
		byExt:  make(map[string]Codec),
	}
}

// Default returns a registry with every built-in codec.
func Default() *Registry {
	r := NewRegistry()
	r.Register(NewTS())
	r.Register(NewJSON())
	r.Register(NewPO())
	r.Register(NewCSV())
	return r
}

// Register adds c, replacing any codec with the same name or extension.
func (r *Registry) Register(c Codec) {
	if _, ok := r.byName[c.Name()]; !ok {
		r.names = append(r.names, c.Name())
	}
	r.byName[c.Name()] = c
	for _, ext := range c.Extensions() {
		r.byExt[strings.ToLower(ext)] = c
	}
}

// Names lists registered format names in registration order.
func (r *Registry) Names() []string { return r.names }

// ByName returns the codec registered under name.
func (r *Registry) ByName(name string) (Codec, error) {
	c, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return c, nil
}

// ForPath returns the codec matching the extension of path.
func (r *Registry) ForPath(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return c, nil
}

// DecodeFile reads the catalog at path with the codec matching its extension.
func (r *Registry) DecodeFile(path string) (*catalog.Catalog, error) {
	codec, err := r.ForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return c, nil
}

// EncodeFile writes c to path using codec.
func EncodeFile(path string, codec Codec, c *catalog.Catalog) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := codec.Encode(f, c); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", codec.Name(), err)
	}
	return f.Close()
}
