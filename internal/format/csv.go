package format

import (
	"encoding/csv"
	"fmt"
	"io"

	"ts-catalog/internal/catalog"
)

// CSV exports one row per live message. The display column holds what a
// user would see: the translation, or the source when there is none.
type CSV struct {
	Comma rune
}

func NewCSV() *CSV { return &CSV{Comma: ','} }

func (p *CSV) Name() string { return "csv" }

func (p *CSV) Extensions() []string { return []string{".csv"} }

func (p *CSV) CanDecode() bool { return false }

func (p *CSV) Decode(io.Reader) (*catalog.Catalog, error) {
	return nil, fmt.Errorf("csv: %w", ErrUnsupported)
}

func (p *CSV) Encode(w io.Writer, c *catalog.Catalog) error {
	cw := csv.NewWriter(w)
	if p.Comma != 0 {
		cw.Comma = p.Comma
	}

	if err := cw.Write([]string{"context", "source", "comment", "translation", "display"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	idx := catalog.NewIndex(c)
	for ctx, m := range c.Messages() {
		if m.Type.Retired() {
			continue
		}
		row := []string{
			ctx.Name,
			m.Source,
			m.Comment,
			m.Text(),
			idx.Translate(ctx.Name, m.Source, m.Comment),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
