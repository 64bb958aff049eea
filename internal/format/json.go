package format

import (
	"encoding/json"
	"fmt"
	"io"

	"ts-catalog/internal/catalog"
)

// JSON is a lossless JSON rendition of the catalog model.
type JSON struct{}

func NewJSON() *JSON { return &JSON{} }

func (p *JSON) Name() string { return "json" }

func (p *JSON) Extensions() []string { return []string{".json"} }

func (p *JSON) CanDecode() bool { return true }

type jsonCatalog struct {
	Version        string        `json:"version,omitempty"`
	Language       string        `json:"language,omitempty"`
	SourceLanguage string        `json:"sourcelanguage,omitempty"`
	Relative       bool          `json:"relativelocations,omitempty"`
	Contexts       []jsonContext `json:"contexts"`
}

type jsonContext struct {
	Name     string        `json:"name"`
	Comment  string        `json:"comment,omitempty"`
	Messages []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID                string         `json:"id,omitempty"`
	Locations         []jsonLocation `json:"locations,omitempty"`
	Source            string         `json:"source"`
	OldSource         string         `json:"oldsource,omitempty"`
	Comment           string         `json:"comment,omitempty"`
	OldComment        string         `json:"oldcomment,omitempty"`
	ExtraComment      string         `json:"extracomment,omitempty"`
	TranslatorComment string         `json:"translatorcomment,omitempty"`
	Translation       string         `json:"translation"`
	Numerus           bool           `json:"numerus,omitempty"`
	NumerusForms      []string       `json:"numerusforms,omitempty"`
	Type              string         `json:"type,omitempty"`
}

type jsonLocation struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

func (p *JSON) Decode(r io.Reader) (*catalog.Catalog, error) {
	var doc jsonCatalog
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, malformed(err)
	}

	c := &catalog.Catalog{
		Version:           doc.Version,
		Language:          doc.Language,
		SourceLanguage:    doc.SourceLanguage,
		RelativeLocations: doc.Relative,
	}
	for _, jc := range doc.Contexts {
		ctx := &catalog.Context{Name: jc.Name, Comment: jc.Comment}
		for _, jm := range jc.Messages {
			m := &catalog.Message{
				ID:                jm.ID,
				Source:            jm.Source,
				OldSource:         jm.OldSource,
				Comment:           jm.Comment,
				OldComment:        jm.OldComment,
				ExtraComment:      jm.ExtraComment,
				TranslatorComment: jm.TranslatorComment,
				Translation:       jm.Translation,
				Numerus:           jm.Numerus,
				NumerusForms:      jm.NumerusForms,
				Type:              catalog.TranslationType(jm.Type),
			}
			switch m.Type {
			case catalog.Finished, catalog.Unfinished, catalog.Vanished, catalog.Obsolete:
			default:
				return nil, fmt.Errorf("%w: translation type %q", ErrMalformed, jm.Type)
			}
			for _, jl := range jm.Locations {
				m.Locations = append(m.Locations, catalog.Location{File: jl.File, Line: jl.Line})
			}
			ctx.Messages = append(ctx.Messages, m)
		}
		c.Contexts = append(c.Contexts, ctx)
	}
	return c, nil
}

func (p *JSON) Encode(w io.Writer, c *catalog.Catalog) error {
	doc := jsonCatalog{
		Version:        c.Version,
		Language:       c.Language,
		SourceLanguage: c.SourceLanguage,
		Relative:       c.RelativeLocations,
		Contexts:       make([]jsonContext, 0, len(c.Contexts)),
	}
	for _, ctx := range c.Contexts {
		jc := jsonContext{Name: ctx.Name, Comment: ctx.Comment, Messages: make([]jsonMessage, 0, len(ctx.Messages))}
		for _, m := range ctx.Messages {
			jm := jsonMessage{
				ID:                m.ID,
				Source:            m.Source,
				OldSource:         m.OldSource,
				Comment:           m.Comment,
				OldComment:        m.OldComment,
				ExtraComment:      m.ExtraComment,
				TranslatorComment: m.TranslatorComment,
				Translation:       m.Translation,
				Numerus:           m.Numerus,
				NumerusForms:      m.NumerusForms,
				Type:              string(m.Type),
			}
			for _, loc := range m.Locations {
				jm.Locations = append(jm.Locations, jsonLocation{File: loc.File, Line: loc.Line})
			}
			jc.Messages = append(jc.Messages, jm)
		}
		doc.Contexts = append(doc.Contexts, jc)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
