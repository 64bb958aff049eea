package format

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ts-catalog/internal/catalog"
)

// TS reads and writes Qt Linguist translation sources.
type TS struct{}

func NewTS() *TS { return &TS{} }

func (p *TS) Name() string { return "ts" }

func (p *TS) Extensions() []string { return []string{".ts"} }

func (p *TS) CanDecode() bool { return true }

func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformed, err)
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Decode parses a TS document. Elements the model does not know about are
// skipped.
func (p *TS) Decode(r io.Reader) (*catalog.Catalog, error) {
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: missing <TS> element", ErrMalformed)
		}
		if err != nil {
			return nil, malformed(err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "TS" {
			return nil, fmt.Errorf("%w: unexpected root <%s>", ErrMalformed, start.Name.Local)
		}

		c := &catalog.Catalog{
			Version:        attr(start, "version"),
			Language:       attr(start, "language"),
			SourceLanguage: attr(start, "sourcelanguage"),
		}
		td := &tsDecoder{d: d, currentLine: make(map[string]int)}
		if err := td.decodeDocument(c); err != nil {
			return nil, err
		}
		c.RelativeLocations = td.relative && !td.absolute
		return c, nil
	}
}

// tsDecoder carries the location state lupdate's relative layout depends
// on: the file of the previous message and the last line seen per file.
type tsDecoder struct {
	d           *xml.Decoder
	currentFile string
	currentLine map[string]int
	relative    bool
	absolute    bool
}

func (td *tsDecoder) decodeDocument(c *catalog.Catalog) error {
	d := td.d
	for {
		tok, err := d.Token()
		if err != nil {
			return malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "context" {
				if err := d.Skip(); err != nil {
					return malformed(err)
				}
				continue
			}
			ctx, err := td.decodeContext()
			if err != nil {
				return err
			}
			c.Contexts = append(c.Contexts, ctx)
		case xml.EndElement:
			return nil
		}
	}
}

func (td *tsDecoder) decodeContext() (*catalog.Context, error) {
	d := td.d
	ctx := &catalog.Context{}
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				if ctx.Name, err = readText(d); err != nil {
					return nil, err
				}
			case "comment":
				if ctx.Comment, err = readText(d); err != nil {
					return nil, err
				}
			case "message":
				m, err := td.decodeMessage(t)
				if err != nil {
					return nil, fmt.Errorf("context %q: %w", ctx.Name, err)
				}
				ctx.Messages = append(ctx.Messages, m)
			default:
				if err := d.Skip(); err != nil {
					return nil, malformed(err)
				}
			}
		case xml.EndElement:
			return ctx, nil
		}
	}
}

func (td *tsDecoder) decodeMessage(start xml.StartElement) (*catalog.Message, error) {
	d := td.d
	m := &catalog.Message{
		ID:      attr(start, "id"),
		Numerus: attr(start, "numerus") == "yes",
	}
	messageFile := td.currentFile
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var target *string
			switch t.Name.Local {
			case "location":
				loc, err := td.decodeLocation(t, &messageFile, len(m.Locations) == 0)
				if err != nil {
					return nil, err
				}
				m.Locations = append(m.Locations, loc)
				if err := d.Skip(); err != nil {
					return nil, malformed(err)
				}
				continue
			case "translation":
				m.Type = catalog.TranslationType(attr(t, "type"))
				if m.Numerus {
					if m.NumerusForms, err = readNumerusForms(d); err != nil {
						return nil, err
					}
				} else if m.Translation, err = readVariants(d, t); err != nil {
					return nil, err
				}
				continue
			case "source":
				target = &m.Source
			case "oldsource":
				target = &m.OldSource
			case "comment":
				target = &m.Comment
			case "oldcomment":
				target = &m.OldComment
			case "extracomment":
				target = &m.ExtraComment
			case "translatorcomment":
				target = &m.TranslatorComment
			default:
				if err := d.Skip(); err != nil {
					return nil, malformed(err)
				}
				continue
			}
			if *target, err = readText(d); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return m, nil
		}
	}
}

// decodeLocation resolves a <location>. A missing filename repeats the
// previous one of the message, and a signed line is an offset from the
// last line recorded for that file.
func (td *tsDecoder) decodeLocation(el xml.StartElement, messageFile *string, first bool) (catalog.Location, error) {
	file := attr(el, "filename")
	if file == "" {
		file = *messageFile
		td.relative = true
	} else {
		if first {
			td.currentFile = file
		}
		*messageFile = file
	}

	loc := catalog.Location{File: file}
	line := attr(el, "line")
	if line == "" {
		return loc, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return loc, fmt.Errorf("%w: location line %q", ErrMalformed, line)
	}
	if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
		td.currentLine[file] += n
		n = td.currentLine[file]
		td.relative = true
	} else {
		td.absolute = true
	}
	loc.Line = n
	return loc, nil
}

// readVariants reads the content of a <translation> or <numerusform>,
// joining <lengthvariant> children with catalog.VariantSeparator when the
// element is marked variants="yes".
func readVariants(d *xml.Decoder, start xml.StartElement) (string, error) {
	if attr(start, "variants") != "yes" {
		return readText(d)
	}
	var variants []string
	for {
		tok, err := d.Token()
		if err != nil {
			return "", malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "lengthvariant" {
				return "", fmt.Errorf("%w: unexpected <%s> in variants", ErrMalformed, t.Name.Local)
			}
			text, err := readText(d)
			if err != nil {
				return "", err
			}
			variants = append(variants, text)
		case xml.EndElement:
			return strings.Join(variants, catalog.VariantSeparator), nil
		}
	}
}

// readText collects character data up to the end of the current element,
// expanding <byte value="..."/> escapes.
func readText(d *xml.Decoder) (string, error) {
	var sb strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return "", malformed(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if t.Name.Local != "byte" {
				return "", fmt.Errorf("%w: unexpected <%s> in text", ErrMalformed, t.Name.Local)
			}
			r, err := parseByteValue(attr(t, "value"))
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
			if err := d.Skip(); err != nil {
				return "", malformed(err)
			}
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}

func readNumerusForms(d *xml.Decoder) ([]string, error) {
	var forms []string
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "numerusform" {
				if err := d.Skip(); err != nil {
					return nil, malformed(err)
				}
				continue
			}
			form, err := readVariants(d, t)
			if err != nil {
				return nil, err
			}
			forms = append(forms, form)
		case xml.EndElement:
			return forms, nil
		}
	}
}

func parseByteValue(v string) (rune, error) {
	var (
		n   uint64
		err error
	)
	if hex, ok := strings.CutPrefix(v, "x"); ok {
		n, err = strconv.ParseUint(hex, 16, 32)
	} else {
		n, err = strconv.ParseUint(v, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: byte value %q", ErrMalformed, v)
	}
	return rune(n), nil
}

// Encode writes c in the layout lupdate produces, so that decoding and
// re-encoding an lupdate file reproduces it byte for byte.
func (p *TS) Encode(w io.Writer, c *catalog.Catalog) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<!DOCTYPE TS>\n<TS")
	writeAttr(bw, "version", c.Version)
	writeAttr(bw, "language", c.Language)
	writeAttr(bw, "sourcelanguage", c.SourceLanguage)
	bw.WriteString(">\n")

	te := &tsEncoder{bw: bw, relative: c.RelativeLocations, currentLine: make(map[string]int)}
	for _, ctx := range c.Contexts {
		bw.WriteString("<context>\n")
		writeElement(bw, 4, "name", ctx.Name, true)
		writeElement(bw, 4, "comment", ctx.Comment, false)
		for _, m := range ctx.Messages {
			te.encodeMessage(m)
		}
		bw.WriteString("</context>\n")
	}
	bw.WriteString("</TS>\n")

	return bw.Flush()
}

// tsEncoder mirrors tsDecoder so relative locations are written as the
// same offsets they were read from.
type tsEncoder struct {
	bw          *bufio.Writer
	relative    bool
	currentFile string
	currentLine map[string]int
}

func (te *tsEncoder) encodeMessage(m *catalog.Message) {
	bw := te.bw
	bw.WriteString("    <message")
	writeAttr(bw, "id", m.ID)
	if m.Numerus {
		writeAttr(bw, "numerus", "yes")
	}
	bw.WriteString(">\n")

	messageFile := te.currentFile
	for i, loc := range m.Locations {
		bw.WriteString("        <location")
		if !te.relative {
			writeAttr(bw, "filename", loc.File)
			if loc.Line > 0 {
				writeAttr(bw, "line", strconv.Itoa(loc.Line))
			}
			bw.WriteString("/>\n")
			continue
		}
		if loc.File != messageFile {
			writeAttr(bw, "filename", loc.File)
			messageFile = loc.File
			if i == 0 {
				te.currentFile = loc.File
			}
		}
		if loc.Line != 0 {
			writeAttr(bw, "line", fmt.Sprintf("%+d", loc.Line-te.currentLine[loc.File]))
			te.currentLine[loc.File] = loc.Line
		}
		bw.WriteString("/>\n")
	}
	writeElement(bw, 8, "source", m.Source, true)
	writeElement(bw, 8, "oldsource", m.OldSource, false)
	writeElement(bw, 8, "comment", m.Comment, false)
	writeElement(bw, 8, "oldcomment", m.OldComment, false)
	writeElement(bw, 8, "extracomment", m.ExtraComment, false)
	writeElement(bw, 8, "translatorcomment", m.TranslatorComment, false)

	bw.WriteString("        <translation")
	writeAttr(bw, "type", string(m.Type))
	if m.Numerus {
		bw.WriteString(">")
		for _, form := range m.NumerusForms {
			bw.WriteString("\n            <numerusform")
			writeVariants(bw, 12, form)
			bw.WriteString("</numerusform>")
		}
		bw.WriteString("\n        ")
	} else {
		writeVariants(bw, 8, m.Translation)
	}
	bw.WriteString("</translation>\n")

	bw.WriteString("    </message>\n")
}

// writeVariants closes the open start tag and writes text, splitting it
// into <lengthvariant> children when it holds more than one variant.
// indent is that of the enclosing element.
func writeVariants(bw *bufio.Writer, indent int, text string) {
	if !strings.Contains(text, catalog.VariantSeparator) {
		bw.WriteString(">")
		bw.WriteString(escape(text, false))
		return
	}
	bw.WriteString(` variants="yes">`)
	pad := strings.Repeat(" ", indent)
	for _, v := range catalog.Variants(text) {
		fmt.Fprintf(bw, "\n%s    <lengthvariant>%s</lengthvariant>", pad, escape(v, false))
	}
	bw.WriteString("\n" + pad)
}

func writeAttr(bw *bufio.Writer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(bw, " %s=\"%s\"", name, escape(value, true))
}

func writeElement(bw *bufio.Writer, indent int, name, text string, always bool) {
	if text == "" && !always {
		return
	}
	fmt.Fprintf(bw, "%s<%s>%s</%s>\n", strings.Repeat(" ", indent), name, escape(text, false), name)
}

// escape applies lupdate's entity set. Control characters become
// <byte/> elements in text and character references in attributes.
func escape(s string, inAttr bool) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		case '\'':
			sb.WriteString("&apos;")
		default:
			switch {
			case r >= 0x20 || (!inAttr && (r == '\n' || r == '\t')):
				sb.WriteRune(r)
			case inAttr:
				fmt.Fprintf(&sb, "&#x%x;", r)
			default:
				fmt.Fprintf(&sb, "<byte value=\"x%x\"/>", r)
			}
		}
	}
	return sb.String()
}
