package format

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"ts-catalog/internal/catalog"

	"github.com/chai2010/gettext-go/po"
	"github.com/samber/lo"
)

// PO exports catalogs as gettext PO files. Disambiguation comments are
// folded into msgctxt as "Context|comment". Retired messages are written
// as "#~" obsolete entries after the live ones.
type PO struct{}

func NewPO() *PO { return &PO{} }

func (p *PO) Name() string { return "po" }

func (p *PO) Extensions() []string { return []string{".po"} }

func (p *PO) CanDecode() bool { return false }

func (p *PO) Decode(io.Reader) (*catalog.Catalog, error) {
	return nil, fmt.Errorf("po: %w", ErrUnsupported)
}

func (p *PO) Encode(w io.Writer, c *catalog.Catalog) error {
	file := &po.File{
		MimeHeader: po.Header{
			Language:                c.Language,
			MimeVersion:             "1.0",
			ContentType:             "text/plain; charset=UTF-8",
			ContentTransferEncoding: "8bit",
			XGenerator:              "tscatalog",
			UnknowFields: map[string]string{
				"X-Qt-Contexts":     "true",
				"X-Source-Language": c.SourceLanguage,
			},
		},
	}

	var obsolete []po.Message
	for ctx, m := range c.Messages() {
		if m.Type.Retired() {
			obsolete = append(obsolete, poMessage(ctx.Name, m))
			continue
		}
		file.Messages = append(file.Messages, poMessage(ctx.Name, m))
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(file.String())
	for _, msg := range obsolete {
		bw.WriteString("\n")
		for _, line := range strings.SplitAfter(strings.TrimSuffix(msg.String(), "\n"), "\n") {
			if strings.HasPrefix(line, "#") {
				bw.WriteString(line)
				continue
			}
			bw.WriteString("#~ " + line)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func poMessage(context string, m *catalog.Message) po.Message {
	msg := po.Message{
		Comment: po.Comment{
			TranslatorComment: m.TranslatorComment,
			ExtractedComment:  m.ExtraComment,
		},
		MsgContext: context,
		MsgId:      m.Source,
	}
	if m.Comment != "" {
		msg.MsgContext += "|" + m.Comment
	}
	for _, loc := range m.Locations {
		msg.ReferenceFile = append(msg.ReferenceFile, loc.File)
		msg.ReferenceLine = append(msg.ReferenceLine, loc.Line)
	}
	if m.Type == catalog.Unfinished && m.Translated() {
		msg.Flags = append(msg.Flags, "fuzzy")
	}

	if m.Numerus {
		msg.MsgIdPlural = m.Source
		msg.MsgStrPlural = lo.Map(m.NumerusForms, func(f string, _ int) string { return firstVariant(f) })
		if len(msg.MsgStrPlural) == 0 {
			msg.MsgStrPlural = []string{""}
		}
		return msg
	}
	msg.MsgStr = firstVariant(m.Translation)
	return msg
}

// firstVariant keeps the longest length variant; PO has no equivalent.
func firstVariant(text string) string {
	return catalog.Variants(text)[0]
}
