package revision

import (
	"fmt"
	"slices"
	"strings"

	"ts-catalog/internal/catalog"

	"github.com/samber/lo"
)

// Kind classifies a change between two revisions of a catalog.
type Kind string

const (
	Added        Kind = "added"
	Removed      Kind = "removed"
	Retranslated Kind = "retranslated"
	Relocated    Kind = "relocated"
)

// Change is one message-level difference. For Relocated, Before and After
// hold the formatted location lists; otherwise they hold translations.
type Change struct {
	Kind   Kind
	Key    catalog.Key
	Before string
	After  string
}

func (c Change) String() string {
	key := c.Key.Context + " / " + c.Key.Source
	if c.Key.Comment != "" {
		key += " (" + c.Key.Comment + ")"
	}
	switch c.Kind {
	case Added:
		return fmt.Sprintf("+ %s: %q", key, c.After)
	case Removed:
		return fmt.Sprintf("- %s: %q", key, c.Before)
	default:
		return fmt.Sprintf("~ %s [%s]: %q -> %q", key, c.Kind, c.Before, c.After)
	}
}

type entry struct {
	key       catalog.Key
	text      string
	locations []catalog.Location
}

// live returns the first live message per key in document order.
func live(c *catalog.Catalog) []entry {
	var out []entry
	seen := make(map[catalog.Key]bool)
	for cx, m := range c.Messages() {
		if m.Type.Retired() {
			continue
		}
		key := m.Key(cx.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, entry{key: key, text: m.Text(), locations: m.Locations})
	}
	return out
}

// FormatLocations renders locations as "file:line" joined by ", ".
func FormatLocations(locs []catalog.Location) string {
	return strings.Join(lo.Map(locs, func(l catalog.Location, _ int) string {
		if l.Line == 0 {
			return l.File
		}
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}), ", ")
}

// Diff compares the live messages of base and target. Changes to target
// messages come first in target order, followed by removals in base order.
// A message with both a new translation and new locations is reported as
// retranslated.
func Diff(base, target *catalog.Catalog) []Change {
	before := live(base)
	after := live(target)
	beforeByKey := lo.KeyBy(before, func(e entry) catalog.Key { return e.key })
	afterByKey := lo.KeyBy(after, func(e entry) catalog.Key { return e.key })

	var changes []Change
	for _, a := range after {
		b, ok := beforeByKey[a.key]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: Added, Key: a.key, After: a.text})
		case b.text != a.text:
			changes = append(changes, Change{Kind: Retranslated, Key: a.key, Before: b.text, After: a.text})
		case !slices.Equal(b.locations, a.locations):
			changes = append(changes, Change{
				Kind:   Relocated,
				Key:    a.key,
				Before: FormatLocations(b.locations),
				After:  FormatLocations(a.locations),
			})
		}
	}
	for _, b := range before {
		if _, ok := afterByKey[b.key]; !ok {
			changes = append(changes, Change{Kind: Removed, Key: b.key, Before: b.text})
		}
	}
	return changes
}

// Summary counts changes by kind.
func Summary(changes []Change) map[Kind]int {
	return lo.CountValuesBy(changes, func(c Change) Kind { return c.Kind })
}
