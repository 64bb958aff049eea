package lint

import (
	"fmt"
	"strings"

	"ts-catalog/internal/catalog"
	"ts-catalog/internal/interpolation"

	"github.com/samber/lo"
)

// Severity orders findings.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// ParseSeverity parses "info", "warning" or "error".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "info":
		return Info, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Info, fmt.Errorf("unknown severity %q", s)
}

// Rule names.
const (
	RuleDuplicateKey        = "duplicate-key"
	RuleMissingLocation     = "missing-location"
	RulePlaceholderMismatch = "placeholder-mismatch"
	RuleMarkupMismatch      = "markup-mismatch"
	RuleUntranslated        = "untranslated"
	RuleUnfinished          = "unfinished"
)

// Finding is one integrity problem.
type Finding struct {
	Rule     string
	Severity Severity
	Key      catalog.Key
	Message  string
}

func (f Finding) String() string {
	key := f.Key.Context + " / " + f.Key.Source
	if f.Key.Comment != "" {
		key += " (" + f.Key.Comment + ")"
	}
	return fmt.Sprintf("%s [%s] %s: %s", f.Severity, f.Rule, key, f.Message)
}

// Report is the result of Check.
type Report struct {
	Findings []Finding
}

// HasErrors reports whether any finding is an error.
func (r Report) HasErrors() bool {
	return r.Count(Error) > 0
}

// Count returns the number of findings with severity s.
func (r Report) Count(s Severity) int {
	return lo.CountBy(r.Findings, func(f Finding) bool { return f.Severity == s })
}

// ByRule returns the findings reported by rule.
func (r Report) ByRule(rule string) []Finding {
	return lo.Filter(r.Findings, func(f Finding, _ int) bool { return f.Rule == rule })
}

// Options tunes Check.
type Options struct {
	// ExemptLocations lists live messages allowed to have no location.
	// A key with an empty Comment exempts every comment variant.
	ExemptLocations []catalog.Key
	// MinSeverity drops findings below it.
	MinSeverity Severity
}

func (o Options) exempt(k catalog.Key) bool {
	return lo.ContainsBy(o.ExemptLocations, func(e catalog.Key) bool {
		return e.Context == k.Context && e.Source == k.Source && (e.Comment == "" || e.Comment == k.Comment)
	})
}

type entry struct {
	key catalog.Key
	msg *catalog.Message
}

// Check runs every rule over c. Findings follow document order.
func Check(c *catalog.Catalog, opts Options) Report {
	var entries []entry
	for ctx, m := range c.Messages() {
		entries = append(entries, entry{key: m.Key(ctx.Name), msg: m})
	}

	var findings []Finding
	add := func(f Finding) {
		if f.Severity >= opts.MinSeverity {
			findings = append(findings, f)
		}
	}

	live := lo.Filter(entries, func(e entry, _ int) bool { return !e.msg.Type.Retired() })
	groups := lo.GroupBy(live, func(e entry) catalog.Key { return e.key })
	reported := make(map[catalog.Key]bool)

	for _, e := range entries {
		m := e.msg

		if group := groups[e.key]; len(group) > 1 && !reported[e.key] {
			reported[e.key] = true
			add(duplicateFinding(e.key, group))
		}

		if m.Type.Retired() {
			continue
		}

		if len(m.Locations) == 0 && !opts.exempt(e.key) {
			add(Finding{
				Rule:     RuleMissingLocation,
				Severity: Warning,
				Key:      e.key,
				Message:  "message has no source location",
			})
		}

		if !m.Translated() {
			add(Finding{
				Rule:     RuleUntranslated,
				Severity: Info,
				Key:      e.key,
				Message:  "empty translation, source text is displayed",
			})
			continue
		}

		if m.Type == catalog.Unfinished {
			add(Finding{
				Rule:     RuleUnfinished,
				Severity: Info,
				Key:      e.key,
				Message:  "translation is marked unfinished",
			})
		}

		// Numerus forms may legitimately spell out the count instead of %n.
		if m.Numerus {
			continue
		}
		// Each length variant is shown on its own, so each must carry the markers.
		for _, text := range lo.Filter(catalog.Variants(m.Translation), func(v string, _ int) bool { return v != "" }) {
			if !interpolation.SamePlaceholders(m.Source, text) {
				add(Finding{
					Rule:     RulePlaceholderMismatch,
					Severity: Error,
					Key:      e.key,
					Message: fmt.Sprintf("source has %v, translation has %v",
						interpolation.Placeholders(m.Source), interpolation.Placeholders(text)),
				})
			}
			if !interpolation.SameTags(m.Source, text) {
				add(Finding{
					Rule:     RuleMarkupMismatch,
					Severity: Warning,
					Key:      e.key,
					Message: fmt.Sprintf("source tags %v, translation tags %v",
						interpolation.Tags(m.Source), interpolation.Tags(text)),
				})
			}
		}
	}

	return Report{Findings: findings}
}

func duplicateFinding(key catalog.Key, group []entry) Finding {
	texts := lo.Uniq(lo.Map(group, func(e entry, _ int) string { return e.msg.Text() }))
	if len(texts) > 1 {
		return Finding{
			Rule:     RuleDuplicateKey,
			Severity: Error,
			Key:      key,
			Message:  fmt.Sprintf("%d entries with different translations, add a disambiguation comment", len(group)),
		}
	}
	return Finding{
		Rule:     RuleDuplicateKey,
		Severity: Warning,
		Key:      key,
		Message:  fmt.Sprintf("%d identical entries", len(group)),
	}
}
