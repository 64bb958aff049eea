package interpolation

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// placeholderPattern matches, in order of preference: an escaped percent,
// printf conversions carried over from C sources (%s, %lu, %05d, %5.2f), Qt
// positional markers (%1, %L2) and the plural marker (%n, %Ln). A printf
// width needs a flag or a precision, so "%1s" is the marker %1 followed
// by text.
var placeholderPattern = regexp.MustCompile(
	`%%|%(?:[-+#0]+[0-9]*(?:\.[0-9]+)?|[0-9]*\.[0-9]+)?(?:hh|h|ll|l|L|q|j|z|t)?[diouxXeEfFgGaAcsp]|%L?[0-9]{1,2}|%L?n`,
)

var markerPattern = regexp.MustCompile(`%L?([0-9]{1,2})`)

var tagPattern = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9]*)(?:\s[^<>]*)?/?>`)

// richTextTags is the HTML subset Qt renders; anything else in angle
// brackets, like "<No sub folders>", is plain text.
var richTextTags = map[string]bool{
	"a": true, "b": true, "big": true, "blockquote": true, "body": true, "br": true,
	"center": true, "cite": true, "code": true, "dd": true, "div": true, "dl": true,
	"dt": true, "em": true, "font": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "head": true, "hr": true, "html": true,
	"i": true, "img": true, "kbd": true, "li": true, "nobr": true, "ol": true,
	"p": true, "pre": true, "qt": true, "s": true, "small": true, "span": true,
	"strong": true, "sub": true, "sup": true, "table": true, "td": true, "th": true,
	"tr": true, "tt": true, "u": true, "ul": true,
}

// Placeholders returns every substitution marker in text, in order of
// appearance. "%%" is a literal percent sign and is not reported.
func Placeholders(text string) []string {
	var out []string
	for _, m := range placeholderPattern.FindAllString(text, -1) {
		if m == "%%" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SamePlaceholders reports whether a and b carry the same markers, ignoring
// order.
func SamePlaceholders(a, b string) bool {
	pa, pb := Placeholders(a), Placeholders(b)
	slices.Sort(pa)
	slices.Sort(pb)
	return slices.Equal(pa, pb)
}

// Arg substitutes args into the positional markers of text. The first arg
// replaces every occurrence of the lowest-numbered marker, the second the
// next lowest, and so on. Markers without a matching arg are left alone.
func Arg(text string, args ...string) string {
	if len(args) == 0 {
		return text
	}

	var numbers []int
	for _, sub := range markerPattern.FindAllStringSubmatch(text, -1) {
		n, _ := strconv.Atoi(sub[1])
		if n > 0 && !slices.Contains(numbers, n) {
			numbers = append(numbers, n)
		}
	}
	slices.Sort(numbers)

	values := make(map[int]string, len(args))
	for i, n := range numbers {
		if i >= len(args) {
			break
		}
		values[n] = args[i]
	}

	return markerPattern.ReplaceAllStringFunc(text, func(marker string) string {
		n, _ := strconv.Atoi(strings.TrimPrefix(marker[1:], "L"))
		if v, ok := values[n]; ok {
			return v
		}
		return marker
	})
}

// Tags returns the sorted names of the markup tags in text, closing tags
// prefixed with "/".
func Tags(text string) []string {
	var out []string
	for _, sub := range tagPattern.FindAllStringSubmatch(text, -1) {
		name := strings.ToLower(sub[2])
		if richTextTags[name] {
			out = append(out, sub[1]+name)
		}
	}
	slices.Sort(out)
	return out
}

// SameTags reports whether a and b use the same markup tags.
func SameTags(a, b string) bool {
	return slices.Equal(Tags(a), Tags(b))
}
