package memory

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embed maps text to a unit vector of hashed character trigrams. Texts
// sharing most of their trigrams land close together under cosine
// distance, which is all translation memory lookups need.
func Embed(text string, dims int) []float32 {
	vec := make([]float32, dims)
	if dims <= 0 {
		return vec
	}

	runes := []rune(" " + normalize(text) + " ")
	if len(runes) < 3 {
		return vec
	}

	h := fnv.New32a()
	for i := 0; i+3 <= len(runes); i++ {
		h.Reset()
		_, _ = h.Write([]byte(string(runes[i : i+3])))
		sum := h.Sum32()
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vec[int(sum>>1)%dims] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// Cosine is the cosine similarity of two vectors of equal length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range min(len(a), len(b)) {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// normalize lowercases text, drops accelerator ampersands and collapses
// whitespace.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "&&", "\x00")
	text = strings.ReplaceAll(text, "&", "")
	text = strings.ReplaceAll(text, "\x00", "&")
	text = strings.ToLower(text)
	return strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
}
