package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// AsInt parses a query parameter with a default and a clamp range.
func AsInt(raw string, def, min, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

type Page struct {
	Page   int
	Size   int
	Offset int
}

// Paging reads page/page_size strings into a clamped page window.
func Paging(pageRaw, sizeRaw string, defaultSize, maxSize int) Page {
	page := AsInt(pageRaw, 1, 1, 100000)
	size := AsInt(sizeRaw, defaultSize, 1, maxSize)
	return Page{Page: page, Size: size, Offset: (page - 1) * size}
}

// TotalPages is the ceiling division used by the paging envelope.
func TotalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

var wsRe = regexp.MustCompile(`\s+`)

// NormFTS collapses whitespace so a raw query can be handed to an FTS
// MATCH expression as a bag of terms.
func NormFTS(q string) string {
	terms := wsRe.Split(strings.TrimSpace(q), -1)
	out := terms[:0]
	for _, t := range terms {
		if t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}

// EscapeLike escapes LIKE metacharacters; pair with ESCAPE '\'.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
