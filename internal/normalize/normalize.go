package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// Param trims a raw query value and reports whether it carries information.
// Empty strings and the literal "null" (what a JS form sends for a cleared
// select) count as absent.
func Param(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || v == "null" || v == "undefined" {
		return "", false
	}
	return v, true
}

// Scalar renders a decoded JSON scalar as a query value.
// Objects, arrays and null are rejected.
func Scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return Param(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return Param(t.String())
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// FoldAccents strips combining marks, e.g. "Entre Ríos" -> "Entre Rios".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slug returns a lowercase ASCII key for matching district labels against
// GeoJSON feature names:
//
//	"Tierra del Fuego" -> "tierra-del-fuego"
//	"Neuquén"          -> "neuquen"
func Slug(label string) string {
	s := strings.ToLower(FoldAccents(strings.TrimSpace(label)))
	s = nonSlugRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
