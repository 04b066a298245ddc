package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedResults indicates the upstream body was not a JSON object.
var ErrMalformedResults = errors.New("malformed results body")

// GroupingID is the opaque key of a political grouping. The upstream API has
// sent it both as a string and as a number, so both decode to the same key.
// The number 0 is treated as no id at all.
type GroupingID string

func (g *GroupingID) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*g = GroupingID(strings.TrimSpace(t))
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			*g = ""
			return nil
		}
		*g = GroupingID(t.String())
	default:
		*g = ""
	}
	return nil
}

// LooseString accepts any JSON scalar; non-string values keep their literal text.
type LooseString string

func (l *LooseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = LooseString(s)
		return nil
	}
	*l = LooseString(b)
	return nil
}

// PositiveTotal is the tally of one grouping. Decoded entries keep the JSON
// they came from and serialize back to it unchanged, unknown fields included.
type PositiveTotal struct {
	IDAgrupacion     GroupingID `json:"idAgrupacion"`
	NombreAgrupacion string     `json:"nombreAgrupacion"`
	URLLogo          *string    `json:"urlLogo"`
	Votos            int64      `json:"votos"`
	VotosPorcentaje  float64    `json:"votosPorcentaje"`

	raw json.RawMessage
}

type positiveTotalJSON PositiveTotal

// UnmarshalJSON never fails on a well-formed value: each field is decoded on
// its own and a field of the wrong type is left at its zero value.
func (p *PositiveTotal) UnmarshalJSON(b []byte) error {
	*p = PositiveTotal{raw: append(json.RawMessage(nil), bytes.TrimSpace(b)...)}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil
	}
	if v, ok := fields["idAgrupacion"]; ok {
		_ = p.IDAgrupacion.UnmarshalJSON(v)
	}
	if v, ok := fields["nombreAgrupacion"]; ok {
		var name LooseString
		_ = name.UnmarshalJSON(v)
		p.NombreAgrupacion = string(name)
	}
	if v, ok := fields["urlLogo"]; ok {
		var logo *string
		if json.Unmarshal(v, &logo) == nil {
			p.URLLogo = logo
		}
	}
	if v, ok := fields["votos"]; ok {
		p.Votos = int64(looseNumber(v, true))
	}
	if v, ok := fields["votosPorcentaje"]; ok {
		p.VotosPorcentaje = looseNumber(v, false)
	}
	return nil
}

func (p PositiveTotal) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	return json.Marshal(positiveTotalJSON(p))
}

var thousandsRe = regexp.MustCompile(`^-?\d{1,3}([.,]\d{3})+$`)

// looseNumber reads a JSON number or a numeric string written either way
// ("1.234", "1,234", "45,3", "45.3"). Anything else is 0.
func looseNumber(b json.RawMessage, integer bool) float64 {
	var f float64
	if json.Unmarshal(b, &f) == nil {
		return f
	}
	var s string
	if json.Unmarshal(b, &s) != nil {
		return 0
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	switch {
	case integer && thousandsRe.MatchString(s):
		s = strings.NewReplacer(".", "", ",", "").Replace(s)
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// PositiveTotals decodes leniently: a value that is not a list yields no
// entries, and every list entry is kept whatever its shape.
type PositiveTotals []PositiveTotal

func (p *PositiveTotals) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*p = nil
		return nil
	}
	out := make(PositiveTotals, len(items))
	for i, raw := range items {
		_ = out[i].UnmarshalJSON(raw)
	}
	*p = out
	return nil
}

// OtherTotals holds blank/null/contested tallies. Depending on the election
// the API sends a single object or a list of objects; both become rows.
type OtherTotals []map[string]any

func (o *OtherTotals) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*o = nil
		return nil
	}
	switch b[0] {
	case '{':
		var row map[string]any
		if err := json.Unmarshal(b, &row); err != nil {
			*o = nil
			return nil
		}
		*o = OtherTotals{row}
	case '[':
		var items []any
		if err := json.Unmarshal(b, &items); err != nil {
			*o = nil
			return nil
		}
		rows := make(OtherTotals, 0, len(items))
		for _, it := range items {
			if row, ok := it.(map[string]any); ok {
				rows = append(rows, row)
			}
		}
		*o = rows
	default:
		*o = nil
	}
	return nil
}

// Results is the decoded body of /resultados/getResultados.
type Results struct {
	FechaTotalizacion LooseString     `json:"fechaTotalizacion,omitempty"`
	EstadoRecuento    json.RawMessage `json:"estadoRecuento,omitempty"`
	Positivos         PositiveTotals  `json:"valoresTotalizadosPositivos"`
	Otros             OtherTotals     `json:"valoresTotalizadosOtros"`

	// Raw is the body exactly as received, for pass-through responses.
	Raw json.RawMessage `json:"-"`
}

// DecodeResults parses an upstream body. JSON null is an empty result; an
// empty body or anything other than an object is ErrMalformedResults.
func DecodeResults(body []byte) (*Results, error) {
	trimmed := bytes.TrimSpace(body)
	if bytes.Equal(trimmed, []byte("null")) {
		return &Results{Raw: json.RawMessage("{}")}, nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedResults
	}
	var r Results
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, err
	}
	r.Raw = append(json.RawMessage(nil), trimmed...)
	return &r, nil
}

// EstadoText renders the recount state for display.
func (r *Results) EstadoText() string {
	if len(r.EstadoRecuento) == 0 || string(r.EstadoRecuento) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.EstadoRecuento, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, r.EstadoRecuento); err != nil {
		return string(r.EstadoRecuento)
	}
	return buf.String()
}
