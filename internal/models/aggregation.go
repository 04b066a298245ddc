package models

import "encoding/json"

// District is one entry of the canonical district list.
type District struct {
	ID    string `json:"value"`
	Label string `json:"label"`
	Slug  string `json:"slug,omitempty"`
}

// DistrictOutcome is the result of querying one district. Positivos is never
// nil so that it serializes as [] on failure.
type DistrictOutcome struct {
	DistritoID string         `json:"distritoId"`
	OK         bool           `json:"ok"`
	Positivos  PositiveTotals `json:"valoresTotalizadosPositivos"`
	Error      string         `json:"error,omitempty"`
}

// SuccessOutcome records a district that answered.
func SuccessOutcome(distritoID string, positivos PositiveTotals) DistrictOutcome {
	if positivos == nil {
		positivos = PositiveTotals{}
	}
	return DistrictOutcome{DistritoID: distritoID, OK: true, Positivos: positivos}
}

// FailureOutcome records a district whose query failed.
func FailureOutcome(distritoID, message string) DistrictOutcome {
	return DistrictOutcome{DistritoID: distritoID, OK: false, Positivos: PositiveTotals{}, Error: message}
}

// GroupingRecord identifies a party or coalition across districts.
type GroupingRecord struct {
	IDAgrupacion     GroupingID `json:"idAgrupacion"`
	NombreAgrupacion string     `json:"nombreAgrupacion"`
	URLLogo          *string    `json:"urlLogo"`
}

// MarshalJSON writes a missing name as null, as the results API does.
func (g GroupingRecord) MarshalJSON() ([]byte, error) {
	var name *string
	if g.NombreAgrupacion != "" {
		name = &g.NombreAgrupacion
	}
	return json.Marshal(struct {
		IDAgrupacion     GroupingID `json:"idAgrupacion"`
		NombreAgrupacion *string    `json:"nombreAgrupacion"`
		URLLogo          *string    `json:"urlLogo"`
	}{g.IDAgrupacion, name, g.URLLogo})
}

// AggregationResult is the national map payload.
type AggregationResult struct {
	Series       []DistrictOutcome `json:"series"`
	Agrupaciones []GroupingRecord  `json:"agrupaciones"`
}

// Succeeded counts districts with ok=true.
func (a AggregationResult) Succeeded() int {
	n := 0
	for _, o := range a.Series {
		if o.OK {
			n++
		}
	}
	return n
}
