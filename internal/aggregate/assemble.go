package aggregate

import "github.com/yourorg/elecciones/internal/models"

// MergeGroupings indexes every grouping seen in successful outcomes. Outcomes
// are walked in slice order, so the first district to report an id fixes its
// name and logo; entries without an id are skipped.
func MergeGroupings(outcomes []models.DistrictOutcome) []models.GroupingRecord {
	seen := make(map[models.GroupingID]struct{})
	out := make([]models.GroupingRecord, 0)
	for _, o := range outcomes {
		if !o.OK {
			continue
		}
		for _, p := range o.Positivos {
			if p.IDAgrupacion == "" {
				continue
			}
			if _, ok := seen[p.IDAgrupacion]; ok {
				continue
			}
			seen[p.IDAgrupacion] = struct{}{}
			out = append(out, models.GroupingRecord{
				IDAgrupacion:     p.IDAgrupacion,
				NombreAgrupacion: p.NombreAgrupacion,
				URLLogo:          p.URLLogo,
			})
		}
	}
	return out
}

// Assemble shapes the response payload. It copies its inputs and never
// returns nil slices.
func Assemble(outcomes []models.DistrictOutcome, groupings []models.GroupingRecord) models.AggregationResult {
	series := make([]models.DistrictOutcome, len(outcomes))
	copy(series, outcomes)
	agrup := make([]models.GroupingRecord, len(groupings))
	copy(agrup, groupings)
	return models.AggregationResult{Series: series, Agrupaciones: agrup}
}

// Percentages maps every district in res to the vote share of grouping id.
// Failed districts and districts where the grouping did not run map to 0.
func Percentages(res models.AggregationResult, id models.GroupingID) map[string]float64 {
	out := make(map[string]float64, len(res.Series))
	for _, o := range res.Series {
		out[o.DistritoID] = 0
		if !o.OK {
			continue
		}
		for _, p := range o.Positivos {
			if p.IDAgrupacion == id {
				out[o.DistritoID] = p.VotosPorcentaje
				break
			}
		}
	}
	return out
}
