package aggregate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/elecciones/internal/models"
)

func TestMergeGroupingsIgnoresFailedOutcomes(t *testing.T) {
	outcomes := []models.DistrictOutcome{
		{DistritoID: "A", OK: false, Positivos: models.PositiveTotals{grouping("1", "stale")}},
		models.SuccessOutcome("B", models.PositiveTotals{grouping("1", "fresh")}),
	}
	got := MergeGroupings(outcomes)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].NombreAgrupacion)
}

func TestMergeGroupingsKeepsLogoOfFirst(t *testing.T) {
	logoA, logoB := "a.png", "b.png"
	a := grouping("1", "X")
	a.URLLogo = &logoA
	b := grouping("1", "X")
	b.URLLogo = &logoB
	got := MergeGroupings([]models.DistrictOutcome{
		models.SuccessOutcome("A", models.PositiveTotals{a}),
		models.SuccessOutcome("B", models.PositiveTotals{b}),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "a.png", *got[0].URLLogo)
}

func TestAssembleShape(t *testing.T) {
	res := Assemble(nil, nil)
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"series":[],"agrupaciones":[]}`, string(b))

	outcomes := []models.DistrictOutcome{models.FailureOutcome("02", "timeout requesting x")}
	res = Assemble(outcomes, []models.GroupingRecord{{IDAgrupacion: "9", NombreAgrupacion: "N"}})
	outcomes[0].DistritoID = "mutated"
	assert.Equal(t, "02", res.Series[0].DistritoID)

	b, err = json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"series":[{"distritoId":"02","ok":false,"valoresTotalizadosPositivos":[],"error":"timeout requesting x"}],
		"agrupaciones":[{"idAgrupacion":"9","nombreAgrupacion":"N","urlLogo":null}]
	}`, string(b))
}

func TestPercentages(t *testing.T) {
	x := grouping("10", "X")
	x.VotosPorcentaje = 41.5
	y := grouping("20", "Y")
	y.VotosPorcentaje = 12
	res := Assemble([]models.DistrictOutcome{
		models.SuccessOutcome("02", models.PositiveTotals{x, y}),
		models.FailureOutcome("06", "down"),
		models.SuccessOutcome("10", models.PositiveTotals{y}),
	}, nil)

	assert.Equal(t, map[string]float64{"02": 41.5, "06": 0, "10": 0}, Percentages(res, "10"))
	assert.Equal(t, map[string]float64{"02": 12, "06": 0, "10": 12}, Percentages(res, "20"))
}
