package models

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryDropsBlankValues(t *testing.T) {
	q := NewQuery(map[string]string{
		ParamCategoriaID:  "1",
		ParamAnioEleccion: "2023",
		ParamSeccionID:    "",
		ParamMesaID:       "null",
		ParamCircuitoID:   "  ",
	})
	assert.Equal(t, []string{ParamAnioEleccion, ParamCategoriaID}, q.Keys())
	assert.Equal(t, "anioEleccion=2023&categoriaId=1", q.Encode())
}

func TestQueryFromValuesFirstNonBlank(t *testing.T) {
	q := QueryFromValues(url.Values{
		ParamCategoriaID: {"", "2"},
		ParamDistritoID:  {"null"},
	})
	v, ok := q.Get(ParamCategoriaID)
	require.True(t, ok)
	assert.Equal(t, "2", v)
	_, ok = q.Get(ParamDistritoID)
	assert.False(t, ok)
}

func TestQueryIsImmutable(t *testing.T) {
	base := NewQuery(map[string]string{ParamCategoriaID: "1", ParamDistritoID: "02"})
	withD := base.With(ParamDistritoID, "06")
	without := base.Without(ParamDistritoID)

	v, _ := base.Get(ParamDistritoID)
	assert.Equal(t, "02", v)
	v, _ = withD.Get(ParamDistritoID)
	assert.Equal(t, "06", v)
	_, ok := without.Get(ParamDistritoID)
	assert.False(t, ok)

	cleared := base.With(ParamDistritoID, "")
	_, ok = cleared.Get(ParamDistritoID)
	assert.False(t, ok)
}

func TestQueryValidate(t *testing.T) {
	err := NewQuery(map[string]string{ParamAnioEleccion: "2023"}).Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, ParamCategoriaID, ve.Param)
	assert.Equal(t, "categoriaId es requerido", err.Error())

	assert.NoError(t, NewQuery(map[string]string{ParamCategoriaID: "3"}).Validate())
}

func TestQueryJSON(t *testing.T) {
	var q Query
	require.NoError(t, json.Unmarshal([]byte(`{"categoriaId":1,"anioEleccion":"2023","mesaId":null,"seccionId":""}`), &q))
	assert.Equal(t, map[string]string{"categoriaId": "1", "anioEleccion": "2023"}, q.Map())

	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"categoriaId":"1","anioEleccion":"2023"}`, string(b))
}

func TestDecodeResults(t *testing.T) {
	body := []byte(`{
		"fechaTotalizacion": "2023-10-23T03:00:00",
		"estadoRecuento": {"mesasTotalizadas": 10},
		"valoresTotalizadosPositivos": [
			{"idAgrupacion": 134, "nombreAgrupacion": "A", "votos": 100, "votosPorcentaje": 55.5, "urlLogo": "http://x/a.png"},
			{"idAgrupacion": "135", "nombreAgrupacion": "B", "votos": 80, "votosPorcentaje": 44.5, "urlLogo": null},
			{"idAgrupacion": "136", "votos": "not-a-number"}
		],
		"valoresTotalizadosOtros": {"votosNulos": 3, "votosEnBlanco": 4}
	}`)
	r, err := DecodeResults(body)
	require.NoError(t, err)
	require.Len(t, r.Positivos, 3)
	assert.Equal(t, GroupingID("134"), r.Positivos[0].IDAgrupacion)
	assert.Equal(t, GroupingID("135"), r.Positivos[1].IDAgrupacion)
	require.NotNil(t, r.Positivos[0].URLLogo)
	assert.Nil(t, r.Positivos[1].URLLogo)
	assert.Equal(t, GroupingID("136"), r.Positivos[2].IDAgrupacion)
	assert.Zero(t, r.Positivos[2].Votos)
	require.Len(t, r.Otros, 1)
	assert.Equal(t, float64(3), r.Otros[0]["votosNulos"])
	assert.Equal(t, LooseString("2023-10-23T03:00:00"), r.FechaTotalizacion)
	assert.Equal(t, `{"mesasTotalizadas":10}`, r.EstadoText())
	assert.JSONEq(t, string(body), string(r.Raw))
}

func TestDecodeResultsDataShape(t *testing.T) {
	r, err := DecodeResults([]byte(`{"valoresTotalizadosPositivos": null, "valoresTotalizadosOtros": [{"a":1}, 2]}`))
	require.NoError(t, err)
	assert.Empty(t, r.Positivos)
	assert.Len(t, r.Otros, 1)

	r, err = DecodeResults([]byte(`{"valoresTotalizadosPositivos": {"oops": true}, "fechaTotalizacion": 20231023}`))
	require.NoError(t, err)
	assert.Empty(t, r.Positivos)
	assert.Equal(t, LooseString("20231023"), r.FechaTotalizacion)

	r, err = DecodeResults([]byte("null"))
	require.NoError(t, err)
	assert.Empty(t, r.Positivos)
	assert.JSONEq(t, `{}`, string(r.Raw))

	for _, body := range [][]byte{nil, []byte(""), []byte(" \n\t")} {
		_, err = DecodeResults(body)
		assert.ErrorIs(t, err, ErrMalformedResults, "%q", body)
	}

	_, err = DecodeResults([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrMalformedResults)

	_, err = DecodeResults([]byte(`{"valoresTotalizadosPositivos": [`))
	assert.Error(t, err)
}

func TestOutcomeJSONShape(t *testing.T) {
	b, err := json.Marshal(FailureOutcome("02", "timeout"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"distritoId":"02","ok":false,"valoresTotalizadosPositivos":[],"error":"timeout"}`, string(b))

	b, err = json.Marshal(SuccessOutcome("06", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"distritoId":"06","ok":true,"valoresTotalizadosPositivos":[]}`, string(b))
}

func TestPositiveTotalsKeepEveryEntry(t *testing.T) {
	body := []byte(`{"valoresTotalizadosPositivos":[
		{"idAgrupacion":10,"nombreAgrupacion":"Diez","votos":"1.234","votosPorcentaje":"45,3"},
		{"nombreAgrupacion":"sin id"},
		{"idAgrupacion":20,"nombreAgrupacion":"Veinte","votos":7,"votosPorcentaje":54.7,"listas":[1,2]},
		{"idAgrupacion":0,"nombreAgrupacion":"Cero"}
	]}`)
	r, err := DecodeResults(body)
	require.NoError(t, err)
	require.Len(t, r.Positivos, 4)

	assert.Equal(t, GroupingID("10"), r.Positivos[0].IDAgrupacion)
	assert.Equal(t, int64(1234), r.Positivos[0].Votos)
	assert.InDelta(t, 45.3, r.Positivos[0].VotosPorcentaje, 1e-9)
	assert.Equal(t, GroupingID(""), r.Positivos[1].IDAgrupacion)
	assert.Equal(t, GroupingID(""), r.Positivos[3].IDAgrupacion)

	// Entries serialize exactly as received.
	out, err := json.Marshal(r.Positivos)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"idAgrupacion":10,"nombreAgrupacion":"Diez","votos":"1.234","votosPorcentaje":"45,3"},
		{"nombreAgrupacion":"sin id"},
		{"idAgrupacion":20,"nombreAgrupacion":"Veinte","votos":7,"votosPorcentaje":54.7,"listas":[1,2]},
		{"idAgrupacion":0,"nombreAgrupacion":"Cero"}
	]`, string(out))
}

func TestLooseNumber(t *testing.T) {
	cases := []struct {
		in      string
		integer bool
		want    float64
	}{
		{`12`, true, 12},
		{`"1.234.567"`, true, 1234567},
		{`"1,234"`, true, 1234},
		{`"45,3"`, false, 45.3},
		{`"45.3"`, false, 45.3},
		{`"1.234,5"`, false, 1234.5},
		{`"12%"`, false, 12},
		{`"n/a"`, false, 0},
		{`null`, true, 0},
		{`{"x":1}`, true, 0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, looseNumber(json.RawMessage(c.in), c.integer), 1e-9, c.in)
	}
}

func TestGroupingRecordMissingNameIsNull(t *testing.T) {
	b, err := json.Marshal(GroupingRecord{IDAgrupacion: "7"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"idAgrupacion":"7","nombreAgrupacion":null,"urlLogo":null}`, string(b))

	var back GroupingRecord
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, GroupingRecord{IDAgrupacion: "7"}, back)
}
