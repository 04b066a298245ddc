package models

import (
	"encoding/json"
	"errors"
	"net/url"
	"sort"

	"github.com/yourorg/elecciones/internal/normalize"
)

// Query parameter names understood by the results API.
const (
	ParamAnioEleccion        = "anioEleccion"
	ParamTipoRecuento        = "tipoRecuento"
	ParamTipoEleccion        = "tipoEleccion"
	ParamCategoriaID         = "categoriaId"
	ParamDistritoID          = "distritoId"
	ParamSeccionProvincialID = "seccionProvincialId"
	ParamSeccionID           = "seccionId"
	ParamCircuitoID          = "circuitoId"
	ParamMesaID              = "mesaId"
)

// ErrValidation indicates a query failed input validation.
var ErrValidation = errors.New("validation error")

// ValidationError names the required parameter that was missing.
type ValidationError struct {
	Param string
}

func (e *ValidationError) Error() string { return e.Param + " es requerido" }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Query is an immutable set of filter parameters. Blank values never make it in,
// so everything a Query holds is safe to forward upstream.
type Query struct {
	params map[string]string
}

// NewQuery builds a Query from raw key/value pairs, dropping blank and "null" values.
func NewQuery(raw map[string]string) Query {
	q := Query{params: make(map[string]string, len(raw))}
	for k, v := range raw {
		if v, ok := normalize.Param(v); ok && k != "" {
			q.params[k] = v
		}
	}
	return q
}

// QueryFromValues takes the first value of every key, as a form handler would.
func QueryFromValues(vals url.Values) Query {
	raw := make(map[string]string, len(vals))
	for k, vs := range vals {
		for _, v := range vs {
			if _, ok := normalize.Param(v); ok {
				raw[k] = v
				break
			}
		}
	}
	return NewQuery(raw)
}

// Get returns the value for key and whether it is set.
func (q Query) Get(key string) (string, bool) {
	v, ok := q.params[key]
	return v, ok
}

// Len reports the number of parameters.
func (q Query) Len() int { return len(q.params) }

// With returns a copy of q with key set. A blank value removes the key instead.
func (q Query) With(key, value string) Query {
	out := q.clone()
	if v, ok := normalize.Param(value); ok {
		out.params[key] = v
	} else {
		delete(out.params, key)
	}
	return out
}

// Without returns a copy of q with key removed.
func (q Query) Without(key string) Query {
	out := q.clone()
	delete(out.params, key)
	return out
}

// Validate checks that categoriaId is present.
func (q Query) Validate() error {
	if _, ok := q.params[ParamCategoriaID]; !ok {
		return &ValidationError{Param: ParamCategoriaID}
	}
	return nil
}

// Values converts q into url.Values for an outgoing request.
func (q Query) Values() url.Values {
	v := make(url.Values, len(q.params))
	for k, val := range q.params {
		v.Set(k, val)
	}
	return v
}

// Encode returns the canonical (key-sorted) query string.
func (q Query) Encode() string { return q.Values().Encode() }

// Map returns a copy of the parameters.
func (q Query) Map() map[string]string {
	out := make(map[string]string, len(q.params))
	for k, v := range q.params {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (q Query) Keys() []string {
	keys := make([]string, 0, len(q.params))
	for k := range q.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (q Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Map())
}

func (q *Query) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	params := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := normalize.Scalar(v); ok {
			params[k] = s
		}
	}
	*q = NewQuery(params)
	return nil
}

func (q Query) clone() Query {
	return Query{params: q.Map()}
}
