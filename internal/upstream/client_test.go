package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/elecciones/internal/cache"
	"github.com/yourorg/elecciones/internal/models"
)

const sampleBody = `{"fechaTotalizacion":"2023-10-23","valoresTotalizadosPositivos":[{"idAgrupacion":"134","nombreAgrupacion":"UxP","votos":10,"votosPorcentaje":50}]}`

func query(kv ...string) models.Query {
	m := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return models.NewQuery(m)
}

func TestResultsSendsQueryAndHeaders(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/", BearerToken: "tok"}, nil)
	res, err := c.Results(context.Background(), query("categoriaId", "1", "distritoId", "02", "mesaId", ""))
	require.NoError(t, err)

	assert.Equal(t, "/api/resultados/getResultados", gotPath)
	assert.Equal(t, "categoriaId=1&distritoId=02", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	require.Len(t, res.Positivos, 1)
	assert.Equal(t, models.GroupingID("134"), res.Positivos[0].IDAgrupacion)
	assert.JSONEq(t, sampleBody, string(res.Raw))
}

func TestResultsNoTokenNoAuthHeader(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}, nil).Results(context.Background(), query("categoriaId", "1"))
	require.NoError(t, err)
	assert.False(t, hasAuth)
}

func TestResultsFailureKinds(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		kind    Kind
		retry   bool
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) }, KindStatus, true},
		{"not found", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }, KindStatus, false},
		{"malformed", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html>`)) }, KindDecode, false},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}, KindTimeout, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := New(Config{BaseURL: srv.URL, Timeout: 100 * time.Millisecond}, nil)
			res, err := c.Results(context.Background(), query("categoriaId", "1"))
			require.Error(t, err)
			assert.Nil(t, res)
			var ue *Error
			require.True(t, errors.As(err, &ue), "error must be *upstream.Error, got %T", err)
			assert.Equal(t, tc.kind, ue.Kind)
			assert.Equal(t, tc.retry, ue.Retryable())
			assert.NotEmpty(t, ue.Error())
		})
	}
}

func TestResultsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := New(Config{BaseURL: base}, nil).Results(context.Background(), query("categoriaId", "1"))
	var ue *Error
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, KindNetwork, ue.Kind)
}

func TestResultsCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{BaseURL: srv.URL}, nil).Results(ctx, query("categoriaId", "1"))
	var ue *Error
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, KindCanceled, ue.Kind)
}

func TestResultsUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	store, err := cache.Open("", time.Minute)
	require.NoError(t, err)
	defer store.Close()

	c := New(Config{BaseURL: srv.URL, Cache: store}, nil)
	for i := 0; i < 3; i++ {
		res, err := c.Results(context.Background(), query("categoriaId", "1", "distritoId", "06"))
		require.NoError(t, err)
		require.Len(t, res.Positivos, 1)
	}
	assert.Equal(t, int32(1), calls.Load())

	_, err = c.Results(context.Background(), query("categoriaId", "1", "distritoId", "10"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/circuitos", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("seccionId"))
		w.Write([]byte(`{"circuitos":[]}`))
	}))
	defer srv.Close()

	body, err := New(Config{BaseURL: srv.URL}, nil).Fetch(context.Background(), "/circuitos", map[string][]string{"seccionId": {"5"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"circuitos":[]}`, string(body))
}

func TestRateLimiterRespectsDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RPS: 0.5, Timeout: 50 * time.Millisecond}, nil)
	_, err := c.Results(context.Background(), query("categoriaId", "1"))
	require.NoError(t, err)
	// the next token is two seconds away, beyond the request timeout
	_, err = c.Results(context.Background(), query("categoriaId", "2"))
	var ue *Error
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, KindTimeout, ue.Kind)
}
