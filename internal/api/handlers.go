package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/elecciones/internal/aggregate"
	"github.com/yourorg/elecciones/internal/catalog"
	"github.com/yourorg/elecciones/internal/export"
	"github.com/yourorg/elecciones/internal/models"
	"github.com/yourorg/elecciones/internal/normalize"
)

// ResultsClient fetches one results query.
type ResultsClient interface {
	Results(ctx context.Context, q models.Query) (*models.Results, error)
}

// GeorefClient fetches a raw JSON resource from the geographic reference API.
type GeorefClient interface {
	Fetch(ctx context.Context, path string, params url.Values) ([]byte, error)
}

// MapAggregator runs the national district fan-out.
type MapAggregator interface {
	Run(ctx context.Context, base models.Query) (models.AggregationResult, error)
}

// Options wires a Handler.
type Options struct {
	Results    ResultsClient
	Georef     GeorefClient
	Aggregator MapAggregator
	Logger     *zap.Logger
	// AggregateTimeout bounds a whole district fan-out; zero means no deadline.
	AggregateTimeout time.Duration
	APIBase          string
	BearerSet        bool
}

type Handler struct {
	results ResultsClient
	georef  GeorefClient
	agg     MapAggregator
	log     *zap.Logger
	timeout time.Duration
	apiBase string
	bearer  bool
	now     func() time.Time
}

func NewHandler(o Options) *Handler {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		results: o.Results,
		georef:  o.Georef,
		agg:     o.Aggregator,
		log:     log,
		timeout: o.AggregateTimeout,
		apiBase: o.APIBase,
		bearer:  o.BearerSet,
		now:     time.Now,
	}
}

// fetchResults validates the request query and runs it upstream. It writes the
// error response itself and reports whether the caller should continue.
func (h *Handler) fetchResults(c *gin.Context) (models.Query, *models.Results, bool) {
	q := models.QueryFromValues(c.Request.URL.Query())
	if err := q.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, nil, false
	}
	res, err := h.results.Results(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Fallo consultando API: " + err.Error()})
		return q, nil, false
	}
	return q, res, true
}

// GetResultados proxies a single results query.
func (h *Handler) GetResultados(c *gin.Context) {
	q, res, ok := h.fetchResults(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "data": res.Raw})
}

func (h *Handler) ExportExcel(c *gin.Context) {
	_, res, ok := h.fetchResults(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.ResultsWorkbook(&buf, res); err != nil {
		h.log.Error("results workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo generar el Excel"})
		return
	}
	attachment(c, "resultados.xlsx", export.XLSXContentType, buf.Bytes())
}

func (h *Handler) ExportPDF(c *gin.Context) {
	q, res, ok := h.fetchResults(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.ResultsPDF(&buf, res, q); err != nil {
		h.log.Error("results pdf", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo generar el PDF"})
		return
	}
	attachment(c, "resultados.pdf", "application/pdf", buf.Bytes())
}

// runAggregation runs the fan-out under the configured deadline.
func (h *Handler) runAggregation(c *gin.Context, q models.Query) (models.AggregationResult, bool) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	res, err := h.agg.Run(ctx, q)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return res, false
		}
		h.log.Error("district aggregation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return res, false
	}
	return res, true
}

// GetMapaDistritos aggregates the query across every district.
func (h *Handler) GetMapaDistritos(c *gin.Context) {
	res, ok := h.runAggregation(c, models.QueryFromValues(c.Request.URL.Query()))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetMapaPorcentajes returns one grouping's vote share per district.
func (h *Handler) GetMapaPorcentajes(c *gin.Context) {
	id, ok := normalize.Param(c.Query("agrupacionId"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Falta agrupacionId"})
		return
	}
	q := models.QueryFromValues(c.Request.URL.Query()).Without("agrupacionId")
	res, ok := h.runAggregation(c, q)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"agrupacionId": id,
		"porcentajes":  aggregate.Percentages(res, models.GroupingID(id)),
	})
}

func (h *Handler) ExportMapaExcel(c *gin.Context) {
	res, ok := h.runAggregation(c, models.QueryFromValues(c.Request.URL.Query()))
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.MapWorkbook(&buf, res, catalog.LabelOrID); err != nil {
		h.log.Error("map workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo generar el Excel"})
		return
	}
	attachment(c, "mapa.xlsx", export.XLSXContentType, buf.Bytes())
}

func (h *Handler) GetCatalogos(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.All(h.now()))
}

type filtro struct {
	resource string
	param    string
	failMsg  string
}

var filtros = []filtro{
	{"secciones_provinciales", models.ParamDistritoID, "No se pudieron obtener las secciones provinciales"},
	{"secciones", models.ParamSeccionProvincialID, "No se pudieron obtener las secciones"},
	{"circuitos", models.ParamSeccionID, "No se pudieron obtener los circuitos"},
	{"mesas", models.ParamCircuitoID, "No se pudieron obtener las mesas"},
}

// filtroHandler proxies one geographic filter resource.
func (h *Handler) filtroHandler(f filtro) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := normalize.Param(c.Query(f.param))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Falta " + f.param})
			return
		}
		body, err := h.georef.Fetch(c.Request.Context(), "/"+f.resource, url.Values{f.param: {v}})
		if err == nil && !json.Valid(body) {
			err = errors.New("invalid json")
		}
		if err != nil {
			h.log.Warn("georef request failed", zap.String("resource", f.resource), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": f.failMsg})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	}
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pong": true})
}

func (h *Handler) Diag(c *gin.Context) {
	cwd, _ := os.Getwd()
	c.JSON(http.StatusOK, gin.H{
		"api_base":   h.apiBase,
		"bearer_set": h.bearer,
		"cwd":        cwd,
		"go":         runtime.Version(),
		"pdf_engine": export.PDFEngine,
	})
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}
