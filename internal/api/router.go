package api

import (
	"os"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/elecciones/internal/logging"
	"github.com/yourorg/elecciones/internal/metrics"
)

// RouterConfig holds the optional parts of the router.
type RouterConfig struct {
	// StaticDir is served under /static, with its index.html at /.
	StaticDir string
	// Snapshots is nil when Temporal is unavailable; its routes are then omitted.
	Snapshots *SnapshotHandler
	Logger    *zap.Logger
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinLogger(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
	}))

	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			r.Static("/static", cfg.StaticDir)
			index := filepath.Join(cfg.StaticDir, "index.html")
			if _, err := os.Stat(index); err == nil {
				r.StaticFile("/", index)
				r.StaticFile("/index.html", index)
			}
		}
	}

	r.GET("/ping", h.Ping)
	r.GET("/__diag", h.Diag)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/resultados", h.GetResultados)
		apiGroup.GET("/catalogos", h.GetCatalogos)
		apiGroup.GET("/mapa/distritos", h.GetMapaDistritos)
		apiGroup.GET("/mapa/porcentajes", h.GetMapaPorcentajes)
		for _, f := range filtros {
			apiGroup.GET("/filtros/"+f.resource, h.filtroHandler(f))
		}
	}

	exp := r.Group("/export")
	{
		exp.GET("/excel", h.ExportExcel)
		exp.GET("/pdf", h.ExportPDF)
		exp.GET("/mapa/excel", h.ExportMapaExcel)
	}

	if cfg.Snapshots != nil {
		v1 := r.Group("/api/v1")
		v1.POST("/snapshots", cfg.Snapshots.StartSnapshot)
		v1.GET("/snapshots/:id", cfg.Snapshots.GetSnapshot)
		v1.GET("/snapshots/:id/mapa.xlsx", cfg.Snapshots.DownloadSnapshot)
	}
	return r
}
