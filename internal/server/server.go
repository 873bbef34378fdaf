package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/partnerpulse/creditscope/internal/config"
	dashboarddomain "github.com/partnerpulse/creditscope/internal/dashboard/domain"
	"github.com/partnerpulse/creditscope/internal/observability"
	obsmiddleware "github.com/partnerpulse/creditscope/internal/observability/logger"
	obstracing "github.com/partnerpulse/creditscope/internal/observability/tracing"
	warehousedomain "github.com/partnerpulse/creditscope/internal/warehouse/domain"
	"github.com/partnerpulse/creditscope/pkg/telemetry"
)

func NewEngine(obsCfg observability.Config, metrics *telemetry.Metrics, log *zap.Logger) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log, obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(MetricsMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	dashboard dashboarddomain.Service
	warehouse warehousedomain.Repository
	metrics   *telemetry.Metrics
	log       *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Dashboard dashboarddomain.Service
	Warehouse warehousedomain.Repository
	Metrics   *telemetry.Metrics `optional:"true"`
	Log       *zap.Logger
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		dashboard: p.Dashboard,
		warehouse: p.Warehouse,
		metrics:   p.Metrics,
		log:       p.Log.Named("server"),
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterAPIRoutes mounts the versioned analytics API.
func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.GET("/run-rates", s.GetRunRates)
	v1.GET("/run-rates/overall", s.GetOverallRunRate)
	v1.GET("/contracts/usage", s.GetContractUsage)
	v1.GET("/summary/usage", s.GetUsageSummary)
	v1.GET("/summary/balances", s.GetBalanceSummary)
	v1.GET("/alerts", s.GetAlerts)

	v1.GET("/customers", s.ListCustomers)
	v1.GET("/usage-types", s.ListUsageTypes)

	v1.GET("/export/run-rates.csv", s.ExportRunRates)
	v1.GET("/export/usage.csv", s.ExportUsage)
	v1.GET("/export/contracts.csv", s.ExportContracts)
}

// RunHTTP starts the HTTP listener on the configured address and shuts it
// down with the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
