package inbound

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/usecase"
	"github.com/startbuilds/excel-mysql-exporter/internal/pkg/pkgrouter"
)

type uc interface {
	Submit(ctx context.Context, req usecase.SubmitRequest) (usecase.SubmitResult, error)
	Run(ctx context.Context, runID string) (usecase.RunResult, error)
}

type HTTPConfig struct {
	// UploadDir holds uploaded workbooks until their run finishes.
	UploadDir string
	// MaxUploadBytes caps the request body; 0 means no cap.
	MaxUploadBytes int64
	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, cfg HTTPConfig) {
	end := &HTTPEndpoint{uc: uc, uploadDir: cfg.UploadDir}

	r.POST("/exports", end.Submit, pkgrouter.BodyLimit(cfg.MaxUploadBytes)) // ?mode=full|incremental
	r.GET("/exports/:id", end.Run)

	if cfg.Gatherer != nil {
		r.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
}
