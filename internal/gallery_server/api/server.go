package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pet-gallery/internal/gallery_server/gallery_service"
	"pet-gallery/pkg/config"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	service *gallery_service.GalleryService
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
}

func NewServer(service *gallery_service.GalleryService, cfg *config.Config, logger *slog.Logger, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/upload", s.UploadHandler)
	mux.HandleFunc("/random", s.RandomHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: mux,
	}
	return s
}

// Start runs the HTTP server until the context is cancelled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) {
	s.logger.Info("Starting gallery server", slog.String("port", s.cfg.ServerPort))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Could not start server", slog.Any("error", err))
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down gallery server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Server shutdown failed", slog.Any("error", err))
	} else {
		s.logger.Info("Server shutdown gracefully")
	}
}
