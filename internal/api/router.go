package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/mediz/internal/metrics"
)

// RouterConfig wires the HTTP routes.
type RouterConfig struct {
	Handler *Handler
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// NewRouter builds the gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Metrics(cfg.Metrics))

	r.GET("/healthz", Health)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.Use(RequireLearner())
	{
		h := cfg.Handler
		api.POST("/turns", h.SubmitTurn)
		api.POST("/sessions/:id/terminate", h.TerminateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.GET("/progression", h.GetProgression)
		api.PATCH("/profile", h.UpdateProfile)
		api.POST("/errors/:id/corrected", h.MarkErrorCorrected)
	}
	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("HTTP server stopped")
	return nil
}
