package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/mediz/internal/metrics"
)

// LearnerHeader identifies the learner behind a request.
const LearnerHeader = "X-Learner-ID"

const learnerKey = "learner_id"

// RequireLearner rejects requests without a learner identifier.
func RequireLearner() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(LearnerHeader))
		if id == "" {
			respondError(c, http.StatusBadRequest, "missing_learner", errors.New("missing "+LearnerHeader+" header"))
			return
		}
		c.Set(learnerKey, id)
		c.Next()
	}
}

func learnerID(c *gin.Context) string {
	return c.GetString(learnerKey)
}

// RequestLogger logs every request once it completes.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", strings.ToUpper(c.Request.Method)),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if id := learnerID(c); id != "" {
			fields = append(fields, zap.String("learner_id", id))
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// Metrics instruments HTTP request counts and latency.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
