package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sbilibin2017/gw-catalog/internal/logger"
	"github.com/sbilibin2017/gw-catalog/internal/models"
)

//go:generate mockgen -source=health.go -destination=health_mock.go -package=handlers

// Pinger checks the database connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
	StartedAt time.Time
}

const healthPingTimeout = 2 * time.Second

// NewHealthHandler returns an HTTP handler reporting build info and database reachability.
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} models.HealthResponse "Service healthy"
// @Failure 503 {object} models.HealthResponse "Database unreachable"
// @Router /health [get]
func NewHealthHandler(db Pinger, info BuildInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := models.HealthResponse{
			Status:    "ok",
			Version:   info.Version,
			Commit:    info.Commit,
			BuildDate: info.BuildDate,
			Uptime:    time.Since(info.StartedAt).Truncate(time.Second).String(),
			Database:  "ok",
		}
		status := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.Log.Errorw("health check: database ping failed", "err", err)
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, resp)
	}
}

// NewRootHandler answers the liveness probe on "/".
func NewRootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "API is running"})
	}
}

// NotFoundHandler answers unknown routes with a JSON 404.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowedHandler answers known routes called with the wrong method.
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
