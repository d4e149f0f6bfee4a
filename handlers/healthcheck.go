package handlers

import (
	"log/slog"
	"net/http"

	"code.cloudfoundry.org/webserv/common/health"
)

type healthcheck struct {
	health *health.Health
	logger *slog.Logger
}

// NewHealthcheck answers 200 "ok" while the server is accepting connections
// and 503 while it is starting up or draining.
func NewHealthcheck(health *health.Health, logger *slog.Logger) http.Handler {
	return &healthcheck{
		health: health,
		logger: logger,
	}
}

func (h *healthcheck) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Cache-Control", "private, max-age=0")
	rw.Header().Set("Expires", "0")
	r.Close = true

	if h.health.Health() != health.Healthy {
		h.logger.Debug("healthcheck-unavailable", slog.String("status", h.health.String()))
		rw.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	rw.WriteHeader(http.StatusOK)
	rw.Write([]byte("ok\n"))
}
