package status

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/http_server"
	"github.com/urfave/negroni/v3"

	"code.cloudfoundry.org/webserv/common/health"
	"code.cloudfoundry.org/webserv/config"
	"code.cloudfoundry.org/webserv/handlers"
)

const (
	HealthPath   = "/health"
	LogLevelPath = "/log-level"
)

// Handler builds the negroni chain served by the status listener.
func Handler(h *health.Health, levels handlers.LevelSetter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(HealthPath, handlers.NewHealthcheck(h, logger))
	mux.Handle(LogLevelPath, handlers.NewLogLevel(levels, logger))

	n := negroni.New()
	n.Use(handlers.NewPanicCheck(logger))
	n.UseHandler(mux)
	return n
}

// NewListener returns an ifrit runner serving the status endpoints on
// host:port. It is ready once the socket is bound.
func NewListener(cfg config.StatusConfig, h *health.Health, levels handlers.LevelSetter, logger *slog.Logger) ifrit.Runner {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Info("status-listener", slog.String("address", addr))
	return http_server.New(addr, Handler(h, levels, logger))
}
