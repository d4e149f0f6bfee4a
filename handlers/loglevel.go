package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"code.cloudfoundry.org/lager/v3"

	log "code.cloudfoundry.org/webserv/logger"
)

const maxLogLevelBody = 64

// LevelSetter is satisfied by the process logger and by lager's
// reconfigurable sink.
type LevelSetter interface {
	SetMinLevel(lager.LogLevel)
}

type logLevel struct {
	sink   LevelSetter
	logger *slog.Logger
}

// NewLogLevel changes the process log level from a PUT body naming the new
// level (debug, info, error or fatal).
func NewLogLevel(sink LevelSetter, logger *slog.Logger) http.Handler {
	return &logLevel{
		sink:   sink,
		logger: logger,
	}
}

func (l *logLevel) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		rw.Header().Set("Allow", "PUT, POST")
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxLogLevelBody))
	if err != nil {
		l.logger.Error("log-level-read-failed", log.ErrAttr(err))
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	level, err := log.ParseLagerLevel(string(body))
	if err != nil {
		l.logger.Info("log-level-rejected", log.ErrAttr(err))
		rw.WriteHeader(http.StatusBadRequest)
		rw.Write([]byte(err.Error() + "\n"))
		return
	}

	l.sink.SetMinLevel(level)
	l.logger.Info("log-level-changed", slog.String("level", lagerLevelName(level)))
	rw.WriteHeader(http.StatusNoContent)
}

func lagerLevelName(level lager.LogLevel) string {
	switch level {
	case lager.DEBUG:
		return "debug"
	case lager.INFO:
		return "info"
	case lager.ERROR:
		return "error"
	case lager.FATAL:
		return "fatal"
	default:
		return "unknown"
	}
}
