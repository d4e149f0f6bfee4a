package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/urfave/negroni/v3"

	log "code.cloudfoundry.org/webserv/logger"
)

type panicCheck struct {
	logger *slog.Logger
}

// NewPanicCheck creates a handler that turns a panicking status handler into a
// 500 instead of tearing down the listener.
func NewPanicCheck(logger *slog.Logger) negroni.Handler {
	return &panicCheck{
		logger: logger,
	}
}

func (p *panicCheck) ServeHTTP(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				// client went away; http.Server handles this one
				panic(http.ErrAbortHandler)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			p.logger.Error("panic-check",
				slog.String("host", r.Host),
				log.ErrAttr(err),
				slog.String("stacktrace", string(debug.Stack())),
			)

			rw.WriteHeader(http.StatusInternalServerError)
			r.Close = true
		}
	}()

	next(rw, r)
}
