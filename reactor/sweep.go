package reactor

import (
	"log/slog"
	"net/http"
	"time"
)

// sweep closes idle connections. A connection still waiting for its CGI
// child gets a 500 instead; the child is torn down and the socket stays
// open until that response is flushed.
func (r *Reactor) sweep(now time.Time) {
	r.lastSweep = now

	for _, c := range r.conns {
		if !c.idle(now, r.config.Timeout) {
			continue
		}
		r.reporter.CaptureTimeout()

		if c.cgi == nil {
			c.logger.Info("connection-timed-out", slog.String("interest", c.interest.String()))
			r.closeConnection(c)
			continue
		}

		c.logger.Info("cgi-timed-out", slog.Int("pid", c.cgi.Pid()))
		r.detachCGI(c)
		r.respondError(c, http.StatusInternalServerError)
		c.touch(now)
	}

	if n := r.reaper.Poll(); n > 0 {
		r.logger.Debug("children-pending", slog.Int("count", n))
	}
}
