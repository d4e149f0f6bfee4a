package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	log "code.cloudfoundry.org/webserv/logger"
	"code.cloudfoundry.org/webserv/status"
)

type Watchdog struct {
	host         string
	pollInterval time.Duration
	client       http.Client
	logger       *slog.Logger
}

func NewWatchdog(host string, pollInterval time.Duration, healthcheckTimeout time.Duration, logger *slog.Logger) *Watchdog {
	client := http.Client{
		Timeout: healthcheckTimeout,
	}
	return &Watchdog{
		host:         host,
		pollInterval: pollInterval,
		client:       client,
		logger:       logger,
	}
}

// WatchHealthcheckEndpoint polls the webserv status listener until ctx is
// done or SIGUSR1 arrives. A failed check is an error unless SIGUSR1 follows
// within one poll interval, which means webserv is draining on purpose.
func (w *Watchdog) WatchHealthcheckEndpoint(ctx context.Context, signals <-chan os.Signal) error {
	pollTimer := time.NewTimer(w.pollInterval)
	defer pollTimer.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("context-done")
			return nil
		case sig := <-signals:
			if sig == syscall.SIGUSR1 {
				w.logger.Info("received-usr1")
				return nil
			}
		case <-pollTimer.C:
			w.logger.Debug("verifying-endpoint")
			err := w.HitHealthcheckEndpoint()
			if err != nil {
				select {
				case sig := <-signals:
					if sig == syscall.SIGUSR1 {
						w.logger.Info("received-usr1-after-failure")
						return nil
					}
				case <-time.After(w.pollInterval):
				}
				w.logger.Error("healthcheck-failed", log.ErrAttr(err))
				return err
			}
			pollTimer.Reset(w.pollInterval)
		}
	}
}

func (w *Watchdog) HitHealthcheckEndpoint() error {
	response, err := w.client.Get(w.host + status.HealthPath)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%v received from healthcheck endpoint (200 expected)", response.StatusCode)
	}
	return nil
}
