package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"code.cloudfoundry.org/webserv/config"
	"code.cloudfoundry.org/webserv/healthchecker/watchdog"
	log "code.cloudfoundry.org/webserv/logger"
)

const SIGNAL_BUFFER_SIZE = 1024

func main() {
	var configFile string
	flag.StringVar(&configFile, "c", "", "Configuration File")
	flag.Parse()

	prefix := "healthchecker.stdout"

	c, err := config.DefaultConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}

	if configFile != "" {
		c, err = config.InitConfigFromFile(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
			os.Exit(1)
		}
	}

	factory, err := log.NewStdout(c.Logging.Level, c.Logging.Format.Timestamp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %s\n", err)
		os.Exit(1)
	}
	logger := factory.CreateLoggerWithSource(prefix, "")

	if c.Status.Port == 0 {
		log.Fatal(logger, "status-listener-disabled")
	}

	u := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", c.Status.Host, c.Status.Port),
	}
	logger.Info("starting", slog.String("url", u.String()))

	w := watchdog.NewWatchdog(u.String(), c.Status.HealthCheckPollInterval, c.Status.HealthCheckTimeout, factory.CreateLoggerWithSource(prefix, "watchdog"))
	signals := make(chan os.Signal, SIGNAL_BUFFER_SIZE)
	signal.Notify(signals, syscall.SIGUSR1)

	err = w.WatchHealthcheckEndpoint(context.Background(), signals)
	if err != nil {
		log.Fatal(logger, "error-running-healthcheck", log.ErrAttr(err))
	}
}
