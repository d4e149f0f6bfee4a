package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/sigmon"

	"code.cloudfoundry.org/webserv/cgi"
	"code.cloudfoundry.org/webserv/common/health"
	"code.cloudfoundry.org/webserv/config"
	"code.cloudfoundry.org/webserv/errorwriter"
	log "code.cloudfoundry.org/webserv/logger"
	"code.cloudfoundry.org/webserv/metrics"
	"code.cloudfoundry.org/webserv/metrics/monitor"
	"code.cloudfoundry.org/webserv/metrics_prometheus"
	"code.cloudfoundry.org/webserv/reactor"
	"code.cloudfoundry.org/webserv/response"
	"code.cloudfoundry.org/webserv/status"
	"code.cloudfoundry.org/webserv/util"
)

var configFile string

const fdMonitorInterval = 30 * time.Second

func main() {
	flag.StringVar(&configFile, "c", "", "Configuration File")
	flag.Parse()

	prefix := "webserv.stdout"
	if configFile == "" {
		fmt.Fprintln(os.Stderr, "a configuration file is required (-c)")
		os.Exit(2)
	}

	c, err := config.InitConfigFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}

	factory, err := log.NewStdout(c.Logging.Level, c.Logging.Format.Timestamp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %s\n", err)
		os.Exit(1)
	}
	logger := factory.CreateLoggerWithSource(prefix, "")
	logger.Info("starting", slog.String("config", configFile), slog.Int("servers", len(c.Servers)))

	var ew errorwriter.ErrorWriter
	if c.HTMLErrorTemplateFile != "" {
		ew, err = errorwriter.NewPageErrorWriterFromFile(c.ErrorPagesDir, c.HTMLErrorTemplateFile)
		if err != nil {
			log.Fatal(logger, "new-html-error-template-from-file", log.ErrAttr(err))
		}
	} else {
		ew = errorwriter.NewPageErrorWriter(c.ErrorPagesDir)
	}

	if c.PidFile != "" {
		if err := util.WritePidFile(c.PidFile); err != nil {
			log.Fatal(logger, "write-pid-file-failed", log.ErrAttr(err))
		}
	}

	var reporter metrics.Reporter = metrics.NullReporter{}
	if c.Prometheus.Port != 0 {
		registry := metrics_prometheus.NewMetricsRegistry(c.Prometheus)
		reporter = metrics_prometheus.NewMetrics(registry)
		logger.Info("prometheus-enabled", slog.Int("port", int(c.Prometheus.Port)))
	}

	builder := response.NewBuilder(ew, c.CGI.Extensions)
	reaper := cgi.NewReaper(factory.CreateLoggerWithSource(prefix, "reaper"))

	h := &health.Health{}
	h.OnDegrade = func() {
		logger.Info("draining")
	}

	r := reactor.New(c, builder, ew, reaper, reporter, h, factory.CreateLoggerWithSource(prefix, "reactor"))

	fdMonitor := monitor.NewFileDescriptor(
		monitor.ProcSelfFd,
		time.NewTicker(fdMonitorInterval),
		reporter,
		factory.CreateLoggerWithSource(prefix, "FileDescriptor"),
	)

	members := grouper.Members{
		{Name: "fdMonitor", Runner: fdMonitor},
		{Name: "reactor", Runner: r},
	}
	if c.Status.Port != 0 {
		members = append(members, grouper.Member{
			Name:   "status",
			Runner: status.NewListener(c.Status, h, factory, factory.CreateLoggerWithSource(prefix, "status")),
		})
	}

	group := grouper.NewOrdered(os.Interrupt, members)
	monitorProcess := ifrit.Invoke(sigmon.New(group, syscall.SIGTERM, syscall.SIGINT))

	err = <-monitorProcess.Wait()
	if err != nil {
		logger.Error("webserv.exited-with-failure", log.ErrAttr(err))
		removePidFile(c.PidFile, logger)
		os.Exit(1)
	}

	removePidFile(c.PidFile, logger)
	logger.Info("exited")
}

func removePidFile(path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := util.RemovePidFile(path); err != nil {
		logger.Error("remove-pid-file-failed", log.ErrAttr(err))
	}
}
