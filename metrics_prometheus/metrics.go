package metrics_prometheus

import (
	"log"

	mr "code.cloudfoundry.org/go-metric-registry"

	"code.cloudfoundry.org/webserv/config"
	"code.cloudfoundry.org/webserv/metrics"
)

// Metrics represents a prometheus metrics endpoint.
type Metrics struct {
	ConnectionsAccepted  mr.Counter
	ConnectionsClosed    mr.Counter
	OpenConnections      mr.Gauge
	BadRequest           mr.Counter
	Responses            mr.CounterVec
	Timeouts             mr.Counter
	CGIStarted           mr.Counter
	CGIFailures          mr.Counter
	FoundFileDescriptors mr.Gauge

	// only touched from the reactor goroutine
	open float64
}

func NewMetricsRegistry(config config.PrometheusConfig) *mr.Registry {
	// the server starts in background. Endpoint: 127.0.0.1:port/metrics
	return mr.NewRegistry(log.Default(), mr.WithServer(int(config.Port)))
}

var _ metrics.Reporter = &Metrics{}

var statusGroupName = metrics.StatusGroup

func NewMetrics(registry *mr.Registry) *Metrics {
	return &Metrics{
		ConnectionsAccepted:  registry.NewCounter("connections_accepted", "number of accepted client connections"),
		ConnectionsClosed:    registry.NewCounter("connections_closed", "number of closed client connections"),
		OpenConnections:      registry.NewGauge("open_connections", "number of client connections currently open"),
		BadRequest:           registry.NewCounter("rejected_requests", "number of requests that could not be parsed"),
		Responses:            registry.NewCounterVec("responses", "number of responses", []string{"status_group"}),
		Timeouts:             registry.NewCounter("timeouts", "number of connections closed by the inactivity sweep"),
		CGIStarted:           registry.NewCounter("cgi_started", "number of cgi children started"),
		CGIFailures:          registry.NewCounter("cgi_failures", "number of cgi children that failed to start or stream"),
		FoundFileDescriptors: registry.NewGauge("file_descriptors", "number of open file descriptors found"),
	}
}

func (metrics *Metrics) CaptureConnectionAccepted() {
	metrics.ConnectionsAccepted.Add(1)
	metrics.open++
	metrics.OpenConnections.Set(metrics.open)
}

func (metrics *Metrics) CaptureConnectionClosed() {
	metrics.ConnectionsClosed.Add(1)
	if metrics.open > 0 {
		metrics.open--
	}
	metrics.OpenConnections.Set(metrics.open)
}

func (metrics *Metrics) CaptureBadRequest() {
	metrics.BadRequest.Add(1)
}

func (metrics *Metrics) CaptureResponse(statusCode int) {
	metrics.Responses.Add(1, []string{statusGroupName(statusCode)})
}

func (metrics *Metrics) CaptureTimeout() {
	metrics.Timeouts.Add(1)
}

func (metrics *Metrics) CaptureCGIStarted() {
	metrics.CGIStarted.Add(1)
}

func (metrics *Metrics) CaptureCGIFailure() {
	metrics.CGIFailures.Add(1)
}

func (metrics *Metrics) CaptureFoundFileDescriptors(files int) {
	metrics.FoundFileDescriptors.Set(float64(files))
}
