package metrics

import "fmt"

//go:generate counterfeiter -o fakes/fake_reporter.go . Reporter
type Reporter interface {
	ConnectionReporter
	CGIReporter
	MonitorReporter
}

type ConnectionReporter interface {
	CaptureConnectionAccepted()
	CaptureConnectionClosed()
	CaptureBadRequest()
	CaptureResponse(statusCode int)
	CaptureTimeout()
}

type CGIReporter interface {
	CaptureCGIStarted()
	CaptureCGIFailure()
}

type MonitorReporter interface {
	CaptureFoundFileDescriptors(files int)
}

// NullReporter discards every measurement. It is used when no prometheus
// port is configured.
type NullReporter struct{}

var _ Reporter = NullReporter{}

func (NullReporter) CaptureConnectionAccepted()      {}
func (NullReporter) CaptureConnectionClosed()        {}
func (NullReporter) CaptureBadRequest()              {}
func (NullReporter) CaptureResponse(int)             {}
func (NullReporter) CaptureTimeout()                 {}
func (NullReporter) CaptureCGIStarted()              {}
func (NullReporter) CaptureCGIFailure()              {}
func (NullReporter) CaptureFoundFileDescriptors(int) {}

// StatusGroup buckets a status code into the label used for response counts.
func StatusGroup(statusCode int) string {
	group := statusCode / 100
	if group >= 1 && group <= 5 {
		return fmt.Sprintf("%dxx", group)
	}
	return "xxx"
}
