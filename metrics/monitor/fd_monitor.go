package monitor

import (
	"log/slog"
	"os"
	"time"

	log "code.cloudfoundry.org/webserv/logger"
	"code.cloudfoundry.org/webserv/metrics"
)

const ProcSelfFd = "/proc/self/fd"

// FileDescriptor periodically reports how many descriptors the process
// holds. A count that keeps growing under steady load is a leak.
type FileDescriptor struct {
	path     string
	ticker   *time.Ticker
	reporter metrics.MonitorReporter
	logger   *slog.Logger
}

func NewFileDescriptor(path string, ticker *time.Ticker, reporter metrics.MonitorReporter, logger *slog.Logger) *FileDescriptor {
	return &FileDescriptor{
		path:     path,
		ticker:   ticker,
		reporter: reporter,
		logger:   logger,
	}
}

func (f *FileDescriptor) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	close(ready)
	for {
		select {
		case <-f.ticker.C:
			numFds, err := CountFileDescriptors(f.path)
			if err != nil {
				f.logger.Error("error-reading-filedescriptor-path", log.ErrAttr(err))
				break
			}
			f.logger.Debug("found-file-descriptors", slog.Int("count", numFds))
			f.reporter.CaptureFoundFileDescriptors(numFds)

		case <-signals:
			f.logger.Info("exited")
			return nil
		}
	}
}

// CountFileDescriptors counts the symlinks in a /proc/<pid>/fd style
// directory.
func CountFileDescriptors(path string) (int, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return 0, err
	}
	return symlinks(dirEntries), nil
}

func symlinks(fileInfos []os.DirEntry) (count int) {
	for i := 0; i < len(fileInfos); i++ {
		if fileInfos[i].Type()&os.ModeSymlink == os.ModeSymlink {
			count++
		}
	}
	return count
}
