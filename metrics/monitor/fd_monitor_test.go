package monitor_test

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/tedsuo/ifrit"

	"code.cloudfoundry.org/webserv/metrics/fakes"
	"code.cloudfoundry.org/webserv/metrics/monitor"
	"code.cloudfoundry.org/webserv/test_util"
)

var _ = Describe("FileDescriptor", func() {
	var (
		reporter *fakes.FakeReporter
		procPath string
		tr       *time.Ticker
		logger   *test_util.TestLogger
	)

	BeforeEach(func() {
		tr = time.NewTicker(1 * time.Second)
		reporter = &fakes.FakeReporter{}
		logger = test_util.NewTestLogger("test")
		procPath = ""
	})

	AfterEach(func() {
		tr.Stop()
		Expect(os.RemoveAll(procPath)).To(Succeed())
	})

	It("exits when os signal is received", func() {
		fdMonitor := monitor.NewFileDescriptor(procPath, tr, reporter, logger.Logger)
		process := ifrit.Invoke(fdMonitor)
		Eventually(process.Ready()).Should(BeClosed())

		process.Signal(os.Interrupt)
		var err error
		Eventually(process.Wait()).Should(Receive(&err))
		Expect(err).ToNot(HaveOccurred())
		Expect(logger).To(gbytes.Say("exited"))
	})

	It("monitors all the open file descriptors for a given pid", func() {
		procPath = createTestPath("", 10)
		fdMonitor := monitor.NewFileDescriptor(procPath, tr, reporter, logger.Logger)
		process := ifrit.Invoke(fdMonitor)
		Eventually(process.Ready()).Should(BeClosed())

		Eventually(reporter.CaptureFoundFileDescriptorsCallCount, "2s").Should(Equal(1))
		Expect(reporter.CaptureFoundFileDescriptorsArgsForCall(0)).To(Equal(10))

		// create some more FDs
		createTestPath(procPath, 20)

		Eventually(reporter.CaptureFoundFileDescriptorsCallCount, "2s").Should(Equal(2))
		Expect(reporter.CaptureFoundFileDescriptorsArgsForCall(1)).To(Equal(20))

		process.Signal(os.Interrupt)
		Eventually(process.Wait()).Should(Receive())
	})

	It("logs and keeps running when the path cannot be read", func() {
		fdMonitor := monitor.NewFileDescriptor("/nonexistent/fd", tr, reporter, logger.Logger)
		process := ifrit.Invoke(fdMonitor)

		Eventually(logger, "2s").Should(gbytes.Say("error-reading-filedescriptor-path"))
		Expect(reporter.CaptureFoundFileDescriptorsCallCount()).To(BeZero())

		process.Signal(os.Interrupt)
		Eventually(process.Wait()).Should(Receive())
	})
})

var _ = Describe("CountFileDescriptors", func() {
	It("counts the descriptors of the running process", func() {
		n, err := monitor.CountFileDescriptors(monitor.ProcSelfFd)
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(BeNumerically(">=", 3))

		f, err := os.Open(os.DevNull)
		Expect(err).ToNot(HaveOccurred())
		defer f.Close()

		m, err := monitor.CountFileDescriptors(monitor.ProcSelfFd)
		Expect(err).ToNot(HaveOccurred())
		Expect(m).To(Equal(n + 1))
	})
})

func createTestPath(path string, symlink int) string {
	// Create symlink structure similar to /proc/pid/fd in linux file system
	createSymlink := func(dir string, n int) {
		fd, err := os.CreateTemp(dir, "socket")
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < n; i++ {
			fdId := strconv.Itoa(i)
			symlink := filepath.Join(dir, fdId)
			os.Symlink(fd.Name()+fdId, symlink)
		}
	}
	if path != "" {
		createSymlink(path, symlink)
		return path
	}
	procPath, err := os.MkdirTemp("", "proc")
	Expect(err).NotTo(HaveOccurred())
	createSymlink(procPath, symlink)
	return procPath
}
