package cgi_test

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"code.cloudfoundry.org/webserv/cgi"
	"code.cloudfoundry.org/webserv/test_util"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Link", func() {
	var (
		dir    string
		reaper *cgi.Reaper
	)

	script := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0755)).To(Succeed())
		return path
	}

	drain := func(link *cgi.Link) string {
		Eventually(func() bool {
			if link.InputFd() >= 0 {
				_, err := link.WriteBody()
				Expect(err).ToNot(HaveOccurred())
			}
			eof, err := link.ReadOutput()
			Expect(err).ToNot(HaveOccurred())
			return eof
		}, 5*time.Second, time.Millisecond).Should(BeTrue())
		return string(link.Output())
	}

	alive := func(pid int) bool {
		return unix.Kill(pid, 0) == nil
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "cgi-link")
		Expect(err).ToNot(HaveOccurred())
		reaper = cgi.NewReaper(test_util.NewTestLogger("reaper").Logger)
	})

	AfterEach(func() {
		Eventually(reaper.Poll).Should(BeZero())
		os.RemoveAll(dir)
	})

	It("streams the body in and the output out", func() {
		path := script("echo.sh", "printf 'Status: 201 Created\\r\\n\\r\\n'\ncat\n")

		link, err := cgi.Start(cgi.Spec{
			Interpreter: "/bin/sh",
			Script:      path,
			Body:        []byte("a=1"),
			WithBody:    true,
			ChunkSize:   2,
		}, reaper)
		Expect(err).ToNot(HaveOccurred())
		Expect(link.State()).To(Equal(cgi.Streaming))

		Expect(drain(link)).To(Equal("Status: 201 Created\r\n\r\na=1"))
		Expect(link.Written()).To(Equal(3))
		Expect(link.State()).To(Equal(cgi.Draining))

		link.Terminate()
		Expect(link.State()).To(Equal(cgi.Done))
		Expect(link.InputFd()).To(Equal(-1))
		Expect(link.OutputFd()).To(Equal(-1))
	})

	It("closes the input right away without a body", func() {
		path := script("env.sh", "printf \"$REQUEST_METHOD\"\n")

		link, err := cgi.Start(cgi.Spec{
			Interpreter: "/bin/sh",
			Script:      path,
			Env:         []string{"REQUEST_METHOD=GET"},
			Body:        []byte("ignored"),
		}, reaper)
		Expect(err).ToNot(HaveOccurred())
		Expect(link.State()).To(Equal(cgi.Draining))
		Expect(link.InputFd()).To(Equal(-1))

		Expect(drain(link)).To(Equal("GET"))
		link.Terminate()
	})

	It("runs the script from its own directory", func() {
		path := script("pwd.sh", "pwd -P\n")

		link, err := cgi.Start(cgi.Spec{Interpreter: "/bin/sh", Script: path}, reaper)
		Expect(err).ToNot(HaveOccurred())

		resolved, err := filepath.EvalSymlinks(dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(strings.TrimSpace(drain(link))).To(Equal(resolved))
		link.Terminate()
	})

	It("kills and reaps a running child on terminate", func() {
		path := script("sleep.sh", "exec sleep 30\n")

		link, err := cgi.Start(cgi.Spec{Interpreter: "/bin/sh", Script: path}, reaper)
		Expect(err).ToNot(HaveOccurred())
		pid := link.Pid()
		Expect(alive(pid)).To(BeTrue())

		link.Terminate()
		link.Terminate()
		Expect(link.State()).To(Equal(cgi.Done))

		Eventually(reaper.Poll).Should(BeZero())
		Expect(alive(pid)).To(BeFalse())
	})

	It("fails the body write once the script closed its input", func() {
		path := script("deaf.sh", "exec 0<&-\nsleep 0.2\nprintf done\n")

		link, err := cgi.Start(cgi.Spec{
			Interpreter: "/bin/sh",
			Script:      path,
			Body:        make([]byte, 1<<20),
			WithBody:    true,
			ChunkSize:   64 * 1024,
		}, reaper)
		Expect(err).ToNot(HaveOccurred())

		Eventually(func() error {
			_, err := link.WriteBody()
			return err
		}, 5*time.Second, time.Millisecond).Should(MatchError(unix.EPIPE))
		Expect(link.Written()).To(BeNumerically("<", 1<<20))

		link.Terminate()
	})

	It("leaves nothing behind when the interpreter cannot start", func() {
		before := countFds()
		_, err := cgi.Start(cgi.Spec{Interpreter: filepath.Join(dir, "missing"), Script: "x"}, reaper)
		Expect(err).To(MatchError(ContainSubstring("cgi: start")))
		Expect(countFds()).To(Equal(before))
	})

	It("reads nothing more once terminated", func() {
		path := script("out.sh", "echo hi\n")
		link, err := cgi.Start(cgi.Spec{Interpreter: "/bin/sh", Script: path}, reaper)
		Expect(err).ToNot(HaveOccurred())
		link.Terminate()

		eof, err := link.ReadOutput()
		Expect(err).ToNot(HaveOccurred())
		Expect(eof).To(BeTrue())
		done, err := link.WriteBody()
		Expect(err).ToNot(HaveOccurred())
		Expect(done).To(BeTrue())
	})
})

func countFds() int {
	entries, err := os.ReadDir("/proc/self/fd")
	Expect(err).ToNot(HaveOccurred())
	return len(entries)
}
