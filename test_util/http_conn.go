package test_util

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/gomega"
)

type HttpConn struct {
	net.Conn

	Reader *bufio.Reader
	Writer *bufio.Writer
}

func NewHttpConn(x net.Conn) *HttpConn {
	return &HttpConn{
		Conn:   x,
		Reader: bufio.NewReader(x),
		Writer: bufio.NewWriter(x),
	}
}

// DialHttp connects to addr, failing the current test if it cannot.
func DialHttp(addr string) *HttpConn {
	var conn net.Conn
	EventuallyWithOffset(1, func() error {
		var err error
		conn, err = net.DialTimeout("tcp", addr, time.Second)
		return err
	}).Should(Succeed())
	return NewHttpConn(conn)
}

// WriteRaw sends s verbatim, without any framing.
func (x *HttpConn) WriteRaw(s string) {
	_, err := x.Writer.WriteString(s)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	ExpectWithOffset(1, x.Writer.Flush()).To(Succeed())
}

func (x *HttpConn) WriteLine(line string) {
	x.Writer.WriteString(line)
	x.Writer.WriteString("\r\n")
	x.Writer.Flush()
}

func (x *HttpConn) WriteLines(lines []string) {
	for _, e := range lines {
		x.WriteLine(e)
	}

	x.WriteLine("")
}

// ReadAll reads until the server closes the connection.
func (x *HttpConn) ReadAll(timeout time.Duration) string {
	x.Conn.SetReadDeadline(time.Now().Add(timeout))
	b, err := io.ReadAll(x.Reader)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return string(b)
}

func (x *HttpConn) ReadResponse() (*http.Response, string) {
	x.Conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	resp, err := http.ReadResponse(x.Reader, &http.Request{Method: http.MethodGet})
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	return resp, string(b)
}

func (x *HttpConn) CheckLine(expected string) {
	l, err := x.Reader.ReadString('\n')
	Expect(err).NotTo(HaveOccurred())
	Expect(strings.TrimRight(l, "\r\n")).To(Equal(expected))
}

// ExpectClosed asserts that the peer closes the connection without sending
// anything else.
func (x *HttpConn) ExpectClosed(timeout time.Duration) {
	x.Conn.SetReadDeadline(time.Now().Add(timeout))
	b, err := io.ReadAll(x.Reader)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	ExpectWithOffset(1, b).To(BeEmpty())
}
