package request

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"code.cloudfoundry.org/webserv/config"
)

type Status int

const (
	New Status = iota
	HeadersComplete
	BodyComplete
	Invalid
)

func (s Status) String() string {
	switch s {
	case New:
		return "new"
	case HeadersComplete:
		return "headers-complete"
	case BodyComplete:
		return "body-complete"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

const (
	protocol = "HTTP/1.1"

	// MaxHeaderBytes bounds the request line and header block.
	MaxHeaderBytes = 64 * 1024
)

var ErrInvalid = errors.New("invalid request")

var headerTerminator = []byte("\r\n\r\n")

// Request is filled incrementally by Feed. Its exported fields are only
// meaningful once Status reports HeadersComplete or later.
type Request struct {
	Method        string
	Target        string
	Path          string
	RawQuery      string
	Query         map[string]string
	Headers       map[string]string
	Body          []byte
	ContentLength int64

	status Status
	buf    []byte
	err    error
}

func NewRequest() *Request {
	return &Request{
		Query:   map[string]string{},
		Headers: map[string]string{},
	}
}

func (r *Request) Status() Status {
	return r.status
}

// Err describes why the request became Invalid. It wraps ErrInvalid.
func (r *Request) Err() error {
	return r.err
}

// Feed appends b to the request and advances the parse status. Once the
// request is Invalid it stays Invalid and further input is ignored.
func (r *Request) Feed(b []byte) Status {
	switch r.status {
	case Invalid:
		return r.status
	case BodyComplete:
		if len(b) > 0 {
			r.invalidate("%d bytes beyond the declared content length", len(b))
		}
		return r.status
	case HeadersComplete:
		r.Body = append(r.Body, b...)
		r.checkBody()
		return r.status
	}

	r.buf = append(r.buf, b...)
	end := bytes.Index(r.buf, headerTerminator)
	if end < 0 {
		if len(r.buf) > MaxHeaderBytes {
			r.invalidate("header block exceeds %d bytes", MaxHeaderBytes)
		}
		return r.status
	}
	if end > MaxHeaderBytes {
		r.invalidate("header block exceeds %d bytes", MaxHeaderBytes)
		return r.status
	}

	if err := r.parseHead(string(r.buf[:end])); err != nil {
		r.invalidate("%s", err)
		return r.status
	}

	r.status = HeadersComplete
	r.Body = append([]byte(nil), r.buf[end+len(headerTerminator):]...)
	r.buf = nil
	r.checkBody()
	return r.status
}

func (r *Request) checkBody() {
	size := int64(len(r.Body))
	switch {
	case size == r.ContentLength:
		r.status = BodyComplete
	case size > r.ContentLength:
		r.invalidate("body of %d bytes exceeds content length %d", size, r.ContentLength)
	}
}

func (r *Request) invalidate(format string, args ...any) {
	r.status = Invalid
	r.err = fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (r *Request) parseHead(head string) error {
	lines := strings.Split(head, "\r\n")
	if err := r.parseRequestLine(lines[0]); err != nil {
		return err
	}

	for _, line := range lines[1:] {
		idx := strings.IndexByte(line, ':')
		if idx <= 0 {
			return fmt.Errorf("malformed header line %q", line)
		}
		key := line[:idx]
		if strings.ContainsAny(key, " \t") {
			return fmt.Errorf("malformed header name %q", key)
		}
		r.Headers[key] = strings.TrimSpace(line[idx+1:])
	}

	r.ContentLength = 0
	if value, ok := r.Header("Content-Length"); ok {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			r.ContentLength = n
		}
	}
	return nil
}

func (r *Request) parseRequestLine(line string) error {
	first := strings.IndexByte(line, ' ')
	last := strings.LastIndexByte(line, ' ')
	if first < 0 || first == last {
		return fmt.Errorf("malformed request line %q", line)
	}
	if line[last+1:] != protocol {
		return fmt.Errorf("unsupported protocol %q", line[last+1:])
	}

	method := line[:first]
	if method != config.METHOD_GET && method != config.METHOD_POST && method != config.METHOD_DELETE {
		return fmt.Errorf("unsupported method %q", method)
	}

	target := line[first+1 : last]
	if !strings.HasPrefix(target, "/") {
		return fmt.Errorf("request target %q does not start with /", target)
	}

	r.Method = method
	r.Target = target
	r.Path, r.RawQuery, _ = strings.Cut(target, "?")
	r.Query = ParseQuery(r.RawQuery)
	return nil
}

// ParseQuery splits on "&" and then on the first "=". A pair without "="
// gets an empty value and later keys overwrite earlier ones.
func ParseQuery(raw string) map[string]string {
	query := map[string]string{}
	if raw == "" {
		return query
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		query[key] = value
	}
	return query
}

// Header returns the value stored under name exactly as received, falling
// back to a case-insensitive match.
func (r *Request) Header(name string) (string, bool) {
	if v, ok := r.Headers[name]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// CarriesBody reports whether the method delivers its body to a script.
func (r *Request) CarriesBody() bool {
	return r.Method == config.METHOD_POST || r.Method == config.METHOD_DELETE
}
