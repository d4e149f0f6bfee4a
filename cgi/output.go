package cgi

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	serv_http "code.cloudfoundry.org/webserv/common/http"
	"code.cloudfoundry.org/webserv/errorwriter"
)

type header struct {
	key   string
	value string
}

// Finish turns raw script output into a complete response.
//
// A Status meta-header selects the status line; without it the response is
// 200 OK. When pages holds an override for a non-2xx status the error page
// replaces the script output. Output without a header block is sent as a
// plain text body. The response always carries an exact Content-Length.
func Finish(output []byte, pages map[int]string, ew errorwriter.ErrorWriter, logger *slog.Logger) (int, []byte) {
	if len(output) == 0 {
		logger.Info("cgi-empty-output")
		return http.StatusInternalServerError, ew.WriteError(http.StatusInternalServerError, pages, logger)
	}

	head, body, ok := splitHead(output)
	if !ok {
		return http.StatusOK, serv_http.Serialize(http.StatusOK, serv_http.DefaultContentType, output)
	}

	headers, ok := parseHeaders(head)
	if !ok {
		return http.StatusOK, serv_http.Serialize(http.StatusOK, serv_http.DefaultContentType, output)
	}

	status, reason := http.StatusOK, ""
	contentType := ""
	rest := headers[:0]
	for _, h := range headers {
		switch {
		case strings.EqualFold(h.key, serv_http.StatusHeader):
			code, text, err := parseStatus(h.value)
			if err != nil {
				logger.Info("cgi-invalid-status", slog.String("status", h.value))
				return http.StatusInternalServerError, ew.WriteError(http.StatusInternalServerError, pages, logger)
			}
			status, reason = code, text
		case strings.EqualFold(h.key, serv_http.ContentLengthHeader):
		case strings.EqualFold(h.key, serv_http.ContentTypeHeader):
			contentType = h.value
		default:
			rest = append(rest, h)
		}
	}

	if status < 200 || status > 299 {
		if _, override := pages[status]; override {
			return status, ew.WriteError(status, pages, logger)
		}
	}

	if reason == "" {
		reason = serv_http.ReasonPhrase(status)
	}
	if contentType == "" {
		contentType = serv_http.DefaultContentType
	}

	var b bytes.Buffer
	b.Grow(len(body) + 256)
	fmt.Fprintf(&b, "%s %d %s\r\n", serv_http.Protocol, status, reason)
	fmt.Fprintf(&b, "%s: %s\r\n", serv_http.ContentTypeHeader, contentType)
	for _, h := range rest {
		fmt.Fprintf(&b, "%s: %s\r\n", h.key, h.value)
	}
	fmt.Fprintf(&b, "%s: %d\r\n\r\n", serv_http.ContentLengthHeader, len(body))
	b.Write(body)
	return status, b.Bytes()
}

// splitHead finds the end of the header block. Scripts may terminate lines
// with either CRLF or LF.
func splitHead(output []byte) (string, []byte, bool) {
	crlf := bytes.Index(output, []byte("\r\n\r\n"))
	lf := bytes.Index(output, []byte("\n\n"))

	switch {
	case crlf < 0 && lf < 0:
		return "", nil, false
	case lf < 0 || (crlf >= 0 && crlf < lf):
		return string(output[:crlf]), output[crlf+4:], true
	default:
		return string(output[:lf]), output[lf+2:], true
	}
}

func parseHeaders(head string) ([]header, bool) {
	var headers []header
	for _, line := range strings.Split(head, "\n") {
		line = strings.TrimSuffix(line, "\r")
		idx := strings.IndexByte(line, ':')
		if idx <= 0 || strings.ContainsAny(line[:idx], " \t") {
			return nil, false
		}
		headers = append(headers, header{key: line[:idx], value: strings.TrimSpace(line[idx+1:])})
	}
	return headers, true
}

// parseStatus accepts "NNN" or "NNN reason" with NNN in 100..599.
func parseStatus(value string) (int, string, error) {
	if len(value) < 3 || (len(value) > 3 && value[3] != ' ') {
		return 0, "", fmt.Errorf("malformed status %q", value)
	}
	code, err := strconv.Atoi(value[:3])
	if err != nil || code < 100 || code > 599 {
		return 0, "", fmt.Errorf("malformed status %q", value)
	}
	return code, strings.TrimSpace(value[3:]), nil
}
