package http

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
)

const (
	Protocol = "HTTP/1.1"

	ContentTypeHeader   = "Content-Type"
	ContentLengthHeader = "Content-Length"
	LocationHeader      = "Location"
	HostHeader          = "Host"
	StatusHeader        = "Status"

	DefaultContentType = "text/plain"
	HTMLContentType    = "text/html"
)

var mimeTypes = map[string]string{
	"html": "text/html",
	"css":  "text/css",
	"js":   "text/javascript",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"ico":  "image/x-icon",
	"json": "application/json",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
}

// ContentType maps a file name to its MIME type by extension.
func ContentType(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	return DefaultContentType
}

func ReasonPhrase(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Unknown"
}

// StatusLine renders "HTTP/1.1 <code> <reason>" without the trailing CRLF.
func StatusLine(code int) string {
	return fmt.Sprintf("%s %d %s", Protocol, code, ReasonPhrase(code))
}

// Serialize renders a complete response. Content-Length is always the exact
// length of body.
func Serialize(code int, contentType string, body []byte) []byte {
	var b strings.Builder
	b.Grow(len(body) + 128)
	b.WriteString(StatusLine(code))
	b.WriteString("\r\n")
	writeHeader(&b, ContentTypeHeader, contentType)
	writeHeader(&b, ContentLengthHeader, strconv.Itoa(len(body)))
	b.WriteString("\r\n")
	b.Write(body)
	return []byte(b.String())
}

// Redirect renders a 3xx response with a Location header and an empty body.
func Redirect(code int, location string) []byte {
	var b strings.Builder
	b.WriteString(StatusLine(code))
	b.WriteString("\r\n")
	writeHeader(&b, ContentTypeHeader, HTMLContentType)
	writeHeader(&b, LocationHeader, location)
	writeHeader(&b, ContentLengthHeader, "0")
	b.WriteString("\r\n")
	return []byte(b.String())
}

func writeHeader(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}

// SplitResponse separates a serialized response into its header block and
// body at the first CRLFCRLF.
func SplitResponse(raw []byte) (head string, body []byte, ok bool) {
	idx := bytes.Index(raw, []byte("\r\n\r\n"))
	if idx < 0 {
		return "", nil, false
	}
	return string(raw[:idx]), raw[idx+4:], true
}
