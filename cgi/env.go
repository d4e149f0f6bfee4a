package cgi

import (
	"sort"
	"strconv"
	"strings"

	"code.cloudfoundry.org/webserv/request"
)

type Meta struct {
	Script     string
	ServerName string
	ServerPort string
	RemoteAddr string
}

// Environ builds the meta-variables for one request. Every request header
// becomes a variable named after it in upper case with hyphens turned into
// underscores; the protocol variables are set afterwards and win on
// collision.
func Environ(req *request.Request, meta Meta) []string {
	env := map[string]string{}
	for key, value := range req.Headers {
		env[metaName(key)] = value
	}

	env["PATH_INFO"] = req.Path
	env["SERVER_PROTOCOL"] = "HTTP/1.1"
	env["GATEWAY_INTERFACE"] = "CGI/1.1"
	env["QUERY_STRING"] = req.RawQuery
	env["REQUEST_METHOD"] = req.Method
	env["SCRIPT_FILENAME"] = meta.Script
	env["CONTENT_LENGTH"] = strconv.FormatInt(req.ContentLength, 10)
	if meta.ServerName != "" {
		env["SERVER_NAME"] = meta.ServerName
	}
	if meta.ServerPort != "" {
		env["SERVER_PORT"] = meta.ServerPort
	}
	if meta.RemoteAddr != "" {
		env["REMOTE_ADDR"] = meta.RemoteAddr
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func metaName(header string) string {
	return strings.ToUpper(strings.ReplaceAll(header, "-", "_"))
}
