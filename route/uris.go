package route

import (
	"path"
	"strings"
)

// Host is the value of a Host header, possibly carrying a port.
type Host string

// Name drops the port suffix and surrounding whitespace.
func (h Host) Name() string {
	name := strings.TrimSpace(string(h))
	if idx := strings.LastIndexByte(name, ':'); idx >= 0 && !strings.Contains(name[idx:], "]") {
		name = name[:idx]
	}
	return name
}

func (h Host) String() string {
	return string(h)
}

// Uri is a request path without its query string.
type Uri string

// Strip removes the location prefix and returns a rooted, cleaned path.
// A trailing slash on the request path survives cleaning.
func (u Uri) Strip(prefix string) string {
	rest := strings.TrimPrefix(string(u), prefix)
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}

	cleaned := path.Clean(rest)
	if strings.HasSuffix(rest, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

func (u Uri) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(u), prefix)
}

func (u Uri) String() string {
	return string(u)
}
