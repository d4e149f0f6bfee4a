package route

import (
	"net/http"
	"path/filepath"
	"strings"

	"code.cloudfoundry.org/webserv/config"
)

// Table holds the virtual hosts sharing one listen socket, in configuration
// order.
type Table struct {
	Addr    string
	Servers []*config.ServerConfig
}

// NewTables groups virtual hosts by listen address. Hosts that repeat an
// address share its table so that only one socket is bound per address.
func NewTables(servers []*config.ServerConfig) []*Table {
	var tables []*Table
	byAddr := map[string]*Table{}

	for _, server := range servers {
		for _, addr := range server.ListenAddrs {
			t, ok := byAddr[addr]
			if !ok {
				t = &Table{Addr: addr}
				byAddr[addr] = t
				tables = append(tables, t)
			}
			if !containsServer(t.Servers, server) {
				t.Servers = append(t.Servers, server)
			}
		}
	}
	return tables
}

func containsServer(list []*config.ServerConfig, s *config.ServerConfig) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

// SelectServer matches the Host header against server_names and falls back
// to the first virtual host bound to the socket.
func (t *Table) SelectServer(host Host) *config.ServerConfig {
	if len(t.Servers) == 0 {
		return nil
	}
	name := host.Name()
	if name != "" {
		for _, s := range t.Servers {
			for _, n := range s.ServerNames {
				if strings.EqualFold(n, name) {
					return s
				}
			}
		}
	}
	return t.Servers[0]
}

// SelectLocation returns the location with the longest path that prefixes
// uri. Locations are kept sorted by descending path length.
func SelectLocation(server *config.ServerConfig, uri Uri) *config.Location {
	for _, loc := range server.Locations {
		if uri.HasPrefix(loc.Path) {
			return loc
		}
	}
	return nil
}

type Decision struct {
	Server   *config.ServerConfig
	Location *config.Location

	// Status is non-zero when routing already decided the response: an
	// error status or the redirect code.
	Status     int
	RedirectTo string

	// Stripped is the request path with the location prefix removed and
	// FilePath the same path under the location root.
	Stripped string
	FilePath string
}

func (d *Decision) Terminal() bool {
	return d.Status != 0
}

func (d *Decision) IsRedirect() bool {
	return d.RedirectTo != ""
}

// ErrorPages returns the overrides that apply to this decision.
func (d *Decision) ErrorPages() map[int]string {
	if d.Location != nil {
		return d.Location.ErrorPages
	}
	if d.Server != nil {
		return d.Server.ErrorPages
	}
	return nil
}

// Route selects the virtual host and location for a request whose headers
// are complete, then applies the method, body size and redirect policies in
// that order. The first policy that fires decides the response.
func (t *Table) Route(method string, uri Uri, host Host, contentLength int64) *Decision {
	d := &Decision{Server: t.SelectServer(host)}
	if d.Server == nil {
		d.Status = http.StatusNotFound
		return d
	}

	d.Location = SelectLocation(d.Server, uri)
	if d.Location == nil {
		d.Status = http.StatusNotFound
		return d
	}

	if !d.Location.Allows(method) {
		d.Status = http.StatusMethodNotAllowed
		return d
	}

	if contentLength > d.Location.MaxBodySize {
		d.Status = http.StatusRequestEntityTooLarge
		return d
	}

	if d.Location.Redirect != nil {
		d.Status = d.Location.Redirect.Code
		d.RedirectTo = d.Location.Redirect.Path
		return d
	}

	d.Stripped = uri.Strip(d.Location.Path)
	d.FilePath = filepath.Join(d.Location.Root, d.Stripped)
	return d
}
