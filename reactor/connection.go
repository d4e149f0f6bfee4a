package reactor

import (
	"log/slog"
	"time"

	"code.cloudfoundry.org/webserv/cgi"
	"code.cloudfoundry.org/webserv/common/uuid"
	"code.cloudfoundry.org/webserv/netpoll"
	"code.cloudfoundry.org/webserv/request"
	"code.cloudfoundry.org/webserv/response"
	"code.cloudfoundry.org/webserv/route"
)

// listenSocket is a bound listener together with the virtual hosts that
// share its address.
type listenSocket struct {
	*netpoll.Listener
	table *route.Table
}

// Connection is the state of one client socket. It is registered for
// exactly one readiness direction at a time: Readable until a response is
// ready, Writable until the response is flushed.
type Connection struct {
	id     string
	fd     int
	sock   *netpoll.Descriptor
	socket *listenSocket
	peer   string
	logger *slog.Logger

	req      *request.Request
	resp     *response.Response
	decision *route.Decision
	cgi      *cgi.Link

	interest     netpoll.Interest
	lastActivity time.Time
}

func newConnection(sock *netpoll.Descriptor, socket *listenSocket, peer string, now time.Time, logger *slog.Logger) *Connection {
	id := uuid.ConnectionID()
	return &Connection{
		id:           id,
		fd:           sock.Fd(),
		sock:         sock,
		socket:       socket,
		peer:         peer,
		logger:       logger.With(slog.String("connection", id), slog.String("peer", peer)),
		req:          request.NewRequest(),
		resp:         &response.Response{},
		interest:     netpoll.Readable,
		lastActivity: now,
	}
}

func (c *Connection) touch(now time.Time) {
	c.lastActivity = now
}

// errorPages prefers the location the response was resolved against and
// falls back to the virtual host when none matched.
func (c *Connection) errorPages() map[int]string {
	if c.resp.Location != nil {
		return c.resp.Location.ErrorPages
	}
	if c.decision == nil {
		return nil
	}
	return c.decision.ErrorPages()
}

// idle reports whether nothing happened on the connection for longer than
// timeout.
func (c *Connection) idle(now time.Time, timeout time.Duration) bool {
	return now.Sub(c.lastActivity) >= timeout
}
