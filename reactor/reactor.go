package reactor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"code.cloudfoundry.org/webserv/cgi"
	"code.cloudfoundry.org/webserv/common/health"
	serv_http "code.cloudfoundry.org/webserv/common/http"
	"code.cloudfoundry.org/webserv/config"
	"code.cloudfoundry.org/webserv/errorwriter"
	log "code.cloudfoundry.org/webserv/logger"
	"code.cloudfoundry.org/webserv/metrics"
	"code.cloudfoundry.org/webserv/netpoll"
	"code.cloudfoundry.org/webserv/request"
	"code.cloudfoundry.org/webserv/response"
	"code.cloudfoundry.org/webserv/route"
)

const (
	listenBacklog = 128
	reapTimeout   = 2 * time.Second
)

// Reactor multiplexes every listen socket, client socket and CGI pipe over
// one epoll instance, driven from a single goroutine.
type Reactor struct {
	config      *config.Config
	logger      *slog.Logger
	builder     *response.Builder
	errorWriter errorwriter.ErrorWriter
	reaper      *cgi.Reaper
	reporter    metrics.Reporter
	health      *health.Health

	poller    *netpoll.Poller
	listeners map[int]*listenSocket
	conns     map[int]*Connection
	pipes     map[int]*Connection

	readBuf   []byte
	lastSweep time.Time
	stopping  atomic.Bool
}

func New(
	cfg *config.Config,
	builder *response.Builder,
	ew errorwriter.ErrorWriter,
	reaper *cgi.Reaper,
	reporter metrics.Reporter,
	h *health.Health,
	logger *slog.Logger,
) *Reactor {
	return &Reactor{
		config:      cfg,
		logger:      logger,
		builder:     builder,
		errorWriter: ew,
		reaper:      reaper,
		reporter:    reporter,
		health:      h,
		listeners:   map[int]*listenSocket{},
		conns:       map[int]*Connection{},
		pipes:       map[int]*Connection{},
		readBuf:     make([]byte, cfg.ChunkSize),
	}
}

// Run binds every configured address and creates the epoll instance before
// signalling readiness. It returns once a signal arrived and every socket,
// pipe and child has been released, or when waiting on epoll fails.
func (r *Reactor) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	if err := r.open(); err != nil {
		r.shutdown()
		return err
	}

	r.health.SetHealth(health.Healthy)
	close(ready)
	r.logger.Info("reactor-started", slog.Int("listeners", len(r.listeners)))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case sig := <-signals:
			r.logger.Info("received-signal", slog.String("signal", sig.String()))
			r.Stop()
		case <-done:
		}
	}()

	err := r.loop()

	close(done)
	wg.Wait()
	r.shutdown()
	return err
}

// Stop asks the loop to exit after the current wake. It is safe to call
// from any goroutine.
func (r *Reactor) Stop() {
	r.stopping.Store(true)
	if r.poller != nil {
		if err := r.poller.Wake(); err != nil {
			r.logger.Error("wake-failed", log.ErrAttr(err))
		}
	}
}

func (r *Reactor) open() error {
	poller, err := netpoll.NewPoller(r.config.MaxEvents)
	if err != nil {
		return fmt.Errorf("reactor: %w", err)
	}
	r.poller = poller

	for _, table := range route.NewTables(r.config.Servers) {
		l, err := netpoll.Listen(table.Addr, listenBacklog)
		if err != nil {
			return fmt.Errorf("reactor: %w", err)
		}
		if err := r.poller.Add(l.Fd(), netpoll.Readable); err != nil {
			l.Close()
			return fmt.Errorf("reactor: %w", err)
		}
		r.listeners[l.Fd()] = &listenSocket{Listener: l, table: table}
		r.logger.Info("listening", slog.String("address", table.Addr), slog.Int("servers", len(table.Servers)))
	}
	r.lastSweep = time.Now()
	return nil
}

func (r *Reactor) loop() error {
	for !r.stopping.Load() {
		events, err := r.poller.Wait(r.untilSweep(time.Now()))
		if err != nil {
			r.logger.Error("wait-failed", log.ErrAttr(err))
			return err
		}

		for _, ev := range events {
			if r.stopping.Load() {
				break
			}
			r.dispatch(ev)
		}

		now := time.Now()
		if r.untilSweep(now) == 0 {
			r.sweep(now)
		}
	}
	return nil
}

func (r *Reactor) untilSweep(now time.Time) time.Duration {
	d := r.lastSweep.Add(r.config.SweepInterval).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// dispatch classifies a ready descriptor. Events for descriptors released
// earlier in the same batch match none of the tables and are dropped.
func (r *Reactor) dispatch(ev netpoll.Event) {
	if l, ok := r.listeners[ev.Fd]; ok {
		r.accept(l)
		return
	}
	if c, ok := r.conns[ev.Fd]; ok {
		r.handleClient(c, ev)
		return
	}
	if c, ok := r.pipes[ev.Fd]; ok {
		r.handlePipe(c, ev)
		return
	}
}

func (r *Reactor) accept(l *listenSocket) {
	for {
		sock, peer, err := l.Accept()
		if err != nil {
			if !netpoll.WouldBlock(err) {
				r.logger.Error("accept-failed", slog.String("address", l.Addr), log.ErrAttr(err))
			}
			return
		}

		c := newConnection(sock, l, peer, time.Now(), r.logger)
		if err := r.poller.Add(c.fd, netpoll.Readable); err != nil {
			c.logger.Error("register-failed", log.ErrAttr(err))
			sock.Close()
			continue
		}
		r.conns[c.fd] = c
		r.reporter.CaptureConnectionAccepted()
		c.logger.Debug("connection-accepted", slog.String("address", l.Addr))
	}
}

func (r *Reactor) handleClient(c *Connection, ev netpoll.Event) {
	switch c.interest {
	case netpoll.Readable:
		if ev.Readable || ev.Hangup || ev.Error {
			r.readClient(c)
		}
	case netpoll.Writable:
		if ev.Writable || ev.Hangup || ev.Error {
			r.writeClient(c)
		}
	}
}

func (r *Reactor) readClient(c *Connection) {
	n, err := c.sock.Read(r.readBuf)
	if err != nil {
		if netpoll.WouldBlock(err) {
			return
		}
		c.logger.Info("read-failed", log.ErrAttr(err))
		r.closeConnection(c)
		return
	}
	if n == 0 {
		c.logger.Debug("peer-closed")
		r.closeConnection(c)
		return
	}
	c.touch(time.Now())

	switch c.req.Feed(r.readBuf[:n]) {
	case request.Invalid:
		c.logger.Info("invalid-request", log.ErrAttr(c.req.Err()))
		r.reporter.CaptureBadRequest()
		r.closeConnection(c)

	case request.HeadersComplete:
		if c.decision == nil {
			r.route(c)
		}

	case request.BodyComplete:
		if c.decision == nil {
			r.route(c)
		}
		if c.interest == netpoll.Readable && c.cgi == nil && !c.resp.Ready() {
			r.serve(c)
		}
	}
}

// route runs once per request, as soon as the headers are in. Terminal
// decisions are answered without waiting for the body.
func (r *Reactor) route(c *Connection) {
	host, _ := c.req.Header(serv_http.HostHeader)
	c.decision = c.socket.table.Route(c.req.Method, route.Uri(c.req.Path), route.Host(host), c.req.ContentLength)
	c.resp.Location = c.decision.Location

	c.logger.Debug("request-routed",
		slog.String("method", c.req.Method),
		slog.String("path", c.req.Path),
		slog.String("host", host),
		slog.Int("status", c.decision.Status),
	)

	if c.decision.Terminal() {
		res := r.builder.Build(c.decision, c.req.Path, c.logger)
		r.respond(c, res.Status, res.Raw)
	}
}

func (r *Reactor) serve(c *Connection) {
	res := r.builder.Build(c.decision, c.req.Path, c.logger)
	if res.Script != nil {
		r.startCGI(c, res.Script)
		return
	}
	r.respond(c, res.Status, res.Raw)
}

func (r *Reactor) respondError(c *Connection, code int) {
	res := r.builder.Error(code, c.errorPages(), c.logger)
	r.respond(c, res.Status, res.Raw)
}

// respond installs the serialized response and switches the client to
// write readiness.
func (r *Reactor) respond(c *Connection, status int, raw []byte) {
	if !c.resp.Set(status, raw) {
		c.logger.Error("response-already-started", slog.Int("status", status))
		return
	}
	if c.interest == netpoll.Writable {
		return
	}
	if err := r.poller.Modify(c.fd, netpoll.Writable); err != nil {
		c.logger.Error("modify-interest-failed", log.ErrAttr(err))
		r.closeConnection(c)
		return
	}
	c.interest = netpoll.Writable
}

func (r *Reactor) writeClient(c *Connection) {
	if !c.resp.Ready() {
		return
	}
	n, err := c.sock.Write(c.resp.Pending())
	if err != nil {
		if netpoll.WouldBlock(err) {
			return
		}
		c.logger.Info("write-failed", log.ErrAttr(err))
		r.closeConnection(c)
		return
	}
	c.resp.Advance(n)
	c.touch(time.Now())

	if c.resp.Done() {
		r.reporter.CaptureResponse(c.resp.Status)
		c.logger.Info("response-sent",
			slog.String("method", c.req.Method),
			slog.String("path", c.req.Path),
			slog.Int("status", c.resp.Status),
			slog.Int("bytes", c.resp.Len()),
		)
		r.closeConnection(c)
	}
}

// closeConnection releases everything the connection owns: its CGI child
// and pipes, its epoll registration and its socket.
func (r *Reactor) closeConnection(c *Connection) {
	if c.cgi != nil {
		r.detachCGI(c)
	}
	if err := r.poller.Remove(c.fd); err != nil && !errors.Is(err, netpoll.ErrClosed) {
		c.logger.Debug("deregister-failed", log.ErrAttr(err))
	}
	delete(r.conns, c.fd)
	c.sock.Close()
	r.reporter.CaptureConnectionClosed()
	c.logger.Debug("connection-closed")
}

// shutdown closes the listen sockets, then the clients, then the epoll
// instance. Children still attached to a client are killed on the way.
func (r *Reactor) shutdown() {
	r.health.SetHealth(health.Degraded)

	for fd, l := range r.listeners {
		if r.poller != nil {
			r.poller.Remove(fd)
		}
		l.Close()
		delete(r.listeners, fd)
	}
	for _, c := range r.conns {
		r.closeConnection(c)
	}
	if r.poller != nil {
		r.poller.Close()
	}
	if n := r.reaper.Drain(reapTimeout); n > 0 {
		r.logger.Error("children-left-behind", slog.Int("count", n))
	}
	r.logger.Info("reactor-stopped")
}
