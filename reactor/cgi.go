package reactor

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"code.cloudfoundry.org/webserv/cgi"
	serv_http "code.cloudfoundry.org/webserv/common/http"
	log "code.cloudfoundry.org/webserv/logger"
	"code.cloudfoundry.org/webserv/netpoll"
	"code.cloudfoundry.org/webserv/response"
	"code.cloudfoundry.org/webserv/route"
)

func (r *Reactor) startCGI(c *Connection, script *response.Script) {
	meta := r.meta(c, script.Path)
	link, err := cgi.Start(cgi.Spec{
		Interpreter: script.Interpreter,
		Script:      script.Path,
		Env:         cgi.Environ(c.req, meta),
		Body:        c.req.Body,
		WithBody:    c.req.CarriesBody(),
		ChunkSize:   r.config.ChunkSize,
	}, r.reaper)
	if err != nil {
		c.logger.Error("cgi-start-failed", log.ErrAttr(err))
		r.reporter.CaptureCGIFailure()
		r.respondError(c, http.StatusInternalServerError)
		return
	}
	c.cgi = link
	c.logger.Info("cgi-started", slog.String("script", script.Path), slog.Int("pid", link.Pid()))

	if err := r.attachPipe(c, link.OutputFd(), netpoll.Readable); err != nil {
		r.failCGI(c, err)
		return
	}
	if fd := link.InputFd(); fd >= 0 {
		if err := r.attachPipe(c, fd, netpoll.Writable); err != nil {
			r.failCGI(c, err)
			return
		}
	}
	r.reporter.CaptureCGIStarted()
}

func (r *Reactor) attachPipe(c *Connection, fd int, in netpoll.Interest) error {
	if err := r.poller.Add(fd, in); err != nil {
		return err
	}
	r.pipes[fd] = c
	return nil
}

// meta fills the server side meta-variables. SERVER_NAME is the requested
// host when there is one, else the bound address, else the local IP.
func (r *Reactor) meta(c *Connection, script string) cgi.Meta {
	host, port, _ := net.SplitHostPort(c.socket.Addr)
	name := ""
	if h, ok := c.req.Header(serv_http.HostHeader); ok {
		name = route.Host(h).Name()
	}
	if name == "" && host != "0.0.0.0" {
		name = host
	}
	if name == "" {
		name = r.config.Ip
	}
	return cgi.Meta{
		Script:     script,
		ServerName: name,
		ServerPort: port,
		RemoteAddr: c.peer,
	}
}

func (r *Reactor) handlePipe(c *Connection, ev netpoll.Event) {
	link := c.cgi
	if link == nil {
		delete(r.pipes, ev.Fd)
		return
	}
	c.touch(time.Now())

	switch ev.Fd {
	case link.InputFd():
		done, err := link.WriteBody()
		if err != nil {
			r.failCGI(c, err)
			return
		}
		if done {
			// closing the write end dropped it from the epoll set
			delete(r.pipes, ev.Fd)
			c.logger.Debug("cgi-body-written", slog.Int("bytes", link.Written()))
		}

	case link.OutputFd():
		eof, err := link.ReadOutput()
		if err != nil {
			r.failCGI(c, err)
			return
		}
		if eof {
			r.finishCGI(c)
		}
	}
}

func (r *Reactor) finishCGI(c *Connection) {
	output := c.cgi.Output()
	r.detachCGI(c)

	status, raw := cgi.Finish(output, c.errorPages(), r.errorWriter, c.logger)
	c.logger.Debug("cgi-finished", slog.Int("status", status), slog.Int("output", len(output)))
	r.respond(c, status, raw)
}

func (r *Reactor) failCGI(c *Connection, err error) {
	c.logger.Error("cgi-failed", log.ErrAttr(err))
	r.reporter.CaptureCGIFailure()
	r.detachCGI(c)
	r.respondError(c, http.StatusInternalServerError)
}

// detachCGI removes both pipes from epoll and the ownership table, then
// kills and reaps the child, all in one step.
func (r *Reactor) detachCGI(c *Connection) {
	link := c.cgi
	for _, fd := range []int{link.InputFd(), link.OutputFd()} {
		if fd < 0 {
			continue
		}
		if owner, ok := r.pipes[fd]; ok && owner == c {
			r.poller.Remove(fd)
			delete(r.pipes, fd)
		}
	}
	link.Terminate()
	c.cgi = nil
	c.logger.Debug("cgi-detached", slog.Int("pid", link.Pid()))
}
