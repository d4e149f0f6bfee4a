package cgi

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/unix"

	"code.cloudfoundry.org/webserv/netpoll"
)

type State int

const (
	Starting State = iota
	Streaming
	Draining
	Done
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Streaming:
		return "streaming"
	case Draining:
		return "draining"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

type Spec struct {
	Interpreter string
	Script      string
	Env         []string
	Body        []byte
	// WithBody delivers Body on the child's standard input. Otherwise the
	// input is closed right away.
	WithBody  bool
	ChunkSize int
}

// Link connects one child process to the event loop through two
// non-blocking pipes. The parent writes the request body into input and
// reads the script output from output.
type Link struct {
	state  State
	pid    int
	reaped bool

	input  *netpoll.Descriptor
	output *netpoll.Descriptor

	body    []byte
	written int
	buf     []byte
	chunk   []byte

	reaper *Reaper
}

// Start runs the interpreter with the script as its only argument. On error
// nothing is left behind: no descriptor stays open and no child runs.
func Start(spec Spec, reaper *Reaper) (*Link, error) {
	if spec.ChunkSize <= 0 {
		spec.ChunkSize = 4096
	}

	inR, inW, err := netpoll.Pipe()
	if err != nil {
		return nil, fmt.Errorf("cgi: input pipe: %w", err)
	}
	outR, outW, err := netpoll.Pipe()
	if err != nil {
		inR.Close()
		inW.Close()
		return nil, fmt.Errorf("cgi: output pipe: %w", err)
	}

	stdin := inR.File("cgi-stdin")
	stdout := outW.File("cgi-stdout")

	cmd := exec.Command(spec.Interpreter, spec.Script)
	cmd.Env = spec.Env
	cmd.Dir = filepath.Dir(spec.Script)
	cmd.Stdin = stdin
	cmd.Stdout = stdout

	err = cmd.Start()
	stdin.Close()
	stdout.Close()
	if err != nil {
		inW.Close()
		outR.Close()
		return nil, fmt.Errorf("cgi: start %s %s: %w", spec.Interpreter, spec.Script, err)
	}

	pid := cmd.Process.Pid
	cmd.Process.Release()

	l := &Link{
		state:  Streaming,
		pid:    pid,
		input:  inW,
		output: outR,
		chunk:  make([]byte, spec.ChunkSize),
		reaper: reaper,
	}
	if spec.WithBody {
		l.body = spec.Body
	}

	if err := inW.SetNonblock(); err != nil {
		l.Terminate()
		return nil, fmt.Errorf("cgi: input pipe: %w", err)
	}
	if err := outR.SetNonblock(); err != nil {
		l.Terminate()
		return nil, fmt.Errorf("cgi: output pipe: %w", err)
	}

	if len(l.body) == 0 {
		l.CloseInput()
	}
	return l, nil
}

func (l *Link) State() State {
	return l.state
}

func (l *Link) Pid() int {
	return l.pid
}

// InputFd is -1 once the input pipe is closed.
func (l *Link) InputFd() int {
	return l.input.Fd()
}

// OutputFd is -1 once the output pipe is closed.
func (l *Link) OutputFd() int {
	return l.output.Fd()
}

func (l *Link) Output() []byte {
	return l.buf
}

func (l *Link) Written() int {
	return l.written
}

// WriteBody writes the next chunk of the body. When the last byte went out
// the input pipe is closed, which signals end of input to the child.
func (l *Link) WriteBody() (done bool, err error) {
	if !l.input.Valid() {
		return true, nil
	}

	end := l.written + len(l.chunk)
	if end > len(l.body) {
		end = len(l.body)
	}

	n, err := l.input.Write(l.body[l.written:end])
	l.written += n
	if err != nil && !netpoll.WouldBlock(err) {
		return false, fmt.Errorf("cgi: write body: %w", err)
	}

	if l.written == len(l.body) {
		l.CloseInput()
		return true, nil
	}
	return false, nil
}

// ReadOutput reads the next chunk of script output. eof reports that the
// child closed its standard output.
func (l *Link) ReadOutput() (eof bool, err error) {
	if !l.output.Valid() {
		return true, nil
	}

	n, err := l.output.Read(l.chunk)
	if err != nil {
		if netpoll.WouldBlock(err) {
			return false, nil
		}
		return false, fmt.Errorf("cgi: read output: %w", err)
	}
	if n == 0 {
		return true, nil
	}
	l.buf = append(l.buf, l.chunk[:n]...)
	return false, nil
}

func (l *Link) CloseInput() error {
	err := l.input.Close()
	if l.state == Streaming {
		l.state = Draining
	}
	return err
}

// Terminate kills the child if it is still running, closes both pipes and
// collects the child. It is safe to call more than once.
func (l *Link) Terminate() {
	if l.state == Done {
		return
	}
	l.input.Close()
	l.output.Close()

	if !l.reaped {
		unix.Kill(l.pid, unix.SIGKILL)
		l.reaped = true
		if l.reaper != nil {
			l.reaper.Reap(l.pid)
		} else {
			waitBlocking(l.pid)
		}
	}
	l.state = Done
}
