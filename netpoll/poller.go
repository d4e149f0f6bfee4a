package netpoll

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

type Interest uint32

const (
	Readable Interest = 1 << iota
	Writable
)

func (i Interest) String() string {
	switch i {
	case Readable:
		return "read"
	case Writable:
		return "write"
	case Readable | Writable:
		return "read-write"
	default:
		return "none"
	}
}

type Event struct {
	Fd       int
	Readable bool
	Writable bool
	Hangup   bool
	Error    bool
}

// Poller is a level-triggered epoll instance with a built-in wake channel.
// It must only be driven from a single goroutine, except for Wake.
type Poller struct {
	epfd   *Descriptor
	wake   *Descriptor
	events []unix.EpollEvent
	ready  []Event
}

func NewPoller(maxEvents int) (*Poller, error) {
	if maxEvents <= 0 {
		return nil, fmt.Errorf("netpoll: invalid event array size %d", maxEvents)
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("netpoll: epoll_create1: %w", err)
	}

	wfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("netpoll: eventfd: %w", err)
	}

	p := &Poller{
		epfd:   NewDescriptor(epfd),
		wake:   NewDescriptor(wfd),
		events: make([]unix.EpollEvent, maxEvents),
		ready:  make([]Event, 0, maxEvents),
	}

	if err := p.Add(wfd, Readable); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

func toEpoll(in Interest) uint32 {
	var ev uint32
	if in&Readable != 0 {
		ev |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if in&Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (p *Poller) ctl(op int, fd int, in Interest) error {
	if !p.epfd.Valid() {
		return ErrClosed
	}
	ev := &unix.EpollEvent{Events: toEpoll(in), Fd: int32(fd)}
	if op == unix.EPOLL_CTL_DEL {
		ev = nil
	}
	if err := unix.EpollCtl(p.epfd.Fd(), op, fd, ev); err != nil {
		return fmt.Errorf("netpoll: epoll_ctl fd %d: %w", fd, err)
	}
	return nil
}

func (p *Poller) Add(fd int, in Interest) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, in)
}

func (p *Poller) Modify(fd int, in Interest) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, in)
}

func (p *Poller) Remove(fd int) error {
	return p.ctl(unix.EPOLL_CTL_DEL, fd, 0)
}

// Wait blocks until at least one descriptor is ready, Wake is called or
// timeout elapses. A negative timeout blocks indefinitely. An interrupted
// wait returns no events and no error. The returned slice is reused by the
// next call.
func (p *Poller) Wait(timeout time.Duration) ([]Event, error) {
	if !p.epfd.Valid() {
		return nil, ErrClosed
	}

	msec := -1
	if timeout >= 0 {
		msec = int((timeout + time.Millisecond - 1) / time.Millisecond)
	}

	n, err := unix.EpollWait(p.epfd.Fd(), p.events, msec)
	if err == unix.EINTR {
		return p.ready[:0], nil
	}
	if err != nil {
		return nil, fmt.Errorf("netpoll: epoll_wait: %w", err)
	}

	p.ready = p.ready[:0]
	for i := 0; i < n; i++ {
		raw := p.events[i]
		if int(raw.Fd) == p.wake.Fd() {
			p.drainWake()
			continue
		}
		p.ready = append(p.ready, Event{
			Fd:       int(raw.Fd),
			Readable: raw.Events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0,
			Writable: raw.Events&unix.EPOLLOUT != 0,
			Hangup:   raw.Events&unix.EPOLLHUP != 0,
			Error:    raw.Events&unix.EPOLLERR != 0,
		})
	}
	return p.ready, nil
}

// Wake interrupts a concurrent Wait. It is safe to call from any goroutine.
func (p *Poller) Wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(p.wake.Fd(), buf[:])
	if WouldBlock(err) {
		return nil
	}
	return err
}

func (p *Poller) drainWake() {
	var buf [8]byte
	for {
		if _, err := p.wake.Read(buf[:]); err != nil {
			return
		}
	}
}

func (p *Poller) Close() error {
	p.wake.Close()
	return p.epfd.Close()
}
