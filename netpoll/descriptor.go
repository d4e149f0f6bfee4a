package netpoll

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var ErrClosed = errors.New("netpoll: descriptor closed")

// Descriptor owns one raw file descriptor. Close releases it exactly once;
// every later call is a no-op and every later I/O returns ErrClosed.
type Descriptor struct {
	fd int
}

func NewDescriptor(fd int) *Descriptor {
	return &Descriptor{fd: fd}
}

func (d *Descriptor) Fd() int {
	if d == nil {
		return -1
	}
	return d.fd
}

func (d *Descriptor) Valid() bool {
	return d != nil && d.fd >= 0
}

func (d *Descriptor) Close() error {
	if !d.Valid() {
		return nil
	}
	fd := d.fd
	d.fd = -1
	return unix.Close(fd)
}

func (d *Descriptor) Read(b []byte) (int, error) {
	if !d.Valid() {
		return 0, ErrClosed
	}
	for {
		n, err := unix.Read(d.fd, b)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func (d *Descriptor) Write(b []byte) (int, error) {
	if !d.Valid() {
		return 0, ErrClosed
	}
	for {
		n, err := unix.Write(d.fd, b)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func (d *Descriptor) SetNonblock() error {
	if !d.Valid() {
		return ErrClosed
	}
	return unix.SetNonblock(d.fd, true)
}

// File hands ownership of the descriptor over to an *os.File. d is invalid
// afterwards.
func (d *Descriptor) File(name string) *os.File {
	if !d.Valid() {
		return nil
	}
	fd := d.fd
	d.fd = -1
	return os.NewFile(uintptr(fd), name)
}

// WouldBlock reports whether err only means that the descriptor is not ready.
func WouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

// Pipe returns both ends of a new pipe. Both carry O_CLOEXEC.
func Pipe() (r *Descriptor, w *Descriptor, err error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return nil, nil, err
	}
	return NewDescriptor(p[0]), NewDescriptor(p[1]), nil
}
