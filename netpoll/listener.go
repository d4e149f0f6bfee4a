package netpoll

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// Listener is a non-blocking IPv4 TCP listen socket.
type Listener struct {
	*Descriptor
	Addr string
}

func Listen(addr string, backlog int) (*Listener, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("netpoll: listen %s: %w", addr, err)
	}
	ip := net.ParseIP(host).To4()
	if ip == nil {
		return nil, fmt.Errorf("netpoll: listen %s: not an IPv4 address", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return nil, fmt.Errorf("netpoll: listen %s: invalid port", addr)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("netpoll: socket: %w", err)
	}
	d := NewDescriptor(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		d.Close()
		return nil, fmt.Errorf("netpoll: setsockopt %s: %w", addr, err)
	}

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip)
	if err := unix.Bind(fd, sa); err != nil {
		d.Close()
		return nil, fmt.Errorf("netpoll: bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		d.Close()
		return nil, fmt.Errorf("netpoll: listen %s: %w", addr, err)
	}

	return &Listener{Descriptor: d, Addr: addr}, nil
}

// Accept returns a non-blocking client socket and the peer address. When no
// connection is pending the error satisfies WouldBlock.
func (l *Listener) Accept() (*Descriptor, string, error) {
	if !l.Valid() {
		return nil, "", ErrClosed
	}
	for {
		fd, sa, err := unix.Accept4(l.Fd(), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == unix.EINTR || err == unix.ECONNABORTED {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return NewDescriptor(fd), sockaddrString(sa), nil
	}
}

// Port returns the bound port, which differs from the configured one when
// port 0 was requested.
func (l *Listener) Port() int {
	sa, err := unix.Getsockname(l.Fd())
	if err != nil {
		return 0
	}
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return in4.Port
	}
	return 0
}

func sockaddrString(sa unix.Sockaddr) string {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return net.JoinHostPort(net.IP(in4.Addr[:]).String(), strconv.Itoa(in4.Port))
	}
	return ""
}
