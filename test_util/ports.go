package test_util

import (
	"sync"
	"time"

	"code.cloudfoundry.org/localip"

	. "github.com/onsi/gomega"
)

// portHold keeps a handed out port from being handed out again while the
// test that got it is still binding it.
const portHold = 2 * time.Second

var reserved = struct {
	sync.Mutex
	until map[uint16]time.Time
}{until: map[uint16]time.Time{}}

// NextAvailPort returns a free local port not returned by another call
// within the last portHold.
func NextAvailPort() uint16 {
	for {
		port, err := localip.LocalPort()
		ExpectWithOffset(1, err).ToNot(HaveOccurred())
		if reserve(port, time.Now()) {
			return port
		}
	}
}

func reserve(port uint16, now time.Time) bool {
	reserved.Lock()
	defer reserved.Unlock()

	for p, until := range reserved.until {
		if now.After(until) {
			delete(reserved.until, p)
		}
	}
	if _, taken := reserved.until[port]; taken {
		return false
	}
	reserved.until[port] = now.Add(portHold)
	return true
}
