package netpoll_test

import (
	"fmt"
	"net"
	"time"

	"code.cloudfoundry.org/webserv/netpoll"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Descriptor", func() {
	It("closes exactly once", func() {
		r, w, err := netpoll.Pipe()
		Expect(err).ToNot(HaveOccurred())
		defer w.Close()

		Expect(r.Close()).To(Succeed())
		Expect(r.Valid()).To(BeFalse())
		Expect(r.Fd()).To(Equal(-1))
		Expect(r.Close()).To(Succeed())

		_, err = r.Read(make([]byte, 1))
		Expect(err).To(MatchError(netpoll.ErrClosed))
	})

	It("reports would-block on an empty non-blocking pipe", func() {
		r, w, err := netpoll.Pipe()
		Expect(err).ToNot(HaveOccurred())
		defer r.Close()
		defer w.Close()

		Expect(r.SetNonblock()).To(Succeed())
		_, err = r.Read(make([]byte, 1))
		Expect(netpoll.WouldBlock(err)).To(BeTrue())
	})

	It("hands ownership to an os.File", func() {
		r, w, err := netpoll.Pipe()
		Expect(err).ToNot(HaveOccurred())
		defer r.Close()

		f := w.File("pipe")
		Expect(w.Valid()).To(BeFalse())
		_, err = f.Write([]byte("x"))
		Expect(err).ToNot(HaveOccurred())
		Expect(f.Close()).To(Succeed())

		buf := make([]byte, 4)
		n, err := r.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("x"))
	})
})

var _ = Describe("Poller", func() {
	var poller *netpoll.Poller

	BeforeEach(func() {
		var err error
		poller, err = netpoll.NewPoller(8)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(poller.Close()).To(Succeed())
	})

	It("rejects an empty event array", func() {
		_, err := netpoll.NewPoller(0)
		Expect(err).To(HaveOccurred())
	})

	It("times out without events", func() {
		events, err := poller.Wait(10 * time.Millisecond)
		Expect(err).ToNot(HaveOccurred())
		Expect(events).To(BeEmpty())
	})

	It("waits out a timeout shorter than a millisecond", func() {
		start := time.Now()
		events, err := poller.Wait(300 * time.Microsecond)
		Expect(err).ToNot(HaveOccurred())
		Expect(events).To(BeEmpty())
		Expect(time.Since(start)).To(BeNumerically(">=", 300*time.Microsecond))
	})

	It("does not block for a zero timeout", func() {
		start := time.Now()
		_, err := poller.Wait(0)
		Expect(err).ToNot(HaveOccurred())
		Expect(time.Since(start)).To(BeNumerically("<", 500*time.Millisecond))
	})

	It("reports readable descriptors", func() {
		r, w, err := netpoll.Pipe()
		Expect(err).ToNot(HaveOccurred())
		defer r.Close()
		defer w.Close()

		Expect(poller.Add(r.Fd(), netpoll.Readable)).To(Succeed())
		_, err = w.Write([]byte("ping"))
		Expect(err).ToNot(HaveOccurred())

		events, err := poller.Wait(time.Second)
		Expect(err).ToNot(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(events[0].Fd).To(Equal(r.Fd()))
		Expect(events[0].Readable).To(BeTrue())
	})

	It("reports hang-up when the writer goes away", func() {
		r, w, err := netpoll.Pipe()
		Expect(err).ToNot(HaveOccurred())
		defer r.Close()

		Expect(poller.Add(r.Fd(), netpoll.Readable)).To(Succeed())
		Expect(w.Close()).To(Succeed())

		events, err := poller.Wait(time.Second)
		Expect(err).ToNot(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(events[0].Hangup).To(BeTrue())
	})

	It("switches interest between directions", func() {
		r, w, err := netpoll.Pipe()
		Expect(err).ToNot(HaveOccurred())
		defer r.Close()
		defer w.Close()

		Expect(poller.Add(w.Fd(), netpoll.Readable)).To(Succeed())
		events, err := poller.Wait(10 * time.Millisecond)
		Expect(err).ToNot(HaveOccurred())
		Expect(events).To(BeEmpty())

		Expect(poller.Modify(w.Fd(), netpoll.Writable)).To(Succeed())
		events, err = poller.Wait(time.Second)
		Expect(err).ToNot(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(events[0].Writable).To(BeTrue())

		Expect(poller.Remove(w.Fd())).To(Succeed())
		events, err = poller.Wait(10 * time.Millisecond)
		Expect(err).ToNot(HaveOccurred())
		Expect(events).To(BeEmpty())
	})

	It("returns from Wait when woken", func() {
		go func() {
			defer GinkgoRecover()
			time.Sleep(20 * time.Millisecond)
			Expect(poller.Wake()).To(Succeed())
		}()

		start := time.Now()
		events, err := poller.Wait(-1)
		Expect(err).ToNot(HaveOccurred())
		Expect(events).To(BeEmpty())
		Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
	})
})

var _ = Describe("Listener", func() {
	It("accepts connections without blocking", func() {
		l, err := netpoll.Listen("127.0.0.1:0", 16)
		Expect(err).ToNot(HaveOccurred())
		defer l.Close()
		Expect(l.Port()).To(BeNumerically(">", 0))

		_, _, err = l.Accept()
		Expect(netpoll.WouldBlock(err)).To(BeTrue())

		conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", l.Port()))
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		var client *netpoll.Descriptor
		var peer string
		Eventually(func() error {
			client, peer, err = l.Accept()
			return err
		}).Should(Succeed())
		defer client.Close()
		Expect(peer).To(HavePrefix("127.0.0.1:"))
	})

	It("rejects non IPv4 addresses", func() {
		_, err := netpoll.Listen("localhost:80", 16)
		Expect(err).To(MatchError(ContainSubstring("not an IPv4 address")))
	})

	It("fails when the address is taken", func() {
		l, err := netpoll.Listen("127.0.0.1:0", 16)
		Expect(err).ToNot(HaveOccurred())
		defer l.Close()

		_, err = netpoll.Listen(fmt.Sprintf("127.0.0.1:%d", l.Port()), 16)
		Expect(err).To(MatchError(ContainSubstring("bind")))
	})
})
