package response

import "code.cloudfoundry.org/webserv/config"

// Response is the fully serialized reply of one connection. Once the first
// byte went out the buffer is frozen and only the offset advances.
type Response struct {
	Status   int
	Location *config.Location

	buf  []byte
	sent int
}

// Set replaces the buffer. It refuses to do so once transmission started.
func (r *Response) Set(status int, raw []byte) bool {
	if r.Started() {
		return false
	}
	r.Status = status
	r.buf = raw
	return true
}

func (r *Response) Ready() bool {
	return r.buf != nil
}

func (r *Response) Started() bool {
	return r.sent > 0
}

func (r *Response) Pending() []byte {
	return r.buf[r.sent:]
}

func (r *Response) Advance(n int) {
	r.sent += n
	if r.sent > len(r.buf) {
		r.sent = len(r.buf)
	}
}

func (r *Response) Done() bool {
	return r.Ready() && r.sent == len(r.buf)
}

func (r *Response) Len() int {
	return len(r.buf)
}
