package socketio

import (
	"io"
	"sync"
	"time"

	"github.com/keesun/go-socket.io/parser"
)

// xhrPollingTransport answers one poll request cycle at a time. The binding
// layer attaches each incoming request's body writer with SetWriter; a push
// consumes the cycle, so the transport is only open while a request is
// parked here. A cycle left idle past the close timeout is finished with a
// noop frame so the client re-polls.
type xhrPollingTransport struct {
	mutex        sync.Mutex
	writer       io.WriteCloser
	discarded    bool
	closeTimeout time.Duration
	cycle        int

	// encode, when set, rewrites a response body before it is written.
	// The jsonp variant uses it to wrap bodies in the script callback.
	encode func(string) string
}

func newXHRPollingTransport(data *ClientData, opts *Options) *xhrPollingTransport {
	t := &xhrPollingTransport{closeTimeout: opts.CloseTimeout}
	if data.Writer != nil {
		t.SetWriter(data.Writer)
	}
	return t
}

func (t *xhrPollingTransport) Name() string {
	return "xhr-polling"
}

// SetWriter parks a new poll request cycle. Any cycle still parked is
// finished empty first.
func (t *xhrPollingTransport) SetWriter(w io.WriteCloser) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.discarded {
		_ = w.Close()
		return
	}
	if t.writer != nil {
		_ = t.writer.Close()
	}
	t.writer = w
	t.cycle++

	if t.closeTimeout > 0 {
		cycle := t.cycle
		time.AfterFunc(t.closeTimeout, func() {
			t.expireCycle(cycle)
		})
	}
}

// expireCycle finishes the identified cycle with a noop frame, unless a
// push already consumed it.
func (t *xhrPollingTransport) expireCycle(cycle int) {
	noop, err := (&parser.Packet{Type: parser.Noop}).Encode()
	if err != nil {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.cycle != cycle || t.writer == nil || t.discarded {
		return
	}
	t.writeCycleLocked(noop)
}

func (t *xhrPollingTransport) Open() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.writer != nil && !t.discarded
}

func (t *xhrPollingTransport) Dispatch(packet string, volatile bool) {
	t.writeCycle(packet)
}

func (t *xhrPollingTransport) Payload(packets []string) {
	t.writeCycle(framePayload(packets))
}

func (t *xhrPollingTransport) Discard() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.discarded = true
	if t.writer != nil {
		_ = t.writer.Close()
		t.writer = nil
	}
}

// writeCycle writes one response body and finishes the cycle.
func (t *xhrPollingTransport) writeCycle(body string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.writer == nil || t.discarded {
		logger().V(1).Info("xhr-polling: dropping write, no request cycle parked")
		return
	}
	t.writeCycleLocked(body)
}

func (t *xhrPollingTransport) writeCycleLocked(body string) {
	if t.encode != nil {
		body = t.encode(body)
	}
	if _, err := io.WriteString(t.writer, body); err != nil {
		logger().V(1).Info("xhr-polling: write failed", "err", err)
	}
	_ = t.writer.Close()
	t.writer = nil
}
