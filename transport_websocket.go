package socketio

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/keesun/go-socket.io/parser"
)

// websocketTransport pushes packets over a single long-lived websocket
// connection and keeps it alive with protocol-level heartbeat packets.
type websocketTransport struct {
	mutex sync.Mutex
	conn  *websocket.Conn
	open  bool

	heartbeatStop chan struct{}
}

func newWebsocketTransport(data *ClientData, opts *Options) *websocketTransport {
	t := &websocketTransport{
		conn: data.WebSocket,
		open: data.WebSocket != nil,
	}

	if t.open && opts.HeartbeatInterval > 0 {
		t.heartbeatStop = make(chan struct{})
		go t.heartbeat(opts.HeartbeatInterval, t.heartbeatStop)
	}

	return t
}

func (t *websocketTransport) Name() string {
	return "websocket"
}

func (t *websocketTransport) Open() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.open
}

func (t *websocketTransport) Dispatch(packet string, volatile bool) {
	t.write(packet)
}

func (t *websocketTransport) Payload(packets []string) {
	t.write(framePayload(packets))
}

func (t *websocketTransport) Discard() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.open {
		return
	}
	t.open = false

	if t.heartbeatStop != nil {
		close(t.heartbeatStop)
		t.heartbeatStop = nil
	}
	_ = t.conn.Close()
}

func (t *websocketTransport) write(frame string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.open {
		logger().V(1).Info("websocket: dropping write on closed transport")
		return
	}

	if err := t.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		logger().V(1).Info("websocket: write failed, closing", "err", err)
		t.open = false
		if t.heartbeatStop != nil {
			close(t.heartbeatStop)
			t.heartbeatStop = nil
		}
		_ = t.conn.Close()
	}
}

func (t *websocketTransport) heartbeat(interval time.Duration, stop <-chan struct{}) {
	hb, err := (&parser.Packet{Type: parser.Heartbeat}).Encode()
	if err != nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.write(hb)
		}
	}
}
