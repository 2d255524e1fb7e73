package socketio

import (
	"io"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

// Transport is the per-connection delivery strategy bound to a session. The
// binding layer owns the physical connection lifecycle; the core only pushes
// encoded packets through whichever variant is currently bound.
type Transport interface {
	Name() string

	// Open reports whether the underlying connection can accept a push
	// right now.
	Open() bool

	// Dispatch pushes one encoded packet. Write failure is a transport
	// internal concern: the packet counts as sent either way.
	Dispatch(packet string, volatile bool)

	// Payload pushes previously buffered packets as one combined frame,
	// preserving their order.
	Payload(packets []string)

	// Discard releases the underlying resources. Open reports false
	// afterwards.
	Discard()
}

// ClientData carries what the binding layer knows about one physical
// connection when it asks the transport factory for a variant.
type ClientData struct {
	SessionID string

	// WebSocket is set for the websocket and flashsocket kinds.
	WebSocket *websocket.Conn

	// Writer is the response stream for htmlfile, or the first request
	// cycle for the polling kinds. Polling cycles are re-attached with
	// SetWriter as each poll request arrives.
	Writer io.WriteCloser

	// JSONPIndex is the callback slot requested by a jsonp-polling client.
	JSONPIndex string
}

const payloadDelimiter = "�"

// framePayload joins packets with length-prefixed delimiter framing so a
// batch survives as distinguishable frames inside one physical write.
func framePayload(packets []string) string {
	var b strings.Builder
	for _, p := range packets {
		b.WriteString(payloadDelimiter)
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteString(payloadDelimiter)
		b.WriteString(p)
	}
	return b.String()
}
