package socketio

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// htmlfilePreamble opens the forever-frame document. The padding defeats
// IE's initial render buffering so script chunks execute as they arrive.
var htmlfilePreamble = "<html><body>" + strings.Repeat(" ", 244)

// htmlfileTransport streams packets as script chunks into a never-ending
// HTML document held open by the client's hidden iframe.
type htmlfileTransport struct {
	mutex     sync.Mutex
	writer    io.WriteCloser
	discarded bool
}

func newHTMLFileTransport(data *ClientData) *htmlfileTransport {
	t := &htmlfileTransport{writer: data.Writer}
	if t.writer != nil {
		if _, err := io.WriteString(t.writer, htmlfilePreamble); err != nil {
			logger().V(1).Info("htmlfile: preamble write failed", "err", err)
			_ = t.writer.Close()
			t.writer = nil
		}
	}
	return t
}

func (t *htmlfileTransport) Name() string {
	return "htmlfile"
}

func (t *htmlfileTransport) Open() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.writer != nil && !t.discarded
}

func (t *htmlfileTransport) Dispatch(packet string, volatile bool) {
	t.writeChunk(packet)
}

func (t *htmlfileTransport) Payload(packets []string) {
	t.writeChunk(framePayload(packets))
}

func (t *htmlfileTransport) Discard() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.discarded = true
	if t.writer != nil {
		_ = t.writer.Close()
		t.writer = nil
	}
}

func (t *htmlfileTransport) writeChunk(body string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.writer == nil || t.discarded {
		logger().V(1).Info("htmlfile: dropping write on closed stream")
		return
	}

	chunk := fmt.Sprintf("<script>_(%s);</script>", strconv.Quote(body))
	if _, err := io.WriteString(t.writer, chunk); err != nil {
		logger().V(1).Info("htmlfile: write failed, closing stream", "err", err)
		_ = t.writer.Close()
		t.writer = nil
	}
}
