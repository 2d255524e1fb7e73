package socketio

import (
	"fmt"
	"strconv"
)

// jsonpPollingTransport is the polling cycle with the body wrapped in the
// client's script callback, for browsers that cannot issue cross-origin XHR.
type jsonpPollingTransport struct {
	*xhrPollingTransport
	index string
}

func newJSONPPollingTransport(data *ClientData, opts *Options) *jsonpPollingTransport {
	index := data.JSONPIndex
	if index == "" {
		index = "0"
	}
	t := &jsonpPollingTransport{
		xhrPollingTransport: newXHRPollingTransport(&ClientData{}, opts),
		index:               index,
	}
	t.encode = func(body string) string {
		return fmt.Sprintf("io.j[%s](%s);", t.index, strconv.Quote(body))
	}
	if data.Writer != nil {
		t.SetWriter(data.Writer)
	}
	return t
}

func (t *jsonpPollingTransport) Name() string {
	return "jsonp-polling"
}
