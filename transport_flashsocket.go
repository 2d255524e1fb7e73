package socketio

import "strings"

// flashPolicy is served to Flash clients probing the policy port before they
// open their socket.
const flashPolicy = `<?xml version="1.0"?>` +
	`<!DOCTYPE cross-domain-policy SYSTEM "http://www.macromedia.com/xml/dtds/cross-domain-policy.dtd">` +
	`<cross-domain-policy>` +
	`<allow-access-from domain="*" to-ports="*"/>` +
	`</cross-domain-policy>`

// FlashPolicyResponse answers a Flash policy-file probe. The binding layer
// passes the raw bytes it read from the socket; when they are a policy
// request it must write the returned policy and close the connection.
func FlashPolicyResponse(data []byte) (string, bool) {
	if strings.Contains(string(data), "policy-file-request") {
		return flashPolicy, true
	}
	return "", false
}

// flashsocketTransport is the websocket transport as reached through the
// Flash bridge. Framing and delivery are identical; only the negotiated kind
// differs.
type flashsocketTransport struct {
	*websocketTransport
}

func newFlashsocketTransport(data *ClientData, opts *Options) *flashsocketTransport {
	return &flashsocketTransport{websocketTransport: newWebsocketTransport(data, opts)}
}

func (t *flashsocketTransport) Name() string {
	return "flashsocket"
}
