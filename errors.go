package socketio

import "errors"

var (
	// ErrUnsupportedTransport is returned by the transport factory for an
	// unrecognized transport kind.
	ErrUnsupportedTransport = errors.New("socketio: unsupported transport")

	// ErrUnauthorized is returned by Handshake when the authorization gate
	// rejects the client.
	ErrUnauthorized = errors.New("socketio: handshake unauthorized")

	// ErrStoreClosed is returned by a Store after Close.
	ErrStoreClosed = errors.New("socketio: store closed")
)
