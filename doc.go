// Package socketio implements the server-side session, namespace and
// dispatch core of the socket.io protocol: logical sockets scoped to
// namespaces, optionally joined to rooms, reachable over whichever
// transport the client negotiated (websocket, htmlfile streaming,
// xhr-polling, jsonp-polling, flashsocket).
//
// The Manager owns the shared registries and the delivery decision: packets
// for a session with an open transport are pushed immediately; non-volatile
// packets for an unreachable session are buffered in order and replayed as
// one payload when a transport binds again; volatile packets are dropped.
// A Store carries undeliverable packets between nodes, with an in-process
// implementation for single-node deployments and a redis one for clusters.
//
// HTTP handshake negotiation, the physical read/write loops and
// authorization policy are the caller's concern; this package exposes the
// Manager hooks they drive (Handshake, BindTransport, OnOpen, OnClose,
// OnClientMessage, OnClientDisconnect).
package socketio
