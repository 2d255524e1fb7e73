package socketio

import (
	"sync"

	"github.com/keesun/go-socket.io/parser"
)

// emitOptions modifies exactly one packet. The fluent setters on Socket
// return a shallow copy carrying new options, so an emit is fully
// self-contained: nothing is reset afterwards and concurrent emitters on
// the same socket cannot observe each other's flags.
type emitOptions struct {
	endpoint  string
	room      string
	broadcast bool
	volatile  bool
}

// socketState is the mutable part shared by every flag copy of a Socket.
type socketState struct {
	mutex        sync.RWMutex
	handlers     map[string]EventHandler
	disconnected bool
}

// Socket is the logical per-client endpoint within one namespace, handed to
// application handlers.
type Socket struct {
	manager   *Manager
	namespace *Namespace
	id        string
	readable  bool

	opts  emitOptions
	state *socketState
}

func newSocket(m *Manager, ns *Namespace, sessionID string, readable bool) *Socket {
	return &Socket{
		manager:   m,
		namespace: ns,
		id:        sessionID,
		readable:  readable,
		opts:      emitOptions{endpoint: ns.name},
		state:     &socketState{handlers: make(map[string]EventHandler)},
	}
}

// ID returns the session id.
func (s *Socket) ID() string {
	return s.id
}

// Namespace returns the namespace the socket belongs to.
func (s *Socket) Namespace() *Namespace {
	return s.namespace
}

// Readable reports whether the session's transport delivers inbound packets
// to this socket.
func (s *Socket) Readable() bool {
	return s.readable
}

// Broadcast returns a view of the socket whose next emit goes to every other
// member of the namespace instead of this client.
func (s *Socket) Broadcast() *Socket {
	c := *s
	c.opts.broadcast = true
	c.opts.room = ""
	return &c
}

// To returns a view of the socket whose next emit is broadcast to the given
// room, excluding this client.
func (s *Socket) To(room string) *Socket {
	c := *s
	c.opts.broadcast = true
	c.opts.room = room
	return &c
}

// Volatile returns a view of the socket whose next emit may be dropped if
// the recipient is not immediately reachable.
func (s *Socket) Volatile() *Socket {
	c := *s
	c.opts.volatile = true
	return &c
}

// On registers the handler for an event name. One handler per name; a later
// registration replaces the earlier one.
func (s *Socket) On(event string, h EventHandler) {
	s.state.mutex.Lock()
	defer s.state.mutex.Unlock()

	s.state.handlers[event] = h
}

// Join adds the socket to a room of its namespace.
func (s *Socket) Join(room string) {
	s.manager.Join(s.id, s.namespace.qualify(room))
}

// Leave removes the socket from a room of its namespace.
func (s *Socket) Leave(room string) {
	s.manager.Leave(s.id, s.namespace.qualify(room))
}

// Emit sends an event packet to the client, honoring the options carried by
// this view of the socket.
func (s *Socket) Emit(event string, args ...interface{}) error {
	return s.Packet(&parser.Packet{Type: parser.Event, Name: event, Args: args})
}

// Send transmits a plain message packet.
func (s *Socket) Send(data string) error {
	return s.Packet(&parser.Packet{Type: parser.Message, Data: data})
}

// Packet transmits p. A broadcast view routes through the namespace's room
// fan-out with this socket excluded; otherwise the packet is stamped with
// the view's endpoint and dispatched directly.
func (s *Socket) Packet(p *parser.Packet) error {
	if s.opts.broadcast {
		logger().V(1).Info("broadcasting packet", "session", s.id, "room", s.opts.room)
		op := s.namespace.In(s.opts.room).Except(s.id)
		if s.opts.volatile {
			op = op.Volatile()
		}
		return op.packet(p)
	}

	p.Endpoint = s.opts.endpoint
	encoded, err := p.Encode()
	if err != nil {
		return err
	}

	s.manager.Dispatch(s.id, encoded, s.opts.volatile)
	return nil
}

// onPacket routes one inbound packet to the registered handler.
func (s *Socket) onPacket(p *parser.Packet) {
	switch p.Type {
	case parser.Event:
		s.dispatchEvent(p.Name, p.Args)

	case parser.Message, parser.JSON:
		s.dispatchEvent("message", []interface{}{p.Data})

	case parser.Disconnect:
		s.manager.OnClientDisconnect(s.id, "client disconnect")

	case parser.Ack:
		// ack correlation is not implemented; the id/ack fields round-trip
		// through the codec but no callback table exists
		logger().V(1).Info("ignoring ack packet", "session", s.id, "ackId", p.AckID)

	case parser.Connect:
		// handled by the namespace before the socket sees it
	}
}

func (s *Socket) dispatchEvent(name string, args []interface{}) {
	s.state.mutex.RLock()
	h := s.state.handlers[name]
	s.state.mutex.RUnlock()

	if h == nil {
		h = s.namespace.handler.event(name)
	}
	if h == nil {
		logger().V(1).Info("handler not found", "event", name, "session", s.id)
		return
	}

	h(s, args)
}

// onDisconnect delivers the local disconnect notification at most once per
// socket lifetime.
func (s *Socket) onDisconnect(reason string) {
	s.state.mutex.Lock()
	if s.state.disconnected {
		s.state.mutex.Unlock()
		return
	}
	s.state.disconnected = true
	s.state.mutex.Unlock()

	if h := s.namespace.handler.disconnect(); h != nil {
		h(s, reason)
	}

	s.state.mutex.RLock()
	h := s.state.handlers["disconnect"]
	s.state.mutex.RUnlock()
	if h != nil {
		h(s, []interface{}{reason})
	}
}
