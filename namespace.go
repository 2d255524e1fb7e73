package socketio

import (
	"sync"

	"github.com/keesun/go-socket.io/parser"
)

// Namespace groups the logical sockets of one endpoint name and routes
// packets between them and the manager. The empty name is the default
// namespace. Namespaces are created lazily and live for the process.
type Namespace struct {
	manager *Manager
	name    string
	handler *namespaceHandler

	mutex   sync.RWMutex
	sockets map[string]*Socket
}

func newNamespace(m *Manager, name string) *Namespace {
	return &Namespace{
		manager: m,
		name:    name,
		handler: newNamespaceHandler(),
		sockets: make(map[string]*Socket),
	}
}

// Name returns the endpoint name; empty for the default namespace.
func (ns *Namespace) Name() string {
	return ns.name
}

// OnConnect registers the handler invoked for each accepted session.
func (ns *Namespace) OnConnect(f ConnectHandler) {
	ns.handler.setOnConnect(f)
}

// OnDisconnect registers the handler invoked once per disconnecting socket.
func (ns *Namespace) OnDisconnect(f DisconnectHandler) {
	ns.handler.setOnDisconnect(f)
}

// OnEvent registers the namespace-wide default handler for an event name.
func (ns *Namespace) OnEvent(event string, f EventHandler) {
	ns.handler.setOnEvent(event, f)
}

// qualify prefixes a room name with the endpoint, so rooms of different
// namespaces never collide in the manager's global room table. The empty
// room is the namespace-wide room every socket joins on connect.
func (ns *Namespace) qualify(room string) string {
	return ns.name + "/" + room
}

// ConnectSocket creates and registers the socket for a connecting session
// and fires the connection handler exactly once. A session that is already
// connected gets its existing socket back.
func (ns *Namespace) ConnectSocket(sessionID string, readable bool) *Socket {
	ns.mutex.Lock()
	if s, ok := ns.sockets[sessionID]; ok {
		ns.mutex.Unlock()
		return s
	}
	s := newSocket(ns.manager, ns, sessionID, readable)
	ns.sockets[sessionID] = s
	ns.mutex.Unlock()

	ns.manager.Join(sessionID, ns.qualify(""))
	ns.manager.OnConnect(sessionID)

	if h := ns.handler.connect(); h != nil {
		h(s)
	}

	return s
}

// Socket returns the registered socket for a session id.
func (ns *Namespace) Socket(sessionID string) (*Socket, bool) {
	ns.mutex.RLock()
	defer ns.mutex.RUnlock()

	s, ok := ns.sockets[sessionID]
	return s, ok
}

// Sockets returns a snapshot of the registered sockets.
func (ns *Namespace) Sockets() []*Socket {
	ns.mutex.RLock()
	defer ns.mutex.RUnlock()

	res := make([]*Socket, 0, len(ns.sockets))
	for _, s := range ns.sockets {
		res = append(res, s)
	}
	return res
}

// HandlePacket delivers an inbound packet to the session's socket. A
// session with no socket yet is connected lazily, but only by a connect
// packet; anything else for an unknown session is dropped.
func (ns *Namespace) HandlePacket(sessionID string, p *parser.Packet) {
	s, ok := ns.Socket(sessionID)
	if !ok {
		if p.Type != parser.Connect {
			logger().V(1).Info("dropping packet for unconnected session",
				"session", sessionID, "endpoint", ns.name, "type", p.Type.String())
			return
		}
		s = ns.ConnectSocket(sessionID, true)
	}

	s.onPacket(p)
}

// In targets a subsequent broadcast at one room of this namespace. The
// empty room addresses every socket in the namespace.
func (ns *Namespace) In(room string) BroadcastOperator {
	return BroadcastOperator{namespace: ns, room: room}
}

// Except subtracts session ids from a namespace-wide broadcast.
func (ns *Namespace) Except(sessionIDs ...string) BroadcastOperator {
	return ns.In("").Except(sessionIDs...)
}

// Emit broadcasts an event to every socket in the namespace.
func (ns *Namespace) Emit(event string, args ...interface{}) error {
	return ns.In("").Emit(event, args...)
}

// handleDisconnect removes the session's socket and fires its disconnect
// notification. wasInRoom reports whether the session had joined this
// namespace's rooms; sessions that never connected here are skipped.
func (ns *Namespace) handleDisconnect(sessionID, reason string, wasInRoom bool) {
	ns.mutex.Lock()
	s, ok := ns.sockets[sessionID]
	delete(ns.sockets, sessionID)
	ns.mutex.Unlock()

	if !ok {
		if wasInRoom {
			logger().V(1).Info("disconnect for session with room membership but no socket",
				"session", sessionID, "endpoint", ns.name)
		}
		return
	}

	s.onDisconnect(reason)
}

// BroadcastOperator narrows the recipients of one broadcast. Values are
// copied by the fluent calls, so an operator can be stashed and reused.
type BroadcastOperator struct {
	namespace *Namespace
	room      string
	except    []string
	volatile  bool
}

// Except excludes session ids from the broadcast.
func (b BroadcastOperator) Except(sessionIDs ...string) BroadcastOperator {
	excluded := make([]string, 0, len(b.except)+len(sessionIDs))
	excluded = append(excluded, b.except...)
	excluded = append(excluded, sessionIDs...)
	b.except = excluded
	return b
}

// Volatile marks the broadcast safe to drop for unreachable recipients.
func (b BroadcastOperator) Volatile() BroadcastOperator {
	b.volatile = true
	return b
}

// Emit broadcasts an event packet to the targeted recipients.
func (b BroadcastOperator) Emit(event string, args ...interface{}) error {
	return b.packet(&parser.Packet{Type: parser.Event, Name: event, Args: args})
}

func (b BroadcastOperator) packet(p *parser.Packet) error {
	p.Endpoint = b.namespace.name
	encoded, err := p.Encode()
	if err != nil {
		return err
	}

	b.namespace.manager.BroadcastDispatch(b.namespace.qualify(b.room), encoded, b.volatile, b.except)
	return nil
}
