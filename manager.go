package socketio

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keesun/go-socket.io/parser"
)

// DefaultNamespace is the endpoint name of the default namespace.
const DefaultNamespace = ""

// HandshakeData is the client metadata captured once at handshake time and
// immutable afterwards.
type HandshakeData struct {
	Headers http.Header
	Address string
	Query   url.Values
	Issued  time.Time
}

// AuthorizationFunc is the pass/fail gate consulted before a handshake is
// recorded. Policy lives with the caller; the manager only honors the
// verdict.
type AuthorizationFunc func(HandshakeData) bool

// NewSessionID generates an opaque session id for a handshaking client.
func NewSessionID() string {
	return uuid.NewString()
}

// Manager owns the session registries and the dispatch algorithm: direct
// delivery while a session's transport is open, ordered buffering while it
// is closed, and the store hand-off for sessions owned by another node.
type Manager struct {
	opts   *Options
	store  Store
	nodeID string

	mutex       sync.Mutex
	handshaken  map[string]HandshakeData
	transports  map[string]Transport
	closed      map[string][]string
	open        map[string]bool
	connected   map[string]bool
	rooms       map[string]*Room
	roomClients map[string]*RoomClient

	nspMutex   sync.RWMutex
	namespaces map[string]*Namespace

	sockets *Namespace
	auth    AuthorizationFunc
}

// NewManager builds a manager with its default namespace registered.
func NewManager(opts *Options) *Manager {
	options := getOptions(opts)

	m := &Manager{
		opts:        options,
		store:       options.Store,
		nodeID:      uuid.NewString(),
		handshaken:  make(map[string]HandshakeData),
		transports:  make(map[string]Transport),
		closed:      make(map[string][]string),
		open:        make(map[string]bool),
		connected:   make(map[string]bool),
		rooms:       make(map[string]*Room),
		roomClients: make(map[string]*RoomClient),
		namespaces:  make(map[string]*Namespace),
	}
	m.sockets = m.Of(DefaultNamespace)

	logger().Info("socket.io manager started", "node", m.nodeID)

	return m
}

// Sockets returns the default namespace.
func (m *Manager) Sockets() *Namespace {
	return m.sockets
}

// Of returns the namespace for an endpoint name, creating it on first
// reference. Namespaces are never destroyed within the process lifetime.
func (m *Manager) Of(name string) *Namespace {
	m.nspMutex.RLock()
	ns, ok := m.namespaces[name]
	m.nspMutex.RUnlock()
	if ok {
		return ns
	}

	m.nspMutex.Lock()
	defer m.nspMutex.Unlock()

	if ns, ok = m.namespaces[name]; ok {
		return ns
	}
	ns = newNamespace(m, name)
	m.namespaces[name] = ns
	return ns
}

// SetAuthorization installs the global handshake gate.
func (m *Manager) SetAuthorization(f AuthorizationFunc) {
	m.auth = f
}

// Handshake records a session. Recording the same id twice overwrites the
// previous data. The session's store channel is subscribed here so packets
// emitted from other nodes can reach it for as long as it exists.
func (m *Manager) Handshake(sessionID string, data HandshakeData) error {
	if m.auth != nil && !m.auth(data) {
		return fmt.Errorf("%w: session %s", ErrUnauthorized, sessionID)
	}

	m.mutex.Lock()
	m.handshaken[sessionID] = data
	m.mutex.Unlock()

	if err := m.store.Subscribe(dispatchChannel(sessionID), m.onStoreDispatch); err != nil {
		logger().Error(err, "store subscribe failed", "session", sessionID)
	}

	return nil
}

// Handshaken returns the recorded handshake data for a session.
func (m *Manager) Handshaken(sessionID string) (HandshakeData, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	data, ok := m.handshaken[sessionID]
	return data, ok
}

// BindTransport associates a transport with a session. A previously bound
// transport is discarded first so a session never has two live deliveries.
func (m *Manager) BindTransport(sessionID string, t Transport) {
	m.mutex.Lock()
	prev := m.transports[sessionID]
	m.transports[sessionID] = t
	m.mutex.Unlock()

	if prev != nil && prev != t {
		prev.Discard()
	}
}

// Transport returns the transport currently bound to a session.
func (m *Manager) Transport(sessionID string) Transport {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.transports[sessionID]
}

// NewTransport selects a transport variant by its negotiated kind.
func (m *Manager) NewTransport(kind string, data *ClientData) (Transport, error) {
	switch kind {
	case "websocket":
		return newWebsocketTransport(data, m.opts), nil
	case "flashsocket":
		return newFlashsocketTransport(data, m.opts), nil
	case "htmlfile":
		return newHTMLFileTransport(data), nil
	case "xhr-polling":
		return newXHRPollingTransport(data, m.opts), nil
	case "jsonp-polling":
		return newJSONPPollingTransport(data, m.opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTransport, kind)
	}
}

// Dispatch delivers one encoded packet to a session: directly while its
// transport is open, otherwise buffered in order for replay on reconnect.
// Volatile packets are dropped instead of buffered. When the session's
// transport may live on another node, the packet is also handed to the
// store.
func (m *Manager) Dispatch(sessionID, encodedPacket string, volatile bool) {
	m.mutex.Lock()
	buffered := m.dispatchLocked(sessionID, encodedPacket, volatile)
	m.mutex.Unlock()

	if buffered {
		m.publishDispatch(sessionID, encodedPacket, volatile)
	}
}

// dispatchLocked applies the direct/buffer/drop decision for one session.
// It reports whether the packet went to the closed-buffer, meaning another
// node might own the live transport.
func (m *Manager) dispatchLocked(sessionID, encodedPacket string, volatile bool) bool {
	if t := m.transports[sessionID]; t != nil && t.Open() {
		t.Dispatch(encodedPacket, volatile)
		return false
	}

	if volatile {
		logger().V(1).Info("dropping volatile packet", "session", sessionID)
		return false
	}

	m.closed[sessionID] = append(m.closed[sessionID], encodedPacket)
	return true
}

// BroadcastDispatch applies Dispatch's decision to every member of a room
// not present in the exclusion list. An unknown room is an empty one.
func (m *Manager) BroadcastDispatch(roomName, encodedPacket string, volatile bool, except []string) {
	excluded := make(map[string]struct{}, len(except))
	for _, id := range except {
		excluded[id] = struct{}{}
	}

	m.mutex.Lock()
	room := m.rooms[roomName]
	if room == nil {
		m.mutex.Unlock()
		return
	}

	var remote []string
	for _, id := range room.values() {
		if _, skip := excluded[id]; skip {
			continue
		}
		if m.dispatchLocked(id, encodedPacket, volatile) {
			remote = append(remote, id)
		}
	}
	m.mutex.Unlock()

	for _, id := range remote {
		m.publishDispatch(id, encodedPacket, volatile)
	}
}

// OnClientMessage routes an inbound packet to its endpoint's namespace. An
// endpoint nobody registered is ignored.
func (m *Manager) OnClientMessage(sessionID string, p *parser.Packet) {
	m.nspMutex.RLock()
	ns := m.namespaces[p.Endpoint]
	m.nspMutex.RUnlock()

	if ns == nil {
		logger().V(1).Info("message for unknown endpoint", "endpoint", p.Endpoint, "session", sessionID)
		return
	}

	ns.HandlePacket(sessionID, p)
}

// Join adds a session to a room, keeping the room and inverse index
// consistent. Joining twice is a no-op.
func (m *Manager) Join(sessionID, roomName string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rc := m.roomClients[sessionID]
	if rc == nil {
		rc = newRoomClient()
		m.roomClients[sessionID] = rc
	}

	room := m.rooms[roomName]
	if room == nil {
		room = newRoom()
		m.rooms[roomName] = room
	}

	if room.add(sessionID) {
		rc.put(roomName)
	}
}

// Leave removes a session from a room. Leaving a room the session is not in
// is a no-op; an emptied room is removed eagerly.
func (m *Manager) Leave(sessionID, roomName string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.leaveLocked(sessionID, roomName)
}

func (m *Manager) leaveLocked(sessionID, roomName string) {
	room := m.rooms[roomName]
	if room == nil {
		return
	}

	room.remove(sessionID)
	if room.len() == 0 {
		delete(m.rooms, roomName)
	}

	if rc := m.roomClients[sessionID]; rc != nil {
		rc.remove(roomName)
	}
}

// RoomLen returns the number of sessions in a room.
func (m *Manager) RoomLen(roomName string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room := m.rooms[roomName]
	if room == nil {
		return 0
	}
	return room.len()
}

// Rooms returns a snapshot of all room names.
func (m *Manager) Rooms() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return getKeysOfMap(m.rooms)
}

// Connected reports whether the application-level connect has fired for a
// session.
func (m *Manager) Connected(sessionID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.connected[sessionID]
}

// OnConnect marks that the application-level connect fired for a session.
// It is not re-fired when the transport rebinds.
func (m *Manager) OnConnect(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.connected[sessionID] = true
}

// OnOpen marks a session's transport reachable and replays its closed
// buffer, in order, as a single payload through the newly bound transport.
func (m *Manager) OnOpen(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.open[sessionID] = true

	buffered := m.closed[sessionID]
	if len(buffered) == 0 {
		return
	}

	if t := m.transports[sessionID]; t != nil && t.Open() {
		t.Payload(buffered)
		delete(m.closed, sessionID)
	}
}

// OnClose marks the transport lost while the session stays eligible for
// buffered replay and reconnection.
func (m *Manager) OnClose(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.open, sessionID)
	if m.closed[sessionID] == nil {
		m.closed[sessionID] = []string{}
	}
}

// OnClientDisconnect notifies every namespace holding a socket for the
// session and then tears the session down.
func (m *Manager) OnClientDisconnect(sessionID, reason string) {
	m.nspMutex.RLock()
	namespaces := make([]*Namespace, 0, len(m.namespaces))
	for _, ns := range m.namespaces {
		namespaces = append(namespaces, ns)
	}
	m.nspMutex.RUnlock()

	m.mutex.Lock()
	rc := m.roomClients[sessionID]
	m.mutex.Unlock()

	for _, ns := range namespaces {
		wasInRoom := rc != nil && rc.isIn(ns.qualify(""))
		ns.handleDisconnect(sessionID, reason, wasInRoom)
	}

	m.OnDisconnect(sessionID)
}

// OnDisconnect removes every trace of a session: handshake data, transport
// binding, closed buffer, room memberships and the store subscription. A
// second call for the same id is a no-op.
func (m *Manager) OnDisconnect(sessionID string) {
	m.mutex.Lock()

	delete(m.handshaken, sessionID)
	delete(m.open, sessionID)
	delete(m.connected, sessionID)
	delete(m.closed, sessionID)

	t := m.transports[sessionID]
	delete(m.transports, sessionID)

	if rc := m.roomClients[sessionID]; rc != nil {
		for _, roomName := range rc.roomNames() {
			m.leaveLocked(sessionID, roomName)
		}
		delete(m.roomClients, sessionID)
	}

	m.mutex.Unlock()

	if t != nil {
		t.Discard()
	}

	if err := m.store.Unsubscribe(dispatchChannel(sessionID)); err != nil {
		logger().V(1).Info("store unsubscribe failed", "session", sessionID, "err", err)
	}
}

func dispatchChannel(sessionID string) string {
	return "dispatch:" + sessionID
}

// publishDispatch hands a packet that could not be delivered locally to the
// store, in case another node owns the session's transport.
func (m *Manager) publishDispatch(sessionID, encodedPacket string, volatile bool) {
	err := m.store.Publish(dispatchChannel(sessionID), DispatchMessage{
		NodeID:    m.nodeID,
		SessionID: sessionID,
		Packet:    encodedPacket,
		Volatile:  volatile,
	})
	if err != nil {
		logger().V(1).Info("store publish failed", "session", sessionID, "err", err)
	}
}

// onStoreDispatch handles a dispatch message published by another node. If
// this node holds the session's open transport it delivers directly;
// otherwise non-volatile packets join the local closed buffer so whichever
// node sees the reconnect drains them.
func (m *Manager) onStoreDispatch(msg DispatchMessage) {
	if msg.NodeID == m.nodeID {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if t := m.transports[msg.SessionID]; t != nil && t.Open() {
		t.Dispatch(msg.Packet, msg.Volatile)
		return
	}

	if msg.Volatile {
		return
	}
	if _, ok := m.handshaken[msg.SessionID]; !ok {
		return
	}
	m.closed[msg.SessionID] = append(m.closed[msg.SessionID], msg.Packet)
}

// Close shuts down the cross-node substrate.
func (m *Manager) Close() error {
	return m.store.Close()
}
