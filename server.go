package socketio

// Server is the composition root: it owns the manager and exposes the
// registration and broadcast surface application code works with. The
// handshake and transport-binding layers talk to the Manager directly.
type Server struct {
	manager *Manager
}

// NewServer returns a server with a fresh manager.
func NewServer(opts *Options) *Server {
	return &Server{manager: NewManager(opts)}
}

// Manager exposes the session registry for the handshake and
// transport-binding collaborators.
func (s *Server) Manager() *Manager {
	return s.manager
}

// Of returns the namespace for an endpoint name, creating it on first use.
func (s *Server) Of(namespace string) *Namespace {
	return s.manager.Of(namespace)
}

// OnConnect sets the connection handler for a namespace.
func (s *Server) OnConnect(namespace string, f ConnectHandler) {
	s.manager.Of(namespace).OnConnect(f)
}

// OnDisconnect sets the disconnect handler for a namespace.
func (s *Server) OnDisconnect(namespace string, f DisconnectHandler) {
	s.manager.Of(namespace).OnDisconnect(f)
}

// OnEvent sets the default handler for an event in a namespace.
func (s *Server) OnEvent(namespace, event string, f EventHandler) {
	s.manager.Of(namespace).OnEvent(event, f)
}

// JoinRoom joins the session to a room of the namespace.
func (s *Server) JoinRoom(namespace, room, sessionID string) {
	ns := s.manager.Of(namespace)
	s.manager.Join(sessionID, ns.qualify(room))
}

// LeaveRoom removes the session from a room of the namespace.
func (s *Server) LeaveRoom(namespace, room, sessionID string) {
	ns := s.manager.Of(namespace)
	s.manager.Leave(sessionID, ns.qualify(room))
}

// BroadcastToRoom broadcasts an event to every session in the room.
func (s *Server) BroadcastToRoom(namespace, room, event string, args ...interface{}) error {
	return s.manager.Of(namespace).In(room).Emit(event, args...)
}

// BroadcastToNamespace broadcasts an event to every session in the
// namespace.
func (s *Server) BroadcastToNamespace(namespace, event string, args ...interface{}) error {
	return s.manager.Of(namespace).Emit(event, args...)
}

// RoomLen returns the number of sessions in a room of the namespace.
func (s *Server) RoomLen(namespace, room string) int {
	ns := s.manager.Of(namespace)
	return s.manager.RoomLen(ns.qualify(room))
}

// Close releases the manager's cross-node substrate.
func (s *Server) Close() error {
	return s.manager.Close()
}
