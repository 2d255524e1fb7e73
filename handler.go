package socketio

import (
	"sync"
)

// ConnectHandler runs when a namespace accepts a connecting session.
type ConnectHandler func(*Socket)

// DisconnectHandler runs once per socket when its session disconnects.
type DisconnectHandler func(*Socket, string)

// EventHandler handles one named event delivered to a socket.
type EventHandler func(*Socket, []interface{})

// namespaceHandler holds the application handlers registered for one
// namespace. Event handlers registered here act as defaults for every socket
// in the namespace; a socket-level registration shadows them.
type namespaceHandler struct {
	mutex sync.RWMutex

	onConnect    ConnectHandler
	onDisconnect DisconnectHandler
	events       map[string]EventHandler
}

func newNamespaceHandler() *namespaceHandler {
	return &namespaceHandler{events: make(map[string]EventHandler)}
}

func (nh *namespaceHandler) setOnConnect(f ConnectHandler) {
	nh.mutex.Lock()
	defer nh.mutex.Unlock()

	nh.onConnect = f
}

func (nh *namespaceHandler) setOnDisconnect(f DisconnectHandler) {
	nh.mutex.Lock()
	defer nh.mutex.Unlock()

	nh.onDisconnect = f
}

func (nh *namespaceHandler) setOnEvent(event string, f EventHandler) {
	nh.mutex.Lock()
	defer nh.mutex.Unlock()

	nh.events[event] = f
}

func (nh *namespaceHandler) connect() ConnectHandler {
	nh.mutex.RLock()
	defer nh.mutex.RUnlock()

	return nh.onConnect
}

func (nh *namespaceHandler) disconnect() DisconnectHandler {
	nh.mutex.RLock()
	defer nh.mutex.RUnlock()

	return nh.onDisconnect
}

func (nh *namespaceHandler) event(name string) EventHandler {
	nh.mutex.RLock()
	defer nh.mutex.RUnlock()

	return nh.events[name]
}
