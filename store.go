package socketio

import (
	"sync"
)

// DispatchMessage travels over the store when the node handling an emit does
// not hold the transport for the target session. NodeID identifies the
// publishing node so subscribers can skip their own messages.
type DispatchMessage struct {
	NodeID    string `json:"nodeId"`
	SessionID string `json:"sessionId"`
	Packet    string `json:"packet"`
	Volatile  bool   `json:"volatile"`
}

// Store is the pub/sub substrate that carries undeliverable packets between
// nodes. A single-process deployment uses the in-memory store; a clustered
// one swaps in the redis store without touching Manager's dispatch logic.
type Store interface {
	// Publish sends msg on the named channel.
	Publish(channel string, msg DispatchMessage) error

	// Subscribe registers h for the named channel, replacing any previous
	// handler for it.
	Subscribe(channel string, h func(DispatchMessage)) error

	// Unsubscribe removes the channel's handler.
	Unsubscribe(channel string) error

	Close() error
}

// memoryStore is a process-local bus. With a single node every published
// message is the node's own, so subscribers filter it out and the local
// closed-buffer carries the packet instead.
type memoryStore struct {
	mutex    sync.RWMutex
	handlers map[string]func(DispatchMessage)
	closed   bool
}

// NewMemoryStore returns the single-node Store used when no cluster
// substrate is configured.
func NewMemoryStore() Store {
	return &memoryStore{handlers: make(map[string]func(DispatchMessage))}
}

func (s *memoryStore) Publish(channel string, msg DispatchMessage) error {
	s.mutex.RLock()
	if s.closed {
		s.mutex.RUnlock()
		return ErrStoreClosed
	}
	h := s.handlers[channel]
	s.mutex.RUnlock()

	if h != nil {
		h(msg)
	}
	return nil
}

func (s *memoryStore) Subscribe(channel string, h func(DispatchMessage)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.handlers[channel] = h
	return nil
}

func (s *memoryStore) Unsubscribe(channel string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.handlers, channel)
	return nil
}

func (s *memoryStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.closed = true
	s.handlers = make(map[string]func(DispatchMessage))
	return nil
}
