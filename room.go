package socketio

import (
	"sync"
)

// Room is a set of session ids eligible for a targeted broadcast.
type Room struct {
	mutex sync.RWMutex
	ids   map[string]struct{}
}

func newRoom() *Room {
	return &Room{ids: make(map[string]struct{})}
}

// add registers the session id. It reports whether the id was not already a
// member, keeping join idempotent.
func (r *Room) add(sessionID string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.ids[sessionID]; ok {
		return false
	}
	r.ids[sessionID] = struct{}{}
	return true
}

func (r *Room) remove(sessionID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.ids, sessionID)
}

func (r *Room) contains(sessionID string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.ids[sessionID]
	return ok
}

func (r *Room) len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.ids)
}

// values returns a snapshot of the member ids, safe to iterate while the
// room keeps changing.
func (r *Room) values() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return getKeysOfMap(r.ids)
}

// RoomClient is the inverse index: the rooms one session id has joined.
type RoomClient struct {
	mutex sync.RWMutex
	rooms map[string]struct{}
}

func newRoomClient() *RoomClient {
	return &RoomClient{rooms: make(map[string]struct{})}
}

func (rc *RoomClient) put(roomName string) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	rc.rooms[roomName] = struct{}{}
}

func (rc *RoomClient) remove(roomName string) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	delete(rc.rooms, roomName)
}

func (rc *RoomClient) isIn(roomName string) bool {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()

	_, ok := rc.rooms[roomName]
	return ok
}

// roomNames returns a snapshot of the joined room names.
func (rc *RoomClient) roomNames() []string {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()

	return getKeysOfMap(rc.rooms)
}

func getKeysOfMap[K comparable, V any](m map[K]V) []K {
	res := make([]K, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	return res
}
