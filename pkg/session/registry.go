package session

import "github.com/codesync/codesync/pkg/config"

// Registry owns every live room. It has an injected lifecycle (not
// a package singleton) so independent instances can coexist in tests.
//
// Like Room, it is driven exclusively from the hub's event loop and
// needs no locking of its own.
type Registry struct {
	rooms    map[string]*Room
	defaults config.Session
}

func NewRegistry(defaults config.Session) *Registry {
	return &Registry{rooms: make(map[string]*Room, 10), defaults: defaults}
}

// GetOrCreate returns the room for the key, creating it with the
// configured buffer defaults on first use. Never fails.
func (r *Registry) GetOrCreate(key string) (room *Room, created bool) {
	if room, ok := r.rooms[key]; ok {
		return room, false
	}
	room = newRoom(key, r.defaults.Code, r.defaults.Language, r.defaults.FileName)
	r.rooms[key] = room
	return room, true
}

func (r *Registry) Find(key string) *Room { return r.rooms[key] }

// RemoveIfEmpty drops the room state exactly when its participant
// set is empty, keeping memory bounded with short-lived rooms.
func (r *Registry) RemoveIfEmpty(key string) bool {
	room, ok := r.rooms[key]
	if !ok || !room.IsEmpty() {
		return false
	}
	delete(r.rooms, key)
	return true
}

func (r *Registry) Has(key string) bool { return r.rooms[key] != nil }

func (r *Registry) Len() int { return len(r.rooms) }
