package chat

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"
)

// room pairs a member set with its history so both are created and
// destroyed by a single map operation.
type room struct {
	members map[string]struct{}
	history *History
}

// Registry holds the room registry, the per-room history rings and the
// presence directory. It is not safe for concurrent use; the Engine
// serializes access.
type Registry struct {
	rooms    map[string]*room
	presence *presenceDirectory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]*room),
		presence: newPresenceDirectory(),
	}
}

// Join enrolls connID in id.Room, creating the room and its history if needed,
// and records its presence.
func (r *Registry) Join(connID string, id Identity, joinedAt time.Time) {
	rm, ok := r.rooms[id.Room]
	if !ok {
		rm = &room{
			members: make(map[string]struct{}),
			history: NewHistory(HistoryCapacity),
		}
		r.rooms[id.Room] = rm
	}
	rm.members[connID] = struct{}{}
	r.presence.put(connID, PresenceRecord{
		Username: id.Username,
		Room:     id.Room,
		JoinedAt: joinedAt,
	})
}

// Leave removes connID from its room and the presence directory. The room
// and its history are deleted together once the last member is gone.
// It returns the removed record, or false when connID was unknown.
func (r *Registry) Leave(connID string) (PresenceRecord, bool) {
	rec, ok := r.presence.get(connID)
	if !ok {
		return PresenceRecord{}, false
	}

	if rm, exists := r.rooms[rec.Room]; exists {
		delete(rm.members, connID)
		if len(rm.members) == 0 {
			delete(r.rooms, rec.Room)
		}
	}
	r.presence.remove(connID)
	return rec, true
}

// Presence returns the record for connID.
func (r *Registry) Presence(connID string) (PresenceRecord, bool) {
	return r.presence.get(connID)
}

// Members returns a snapshot of the connection ids currently in roomID.
func (r *Registry) Members(roomID string) []string {
	rm, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return lo.Keys(rm.members)
}

// MemberList returns the roster of roomID in join order.
func (r *Registry) MemberList(roomID string) []Member {
	rm, ok := r.rooms[roomID]
	if !ok {
		return []Member{}
	}

	records := make([]PresenceRecord, 0, len(rm.members))
	for connID := range rm.members {
		if rec, found := r.presence.get(connID); found {
			records = append(records, rec)
		}
	}
	slices.SortFunc(records, func(a, b PresenceRecord) int {
		return cmp.Compare(a.seq, b.seq)
	})

	return lo.Map(records, func(rec PresenceRecord, _ int) Member {
		return Member{Username: rec.Username, JoinedAt: rec.JoinedAt}
	})
}

// MemberCount returns the number of members in roomID, 0 when unknown.
func (r *Registry) MemberCount(roomID string) int {
	rm, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	return len(rm.members)
}

// Exists reports whether roomID is registered.
func (r *Registry) Exists(roomID string) bool {
	_, ok := r.rooms[roomID]
	return ok
}

// Append records msg in the history of roomID. Unknown rooms are ignored.
func (r *Registry) Append(roomID string, msg Message) {
	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}
	rm.history.Append(msg)
}

// Recent returns up to n of the newest messages of roomID, oldest first.
func (r *Registry) Recent(roomID string, n int) []Message {
	rm, ok := r.rooms[roomID]
	if !ok {
		return []Message{}
	}
	return rm.history.Recent(n)
}

// HistoryLen returns the number of messages retained for roomID.
func (r *Registry) HistoryLen(roomID string) int {
	rm, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	return rm.history.Len()
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	return len(r.rooms)
}

// ConnectionCount returns the number of live presence records.
func (r *Registry) ConnectionCount() int {
	return r.presence.count()
}

// RoomCounts returns the member count of every live room.
func (r *Registry) RoomCounts() map[string]int {
	return lo.MapValues(r.rooms, func(rm *room, _ string) int {
		return len(rm.members)
	})
}
