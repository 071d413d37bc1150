package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// requireRoomInvariant checks that a room is registered iff it has members.
func requireRoomInvariant(t *testing.T, r *Registry, rooms ...string) {
	t.Helper()
	for _, room := range rooms {
		require.Equal(t, r.MemberCount(room) > 0, r.Exists(room), "room %q", room)
	}
}

func TestRegistryJoinCreatesRoomLazily(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Exists("general"))
	assert.Equal(t, 0, r.MemberCount("general"))

	r.Join("c1", Identity{Username: "Alice", Room: "general"}, epoch)
	requireRoomInvariant(t, r, "general")
	assert.Equal(t, 1, r.MemberCount("general"))
	assert.Equal(t, 1, r.RoomCount())
	assert.Equal(t, 1, r.ConnectionCount())

	rec, ok := r.Presence("c1")
	require.True(t, ok)
	assert.Equal(t, "Alice", rec.Username)
	assert.Equal(t, "general", rec.Room)
	assert.Equal(t, epoch, rec.JoinedAt)
}

func TestRegistryLeaveDestroysEmptyRoomAndHistory(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", Identity{Username: "Alice", Room: "general"}, epoch)
	r.Join("c2", Identity{Username: "Bob", Room: "general"}, epoch)
	r.Append("general", Message{ID: "m1", Message: "hi"})

	_, ok := r.Leave("c1")
	require.True(t, ok)
	requireRoomInvariant(t, r, "general")
	assert.Equal(t, 1, r.HistoryLen("general"))

	_, ok = r.Leave("c2")
	require.True(t, ok)
	requireRoomInvariant(t, r, "general")
	assert.False(t, r.Exists("general"))
	assert.Equal(t, 0, r.HistoryLen("general"))
	assert.Equal(t, 0, r.ConnectionCount())

	r.Join("c3", Identity{Username: "Carol", Room: "general"}, epoch)
	assert.Empty(t, r.Recent("general", HistoryReplay))
}

func TestRegistryLeaveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Leave("ghost")
	assert.False(t, ok)

	r.Join("c1", Identity{Username: "Alice", Room: "general"}, epoch)
	_, ok = r.Leave("c1")
	assert.True(t, ok)
	_, ok = r.Leave("c1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.RoomCount())
}

func TestRegistryMemberListKeepsJoinOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve"}
	for i, name := range names {
		r.Join(name, Identity{Username: name, Room: "general"}, epoch.Add(time.Duration(i)*time.Second))
	}
	r.Join("other", Identity{Username: "Mallory", Room: "elsewhere"}, epoch)
	r.Leave("Carol")

	list := r.MemberList("general")
	got := make([]string, len(list))
	for i, m := range list {
		got[i] = m.Username
	}
	assert.Equal(t, []string{"Alice", "Bob", "Dave", "Eve"}, got)
	assert.Equal(t, epoch.Add(3*time.Second), list[2].JoinedAt)
}

func TestRegistryUnknownRoomReads(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.MemberList("nope"))
	assert.NotNil(t, r.MemberList("nope"))
	assert.Empty(t, r.Recent("nope", HistoryReplay))
	assert.Nil(t, r.Members("nope"))

	r.Append("nope", Message{ID: "x"})
	assert.False(t, r.Exists("nope"))
}

func TestRegistryHistoryIsScopedToRoom(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", Identity{Username: "Alice", Room: "a"}, epoch)
	r.Join("c2", Identity{Username: "Bob", Room: "b"}, epoch)
	r.Append("a", Message{ID: "a1", Room: "a"})
	r.Append("b", Message{ID: "b1", Room: "b"})

	assert.Equal(t, []string{"a1"}, ids(r.Recent("a", HistoryReplay)))
	assert.Equal(t, []string{"b1"}, ids(r.Recent("b", HistoryReplay)))
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, r.RoomCounts())
}
