package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConn(id string) *Conn {
	return newConn(id, &fakeTransport{}, 16)
}

func TestRegistry_JoinCreatesRoom(t *testing.T) {
	r := NewRegistry()
	c := testConn("c1")

	r.Join(c, "demo")

	assert.True(t, r.hasRoom("demo"))
	assert.Equal(t, 1, r.RoomSize("demo"))
	assert.Equal(t, "demo", c.Room())
}

func TestRegistry_AtMostOneRoom(t *testing.T) {
	r := NewRegistry()
	c := testConn("c1")

	r.Join(c, "first")
	r.Join(c, "second")

	assert.False(t, r.hasRoom("first"), "empty room should be deleted eagerly")
	assert.True(t, r.hasRoom("second"))
	assert.Equal(t, "second", c.Room())
	assert.Equal(t, 1, r.RoomSize("second"))
}

func TestRegistry_JoinSameRoomIsNoOp(t *testing.T) {
	r := NewRegistry()
	c := testConn("c1")

	r.Join(c, "demo")
	r.Join(c, "demo")

	assert.Equal(t, 1, r.RoomSize("demo"))
	assert.Equal(t, "demo", c.Room())
}

func TestRegistry_LeaveDeletesEmptyRoom(t *testing.T) {
	r := NewRegistry()
	a := testConn("a")
	b := testConn("b")

	r.Join(a, "demo")
	r.Join(b, "demo")
	require.Equal(t, 2, r.RoomSize("demo"))

	r.Leave(a)
	assert.True(t, r.hasRoom("demo"))
	assert.Equal(t, 1, r.RoomSize("demo"))
	assert.Equal(t, "", a.Room())

	r.Leave(b)
	assert.False(t, r.hasRoom("demo"))
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := testConn("c1")

	r.Leave(c)

	r.Join(c, "demo")
	r.Leave(c)
	r.Leave(c)

	assert.False(t, r.hasRoom("demo"))
	assert.Equal(t, "", c.Room())
}

func TestRegistry_MembersSnapshot(t *testing.T) {
	r := NewRegistry()
	a := testConn("a")
	b := testConn("b")

	r.Join(a, "demo")
	r.Join(b, "demo")

	members := r.Members("demo")
	require.Len(t, members, 2)

	ids := map[string]bool{}
	for _, c := range members {
		ids[c.ID()] = true
	}
	assert.True(t, ids["a"])
	assert.True(t, ids["b"])

	assert.Empty(t, r.Members("absent"))
}

func TestRegistry_RoomsSortedByName(t *testing.T) {
	r := NewRegistry()
	r.Join(testConn("a"), "zebra")
	r.Join(testConn("b"), "alpha")
	r.Join(testConn("c"), "alpha")

	rooms := r.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "alpha", rooms[0].Name)
	assert.Equal(t, 2, rooms[0].Members)
	assert.Equal(t, "zebra", rooms[1].Name)
	assert.Equal(t, 1, rooms[1].Members)
}
