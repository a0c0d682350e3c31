package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/example/websocket-relay/domain/relay"
	"github.com/example/websocket-relay/modules/presence"
	"github.com/example/websocket-relay/modules/relay"
)

type stubRelayPort struct {
	rooms   []domain.RoomInfo
	entries []domain.HistoryEntry
	members []domain.PeerInfo
	err     error
}

func (s *stubRelayPort) RoomList(_ context.Context) (*relay.RoomListResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &relay.RoomListResponse{Rooms: s.rooms}, nil
}

func (s *stubRelayPort) RoomHistory(_ context.Context, room string) (*relay.RoomHistoryResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &relay.RoomHistoryResponse{Room: room, Entries: s.entries}, nil
}

func (s *stubRelayPort) RoomMembers(_ context.Context, room string) (*relay.RoomMembersResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &relay.RoomMembersResponse{Room: room, Members: s.members}, nil
}

type stubStatsPort struct {
	stats []presence.RoomStats
	err   error
}

func (s *stubStatsPort) RoomStats(_ context.Context, _ string) (*presence.RoomStatsResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &presence.RoomStatsResponse{Stats: s.stats}, nil
}

func newTestAPI(rp relay.RelayPort, sp presence.StatsPort) *APIModule {
	m := NewModule()
	m.relayAdapter = rp
	m.statsAdapter = sp
	m.engine = relay.NewEngine(relay.DefaultConfig(), nil)
	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})
	m.setupRoutes()
	return m
}

func TestHealthEndpoint(t *testing.T) {
	m := newTestAPI(&stubRelayPort{}, &stubStatsPort{})

	resp, err := m.app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
}

func TestListRoomsEndpoint(t *testing.T) {
	m := newTestAPI(&stubRelayPort{
		rooms: []domain.RoomInfo{{Name: "demo", Members: 2}},
	}, &stubStatsPort{})

	resp, err := m.app.Test(httptest.NewRequest("GET", "/api/v1/rooms", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body RoomsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, "demo", body.Rooms[0].Name)
	assert.Equal(t, 2, body.Rooms[0].Members)
}

func TestHistoryEndpoint(t *testing.T) {
	m := newTestAPI(&stubRelayPort{
		entries: []domain.HistoryEntry{
			{Kind: domain.KindChat, Username: "alice", Text: "hello", SentAt: "2024-05-01 12:00:00"},
		},
	}, &stubStatsPort{})

	resp, err := m.app.Test(httptest.NewRequest("GET", "/api/v1/rooms/demo/history", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body HistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "demo", body.Room)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "hello", body.Entries[0].Text)
}

func TestMembersEndpoint(t *testing.T) {
	m := newTestAPI(&stubRelayPort{
		members: []domain.PeerInfo{{ID: "c1", Username: "alice", Room: "demo"}},
	}, &stubStatsPort{})

	resp, err := m.app.Test(httptest.NewRequest("GET", "/api/v1/rooms/demo/members", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body MembersResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Members, 1)
	assert.Equal(t, "alice", body.Members[0].Username)
}

func TestStatsEndpoint(t *testing.T) {
	m := newTestAPI(&stubRelayPort{}, &stubStatsPort{
		stats: []presence.RoomStats{
			{Room: "demo", Joins: 3, Messages: 7, LastActivity: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		},
	})

	resp, err := m.app.Test(httptest.NewRequest("GET", "/api/v1/stats", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Stats, 1)
	assert.Equal(t, 3, body.Stats[0].Joins)
}

func TestAdapterFailureReturns500(t *testing.T) {
	m := newTestAPI(&stubRelayPort{err: errors.New("service down")}, &stubStatsPort{})

	resp, err := m.app.Test(httptest.NewRequest("GET", "/api/v1/rooms", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "list_failed", body.Error)
}

func TestWebSocketEndpointRequiresUpgrade(t *testing.T) {
	m := newTestAPI(&stubRelayPort{}, &stubStatsPort{})

	resp, err := m.app.Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
