package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/gateway"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/middleware"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/relay"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/repository"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/repository/mocks"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/service"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/session"
)

// gatewayFixture runs the gateway behind a real HTTP server so tests
// exercise the actual upgrade and pump path. Identity is injected from
// request headers the way the auth middleware would set it.
type gatewayFixture struct {
	server     *httptest.Server
	registry   *session.Registry
	roomRepo   *mocks.RoomRepository
	ticketRepo *mocks.TicketRepository
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	roomRepo := new(mocks.RoomRepository)
	ticketRepo := new(mocks.TicketRepository)
	roomService := service.NewRoomService(roomRepo)
	ticketService := service.NewTicketService(ticketRepo, time.Hour)
	registry := session.NewRegistry(roomService)
	router := relay.NewRouter(registry)
	gw := gateway.NewGateway(registry, router, roomService, ticketService)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.CtxUserID, c.GetHeader("X-Test-User"))
		c.Set(middleware.CtxRole, c.GetHeader("X-Test-Role"))
	})
	engine.GET("/ws/room/:roomId", gw.HandleConnection)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return &gatewayFixture{
		server:     server,
		registry:   registry,
		roomRepo:   roomRepo,
		ticketRepo: ticketRepo,
	}
}

func (f *gatewayFixture) dial(t *testing.T, path, userID string, role domain.Role) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + path
	header := http.Header{}
	header.Set("X-Test-User", userID)
	header.Set("X-Test-Role", string(role))
	return websocket.DefaultDialer.Dial(url, header)
}

func TestGateway_ExpiredPinRejectedBeforeUpgrade(t *testing.T) {
	f := newGatewayFixture(t)
	f.roomRepo.On("Exists", mock.Anything, "room-1").Return(true, nil)
	stale := &domain.ConnectionTicket{
		RoomID:     "room-1",
		PinCode:    "482913",
		ValidUntil: time.Now().Add(-time.Minute),
	}
	f.ticketRepo.On("FindByPin", mock.Anything, "room-1", "482913").Return(stale, nil).Once()

	conn, resp, err := f.dial(t, "/ws/room/room-1?pin=482913", "user-1", domain.RoleUser)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusGone, resp.StatusCode)

	f.roomRepo.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestGateway_UnknownPinRejectedBeforeUpgrade(t *testing.T) {
	f := newGatewayFixture(t)
	f.roomRepo.On("Exists", mock.Anything, "room-1").Return(true, nil)
	f.ticketRepo.On("FindByPin", mock.Anything, "room-1", "000000").
		Return(nil, repository.ErrTicketNotFound).Once()

	_, resp, err := f.dial(t, "/ws/room/room-1?pin=000000", "user-1", domain.RoleUser)
	require.Error(t, err)
	require.NotNil(t, resp)
	// Expired and unknown PINs answer differently so the client can
	// prompt correctly.
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGateway_UnknownRoomRejectedBeforeUpgrade(t *testing.T) {
	f := newGatewayFixture(t)
	f.roomRepo.On("Exists", mock.Anything, "missing").Return(false, nil)

	_, resp, err := f.dial(t, "/ws/room/missing", "user-1", domain.RoleUser)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGateway_NonMemberDeniedWithCloseFrame(t *testing.T) {
	f := newGatewayFixture(t)
	f.roomRepo.On("Exists", mock.Anything, "room-1").Return(true, nil)
	f.roomRepo.On("IsMember", mock.Anything, "room-1", "outsider").Return(false, nil)
	valid := &domain.ConnectionTicket{
		RoomID:     "room-1",
		PinCode:    "482913",
		ValidUntil: time.Now().Add(30 * time.Minute),
	}
	f.ticketRepo.On("FindByPin", mock.Anything, "room-1", "482913").Return(valid, nil).Once()

	// A valid PIN alone does not admit a non-member; the denial arrives
	// after the upgrade as a policy violation close frame.
	conn, _, err := f.dial(t, "/ws/room/room-1?pin=482913", "outsider", domain.RoleUser)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)

	rooms, participants := f.registry.Stats()
	assert.Zero(t, rooms)
	assert.Zero(t, participants)
}

func TestGateway_AdminBypassesMembership(t *testing.T) {
	f := newGatewayFixture(t)
	f.roomRepo.On("Exists", mock.Anything, "room-1").Return(true, nil)

	conn, _, err := f.dial(t, "/ws/room/room-1", "admin-1", domain.RoleAdmin)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(frame, &snap))
	assert.Equal(t, "stateSnapshot", snap["type"])

	f.roomRepo.AssertNotCalled(t, "IsMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestGateway_MemberJoinsAndDisconnectCleansUp(t *testing.T) {
	f := newGatewayFixture(t)
	f.roomRepo.On("Exists", mock.Anything, "room-1").Return(true, nil)
	f.roomRepo.On("IsMember", mock.Anything, "room-1", "member-1").Return(true, nil)

	// Members connecting without a PIN are admitted on membership alone.
	conn, _, err := f.dial(t, "/ws/room/room-1", "member-1", domain.RoleUser)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(frame, &snap))
	assert.Equal(t, "stateSnapshot", snap["type"])

	infos := f.registry.ListParticipants("room-1")
	require.Len(t, infos, 1)
	assert.Equal(t, "member-1", infos[0].UserID)
	assert.Equal(t, domain.RoleUser, infos[0].Role, "role must survive the transport handshake")

	// Abrupt transport close, no leave event. The deferred cleanup in the
	// read pump must still remove the participant and tear the room down.
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		rooms, participants := f.registry.Stats()
		return rooms == 0 && participants == 0
	}, 2*time.Second, 10*time.Millisecond, "disconnect did not trigger leave")
}

func TestGateway_EventsRelayedOverTransport(t *testing.T) {
	f := newGatewayFixture(t)
	f.roomRepo.On("Exists", mock.Anything, "room-1").Return(true, nil)
	f.roomRepo.On("IsMember", mock.Anything, "room-1", mock.AnythingOfType("string")).Return(true, nil)

	sender, _, err := f.dial(t, "/ws/room/room-1", "member-1", domain.RoleUser)
	require.NoError(t, err)
	defer sender.Close()
	receiver, _, err := f.dial(t, "/ws/room/room-1", "member-2", domain.RoleUser)
	require.NoError(t, err)
	defer receiver.Close()

	// Drain both snapshots so the next frame is the relayed event.
	sender.SetReadDeadline(time.Now().Add(2 * time.Second))
	receiver.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = sender.ReadMessage()
	require.NoError(t, err)
	_, _, err = receiver.ReadMessage()
	require.NoError(t, err)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"rotate","x":0.5,"z":-0.25}`)))

	for {
		_, frame, err := receiver.ReadMessage()
		require.NoError(t, err)
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(frame, &msg))
		if msg["type"] == "participantJoined" {
			continue
		}
		assert.Equal(t, "rotate", msg["type"])
		assert.Equal(t, 0.5, msg["x"])
		assert.Equal(t, -0.25, msg["z"])
		break
	}
}
