package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/relay"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/service"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/session"
)

type allowAll struct{}

func (allowAll) CanJoin(context.Context, string, domain.Role, string) error { return nil }

type captureOutbox struct {
	mu     sync.Mutex
	frames [][]byte
}

func (o *captureOutbox) Enqueue(data []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frames = append(o.frames, data)
	return true
}

func (o *captureOutbox) Close() {}

// typedFrames decodes the captured frames to their "type" tag.
func (o *captureOutbox) typedFrames(t *testing.T) []map[string]interface{} {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(o.frames))
	for _, frame := range o.frames {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(frame, &m))
		out = append(out, m)
	}
	return out
}

// joinLive joins a connection and replays the snapshot so it receives
// relayed events, the way the gateway does it.
func joinLive(t *testing.T, registry *session.Registry, router *relay.Router, roomID, userID string) (*session.Participant, *captureOutbox) {
	t.Helper()
	outbox := &captureOutbox{}
	p, err := registry.Join(context.Background(), roomID, userID, domain.RoleUser, outbox)
	require.NoError(t, err)
	require.NoError(t, router.ReplayStateTo(p.ConnectionID))
	return p, outbox
}

func TestRouter_NoEchoToSender(t *testing.T) {
	registry := session.NewRegistry(allowAll{})
	router := relay.NewRouter(registry)

	sender, senderBox := joinLive(t, registry, router, "room-1", "user-1")
	_, peerBox := joinLive(t, registry, router, "room-1", "user-2")

	require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventRotate, X: 0.3, Z: 0.7}))

	for _, frame := range senderBox.typedFrames(t) {
		assert.NotEqual(t, "rotate", frame["type"], "sender must never hear its own event")
	}
	frames := peerBox.typedFrames(t)
	last := frames[len(frames)-1]
	assert.Equal(t, "rotate", last["type"])
	assert.Equal(t, 0.3, last["x"])
	assert.Equal(t, 0.7, last["z"])
}

func TestRouter_RoomsAreIsolated(t *testing.T) {
	registry := session.NewRegistry(allowAll{})
	router := relay.NewRouter(registry)

	sender, _ := joinLive(t, registry, router, "room-1", "user-1")
	_, sameRoomBox := joinLive(t, registry, router, "room-1", "user-2")
	_, otherRoomBox := joinLive(t, registry, router, "room-2", "user-3")

	require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventDraw, X: 1, Y: 2, Z: 3}))

	assert.Len(t, sameRoomBox.typedFrames(t), 2, "snapshot plus the draw")
	for _, frame := range otherRoomBox.typedFrames(t) {
		assert.NotEqual(t, "draw", frame["type"], "events must never cross rooms")
	}
}

func TestRouter_PerSenderOrderPreserved(t *testing.T) {
	registry := session.NewRegistry(allowAll{})
	router := relay.NewRouter(registry)

	sender, _ := joinLive(t, registry, router, "room-1", "user-1")
	_, peerBox := joinLive(t, registry, router, "room-1", "user-2")

	for i := 0; i < 20; i++ {
		ev := domain.Event{Type: domain.EventDraw, X: float64(i)}
		require.NoError(t, router.Publish(sender.ConnectionID, ev))
	}

	var xs []float64
	for _, frame := range peerBox.typedFrames(t) {
		if frame["type"] == "draw" {
			xs = append(xs, frame["x"].(float64))
		}
	}
	require.Len(t, xs, 20)
	for i, x := range xs {
		assert.Equal(t, float64(i), x, "draw %d out of order", i)
	}
}

func TestRouter_LateJoinerGetsSnapshotNotHistory(t *testing.T) {
	registry := session.NewRegistry(allowAll{})
	router := relay.NewRouter(registry)

	sender, _ := joinLive(t, registry, router, "room-1", "user-1")
	require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventRotate, X: 1.5, Z: -0.5}))
	require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventDraw, X: 1, Y: 1, Z: 1}))
	require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventDraw, X: 2, Y: 2, Z: 2}))

	_, lateBox := joinLive(t, registry, router, "room-1", "user-2")

	frames := lateBox.typedFrames(t)
	require.Len(t, frames, 1, "the joiner receives exactly one snapshot, no replayed events")
	snap := frames[0]
	assert.Equal(t, "stateSnapshot", snap["type"])

	rotation := snap["rotation"].(map[string]interface{})
	assert.Equal(t, 1.5, rotation["x"])
	assert.Equal(t, -0.5, rotation["z"])
	assert.Len(t, snap["drawPoints"].([]interface{}), 2)

	// Events after the snapshot flow normally.
	require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventDraw, X: 3, Y: 3, Z: 3}))
	frames = lateBox.typedFrames(t)
	require.Len(t, frames, 2)
	assert.Equal(t, "draw", frames[1]["type"])
}

func TestRouter_EraseFiltersByDistance(t *testing.T) {
	registry := session.NewRegistry(allowAll{})
	router := relay.NewRouter(registry)

	sender, _ := joinLive(t, registry, router, "room-1", "user-1")
	require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventDraw, X: 0, Y: 0, Z: 0}))
	require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventDraw, X: 0.1, Y: 0, Z: 0}))
	require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventDraw, X: 5, Y: 5, Z: 5}))

	require.NoError(t, router.Publish(sender.ConnectionID,
		domain.Event{Type: domain.EventErase, X: 0, Y: 0, Z: 0, Radius: 1}))

	_, st, ok := registry.Resolve(sender.ConnectionID)
	require.True(t, ok)
	_, points := st.Snapshot()
	require.Len(t, points, 1, "points within the erase radius are removed")
	assert.Equal(t, domain.Point{X: 5, Y: 5, Z: 5}, points[0])
}

func TestRouter_ClearDrawingEmptiesState(t *testing.T) {
	registry := session.NewRegistry(allowAll{})
	router := relay.NewRouter(registry)

	sender, _ := joinLive(t, registry, router, "room-1", "user-1")
	for i := 0; i < 5; i++ {
		require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventDraw, X: float64(i)}))
	}
	require.NoError(t, router.Publish(sender.ConnectionID, domain.Event{Type: domain.EventClearDrawing}))

	_, lateBox := joinLive(t, registry, router, "room-1", "user-2")
	snap := lateBox.typedFrames(t)[0]
	assert.Empty(t, snap["drawPoints"].([]interface{}))
}

func TestRouter_PresenceNotices(t *testing.T) {
	registry := session.NewRegistry(allowAll{})
	router := relay.NewRouter(registry)

	_, firstBox := joinLive(t, registry, router, "room-1", "user-1")
	second, _ := joinLive(t, registry, router, "room-1", "user-2")

	frames := firstBox.typedFrames(t)
	require.Len(t, frames, 2)
	assert.Equal(t, "participantJoined", frames[1]["type"])
	assert.Equal(t, "user-2", frames[1]["userId"])

	registry.Leave(second.ConnectionID)
	frames = firstBox.typedFrames(t)
	require.Len(t, frames, 3)
	assert.Equal(t, "participantLeft", frames[2]["type"])
	assert.Equal(t, second.ConnectionID, frames[2]["connectionId"])
}

func TestRouter_UnknownConnection(t *testing.T) {
	registry := session.NewRegistry(allowAll{})
	router := relay.NewRouter(registry)

	err := router.Publish("ghost", domain.Event{Type: domain.EventRotate})
	assert.True(t, errors.Is(err, service.ErrNotInRoom))

	err = router.ReplayStateTo("ghost")
	assert.True(t, errors.Is(err, service.ErrNotInRoom))
}

func TestRouter_ConcurrentPublishersDoNotRace(t *testing.T) {
	registry := session.NewRegistry(allowAll{})
	router := relay.NewRouter(registry)

	const senders = 4
	const eventsPerSender = 50

	participants := make([]*session.Participant, senders)
	boxes := make([]*captureOutbox, senders)
	for i := range participants {
		participants[i], boxes[i] = joinLive(t, registry, router, "room-1", fmt.Sprintf("user-%d", i))
	}

	var wg sync.WaitGroup
	for i, p := range participants {
		wg.Add(1)
		go func(i int, connID string) {
			defer wg.Done()
			for j := 0; j < eventsPerSender; j++ {
				ev := domain.Event{Type: domain.EventDraw, X: float64(i), Y: float64(j)}
				assert.NoError(t, router.Publish(connID, ev))
			}
		}(i, p.ConnectionID)
	}
	wg.Wait()

	_, st, ok := registry.Resolve(participants[0].ConnectionID)
	require.True(t, ok)
	_, points := st.Snapshot()
	assert.Len(t, points, senders*eventsPerSender)

	// Each recipient sees every sender's draws in that sender's order.
	for i, box := range boxes {
		perSender := make(map[float64][]float64)
		for _, frame := range box.typedFrames(t) {
			if frame["type"] != "draw" {
				continue
			}
			senderIdx := frame["x"].(float64)
			perSender[senderIdx] = append(perSender[senderIdx], frame["y"].(float64))
		}
		assert.NotContains(t, perSender, float64(i), "no self echo")
		for senderIdx, ys := range perSender {
			require.Len(t, ys, eventsPerSender)
			for j, y := range ys {
				assert.Equal(t, float64(j), y, "recipient %d saw sender %v out of order", i, senderIdx)
			}
		}
	}
}
