package session

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
)

// SessionState is the ephemeral shared state of one live room: the set of
// connected participants, the last shared model rotation and the draw
// points accumulated so far. It exists only while at least one participant
// is connected and is never persisted; annotations are transient UI state,
// not clinical record.
//
// All mutation runs under the state's own mutex so concurrent joins,
// leaves and publishes on the same room are serialized while distinct
// rooms proceed fully in parallel. Lock order is Registry.mu before
// SessionState.mu, never the reverse.
type SessionState struct {
	roomID string

	mu           sync.Mutex
	participants []*Participant // join order
	rotation     domain.Rotation
	drawPoints   []domain.Point
}

func newSessionState(roomID string) *SessionState {
	return &SessionState{roomID: roomID}
}

// addParticipant inserts p and announces it to the live peers.
func (s *SessionState) addParticipant(p *Participant) {
	notice := domain.NewParticipantJoined(p.UserID).Encode()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, peer := range s.participants {
		if peer.live {
			peer.deliver(notice)
		}
	}
	s.participants = append(s.participants, p)
}

// removeParticipant deletes the participant and announces its departure.
// Returns the number of participants left.
func (s *SessionState) removeParticipant(connectionID string) int {
	notice := domain.NewParticipantLeft(connectionID).Encode()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.participants {
		if p.ConnectionID == connectionID {
			p.live = false
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			break
		}
	}
	for _, peer := range s.participants {
		if peer.live {
			peer.deliver(notice)
		}
	}
	return len(s.participants)
}

// RelayEvent applies the event's mutation to the shared state and forwards
// the encoded event to every live participant except the sender. Mutation
// and fan-out share one critical section so a concurrent snapshot replay
// can never hand a joiner an event its snapshot already reflects.
// Delivery to a peer that cannot keep up is dropped silently; this is a
// best-effort presence channel, not a durable log.
func (s *SessionState) RelayEvent(senderConnectionID string, ev domain.Event) int {
	frame := ev.Encode()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(ev)

	delivered := 0
	for _, peer := range s.participants {
		if peer.ConnectionID == senderConnectionID || !peer.live {
			continue
		}
		if peer.deliver(frame) {
			delivered++
		} else {
			logrus.WithFields(logrus.Fields{
				"room_id":       s.roomID,
				"connection_id": peer.ConnectionID,
			}).Warn("Peer outbox full, dropping relayed event")
		}
	}
	return delivered
}

// apply folds the event into the materialized state. Caller holds s.mu.
func (s *SessionState) apply(ev domain.Event) {
	switch ev.Type {
	case domain.EventRotate:
		s.rotation = domain.Rotation{X: ev.X, Z: ev.Z}
	case domain.EventDraw:
		s.drawPoints = append(s.drawPoints, domain.Point{X: ev.X, Y: ev.Y, Z: ev.Z})
	case domain.EventErase:
		center := domain.Point{X: ev.X, Y: ev.Y, Z: ev.Z}
		kept := s.drawPoints[:0]
		for _, p := range s.drawPoints {
			if distance(p, center) > ev.Radius {
				kept = append(kept, p)
			}
		}
		s.drawPoints = kept
	case domain.EventClearDrawing:
		s.drawPoints = nil
	case domain.EventToolChange:
		// Tool selection is relayed but not part of the materialized state.
	}
}

// ReplaySnapshotTo enqueues the current materialized state to the given
// participant and marks it live, all under the state lock: events applied
// before the snapshot are in it, events applied after are relayed.
// Returns false when the participant is no longer attached.
func (s *SessionState) ReplaySnapshotTo(connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.participants {
		if p.ConnectionID != connectionID {
			continue
		}
		points := make([]domain.Point, len(s.drawPoints))
		copy(points, s.drawPoints)
		p.deliver(domain.NewStateSnapshot(s.rotation, points).Encode())
		p.live = true
		return true
	}
	return false
}

// Snapshot returns a copy of the materialized state.
func (s *SessionState) Snapshot() (domain.Rotation, []domain.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := make([]domain.Point, len(s.drawPoints))
	copy(points, s.drawPoints)
	return s.rotation, points
}

// participantsSnapshot copies the participant list in join order.
// Caller must not hold s.mu.
func (s *SessionState) participantsSnapshot() []*Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

func distance(a, b domain.Point) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
