package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
)

// Authorizer decides whether a user may attach to a room's live session.
// It is the one collaborator on the join path allowed to block on I/O
// (membership lives in the relational store).
type Authorizer interface {
	CanJoin(ctx context.Context, userID string, role domain.Role, roomID string) error
}

// ParticipantInfo is a read-only view of a connected participant.
type ParticipantInfo struct {
	ConnectionID string      `json:"connectionId"`
	UserID       string      `json:"userId"`
	RoomID       string      `json:"roomId"`
	Role         domain.Role `json:"role"`
	JoinedAt     time.Time   `json:"joinedAt"`
}

// Registry is the authoritative in-memory map from room id to live
// session. The registry mutex guards only the two lookup maps; everything
// per-room runs under that room's SessionState mutex, so activity in one
// room never serializes another. A SessionState exists exactly while at
// least one participant is connected to its room.
type Registry struct {
	authorizer Authorizer
	log        *logrus.Entry

	mu    sync.RWMutex
	rooms map[string]*SessionState
	conns map[string]*Participant
}

// NewRegistry creates a Registry.
func NewRegistry(authorizer Authorizer) *Registry {
	if authorizer == nil {
		panic("Authorizer cannot be nil for Registry")
	}
	return &Registry{
		authorizer: authorizer,
		log:        logrus.WithField("component", "session_registry"),
		rooms:      make(map[string]*SessionState),
		conns:      make(map[string]*Participant),
	}
}

// Join authorizes the user against the room's membership and registers a
// new participant, creating the room's SessionState when it is the first.
// Existing participants are notified with participantJoined. The
// membership check runs before any lock is taken.
//
// A user may hold several simultaneous participants (browser tab plus
// HoloLens is a normal setup); only connection ids are unique.
func (r *Registry) Join(ctx context.Context, roomID, userID string, role domain.Role, outbox Outbox) (*Participant, error) {
	if err := r.authorizer.CanJoin(ctx, userID, role, roomID); err != nil {
		return nil, err
	}

	p := &Participant{
		ConnectionID: uuid.NewString(),
		UserID:       userID,
		RoomID:       roomID,
		Role:         role,
		JoinedAt:     time.Now(),
		outbox:       outbox,
	}

	r.mu.Lock()
	st, ok := r.rooms[roomID]
	if !ok {
		st = newSessionState(roomID)
		r.rooms[roomID] = st
	}
	r.conns[p.ConnectionID] = p
	st.addParticipant(p)
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"room_id":       roomID,
		"user_id":       userID,
		"connection_id": p.ConnectionID,
		"first_in_room": !ok,
	}).Info("Participant joined room session")
	return p, nil
}

// Leave removes the participant and closes its outbox. The last leave of a
// room tears the SessionState down, releasing the accumulated draw state.
// Leaving an unknown connection is a no-op: the gateway's deferred cleanup
// and an explicit leave event may both fire for the same connection.
func (r *Registry) Leave(connectionID string) {
	r.mu.Lock()
	p, ok := r.conns[connectionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, connectionID)

	remaining := 0
	if st, exists := r.rooms[p.RoomID]; exists {
		remaining = st.removeParticipant(connectionID)
		if remaining == 0 {
			delete(r.rooms, p.RoomID)
		}
	}
	r.mu.Unlock()

	p.closeOutbox()
	r.log.WithFields(logrus.Fields{
		"room_id":       p.RoomID,
		"user_id":       p.UserID,
		"connection_id": connectionID,
		"remaining":     remaining,
	}).Info("Participant left room session")
}

// Resolve maps a connection id to its participant and room state.
func (r *Registry) Resolve(connectionID string) (*Participant, *SessionState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.conns[connectionID]
	if !ok {
		return nil, nil, false
	}
	st, ok := r.rooms[p.RoomID]
	if !ok {
		return nil, nil, false
	}
	return p, st, true
}

// ListParticipants returns a join-ordered snapshot of the room's live
// participants. Safe to call concurrently with joins and leaves; an empty
// slice means no live session.
func (r *Registry) ListParticipants(roomID string) []ParticipantInfo {
	r.mu.RLock()
	st, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	participants := st.participantsSnapshot()
	infos := make([]ParticipantInfo, 0, len(participants))
	for _, p := range participants {
		infos = append(infos, ParticipantInfo{
			ConnectionID: p.ConnectionID,
			UserID:       p.UserID,
			RoomID:       p.RoomID,
			Role:         p.Role,
			JoinedAt:     p.JoinedAt,
		})
	}
	return infos
}

// Stats reports the number of live rooms and connected participants.
func (r *Registry) Stats() (rooms, participants int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), len(r.conns)
}
