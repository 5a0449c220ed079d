// Package relay fans transient interaction events out between the
// participants of a room. Events are never persisted beyond the room's
// live SessionState.
package relay

import (
	"github.com/sirupsen/logrus"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/service"
	"github.com/mehditi940/Demo-environnemt-CSC/internal/session"
)

// Router is the single entry point for inbound room events. It resolves
// the sender's room through the registry, folds draw mutations into the
// room's SessionState and forwards the event to every other participant of
// that room, never back to the sender.
//
// Ordering: a sender's events are published synchronously from its read
// loop and enqueued per recipient in one critical section, so every
// recipient observes one sender's events in the order they were issued.
// No order across senders is guaranteed.
type Router struct {
	registry *session.Registry
	log      *logrus.Entry
}

// NewRouter creates a Router over the given registry.
func NewRouter(registry *session.Registry) *Router {
	if registry == nil {
		panic("Registry cannot be nil for Router")
	}
	return &Router{
		registry: registry,
		log:      logrus.WithField("component", "event_router"),
	}
}

// Publish relays one event from the given connection to its room peers.
// Returns service.ErrNotInRoom when the connection is not registered;
// callers log and drop, the relay loop never dies over it.
func (r *Router) Publish(connectionID string, ev domain.Event) error {
	p, st, ok := r.registry.Resolve(connectionID)
	if !ok {
		return service.ErrNotInRoom
	}

	delivered := st.RelayEvent(connectionID, ev)
	r.log.WithFields(logrus.Fields{
		"room_id":       p.RoomID,
		"connection_id": connectionID,
		"event_type":    ev.Type,
		"delivered":     delivered,
	}).Debug("Event relayed")
	return nil
}

// ReplayStateTo sends the newly joined connection the room's materialized
// state (last rotation plus accumulated draw points) and switches it live.
// Until this runs the participant receives no relayed events, so it can
// never see an event its snapshot already contains.
func (r *Router) ReplayStateTo(connectionID string) error {
	p, st, ok := r.registry.Resolve(connectionID)
	if !ok {
		return service.ErrNotInRoom
	}
	if !st.ReplaySnapshotTo(connectionID) {
		return service.ErrNotInRoom
	}
	r.log.WithFields(logrus.Fields{
		"room_id":       p.RoomID,
		"connection_id": connectionID,
	}).Debug("State snapshot replayed to joiner")
	return nil
}
