package domain

import (
	"encoding/json"
	"fmt"
)

// EventType tags the messages exchanged over a room's live channel.
type EventType string

// Inbound event types (client -> server).
const (
	EventRotate       EventType = "rotate"
	EventDraw         EventType = "draw"
	EventErase        EventType = "erase"
	EventToolChange   EventType = "toolChange"
	EventClearDrawing EventType = "clearDrawing"
	EventLeave        EventType = "leave"
)

// Outbound event types (server -> client). Inbound rotate/draw/erase/
// toolChange/clearDrawing are additionally relayed verbatim to peers.
const (
	EventParticipantJoined EventType = "participantJoined"
	EventParticipantLeft   EventType = "participantLeft"
	EventStateSnapshot     EventType = "stateSnapshot"
)

// Tool is the interaction tool selected in the viewer.
type Tool string

const (
	ToolNone Tool = "none"
	ToolDraw Tool = "draw"
	ToolDrag Tool = "drag"
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	return t == ToolNone || t == ToolDraw || t == ToolDrag
}

// Point is a draw annotation point on the model surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation is the shared model rotation. The viewer only rotates around
// two axes, so a rotation is an (x, z) pair.
type Rotation struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Event is one inbound message from a participant. The Type field selects
// which of the remaining fields are meaningful.
type Event struct {
	Type   EventType `json:"type"`
	X      float64   `json:"x,omitempty"`
	Y      float64   `json:"y,omitempty"`
	Z      float64   `json:"z,omitempty"`
	Radius float64   `json:"radius,omitempty"`
	Tool   Tool      `json:"tool,omitempty"`
}

// DecodeEvent parses and validates a raw inbound message.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	switch ev.Type {
	case EventRotate, EventDraw, EventClearDrawing, EventLeave:
	case EventErase:
		if ev.Radius <= 0 {
			return Event{}, fmt.Errorf("decode event: erase radius must be positive, got %v", ev.Radius)
		}
	case EventToolChange:
		if !ev.Tool.Valid() {
			return Event{}, fmt.Errorf("decode event: unknown tool %q", ev.Tool)
		}
	default:
		return Event{}, fmt.Errorf("decode event: unknown event type %q", ev.Type)
	}
	return ev, nil
}

// Encode serializes the event for relay to peers.
func (e Event) Encode() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		// Event has no unmarshalable fields; this cannot fail at runtime.
		panic(fmt.Sprintf("encode event: %v", err))
	}
	return data
}

// StateSnapshot is the materialized session state sent once to a joining
// participant: the last shared rotation and every draw point accumulated
// so far. Late joiners replay this instead of the event history, so the
// message stays bounded regardless of session length.
type StateSnapshot struct {
	Type       EventType `json:"type"`
	Rotation   Rotation  `json:"rotation"`
	DrawPoints []Point   `json:"drawPoints"`
}

// NewStateSnapshot builds an encodable snapshot message.
func NewStateSnapshot(rotation Rotation, points []Point) StateSnapshot {
	if points == nil {
		points = []Point{}
	}
	return StateSnapshot{Type: EventStateSnapshot, Rotation: rotation, DrawPoints: points}
}

// Encode serializes the snapshot message.
func (s StateSnapshot) Encode() []byte {
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("encode snapshot: %v", err))
	}
	return data
}

// PresenceNotice announces a participant joining or leaving a room.
type PresenceNotice struct {
	Type EventType `json:"type"`
	// UserID is set on participantJoined.
	UserID string `json:"userId,omitempty"`
	// ConnectionID is set on participantLeft.
	ConnectionID string `json:"connectionId,omitempty"`
}

// NewParticipantJoined builds a participantJoined notice.
func NewParticipantJoined(userID string) PresenceNotice {
	return PresenceNotice{Type: EventParticipantJoined, UserID: userID}
}

// NewParticipantLeft builds a participantLeft notice.
func NewParticipantLeft(connectionID string) PresenceNotice {
	return PresenceNotice{Type: EventParticipantLeft, ConnectionID: connectionID}
}

// Encode serializes the presence notice.
func (p PresenceNotice) Encode() []byte {
	data, err := json.Marshal(p)
	if err != nil {
		panic(fmt.Sprintf("encode presence notice: %v", err))
	}
	return data
}
