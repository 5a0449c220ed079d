package domain

import "time"

// PinLength is the fixed width of a connection PIN.
const PinLength = 6

// ConnectionTicket is a short-lived credential admitting a client into a
// room's live session. Tickets are created by an explicit "start session"
// action and consulted at join time; several valid tickets may exist for
// the same room at once (re-shared access). An expired ticket must never
// authorize a join.
//
// The PIN is not globally unique over time; issuance only avoids collision
// with other rooms' currently valid tickets so a PIN presented on its own
// cannot point at two different rooms.
type ConnectionTicket struct {
	ID         string    `gorm:"primaryKey;size:36"`
	RoomID     string    `gorm:"size:36;index;not null"`
	IssuedBy   string    `gorm:"size:36;not null"`
	PinCode    string    `gorm:"type:char(6);index;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	ValidUntil time.Time `gorm:"index;not null"`
}

// Expired reports whether the ticket's validity window has elapsed at now.
// The boundary instant itself is still valid (now <= validUntil admits).
func (t *ConnectionTicket) Expired(now time.Time) bool {
	return now.After(t.ValidUntil)
}
