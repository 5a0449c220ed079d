package session

import (
	"sync"
	"time"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
)

// Outbox is the delivery side of one live connection. Enqueue must never
// block: the live channel is best-effort, a slow or dead peer is skipped
// rather than allowed to stall a room.
type Outbox interface {
	// Enqueue hands a frame to the connection's writer. Returns false when
	// the frame was dropped (buffer full or connection gone).
	Enqueue(data []byte) bool
	// Close releases the outbox; subsequent Enqueue calls return false.
	Close()
}

// Participant is one live, connected client attached to a room's session.
// It is owned by the Registry from Join until Leave.
type Participant struct {
	ConnectionID string
	UserID       string
	RoomID       string
	Role         domain.Role
	JoinedAt     time.Time

	outbox    Outbox
	closeOnce sync.Once

	// live flips true once the state snapshot has been enqueued; relayed
	// events are withheld until then so a late joiner never receives an
	// event that its snapshot already contains. Guarded by the owning
	// SessionState mutex.
	live bool
}

// deliver enqueues a frame, dropping it when the peer cannot keep up.
func (p *Participant) deliver(data []byte) bool {
	return p.outbox.Enqueue(data)
}

// closeOutbox closes the outbox exactly once, however many times the
// participant is torn down.
func (p *Participant) closeOutbox() {
	p.closeOnce.Do(p.outbox.Close)
}
