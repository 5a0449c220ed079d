package service

import "errors"

// Business errors surfaced to handlers and the gateway. Authentication and
// authorization failures are terminal for a connection attempt; NotInRoom
// is logged and dropped by the relay loop.
var (
	ErrUnauthenticated      = errors.New("missing or invalid credential")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomAccessDenied     = errors.New("room access denied")
	ErrTicketNotFound       = errors.New("connection pin not recognized")
	ErrTicketExpired        = errors.New("connection pin expired")
	ErrNotInRoom            = errors.New("connection is not attached to a room")
	ErrUserNotFound         = errors.New("user not found")
	ErrInternalServer       = errors.New("internal server error")
)
