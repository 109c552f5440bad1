package core

import (
	"github.com/google/uuid"

	"github.com/dkeye/SparkCircle/internal/domain"
)

// SessionID identifies one live connection, not a game session.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	// Meta is nil until the connection joins a room.
	Meta() *domain.Member
	Signal() SignalConnection
	UpdateMeta(*domain.Member) MemberSession
	UpdateSignal(SignalConnection) MemberSession
}
