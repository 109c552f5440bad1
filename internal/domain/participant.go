// Package domain holds the room session model and its validation rules.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	MaxNameLen = 36

	DefaultHostName  = "Host"
	DefaultGuestName = "Guest"

	participantTokenLength = 32
)

type ParticipantID string

// ParticipantToken is the private credential of a participant. The id is public room
// data; only the token proves who is asking.
type ParticipantToken string

type Participant struct {
	ID       ParticipantID    `json:"id"`
	Name     string           `json:"name"`
	JoinedAt time.Time        `json:"joinedAt"`
	Token    ParticipantToken `json:"-"`
}

func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.NewString())
}

func NewParticipantToken() ParticipantToken {
	return ParticipantToken(gonanoid.Must(participantTokenLength))
}

// NewParticipant avoids ad-hoc struct literals in the store and engine.
func NewParticipant(id ParticipantID, name string, at time.Time) Participant {
	return Participant{ID: id, Name: name, JoinedAt: at}
}

// CleanName trims name and substitutes fallback for an empty value.
func CleanName(name, fallback string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback, nil
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", Wrapf(ErrInvalidName, "name longer than %d characters", MaxNameLen)
	}
	return name, nil
}
