package turn

import (
	"time"

	"github.com/dkeye/SparkCircle/internal/domain"
)

type EventType string

const (
	EventSessionState      EventType = "session-state"
	EventParticipantJoined EventType = "participant-joined"
	EventParticipantLeft   EventType = "participant-left"
	EventSettingsUpdated   EventType = "settings-updated"
	EventSessionStarted    EventType = "session-started"
	EventTurnStarted       EventType = "turn-started"
	EventNewQuestion       EventType = "new-question"
	EventSessionEnded      EventType = "session-ended"
	EventNoMoreQuestions   EventType = "no-more-questions"
	EventError             EventType = "error"
	EventPong              EventType = "pong"
)

// Event is one outcome of a transition, addressed to the room unless the gateway
// decides otherwise.
type Event struct {
	Type EventType
	Data any
}

type ParticipantJoined struct {
	Participant domain.Participant `json:"participant"`
}

type ParticipantLeft struct {
	ParticipantID domain.ParticipantID `json:"participantId"`
	Disconnected  bool                 `json:"disconnected,omitempty"`
}

type SettingsUpdated struct {
	Settings domain.Settings `json:"settings"`
}

type SessionStarted struct {
	Status    domain.Status    `json:"status"`
	GameState domain.GameState `json:"gameState"`
	StartedAt time.Time        `json:"startedAt"`
}

type TurnStarted struct {
	CurrentPlayerID domain.ParticipantID `json:"currentPlayerId"`
	TurnIndex       int                  `json:"turnIndex"`
	Round           int                  `json:"round"`
	TimeLimit       int                  `json:"timeLimit"`
}

// NewQuestion carries the full prompt. The gateway redacts Question.Text for everyone
// except CurrentPlayerID.
type NewQuestion struct {
	Question        domain.Question      `json:"question"`
	CurrentPlayerID domain.ParticipantID `json:"currentPlayerId"`
	Theme           domain.Theme         `json:"theme"`
}

type SessionEnded struct {
	FinalRound     int `json:"finalRound"`
	QuestionsAsked int `json:"questionsAsked"`
}

type NoMoreQuestions struct {
	Message string `json:"message"`
}

type Error struct {
	Message string      `json:"message"`
	Code    domain.Code `json:"code"`
}
