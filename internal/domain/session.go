package domain

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	RoomCode  string
	SessionID string
)

// NormalizeRoomCode makes lookups case-insensitive.
func NormalizeRoomCode(code string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(code)))
}

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

type GameState struct {
	CurrentRound                int             `json:"currentRound"`
	CurrentTurnIndex            int             `json:"currentTurnIndex"`
	TurnOrder                   []ParticipantID `json:"turnOrder"`
	CurrentPlayerThemeSelection Theme           `json:"currentPlayerThemeSelection,omitempty"`
	TurnStartedAt               *time.Time      `json:"turnStartedAt,omitempty"`
}

// Session is the room aggregate. It is handled as a value: Clone before mutating a copy
// that is shared with the store.
type Session struct {
	ID              SessionID     `json:"sessionId"`
	RoomCode        RoomCode      `json:"roomCode"`
	HostID          ParticipantID `json:"hostId"`
	Participants    []Participant `json:"participants"`
	Settings        Settings      `json:"settings"`
	GameState       GameState     `json:"gameState"`
	CurrentQuestion *Question     `json:"currentQuestion,omitempty"`
	UsedQuestions   []QuestionID  `json:"usedQuestions"`
	Status          Status        `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	ExpiresAt       time.Time     `json:"expiresAt"`
	StartedAt       *time.Time    `json:"startedAt,omitempty"`
	EndedAt         *time.Time    `json:"endedAt,omitempty"`
}

// NewSession builds a waiting session with host as its sole participant.
func NewSession(code RoomCode, host Participant, settings Settings, now time.Time, ttl time.Duration) Session {
	return Session{
		ID:           NewSessionID(),
		RoomCode:     code,
		HostID:       host.ID,
		Participants: []Participant{host},
		Settings:     settings.Clone(),
		GameState: GameState{
			CurrentRound: 1,
			TurnOrder:    []ParticipantID{},
		},
		UsedQuestions: []QuestionID{},
		Status:        StatusWaiting,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
}

// Clone returns a deep copy that shares no slices or pointers with s.
func (s Session) Clone() Session {
	out := s
	out.Participants = append([]Participant(nil), s.Participants...)
	out.Settings = s.Settings.Clone()
	out.GameState.TurnOrder = append([]ParticipantID(nil), s.GameState.TurnOrder...)
	out.GameState.TurnStartedAt = cloneTime(s.GameState.TurnStartedAt)
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		out.CurrentQuestion = &q
	}
	out.UsedQuestions = append([]QuestionID(nil), s.UsedQuestions...)
	out.StartedAt = cloneTime(s.StartedAt)
	out.EndedAt = cloneTime(s.EndedAt)
	return out
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s Session) IsHost(id ParticipantID) bool {
	return id != "" && id == s.HostID
}

func (s Session) Participant(id ParticipantID) (Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// ParticipantByToken resolves the participant holding tok. An empty token matches nobody.
func (s Session) ParticipantByToken(tok ParticipantToken) (Participant, bool) {
	if tok == "" {
		return Participant{}, false
	}
	for _, p := range s.Participants {
		if subtle.ConstantTimeCompare([]byte(p.Token), []byte(tok)) == 1 {
			return p, true
		}
	}
	return Participant{}, false
}

func (s Session) HostName() string {
	if p, ok := s.Participant(s.HostID); ok {
		return p.Name
	}
	return DefaultHostName
}

func (s Session) IsFull() bool {
	return len(s.Participants) >= s.Settings.MaxParticipants
}

// CurrentPlayer returns the participant whose turn it is while the session is active.
func (s Session) CurrentPlayer() (ParticipantID, bool) {
	if s.Status != StatusActive {
		return "", false
	}
	idx := s.GameState.CurrentTurnIndex
	if idx < 0 || idx >= len(s.GameState.TurnOrder) {
		return "", false
	}
	return s.GameState.TurnOrder[idx], true
}

func (s Session) HasUsed(id QuestionID) bool {
	for _, q := range s.UsedQuestions {
		if q == id {
			return true
		}
	}
	return false
}

func (s Session) QuestionsAsked() int {
	return len(s.UsedQuestions)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
