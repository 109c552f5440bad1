package domain

import "time"

// SessionView is the snapshot a participant is allowed to see.
type SessionView struct {
	SessionID       SessionID     `json:"sessionId"`
	RoomCode        RoomCode      `json:"roomCode"`
	HostID          ParticipantID `json:"hostId"`
	HostName        string        `json:"hostName"`
	Participants    []Participant `json:"participants"`
	Settings        Settings      `json:"settings"`
	Status          Status        `json:"status"`
	GameState       GameState     `json:"gameState"`
	CurrentQuestion *Question     `json:"currentQuestion,omitempty"`
	UsedQuestions   []QuestionID  `json:"usedQuestions"`
	QuestionsAsked  int           `json:"questionsAsked"`
	CreatedAt       time.Time     `json:"createdAt"`
	ExpiresAt       time.Time     `json:"expiresAt"`
	StartedAt       *time.Time    `json:"startedAt,omitempty"`
	EndedAt         *time.Time    `json:"endedAt,omitempty"`
}

// View renders s for viewer. The current question's text is kept only for the active player.
func (s Session) View(viewer ParticipantID) SessionView {
	c := s.Clone()
	v := SessionView{
		SessionID:      c.ID,
		RoomCode:       c.RoomCode,
		HostID:         c.HostID,
		HostName:       c.HostName(),
		Participants:   c.Participants,
		Settings:       c.Settings,
		Status:         c.Status,
		GameState:      c.GameState,
		UsedQuestions:  c.UsedQuestions,
		QuestionsAsked: c.QuestionsAsked(),
		CreatedAt:      c.CreatedAt,
		ExpiresAt:      c.ExpiresAt,
		StartedAt:      c.StartedAt,
		EndedAt:        c.EndedAt,
	}
	if c.CurrentQuestion != nil {
		q := *c.CurrentQuestion
		if current, ok := c.CurrentPlayer(); !ok || viewer == "" || viewer != current {
			q = q.Redacted()
		}
		v.CurrentQuestion = &q
	}
	if v.Participants == nil {
		v.Participants = []Participant{}
	}
	if v.UsedQuestions == nil {
		v.UsedQuestions = []QuestionID{}
	}
	if v.GameState.TurnOrder == nil {
		v.GameState.TurnOrder = []ParticipantID{}
	}
	return v
}
