package turn

import "github.com/dkeye/SparkCircle/internal/domain"

// Action is the closed set of inputs the engine accepts. Each variant touches only the
// fields its transition documents.
type Action interface {
	Name() string
	ActorID() domain.ParticipantID
	isAction()
}

// Join adds a participant. Rejoining with a known id is a no-op.
type Join struct {
	Participant domain.ParticipantID
	DisplayName string
	Token       domain.ParticipantToken
}

// Leave removes a participant from the roster. Turn order is left alone.
type Leave struct{ Actor domain.ParticipantID }

// UpdateSettings applies Changes on top of the settings of a waiting session. Host only.
type UpdateSettings struct {
	Actor   domain.ParticipantID
	Changes domain.SettingsOverrides
}

type Start struct{ Actor domain.ParticipantID }

type SelectTheme struct {
	Actor domain.ParticipantID
	Theme domain.Theme
}

// PassTurn is issued by the current player.
type PassTurn struct{ Actor domain.ParticipantID }

// ForcePassTurn is issued by the host to move past an unresponsive player.
type ForcePassTurn struct{ Actor domain.ParticipantID }

// NextQuestion draws from every configured theme. Host only in guided mode.
type NextQuestion struct{ Actor domain.ParticipantID }

type EndSession struct{ Actor domain.ParticipantID }

func (Join) Name() string           { return "join" }
func (Leave) Name() string          { return "leave-room" }
func (UpdateSettings) Name() string { return "update-settings" }
func (Start) Name() string          { return "start-session" }
func (SelectTheme) Name() string    { return "select-theme" }
func (PassTurn) Name() string       { return "pass-turn" }
func (ForcePassTurn) Name() string  { return "force-pass-turn" }
func (NextQuestion) Name() string   { return "next-question" }
func (EndSession) Name() string     { return "end-session" }

func (a Join) ActorID() domain.ParticipantID           { return a.Participant }
func (a Leave) ActorID() domain.ParticipantID          { return a.Actor }
func (a UpdateSettings) ActorID() domain.ParticipantID { return a.Actor }
func (a Start) ActorID() domain.ParticipantID          { return a.Actor }
func (a SelectTheme) ActorID() domain.ParticipantID    { return a.Actor }
func (a PassTurn) ActorID() domain.ParticipantID       { return a.Actor }
func (a ForcePassTurn) ActorID() domain.ParticipantID  { return a.Actor }
func (a NextQuestion) ActorID() domain.ParticipantID   { return a.Actor }
func (a EndSession) ActorID() domain.ParticipantID     { return a.Actor }

func (Join) isAction()           {}
func (Leave) isAction()          {}
func (UpdateSettings) isAction() {}
func (Start) isAction()          {}
func (SelectTheme) isAction()    {}
func (PassTurn) isAction()       {}
func (ForcePassTurn) isAction()  {}
func (NextQuestion) isAction()   {}
func (EndSession) isAction()     {}
