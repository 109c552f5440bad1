// Package turn is the room state machine. Transitions are pure: Apply never mutates the
// session it is given, and a rejected action returns that session untouched.
package turn

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dkeye/SparkCircle/internal/domain"
)

// QuestionSource is the part of the question catalog the engine needs.
type QuestionSource interface {
	Unused(used []domain.QuestionID, themes ...domain.Theme) []domain.Question
	ValidateThemes(themes []domain.Theme) error
}

// Outcome is the next session value plus the events the transition produced.
type Outcome struct {
	Session domain.Session
	Events  []Event
}

type Engine struct {
	Questions QuestionSource
	Now       func() time.Time
	// IntN returns a uniform value in [0, n). It must be safe for concurrent use.
	IntN func(n int) int
}

func NewEngine(q QuestionSource) *Engine {
	return &Engine{
		Questions: q,
		Now:       time.Now,
		IntN:      rand.IntN,
	}
}

// Apply computes the transition for a. On error the returned outcome holds s unchanged.
func (e *Engine) Apply(s domain.Session, a Action) (Outcome, error) {
	next := s.Clone()
	var (
		events []Event
		err    error
	)
	switch a := a.(type) {
	case Join:
		events, err = e.join(&next, a)
	case Leave:
		events, err = e.leave(&next, a)
	case UpdateSettings:
		events, err = e.updateSettings(&next, a)
	case Start:
		events, err = e.start(&next, a)
	case SelectTheme:
		events, err = e.selectTheme(&next, a)
	case PassTurn:
		events, err = e.passTurn(&next, a)
	case ForcePassTurn:
		events, err = e.forcePassTurn(&next, a)
	case NextQuestion:
		events, err = e.nextQuestion(&next, a)
	case EndSession:
		events, err = e.endSession(&next, a)
	default:
		err = domain.Wrapf(domain.ErrInvalidPayload, "unsupported action %T", a)
	}
	if err != nil {
		return Outcome{Session: s}, err
	}
	return Outcome{Session: next, Events: events}, nil
}

func (e *Engine) join(s *domain.Session, a Join) ([]Event, error) {
	if a.Participant == "" {
		return nil, domain.Wrapf(domain.ErrInvalidPayload, "participant id is required")
	}
	if s.Status == domain.StatusEnded {
		return nil, domain.ErrSessionEnded
	}
	if _, ok := s.Participant(a.Participant); ok {
		return nil, nil
	}
	if s.IsFull() {
		return nil, domain.ErrSessionFull
	}
	p := domain.NewParticipant(a.Participant, a.DisplayName, e.Now())
	p.Token = a.Token
	s.Participants = append(s.Participants, p)
	// Arrival is announced when the participant's connection subscribes.
	return nil, nil
}

func (e *Engine) leave(s *domain.Session, a Leave) ([]Event, error) {
	if _, ok := s.Participant(a.Actor); !ok {
		return nil, domain.ErrUnknownParticipant
	}
	if s.IsHost(a.Actor) {
		return nil, domain.ErrHostCannotLeave
	}
	kept := s.Participants[:0]
	for _, p := range s.Participants {
		if p.ID != a.Actor {
			kept = append(kept, p)
		}
	}
	s.Participants = kept
	return []Event{{Type: EventParticipantLeft, Data: ParticipantLeft{ParticipantID: a.Actor}}}, nil
}

func (e *Engine) updateSettings(s *domain.Session, a UpdateSettings) ([]Event, error) {
	if !s.IsHost(a.Actor) {
		return nil, domain.ErrUnauthorized
	}
	if err := requireWaiting(s); err != nil {
		return nil, err
	}
	next := a.Changes.Apply(s.Settings)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := e.Questions.ValidateThemes(next.Themes); err != nil {
		return nil, err
	}
	if next.MaxParticipants < len(s.Participants) {
		return nil, domain.Wrapf(domain.ErrInvalidSettings,
			"maxParticipants %d is below the current %d participants", next.MaxParticipants, len(s.Participants))
	}
	s.Settings = next
	return []Event{{Type: EventSettingsUpdated, Data: SettingsUpdated{Settings: next.Clone()}}}, nil
}

func (e *Engine) start(s *domain.Session, a Start) ([]Event, error) {
	if !s.IsHost(a.Actor) {
		return nil, domain.ErrUnauthorized
	}
	if err := requireWaiting(s); err != nil {
		return nil, err
	}
	order := make([]domain.ParticipantID, 0, len(s.Participants))
	for _, p := range s.Participants {
		order = append(order, p.ID)
	}
	now := e.Now()
	s.GameState = domain.GameState{
		CurrentRound:     1,
		CurrentTurnIndex: 0,
		TurnOrder:        order,
	}
	s.Status = domain.StatusActive
	s.StartedAt = &now

	started := SessionStarted{
		Status:    s.Status,
		GameState: s.Clone().GameState,
		StartedAt: now,
	}
	return []Event{
		{Type: EventSessionStarted, Data: started},
		turnStarted(s),
	}, nil
}

func (e *Engine) selectTheme(s *domain.Session, a SelectTheme) ([]Event, error) {
	current, err := requireCurrentPlayer(s, a.Actor)
	if err != nil {
		return nil, err
	}
	if !s.Settings.HasTheme(a.Theme) {
		return nil, domain.Wrapf(domain.ErrUnknownTheme, "theme %q is not enabled for this session", a.Theme)
	}
	candidates := e.Questions.Unused(s.UsedQuestions, a.Theme)
	if len(candidates) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}
	q := candidates[e.IntN(len(candidates))]
	e.serve(s, q)
	return []Event{newQuestion(q, current)}, nil
}

func (e *Engine) passTurn(s *domain.Session, a PassTurn) ([]Event, error) {
	if _, err := requireCurrentPlayer(s, a.Actor); err != nil {
		return nil, err
	}
	return e.advance(s), nil
}

func (e *Engine) forcePassTurn(s *domain.Session, a ForcePassTurn) ([]Event, error) {
	if err := requireActive(s); err != nil {
		return nil, err
	}
	if !s.IsHost(a.Actor) {
		return nil, domain.ErrUnauthorized
	}
	return e.advance(s), nil
}

func (e *Engine) nextQuestion(s *domain.Session, a NextQuestion) ([]Event, error) {
	if err := requireActive(s); err != nil {
		return nil, err
	}
	switch s.Settings.Mode {
	case domain.ModeGuided:
		if !s.IsHost(a.Actor) {
			return nil, domain.Wrapf(domain.ErrUnauthorized, "only the host can control questions in guided mode")
		}
	default:
		if _, ok := s.Participant(a.Actor); !ok {
			return nil, domain.ErrUnauthorized
		}
	}
	candidates := e.Questions.Unused(s.UsedQuestions, s.Settings.Themes...)
	if len(candidates) == 0 {
		return nil, domain.ErrQuestionsExhausted
	}
	q := candidates[e.IntN(len(candidates))]
	e.serve(s, q)
	current, _ := s.CurrentPlayer()
	return []Event{newQuestion(q, current)}, nil
}

func (e *Engine) endSession(s *domain.Session, a EndSession) ([]Event, error) {
	if !s.IsHost(a.Actor) {
		return nil, domain.ErrUnauthorized
	}
	if s.Status == domain.StatusEnded {
		return nil, domain.ErrSessionEnded
	}
	return []Event{e.end(s)}, nil
}

// advance moves to the next turn, wrapping into the next round, and ends the session
// once the configured rounds are exhausted.
func (e *Engine) advance(s *domain.Session) []Event {
	gs := &s.GameState
	nextIndex := gs.CurrentTurnIndex + 1
	nextRound := gs.CurrentRound
	if nextIndex >= len(gs.TurnOrder) {
		nextIndex = 0
		nextRound++
	}
	if nextRound > s.Settings.Rounds {
		return []Event{e.end(s)}
	}
	gs.CurrentTurnIndex = nextIndex
	gs.CurrentRound = nextRound
	gs.CurrentPlayerThemeSelection = ""
	gs.TurnStartedAt = nil
	s.CurrentQuestion = nil
	return []Event{turnStarted(s)}
}

func (e *Engine) end(s *domain.Session) Event {
	now := e.Now()
	s.Status = domain.StatusEnded
	s.EndedAt = &now
	return Event{Type: EventSessionEnded, Data: SessionEnded{
		FinalRound:     s.GameState.CurrentRound,
		QuestionsAsked: s.QuestionsAsked(),
	}}
}

func (e *Engine) serve(s *domain.Session, q domain.Question) {
	now := e.Now()
	s.UsedQuestions = append(s.UsedQuestions, q.ID)
	s.CurrentQuestion = &q
	s.GameState.CurrentPlayerThemeSelection = q.Theme
	s.GameState.TurnStartedAt = &now
}

func requireWaiting(s *domain.Session) error {
	switch s.Status {
	case domain.StatusWaiting:
		return nil
	case domain.StatusEnded:
		return domain.ErrSessionEnded
	default:
		return domain.ErrAlreadyStarted
	}
}

func requireActive(s *domain.Session) error {
	switch s.Status {
	case domain.StatusActive:
		return nil
	case domain.StatusEnded:
		return domain.ErrSessionEnded
	default:
		return domain.ErrNotStarted
	}
}

func requireCurrentPlayer(s *domain.Session, actor domain.ParticipantID) (domain.ParticipantID, error) {
	if err := requireActive(s); err != nil {
		return "", err
	}
	current, ok := s.CurrentPlayer()
	if !ok {
		return "", fmt.Errorf("turn index %d outside turn order of %d", s.GameState.CurrentTurnIndex, len(s.GameState.TurnOrder))
	}
	if actor != current {
		return "", domain.ErrNotYourTurn
	}
	return current, nil
}

func turnStarted(s *domain.Session) Event {
	current, _ := s.CurrentPlayer()
	return Event{Type: EventTurnStarted, Data: TurnStarted{
		CurrentPlayerID: current,
		TurnIndex:       s.GameState.CurrentTurnIndex,
		Round:           s.GameState.CurrentRound,
		TimeLimit:       s.Settings.TurnTimerSeconds,
	}}
}

func newQuestion(q domain.Question, current domain.ParticipantID) Event {
	return Event{Type: EventNewQuestion, Data: NewQuestion{
		Question:        q,
		CurrentPlayerID: current,
		Theme:           q.Theme,
	}}
}
