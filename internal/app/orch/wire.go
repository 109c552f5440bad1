package orch

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/SparkCircle/internal/app/turn"
	"github.com/dkeye/SparkCircle/internal/core"
	"github.com/dkeye/SparkCircle/internal/domain"
)

// Envelope is the outbound wire shape of every event.
type Envelope struct {
	Type turn.EventType `json:"type"`
	Data any            `json:"data,omitempty"`
}

func Encode(ev turn.Event) (core.Frame, error) {
	b, err := json.Marshal(Envelope{Type: ev.Type, Data: ev.Data})
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}

// ErrorEvent turns a rejection into the event sent back to the initiating connection.
// Anything that is not a domain rejection is reported without its details.
func ErrorEvent(err error) turn.Event {
	var de *domain.Error
	if errors.As(err, &de) {
		return turn.Event{Type: turn.EventError, Data: turn.Error{Message: de.Error(), Code: de.Code}}
	}
	return turn.Event{Type: turn.EventError, Data: turn.Error{Message: "Internal error", Code: domain.CodeUnknown}}
}

// renderer returns the per-connection rendering of ev. Question text in new-question
// events reaches only the connections of the current player.
func renderer(ev turn.Event) (core.Render, error) {
	full, err := Encode(ev)
	if err != nil {
		return nil, err
	}
	nq, ok := ev.Data.(turn.NewQuestion)
	if !ok {
		return func(core.SessionID, core.MemberSession) core.Frame { return full }, nil
	}
	public := nq
	public.Question = nq.Question.Redacted()
	redacted, err := Encode(turn.Event{Type: ev.Type, Data: public})
	if err != nil {
		return nil, err
	}
	return func(_ core.SessionID, ms core.MemberSession) core.Frame {
		if meta := ms.Meta(); meta != nil && meta.ParticipantID == nq.CurrentPlayerID {
			return full
		}
		return redacted
	}, nil
}
