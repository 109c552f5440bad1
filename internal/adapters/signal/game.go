package signal

import (
	"encoding/json"

	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SparkCircle/internal/app/turn"
	"github.com/dkeye/SparkCircle/internal/core"
	"github.com/dkeye/SparkCircle/internal/domain"
)

// handleAction decodes a game action on behalf of the participant bound to sid.
func (ctl *SignalWSController) handleAction(sid core.SessionID, conn *WsSignalConn, kind string, data []byte) {
	member, _, ok := ctl.Orch.Registry.RoomOf(sid)
	if !ok {
		ctl.sendError(conn, domain.ErrNotJoined)
		return
	}
	action, err := decodeAction(kind, member.ParticipantID, data)
	if err != nil {
		ctl.sendError(conn, err)
		return
	}
	if err := ctl.Orch.Dispatch(sid, action); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("action", kind).Msg("action not applied")
	}
}

func decodeAction(kind string, actor domain.ParticipantID, data []byte) (turn.Action, error) {
	switch kind {
	case "start-session":
		return turn.Start{Actor: actor}, nil
	case "pass-turn":
		return turn.PassTurn{Actor: actor}, nil
	case "force-pass-turn":
		return turn.ForcePassTurn{Actor: actor}, nil
	case "next-question":
		return turn.NextQuestion{Actor: actor}, nil
	case "end-session":
		return turn.EndSession{Actor: actor}, nil
	case "select-theme":
		var p struct {
			Theme domain.Theme `json:"theme"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, domain.Wrap(domain.ErrInvalidPayload, err)
		}
		if p.Theme == "" {
			return nil, domain.Wrapf(domain.ErrInvalidPayload, "theme is required")
		}
		return turn.SelectTheme{Actor: actor, Theme: p.Theme}, nil
	case "update-settings":
		var p struct {
			Settings domain.SettingsOverrides `json:"settings"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, domain.Wrap(domain.ErrInvalidPayload, err)
		}
		if err := binding.Validator.ValidateStruct(&p.Settings); err != nil {
			return nil, domain.Wrap(domain.ErrInvalidSettings, err)
		}
		return turn.UpdateSettings{Actor: actor, Changes: p.Settings}, nil
	default:
		return nil, domain.Wrapf(domain.ErrInvalidPayload, "unknown action %q", kind)
	}
}

