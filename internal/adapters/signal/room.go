package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SparkCircle/internal/core"
	"github.com/dkeye/SparkCircle/internal/domain"
)

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		Type             string `json:"type"`
		RoomCode         string `json:"roomCode"`
		ParticipantToken string `json:"participantToken,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, domain.Wrap(domain.ErrInvalidPayload, err))
		return
	}

	token := domain.ParticipantToken(p.ParticipantToken)
	if token == "" && conn.remembered != nil {
		token = conn.remembered(domain.NormalizeRoomCode(p.RoomCode))
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomCode).Msg("join")
	if err := ctl.Orch.Subscribe(sid, p.RoomCode, token); err != nil {
		ctl.sendError(conn, err)
	}
}

// handleLeave removes the participant from the room; the connection stays open.
func (ctl *SignalWSController) handleLeave(sid core.SessionID) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	_ = ctl.Orch.LeaveRoom(sid)
}
