package signal

import (
	"github.com/dkeye/SparkCircle/internal/app/turn"
	"github.com/dkeye/SparkCircle/internal/core"
	"github.com/dkeye/SparkCircle/internal/domain"
)

const eventWhoAmI turn.EventType = "whoami"

type whoAmI struct {
	SID           core.SessionID       `json:"sid"`
	RoomCode      domain.RoomCode      `json:"roomCode,omitempty"`
	ParticipantID domain.ParticipantID `json:"participantId,omitempty"`
}

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.send(conn, turn.Event{Type: turn.EventPong})
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID, conn *WsSignalConn) {
	resp := whoAmI{SID: sid}
	if member, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.RoomCode = member.RoomCode
		resp.ParticipantID = member.ParticipantID
	}
	ctl.send(conn, turn.Event{Type: eventWhoAmI, Data: resp})
}
