package orch

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SparkCircle/internal/app/turn"
	"github.com/dkeye/SparkCircle/internal/core"
	"github.com/dkeye/SparkCircle/internal/domain"
)

// CreateRoom validates the host's settings on top of the defaults and opens a room.
func (o *Orchestrator) CreateRoom(hostName string, overrides domain.SettingsOverrides) (domain.Session, domain.ParticipantID, error) {
	name, err := domain.CleanName(hostName, domain.DefaultHostName)
	if err != nil {
		return domain.Session{}, "", err
	}
	settings := overrides.Apply(domain.DefaultSettings())
	if err := settings.Validate(); err != nil {
		return domain.Session{}, "", err
	}
	if err := o.Catalog.ValidateThemes(settings.Themes); err != nil {
		return domain.Session{}, "", err
	}
	sess, hostID, err := o.Store.Create(name, settings)
	if err != nil {
		return domain.Session{}, "", err
	}
	log.Info().Str("module", "orch").Str("room", string(sess.RoomCode)).Str("host", string(hostID)).Msg("room created")
	return sess, hostID, nil
}

// JoinRoom adds a new participant. Arrival is announced when one of its connections subscribes.
func (o *Orchestrator) JoinRoom(code, participantName string) (domain.Session, domain.ParticipantID, error) {
	name, err := domain.CleanName(participantName, domain.DefaultGuestName)
	if err != nil {
		return domain.Session{}, "", err
	}
	key := domain.NormalizeRoomCode(code)
	pid := domain.NewParticipantID()
	token := domain.NewParticipantToken()

	var joined domain.Session
	_, err = o.withRoom(key, func() (core.PublishResult, error) {
		sess, ok := o.Store.FindByRoomCode(string(key))
		if !ok {
			return core.PublishResult{}, domain.ErrSessionNotFound
		}
		out, err := o.Engine.Apply(sess, turn.Join{Participant: pid, DisplayName: name, Token: token})
		if err != nil {
			return core.PublishResult{}, err
		}
		updated, ok := o.Store.Update(out.Session)
		if !ok {
			return core.PublishResult{}, domain.ErrSessionNotFound
		}
		joined = updated
		return core.PublishResult{}, nil
	})
	if err != nil {
		return domain.Session{}, "", err
	}
	log.Info().Str("module", "orch").Str("room", string(key)).Str("participant", string(pid)).Msg("participant joined")
	return joined, pid, nil
}

// Snapshot renders the room for the holder of token. An unknown or empty token gets the
// view of an outsider.
func (o *Orchestrator) Snapshot(code string, token domain.ParticipantToken) (domain.SessionView, error) {
	sess, ok := o.Store.FindByRoomCode(code)
	if !ok {
		return domain.SessionView{}, domain.ErrSessionNotFound
	}
	var viewer domain.ParticipantID
	if p, ok := sess.ParticipantByToken(token); ok {
		viewer = p.ID
	}
	return sess.View(viewer), nil
}

// Subscribe binds the connection to the participant holding token, replays the room state
// to it and tells everyone else that the participant is here.
func (o *Orchestrator) Subscribe(sid core.SessionID, code string, token domain.ParticipantToken) error {
	key := domain.NormalizeRoomCode(code)
	if key == "" || token == "" {
		return domain.Wrapf(domain.ErrInvalidPayload, "roomCode and participantToken are required")
	}

	sess, ok := o.Store.FindByRoomCode(string(key))
	if !ok {
		return domain.ErrSessionNotFound
	}
	holder, ok := sess.ParticipantByToken(token)
	if !ok {
		return domain.Wrapf(domain.ErrUnauthorized, "token does not belong to room %s", key)
	}
	pid := holder.ID
	if prev, _, ok := o.Registry.RoomOf(sid); ok {
		if prev.RoomCode == key && prev.ParticipantID == pid {
			return o.replayState(sid, key, pid)
		}
		o.Unsubscribe(sid)
	}

	res, err := o.withRoom(key, func() (core.PublishResult, error) {
		sess, ok := o.Store.FindByRoomCode(string(key))
		if !ok {
			return core.PublishResult{}, domain.ErrSessionNotFound
		}
		p, ok := sess.Participant(pid)
		if !ok {
			return core.PublishResult{}, domain.Wrapf(domain.ErrUnauthorized, "participant %s is not part of room %s", pid, key)
		}
		ms, ok := o.Registry.GetSession(sid)
		if !ok || !o.Registry.BindMember(sid, domain.NewMember(key, pid)) {
			return core.PublishResult{}, domain.ErrNotJoined
		}
		room := o.Rooms.GetOrCreate(key)
		room.AddMember(sid, ms)

		var res core.PublishResult
		res.Merge(o.sendState(sid, ms, sess, pid))
		joined, err := Encode(turn.Event{Type: turn.EventParticipantJoined, Data: turn.ParticipantJoined{Participant: p}})
		if err != nil {
			return res, err
		}
		res.Merge(room.Publish(func(_ core.SessionID, other core.MemberSession) core.Frame {
			if meta := other.Meta(); meta != nil && meta.ParticipantID == pid {
				return nil
			}
			return joined
		}))
		return res, nil
	})
	o.handleDropped(key, res.Dropped)
	if err != nil {
		return err
	}
	log.Info().Str("module", "orch").Str("room", string(key)).Str("sid", string(sid)).Str("participant", string(pid)).Msg("subscribed")
	return nil
}

func (o *Orchestrator) replayState(sid core.SessionID, code domain.RoomCode, pid domain.ParticipantID) error {
	sess, ok := o.Store.FindByRoomCode(string(code))
	if !ok {
		return domain.ErrSessionNotFound
	}
	ms, ok := o.Registry.GetSession(sid)
	if !ok {
		return domain.ErrNotJoined
	}
	o.handleDropped(code, o.sendState(sid, ms, sess, pid).Dropped)
	return nil
}

func (o *Orchestrator) sendState(sid core.SessionID, ms core.MemberSession, sess domain.Session, pid domain.ParticipantID) core.PublishResult {
	frame, err := Encode(turn.Event{Type: turn.EventSessionState, Data: sess.View(pid)})
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode session state")
		return core.PublishResult{}
	}
	if err := ms.Signal().TrySend(frame); err != nil {
		return core.PublishResult{Dropped: []core.SessionID{sid}}
	}
	return core.PublishResult{SendTo: 1}
}

// LeaveRoom removes the bound participant from the room for good and detaches all of
// its connections.
func (o *Orchestrator) LeaveRoom(sid core.SessionID) error {
	member, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		o.reject(sid, domain.ErrNotJoined)
		return domain.ErrNotJoined
	}
	code, pid := member.RoomCode, member.ParticipantID
	res, err := o.withRoom(code, func() (core.PublishResult, error) {
		res, err := o.applyLocked(code, turn.Leave{Actor: pid})
		if err != nil {
			return res, err
		}
		for _, conn := range o.Registry.ConnectionsOf(code, pid) {
			o.detach(code, conn)
		}
		return res, nil
	})
	o.handleDropped(code, res.Dropped)
	if err != nil {
		o.reject(sid, err)
		return err
	}
	return nil
}

// Unsubscribe detaches the connection from its room. The participant stays in the session.
func (o *Orchestrator) Unsubscribe(sid core.SessionID) {
	member, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	code, pid := member.RoomCode, member.ParticipantID
	res, err := o.withRoom(code, func() (core.PublishResult, error) {
		o.detach(code, sid)
		if len(o.Registry.ConnectionsOf(code, pid)) > 0 {
			return core.PublishResult{}, nil
		}
		room, ok := o.Rooms.Get(code)
		if !ok {
			return core.PublishResult{}, nil
		}
		left, err := Encode(turn.Event{
			Type: turn.EventParticipantLeft,
			Data: turn.ParticipantLeft{ParticipantID: pid, Disconnected: true},
		})
		if err != nil {
			return core.PublishResult{}, err
		}
		return room.Broadcast(sid, left), nil
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		o.detach(code, sid)
	}
	o.handleDropped(code, res.Dropped)
}

// OnDisconnect forgets a closed connection. Session state is left as it is, so the
// participant can come back with join-room.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.Unsubscribe(sid)
	o.Registry.Unbind(sid)
}

func (o *Orchestrator) KickBySID(sid core.SessionID) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	o.Registry.Cancel(sid)
	if sig := sess.Signal(); sig != nil {
		sig.Close()
	}
	o.OnDisconnect(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("kicked connection")
}

func (o *Orchestrator) detach(code domain.RoomCode, sid core.SessionID) {
	if room, ok := o.Rooms.Get(code); ok {
		room.RemoveMember(sid)
	}
	o.Registry.RemoveRoom(sid)
}

// EvictRoom releases everything held for a room that left the store. Connections stay
// open and may join another room.
func (o *Orchestrator) EvictRoom(code domain.RoomCode) {
	for _, snap := range o.Registry.MembersOfRoom(code) {
		o.Registry.RemoveRoom(snap.SID)
	}
	o.Rooms.StopRoom(code)
	o.dropLock(code)
	log.Info().Str("module", "orch").Str("room", string(code)).Msg("room evicted")
}
