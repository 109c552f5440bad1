package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SparkCircle/internal/core"
	"github.com/dkeye/SparkCircle/internal/domain"
)

type sessionEntry struct {
	Session core.MemberSession
	Cancel  context.CancelFunc
}

// Registry maps live connections to the room member they speak for.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

// BindSignal registers a fresh connection that has not joined a room yet.
func (r *Registry) BindSignal(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

// Unbind forgets the connection entirely.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; !ok {
		return
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// BindMember attaches the connection to a participant of a room.
func (r *Registry) BindMember(sid core.SessionID, member *domain.Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return false
	}
	entry.Session.UpdateMeta(member)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).
		Str("room", string(member.RoomCode)).Str("participant", string(member.ParticipantID)).Msg("bound member")
	return true
}

func (r *Registry) RoomOf(sid core.SessionID) (*domain.Member, core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return nil, nil, false
	}
	meta := entry.Session.Meta()
	if !meta.Joined() {
		return nil, nil, false
	}
	return meta, entry.Session, true
}

// RemoveRoom detaches the connection from its room but keeps it registered.
func (r *Registry) RemoveRoom(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.sessions[sid]; ok {
		entry.Session.UpdateMeta(nil)
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed room association")
	}
}

type regSnap struct {
	SID     core.SessionID
	Member  domain.Member
	Session core.MemberSession
}

func (r *Registry) MembersOfRoom(code domain.RoomCode) []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.sessions))
	for sid, e := range r.sessions {
		if meta := e.Session.Meta(); meta.Joined() && meta.RoomCode == code {
			out = append(out, regSnap{SID: sid, Member: *meta, Session: e.Session})
		}
	}
	return out
}

// ConnectionsOf lists the connections bound to one participant of a room.
func (r *Registry) ConnectionsOf(code domain.RoomCode, pid domain.ParticipantID) []core.SessionID {
	var out []core.SessionID
	for _, snap := range r.MembersOfRoom(code) {
		if snap.Member.ParticipantID == pid {
			out = append(out, snap.SID)
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
