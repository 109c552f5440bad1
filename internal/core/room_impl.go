package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SparkCircle/internal/domain"
)

// roomImpl is a threadsafe in-memory broadcast group.
// It never closes adapter-owned resources.
type roomImpl struct {
	code  domain.RoomCode
	mu    sync.RWMutex
	bySID map[SessionID]MemberSession
}

func NewRoomService(code domain.RoomCode) RoomService {
	return &roomImpl{
		code:  code,
		bySID: make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) Code() domain.RoomCode { return r.code }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[sid] = ms
	log.Info().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(sid)).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		return
	}
	delete(r.bySID, sid)
	log.Info().Str("module", "core.room").Str("room", string(r.code)).Str("sid", string(sid)).Msg("member removed")
}

func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	return r.Publish(func(sid SessionID, _ MemberSession) Frame {
		if sid == from {
			return nil
		}
		return data
	})
}

func (r *roomImpl) Publish(render Render) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, m := range r.bySID {
		frame := render(sid, m)
		if frame == nil {
			continue
		}
		sig := m.Signal()
		if sig == nil {
			continue
		}
		if err := sig.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.code)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("publish result")
	return res
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.bySID))
	for sid, ms := range r.bySID {
		dto := MemberDTO{SID: sid}
		if meta := ms.Meta(); meta != nil {
			dto.ParticipantID = meta.ParticipantID
		}
		out = append(out, dto)
	}
	return out
}
