package orch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SparkCircle/internal/app"
	"github.com/dkeye/SparkCircle/internal/app/turn"
	"github.com/dkeye/SparkCircle/internal/catalog"
	"github.com/dkeye/SparkCircle/internal/core"
	"github.com/dkeye/SparkCircle/internal/domain"
)

// Orchestrator is the session gateway. Every state change of a room runs under that
// room's mutex: fetch from the store, apply the turn engine, write back, publish.
type Orchestrator struct {
	Store    *app.Store
	Engine   *turn.Engine
	Catalog  *catalog.Catalog
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy

	locksMu sync.Mutex
	locks   map[domain.RoomCode]*sync.Mutex
}

func New(
	store *app.Store,
	engine *turn.Engine,
	cat *catalog.Catalog,
	reg *app.Registry,
	rooms core.RoomManager,
	policy app.Policy,
) *Orchestrator {
	o := &Orchestrator{
		Store:    store,
		Engine:   engine,
		Catalog:  cat,
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
		locks:    make(map[domain.RoomCode]*sync.Mutex),
	}
	store.OnEvict(func(s domain.Session) { o.EvictRoom(s.RoomCode) })
	return o
}

// Dispatch applies an action issued by the participant bound to sid. Rejections are
// reported to sid only; exhaustion of the question pool is announced to the room instead.
func (o *Orchestrator) Dispatch(sid core.SessionID, action turn.Action) error {
	member, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		o.reject(sid, domain.ErrNotJoined)
		return domain.ErrNotJoined
	}
	if action.ActorID() != member.ParticipantID {
		o.reject(sid, domain.ErrUnauthorized)
		return domain.ErrUnauthorized
	}

	res, err := o.withRoom(member.RoomCode, func() (core.PublishResult, error) {
		// The binding may have moved while waiting for the lock.
		if cur, _, ok := o.Registry.RoomOf(sid); !ok || *cur != *member {
			return core.PublishResult{}, domain.ErrNotJoined
		}
		return o.applyLocked(member.RoomCode, action)
	})
	o.handleDropped(member.RoomCode, res.Dropped)

	switch {
	case err == nil:
		log.Debug().Str("module", "orch").Str("room", string(member.RoomCode)).
			Str("action", action.Name()).Str("participant", string(member.ParticipantID)).Msg("action applied")
	case errors.Is(err, domain.ErrQuestionsExhausted):
		// Already announced to the whole room as no-more-questions.
	default:
		o.reject(sid, err)
	}
	return err
}

func (o *Orchestrator) applyLocked(code domain.RoomCode, action turn.Action) (core.PublishResult, error) {
	sess, ok := o.Store.FindByRoomCode(string(code))
	if !ok {
		return core.PublishResult{}, domain.ErrSessionNotFound
	}
	out, err := o.Engine.Apply(sess, action)
	if errors.Is(err, domain.ErrQuestionsExhausted) {
		res := o.publish(code, turn.Event{
			Type: turn.EventNoMoreQuestions,
			Data: turn.NoMoreQuestions{Message: domain.ErrQuestionsExhausted.Message},
		})
		return res, err
	}
	if err != nil {
		return core.PublishResult{}, err
	}
	if _, ok := o.Store.Update(out.Session); !ok {
		return core.PublishResult{}, domain.ErrSessionNotFound
	}
	var res core.PublishResult
	for _, ev := range out.Events {
		res.Merge(o.publish(code, ev))
	}
	return res, nil
}

// withRoom runs fn under the room mutex. A panic inside fn is reported as an internal error.
// Codes the store does not hold are rejected before any mutex is allocated.
func (o *Orchestrator) withRoom(code domain.RoomCode, fn func() (core.PublishResult, error)) (res core.PublishResult, err error) {
	mu, ok := o.roomLock(code)
	if !ok {
		return core.PublishResult{}, domain.ErrSessionNotFound
	}
	mu.Lock()
	defer mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "orch").Str("room", string(code)).Interface("panic", r).Msg("room action panicked")
			err = fmt.Errorf("room %s: panic: %v", code, r)
		}
	}()
	return fn()
}

// roomLock returns the mutex of a live room. Eviction drops it again through dropLock.
func (o *Orchestrator) roomLock(code domain.RoomCode) (*sync.Mutex, bool) {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()
	if mu, ok := o.locks[code]; ok {
		return mu, true
	}
	if !o.Store.Has(string(code)) {
		return nil, false
	}
	mu := &sync.Mutex{}
	o.locks[code] = mu
	return mu, true
}

func (o *Orchestrator) dropLock(code domain.RoomCode) {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()
	delete(o.locks, code)
}

func (o *Orchestrator) publish(code domain.RoomCode, ev turn.Event) core.PublishResult {
	room, ok := o.Rooms.Get(code)
	if !ok {
		return core.PublishResult{}
	}
	render, err := renderer(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", string(ev.Type)).Msg("encode event")
		return core.PublishResult{}
	}
	return room.Publish(render)
}

// SendTo delivers ev to a single connection.
func (o *Orchestrator) SendTo(sid core.SessionID, ev turn.Event) error {
	sess, ok := o.Registry.GetSession(sid)
	if !ok || sess.Signal() == nil {
		return fmt.Errorf("connection %s is not registered", sid)
	}
	frame, err := Encode(ev)
	if err != nil {
		return err
	}
	return sess.Signal().TrySend(frame)
}

func (o *Orchestrator) reject(sid core.SessionID, err error) {
	log.Info().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("code", string(domain.CodeOf(err))).Msg("action rejected")
	if sendErr := o.SendTo(sid, ErrorEvent(err)); sendErr != nil {
		log.Warn().Err(sendErr).Str("module", "orch").Str("sid", string(sid)).Msg("error event not delivered")
	}
}

func (o *Orchestrator) handleDropped(code domain.RoomCode, dropped []core.SessionID) {
	if o.Policy == nil || len(dropped) == 0 {
		return
	}
	room, _ := o.Rooms.Get(code)
	seen := make(map[core.SessionID]struct{}, len(dropped))
	for _, sid := range dropped {
		if _, dup := seen[sid]; dup {
			continue
		}
		seen[sid] = struct{}{}
		action := o.Policy.OnBackPressure(room, sid)
		log.Warn().Str("module", "orch").Str("room", string(code)).Str("sid", string(sid)).Stringer("action", action).Msg("backpressure")
		switch action {
		case app.KickMember:
			o.KickBySID(sid)
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}
