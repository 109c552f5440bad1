package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/SparkCircle/internal/domain"
)

const (
	// RoomCodeAlphabet leaves out 0, O, 1, I and l so codes survive being read aloud.
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	DefaultRoomCodeLength = 6
	DefaultSessionTTL     = 24 * time.Hour
	DefaultSweepInterval  = time.Hour

	maxCodeAttempts = 16
)

var ErrCodeSpaceExhausted = errors.New("room code space exhausted")

// CodeGenerator returns a candidate room code. Uniqueness is enforced by the store.
type CodeGenerator func() (string, error)

func NanoidCodes(length int) CodeGenerator {
	return func() (string, error) {
		return gonanoid.Generate(RoomCodeAlphabet, length)
	}
}

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// WithSweepInterval sets the sweep period. Zero or negative disables the sweeper.
func WithSweepInterval(d time.Duration) StoreOption {
	return func(s *Store) { s.sweepEvery = d }
}

func WithCodeGenerator(gen CodeGenerator) StoreOption {
	return func(s *Store) { s.newCode = gen }
}

func WithCodeLength(n int) StoreOption {
	return func(s *Store) { s.newCode = NanoidCodes(n) }
}

// Store keeps every live room session in memory, keyed by room code.
// It hands out deep copies; the only way to change stored state is Update.
type Store struct {
	mu       sync.RWMutex
	sessions map[domain.RoomCode]domain.Session

	evictMu sync.RWMutex
	onEvict []func(domain.Session)

	now        func() time.Time
	ttl        time.Duration
	sweepEvery time.Duration
	newCode    CodeGenerator

	cancel    context.CancelFunc
	wg        conc.WaitGroup
	closeOnce sync.Once
}

// NewStore builds a store and starts its sweeper, which stops on Close or when ctx ends.
func NewStore(ctx context.Context, opts ...StoreOption) *Store {
	s := &Store{
		sessions:   make(map[domain.RoomCode]domain.Session),
		now:        time.Now,
		ttl:        DefaultSessionTTL,
		sweepEvery: DefaultSweepInterval,
		newCode:    NanoidCodes(DefaultRoomCodeLength),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	if s.sweepEvery > 0 {
		s.wg.Go(func() { s.runSweeper(ctx) })
	}
	log.Info().Str("module", "app.store").Dur("ttl", s.ttl).Dur("sweep_interval", s.sweepEvery).Msg("store started")
	return s
}

// Close stops the sweeper and waits for it to exit.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		log.Info().Str("module", "app.store").Msg("store closed")
	})
}

// OnEvict registers fn to run, outside the store lock, for every session that
// is removed by expiry, sweep or Delete.
func (s *Store) OnEvict(fn func(domain.Session)) {
	s.evictMu.Lock()
	defer s.evictMu.Unlock()
	s.onEvict = append(s.onEvict, fn)
}

// Create allocates a fresh room code and stores a waiting session with the host as
// its only participant.
func (s *Store) Create(hostName string, settings domain.Settings) (domain.Session, domain.ParticipantID, error) {
	if hostName == "" {
		hostName = domain.DefaultHostName
	}
	now := s.now()
	hostID := domain.NewParticipantID()

	var evicted []domain.Session
	s.mu.Lock()
	code, err := s.allocateCodeLocked(now, &evicted)
	if err != nil {
		s.mu.Unlock()
		s.notifyEvicted(evicted)
		return domain.Session{}, "", err
	}
	host := domain.NewParticipant(hostID, hostName, now)
	host.Token = domain.NewParticipantToken()
	sess := domain.NewSession(code, host, settings, now, s.ttl)
	s.sessions[code] = sess
	s.mu.Unlock()

	s.notifyEvicted(evicted)
	log.Info().Str("module", "app.store").Str("room", string(code)).Str("session", string(sess.ID)).Msg("session created")
	return sess.Clone(), hostID, nil
}

func (s *Store) allocateCodeLocked(now time.Time, evicted *[]domain.Session) (domain.RoomCode, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		raw, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		code := domain.NormalizeRoomCode(raw)
		held, taken := s.sessions[code]
		if taken && held.Expired(now) {
			delete(s.sessions, code)
			*evicted = append(*evicted, held)
			taken = false
		}
		if !taken {
			return code, nil
		}
		log.Debug().Str("module", "app.store").Str("room", string(code)).Int("attempt", attempt+1).Msg("room code collision")
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, maxCodeAttempts)
}

// FindByRoomCode is case-insensitive. An expired session is evicted and reported missing.
func (s *Store) FindByRoomCode(code string) (domain.Session, bool) {
	key := domain.NormalizeRoomCode(code)
	now := s.now()

	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, false
	}
	if sess.Expired(now) {
		s.evictIfExpired(key, now)
		return domain.Session{}, false
	}
	return sess.Clone(), true
}

// Has reports whether a live session holds code. Unlike FindByRoomCode it never evicts
// and never runs eviction callbacks.
func (s *Store) Has(code string) bool {
	key := domain.NormalizeRoomCode(code)
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	return ok && !sess.Expired(now)
}

func (s *Store) FindByID(id domain.SessionID) (domain.Session, bool) {
	now := s.now()
	s.mu.RLock()
	var (
		found domain.Session
		ok    bool
	)
	for _, sess := range s.sessions {
		if sess.ID == id {
			found, ok = sess, true
			break
		}
	}
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, false
	}
	if found.Expired(now) {
		s.evictIfExpired(found.RoomCode, now)
		return domain.Session{}, false
	}
	return found.Clone(), true
}

// Update replaces the stored state for sess.RoomCode. It refuses when the code is
// absent, expired, or now held by a different session.
func (s *Store) Update(sess domain.Session) (domain.Session, bool) {
	now := s.now()
	s.mu.Lock()
	cur, ok := s.sessions[sess.RoomCode]
	if !ok || cur.ID != sess.ID {
		s.mu.Unlock()
		return domain.Session{}, false
	}
	if cur.Expired(now) {
		delete(s.sessions, sess.RoomCode)
		s.mu.Unlock()
		s.notifyEvicted([]domain.Session{cur})
		return domain.Session{}, false
	}
	stored := sess.Clone()
	stored.ExpiresAt = cur.ExpiresAt
	stored.CreatedAt = cur.CreatedAt
	s.sessions[sess.RoomCode] = stored
	s.mu.Unlock()
	return stored.Clone(), true
}

// Delete is idempotent and reports whether a session was removed.
func (s *Store) Delete(code string) bool {
	key := domain.NormalizeRoomCode(code)
	s.mu.Lock()
	sess, ok := s.sessions[key]
	delete(s.sessions, key)
	s.mu.Unlock()
	if ok {
		s.notifyEvicted([]domain.Session{sess})
		log.Info().Str("module", "app.store").Str("room", string(key)).Msg("session deleted")
	}
	return ok
}

// Count is the number of stored sessions, including expired ones not yet evicted by a
// lookup or the sweeper.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// List returns copies of the live sessions.
func (s *Store) List() []domain.Session {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if !sess.Expired(now) {
			out = append(out, sess.Clone())
		}
	}
	return out
}

func (s *Store) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep evicts every expired session and returns how many were removed.
func (s *Store) sweep() int {
	now := s.now()
	var evicted []domain.Session
	s.mu.Lock()
	for code, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, code)
			evicted = append(evicted, sess)
		}
	}
	s.mu.Unlock()

	s.notifyEvicted(evicted)
	if len(evicted) > 0 {
		log.Info().Str("module", "app.store").Int("evicted", len(evicted)).Msg("expired sessions swept")
	}
	return len(evicted)
}

func (s *Store) evictIfExpired(code domain.RoomCode, now time.Time) {
	s.mu.Lock()
	sess, ok := s.sessions[code]
	if !ok || !sess.Expired(now) {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, code)
	s.mu.Unlock()
	s.notifyEvicted([]domain.Session{sess})
	log.Info().Str("module", "app.store").Str("room", string(code)).Msg("expired session evicted")
}

func (s *Store) notifyEvicted(sessions []domain.Session) {
	if len(sessions) == 0 {
		return
	}
	s.evictMu.RLock()
	fns := slices.Clone(s.onEvict)
	s.evictMu.RUnlock()
	for _, sess := range sessions {
		for _, fn := range fns {
			fn(sess.Clone())
		}
	}
}
