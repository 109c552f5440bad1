package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/SparkCircle/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedCodes yields codes in order, then fails.
func scriptedCodes(codes ...string) CodeGenerator {
	var mu sync.Mutex
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(codes) == 0 {
			return "", errors.New("script exhausted")
		}
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
}

func newTestStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	opts = append([]StoreOption{WithSweepInterval(0)}, opts...)
	s := NewStore(context.Background(), opts...)
	t.Cleanup(s.Close)
	return s
}

func TestStore_CreateAndFind(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, WithClock(clock.Now))

	sess, hostID, err := s.Create("", domain.DefaultSettings())
	require.NoError(t, err)

	assert.Len(t, string(sess.RoomCode), DefaultRoomCodeLength)
	for _, r := range string(sess.RoomCode) {
		assert.True(t, strings.ContainsRune(RoomCodeAlphabet, r), "unexpected rune %q", r)
	}
	assert.Equal(t, domain.StatusWaiting, sess.Status)
	assert.Equal(t, hostID, sess.HostID)
	require.Len(t, sess.Participants, 1)
	assert.NotEmpty(t, sess.Participants[0].Token, "the host gets a private token")
	assert.Equal(t, domain.DefaultHostName, sess.Participants[0].Name)
	assert.Equal(t, clock.Now().Add(DefaultSessionTTL), sess.ExpiresAt)

	got, ok := s.FindByRoomCode(strings.ToLower(string(sess.RoomCode)))
	require.True(t, ok, "lookup is case-insensitive")
	assert.Equal(t, sess.ID, got.ID)

	byID, ok := s.FindByID(sess.ID)
	require.True(t, ok)
	assert.Equal(t, sess.RoomCode, byID.RoomCode)

	_, ok = s.FindByRoomCode("NOPE42")
	assert.False(t, ok)
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := newTestStore(t)
	sess, _, err := s.Create("Ana", domain.DefaultSettings())
	require.NoError(t, err)

	sess.Participants[0].Name = "mutated"
	sess.Settings.Themes[0] = "bogus"

	got, ok := s.FindByRoomCode(string(sess.RoomCode))
	require.True(t, ok)
	assert.Equal(t, "Ana", got.Participants[0].Name)
	assert.Equal(t, domain.ThemeDreams, got.Settings.Themes[0])
}

func TestStore_CodeCollisionRetries(t *testing.T) {
	s := newTestStore(t, WithCodeGenerator(scriptedCodes("AAAAAA", "AAAAAA", "BBBBBB")))

	first, _, err := s.Create("a", domain.DefaultSettings())
	require.NoError(t, err)
	second, _, err := s.Create("b", domain.DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, domain.RoomCode("AAAAAA"), first.RoomCode)
	assert.Equal(t, domain.RoomCode("BBBBBB"), second.RoomCode)
	assert.Equal(t, 2, s.Count())
}

func TestStore_CodeSpaceExhausted(t *testing.T) {
	codes := make([]string, maxCodeAttempts+1)
	for i := range codes {
		codes[i] = "AAAAAA"
	}
	s := newTestStore(t, WithCodeGenerator(scriptedCodes(codes...)))

	_, _, err := s.Create("a", domain.DefaultSettings())
	require.NoError(t, err)
	_, _, err = s.Create("b", domain.DefaultSettings())
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestStore_ExpiredHolderFreesCode(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, WithClock(clock.Now), WithTTL(time.Hour), WithCodeGenerator(scriptedCodes("AAAAAA", "AAAAAA")))

	var evicted []domain.RoomCode
	s.OnEvict(func(sess domain.Session) { evicted = append(evicted, sess.RoomCode) })

	old, _, err := s.Create("a", domain.DefaultSettings())
	require.NoError(t, err)
	clock.Advance(time.Hour + time.Second)

	fresh, _, err := s.Create("b", domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, old.RoomCode, fresh.RoomCode)
	assert.NotEqual(t, old.ID, fresh.ID)
	assert.Equal(t, []domain.RoomCode{"AAAAAA"}, evicted)
}

func TestStore_ConcurrentCreatesAreUnique(t *testing.T) {
	s := newTestStore(t)
	const n = 200

	var (
		mu    sync.Mutex
		codes = make(map[domain.RoomCode]struct{}, n)
		wg    sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, _, err := s.Create(fmt.Sprintf("host-%d", i), domain.DefaultSettings())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			codes[sess.RoomCode] = struct{}{}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, codes, n)
	assert.Equal(t, n, s.Count())
}

func TestStore_ExpiryOnLookup(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, WithClock(clock.Now), WithTTL(time.Hour))

	evictions := 0
	s.OnEvict(func(domain.Session) { evictions++ })

	sess, _, err := s.Create("a", domain.DefaultSettings())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, ok := s.FindByRoomCode(string(sess.RoomCode))
	assert.True(t, ok, "a session is live at exactly ExpiresAt")

	clock.Advance(time.Second)
	_, ok = s.FindByRoomCode(string(sess.RoomCode))
	assert.False(t, ok)
	_, ok = s.FindByID(sess.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, 1, evictions)
}

func TestStore_Update(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, WithClock(clock.Now), WithTTL(time.Hour))

	sess, _, err := s.Create("a", domain.DefaultSettings())
	require.NoError(t, err)

	sess.Status = domain.StatusActive
	sess.ExpiresAt = sess.ExpiresAt.Add(100 * time.Hour)
	updated, ok := s.Update(sess)
	require.True(t, ok)
	assert.Equal(t, domain.StatusActive, updated.Status)
	assert.Equal(t, clock.Now().Add(time.Hour), updated.ExpiresAt, "TTL is fixed at creation")

	stranger := sess.Clone()
	stranger.ID = domain.NewSessionID()
	_, ok = s.Update(stranger)
	assert.False(t, ok, "a different session must not overwrite the code holder")

	require.True(t, s.Delete(string(sess.RoomCode)))
	_, ok = s.Update(sess)
	assert.False(t, ok)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	sess, _, err := s.Create("a", domain.DefaultSettings())
	require.NoError(t, err)

	var evicted []domain.SessionID
	s.OnEvict(func(sess domain.Session) { evicted = append(evicted, sess.ID) })

	assert.True(t, s.Delete(string(sess.RoomCode)))
	assert.False(t, s.Delete(string(sess.RoomCode)))
	assert.Equal(t, []domain.SessionID{sess.ID}, evicted)
}

func TestStore_Sweep(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, WithClock(clock.Now), WithTTL(time.Hour))

	old, _, err := s.Create("old", domain.DefaultSettings())
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	young, _, err := s.Create("young", domain.DefaultSettings())
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	assert.Equal(t, 1, s.sweep())
	assert.Equal(t, 1, s.Count())

	_, ok := s.FindByRoomCode(string(old.RoomCode))
	assert.False(t, ok)
	_, ok = s.FindByRoomCode(string(young.RoomCode))
	assert.True(t, ok)

	live := s.List()
	require.Len(t, live, 1)
	assert.Equal(t, young.ID, live[0].ID)
}

func TestStore_SweeperRunsInBackground(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(context.Background(),
		WithClock(clock.Now),
		WithTTL(time.Minute),
		WithSweepInterval(5*time.Millisecond),
	)
	defer s.Close()

	evicted := make(chan domain.RoomCode, 1)
	s.OnEvict(func(sess domain.Session) { evicted <- sess.RoomCode })

	sess, _, err := s.Create("a", domain.DefaultSettings())
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	select {
	case code := <-evicted:
		assert.Equal(t, sess.RoomCode, code)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not evict the expired session")
	}
	assert.Equal(t, 0, s.Count())
}

func TestStore_CloseStopsSweeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewStore(ctx, WithSweepInterval(time.Millisecond))

	done := make(chan struct{})
	go func() {
		s.Close()
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestStore_Has(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, WithClock(clock.Now), WithTTL(time.Hour))

	evictions := 0
	s.OnEvict(func(domain.Session) { evictions++ })

	sess, _, err := s.Create("a", domain.DefaultSettings())
	require.NoError(t, err)
	assert.True(t, s.Has(strings.ToLower(string(sess.RoomCode))))
	assert.False(t, s.Has("NOPE42"))

	clock.Advance(2 * time.Hour)
	assert.False(t, s.Has(string(sess.RoomCode)))
	assert.Equal(t, 0, evictions, "Has never evicts")
	assert.Equal(t, 1, s.Count())
}

func TestStore_EvictCallbackMayRegisterAnother(t *testing.T) {
	s := newTestStore(t)

	var calls []string
	s.OnEvict(func(domain.Session) {
		calls = append(calls, "first")
		s.OnEvict(func(domain.Session) { calls = append(calls, "late") })
	})

	a, _, err := s.Create("a", domain.DefaultSettings())
	require.NoError(t, err)
	b, _, err := s.Create("b", domain.DefaultSettings())
	require.NoError(t, err)

	require.True(t, s.Delete(string(a.RoomCode)))
	assert.Equal(t, []string{"first"}, calls, "callbacks registered during a notification wait for the next one")

	require.True(t, s.Delete(string(b.RoomCode)))
	assert.Equal(t, []string{"first", "first", "late"}, calls)
}
