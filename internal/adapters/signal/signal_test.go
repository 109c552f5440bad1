package signal

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dkeye/SparkCircle/internal/app/turn"
	"github.com/dkeye/SparkCircle/internal/core"
	"github.com/dkeye/SparkCircle/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestDecodeAction(t *testing.T) {
	const actor = domain.ParticipantID("p1")
	cases := []struct {
		kind string
		data string
		want turn.Action
	}{
		{"start-session", `{"type":"start-session"}`, turn.Start{Actor: actor}},
		{"pass-turn", `{"type":"pass-turn"}`, turn.PassTurn{Actor: actor}},
		{"force-pass-turn", `{}`, turn.ForcePassTurn{Actor: actor}},
		{"next-question", `{}`, turn.NextQuestion{Actor: actor}},
		{"end-session", `{}`, turn.EndSession{Actor: actor}},
		{"select-theme", `{"type":"select-theme","theme":"values"}`, turn.SelectTheme{Actor: actor, Theme: domain.ThemeValues}},
		{
			"update-settings",
			`{"type":"update-settings","settings":{"rounds":3,"mode":"free-flow"}}`,
			turn.UpdateSettings{Actor: actor, Changes: domain.SettingsOverrides{
				Rounds: ptr(3),
				Mode:   ptr(domain.ModeFreeFlow),
			}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			got, err := decodeAction(tc.kind, actor, []byte(tc.data))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("decodeAction mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeAction_Rejections(t *testing.T) {
	cases := []struct {
		name string
		kind string
		data string
		want *domain.Error
	}{
		{"unknown kind", "dance", `{}`, domain.ErrInvalidPayload},
		{"theme missing", "select-theme", `{"type":"select-theme"}`, domain.ErrInvalidPayload},
		{"bad json", "select-theme", `{"theme":`, domain.ErrInvalidPayload},
		{"settings out of range", "update-settings", `{"settings":{"rounds":11}}`, domain.ErrInvalidSettings},
		{"settings bad mode", "update-settings", `{"settings":{"mode":"chaos"}}`, domain.ErrInvalidSettings},
		{"settings wrong type", "update-settings", `{"settings":{"rounds":"three"}}`, domain.ErrInvalidPayload},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeAction(tc.kind, "p1", []byte(tc.data))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestKeyedRateLimiter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewKeyedRateLimiter(rate.Every(time.Second), 2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst spent")
	assert.True(t, rl.Allow("b"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"), "one token refilled")
	assert.False(t, rl.Allow("a"))

	rl.Forget("b")
	assert.Equal(t, 1, rl.Len())

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("c"))
	assert.Equal(t, 1, rl.Len(), "idle buckets are pruned")
}

func TestCheckOrigin(t *testing.T) {
	ctl := &SignalWSController{opts: Options{AllowedOrigins: []string{"http://localhost:3000"}}}
	cases := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"https://spark.example.com", true},
		{"https://evil.example.com", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "https://spark.example.com/api/ws/signal", nil)
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		assert.Equal(t, tc.want, ctl.checkOrigin(r), "origin %q", tc.origin)
	}

	open := &SignalWSController{opts: Options{AllowedOrigins: []string{"*"}}}
	r := httptest.NewRequest("GET", "https://spark.example.com/api/ws/signal", nil)
	r.Header.Set("Origin", "https://anywhere.example.org")
	assert.True(t, open.checkOrigin(r))
}

func TestWsSignalConn_TrySend(t *testing.T) {
	c := &WsSignalConn{send: make(chan core.Frame, 1)}

	require.NoError(t, c.TrySend(core.Frame(`{"type":"pong"}`)))
	assert.ErrorIs(t, c.TrySend(core.Frame(`{"type":"pong"}`)), ErrBackpressure)

	<-c.send
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	assert.ErrorIs(t, c.TrySend(core.Frame(`{}`)), ErrClosed)
}

func TestParticipantKey(t *testing.T) {
	assert.Equal(t, "p:ABC234", ParticipantKey("ABC234"))
}
