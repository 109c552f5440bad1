package signal

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dkeye/SparkCircle/internal/app/orch"
	"github.com/dkeye/SparkCircle/internal/config"
	"github.com/dkeye/SparkCircle/internal/core"
	"github.com/dkeye/SparkCircle/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	Rate           rate.Limit
	Burst          int
	AllowedOrigins []string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		PongWait:       cfg.PongWait,
		WriteWait:      cfg.WriteWait,
		SendBuffer:     cfg.SendBuffer,
		Rate:           rate.Limit(cfg.WSRate),
		Burst:          cfg.WSBurst,
		AllowedOrigins: cfg.AllowedOrigins,
	}
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	opts     Options
	limiter  *KeyedRateLimiter
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	ctl := &SignalWSController{
		Orch:    o,
		opts:    opts,
		limiter: NewKeyedRateLimiter(opts.Rate, opts.Burst),
	}
	ctl.upgrader = websocket.Upgrader{CheckOrigin: ctl.checkOrigin}
	return ctl
}

// WsSignalConn is the adapter side of core.SignalConnection. Frames queue in send and
// are written by the connection's write pump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	// remembered resolves the participant token stored in the cookie session for a room.
	remembered func(domain.RoomCode) domain.ParticipantToken

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// ParticipantKey is the cookie session key remembering the participant token for a room.
func ParticipantKey(code domain.RoomCode) string {
	return "p:" + string(code)
}

func (ctl *SignalWSController) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(ctl.opts.AllowedOrigins, "*") || slices.Contains(ctl.opts.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	cookie := sessions.Default(c)
	remembered := func(code domain.RoomCode) domain.ParticipantToken {
		v, _ := cookie.Get(ParticipantKey(code)).(string)
		return domain.ParticipantToken(v)
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := core.NewSessionID()
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("remote", c.ClientIP()).Msg("new WS connection")

	conn := &WsSignalConn{
		conn:       ws,
		send:       make(chan core.Frame, ctl.opts.SendBuffer),
		remembered: remembered,
	}

	sess := core.NewMemberSession(nil).UpdateSignal(conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.BindSignal(sid, sess, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
