package http

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dkeye/SparkCircle/internal/adapters/signal"
	"github.com/dkeye/SparkCircle/internal/app/orch"
	"github.com/dkeye/SparkCircle/internal/config"
)

const cookieSessionName = "SparkCircleSessions"

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
		MaxAge: 12 * time.Hour,
	}))

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(cookieSessionName, store))

	if _, err := os.Stat(cfg.StaticPath); err == nil {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{orch: o, environment: cfg.Environment}
	limiter := signal.NewKeyedRateLimiter(rate.Every(cfg.HTTPRateWindow/time.Duration(cfg.HTTPRateLimit)), cfg.HTTPRateLimit)
	ctrl := signal.NewSignalWSController(o, signal.OptionsFromConfig(cfg))

	api := r.Group("/api")
	api.GET("/health", h.health)

	limited := api.Group("", RateLimitMiddleware(limiter))
	limited.GET("/themes", h.themes)

	sessionsAPI := limited.Group("/sessions")
	sessionsAPI.POST("/create", h.createSession)
	sessionsAPI.POST("/join", h.joinSession)
	sessionsAPI.GET("/:roomCode", h.getSession)

	limited.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("remote", c.ClientIP()).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
