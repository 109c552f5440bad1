package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SparkCircle/internal/adapters/signal"
	"github.com/dkeye/SparkCircle/internal/app/orch"
	"github.com/dkeye/SparkCircle/internal/domain"
)

type handlers struct {
	orch        *orch.Orchestrator
	environment string
}

type createRequest struct {
	HostName string                   `json:"hostName"`
	Settings domain.SettingsOverrides `json:"settings"`
}

type createResponse struct {
	Success          bool                    `json:"success"`
	RoomCode         domain.RoomCode         `json:"roomCode"`
	ParticipantID    domain.ParticipantID    `json:"participantId"`
	ParticipantToken domain.ParticipantToken `json:"participantToken"`
	HostID           domain.ParticipantID    `json:"hostId"`
	SessionID        domain.SessionID        `json:"sessionId"`
}

type joinRequest struct {
	RoomCode        string `json:"roomCode" binding:"required"`
	ParticipantName string `json:"participantName"`
}

type joinResponse struct {
	Success          bool                    `json:"success"`
	SessionID        domain.SessionID        `json:"sessionId"`
	RoomCode         domain.RoomCode         `json:"roomCode"`
	ParticipantID    domain.ParticipantID    `json:"participantId"`
	ParticipantToken domain.ParticipantToken `json:"participantToken"`
	Settings         domain.Settings         `json:"settings"`
	Status           domain.Status           `json:"status"`
}

type snapshotResponse struct {
	Success bool `json:"success"`
	domain.SessionView
}

type healthResponse struct {
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	ActiveSessions int       `json:"activeSessions"`
	LiveRooms      int       `json:"liveRooms"`
	Connections    int       `json:"connections"`
	Environment    string    `json:"environment"`
}

// bindJSON maps binding failures onto rejections. An empty body binds to the zero value.
func bindJSON(c *gin.Context, v any, invalid *domain.Error) error {
	err := c.ShouldBindJSON(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return domain.Wrap(invalid, err)
	}
	return domain.Wrap(domain.ErrInvalidPayload, err)
}

func remember(c *gin.Context, code domain.RoomCode, token domain.ParticipantToken) {
	s := sessions.Default(c)
	s.Set(signal.ParticipantKey(code), string(token))
	if err := s.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("save cookie session")
	}
}

func (h *handlers) createSession(c *gin.Context) {
	var req createRequest
	if err := bindJSON(c, &req, domain.ErrInvalidSettings); err != nil {
		respondError(c, err)
		return
	}
	sess, hostID, err := h.orch.CreateRoom(req.HostName, req.Settings)
	if err != nil {
		respondError(c, err)
		return
	}
	host, _ := sess.Participant(hostID)
	remember(c, sess.RoomCode, host.Token)
	c.JSON(http.StatusOK, createResponse{
		Success:          true,
		RoomCode:         sess.RoomCode,
		ParticipantID:    hostID,
		ParticipantToken: host.Token,
		HostID:           sess.HostID,
		SessionID:        sess.ID,
	})
}

func (h *handlers) joinSession(c *gin.Context) {
	var req joinRequest
	if err := bindJSON(c, &req, domain.ErrInvalidPayload); err != nil {
		respondError(c, err)
		return
	}
	if req.RoomCode == "" {
		respondError(c, domain.Wrapf(domain.ErrInvalidPayload, "roomCode is required"))
		return
	}
	sess, pid, err := h.orch.JoinRoom(req.RoomCode, req.ParticipantName)
	switch {
	case errors.Is(err, domain.ErrSessionEnded):
		respondErrorStatus(c, http.StatusNotFound, err)
		return
	case err != nil:
		respondError(c, err)
		return
	}
	joined, _ := sess.Participant(pid)
	remember(c, sess.RoomCode, joined.Token)
	c.JSON(http.StatusOK, joinResponse{
		Success:          true,
		SessionID:        sess.ID,
		RoomCode:         sess.RoomCode,
		ParticipantID:    pid,
		ParticipantToken: joined.Token,
		Settings:         sess.Settings,
		Status:           sess.Status,
	})
}

func (h *handlers) getSession(c *gin.Context) {
	code := domain.NormalizeRoomCode(c.Param("roomCode"))
	token := domain.ParticipantToken(c.Query("participantToken"))
	if token == "" {
		if v, ok := sessions.Default(c).Get(signal.ParticipantKey(code)).(string); ok {
			token = domain.ParticipantToken(v)
		}
	}
	view, err := h.orch.Snapshot(string(code), token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotResponse{Success: true, SessionView: view})
}

func (h *handlers) themes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "themes": h.orch.Catalog.Themes()})
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:         "OK",
		Message:        "SparkCircle backend is running",
		Timestamp:      time.Now().UTC(),
		ActiveSessions: h.orch.Store.Count(),
		LiveRooms:      len(h.orch.Rooms.List()),
		Connections:    h.orch.Registry.Count(),
		Environment:    h.environment,
	})
}
