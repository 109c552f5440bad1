package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SparkCircle/internal/domain"
)

type errorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    domain.Code `json:"code"`
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusForbidden
	case domain.KindConflict, domain.KindExhausted:
		return http.StatusConflict
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) errorResponse {
	var de *domain.Error
	if errors.As(err, &de) {
		return errorResponse{Error: de.Message, Code: de.Code}
	}
	return errorResponse{Error: "Something went wrong", Code: domain.CodeUnknown}
}

func respondError(c *gin.Context, err error) {
	respondErrorStatus(c, statusFor(err), err)
}

func respondErrorStatus(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, errorBody(err))
}
