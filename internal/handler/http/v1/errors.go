package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/pipeline"
	"github.com/shenikar/incident_response_system/internal/service"
	"github.com/sirupsen/logrus"
)

// ErrorResponse - тело ответа с ошибкой
// @Description Тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Title string `json:"title,omitempty"`
}

// writeError выбирает код ответа по виду ошибки
func writeError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, pipeline.ErrSessionNotFound):
		log.WithError(err).Warn("Session not found")
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found", Kind: "not_found"})
		return
	case errors.Is(err, service.ErrReportNotFound):
		log.WithError(err).Warn("Report not found")
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "report not found", Kind: "not_found"})
		return
	}

	kind := apperrors.KindOf(err)
	resp := ErrorResponse{Error: apperrors.Message(err), Kind: string(kind)}
	status := http.StatusBadGateway
	switch kind {
	case apperrors.KindCredential:
		status = http.StatusUnauthorized
		resp.Title = "CREDENTIAL FAILURE"
	case apperrors.KindValidation:
		status = http.StatusUnprocessableEntity
		resp.Title = "INVALID INPUT"
	case apperrors.KindPrecondition:
		status = http.StatusConflict
		resp.Title = "PRECONDITION FAILED"
	default:
		resp.Title = "UPLINK FAILURE"
	}

	if status == http.StatusBadGateway {
		log.WithError(err).Error("Request failed")
	} else {
		log.WithError(err).Warn("Request rejected")
	}
	c.JSON(status, resp)
}
