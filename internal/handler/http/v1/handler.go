package v1

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/config"
	"github.com/shenikar/incident_response_system/internal/media"
	"github.com/shenikar/incident_response_system/internal/pipeline"
	"github.com/shenikar/incident_response_system/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	pipeline    pipeline.Pipeline
	feedService service.FeedService
	logger      *logrus.Logger
	validate    *validator.Validate
	cfg         *config.Config
}

func NewHandler(p pipeline.Pipeline, feedService service.FeedService, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		pipeline:    p,
		feedService: feedService,
		logger:      logger,
		validate:    validator.New(),
		cfg:         cfg,
	}
}

func (h *Handler) log(method string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"handler": "v1",
		"method":  method,
	})
}

// sessionID разбирает :id и сам отвечает 400 при ошибке
func (h *Handler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

// @Summary Create a session
// @Description Open a new dashboard session on the HQ preset
// @Tags Sessions
// @Produce json
// @Success 201 {object} models.SessionSnapshot
// @Router /sessions [post]
func (h *Handler) createSession(c *gin.Context) {
	snap := h.pipeline.CreateSession(c.Request.Context())
	c.JSON(http.StatusCreated, snap)
}

// @Summary Get session state
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionSnapshot
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *Handler) getSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	snap, err := h.pipeline.Session(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log("getSession").WithField("session_id", id), err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary Close a session
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *Handler) deleteSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.pipeline.DeleteSession(c.Request.Context(), id); err != nil {
		writeError(c, h.log("deleteSession").WithField("session_id", id), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Set session location
// @Description fixed uses a preset, gps uses coordinates, manual uses a listed city or coordinates
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param location body LocationRequest true "Location"
// @Success 200 {object} models.SessionSnapshot
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/location [put]
func (h *Handler) setLocation(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	log := h.log("setLocation").WithField("session_id", id)

	var input LocationRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	loc, err := DTOToLocation(input)
	if err != nil {
		writeError(c, log, err)
		return
	}
	snap, err := h.pipeline.SetLocation(c.Request.Context(), id, loc)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary Set guidance language
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param language body LanguageRequest true "Language mode"
// @Success 200 {object} models.SessionSnapshot
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/language [put]
func (h *Handler) setLanguage(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	log := h.log("setLanguage").WithField("session_id", id)

	var input LanguageRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	snap, err := h.pipeline.SetLanguageMode(c.Request.Context(), id, input.Mode)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary Upload media for analysis
// @Description Multipart field "file" or JSON {"media_data_uri": "..."}. With wait=true the response is sent after analysis settles.
// @Tags Sessions
// @Accept multipart/form-data,json
// @Produce json
// @Param id path string true "Session ID"
// @Param wait query bool false "Wait for the analysis result"
// @Param file formData file false "Photo or video"
// @Success 200 {object} models.SessionSnapshot
// @Success 202 {object} models.SessionSnapshot
// @Failure 409 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/upload [post]
func (h *Handler) upload(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	log := h.log("upload").WithField("session_id", id)

	if h.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)
	}

	dataURI, err := h.readMedia(c)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			log.WithError(err).Warn("Upload too large")
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "media exceeds upload limit"})
		case errors.Is(err, media.ErrUnsupported), errors.Is(err, media.ErrEmptyMedia):
			writeError(c, log, apperrors.Wrap(apperrors.KindValidation, "handler", err))
		default:
			log.WithError(err).Warn("Failed to read upload")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid upload"})
		}
		return
	}

	ctx := c.Request.Context()
	done, err := h.pipeline.Upload(ctx, id, dataURI)
	if err != nil {
		writeError(c, log, err)
		return
	}

	status := http.StatusAccepted
	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		select {
		case <-done:
			status = http.StatusOK
		case <-ctx.Done():
			return
		}
	}

	snap, err := h.pipeline.Session(ctx, id)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(status, snap)
}

func (h *Handler) readMedia(c *gin.Context) (string, error) {
	if c.ContentType() == gin.MIMEJSON {
		var input UploadRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			return "", err
		}
		if err := h.validate.Struct(input); err != nil {
			return "", err
		}
		return input.MediaDataURI, nil
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return "", err
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return media.FromUpload(data)
}

// @Summary Clear the active incident
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionSnapshot
// @Router /sessions/{id}/reset [post]
func (h *Handler) reset(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	snap, err := h.pipeline.Reset(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log("reset").WithField("session_id", id), err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary Speak translated guidance
// @Tags Actions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SpeechResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions/{id}/speech [post]
func (h *Handler) speak(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	out, err := h.pipeline.Speak(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log("speak").WithField("session_id", id), err)
		return
	}
	c.JSON(http.StatusOK, SpeechResponse{Media: out.DataURI})
}

// @Summary Place an emergency voice call
// @Tags Actions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.DispatchResult
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions/{id}/dispatch [post]
func (h *Handler) dispatch(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	result, err := h.pipeline.Dispatch(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log("dispatch").WithField("session_id", id), err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Summarize the incident for authorities
// @Tags Actions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.AuthoritySummary
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/summary [post]
func (h *Handler) summarize(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	summary, err := h.pipeline.Summarize(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log("summarize").WithField("session_id", id), err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Session incident log
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} models.LogEntry
// @Router /sessions/{id}/logs [get]
func (h *Handler) logs(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	entries, err := h.pipeline.Logs(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log("logs").WithField("session_id", id), err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// @Summary Session notifications
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} models.Notification
// @Router /sessions/{id}/notifications [get]
func (h *Handler) notifications(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	notes, err := h.pipeline.Notifications(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log("notifications").WithField("session_id", id), err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// @Summary Get dispatch settings
// @Tags Settings
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.DispatchCredentials
// @Router /sessions/{id}/settings [get]
func (h *Handler) getSettings(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	creds, err := h.pipeline.LoadSettings(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log("getSettings").WithField("session_id", id), err)
		return
	}
	c.JSON(http.StatusOK, creds)
}

// @Summary Save dispatch settings
// @Description Settings are written wholesale. Non-empty values take priority over server defaults.
// @Tags Settings
// @Accept json
// @Param id path string true "Session ID"
// @Param settings body SettingsRequest true "Settings"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/settings [put]
func (h *Handler) saveSettings(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	log := h.log("saveSettings").WithField("session_id", id)

	var input SettingsRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.pipeline.SaveSettings(c.Request.Context(), id, DTOToCredentials(input)); err != nil {
		writeError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
