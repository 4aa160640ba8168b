package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// @Summary List community reports
// @Description Newest first, paginated
// @Tags Feed
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {array} CommunityReportResponse
// @Failure 500 {object} ErrorResponse
// @Router /feed [get]
func (h *Handler) listReports(c *gin.Context) {
	log := h.log("listReports")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	reports, err := h.feedService.ListReports(c.Request.Context(), page, pageSize)
	if err != nil {
		log.WithError(err).Error("Failed to list reports")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list reports"})
		return
	}
	c.JSON(http.StatusOK, ModelsToReportResponses(reports))
}

// @Summary Community reports near a point
// @Tags Feed
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius query number false "Radius in meters" default(5000)
// @Success 200 {array} CommunityReportResponse
// @Failure 400 {object} ErrorResponse
// @Router /feed/nearby [get]
func (h *Handler) reportsNear(c *gin.Context) {
	log := h.log("reportsNear")

	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "valid lat and lon are required"})
		return
	}
	radius, _ := strconv.ParseFloat(c.DefaultQuery("radius", "0"), 64)

	reports, err := h.feedService.ReportsNear(c.Request.Context(), lat, lon, radius)
	if err != nil {
		log.WithError(err).Error("Failed to find reports")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to find reports"})
		return
	}
	c.JSON(http.StatusOK, ModelsToReportResponses(reports))
}

// @Summary Get a community report
// @Tags Feed
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} CommunityReportResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /feed/{id} [get]
func (h *Handler) getReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid report ID"})
		return
	}
	report, err := h.feedService.GetReport(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log("getReport").WithField("report_id", id), err)
		return
	}
	c.JSON(http.StatusOK, ModelToReportResponse(report))
}

// @Summary Focus the session map on a community report
// @Description Clears the active incident and moves the session to the report location
// @Tags Feed
// @Produce json
// @Param id path string true "Session ID"
// @Param reportId path string true "Report ID"
// @Success 200 {object} models.SessionSnapshot
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/feed/{reportId}/focus [post]
func (h *Handler) focusReport(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	reportID, err := uuid.Parse(c.Param("reportId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid report ID"})
		return
	}
	log := h.log("focusReport").WithFields(logrus.Fields{"session_id": id, "report_id": reportID})

	ctx := c.Request.Context()
	report, err := h.feedService.GetReport(ctx, reportID)
	if err != nil {
		writeError(c, log, err)
		return
	}
	snap, err := h.pipeline.FocusLocation(ctx, id, report.Location())
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
