package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/incident_response_system/internal/knowledge"
	"github.com/shenikar/incident_response_system/internal/language"
	"github.com/shenikar/incident_response_system/internal/models"
)

// @Summary Location presets
// @Tags Reference
// @Produce json
// @Success 200 {array} PresetResponse
// @Router /locations/presets [get]
func (h *Handler) listPresets(c *gin.Context) {
	names := models.PresetNames()
	resp := make([]PresetResponse, 0, len(names))
	for _, name := range names {
		loc, _ := models.Preset(name)
		resp = append(resp, PresetResponse{Name: name, Location: loc})
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Cities for manual relocation
// @Tags Reference
// @Produce json
// @Success 200 {array} models.City
// @Router /locations/cities [get]
func (h *Handler) listCities(c *gin.Context) {
	c.JSON(http.StatusOK, models.SearchableCities())
}

// @Summary Resolve guidance language for a region
// @Tags Reference
// @Produce json
// @Param city query string false "City"
// @Param state query string false "State"
// @Param country query string false "Country"
// @Param target query string false "Explicit target language"
// @Success 200 {object} LanguageResponse
// @Router /language [get]
func (h *Handler) resolveLanguage(c *gin.Context) {
	lang := language.Resolve(c.Query("city"), c.Query("state"), c.Query("country"), c.Query("target"))
	c.JSON(http.StatusOK, LanguageResponse{Language: lang})
}

// @Summary Incident categories
// @Tags Reference
// @Produce json
// @Success 200 {array} string
// @Router /knowledge [get]
func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, knowledge.Categories())
}

// @Summary Guidance for an incident type
// @Description Matches on the first word of the type. Unknown types return placeholder texts.
// @Tags Reference
// @Produce json
// @Param incidentType path string true "Incident type"
// @Success 200 {object} KnowledgeResponse
// @Router /knowledge/{incidentType} [get]
func (h *Handler) getKnowledge(c *gin.Context) {
	incidentType := c.Param("incidentType")
	c.JSON(http.StatusOK, KnowledgeResponse{
		IncidentType:     incidentType,
		Known:            knowledge.Known(incidentType),
		IncidentDefaults: knowledge.Lookup(incidentType),
	})
}
