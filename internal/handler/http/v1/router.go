package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Сессии панели и действия над инцидентом
	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.createSession)
		sessions.GET("/:id", h.getSession)
		sessions.DELETE("/:id", h.deleteSession)
		sessions.PUT("/:id/location", h.setLocation)
		sessions.PUT("/:id/language", h.setLanguage)
		sessions.POST("/:id/upload", h.upload)
		sessions.POST("/:id/reset", h.reset)
		sessions.POST("/:id/speech", h.speak)
		sessions.POST("/:id/dispatch", h.dispatch)
		sessions.POST("/:id/summary", h.summarize)
		sessions.GET("/:id/logs", h.logs)
		sessions.GET("/:id/notifications", h.notifications)
		sessions.GET("/:id/settings", h.getSettings)
		sessions.PUT("/:id/settings", h.saveSettings)
		sessions.POST("/:id/feed/:reportId/focus", h.focusReport)
	}

	// Лента сообщества
	feed := api.Group("/feed")
	{
		feed.GET("", h.listReports)
		feed.GET("/nearby", h.reportsNear)
		feed.GET("/:id", h.getReport)
	}

	// Справочники
	api.GET("/locations/presets", h.listPresets)
	api.GET("/locations/cities", h.listCities)
	api.GET("/language", h.resolveLanguage)
	api.GET("/knowledge", h.listCategories)
	api.GET("/knowledge/:incidentType", h.getKnowledge)

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
