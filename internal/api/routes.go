// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/ifc-analysis/backend/internal/chat"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions  SessionStore
	Jobs      JobManager
	Validator Validator
	Chat      chat.Service
	TempDir   string
	MaxUpload int64
	Version   string
}

// Handlers holds all handler instances
type Handlers struct {
	Health     HealthHandler
	Model      ModelHandler
	Validation ValidationHandler
	Chat       ChatHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(deps.Version),
		Model:      NewModelHandler(deps.Sessions, deps.Jobs, deps.TempDir, deps.MaxUpload),
		Validation: NewValidationHandler(deps.Sessions, deps.Validator),
		Chat:       NewChatHandler(deps.Sessions, deps.Chat),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, h *Handlers) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", h.Health.HandleHealth)

	// Model ingestion and index reads
	apiGroup.POST("/ifc/upload", h.Model.HandleUploadModel)
	apiGroup.GET("/job/:jobId", h.Model.HandleJobStatus)
	apiGroup.GET("/ifc/header", h.Model.HandleModelHeader)
	apiGroup.GET("/ifc/version", h.Model.HandleModelVersion)
	apiGroup.GET("/ifc/units", h.Model.HandleModelUnits)
	apiGroup.GET("/ifc/summary", h.Model.HandleModelSummary)
	apiGroup.DELETE("/session/:sessionId", h.Model.HandleDeleteSession)

	// Validation
	apiGroup.POST("/excel/upload", h.Validation.HandleUploadSheet)
	apiGroup.GET("/validation/summary", h.Validation.HandleSummary)
	apiGroup.GET("/validation/by-entity", h.Validation.HandleByEntity)
	apiGroup.GET("/validation/by-property", h.Validation.HandleByProperty)
	apiGroup.GET("/validation/issues", h.Validation.HandleIssues)
	apiGroup.GET("/validation/issues/msgpack", h.Validation.HandleIssuesMsgpack)
	apiGroup.GET("/validation/export.csv", h.Validation.HandleExportCSV)

	// Chat
	apiGroup.POST("/chat", h.Chat.HandleChat)
}
