// interfaces.go - Handler and collaborator interface definitions
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/ifc-analysis/backend/internal/models"
)

// SessionStore is the session registry surface the handlers depend on.
// Allows mocking in tests.
type SessionStore interface {
	Create() string
	Get(id string) (models.Session, bool)
	Update(id string, fn func(*models.Session)) bool
	Delete(id string) bool
}

// JobManager starts background model ingestion and answers job polls.
type JobManager interface {
	Start(sessionID, filePath, filename string) (jobID string, err error)
	Poll(sessionID, jobID string) (models.JobState, bool)
}

// Validator runs the spreadsheet validation pipeline for a session.
type Validator interface {
	RunValidation(sessionID string, sheetData []byte, sheetFilename string) (*models.Report, error)
}

// ModelHandler handles model upload, job polling and model-index reads
type ModelHandler interface {
	HandleUploadModel(c echo.Context) error
	HandleJobStatus(c echo.Context) error
	HandleModelHeader(c echo.Context) error
	HandleModelVersion(c echo.Context) error
	HandleModelUnits(c echo.Context) error
	HandleModelSummary(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
}

// ValidationHandler handles spreadsheet upload and report queries
type ValidationHandler interface {
	HandleUploadSheet(c echo.Context) error
	HandleSummary(c echo.Context) error
	HandleByEntity(c echo.Context) error
	HandleByProperty(c echo.Context) error
	HandleIssues(c echo.Context) error
	HandleIssuesMsgpack(c echo.Context) error
	HandleExportCSV(c echo.Context) error
}

// ChatHandler handles model Q&A
type ChatHandler interface {
	HandleChat(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
