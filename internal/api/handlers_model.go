// handlers_model.go - Model upload, job polling and model-index read handlers
package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ifc-analysis/backend/internal/ingest"
	"github.com/ifc-analysis/backend/internal/models"
)

// ModelHandlerImpl implements the ModelHandler interface
type ModelHandlerImpl struct {
	sessions  SessionStore
	jobs      JobManager
	tempDir   string
	maxUpload int64
}

// NewModelHandler creates a new model handler instance
func NewModelHandler(sessions SessionStore, jobs JobManager, tempDir string, maxUpload int64) ModelHandler {
	return &ModelHandlerImpl{
		sessions:  sessions,
		jobs:      jobs,
		tempDir:   tempDir,
		maxUpload: maxUpload,
	}
}

// HandleUploadModel accepts a model file (multipart), creates or reuses the
// session and starts background ingestion. The response carries the job id
// to poll; parsing has not happened yet when it returns.
func (h *ModelHandlerImpl) HandleUploadModel(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("nenhum arquivo enviado", err)
	}

	lower := strings.ToLower(file.Filename)
	if !strings.HasSuffix(lower, ".ifc") && !strings.HasSuffix(lower, ".json") {
		return NewBadRequestError("apenas arquivos .ifc são aceitos", nil)
	}
	if file.Size == 0 {
		return NewBadRequestError("arquivo vazio", nil)
	}
	if file.Size > h.maxUpload {
		return NewBadRequestError("arquivo excede o tamanho máximo permitido", nil)
	}

	// Reuse the session when a valid id was supplied, otherwise create one.
	sessionID := c.QueryParam("session_id")
	if sessionID != "" {
		if _, ok := h.sessions.Get(sessionID); !ok {
			sessionID = h.sessions.Create()
		}
	} else {
		sessionID = h.sessions.Create()
	}

	path, err := h.saveTempFile(file)
	if err != nil {
		return NewInternalError("falha ao salvar arquivo temporário", err)
	}

	jobID, err := h.jobs.Start(sessionID, path, file.Filename)
	if errors.Is(err, ingest.ErrSaturated) {
		return NewServiceUnavailableError(err.Error())
	}
	if err != nil {
		return NewInternalError("falha ao iniciar processamento", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"file_name":  file.Filename,
		"file_size":  file.Size,
		"status":     models.JobStatusQueued,
		"job_id":     jobID,
	})
}

// saveTempFile writes the upload into a fresh temp directory and returns its
// path. The ingestion job owns the file from here on.
func (h *ModelHandlerImpl) saveTempFile(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir, err := os.MkdirTemp(h.tempDir, "upload-")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, sanitizeFilename(file.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// HandleJobStatus returns the pollable state of the session's current job.
// Stale or unknown job ids are not found, indistinguishably.
func (h *ModelHandlerImpl) HandleJobStatus(c echo.Context) error {
	jobID := c.Param("jobId")
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return NewValidationError("session_id")
	}

	state, ok := h.jobs.Poll(sessionID, jobID)
	if !ok {
		return NewNotFoundError("job", jobID)
	}

	return c.JSON(http.StatusOK, state)
}

// requireIndex fetches the session and its model index, or fails the way the
// frontend expects: 400 with a pt-BR message.
func (h *ModelHandlerImpl) requireIndex(c echo.Context) (models.Session, *models.ModelIndex, error) {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return models.Session{}, nil, NewValidationError("session_id")
	}

	sess, ok := h.sessions.Get(sessionID)
	if !ok || sess.ModelIndex == nil {
		return models.Session{}, nil, NewBadRequestError("nenhum IFC processado nesta sessão", nil)
	}
	return sess, sess.ModelIndex, nil
}

// HandleModelHeader returns the model file header block
func (h *ModelHandlerImpl) HandleModelHeader(c echo.Context) error {
	_, index, err := h.requireIndex(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, index.Header)
}

// HandleModelVersion returns the model schema/version information
func (h *ModelHandlerImpl) HandleModelVersion(c echo.Context) error {
	_, index, err := h.requireIndex(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, index.Version)
}

// HandleModelUnits returns the model unit assignments
func (h *ModelHandlerImpl) HandleModelUnits(c echo.Context) error {
	_, index, err := h.requireIndex(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, index.Units)
}

// HandleModelSummary returns the hierarchy and entity counts of the model
func (h *ModelHandlerImpl) HandleModelSummary(c echo.Context) error {
	sess, index, err := h.requireIndex(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"hierarchy":      index.Hierarchy,
		"entity_summary": index.EntitySummary,
		"element_count":  index.ElementCount,
		"filename":       sess.Filename,
	})
}

// HandleDeleteSession discards a session and everything it owns
func (h *ModelHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	// Close the issue store before dropping the session.
	h.sessions.Update(id, func(s *models.Session) {
		if s.Report != nil && s.Report.Store != nil {
			s.Report.Store.Close()
		}
	})

	if !h.sessions.Delete(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// sanitizeFilename strips path components so uploads cannot escape tempDir.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == string(os.PathSeparator) {
		name = "upload.ifc"
	}
	return name
}
