// handlers_validation.go - Spreadsheet validation and report query handlers
package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ifc-analysis/backend/internal/models"
	"github.com/ifc-analysis/backend/internal/validation"
)

// ValidationHandlerImpl implements the ValidationHandler interface
type ValidationHandlerImpl struct {
	sessions  SessionStore
	validator Validator
}

// NewValidationHandler creates a new validation handler instance
func NewValidationHandler(sessions SessionStore, validator Validator) ValidationHandler {
	return &ValidationHandlerImpl{
		sessions:  sessions,
		validator: validator,
	}
}

// HandleUploadSheet accepts the rule spreadsheet and runs validation against
// the session's loaded model, synchronously.
func (h *ValidationHandlerImpl) HandleUploadSheet(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return NewValidationError("session_id")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("nenhum arquivo enviado", err)
	}

	lower := strings.ToLower(file.Filename)
	if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".csv") {
		return NewBadRequestError("apenas arquivos .xlsx ou .csv são aceitos", nil)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("falha ao abrir arquivo enviado", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("falha ao ler arquivo enviado", err)
	}

	report, err := h.validator.RunValidation(sessionID, data, file.Filename)
	if err != nil {
		return NewBadRequestError(err.Error(), nil)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "done",
		"discipline":  report.Discipline,
		"stage":       report.Stage,
		"summary":     report.Summary,
		"rules_count": report.RulesCount,
	})
}

// requireReport fetches the session's validation report or fails with the
// 400 the frontend expects.
func (h *ValidationHandlerImpl) requireReport(c echo.Context) (*models.Report, error) {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return nil, NewValidationError("session_id")
	}

	sess, ok := h.sessions.Get(sessionID)
	if !ok || sess.Report == nil {
		return nil, NewBadRequestError("nenhuma validação executada nesta sessão", nil)
	}
	return sess.Report, nil
}

// HandleSummary returns the report summary plus run metadata
func (h *ValidationHandlerImpl) HandleSummary(c echo.Context) error {
	report, err := h.requireReport(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"summary":        report.Summary,
		"discipline":     report.Discipline,
		"stage":          report.Stage,
		"ifc_filename":   report.ModelFilename,
		"excel_filename": report.SheetFilename,
	})
}

// HandleByEntity returns verdict counts grouped by entity type
func (h *ValidationHandlerImpl) HandleByEntity(c echo.Context) error {
	report, err := h.requireReport(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report.ByEntity)
}

// HandleByProperty returns verdict counts grouped by pset.property
func (h *ValidationHandlerImpl) HandleByProperty(c echo.Context) error {
	report, err := h.requireReport(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report.ByProperty)
}

func issueQueryFromRequest(c echo.Context) (validation.IssueQuery, error) {
	q := validation.IssueQuery{
		Entity:   c.QueryParam("entity"),
		Reason:   c.QueryParam("reason"),
		Page:     1,
		PageSize: 50,
	}

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return q, NewValidationError("page")
		}
		q.Page = page
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > 200 {
			return q, NewValidationError("page_size")
		}
		q.PageSize = size
	}
	return q, nil
}

// HandleIssues returns one page of nonconformity issues, with optional
// entity/reason filters
func (h *ValidationHandlerImpl) HandleIssues(c echo.Context) error {
	report, err := h.requireReport(c)
	if err != nil {
		return err
	}

	q, err := issueQueryFromRequest(c)
	if err != nil {
		return err
	}

	page, err := validation.QueryIssues(report, q)
	if err != nil {
		return NewInternalError("falha ao consultar não conformidades", err)
	}
	return c.JSON(http.StatusOK, page)
}

// HandleIssuesMsgpack returns the same issue page MessagePack-encoded, which
// is considerably smaller than JSON for large reports.
func (h *ValidationHandlerImpl) HandleIssuesMsgpack(c echo.Context) error {
	report, err := h.requireReport(c)
	if err != nil {
		return err
	}

	q, err := issueQueryFromRequest(c)
	if err != nil {
		return err
	}

	page, err := validation.QueryIssues(report, q)
	if err != nil {
		return NewInternalError("falha ao consultar não conformidades", err)
	}

	data, err := msgpack.Marshal(page)
	if err != nil {
		return NewInternalError("falha ao codificar msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleExportCSV streams the full issue list as CSV with a UTF-8 BOM so
// spreadsheet applications pick up the encoding.
func (h *ValidationHandlerImpl) HandleExportCSV(c echo.Context) error {
	report, err := h.requireReport(c)
	if err != nil {
		return err
	}

	filename := validation.ExportFilename(report, "csv")
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().WriteHeader(http.StatusOK)

	if _, err := c.Response().Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	w := csv.NewWriter(c.Response())
	if err := w.Write(validation.ExportColumns); err != nil {
		return err
	}
	for _, row := range validation.ExportRows(report) {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
