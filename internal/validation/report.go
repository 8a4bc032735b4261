package validation

import (
	"fmt"

	"github.com/ifc-analysis/backend/internal/models"
)

// IssueQuery selects a page of nonconformity issues. Entity and Reason are
// exact-match filters, combined with AND; empty filters match everything.
// Page is 1-indexed.
type IssueQuery struct {
	Entity   string
	Reason   string
	Page     int
	PageSize int
}

// IssuePage is one page of filtered issues plus paging metadata.
type IssuePage struct {
	Total      int                       `json:"total"`
	Page       int                       `json:"page"`
	PageSize   int                       `json:"page_size"`
	TotalPages int                       `json:"total_pages"`
	Issues     []models.ValidationResult `json:"issues"`
}

// QueryIssues answers an issue query against the report, using its DuckDB
// store when present and the in-memory slice otherwise. A page beyond the
// last returns an empty slice, not an error.
func QueryIssues(report *models.Report, q IssueQuery) (*IssuePage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 50
	}

	var (
		issues []models.ValidationResult
		total  int
	)

	if report.Store != nil {
		var err error
		issues, total, err = report.Store.Query(q.Entity, q.Reason, q.Page, q.PageSize)
		if err != nil {
			return nil, fmt.Errorf("querying issue store: %w", err)
		}
	} else {
		issues, total = filterIssues(report.Issues, q)
	}

	if issues == nil {
		issues = []models.ValidationResult{}
	}

	return &IssuePage{
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: (total + q.PageSize - 1) / q.PageSize,
		Issues:     issues,
	}, nil
}

func filterIssues(all []models.ValidationResult, q IssueQuery) ([]models.ValidationResult, int) {
	filtered := all
	if q.Entity != "" || q.Reason != "" {
		filtered = make([]models.ValidationResult, 0, len(all))
		for _, issue := range all {
			if q.Entity != "" && issue.EntityType != q.Entity {
				continue
			}
			if q.Reason != "" && issue.Reason != q.Reason {
				continue
			}
			filtered = append(filtered, issue)
		}
	}

	total := len(filtered)
	start := (q.Page - 1) * q.PageSize
	if start >= total {
		return nil, total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return filtered[start:end], total
}

// ExportColumns is the stable column order of the tabular issue export.
var ExportColumns = []string{
	"global_id", "step_id", "entity_type", "name", "pset", "property",
	"expected", "actual", "reason",
}

// ExportRows shapes the report's full issue list into rows matching
// ExportColumns. The header row is not included.
func ExportRows(report *models.Report) [][]string {
	rows := make([][]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		actual := ""
		if issue.Actual != nil {
			actual = *issue.Actual
		}
		rows = append(rows, []string{
			issue.GlobalID,
			fmt.Sprintf("%d", issue.StepID),
			issue.EntityType,
			issue.Name,
			issue.Pset,
			issue.Property,
			issue.Expected,
			actual,
			issue.Reason,
		})
	}
	return rows
}

// ExportFilename names the issue export for download.
func ExportFilename(report *models.Report, ext string) string {
	return fmt.Sprintf("nao_conformidades_%s_%s.%s", report.Discipline, report.Stage, ext)
}
