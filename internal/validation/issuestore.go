package validation

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog/log"

	"github.com/ifc-analysis/backend/internal/models"
)

// IssueStore keeps one report's nonconformity issues in a temporary DuckDB
// file so that filtered, paginated queries over large reports do not rescan
// the in-memory slice. The store lives exactly as long as its report.
type IssueStore struct {
	db     *sql.DB
	dbPath string
}

// NewIssueStore creates a DuckDB-backed issue store under tempDir and loads
// the given issues into it.
func NewIssueStore(tempDir, sessionID string, issues []models.ValidationResult) (*IssueStore, error) {
	dbPath := filepath.Join(tempDir, fmt.Sprintf("issues_%s.duckdb", sessionID))
	os.Remove(dbPath)

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		_, err := execer.ExecContext(context.Background(), "PRAGMA enable_progress_bar=false", nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE issues (
			id          INTEGER PRIMARY KEY,
			global_id   VARCHAR NOT NULL,
			step_id     INTEGER NOT NULL,
			entity_type VARCHAR NOT NULL,
			name        VARCHAR,
			pset        VARCHAR NOT NULL,
			property    VARCHAR NOT NULL,
			expected    VARCHAR,
			actual      VARCHAR,
			has_actual  BOOLEAN NOT NULL,
			reason      VARCHAR NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, fmt.Errorf("creating issues table: %w", err)
	}

	s := &IssueStore{db: db, dbPath: dbPath}
	if err := s.load(issues); err != nil {
		s.Close()
		return nil, err
	}

	log.Debug().Str("path", dbPath).Int("issues", len(issues)).Msg("issue store ready")
	return s, nil
}

func (s *IssueStore) load(issues []models.ValidationResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO issues (id, global_id, step_id, entity_type, name, pset,
		                    property, expected, actual, has_actual, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, issue := range issues {
		actual := ""
		hasActual := issue.Actual != nil
		if hasActual {
			actual = *issue.Actual
		}
		if _, err := stmt.Exec(i, issue.GlobalID, issue.StepID, issue.EntityType,
			issue.Name, issue.Pset, issue.Property, issue.Expected, actual,
			hasActual, issue.Reason); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting issue %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Query implements models.IssueSource: exact-match entity/reason filters,
// AND-combined, with 1-indexed offset pagination in insertion order.
func (s *IssueStore) Query(entity, reason string, page, pageSize int) ([]models.ValidationResult, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if entity != "" {
		where += " AND entity_type = ?"
		args = append(args, entity)
	}
	if reason != "" {
		where += " AND reason = ?"
		args = append(args, reason)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM issues "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting issues: %w", err)
	}

	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`
		SELECT global_id, step_id, entity_type, name, pset, property,
		       expected, actual, has_actual, reason
		FROM issues %s
		ORDER BY id
		LIMIT %d OFFSET %d
	`, where, pageSize, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	issues := make([]models.ValidationResult, 0, pageSize)
	for rows.Next() {
		var (
			r         models.ValidationResult
			actual    string
			hasActual bool
		)
		if err := rows.Scan(&r.GlobalID, &r.StepID, &r.EntityType, &r.Name,
			&r.Pset, &r.Property, &r.Expected, &actual, &hasActual, &r.Reason); err != nil {
			return nil, 0, fmt.Errorf("scanning issue row: %w", err)
		}
		r.Status = models.StatusNaoConforme
		if hasActual {
			r.Actual = &actual
		}
		issues = append(issues, r)
	}

	return issues, total, rows.Err()
}

// Close shuts the database down and removes its file.
func (s *IssueStore) Close() error {
	err := s.db.Close()
	if rmErr := os.Remove(s.dbPath); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}
