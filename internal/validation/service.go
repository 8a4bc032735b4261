package validation

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ifc-analysis/backend/internal/models"
	"github.com/ifc-analysis/backend/internal/rules"
	"github.com/ifc-analysis/backend/internal/session"
	"github.com/ifc-analysis/backend/internal/spreadsheet"
)

// Service runs the full validation pipeline for a session: spreadsheet
// decoding, rule derivation from the session's model filename, element
// evaluation and wholesale replacement of the session's report.
type Service struct {
	sessions *session.Store
	reader   spreadsheet.Reader

	// tempDir, when set, enables the DuckDB issue store for each report.
	tempDir string
}

// NewService creates a validation service. An empty tempDir disables the
// DuckDB issue store; queries then filter the in-memory issue slice.
func NewService(sessions *session.Store, reader spreadsheet.Reader, tempDir string) *Service {
	return &Service{sessions: sessions, reader: reader, tempDir: tempDir}
}

// RunValidation validates the session's model elements against the rules in
// the uploaded spreadsheet and stores the resulting report on the session,
// replacing any previous one. All failures are input-validation errors
// surfaced synchronously; nothing partial is stored.
func (s *Service) RunValidation(sessionID string, sheetData []byte, sheetFilename string) (*models.Report, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok || sess.ModelIndex == nil {
		return nil, fmt.Errorf("nenhum IFC processado nesta sessão; carregue um IFC primeiro")
	}

	discipline, stage, err := rules.ExtractDisciplineStage(sess.Filename)
	if err != nil {
		return nil, err
	}

	table, err := s.reader.Read(sheetData)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler planilha: %w", err)
	}

	if missing := table.MissingColumns(rules.RequiredColumns()); len(missing) > 0 {
		return nil, fmt.Errorf("colunas obrigatórias ausentes na planilha: %s",
			strings.Join(missing, ", "))
	}

	ruleSet, err := rules.ParseRules(table.Rows, discipline, stage)
	if err != nil {
		return nil, err
	}
	if len(ruleSet) == 0 {
		return nil, fmt.Errorf("nenhuma regra encontrada para disciplina %q e etapa %q",
			discipline, stage)
	}

	report := Run(sess.ModelIndex.Elements, ruleSet)
	report.Discipline = discipline
	report.Stage = stage
	report.ModelFilename = sess.Filename
	report.SheetFilename = sheetFilename
	report.RulesCount = len(ruleSet)

	if s.tempDir != "" {
		store, err := NewIssueStore(s.tempDir, sessionID, report.Issues)
		if err != nil {
			// Queries fall back to the in-memory slice.
			log.Warn().Err(err).Str("session", sessionID).Msg("issue store unavailable")
		} else {
			report.Store = store
		}
	}

	ok = s.sessions.Update(sessionID, func(sess *models.Session) {
		if sess.Report != nil && sess.Report.Store != nil {
			sess.Report.Store.Close()
		}
		sess.Report = report
	})
	if !ok {
		if report.Store != nil {
			report.Store.Close()
		}
		return nil, fmt.Errorf("sessão não encontrada")
	}

	log.Info().
		Str("session", sessionID).
		Str("discipline", discipline).
		Str("stage", stage).
		Int("rules", len(ruleSet)).
		Int("elements", report.Summary.TotalEvaluatedElements).
		Int("issues", len(report.Issues)).
		Msg("validation complete")

	return report, nil
}
