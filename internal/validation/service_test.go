package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifc-analysis/backend/internal/models"
	"github.com/ifc-analysis/backend/internal/rules"
	"github.com/ifc-analysis/backend/internal/session"
	"github.com/ifc-analysis/backend/internal/spreadsheet"
)

type fakeReader struct {
	table *spreadsheet.Table
	err   error
}

func (f fakeReader) Read(data []byte) (*spreadsheet.Table, error) {
	return f.table, f.err
}

func ruleTable(rows ...map[string]any) *spreadsheet.Table {
	return &spreadsheet.Table{
		Headers: append(rules.RequiredColumns(), rules.StageColumns...),
		Rows:    rows,
	}
}

func ruleRow(discipline, category, pset, property string, stages map[string]string) map[string]any {
	row := map[string]any{
		rules.ColDiscipline: discipline,
		rules.ColCategory:   category,
		rules.ColPset:       pset,
		rules.ColProperty:   property,
	}
	for col, expected := range stages {
		row[col] = expected
	}
	return row
}

func seededSession(t *testing.T, store *session.Store, filename string) string {
	t.Helper()
	id := store.Create()
	ok := store.Update(id, func(sess *models.Session) {
		sess.Filename = filename
		sess.ModelIndex = &models.ModelIndex{
			Elements: []models.Element{
				{
					GlobalID: "g1", StepID: 1, EntityType: "IfcWall", Name: "W1",
					Psets: map[string]map[string]any{"Pset_WallCommon": {"FireRating": "120min"}},
				},
			},
			ElementCount: 1,
		}
	})
	require.True(t, ok)
	return id
}

func TestRunValidationHappyPath(t *testing.T) {
	store := session.NewStore(time.Hour)
	id := seededSession(t, store, "VG076-GAS-COB01.ifc")

	reader := fakeReader{table: ruleTable(
		ruleRow("GAS", "IfcWall", "Pset_WallCommon", "FireRating", map[string]string{"COB": "[60min, 120min]"}),
	)}
	svc := NewService(store, reader, "")

	report, err := svc.RunValidation(id, []byte("unused"), "regras.xlsx")
	require.NoError(t, err)

	assert.Equal(t, "GAS", report.Discipline)
	assert.Equal(t, "COB", report.Stage)
	assert.Equal(t, "VG076-GAS-COB01.ifc", report.ModelFilename)
	assert.Equal(t, "regras.xlsx", report.SheetFilename)
	assert.Equal(t, 1, report.RulesCount)
	assert.Equal(t, 100.0, report.Summary.PercentConforme)

	sess, ok := store.Get(id)
	require.True(t, ok)
	assert.Same(t, report, sess.Report)
}

func TestRunValidationReplacesPreviousReport(t *testing.T) {
	store := session.NewStore(time.Hour)
	id := seededSession(t, store, "VG076-GAS-COB01.ifc")

	reader := fakeReader{table: ruleTable(
		ruleRow("GAS", "IfcWall", "Pset_WallCommon", "FireRating", map[string]string{"COB": "SIM"}),
	)}
	svc := NewService(store, reader, t.TempDir())

	first, err := svc.RunValidation(id, nil, "v1.xlsx")
	require.NoError(t, err)
	require.NotNil(t, first.Store)

	second, err := svc.RunValidation(id, nil, "v2.xlsx")
	require.NoError(t, err)

	sess, _ := store.Get(id)
	assert.Same(t, second, sess.Report)

	// The first report's store was closed; its DB file is gone and further
	// queries fail.
	_, _, err = first.Store.Query("", "", 1, 10)
	assert.Error(t, err)
}

func TestRunValidationRequiresProcessedModel(t *testing.T) {
	store := session.NewStore(time.Hour)
	svc := NewService(store, fakeReader{}, "")

	_, err := svc.RunValidation("missing", nil, "x.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nenhum IFC processado")

	// Session exists but has no index yet.
	id := store.Create()
	_, err = svc.RunValidation(id, nil, "x.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nenhum IFC processado")
}

func TestRunValidationBadModelFilename(t *testing.T) {
	store := session.NewStore(time.Hour)
	id := seededSession(t, store, "modelo.ifc")
	svc := NewService(store, fakeReader{}, "")

	_, err := svc.RunValidation(id, nil, "x.xlsx")
	assert.Error(t, err)
}

func TestRunValidationReaderFailure(t *testing.T) {
	store := session.NewStore(time.Hour)
	id := seededSession(t, store, "VG076-GAS-COB01.ifc")
	svc := NewService(store, fakeReader{err: errors.New("corrompido")}, "")

	_, err := svc.RunValidation(id, nil, "x.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "erro ao ler planilha")
}

func TestRunValidationMissingColumns(t *testing.T) {
	store := session.NewStore(time.Hour)
	id := seededSession(t, store, "VG076-GAS-COB01.ifc")

	table := &spreadsheet.Table{Headers: []string{rules.ColDiscipline, rules.ColCategory}}
	svc := NewService(store, fakeReader{table: table}, "")

	_, err := svc.RunValidation(id, nil, "x.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colunas obrigatórias ausentes")
	assert.Contains(t, err.Error(), rules.ColPset)
}

func TestRunValidationNoMatchingRules(t *testing.T) {
	store := session.NewStore(time.Hour)
	id := seededSession(t, store, "VG076-GAS-COB01.ifc")

	// Rule belongs to another discipline entirely.
	reader := fakeReader{table: ruleTable(
		ruleRow("HID", "IfcWall", "Pset_WallCommon", "FireRating", map[string]string{"COB": "SIM"}),
	)}
	svc := NewService(store, reader, "")

	_, err := svc.RunValidation(id, nil, "x.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nenhuma regra encontrada")
}
