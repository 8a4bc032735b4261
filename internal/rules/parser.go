// Package rules derives validation rules from the model filename and the
// uploaded requirement spreadsheet.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ifc-analysis/backend/internal/models"
)

// Spreadsheet column names the rule parser depends on.
const (
	ColDiscipline = "DISCIPLINA CATEGORIZADA"
	ColCategory   = "CATEGORIA IFC"
	ColPset       = "Pset"
	ColProperty   = "PROPRIEDADE IFC"
)

// StageColumns are the recognized stage codes, each doubling as the
// spreadsheet column holding the expected values for that stage.
var StageColumns = []string{"EMB", "TOR", "DPX", "COB", "AC", "FAC"}

// RequiredColumns returns the headers a rule spreadsheet must contain.
func RequiredColumns() []string {
	return []string{ColDiscipline, ColCategory, ColPset, ColProperty}
}

// Bracketed list syntax: [A, B, C] with an optional trailing label like
// "(Opção B)".
var listPattern = regexp.MustCompile(`^\[(.+?)\](?:\s*\(.+?\))?$`)

// ExtractDisciplineStage pulls the discipline code (chars 7-9, 1-indexed) and
// the stage code (chars 11-13) out of the model filename, after stripping the
// extension. Example: VG076-GAS-COB01.ifc -> ("GAS", "COB").
func ExtractDisciplineStage(filename string) (discipline, stage string, err error) {
	base := filename
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}

	runes := []rune(base)
	if len(runes) < 13 {
		return "", "", fmt.Errorf(
			"nome de arquivo fora do padrão esperado: %q: o nome deve ter ao menos 13 caracteres para extrair disciplina (7-9) e etapa (11-13)",
			filename)
	}

	return string(runes[6:9]), string(runes[10:13]), nil
}

// ParseRules filters spreadsheet rows down to the rules for the given
// discipline and stage. Discipline matching is exact and case-sensitive;
// stage validation is case-insensitive against StageColumns. Rows missing a
// category, pset or property are skipped.
func ParseRules(rows []map[string]any, discipline, stage string) ([]models.Rule, error) {
	stageCol := strings.ToUpper(stage)
	if !validStage(stageCol) {
		return nil, fmt.Errorf("etapa %q não reconhecida; etapas válidas: %s",
			stage, strings.Join(StageColumns, ", "))
	}

	var parsed []models.Rule
	for _, row := range rows {
		if strings.TrimSpace(cellString(row[ColDiscipline])) != discipline {
			continue
		}

		category := strings.TrimSpace(cellString(row[ColCategory]))
		pset := strings.TrimSpace(cellString(row[ColPset]))
		property := strings.TrimSpace(cellString(row[ColProperty]))
		if category == "" || pset == "" || property == "" {
			continue
		}

		parsed = append(parsed, models.Rule{
			Category: category,
			Pset:     pset,
			Property: property,
			Expected: strings.TrimSpace(cellString(row[stageCol])),
		})
	}

	return parsed, nil
}

// ParsePredicate interprets a rule's expected text. Precedence: empty or
// "NÃO SE APLICA" ignores the rule, "SIM" requires mere existence, bracketed
// or comma-separated text builds a list of acceptable literals, anything else
// is an exact match.
func ParsePredicate(expected string) models.Predicate {
	trimmed := strings.TrimSpace(expected)

	if trimmed == "" || strings.EqualFold(trimmed, "NÃO SE APLICA") {
		return models.Predicate{Type: models.PredicateIgnore}
	}

	if strings.EqualFold(trimmed, "SIM") {
		return models.Predicate{Type: models.PredicateExists}
	}

	if m := listPattern.FindStringSubmatch(trimmed); m != nil {
		return models.Predicate{Type: models.PredicateList, Values: splitTrim(m[1])}
	}

	if strings.Contains(expected, ",") && !strings.HasPrefix(expected, "[") {
		if items := splitTrim(expected); len(items) > 1 {
			return models.Predicate{Type: models.PredicateList, Values: items}
		}
	}

	return models.Predicate{Type: models.PredicateExact, Values: []string{expected}}
}

func validStage(stage string) bool {
	for _, s := range StageColumns {
		if s == stage {
			return true
		}
	}
	return false
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	items := make([]string, len(parts))
	for i, p := range parts {
		items[i] = strings.TrimSpace(p)
	}
	return items
}

// cellString renders a spreadsheet cell the way the rule parser sees it: nil
// cells become empty strings, everything else its default formatting.
func cellString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
