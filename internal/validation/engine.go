// Package validation evaluates model elements against spreadsheet-derived
// rules and aggregates the verdicts into a report.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/ifc-analysis/backend/internal/models"
	"github.com/ifc-analysis/backend/internal/rules"
)

// EvaluateElement runs every rule whose category matches the element's entity
// type and returns one verdict per applied rule. Rules for other categories
// produce no result at all.
func EvaluateElement(el models.Element, ruleSet []models.Rule) []models.ValidationResult {
	var results []models.ValidationResult

	for _, rule := range ruleSet {
		if rule.Category != el.EntityType {
			continue
		}

		res := models.ValidationResult{
			GlobalID:   el.GlobalID,
			StepID:     el.StepID,
			EntityType: el.EntityType,
			Name:       el.Name,
			Pset:       rule.Pset,
			Property:   rule.Property,
			Expected:   rule.Expected,
		}

		predicate := rules.ParsePredicate(rule.Expected)
		if predicate.Type == models.PredicateIgnore {
			res.Status = models.StatusIgnorado
			results = append(results, res)
			continue
		}

		psetData, ok := el.Psets[rule.Pset]
		if !ok || psetData == nil {
			res.Status = models.StatusNaoConforme
			res.Reason = models.ReasonPsetAusente
			results = append(results, res)
			continue
		}

		raw, ok := psetData[rule.Property]
		if !ok || raw == nil {
			res.Status = models.StatusNaoConforme
			res.Reason = models.ReasonPropAusente
			results = append(results, res)
			continue
		}

		actual := strings.TrimSpace(stringifyValue(raw))
		res.Actual = &actual

		switch predicate.Type {
		case models.PredicateExists:
			if actual == "" || strings.EqualFold(actual, "none") {
				res.Status = models.StatusNaoConforme
				res.Reason = models.ReasonValorAusente
			} else {
				res.Status = models.StatusConforme
			}
		case models.PredicateList:
			if containsExact(predicate.Values, actual) {
				res.Status = models.StatusConforme
			} else {
				res.Status = models.StatusNaoConforme
				res.Reason = models.ReasonForaDaLista
			}
		default:
			if actual == rule.Expected {
				res.Status = models.StatusConforme
			} else {
				res.Status = models.StatusNaoConforme
				res.Reason = models.ReasonValorDivergente
			}
		}

		results = append(results, res)
	}

	return results
}

// Run evaluates every element against the rule set and computes the report
// aggregates: per-element conformity, group-bys per entity type, per
// pset.property key and per nonconformity reason, and the global summary.
func Run(elements []models.Element, ruleSet []models.Rule) *models.Report {
	var all []models.ValidationResult
	for _, el := range elements {
		all = append(all, EvaluateElement(el, ruleSet)...)
	}

	report := &models.Report{
		ByEntity:   make(map[string]*models.GroupCount),
		ByProperty: make(map[string]*models.GroupCount),
		ByReason:   make(map[string]int),
		AllResults: all,
	}

	conformeByGUID := make(map[string]bool)
	totalConformes := 0
	totalNaoConformes := 0

	for _, r := range all {
		if r.Status == models.StatusIgnorado {
			continue
		}
		report.Summary.TotalRulesApplied++

		conforme := r.Status == models.StatusConforme
		if conforme {
			totalConformes++
		} else {
			totalNaoConformes++
			report.ByReason[r.Reason]++
			report.Issues = append(report.Issues, r)
		}

		bumpGroup(report.ByEntity, r.EntityType, conforme)
		bumpGroup(report.ByProperty, fmt.Sprintf("%s.%s", r.Pset, r.Property), conforme)

		// An element is conforme overall only if every non-ignored result on
		// it is Conforme. Elements without a global id are not counted.
		if r.GlobalID != "" {
			if prev, seen := conformeByGUID[r.GlobalID]; !seen {
				conformeByGUID[r.GlobalID] = conforme
			} else {
				conformeByGUID[r.GlobalID] = prev && conforme
			}
		}
	}

	evaluated := len(conformeByGUID)
	conformeElements := 0
	for _, ok := range conformeByGUID {
		if ok {
			conformeElements++
		}
	}

	report.Summary.TotalEvaluatedElements = evaluated
	report.Summary.TotalConformeElements = conformeElements
	report.Summary.TotalNaoConformeElements = evaluated - conformeElements
	report.Summary.TotalConformes = totalConformes
	report.Summary.TotalNaoConformes = totalNaoConformes
	report.Summary.PercentConforme = round1(float64(conformeElements) / float64(max(evaluated, 1)) * 100)

	if report.Issues == nil {
		report.Issues = []models.ValidationResult{}
	}

	return report
}

func bumpGroup(groups map[string]*models.GroupCount, key string, conforme bool) {
	g, ok := groups[key]
	if !ok {
		g = &models.GroupCount{}
		groups[key] = g
	}
	g.Total++
	if conforme {
		g.Conforme++
	} else {
		g.NaoConforme++
	}
}

func containsExact(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// stringifyValue renders a decoded property value the way it is compared and
// reported: strings pass through, everything else via default formatting.
func stringifyValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
