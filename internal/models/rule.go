package models

// Rule is one validation rule derived from a spreadsheet row. Expected holds
// the raw cell text for the target stage column, already trimmed.
type Rule struct {
	Category string `json:"category"`
	Pset     string `json:"pset"`
	Property string `json:"property"`
	Expected string `json:"expected"`
}

// PredicateType classifies how a rule's expected text is interpreted.
type PredicateType string

const (
	PredicateIgnore PredicateType = "ignore"
	PredicateExists PredicateType = "exists"
	PredicateList   PredicateType = "list"
	PredicateExact  PredicateType = "exact"
)

// Predicate is the parsed form of a rule's expected value. Values is only
// populated for list predicates.
type Predicate struct {
	Type   PredicateType `json:"type"`
	Values []string      `json:"values"`
}
