package models

// Verdict states for a single (element, rule) evaluation. The strings match
// the report wire format consumed by the frontend, which is pt-BR.
const (
	StatusConforme    = "Conforme"
	StatusNaoConforme = "Não Conforme"
	StatusIgnorado    = "Ignorado"
)

// Nonconformity reasons.
const (
	ReasonPsetAusente     = "Pset ausente"
	ReasonPropAusente     = "Propriedade ausente"
	ReasonValorAusente    = "Valor ausente"
	ReasonForaDaLista     = "Fora da lista permitida"
	ReasonValorDivergente = "Valor divergente"
)

// ValidationResult is the verdict for one element against one rule.
// Actual is nil when the pset or property was absent, or when the rule was
// ignored entirely.
type ValidationResult struct {
	GlobalID   string  `json:"global_id"`
	StepID     int     `json:"step_id"`
	EntityType string  `json:"entity_type"`
	Name       string  `json:"name"`
	Pset       string  `json:"pset"`
	Property   string  `json:"property"`
	Expected   string  `json:"expected"`
	Actual     *string `json:"actual"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason"`
}

// GroupCount aggregates verdicts within one group-by bucket.
type GroupCount struct {
	Total       int `json:"total"`
	Conforme    int `json:"conforme"`
	NaoConforme int `json:"nao_conforme"`
}

// Summary holds the report-level statistics. Element counts are over unique
// global ids with at least one non-ignored result.
type Summary struct {
	TotalEvaluatedElements   int     `json:"total_evaluated_elements"`
	TotalConformeElements    int     `json:"total_conforme_elements"`
	TotalNaoConformeElements int     `json:"total_nao_conforme_elements"`
	PercentConforme          float64 `json:"percent_conforme"`
	TotalRulesApplied        int     `json:"total_rules_applied"`
	TotalConformes           int     `json:"total_conformes"`
	TotalNaoConformes        int     `json:"total_nao_conformes"`
}

// IssueSource serves filtered, paginated issue queries for a report. The
// DuckDB-backed store implements it; when a report carries none, callers fall
// back to filtering the in-memory issue slice.
type IssueSource interface {
	Query(entity, reason string, page, pageSize int) (issues []ValidationResult, total int, err error)
	Close() error
}

// Report owns the full result list of one validation run plus its derived
// aggregates. It is replaced wholesale on the next run, never merged.
type Report struct {
	Discipline    string `json:"discipline"`
	Stage         string `json:"stage"`
	ModelFilename string `json:"ifc_filename"`
	SheetFilename string `json:"excel_filename"`
	RulesCount    int    `json:"rules_count"`

	Summary    Summary                `json:"summary"`
	ByEntity   map[string]*GroupCount `json:"by_entity"`
	ByProperty map[string]*GroupCount `json:"by_property"`
	ByReason   map[string]int         `json:"by_reason"`

	// Issues are the Não Conforme results only, in evaluation order.
	Issues     []ValidationResult `json:"issues"`
	AllResults []ValidationResult `json:"-"`

	// Store, when non-nil, answers issue queries from DuckDB instead of the
	// in-memory slice. Closed when the report is replaced.
	Store IssueSource `json:"-"`
}
