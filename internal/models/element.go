package models

// Element is one building element extracted from an IFC model.
// Property values are kept as decoded JSON values: a nil value means the
// property exists in the pset but carries no data, which validation treats
// the same as an absent property.
type Element struct {
	GlobalID   string                    `json:"global_id"`
	StepID     int                       `json:"step_id"`
	EntityType string                    `json:"entity_type"`
	Name       string                    `json:"name"`
	Psets      map[string]map[string]any `json:"psets"`
}

// ModelIndex is the structured index produced by the IFC parsing collaborator.
type ModelIndex struct {
	Header        map[string]any   `json:"header"`
	Version       map[string]any   `json:"version"`
	Units         []map[string]any `json:"units"`
	Georef        map[string]any   `json:"georef"`
	Hierarchy     any              `json:"hierarchy"`
	EntitySummary map[string]int   `json:"entity_summary"`
	ElementCount  int              `json:"element_count"`
	Elements      []Element        `json:"elements"`
}
