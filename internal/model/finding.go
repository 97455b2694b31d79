package model

import "fmt"

// Category names the kind of review finding.
type Category string

const (
	CategoryModified   Category = "modified"
	CategoryMissingDim Category = "missing_dim"
	CategoryMissingTol Category = "missing_tol"
)

// Categories lists finding categories in display order.
var Categories = []Category{CategoryMissingDim, CategoryMissingTol, CategoryModified}

// ParseCategory accepts both the short names and the review payload keys.
func ParseCategory(s string) (Category, error) {
	switch s {
	case string(CategoryModified), "modified_values":
		return CategoryModified, nil
	case string(CategoryMissingDim), "missing_dimensions":
		return CategoryMissingDim, nil
	case string(CategoryMissingTol), "missing_tolerances":
		return CategoryMissingTol, nil
	}
	return "", fmt.Errorf("unknown finding category %q", s)
}

// Finding is one discrepancy reported by the review pass. It has no
// coordinate and no balloon reference.
//
// Missing-dimension and missing-tolerance findings use Value and Type;
// modified-value findings use MasterValue and CheckValue.
type Finding struct {
	Location    string `json:"location"`
	Description string `json:"description"`
	Value       Value  `json:"value"`
	Type        string `json:"type,omitempty"`
	MasterValue Value  `json:"master_value"`
	CheckValue  Value  `json:"check_value"`
}

// SearchValue returns the value used to look the finding up.
func (f Finding) SearchValue(c Category) Value {
	if c == CategoryModified {
		return f.MasterValue
	}
	return f.Value
}

// ReviewResult is the output of the review pass.
type ReviewResult struct {
	MissingDimensions []Finding `json:"missing_dimensions"`
	MissingTolerances []Finding `json:"missing_tolerances"`
	ModifiedValues    []Finding `json:"modified_values"`
	Summary           string    `json:"summary,omitempty"`
}

// Findings returns the findings of one category.
func (r *ReviewResult) Findings(c Category) []Finding {
	if r == nil {
		return nil
	}
	switch c {
	case CategoryModified:
		return r.ModifiedValues
	case CategoryMissingDim:
		return r.MissingDimensions
	case CategoryMissingTol:
		return r.MissingTolerances
	}
	return nil
}

// Finding looks up a finding by category and index.
func (r *ReviewResult) Finding(c Category, index int) (Finding, bool) {
	list := r.Findings(c)
	if index < 0 || index >= len(list) {
		return Finding{}, false
	}
	return list[index], true
}

// Count returns the number of findings across all categories.
func (r *ReviewResult) Count() int {
	if r == nil {
		return 0
	}
	return len(r.MissingDimensions) + len(r.MissingTolerances) + len(r.ModifiedValues)
}
