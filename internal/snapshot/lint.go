package snapshot

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hpungsan/objdb/internal/schema"
)

// Finding codes reported by Lint.
const (
	FindingUndefinedCategory = "undefined_category"
	FindingMissingName       = "missing_name"
	FindingDuplicateFieldID  = "duplicate_field_id"
)

// Finding is one lint observation about an entry. Findings never block an
// import; the document format allows all of them.
type Finding struct {
	Object  string `json:"object" yaml:"object"`
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// LintResult contains the results of linting a registry.
type LintResult struct {
	Clean               bool      `json:"clean" yaml:"clean"`
	UndefinedCategories []int     `json:"undefined_categories,omitempty" yaml:"undefined_categories,omitempty"`
	Findings            []Finding `json:"findings,omitempty" yaml:"findings,omitempty"`
}

// Lint reports entries that point at categories the registry doesn't define,
// entries without a display name and repeated field ids within one entry.
func Lint(reg *schema.Registry) *LintResult {
	defined := make(map[int]bool, reg.CategoryCount())
	for _, c := range reg.Categories() {
		defined[c.ID] = true
	}

	result := &LintResult{}
	undefined := map[int]bool{}
	for _, e := range reg.Entries() {
		if !defined[e.Category] {
			undefined[e.Category] = true
			result.add(e.ID, FindingUndefinedCategory,
				fmt.Sprintf("category %d is not defined", e.Category))
		}
		if strings.TrimSpace(e.Name) == "" {
			result.add(e.ID, FindingMissingName, "object has no name")
		}
		seen := map[int]bool{}
		for _, f := range e.Fields {
			if seen[f.ID] {
				result.add(e.ID, FindingDuplicateFieldID,
					fmt.Sprintf("field id %d appears more than once", f.ID))
			}
			seen[f.ID] = true
		}
	}

	for id := range undefined {
		result.UndefinedCategories = append(result.UndefinedCategories, id)
	}
	slices.Sort(result.UndefinedCategories)
	result.Clean = len(result.Findings) == 0
	return result
}

func (r *LintResult) add(object, code, msg string) {
	r.Findings = append(r.Findings, Finding{Object: object, Code: code, Message: msg})
}
