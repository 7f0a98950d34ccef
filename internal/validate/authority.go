package validate

import (
	"fmt"
	"sort"

	"github.com/ppiankov/storybias/internal/model"
	"github.com/ppiankov/storybias/internal/reference"
)

// Severity ranks integrity issues
type Severity string

const (
	SeverityWarning  Severity = "warning"  // Data is usable but ambiguous
	SeverityCritical Severity = "critical" // Extraction will fail for affected records
)

// Issue is one data-integrity finding
type Issue struct {
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Subject, i.Message)
}

// Reference cross-checks the reference table, the alias table and the scenarios.
// Issues are returned in a stable order: critical first, then by subject.
func Reference(table *reference.Table, aliases reference.AliasTable, scenarios []model.Scenario) []Issue {
	var issues []Issue

	for _, name := range table.Duplicates() {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Subject:  name,
			Message:  "country appears more than once in the reference table; the first row is used",
		})
	}

	for canonical := range aliases {
		if !table.Has(canonical) {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Subject:  canonical,
				Message:  "alias entry has no matching country in the reference table",
			})
		}
	}

	missing := make(map[string][]int)
	for idx, s := range scenarios {
		if err := Scenario(s); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityCritical,
				Subject:  fmt.Sprintf("scenario %d", idx),
				Message:  err.Error(),
			})
			continue
		}
		names := append([]string{s.Location}, s.Origins[:]...)
		for _, name := range names {
			if !table.Has(name) {
				missing[name] = appendUnique(missing[name], idx)
			}
		}
	}
	for name, idxs := range missing {
		issues = append(issues, Issue{
			Severity: SeverityCritical,
			Subject:  name,
			Message:  fmt.Sprintf("country used by %d scenario(s) (first: %d) is missing from the reference table", len(idxs), idxs[0]),
		})
	}

	sort.SliceStable(issues, func(a, b int) bool {
		if issues[a].Severity != issues[b].Severity {
			return issues[a].Severity == SeverityCritical
		}
		return issues[a].Subject < issues[b].Subject
	})

	return issues
}

// HasCritical reports whether any issue is critical
func HasCritical(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

func appendUnique(list []int, v int) []int {
	if n := len(list); n > 0 && list[n-1] == v {
		return list
	}
	return append(list, v)
}
