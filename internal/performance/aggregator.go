// Package performance joins roster and analytics collections and derives the
// statistics and filters shown on performance dashboards and exported reports.
//
// Every function here is pure and tolerant of missing data: absent analytics,
// empty assignment lists and zero denominators all yield zero-valued results.
package performance

import (
	"strings"

	"github.com/noah-isme/performance-report-api/internal/models"
)

// Enrich attaches analytics to each roster entry by student id. The result has the
// same length and order as roster. When analytics holds duplicates for a student the
// first record wins; entries without a match keep HasAnalytics=false.
func Enrich(roster []models.RosterEntry, analytics []models.Analytics) []models.EnrichedStudent {
	index := make(map[string]int, len(analytics))
	for i, record := range analytics {
		if record.StudentID == "" {
			continue
		}
		if _, seen := index[record.StudentID]; !seen {
			index[record.StudentID] = i
		}
	}

	enriched := make([]models.EnrichedStudent, len(roster))
	for i, entry := range roster {
		enriched[i] = models.EnrichedStudent{RosterEntry: entry}
		j, ok := index[entry.Student.StudentID]
		if !ok || entry.Student.StudentID == "" {
			continue
		}
		record := analytics[j]
		if record.Assignments == nil {
			record.Assignments = []models.AssignmentRecord{}
		}
		enriched[i].Analytics = record
		enriched[i].HasAnalytics = true
	}
	return enriched
}

// FindStudent returns the enriched entry for studentID.
func FindStudent(list []models.EnrichedStudent, studentID string) (models.EnrichedStudent, bool) {
	for _, e := range list {
		if e.Student.StudentID == studentID {
			return e, true
		}
	}
	return models.EnrichedStudent{}, false
}

// ScopeRoster keeps entries enrolled in the given program and semester. Blank codes
// do not restrict.
func ScopeRoster(roster []models.RosterEntry, programCode, semesterCode string) []models.RosterEntry {
	if programCode == "" && semesterCode == "" {
		return roster
	}
	scoped := make([]models.RosterEntry, 0, len(roster))
	for _, entry := range roster {
		if programCode != "" && !strings.EqualFold(entry.ProgramCode, programCode) {
			continue
		}
		if semesterCode != "" && !strings.EqualFold(entry.SemesterCode, semesterCode) {
			continue
		}
		scoped = append(scoped, entry)
	}
	return scoped
}
