package performance

import "github.com/noah-isme/performance-report-api/internal/models"

func rosterEntry(id string) models.RosterEntry {
	return models.RosterEntry{
		ID:           "roster-" + id,
		ProgramCode:  "BSCS",
		SemesterCode: "S1",
		Student:      models.Student{StudentID: id, Name: "Student " + id, Username: "user" + id},
	}
}

func student(id string, total, max float64, statuses ...models.AssignmentStatus) models.EnrichedStudent {
	records := make([]models.AssignmentRecord, 0, len(statuses))
	for i, status := range statuses {
		records = append(records, models.AssignmentRecord{Name: "A" + string(rune('1'+i)), Status: status})
	}
	return models.EnrichedStudent{
		RosterEntry:  rosterEntry(id),
		Analytics:    models.Analytics{StudentID: id, TotalMarks: total, MaxTotal: max, Assignments: records},
		HasAnalytics: true,
	}
}

func withoutAnalytics(id string) models.EnrichedStudent {
	return models.EnrichedStudent{RosterEntry: rosterEntry(id)}
}

func ids(list []models.EnrichedStudent) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Student.StudentID)
	}
	return out
}
