package performance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-report-api/internal/models"
)

func TestEnrichKeepsRosterEntriesWithoutAnalytics(t *testing.T) {
	roster := []models.RosterEntry{rosterEntry("1")}

	enriched := Enrich(roster, nil)

	require.Len(t, enriched, 1)
	assert.Equal(t, "1", enriched[0].Student.StudentID)
	assert.False(t, enriched[0].HasAnalytics)

	payload, err := json.Marshal(enriched[0])
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"analytics":null`)
}

func TestEnrichPreservesRosterOrderAndLength(t *testing.T) {
	roster := []models.RosterEntry{rosterEntry("3"), rosterEntry("1"), rosterEntry("2")}
	analytics := []models.Analytics{
		{StudentID: "1", TotalMarks: 50, MaxTotal: 100},
		{StudentID: "2", TotalMarks: 70, MaxTotal: 100},
		{StudentID: "9", TotalMarks: 99, MaxTotal: 100},
	}

	enriched := Enrich(roster, analytics)

	assert.Equal(t, []string{"3", "1", "2"}, ids(enriched))
	assert.False(t, enriched[0].HasAnalytics)
	assert.Equal(t, 50.0, enriched[1].Analytics.TotalMarks)
	assert.Equal(t, 70.0, enriched[2].Analytics.TotalMarks)
	assert.NotNil(t, enriched[1].Analytics.Assignments)
}

func TestEnrichFirstDuplicateWins(t *testing.T) {
	analytics := []models.Analytics{
		{StudentID: "1", TotalMarks: 10, MaxTotal: 100},
		{StudentID: "1", TotalMarks: 90, MaxTotal: 100},
	}

	enriched := Enrich([]models.RosterEntry{rosterEntry("1")}, analytics)

	assert.Equal(t, 10.0, enriched[0].Analytics.TotalMarks)
}

func TestEnrichIgnoresBlankStudentIDs(t *testing.T) {
	entry := rosterEntry("")
	analytics := []models.Analytics{{StudentID: "", TotalMarks: 10, MaxTotal: 100}}

	enriched := Enrich([]models.RosterEntry{entry}, analytics)

	assert.False(t, enriched[0].HasAnalytics)
}

func TestEnrichedStudentJSONRoundTrip(t *testing.T) {
	original := student("7", 45, 50, models.AssignmentReviewed)

	payload, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded models.EnrichedStudent
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, original, decoded)

	var missing models.EnrichedStudent
	require.NoError(t, json.Unmarshal([]byte(`{"id":"r1","student":{"student_id":"8"},"analytics":null}`), &missing))
	assert.False(t, missing.HasAnalytics)
	assert.Equal(t, "8", missing.Student.StudentID)
}

func TestFindStudent(t *testing.T) {
	list := []models.EnrichedStudent{student("1", 1, 2), student("2", 1, 2)}

	found, ok := FindStudent(list, "2")
	require.True(t, ok)
	assert.Equal(t, "2", found.Student.StudentID)

	_, ok = FindStudent(list, "3")
	assert.False(t, ok)
}

func TestScopeRoster(t *testing.T) {
	other := rosterEntry("3")
	other.ProgramCode = "BBA"
	other.SemesterCode = "S2"
	roster := []models.RosterEntry{rosterEntry("1"), other, rosterEntry("2")}

	assert.Len(t, ScopeRoster(roster, "", ""), 3)
	assert.Len(t, ScopeRoster(roster, "bscs", ""), 2)
	assert.Len(t, ScopeRoster(roster, "", "S2"), 1)
	assert.Empty(t, ScopeRoster(roster, "BBA", "S1"))
}
