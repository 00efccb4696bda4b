package service

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/internal/performance"
	"github.com/noah-isme/performance-report-api/pkg/export"
)

func sampleCohort() *models.Cohort {
	return &models.Cohort{
		Selection: models.CohortSelection{GroupID: "g-1"},
		Students:  performance.Enrich(sampleRoster(), sampleAnalytics()),
	}
}

func TestPerformanceHeadersFollowOptions(t *testing.T) {
	base := []string{"#", "Total Marks", "Max Marks", "Percentage", "Completed", "Assignments", "Completion Rate", "Category"}
	assert.Equal(t, base, PerformanceHeaders(models.ReportOptions{}))

	withDetails := PerformanceHeaders(models.ReportOptions{IncludeStudentDetails: true})
	assert.Equal(t, []string{"#", "Student ID", "Name", "Username", "Program", "Semester"}, withDetails[:6])
	assert.Len(t, withDetails, len(base)+5)

	withBreakdown := PerformanceHeaders(models.ReportOptions{IncludeAssignmentBreakdown: true})
	assert.Equal(t, "Assignment Breakdown", withBreakdown[len(withBreakdown)-1])
	assert.Len(t, withBreakdown, len(base)+1)
}

func TestPerformanceColumnKindsMarkIdentityAsText(t *testing.T) {
	opts := models.ReportOptions{IncludeStudentDetails: true, IncludeAssignmentBreakdown: true}
	headers := PerformanceHeaders(opts)
	kinds := PerformanceColumnKinds(opts)
	require.Len(t, kinds, len(headers))

	text := map[string]bool{}
	for i, h := range headers {
		text[h] = kinds[i] == export.ColumnText
	}
	for _, h := range []string{"Student ID", "Name", "Username", "Program", "Semester", "Category", "Assignment Breakdown"} {
		assert.True(t, text[h], h)
	}
	for _, h := range []string{"#", "Total Marks", "Percentage", "Completion Rate"} {
		assert.False(t, text[h], h)
	}
	assert.Len(t, PerformanceColumnKinds(models.ReportOptions{}), len(PerformanceHeaders(models.ReportOptions{})))

	dataset := BuildPerformanceDataset(sampleCohort(), models.ReportJobParams{Options: opts}, time.Now())
	require.NoError(t, dataset.Validate())
	assert.Equal(t, kinds, dataset.Kinds)
}

func TestPerformanceRowValues(t *testing.T) {
	cohort := sampleCohort()
	opts := models.ReportOptions{IncludeStudentDetails: true, IncludeAssignmentBreakdown: true}

	row := PerformanceRow(2, cohort.Students[1], opts)
	assert.Equal(t, []string{
		"2", "2", "Bo", "u2", "BSCS", "S1",
		"72", "100", "72.0", "1", "2", "50%", "Average",
		"A1: 40 (reviewed); A2: - (not submitted)",
	}, row)
	assert.Len(t, row, len(PerformanceHeaders(opts)))

	missing := PerformanceRow(3, cohort.Students[2], models.ReportOptions{})
	assert.Equal(t, []string{"3", "0", "0", "0.0", "0", "0", "0%", "Poor"}, missing)
}

func TestBuildPerformanceDatasetAppliesFilter(t *testing.T) {
	params := models.ReportJobParams{
		Selection: models.CohortSelection{GroupID: "g-1"},
		GroupName: "Group A",
		Filter:    models.ReportFilter{AssignmentStatus: "reviewed"},
		Format:    models.ReportFormatCSV,
	}
	data := BuildPerformanceDataset(sampleCohort(), params, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	require.NoError(t, data.Validate())
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "1", data.Rows[0][0])
	assert.Equal(t, "2", data.Rows[1][0])
	assert.Equal(t, "Performance Report - Group A", data.Title)

	labels := map[string]string{}
	for _, line := range data.Summary {
		labels[line.Label] = line.Value
	}
	assert.Equal(t, "2 of 3", labels["Students"])
	assert.Equal(t, "Assignment status: reviewed", labels["Filters"])
	assert.Equal(t, "2026-05-04 09:00 UTC", labels["Generated"])
}

func TestBuildStudentDataset(t *testing.T) {
	cohort := sampleCohort()
	data := BuildStudentDataset(cohort.Students[1], models.ReportJobParams{
		Selection: models.CohortSelection{GroupID: "g-1"},
		Options:   models.ReportOptions{IncludeStudentDetails: true},
	}, time.Now())

	require.NoError(t, data.Validate())
	assert.Equal(t, []string{"#", "Assignment", "Marks", "Status"}, data.Headers)
	assert.Equal(t, [][]string{{"1", "A1", "40", "reviewed"}, {"2", "A2", "-", "not submitted"}}, data.Rows)
	assert.Equal(t, "Student Report - Bo", data.Title)

	labels := map[string]string{}
	for _, line := range data.Summary {
		labels[line.Label] = line.Value
	}
	assert.Equal(t, "u2", labels["Username"])
	assert.Equal(t, "1 of 2 (50%)", labels["Completion"])
	assert.Equal(t, "72.0%", labels["Percentage"])
}

func TestReportFilename(t *testing.T) {
	date := time.Date(2026, 1, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "performance_report_Group_A_2026-01-09.xlsx",
		ReportFilename(models.ReportTypePerformance, "Group  A", models.ReportFormatSpreadsheet, date))
	assert.Equal(t, "student_report_Ada_Lovelace_2026-01-09.pdf",
		ReportFilename(models.ReportTypeStudent, " Ada / Lovelace ", models.ReportFormatPDF, date))
	assert.Equal(t, "performance_report_report_2026-01-09.csv",
		ReportFilename(models.ReportTypePerformance, "../..", models.ReportFormatCSV, date))
	assert.Equal(t, "student_report_José_Núñez_2026-01-09.pdf",
		ReportFilename(models.ReportTypeStudent, "José Núñez", models.ReportFormatPDF, date))
	assert.Equal(t, "performance_report_Группа_7_2026-01-09.csv",
		ReportFilename(models.ReportTypePerformance, "Группа 7", models.ReportFormatCSV, date))
	assert.Equal(t, "performance_report_数学班_2026-01-09.csv",
		ReportFilename(models.ReportTypePerformance, "数学班", models.ReportFormatCSV, date))
}

func TestReportFilenameUsesUTCDate(t *testing.T) {
	local := time.FixedZone("UTC+9", 9*60*60)
	late := time.Date(2026, 1, 10, 1, 30, 0, 0, local)
	assert.Equal(t, "performance_report_Group_A_2026-01-09.csv",
		ReportFilename(models.ReportTypePerformance, "Group A", models.ReportFormatCSV, late))
}

func TestSanitizeFilenameCapsRunes(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "é"
	}
	cleaned := sanitizeFilename(long)
	assert.Equal(t, 80, len([]rune(cleaned)))
	assert.True(t, utf8.ValidString(cleaned))
}
