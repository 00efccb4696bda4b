package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/internal/performance"
	"github.com/noah-isme/performance-report-api/pkg/export"
)

var (
	identityHeaders = []string{"Student ID", "Name", "Username", "Program", "Semester"}
	metricHeaders   = []string{"Total Marks", "Max Marks", "Percentage", "Completed", "Assignments", "Completion Rate", "Category"}
	breakdownHeader = "Assignment Breakdown"

	unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}\p{M}._\-\s]+`)
)

// PerformanceHeaders returns the export column set for options. Identity columns are
// present iff IncludeStudentDetails and the breakdown column iff
// IncludeAssignmentBreakdown.
func PerformanceHeaders(opts models.ReportOptions) []string {
	headers := []string{"#"}
	if opts.IncludeStudentDetails {
		headers = append(headers, identityHeaders...)
	}
	headers = append(headers, metricHeaders...)
	if opts.IncludeAssignmentBreakdown {
		headers = append(headers, breakdownHeader)
	}
	return headers
}

// PerformanceColumnKinds mirrors PerformanceHeaders. Identity columns and the
// category are text so identifiers keep their exact form in typed formats.
func PerformanceColumnKinds(opts models.ReportOptions) []export.ColumnKind {
	kinds := []export.ColumnKind{export.ColumnAuto}
	if opts.IncludeStudentDetails {
		for range identityHeaders {
			kinds = append(kinds, export.ColumnText)
		}
	}
	for _, h := range metricHeaders {
		kind := export.ColumnAuto
		if h == "Category" {
			kind = export.ColumnText
		}
		kinds = append(kinds, kind)
	}
	if opts.IncludeAssignmentBreakdown {
		kinds = append(kinds, export.ColumnText)
	}
	return kinds
}

// PerformanceRow renders one export row in PerformanceHeaders order.
func PerformanceRow(index int, e models.EnrichedStudent, opts models.ReportOptions) []string {
	m := performance.Metrics(e)
	row := []string{strconv.Itoa(index)}
	if opts.IncludeStudentDetails {
		row = append(row, e.Student.StudentID, e.Student.Name, e.Student.Username, e.ProgramCode, e.SemesterCode)
	}
	row = append(row,
		formatNumber(e.Analytics.TotalMarks),
		formatNumber(e.Analytics.MaxTotal),
		fmt.Sprintf("%.1f", m.Percentage),
		strconv.Itoa(m.CompletedCount),
		strconv.Itoa(m.TotalAssignments),
		fmt.Sprintf("%d%%", m.CompletionRate),
		string(m.Category),
	)
	if opts.IncludeAssignmentBreakdown {
		row = append(row, assignmentBreakdown(e.Analytics.Assignments))
	}
	return row
}

// BuildPerformanceDataset filters the cohort and renders one row per matching student.
// Summary lines describe the exported rows.
func BuildPerformanceDataset(cohort *models.Cohort, params models.ReportJobParams, generatedAt time.Time) export.Dataset {
	matched := performance.Filter(cohort.Students, params.Filter)
	rows := make([][]string, 0, len(matched))
	for i, e := range matched {
		rows = append(rows, PerformanceRow(i+1, e, params.Options))
	}

	summary := performance.Summarize(matched)
	lines := []export.SummaryLine{
		{Label: "Group", Value: groupLabel(params), Text: true},
	}
	if params.Selection.ProgramCode != "" {
		lines = append(lines, export.SummaryLine{Label: "Program", Value: params.Selection.ProgramCode, Text: true})
	}
	if params.Selection.SemesterCode != "" {
		lines = append(lines, export.SummaryLine{Label: "Semester", Value: params.Selection.SemesterCode, Text: true})
	}
	lines = append(lines,
		export.SummaryLine{Label: "Students", Value: fmt.Sprintf("%d of %d", summary.StudentCount, len(cohort.Students))},
		export.SummaryLine{Label: "Class Average", Value: fmt.Sprintf("%.1f%%", summary.ClassAverage)},
		export.SummaryLine{Label: "Assignments Graded", Value: strconv.Itoa(summary.AssignmentsGraded)},
		export.SummaryLine{Label: "Top Performers", Value: strconv.Itoa(summary.TopPerformers)},
	)
	if criteria := performance.Compile(params.Filter).Describe(); len(criteria) > 0 {
		lines = append(lines, export.SummaryLine{Label: "Filters", Value: strings.Join(criteria, "; ")})
	}
	lines = append(lines, export.SummaryLine{Label: "Generated", Value: generatedAt.UTC().Format("2006-01-02 15:04 MST")})

	return export.Dataset{
		Title:   "Performance Report - " + groupLabel(params),
		Summary: lines,
		Headers: PerformanceHeaders(params.Options),
		Kinds:   PerformanceColumnKinds(params.Options),
		Rows:    rows,
	}
}

// BuildStudentDataset renders one row per assignment of the requested student.
func BuildStudentDataset(e models.EnrichedStudent, params models.ReportJobParams, generatedAt time.Time) export.Dataset {
	m := performance.Metrics(e)
	rows := make([][]string, 0, len(e.Analytics.Assignments))
	for i, record := range e.Analytics.Assignments {
		rows = append(rows, []string{strconv.Itoa(i + 1), record.Name, formatMarks(record.Marks), string(record.Status)})
	}

	lines := []export.SummaryLine{
		{Label: "Student", Value: studentLabel(e), Text: true},
		{Label: "Student ID", Value: e.Student.StudentID, Text: true},
	}
	if params.Options.IncludeStudentDetails {
		lines = append(lines,
			export.SummaryLine{Label: "Username", Value: e.Student.Username, Text: true},
			export.SummaryLine{Label: "Program", Value: e.ProgramCode, Text: true},
			export.SummaryLine{Label: "Semester", Value: e.SemesterCode, Text: true},
		)
	}
	lines = append(lines,
		export.SummaryLine{Label: "Group", Value: groupLabel(params), Text: true},
		export.SummaryLine{Label: "Total Marks", Value: formatNumber(e.Analytics.TotalMarks) + " / " + formatNumber(e.Analytics.MaxTotal)},
		export.SummaryLine{Label: "Percentage", Value: fmt.Sprintf("%.1f%%", m.Percentage)},
		export.SummaryLine{Label: "Category", Value: string(m.Category)},
		export.SummaryLine{Label: "Completion", Value: fmt.Sprintf("%d of %d (%d%%)", m.CompletedCount, m.TotalAssignments, m.CompletionRate)},
		export.SummaryLine{Label: "Generated", Value: generatedAt.UTC().Format("2006-01-02 15:04 MST")},
	)

	return export.Dataset{
		Title:   "Student Report - " + studentLabel(e),
		Summary: lines,
		Headers: []string{"#", "Assignment", "Marks", "Status"},
		Kinds:   []export.ColumnKind{export.ColumnAuto, export.ColumnText, export.ColumnAuto, export.ColumnText},
		Rows:    rows,
	}
}

// ReportFilename builds <report-type>_<name>_<YYYY-MM-DD>.<ext>. The date is the UTC
// day, matching the generated timestamp printed in the document.
func ReportFilename(reportType models.ReportType, name string, format models.ReportFormat, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s.%s", reportType, sanitizeFilename(name), date.UTC().Format("2006-01-02"), format.Extension())
}

const maxFilenameRunes = 80

func sanitizeFilename(raw string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(raw, " ")
	cleaned = strings.Join(strings.Fields(cleaned), "_")
	cleaned = strings.Trim(cleaned, "._-")
	if cleaned == "" {
		return "report"
	}
	if runes := []rune(cleaned); len(runes) > maxFilenameRunes {
		cleaned = strings.TrimRight(string(runes[:maxFilenameRunes]), "._-")
	}
	return cleaned
}

func groupLabel(params models.ReportJobParams) string {
	if name := strings.TrimSpace(params.GroupName); name != "" {
		return name
	}
	return params.Selection.GroupID
}

func studentLabel(e models.EnrichedStudent) string {
	if e.Student.Name != "" {
		return e.Student.Name
	}
	return e.Student.StudentID
}

func assignmentBreakdown(records []models.AssignmentRecord) string {
	parts := make([]string, 0, len(records))
	for _, record := range records {
		parts = append(parts, fmt.Sprintf("%s: %s (%s)", record.Name, formatMarks(record.Marks), record.Status))
	}
	return strings.Join(parts, "; ")
}

func formatMarks(marks *float64) string {
	if marks == nil {
		return "-"
	}
	return formatNumber(*marks)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
