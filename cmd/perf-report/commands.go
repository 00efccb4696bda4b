package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/internal/performance"
	"github.com/noah-isme/performance-report-api/internal/service"
	"github.com/noah-isme/performance-report-api/internal/upstream"
)

type cohortFlags struct {
	rosterPath    string
	analyticsPath string
	groupID       string
	programCode   string
	semesterCode  string
	filter        models.ReportFilter
}

func (f *cohortFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.rosterPath, "roster", "", "roster JSON file")
	flags.StringVar(&f.analyticsPath, "analytics", "", "analytics JSON file")
	flags.StringVar(&f.groupID, "group", "", "group id recorded on the report")
	flags.StringVar(&f.programCode, "program", "", "only include this program code")
	flags.StringVar(&f.semesterCode, "semester", "", "only include this semester code")
	flags.StringVar(&f.filter.PercentageMin, "percentage-min", "", "minimum percentage")
	flags.StringVar(&f.filter.PercentageMax, "percentage-max", "", "maximum percentage")
	flags.StringVar(&f.filter.MarksMin, "marks-min", "", "minimum total marks")
	flags.StringVar(&f.filter.MarksMax, "marks-max", "", "maximum total marks")
	flags.StringVar(&f.filter.AssignmentStatus, "status", "", "reviewed, submitted or not_submitted")
	flags.StringVar(&f.filter.PerformanceCategory, "category", "", "excellent, good, average, below_average or poor")
	_ = cmd.MarkFlagRequired("roster")
	_ = cmd.MarkFlagRequired("analytics")
}

func (f *cohortFlags) load(now time.Time) (*models.Cohort, error) {
	rosterBody, err := os.ReadFile(f.rosterPath)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	roster, err := upstream.DecodeRoster(rosterBody)
	if err != nil {
		return nil, fmt.Errorf("decode roster %s: %w", f.rosterPath, err)
	}
	analyticsBody, err := os.ReadFile(f.analyticsPath)
	if err != nil {
		return nil, fmt.Errorf("read analytics: %w", err)
	}
	analytics, err := upstream.DecodeAnalytics(analyticsBody)
	if err != nil {
		return nil, fmt.Errorf("decode analytics %s: %w", f.analyticsPath, err)
	}
	sel := models.CohortSelection{GroupID: f.groupID, ProgramCode: f.programCode, SemesterCode: f.semesterCode}
	return &models.Cohort{
		Selection: sel,
		Students:  performance.Enrich(performance.ScopeRoster(roster, sel.ProgramCode, sel.SemesterCode), analytics),
		FetchedAt: now,
	}, nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "perf-report",
		Short:         "Summarise and export cohort performance offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newSummaryCmd(), newExportCmd())
	return root
}

func newSummaryCmd() *cobra.Command {
	var flags cohortFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the cohort summary and matching students",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cohort, err := flags.load(time.Now())
			if err != nil {
				return err
			}
			return renderSummary(cmd.OutOrStdout(), service.BuildReport(cohort, flags.filter), flags.filter)
		},
	}
	flags.register(cmd)
	return cmd
}

func renderSummary(w io.Writer, report *models.PerformanceReport, filter models.ReportFilter) error {
	s := report.Summary
	fmt.Fprintf(w, "Students: %d  Class average: %.1f%%  Graded: %d  Top performers: %d\n",
		s.StudentCount, s.ClassAverage, s.AssignmentsGraded, s.TopPerformers)
	if desc := performance.Compile(filter).Describe(); len(desc) > 0 {
		fmt.Fprintf(w, "Filter: %s (%d of %d)\n", strings.Join(desc, "; "), report.MatchedCount, s.StudentCount)
	}

	table := tablewriter.NewTable(w)
	table.Header("#", "Student ID", "Name", "Total", "Max", "Percentage", "Completion", "Category")
	for i, row := range report.Students {
		a := row.Student.Analytics
		if err := table.Append(
			fmt.Sprint(i+1),
			row.Student.Student.StudentID,
			row.Student.Student.Name,
			fmt.Sprintf("%g", a.TotalMarks),
			fmt.Sprintf("%g", a.MaxTotal),
			fmt.Sprintf("%.1f", row.Metrics.Percentage),
			fmt.Sprintf("%d/%d", row.Metrics.CompletedCount, row.Metrics.TotalAssignments),
			string(row.Metrics.Category),
		); err != nil {
			return err
		}
	}
	var counts []string
	for _, c := range models.Categories {
		counts = append(counts, fmt.Sprintf("%s %d", c, s.CategoryCounts[c]))
	}
	table.Footer("", "", "", "", "", "", "", strings.Join(counts, ", "))
	return table.Render()
}

func newExportCmd() *cobra.Command {
	var (
		flags      cohortFlags
		reportType string
		format     string
		groupName  string
		studentID  string
		outDir     string
		details    bool
		breakdown  bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a pdf, spreadsheet or csv report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, ok := parseFormat(format)
			if !ok {
				return fmt.Errorf("unsupported format %q", format)
			}
			cohort, err := flags.load(time.Now())
			if err != nil {
				return err
			}
			exporter := service.NewExportService(nil, nil, nil, nil, service.ExportConfig{}, zap.NewNop())
			rendered, err := exporter.RenderCohort(cohort, models.ReportType(reportType), models.ReportJobParams{
				Selection: cohort.Selection,
				GroupName: groupName,
				StudentID: studentID,
				Filter:    flags.filter,
				Options:   models.ReportOptions{IncludeStudentDetails: details, IncludeAssignmentBreakdown: breakdown},
				Format:    parsed,
			})
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			target := filepath.Join(outDir, rendered.Filename)
			if err := os.WriteFile(target, rendered.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}
	flags.register(cmd)
	f := cmd.Flags()
	f.StringVar(&reportType, "type", string(models.ReportTypePerformance), "performance_report or student_report")
	f.StringVar(&format, "format", string(models.ReportFormatPDF), "pdf, spreadsheet (xlsx) or csv")
	f.StringVar(&groupName, "group-name", "", "group name used in the title and file name")
	f.StringVar(&studentID, "student", "", "student id for student_report")
	f.StringVar(&outDir, "out", ".", "output directory")
	f.BoolVar(&details, "details", false, "include student identity columns")
	f.BoolVar(&breakdown, "breakdown", false, "include the assignment breakdown column")
	return cmd
}

func parseFormat(raw string) (models.ReportFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pdf":
		return models.ReportFormatPDF, true
	case "spreadsheet", "xlsx", "excel":
		return models.ReportFormatSpreadsheet, true
	case "csv":
		return models.ReportFormatCSV, true
	}
	return "", false
}
