package dto

import "github.com/noah-isme/performance-report-api/internal/models"

// PerformanceQuery binds the selection and filter query string of the dashboard
// endpoints.
type PerformanceQuery struct {
	ProgramCode  string `form:"program_code"`
	SemesterCode string `form:"semester_code"`
	Refresh      bool   `form:"refresh"`
	models.ReportFilter
}

// Selection returns the cohort for groupID narrowed by the query.
func (q PerformanceQuery) Selection(groupID string) models.CohortSelection {
	return models.CohortSelection{GroupID: groupID, ProgramCode: q.ProgramCode, SemesterCode: q.SemesterCode}
}
