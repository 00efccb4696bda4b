package dto

import "github.com/noah-isme/performance-report-api/internal/models"

// ReportRequest is the body of POST /reports/export and POST /reports/jobs.
type ReportRequest struct {
	Type         models.ReportType    `json:"type" validate:"required,oneof=performance_report student_report"`
	GroupID      string               `json:"groupId" validate:"required"`
	GroupName    string               `json:"groupName,omitempty" validate:"max=120"`
	ProgramCode  string               `json:"programCode,omitempty"`
	SemesterCode string               `json:"semesterCode,omitempty"`
	StudentID    string               `json:"studentId,omitempty" validate:"required_if=Type student_report"`
	Filter       models.ReportFilter  `json:"filter"`
	Options      models.ReportOptions `json:"options"`
	Format       models.ReportFormat  `json:"format" validate:"required,oneof=pdf spreadsheet csv"`
}

// Selection returns the cohort addressed by the request.
func (r ReportRequest) Selection() models.CohortSelection {
	return models.CohortSelection{GroupID: r.GroupID, ProgramCode: r.ProgramCode, SemesterCode: r.SemesterCode}
}

// Params converts the request into persisted job parameters.
func (r ReportRequest) Params() models.ReportJobParams {
	return models.ReportJobParams{
		Selection: r.Selection(),
		GroupName: r.GroupName,
		StudentID: r.StudentID,
		Filter:    r.Filter,
		Options:   r.Options,
		Format:    r.Format,
	}
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID         string              `json:"id"`
	Type       models.ReportType   `json:"type"`
	Status     models.ReportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	ResultURL  *string             `json:"resultUrl,omitempty"`
	Error      *string             `json:"error,omitempty"`
	CreatedAt  string              `json:"createdAt"`
	FinishedAt *string             `json:"finishedAt,omitempty"`
}
