package models

// Assignment status filter values. NotSubmitted uses an underscore while the stored
// status uses a space.
const (
	StatusFilterReviewed     = "reviewed"
	StatusFilterSubmitted    = "submitted"
	StatusFilterNotSubmitted = "not_submitted"
)

// Performance category filter values.
const (
	CategoryFilterExcellent    = "excellent"
	CategoryFilterGood         = "good"
	CategoryFilterAverage      = "average"
	CategoryFilterBelowAverage = "below_average"
	CategoryFilterPoor         = "poor"
)

// ReportFilter holds raw, independently optional criteria. Numeric bounds stay strings
// so unparsable input can be told apart from zero.
type ReportFilter struct {
	PercentageMin       string `json:"percentageMin" form:"percentage_min"`
	PercentageMax       string `json:"percentageMax" form:"percentage_max"`
	MarksMin            string `json:"marksMin" form:"marks_min"`
	MarksMax            string `json:"marksMax" form:"marks_max"`
	AssignmentStatus    string `json:"assignmentStatus" form:"assignment_status"`
	PerformanceCategory string `json:"performanceCategory" form:"performance_category"`
}

// ReportOptions toggles export columns. It has no effect on filtering.
type ReportOptions struct {
	IncludeStudentDetails      bool `json:"includeStudentDetails"`
	IncludeAssignmentBreakdown bool `json:"includeAssignmentBreakdown"`
}
