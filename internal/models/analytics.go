package models

// AssignmentStatus is the review state stored on an assignment record.
type AssignmentStatus string

const (
	AssignmentReviewed     AssignmentStatus = "reviewed"
	AssignmentSubmitted    AssignmentStatus = "submitted"
	AssignmentNotSubmitted AssignmentStatus = "not submitted"
)

// AssignmentRecord captures one assignment outcome for a student.
type AssignmentRecord struct {
	Name   string           `json:"assignment_name"`
	Marks  *float64         `json:"marks"`
	Status AssignmentStatus `json:"status"`
}

// Analytics holds the marks rollup for a single student.
type Analytics struct {
	StudentID   string             `json:"student_id"`
	TotalMarks  float64            `json:"total_marks"`
	MaxTotal    float64            `json:"max_total"`
	Assignments []AssignmentRecord `json:"assignments"`
}
