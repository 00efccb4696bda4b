package models

// Student is the identity block the institution API attaches to a roster entry.
type Student struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
}

// RosterEntry links a student to a program and semester within a group.
type RosterEntry struct {
	ID           string  `json:"id"`
	ProgramCode  string  `json:"program_code"`
	SemesterCode string  `json:"semester_code"`
	Student      Student `json:"student"`
}

// Group is a teaching group as listed by the institution API.
type Group struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProgramCode  string `json:"program_code"`
	SemesterCode string `json:"semester_code"`
}
