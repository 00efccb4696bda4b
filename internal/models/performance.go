package models

import (
	"encoding/json"
	"strings"
	"time"
)

// PerformanceCategory buckets a student by percentage.
type PerformanceCategory string

const (
	CategoryExcellent    PerformanceCategory = "Excellent"
	CategoryGood         PerformanceCategory = "Good"
	CategoryAverage      PerformanceCategory = "Average"
	CategoryBelowAverage PerformanceCategory = "Below Average"
	CategoryPoor         PerformanceCategory = "Poor"
)

// Categories lists every category from best to worst.
var Categories = []PerformanceCategory{
	CategoryExcellent,
	CategoryGood,
	CategoryAverage,
	CategoryBelowAverage,
	CategoryPoor,
}

// EnrichedStudent is a roster entry joined with its analytics record. When no record
// exists Analytics is zero-valued and HasAnalytics is false.
type EnrichedStudent struct {
	RosterEntry
	Analytics    Analytics
	HasAnalytics bool
}

type enrichedStudentJSON struct {
	RosterEntry
	Analytics *Analytics `json:"analytics"`
}

// MarshalJSON renders missing analytics as null.
func (e EnrichedStudent) MarshalJSON() ([]byte, error) {
	out := enrichedStudentJSON{RosterEntry: e.RosterEntry}
	if e.HasAnalytics {
		analytics := e.Analytics
		out.Analytics = &analytics
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the presence flag from a null or object analytics field.
func (e *EnrichedStudent) UnmarshalJSON(data []byte) error {
	var in enrichedStudentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	e.RosterEntry = in.RosterEntry
	e.Analytics = Analytics{}
	e.HasAnalytics = in.Analytics != nil
	if in.Analytics != nil {
		e.Analytics = *in.Analytics
	}
	return nil
}

// StudentMetrics are the derived per-student figures.
type StudentMetrics struct {
	Percentage       float64             `json:"percentage"`
	CompletedCount   int                 `json:"completed_count"`
	TotalAssignments int                 `json:"total_assignments"`
	CompletionRate   int                 `json:"completion_rate"`
	Category         PerformanceCategory `json:"category"`
}

// CohortSummary aggregates metrics over a set of students.
type CohortSummary struct {
	StudentCount      int                         `json:"student_count"`
	ClassAverage      float64                     `json:"class_average"`
	AssignmentsGraded int                         `json:"assignments_graded"`
	TopPerformers     int                         `json:"top_performers"`
	CategoryCounts    map[PerformanceCategory]int `json:"category_counts"`
}

// CohortSelection identifies the roster and analytics scope to load.
type CohortSelection struct {
	GroupID      string `json:"group_id"`
	ProgramCode  string `json:"program_code,omitempty"`
	SemesterCode string `json:"semester_code,omitempty"`
}

// Key returns a stable identifier for the selection.
func (s CohortSelection) Key() string {
	parts := []string{s.GroupID, s.ProgramCode, s.SemesterCode}
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(part, ":", "|")
	}
	return strings.Join(parts, ":")
}

// Cohort is the joined collection for one selection.
type Cohort struct {
	Selection CohortSelection   `json:"selection"`
	Students  []EnrichedStudent `json:"students"`
	FetchedAt time.Time         `json:"fetched_at"`
}
