package models

import "time"

// StudentPerformance pairs an enriched student with its derived metrics.
type StudentPerformance struct {
	Student EnrichedStudent `json:"student"`
	Metrics StudentMetrics  `json:"metrics"`
}

// PerformanceReport is the dashboard payload for one cohort. Summary always covers the
// whole cohort; Students holds the rows that passed the filter.
type PerformanceReport struct {
	Selection    CohortSelection      `json:"selection"`
	Summary      CohortSummary        `json:"summary"`
	Filter       *ReportFilter        `json:"filter,omitempty"`
	MatchedCount int                  `json:"matched_count"`
	Students     []StudentPerformance `json:"students"`
	FetchedAt    time.Time            `json:"fetched_at"`
}
