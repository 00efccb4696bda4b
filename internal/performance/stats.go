package performance

import (
	"math"

	"github.com/noah-isme/performance-report-api/internal/models"
)

// TopPerformerThreshold is the default percentage for TopPerformerCount.
const TopPerformerThreshold = 90.0

// Percentage returns total/max*100 rounded to one decimal, or 0 when max is not positive.
func Percentage(e models.EnrichedStudent) float64 {
	a := e.Analytics
	if !(a.MaxTotal > 0) {
		return 0
	}
	return finite(round1(a.TotalMarks / a.MaxTotal * 100))
}

// CompletedCount counts reviewed assignments.
func CompletedCount(e models.EnrichedStudent) int {
	count := 0
	for _, record := range e.Analytics.Assignments {
		if record.Status == models.AssignmentReviewed {
			count++
		}
	}
	return count
}

// TotalAssignments is the number of assignment records.
func TotalAssignments(e models.EnrichedStudent) int {
	return len(e.Analytics.Assignments)
}

// CompletionRate is the reviewed share of assignments as a whole percentage.
func CompletionRate(e models.EnrichedStudent) int {
	total := TotalAssignments(e)
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(CompletedCount(e)) / float64(total) * 100))
}

// CategoryFor maps a percentage to its band. Lower bounds are inclusive.
func CategoryFor(percentage float64) models.PerformanceCategory {
	switch {
	case percentage >= 90:
		return models.CategoryExcellent
	case percentage >= 80:
		return models.CategoryGood
	case percentage >= 70:
		return models.CategoryAverage
	case percentage >= 60:
		return models.CategoryBelowAverage
	default:
		return models.CategoryPoor
	}
}

// Category returns the performance band for a student.
func Category(e models.EnrichedStudent) models.PerformanceCategory {
	return CategoryFor(Percentage(e))
}

// Metrics bundles every per-student figure.
func Metrics(e models.EnrichedStudent) models.StudentMetrics {
	pct := Percentage(e)
	return models.StudentMetrics{
		Percentage:       pct,
		CompletedCount:   CompletedCount(e),
		TotalAssignments: TotalAssignments(e),
		CompletionRate:   CompletionRate(e),
		Category:         CategoryFor(pct),
	}
}

// ClassAverage averages total marks across the list and normalises by the first
// student's max total. It does not average per-student percentages, so cohorts with
// differing max totals get a skewed figure; callers depend on this exact number.
func ClassAverage(list []models.EnrichedStudent) float64 {
	if len(list) == 0 {
		return 0
	}
	reference := list[0].Analytics.MaxTotal
	if !(reference > 0) {
		return 0
	}
	var sum float64
	for _, e := range list {
		sum += e.Analytics.TotalMarks
	}
	mean := sum / float64(len(list))
	return finite(round1(mean / reference * 100))
}

// AssignmentsGradedTotal sums CompletedCount over the list.
func AssignmentsGradedTotal(list []models.EnrichedStudent) int {
	total := 0
	for _, e := range list {
		total += CompletedCount(e)
	}
	return total
}

// TopPerformerCount counts students whose percentage is at least threshold.
func TopPerformerCount(list []models.EnrichedStudent, threshold float64) int {
	count := 0
	for _, e := range list {
		if Percentage(e) >= threshold {
			count++
		}
	}
	return count
}

// Summarize computes the cohort-level figures shown above a report.
func Summarize(list []models.EnrichedStudent) models.CohortSummary {
	counts := make(map[models.PerformanceCategory]int, len(models.Categories))
	for _, category := range models.Categories {
		counts[category] = 0
	}
	for _, e := range list {
		counts[Category(e)]++
	}
	return models.CohortSummary{
		StudentCount:      len(list),
		ClassAverage:      ClassAverage(list),
		AssignmentsGraded: AssignmentsGradedTotal(list),
		TopPerformers:     TopPerformerCount(list, TopPerformerThreshold),
		CategoryCounts:    counts,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
