package performance

import (
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/performance-report-api/internal/models"
)

var statusByFilter = map[string]models.AssignmentStatus{
	models.StatusFilterReviewed:     models.AssignmentReviewed,
	models.StatusFilterSubmitted:    models.AssignmentSubmitted,
	models.StatusFilterNotSubmitted: models.AssignmentNotSubmitted,
}

var categoryByFilter = map[string]models.PerformanceCategory{
	models.CategoryFilterExcellent:    models.CategoryExcellent,
	models.CategoryFilterGood:         models.CategoryGood,
	models.CategoryFilterAverage:      models.CategoryAverage,
	models.CategoryFilterBelowAverage: models.CategoryBelowAverage,
	models.CategoryFilterPoor:         models.CategoryPoor,
}

type bound struct {
	value float64
	set   bool
}

// Criteria is a ReportFilter with its raw values parsed. Unparsable or unknown
// values are left inactive.
type Criteria struct {
	percentageMin bound
	percentageMax bound
	marksMin      bound
	marksMax      bound
	status        models.AssignmentStatus
	category      models.PerformanceCategory
}

// Compile parses filter into Criteria.
func Compile(filter models.ReportFilter) Criteria {
	c := Criteria{
		percentageMin: parseBound(filter.PercentageMin),
		percentageMax: parseBound(filter.PercentageMax),
		marksMin:      parseBound(filter.MarksMin),
		marksMax:      parseBound(filter.MarksMax),
	}
	if status, ok := statusByFilter[normalizeChoice(filter.AssignmentStatus)]; ok {
		c.status = status
	}
	if category, ok := categoryByFilter[normalizeChoice(filter.PerformanceCategory)]; ok {
		c.category = category
	}
	return c
}

// Active reports whether any criterion constrains the result.
func (c Criteria) Active() bool {
	return c.percentageMin.set || c.percentageMax.set || c.marksMin.set || c.marksMax.set ||
		c.status != "" || c.category != ""
}

// Describe lists the active criteria in a human readable form, in a fixed order.
func (c Criteria) Describe() []string {
	var out []string
	if d := describeRange("Percentage", c.percentageMin, c.percentageMax); d != "" {
		out = append(out, d)
	}
	if d := describeRange("Total marks", c.marksMin, c.marksMax); d != "" {
		out = append(out, d)
	}
	if c.status != "" {
		out = append(out, "Assignment status: "+string(c.status))
	}
	if c.category != "" {
		out = append(out, "Category: "+string(c.category))
	}
	return out
}

func describeRange(label string, lo, hi bound) string {
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	switch {
	case lo.set && hi.set:
		return label + " " + format(lo.value) + " to " + format(hi.value)
	case lo.set:
		return label + " at least " + format(lo.value)
	case hi.set:
		return label + " at most " + format(hi.value)
	default:
		return ""
	}
}

// Match reports whether e satisfies every active criterion.
func (c Criteria) Match(e models.EnrichedStudent) bool {
	pct := Percentage(e)
	if c.percentageMin.set && !(pct >= c.percentageMin.value) {
		return false
	}
	if c.percentageMax.set && !(pct <= c.percentageMax.value) {
		return false
	}
	marks := e.Analytics.TotalMarks
	if c.marksMin.set && !(marks >= c.marksMin.value) {
		return false
	}
	if c.marksMax.set && !(marks <= c.marksMax.value) {
		return false
	}
	if c.status != "" && !hasStatus(e, c.status) {
		return false
	}
	if c.category != "" && CategoryFor(pct) != c.category {
		return false
	}
	return true
}

// Filter returns the students matching filter, preserving order.
func Filter(list []models.EnrichedStudent, filter models.ReportFilter) []models.EnrichedStudent {
	criteria := Compile(filter)
	matched := make([]models.EnrichedStudent, 0, len(list))
	for _, e := range list {
		if criteria.Match(e) {
			matched = append(matched, e)
		}
	}
	return matched
}

// ParseBound parses a numeric filter bound. Empty, whitespace, non-numeric and
// non-finite input report ok=false.
func ParseBound(raw string) (float64, bool) {
	b := parseBound(raw)
	return b.value, b.set
}

func parseBound(raw string) bound {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return bound{}
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return bound{}
	}
	return bound{value: v, set: true}
}

func normalizeChoice(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func hasStatus(e models.EnrichedStudent, status models.AssignmentStatus) bool {
	for _, record := range e.Analytics.Assignments {
		if record.Status == status {
			return true
		}
	}
	return false
}
