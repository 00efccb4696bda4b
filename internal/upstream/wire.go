package upstream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/noah-isme/performance-report-api/internal/models"
)

// flexString accepts JSON strings, numbers and null. Identifiers arrive as either.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexNumber accepts JSON numbers, numeric strings and null.
type flexNumber struct {
	Value float64
	Valid bool
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	*f = flexNumber{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		*f = flexNumber{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexNumber{Value: v, Valid: true}
	return nil
}

func (f flexNumber) orZero() float64 {
	if !f.Valid || f.Value < 0 {
		return 0
	}
	return f.Value
}

func (f flexNumber) ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

type groupItem struct {
	ID           flexString `json:"id"`
	Name         string     `json:"name"`
	ProgramCode  flexString `json:"program_code"`
	SemesterCode flexString `json:"semester_code"`
}

type rosterItem struct {
	ID             flexString `json:"id"`
	StudentDetails *struct {
		ProgramCode  flexString `json:"program_code"`
		SemesterCode flexString `json:"semester_code"`
		Students     *struct {
			Name      string     `json:"name"`
			StudentID flexString `json:"student_id"`
			Username  string     `json:"username"`
		} `json:"students"`
	} `json:"student_details"`
}

type assignmentItem struct {
	AssignmentName string     `json:"assignment_name"`
	Marks          flexNumber `json:"marks"`
	Status         string     `json:"status"`
}

type analyticsItem struct {
	StudentID   flexString       `json:"student_id"`
	TotalMarks  flexNumber       `json:"total_marks"`
	MaxTotal    flexNumber       `json:"max_total"`
	Assignments []assignmentItem `json:"assignments"`
}

// decodeCollection accepts a bare JSON array or an object wrapping it under "data".
func decodeCollection(body []byte, dest interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return err
		}
		trimmed = envelope.Data
	}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, dest)
}

func (g groupItem) toModel() models.Group {
	return models.Group{
		ID:           string(g.ID),
		Name:         strings.TrimSpace(g.Name),
		ProgramCode:  string(g.ProgramCode),
		SemesterCode: string(g.SemesterCode),
	}
}

func (r rosterItem) toModel() models.RosterEntry {
	entry := models.RosterEntry{ID: string(r.ID)}
	if r.StudentDetails == nil {
		return entry
	}
	entry.ProgramCode = string(r.StudentDetails.ProgramCode)
	entry.SemesterCode = string(r.StudentDetails.SemesterCode)
	if s := r.StudentDetails.Students; s != nil {
		entry.Student = models.Student{
			StudentID: string(s.StudentID),
			Name:      strings.TrimSpace(s.Name),
			Username:  strings.TrimSpace(s.Username),
		}
	}
	return entry
}

func (a analyticsItem) toModel() models.Analytics {
	records := make([]models.AssignmentRecord, 0, len(a.Assignments))
	for _, item := range a.Assignments {
		records = append(records, models.AssignmentRecord{
			Name:   strings.TrimSpace(item.AssignmentName),
			Marks:  item.Marks.ptr(),
			Status: models.AssignmentStatus(strings.ToLower(strings.TrimSpace(item.Status))),
		})
	}
	return models.Analytics{
		StudentID:   string(a.StudentID),
		TotalMarks:  a.TotalMarks.orZero(),
		MaxTotal:    a.MaxTotal.orZero(),
		Assignments: records,
	}
}

// DecodeRoster parses a roster payload exported from the institution API.
func DecodeRoster(body []byte) ([]models.RosterEntry, error) {
	var items []rosterItem
	if err := decodeCollection(body, &items); err != nil {
		return nil, err
	}
	return rosterModels(items), nil
}

// DecodeAnalytics parses an analytics payload exported from the institution API.
func DecodeAnalytics(body []byte) ([]models.Analytics, error) {
	var items []analyticsItem
	if err := decodeCollection(body, &items); err != nil {
		return nil, err
	}
	return analyticsModels(items), nil
}

func rosterModels(items []rosterItem) []models.RosterEntry {
	roster := make([]models.RosterEntry, 0, len(items))
	for _, item := range items {
		roster = append(roster, item.toModel())
	}
	return roster
}

func analyticsModels(items []analyticsItem) []models.Analytics {
	records := make([]models.Analytics, 0, len(items))
	for _, item := range items {
		records = append(records, item.toModel())
	}
	return records
}
