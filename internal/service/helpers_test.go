package service

import (
	"context"
	"sync"

	"github.com/noah-isme/performance-report-api/internal/models"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
)

var facultySession = models.Session{Token: "tok", InstitutionID: "inst-1", UserID: "fac-1", Role: models.RoleFaculty}

func marks(v float64) *float64 { return &v }

// fakeSource serves a fixed roster and analytics set and counts calls.
type fakeSource struct {
	mu           sync.Mutex
	groups       []models.Group
	roster       []models.RosterEntry
	analytics    []models.Analytics
	rosterErr    error
	analyticsErr error
	rosterCalls  int
	block        chan struct{}
	// tokens, when set, lists the only session tokens the source accepts.
	tokens       map[string]bool
}

func (f *fakeSource) Groups(ctx context.Context, session models.Session) ([]models.Group, error) {
	return f.groups, nil
}

func (f *fakeSource) Roster(ctx context.Context, session models.Session, sel models.CohortSelection) ([]models.RosterEntry, error) {
	f.mu.Lock()
	f.rosterCalls++
	if f.tokens != nil && !f.tokens[session.Token] {
		f.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "institution API rejected the session")
	}
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.roster, f.rosterErr
}

func (f *fakeSource) Analytics(ctx context.Context, session models.Session, sel models.CohortSelection) ([]models.Analytics, error) {
	f.mu.Lock()
	rejected := f.tokens != nil && !f.tokens[session.Token]
	f.mu.Unlock()
	if rejected {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "institution API rejected the session")
	}
	return f.analytics, f.analyticsErr
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rosterCalls
}

func sampleRoster() []models.RosterEntry {
	entry := func(id, name, program string) models.RosterEntry {
		return models.RosterEntry{
			ID:           "r-" + id,
			ProgramCode:  program,
			SemesterCode: "S1",
			Student:      models.Student{StudentID: id, Name: name, Username: "u" + id},
		}
	}
	return []models.RosterEntry{
		entry("1", "Ada", "BSCS"),
		entry("2", "Bo", "BSCS"),
		entry("3", "Cy", "BBA"),
	}
}

func sampleAnalytics() []models.Analytics {
	return []models.Analytics{
		{StudentID: "1", TotalMarks: 95, MaxTotal: 100, Assignments: []models.AssignmentRecord{
			{Name: "A1", Marks: marks(50), Status: models.AssignmentReviewed},
			{Name: "A2", Marks: marks(45), Status: models.AssignmentReviewed},
		}},
		{StudentID: "2", TotalMarks: 72, MaxTotal: 100, Assignments: []models.AssignmentRecord{
			{Name: "A1", Marks: marks(40), Status: models.AssignmentReviewed},
			{Name: "A2", Status: models.AssignmentNotSubmitted},
		}},
	}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		groups:    []models.Group{{ID: "g-1", Name: "Group A"}},
		roster:    sampleRoster(),
		analytics: sampleAnalytics(),
	}
}
