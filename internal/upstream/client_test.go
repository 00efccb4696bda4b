package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/pkg/config"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
)

type recordingObserver struct {
	endpoints []string
	statuses  []int
}

func (r *recordingObserver) ObserveUpstreamFetch(endpoint string, status int, _ time.Duration) {
	r.endpoints = append(r.endpoints, endpoint)
	r.statuses = append(r.statuses, status)
}

var testSession = models.Session{Token: "tok-123", InstitutionID: "inst-9", UserID: "u1", Role: models.RoleFaculty}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	obs := &recordingObserver{}
	return NewClient(config.UpstreamConfig{BaseURL: srv.URL + "/", Timeout: time.Second}, obs, nil), obs
}

func TestRosterDecodesTolerantPayload(t *testing.T) {
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/institutions/inst-9/groups/g-1/students", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "inst-9", r.Header.Get("X-Institution-ID"))
		assert.Equal(t, "CS", r.URL.Query().Get("program_code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":17,"student_details":{"program_code":"CS","semester_code":"S1","students":{"name":" Ada ","student_id":1001,"username":"ada"}}},
			{"id":"r-2","student_details":{"program_code":null,"semester_code":"S1","students":{"name":"Bo","student_id":"S-2","username":"bo"}}},
			{"id":"r-3","student_details":null}
		]}`))
	})

	roster, err := client.Roster(context.Background(), testSession, models.CohortSelection{GroupID: "g-1", ProgramCode: "CS"})
	require.NoError(t, err)
	require.Len(t, roster, 3)

	assert.Equal(t, "17", roster[0].ID)
	assert.Equal(t, "1001", roster[0].Student.StudentID)
	assert.Equal(t, "Ada", roster[0].Student.Name)
	assert.Equal(t, "", roster[1].ProgramCode)
	assert.Equal(t, "S-2", roster[1].Student.StudentID)
	assert.Equal(t, "", roster[2].Student.StudentID)
	assert.Equal(t, []string{"roster"}, obs.endpoints)
	assert.Equal(t, []int{http.StatusOK}, obs.statuses)
}

func TestAnalyticsNormalizesNumbersAndStatuses(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/institutions/inst-9/groups/g-1/analytics", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"student_id":"1001","total_marks":"85.5","max_total":100,"assignments":[
				{"assignment_name":"A1","marks":40,"status":"Reviewed"},
				{"assignment_name":"A2","marks":null,"status":" not submitted "}
			]},
			{"student_id":1002,"total_marks":null,"max_total":"n/a","assignments":null}
		]`))
	})

	records, err := client.Analytics(context.Background(), testSession, models.CohortSelection{GroupID: "g-1"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 85.5, records[0].TotalMarks)
	assert.Equal(t, 100.0, records[0].MaxTotal)
	require.Len(t, records[0].Assignments, 2)
	assert.Equal(t, models.AssignmentReviewed, records[0].Assignments[0].Status)
	require.NotNil(t, records[0].Assignments[0].Marks)
	assert.Equal(t, 40.0, *records[0].Assignments[0].Marks)
	assert.Nil(t, records[0].Assignments[1].Marks)
	assert.Equal(t, models.AssignmentNotSubmitted, records[0].Assignments[1].Status)

	assert.Equal(t, "1002", records[1].StudentID)
	assert.Zero(t, records[1].TotalMarks)
	assert.Zero(t, records[1].MaxTotal)
	assert.Empty(t, records[1].Assignments)
}

func TestGroupsEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/institutions/inst-9/groups", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":null}`))
	})

	groups, err := client.Groups(context.Background(), testSession)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestStatusErrorsAreMapped(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, appErrors.ErrUnauthorized.Code},
		{http.StatusForbidden, appErrors.ErrUnauthorized.Code},
		{http.StatusNotFound, appErrors.ErrNotFound.Code},
		{http.StatusBadGateway, appErrors.ErrUpstream.Code},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := client.Groups(context.Background(), testSession)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
			assert.Equal(t, []int{tc.status}, obs.statuses)
		})
	}
}

func TestMalformedBodyIsUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":`))
	})
	_, err := client.Groups(context.Background(), testSession)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestInvalidSessionShortCircuits(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	_, err := client.Groups(context.Background(), models.Session{Token: "tok"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	assert.False(t, called)
}

func TestRosterRequiresGroup(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := client.Roster(context.Background(), testSession, models.CohortSelection{GroupID: "  "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCanceledContextReturnsContextError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Groups(ctx, testSession)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDecodeExportedFiles(t *testing.T) {
	roster, err := DecodeRoster([]byte(`[{"id":1,"student_details":{"program_code":"CS","semester_code":"S1","students":{"name":"Ada","student_id":7,"username":"ada"}}}]`))
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "7", roster[0].Student.StudentID)

	analytics, err := DecodeAnalytics([]byte(`{"data":[{"student_id":"7","total_marks":"41.5","max_total":50,"assignments":[{"assignment_name":"A1","marks":null,"status":"Submitted"}]}]}`))
	require.NoError(t, err)
	require.Len(t, analytics, 1)
	assert.Equal(t, 41.5, analytics[0].TotalMarks)
	assert.Nil(t, analytics[0].Assignments[0].Marks)
	assert.Equal(t, models.AssignmentSubmitted, analytics[0].Assignments[0].Status)

	_, err = DecodeRoster([]byte(`{"data":`))
	assert.Error(t, err)
}
