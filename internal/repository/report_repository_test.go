package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-report-api/internal/models"
)

var reportJobColumnNames = []string{"id", "type", "params", "status", "progress", "result_url", "institution_id", "created_by", "created_at", "finished_at", "error_message"}

func newReportRepoMock(t *testing.T) (*ReportRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewReportRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestReportRepositoryCreateAndGet(t *testing.T) {
	repo, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_jobs")).
		WithArgs(sqlmock.AnyArg(), "performance_report", sqlmock.AnyArg(), "QUEUED", 0, nil, "inst-1", "user-1", sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ReportJob{
		Type: models.ReportTypePerformance,
		Params: models.ReportJobParams{
			Selection: models.CohortSelection{GroupID: "g-1"},
			Format:    models.ReportFormatCSV,
		},
		InstitutionID: "inst-1",
		CreatedBy:     "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)

	params := `{"selection":{"group_id":"g-1"},"filter":{"percentageMin":"80"},"options":{"includeStudentDetails":true},"format":"csv"}`
	rows := sqlmock.NewRows(reportJobColumnNames).
		AddRow(job.ID, "performance_report", params, "QUEUED", 0, nil, "inst-1", "user-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, fetched.ID)
	assert.Equal(t, "g-1", fetched.Params.Selection.GroupID)
	assert.Equal(t, "80", fetched.Params.Filter.PercentageMin)
	assert.True(t, fetched.Params.Options.IncludeStudentDetails)
	assert.Equal(t, "inst-1", fetched.InstitutionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetMissingWrapsNoRows(t *testing.T) {
	repo, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestReportRepositoryUpdate(t *testing.T) {
	repo, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	now := time.Now()
	status := models.ReportStatusFinished
	progress := 100
	result := "/api/v1/export/token"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, progress = $2, result_url = $3, finished_at = $4 WHERE id = $5")).
		WithArgs(status, progress, result, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateReportJobParams{
		Status:     &status,
		Progress:   &progress,
		ResultURL:  &result,
		FinishedAt: &now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateNoop(t *testing.T) {
	repo, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateReportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListByStatus(t *testing.T) {
	repo, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows(reportJobColumnNames).
		AddRow("job-1", "student_report", `{"format":"pdf"}`, "PROCESSING", 10, nil, "inst-1", "user-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2")).
		WithArgs(models.ReportStatusProcessing, 20).
		WillReturnRows(rows)

	jobs, err := repo.ListByStatus(context.Background(), models.ReportStatusProcessing, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ReportFormatPDF, jobs[0].Params.Format)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryDeleteFinishedBefore(t *testing.T) {
	repo, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM report_jobs WHERE status IN ('FINISHED', 'FAILED')")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteFinishedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
