package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-report-api/internal/dto"
	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/internal/repository"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
	"github.com/noah-isme/performance-report-api/pkg/jobs"
	"github.com/noah-isme/performance-report-api/pkg/storage"
)

const reportQueueJobType = "report"

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListByStatus(ctx context.Context, status models.ReportStatus, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type reportFiles interface {
	VerifyToken(token string, allowExpired bool) (storage.Grant, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

// ReportService manages asynchronous report jobs and their downloads.
type ReportService struct {
	repo     reportJobStore
	queue    jobDispatcher
	files    reportFiles
	validate *validator.Validate
	logger   *zap.Logger
	cfg      ReportServiceConfig
}

// ReportServiceConfig governs recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	RecoveryBatch   int
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// NewReportService constructs the report service.
func NewReportService(repo reportJobStore, queue jobDispatcher, files reportFiles, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.RecoveryBatch <= 0 {
		cfg.RecoveryBatch = 50
	}
	return &ReportService{
		repo:     repo,
		queue:    queue,
		files:    files,
		validate: validate,
		logger:   logger,
		cfg:      cfg,
	}
}

// ValidateRequest checks a report request and returns a validation error naming the
// first offending field.
func ValidateRequest(validate *validator.Validate, req dto.ReportRequest) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s: failed %s", verrs[0].Field(), verrs[0].Tag()))
		}
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if strings.TrimSpace(req.GroupID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "groupId is required")
	}
	return nil
}

// CreateJob validates the request, persists a job, and enqueues it. The caller's
// session travels with the queued job so rendering can call the institution API.
func (s *ReportService) CreateJob(ctx context.Context, session models.Session, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	if err := ValidateRequest(s.validate, req); err != nil {
		return nil, err
	}
	job := &models.ReportJob{
		Type:          req.Type,
		Params:        req.Params(),
		Status:        models.ReportStatusQueued,
		InstitutionID: session.InstitutionID,
		CreatedBy:     session.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportQueueJobType, Payload: session}); err != nil {
		status := models.ReportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	s.logger.Info("report job queued",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.String("format", string(job.Params.Format)),
	)
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata. Jobs are scoped to the caller's institution and
// faculty only see their own.
func (s *ReportService) GetStatus(ctx context.Context, session models.Session, id string) (*dto.ReportStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.InstitutionID != session.InstitutionID {
		return nil, appErrors.ErrNotFound
	}
	if session.Role != models.RoleInstitutionAdmin && job.CreatedBy != session.UserID {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.ReportStatusResponse{
		ID:        job.ID,
		Type:      job.Type,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
		CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339),
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	if job.FinishedAt != nil {
		finished := job.FinishedAt.UTC().Format(time.RFC3339)
		resp.FinishedAt = &finished
	}
	return resp, nil
}

// ResolveDownload validates a token and opens the stored report.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	grant, err := s.files.VerifyToken(token, false)
	if errors.Is(err, storage.ErrTokenExpired) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
	}
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	job, err := s.load(ctx, grant.Subject)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.files.Open(grant.Key)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report file no longer available")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  path.Base(grant.Key),
		Format:    job.Params.Format,
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

// RecoverPendingJobs re-enqueues jobs left queued or interrupted mid-render by a
// previous process. They run with the worker's fallback session.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) int {
	recovered := 0
	for _, status := range []models.ReportStatus{models.ReportStatusProcessing, models.ReportStatusQueued} {
		pending, err := s.repo.ListByStatus(ctx, status, s.cfg.RecoveryBatch)
		if err != nil {
			s.logger.Warn("failed to list report jobs for recovery", zap.String("status", string(status)), zap.Error(err))
			continue
		}
		for _, job := range pending {
			if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportQueueJobType}); err != nil {
				s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
			recovered++
		}
	}
	if recovered > 0 {
		s.logger.Info("recovered report jobs", zap.Int("count", recovered))
	}
	return recovered
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired deletes report files and job rows older than the result TTL.
func (s *ReportService) CleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	const batch = 100
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, batch)
		if err != nil {
			s.logger.Warn("cleanup list failed", zap.Error(err))
			return
		}
		for _, job := range expired {
			if job.ResultURL == nil {
				continue
			}
			grant, err := s.files.VerifyToken(path.Base(*job.ResultURL), true)
			if err != nil {
				continue
			}
			if err := s.files.Delete(grant.Key); err != nil {
				s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
		if len(expired) < batch {
			break
		}
	}
	if n, err := s.repo.DeleteFinishedBefore(ctx, cutoff); err != nil {
		s.logger.Warn("cleanup job rows failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("expired report jobs removed", zap.Int64("count", n))
	}
	if _, err := s.files.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
}

func (s *ReportService) load(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return job, nil
}

type reportGenerator interface {
	Generate(ctx context.Context, session models.Session, job *models.ReportJob) (*ExportResult, error)
}

// ReportWorker bridges queue jobs to ExportService.
type ReportWorker struct {
	repo     reportJobStore
	exporter reportGenerator
	fallback models.Session
	logger   *zap.Logger
}

// NewReportWorker constructs a worker. fallback supplies the service token used for
// jobs that arrive without the creator's session, such as recovered jobs.
func NewReportWorker(repo reportJobStore, exporter reportGenerator, fallback models.Session, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportWorker{repo: repo, exporter: exporter, fallback: fallback, logger: logger}
}

// Handle processes a queue job. Client errors are permanent; upstream and storage
// failures are returned for retry.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return jobs.Permanent(fmt.Errorf("report job %s no longer exists", job.ID))
	}
	if err != nil {
		return err
	}

	session, ok := w.sessionFor(job, record)
	if !ok {
		return jobs.Permanent(errors.New("no session available to render report"))
	}

	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, session, record)
	if err != nil {
		if appErrors.FromError(err).Status < 500 {
			return jobs.Permanent(err)
		}
		queued := models.ReportStatusQueued
		reset := 0
		msg := err.Error()
		if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
			Status:       &queued,
			Progress:     &reset,
			ErrorMessage: &msg,
		}); updateErr != nil {
			w.logger.Warn("failed to mark job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	finished := models.ReportStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	cleared := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &cleared,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.logger.Info("report job finished", zap.String("job_id", job.ID), zap.String("file", result.Filename))
	return nil
}

// Fail marks a job as failed once the queue gives up on it.
func (w *ReportWorker) Fail(ctx context.Context, job jobs.Job, cause error) {
	failed := models.ReportStatusFailed
	progress := 100
	now := time.Now().UTC()
	msg := cause.Error()
	var appErr *appErrors.Error
	if errors.As(cause, &appErr) {
		msg = appErr.Message
	}
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (w *ReportWorker) sessionFor(job jobs.Job, record *models.ReportJob) (models.Session, bool) {
	if session, ok := job.Payload.(models.Session); ok && session.Valid() {
		return session, true
	}
	session := models.Session{
		Token:         w.fallback.Token,
		InstitutionID: record.InstitutionID,
		UserID:        record.CreatedBy,
		Role:          w.fallback.Role,
	}
	if session.InstitutionID == "" {
		session.InstitutionID = w.fallback.InstitutionID
	}
	return session, session.Valid()
}
