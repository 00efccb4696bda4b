package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/internal/performance"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
	"github.com/noah-isme/performance-report-api/pkg/export"
	"github.com/noah-isme/performance-report-api/pkg/storage"
)

type cohortLoader interface {
	Load(ctx context.Context, session models.Session, sel models.CohortSelection, opts LoadOptions) (*models.Cohort, error)
}

type fileStorage interface {
	Save(key string, data []byte) (string, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// RenderedReport is a report document held in memory.
type RenderedReport struct {
	Filename string
	Format   models.ReportFormat
	Data     []byte
}

// ContentType returns the MIME type of the document.
func (r RenderedReport) ContentType() string {
	return r.Format.ContentType()
}

// ExportResult captures a stored report and its signed download link.
type ExportResult struct {
	Key       string
	Filename  string
	Token     string
	URL       string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// ExportService turns cohorts into report documents and stores them for download.
type ExportService struct {
	cohorts cohortLoader
	storage fileStorage
	signer  *storage.SignedURLSigner
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService. storage and signer are only needed
// for stored exports.
func NewExportService(cohorts cohortLoader, store fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		cohorts: cohorts,
		storage: store,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Render loads the cohort named by params and renders the report.
func (s *ExportService) Render(ctx context.Context, session models.Session, reportType models.ReportType, params models.ReportJobParams) (*RenderedReport, error) {
	cohort, err := s.cohorts.Load(ctx, session, params.Selection, LoadOptions{})
	if err != nil {
		return nil, err
	}
	return s.RenderCohort(cohort, reportType, params)
}

// RenderCohort renders a report from an already loaded cohort. Rendering failures
// never modify the cohort.
func (s *ExportService) RenderCohort(cohort *models.Cohort, reportType models.ReportType, params models.ReportJobParams) (*RenderedReport, error) {
	renderer, err := export.RendererFor(string(params.Format))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	generatedAt := s.now()
	var (
		dataset export.Dataset
		name    string
	)
	switch reportType {
	case models.ReportTypePerformance:
		dataset = BuildPerformanceDataset(cohort, params, generatedAt)
		name = groupLabel(params)
	case models.ReportTypeStudent:
		entry, ok := performance.FindStudent(cohort.Students, strings.TrimSpace(params.StudentID))
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found in group", params.StudentID))
		}
		dataset = BuildStudentDataset(entry, params, generatedAt)
		name = studentLabel(entry)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report type %q", reportType))
	}

	data, err := renderer.Render(dataset)
	s.metrics.RecordExport(reportType, params.Format, err)
	if err != nil {
		s.logger.Error("report render failed",
			zap.String("type", string(reportType)),
			zap.String("format", string(params.Format)),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, appErrors.ErrExportFailed.Message)
	}
	return &RenderedReport{
		Filename: ReportFilename(reportType, name, params.Format, generatedAt),
		Format:   params.Format,
		Data:     data,
	}, nil
}

// Generate renders the job's report and stores it behind a signed download URL.
func (s *ExportService) Generate(ctx context.Context, session models.Session, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	rendered, err := s.Render(ctx, session, job.Type, job.Params)
	if err != nil {
		return nil, err
	}
	return s.Store(job.ID, rendered)
}

// Store persists a rendered report under subject and signs a download URL for it.
func (s *ExportService) Store(subject string, rendered *RenderedReport) (*ExportResult, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrFeatureOff, "report storage is not configured")
	}
	key, err := s.storage.Save(path.Join(subject, rendered.Filename), rendered.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Sign(subject, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "failed to sign report url")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		Key:       key,
		Filename:  rendered.Filename,
		Token:     token,
		URL:       fmt.Sprintf("%s/export/%s", prefix, token),
		Format:    rendered.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyToken validates a download token.
func (s *ExportService) VerifyToken(token string, allowExpired bool) (storage.Grant, error) {
	if s.signer == nil {
		return storage.Grant{}, storage.ErrInvalidToken
	}
	return s.signer.Verify(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(key string) (*os.File, error) {
	return s.storage.Open(key)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(key string) error {
	return s.storage.Delete(key)
}

// Cleanup removes files older than ttl, or the configured result TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}
