package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/internal/performance"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
)

// CohortSource provides raw institution data.
type CohortSource interface {
	Groups(ctx context.Context, session models.Session) ([]models.Group, error)
	Roster(ctx context.Context, session models.Session, sel models.CohortSelection) ([]models.RosterEntry, error)
	Analytics(ctx context.Context, session models.Session, sel models.CohortSelection) ([]models.Analytics, error)
}

// LoadOptions tune a single cohort load.
type LoadOptions struct {
	// ViewID enables the stale selection guard for one dashboard view of the caller.
	ViewID string
	// Refresh bypasses the cohort cache.
	Refresh bool
}

// CohortService loads cohorts and derives dashboard reports from them.
type CohortService struct {
	source   CohortSource
	cache    *CacheService
	cacheTTL time.Duration
	tracker  *SelectionTracker
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewCohortService wires the cohort service. cache and tracker may be nil.
func NewCohortService(source CohortSource, cache *CacheService, cacheTTL time.Duration, tracker *SelectionTracker, metrics *MetricsService, logger *zap.Logger) *CohortService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CohortService{
		source:   source,
		cache:    cache,
		cacheTTL: cacheTTL,
		tracker:  tracker,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Groups lists the groups the session can report on.
func (s *CohortService) Groups(ctx context.Context, session models.Session) ([]models.Group, error) {
	groups, err := s.source.Groups(ctx, session)
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// Load fetches roster and analytics for sel concurrently, waits for both, and joins
// them. A failure of either fetch fails the load.
func (s *CohortService) Load(ctx context.Context, session models.Session, sel models.CohortSelection, opts LoadOptions) (*models.Cohort, error) {
	sel = normalizeSelection(sel)
	if sel.GroupID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "group id is required")
	}

	var ticket *SelectionTicket
	if s.tracker != nil && opts.ViewID != "" {
		ctx, ticket = s.tracker.Begin(ctx, session.UserID+"|"+opts.ViewID)
		defer s.tracker.Done(ticket)
	}

	key := cohortCacheKey(session, sel)
	if !opts.Refresh {
		var cached models.Cohort
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	var (
		roster    []models.RosterEntry
		analytics []models.Analytics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roster, err = s.source.Roster(gctx, session, sel)
		return err
	})
	g.Go(func() error {
		var err error
		analytics, err = s.source.Analytics(gctx, session, sel)
		return err
	})
	err := g.Wait()

	if ticket != nil && !s.tracker.Current(ticket) {
		s.metrics.RecordStaleSelection()
		return nil, appErrors.ErrStaleSelection
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.logger.Warn("cohort fetch failed",
			zap.String("institution_id", session.InstitutionID),
			zap.String("group_id", sel.GroupID),
			zap.Error(err),
		)
		return nil, err
	}

	roster = performance.ScopeRoster(roster, sel.ProgramCode, sel.SemesterCode)
	cohort := &models.Cohort{
		Selection: sel,
		Students:  performance.Enrich(roster, analytics),
		FetchedAt: s.now().UTC(),
	}
	s.metrics.ObserveCohort(len(cohort.Students))

	if err := s.cache.Set(ctx, key, cohort, s.cacheTTL); err != nil {
		s.logger.Debug("cohort cache write skipped", zap.String("key", key), zap.Error(err))
	}
	return cohort, nil
}

// Report loads a cohort and returns every student that matches filter together with
// the whole-cohort summary.
func (s *CohortService) Report(ctx context.Context, session models.Session, sel models.CohortSelection, filter models.ReportFilter, opts LoadOptions) (*models.PerformanceReport, error) {
	cohort, err := s.Load(ctx, session, sel, opts)
	if err != nil {
		return nil, err
	}
	return BuildReport(cohort, filter), nil
}

// Student returns one student's performance within the selection.
func (s *CohortService) Student(ctx context.Context, session models.Session, sel models.CohortSelection, studentID string, opts LoadOptions) (*models.StudentPerformance, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	cohort, err := s.Load(ctx, session, sel, opts)
	if err != nil {
		return nil, err
	}
	entry, ok := performance.FindStudent(cohort.Students, studentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found in group", studentID))
	}
	return &models.StudentPerformance{Student: entry, Metrics: performance.Metrics(entry)}, nil
}

// Invalidate drops cached cohorts for an institution.
func (s *CohortService) Invalidate(ctx context.Context, institutionID string) error {
	return s.cache.Invalidate(ctx, "cohort:"+institutionID+":*")
}

// BuildReport derives the dashboard payload from an already loaded cohort.
func BuildReport(cohort *models.Cohort, filter models.ReportFilter) *models.PerformanceReport {
	matched := performance.Filter(cohort.Students, filter)
	rows := make([]models.StudentPerformance, 0, len(matched))
	for _, e := range matched {
		rows = append(rows, models.StudentPerformance{Student: e, Metrics: performance.Metrics(e)})
	}
	report := &models.PerformanceReport{
		Selection:    cohort.Selection,
		Summary:      performance.Summarize(cohort.Students),
		MatchedCount: len(rows),
		Students:     rows,
		FetchedAt:    cohort.FetchedAt,
	}
	if performance.Compile(filter).Active() {
		f := filter
		report.Filter = &f
	}
	return report
}

func normalizeSelection(sel models.CohortSelection) models.CohortSelection {
	return models.CohortSelection{
		GroupID:      strings.TrimSpace(sel.GroupID),
		ProgramCode:  strings.TrimSpace(sel.ProgramCode),
		SemesterCode: strings.TrimSpace(sel.SemesterCode),
	}
}

// cohortCacheKey scopes entries to the session token so a cached cohort is only served
// to credentials the institution API already accepted for it.
func cohortCacheKey(session models.Session, sel models.CohortSelection) string {
	sum := sha256.Sum256([]byte(session.Token))
	return "cohort:" + session.InstitutionID + ":" + hex.EncodeToString(sum[:8]) + ":" + sel.Key()
}
