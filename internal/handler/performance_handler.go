package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/performance-report-api/internal/dto"
	"github.com/noah-isme/performance-report-api/internal/middleware"
	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/internal/service"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
	"github.com/noah-isme/performance-report-api/pkg/response"
)

type performanceService interface {
	Groups(ctx context.Context, session models.Session) ([]models.Group, error)
	Report(ctx context.Context, session models.Session, sel models.CohortSelection, filter models.ReportFilter, opts service.LoadOptions) (*models.PerformanceReport, error)
	Student(ctx context.Context, session models.Session, sel models.CohortSelection, studentID string, opts service.LoadOptions) (*models.StudentPerformance, error)
	Invalidate(ctx context.Context, institutionID string) error
}

// PerformanceHandler serves the dashboard's performance views.
type PerformanceHandler struct {
	service performanceService
}

// NewPerformanceHandler constructs the handler.
func NewPerformanceHandler(service performanceService) *PerformanceHandler {
	return &PerformanceHandler{service: service}
}

// Groups godoc
// @Summary List groups
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /groups [get]
func (h *PerformanceHandler) Groups(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	groups, err := h.service.Groups(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "count", len(groups))
	response.JSON(c, http.StatusOK, groups, middleware.ExtractMeta(c))
}

// Performance godoc
// @Summary Group performance
// @Description Every student in the group with derived metrics and the cohort summary.
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Param groupId path string true "Group ID"
// @Param program_code query string false "Program code"
// @Param semester_code query string false "Semester code"
// @Param refresh query bool false "Bypass the cohort cache"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /groups/{groupId}/performance [get]
func (h *PerformanceHandler) Performance(c *gin.Context) {
	h.report(c, false)
}

// Report godoc
// @Summary Filtered performance report
// @Description Students matching every supplied criterion. The summary always covers the whole cohort.
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Param groupId path string true "Group ID"
// @Param program_code query string false "Program code"
// @Param semester_code query string false "Semester code"
// @Param percentage_min query string false "Minimum percentage"
// @Param percentage_max query string false "Maximum percentage"
// @Param marks_min query string false "Minimum total marks"
// @Param marks_max query string false "Maximum total marks"
// @Param assignment_status query string false "reviewed, submitted or not_submitted"
// @Param performance_category query string false "excellent, good, average, below_average or poor"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /groups/{groupId}/performance/report [get]
func (h *PerformanceHandler) Report(c *gin.Context) {
	h.report(c, true)
}

func (h *PerformanceHandler) report(c *gin.Context, filtered bool) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.PerformanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	filter := models.ReportFilter{}
	if filtered {
		filter = query.ReportFilter
	}
	report, err := h.service.Report(c.Request.Context(), session, query.Selection(c.Param("groupId")), filter, loadOptions(c, query.Refresh))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "matched_count", report.MatchedCount)
	middleware.SetMeta(c, "student_count", report.Summary.StudentCount)
	response.JSON(c, http.StatusOK, report, middleware.ExtractMeta(c))
}

// Student godoc
// @Summary Student performance
// @Tags Performance
// @Produce json
// @Security BearerAuth
// @Param groupId path string true "Group ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /groups/{groupId}/students/{studentId}/performance [get]
func (h *PerformanceHandler) Student(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.PerformanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	studentID := strings.TrimSpace(c.Param("studentId"))
	result, err := h.service.Student(c.Request.Context(), session, query.Selection(c.Param("groupId")), studentID, loadOptions(c, query.Refresh))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// InvalidateCache godoc
// @Summary Drop cached cohorts
// @Description Clears every cached cohort of the caller's institution.
// @Tags Performance
// @Security BearerAuth
// @Success 204
// @Router /admin/cache/invalidate [post]
func (h *PerformanceHandler) InvalidateCache(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Invalidate(c.Request.Context(), session.InstitutionID); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate cohort cache"))
		return
	}
	c.Status(http.StatusNoContent)
}
