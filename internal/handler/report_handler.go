package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-report-api/internal/dto"
	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/internal/service"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
	"github.com/noah-isme/performance-report-api/pkg/response"
)

type reportRenderer interface {
	Render(ctx context.Context, session models.Session, reportType models.ReportType, params models.ReportJobParams) (*service.RenderedReport, error)
}

type reportJobs interface {
	CreateJob(ctx context.Context, session models.Session, req dto.ReportRequest) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, session models.Session, id string) (*dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes report export endpoints. jobs is nil when background
// generation is disabled.
type ReportHandler struct {
	exports  reportRenderer
	jobs     reportJobs
	validate *validator.Validate
	logger   *zap.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(exports reportRenderer, jobs reportJobs, validate *validator.Validate, logger *zap.Logger) *ReportHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{exports: exports, jobs: jobs, validate: validate, logger: logger}
}

// Export godoc
// @Summary Export a report
// @Description Renders the report synchronously and returns the file.
// @Tags Reports
// @Accept json
// @Produce application/pdf,text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param payload body dto.ReportRequest true "Report request"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /reports/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}
	rendered, err := h.exports.Render(c.Request.Context(), session, req.Type, req.Params())
	if err != nil {
		if appErrors.FromError(err).Status >= http.StatusInternalServerError {
			h.logger.Warn("report export failed",
				zap.String("type", string(req.Type)),
				zap.String("format", string(req.Format)),
				zap.Error(err),
			)
		}
		response.Error(c, err)
		return
	}
	response.Attachment(c, rendered.Filename, rendered.ContentType(), rendered.Data)
}

// CreateJob godoc
// @Summary Queue a report job
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/jobs [post]
func (h *ReportHandler) CreateJob(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.ErrFeatureOff)
		return
	}
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// JobStatus godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/jobs/{id} [get]
func (h *ReportHandler) JobStatus(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.ErrFeatureOff)
		return
	}
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.jobs.GetStatus(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// Download godoc
// @Summary Download a finished report
// @Tags Reports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.ErrFeatureOff)
		return
	}
	download, err := h.jobs.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}
	c.Header("Cache-Control", "private, max-age=0")
	c.DataFromReader(http.StatusOK, info.Size(), download.Format.ContentType(), io.Reader(download.File), map[string]string{
		"Content-Disposition": response.ContentDisposition(download.Filename),
		"X-Expires-At":        strconv.FormatInt(download.ExpiresAt.Unix(), 10),
	})
}

func (h *ReportHandler) bindRequest(c *gin.Context) (dto.ReportRequest, bool) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload"))
		return req, false
	}
	if err := service.ValidateRequest(h.validate, req); err != nil {
		response.Error(c, err)
		return req, false
	}
	return req, true
}
