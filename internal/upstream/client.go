// Package upstream talks to the institution REST API that owns groups, rosters and
// per-student analytics.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/performance-report-api/internal/models"
	"github.com/noah-isme/performance-report-api/pkg/config"
	appErrors "github.com/noah-isme/performance-report-api/pkg/errors"
)

const maxBodyBytes = 16 << 20

type fetchObserver interface {
	ObserveUpstreamFetch(endpoint string, status int, duration time.Duration)
}

// Client fetches institution data on behalf of an authenticated session.
type Client struct {
	baseURL string
	http    *http.Client
	metrics fetchObserver
	logger  *zap.Logger
}

// NewClient constructs a Client with the configured base URL and timeout.
func NewClient(cfg config.UpstreamConfig, metrics fetchObserver, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  logger,
	}
}

// Groups lists the groups visible to the session's institution.
func (c *Client) Groups(ctx context.Context, session models.Session) ([]models.Group, error) {
	var items []groupItem
	if err := c.get(ctx, session, "groups", c.institutionPath(session, "groups"), nil, &items); err != nil {
		return nil, err
	}
	groups := make([]models.Group, 0, len(items))
	for _, item := range items {
		groups = append(groups, item.toModel())
	}
	return groups, nil
}

// Roster returns the students enrolled in a group in upstream order.
func (c *Client) Roster(ctx context.Context, session models.Session, sel models.CohortSelection) ([]models.RosterEntry, error) {
	if strings.TrimSpace(sel.GroupID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "group id is required")
	}
	path := c.institutionPath(session, "groups", sel.GroupID, "students")
	var items []rosterItem
	if err := c.get(ctx, session, "roster", path, selectionQuery(sel), &items); err != nil {
		return nil, err
	}
	return rosterModels(items), nil
}

// Analytics returns per-student analytics for a group.
func (c *Client) Analytics(ctx context.Context, session models.Session, sel models.CohortSelection) ([]models.Analytics, error) {
	if strings.TrimSpace(sel.GroupID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "group id is required")
	}
	path := c.institutionPath(session, "groups", sel.GroupID, "analytics")
	var items []analyticsItem
	if err := c.get(ctx, session, "analytics", path, selectionQuery(sel), &items); err != nil {
		return nil, err
	}
	return analyticsModels(items), nil
}

func (c *Client) institutionPath(session models.Session, segments ...string) string {
	parts := make([]string, 0, len(segments)+2)
	parts = append(parts, "institutions", url.PathEscape(session.InstitutionID))
	for _, segment := range segments {
		parts = append(parts, url.PathEscape(segment))
	}
	return c.baseURL + "/" + strings.Join(parts, "/")
}

func selectionQuery(sel models.CohortSelection) url.Values {
	query := url.Values{}
	if sel.ProgramCode != "" {
		query.Set("program_code", sel.ProgramCode)
	}
	if sel.SemesterCode != "" {
		query.Set("semester_code", sel.SemesterCode)
	}
	return query
}

func (c *Client) get(ctx context.Context, session models.Session, endpoint, target string, query url.Values, dest interface{}) error {
	if !session.Valid() {
		return appErrors.Clone(appErrors.ErrUnauthorized, "session token and institution are required")
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "build institution API request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.Token)
	req.Header.Set("X-Institution-ID", session.InstitutionID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "institution API timed out")
		}
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.observe(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read institution API response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("institution API returned error status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return statusError(endpoint, resp.StatusCode)
	}

	if err := decodeCollection(body, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("decode %s response", endpoint))
	}
	return nil
}

func statusError(endpoint string, status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return appErrors.Clone(appErrors.ErrUnauthorized, "institution API rejected the session")
	case http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", endpoint))
	default:
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("institution API %s request failed with status %d", endpoint, status))
	}
}

func (c *Client) observe(endpoint string, status int, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveUpstreamFetch(endpoint, status, duration)
}
