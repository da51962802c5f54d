package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/espe-ciber/sentinel-console/internal/auth"
	"github.com/espe-ciber/sentinel-console/internal/export"
	"github.com/espe-ciber/sentinel-console/internal/models"
	"github.com/espe-ciber/sentinel-console/internal/services"
	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

const dateLayout = "2006-01-02"

// ReportServiceInterface is the audit/dashboard logic used by ReportHandler
type ReportServiceInterface interface {
	Audit(ctx context.Context, filter models.ReportFilter) services.AuditView
	Dashboard(ctx context.Context, filter models.ReportFilter) *services.Dashboard
	DashboardPDF(ctx context.Context, filter models.ReportFilter) (*services.Attachment, error)
	AuditSpreadsheet(ctx context.Context, filter models.ReportFilter) (*services.Attachment, error)
	EmailDashboard(ctx context.Context, actor *models.Session, recipient string, filter models.ReportFilter) error
}

// ReportHandler serves the audit log, the dashboard and their exports (admin only)
type ReportHandler struct {
	service ReportServiceInterface
	logger  *slog.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{service: service, logger: logger}
}

// EmailDashboardRequest represents the request body for e-mailing the dashboard PDF
type EmailDashboardRequest struct {
	Recipient string `json:"recipient" validate:"required,email"`
	Action    string `json:"action"`
	From      string `json:"from"`
	To        string `json:"to"`
	Chart     string `json:"chart"`
}

// Audit handles GET /api/audit?action=&from=&to=
func (h *ReportHandler) Audit(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.queryFilter(w, r)
	if !ok {
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, h.service.Audit(r.Context(), filter))
}

// AuditExport handles GET /api/audit/export.xlsx
func (h *ReportHandler) AuditExport(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.queryFilter(w, r)
	if !ok {
		return
	}
	att, err := h.service.AuditSpreadsheet(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, err, msgFetchFailed)
		return
	}
	writeAttachment(w, att)
}

// Dashboard handles GET /api/dashboard?action=&from=&to=&chart=
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.queryFilter(w, r)
	if !ok {
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, h.service.Dashboard(r.Context(), filter))
}

// DashboardPDF handles GET /api/dashboard/export.pdf
func (h *ReportHandler) DashboardPDF(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.queryFilter(w, r)
	if !ok {
		return
	}
	att, err := h.service.DashboardPDF(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, err, msgFetchFailed)
		return
	}
	writeAttachment(w, att)
}

// EmailDashboard handles POST /api/dashboard/email
func (h *ReportHandler) EmailDashboard(w http.ResponseWriter, r *http.Request) {
	var req EmailDashboardRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	filter, err := ParseReportFilter(req.Action, req.From, req.To, req.Chart)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err = h.service.EmailDashboard(r.Context(), auth.GetSessionFromContext(r.Context()), strings.TrimSpace(req.Recipient), filter)
	if err != nil {
		writeServiceError(w, h.logger, err, msgFetchFailed)
		return
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "Report sent"})
}

func (h *ReportHandler) queryFilter(w http.ResponseWriter, r *http.Request) (models.ReportFilter, bool) {
	q := r.URL.Query()
	filter, err := ParseReportFilter(q.Get("action"), q.Get("from"), q.Get("to"), q.Get("chart"))
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return models.ReportFilter{}, false
	}
	return filter, true
}

// ParseReportFilter builds a filter from raw query values. Dates are YYYY-MM-DD;
// blank values leave that bound open.
func ParseReportFilter(action, from, to, chart string) (models.ReportFilter, error) {
	var filter models.ReportFilter
	var err error

	if filter.Action, err = models.ParseAction(action); err != nil {
		return filter, err
	}
	if filter.ChartKind, err = models.ParseChartKind(chart); err != nil {
		return filter, err
	}
	if filter.DateFrom, err = parseDate("from", from); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parseDate("to", to); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseDate(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a date in YYYY-MM-DD format", models.ErrBadRequest, name)
	}
	return &t, nil
}

func writeAttachment(w http.ResponseWriter, att *services.Attachment) {
	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Disposition", export.ContentDisposition(att.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(att.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(att.Data)
}
