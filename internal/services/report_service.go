package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/espe-ciber/sentinel-console/internal/export"
	"github.com/espe-ciber/sentinel-console/internal/metrics"
	"github.com/espe-ciber/sentinel-console/internal/models"
	pkglogger "github.com/espe-ciber/sentinel-console/pkg/logger"
)

const (
	DashboardTitle = "Reports & Dashboard"
	HistoryTitle   = "Message Classification History"

	fetchWarning = "Unable to load audit records. Showing no data."
)

// Dashboard is the chart-ready view of the audit log for one filter
type Dashboard struct {
	Filter       models.ReportFilter     `json:"filter"`
	Series       models.AggregatedSeries `json:"series"`
	Colors       []string                `json:"colors"`
	DatasetLabel string                  `json:"dataset_label"`
	Total        int                     `json:"total"`
	Records      []models.AuditRecord    `json:"records"`
	Warning      string                  `json:"warning,omitempty"`
}

// AuditView is the filtered audit table
type AuditView struct {
	Records []models.AuditRecord `json:"records"`
	Warning string               `json:"warning,omitempty"`
}

// ReportService builds dashboards and exports and delivers reports
type ReportService struct {
	aggregator *AuditAggregator
	history    *HistoryService
	mailer     ReportMailer
	excluded   []string
	logger     *slog.Logger
	actions    *pkglogger.ActionLogger
	now        func() time.Time
}

// NewReportService wires reporting. mailer may be nil when e-mail delivery is not configured.
func NewReportService(aggregator *AuditAggregator, history *HistoryService, mailer ReportMailer, excluded []string, logger *slog.Logger) *ReportService {
	return &ReportService{
		aggregator: aggregator,
		history:    history,
		mailer:     mailer,
		excluded:   excluded,
		logger:     logger,
		actions:    pkglogger.NewActionLogger(logger),
		now:        time.Now,
	}
}

// Audit returns filtered audit records. A fetch failure yields an empty
// view with a warning rather than an error.
func (s *ReportService) Audit(ctx context.Context, filter models.ReportFilter) AuditView {
	records, err := s.aggregator.LoadRecords(ctx)
	if err != nil {
		return AuditView{Records: []models.AuditRecord{}, Warning: fetchWarning}
	}
	return AuditView{Records: s.aggregator.ApplyFilter(records, filter)}
}

// Dashboard aggregates filtered records into a chart series. A fetch failure
// yields an empty dashboard with a warning.
func (s *ReportService) Dashboard(ctx context.Context, filter models.ReportFilter) *Dashboard {
	view := s.Audit(ctx, filter)
	return s.dashboardFrom(view, filter)
}

func (s *ReportService) dashboardFrom(view AuditView, filter models.ReportFilter) *Dashboard {
	series := s.aggregator.Series(view.Records, filter)
	return &Dashboard{
		Filter:       filter,
		Series:       series,
		Colors:       Colors(len(series.Labels)),
		DatasetLabel: DatasetLabel(filter.Action),
		Total:        len(view.Records),
		Records:      view.Records,
		Warning:      view.Warning,
	}
}

// DashboardPDF renders the dashboard: metadata, chart and records table.
// Unlike the on-screen view, an export of unloadable data fails with *models.FetchError.
func (s *ReportService) DashboardPDF(ctx context.Context, filter models.ReportFilter) (*Attachment, error) {
	records, err := s.aggregator.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	d := s.dashboardFrom(AuditView{Records: s.aggregator.ApplyFilter(records, filter)}, filter)

	data, err := export.ToDocument(export.Document{
		Title:    DashboardTitle,
		Metadata: s.dashboardMetadata(d),
		Chart: &export.Chart{
			Kind:   filter.ChartKind,
			Label:  d.DatasetLabel,
			Series: d.Series,
			Colors: d.Colors,
		},
		Table: export.AuditTable(d.Records, s.aggregator.Location()),
	})
	s.recordExport(ctx, export.FormatPDF, "dashboard", err)
	if err != nil {
		return nil, err
	}

	return &Attachment{
		Filename:    export.Filename("dashboard", string(filter.Action), s.now().In(s.aggregator.Location()), export.FormatPDF),
		ContentType: export.ContentTypePDF,
		Data:        data,
	}, nil
}

func (s *ReportService) dashboardMetadata(d *Dashboard) []string {
	loc := s.aggregator.Location()
	return []string{
		"Action filter: " + string(d.Filter.Action),
		"Date from: " + dateOrNA(d.Filter.DateFrom),
		"Date to: " + dateOrNA(d.Filter.DateTo),
		"Chart type: " + string(d.Filter.ChartKind),
		fmt.Sprintf("Total records: %d", d.Total),
		"Generated at: " + s.now().In(loc).Format("2006-01-02 15:04:05"),
	}
}

// AuditSpreadsheet exports filtered audit records as xlsx
func (s *ReportService) AuditSpreadsheet(ctx context.Context, filter models.ReportFilter) (*Attachment, error) {
	records, err := s.aggregator.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	filtered := s.aggregator.ApplyFilter(records, filter)

	data, err := export.ToSpreadsheet("Auditoria", export.AuditTable(filtered, s.aggregator.Location()))
	s.recordExport(ctx, export.FormatXLSX, "audit", err)
	if err != nil {
		return nil, err
	}

	return &Attachment{
		Filename:    export.Filename("auditoria", string(filter.Action), s.now().In(s.aggregator.Location()), export.FormatXLSX),
		ContentType: export.ContentTypeXLSX,
		Data:        data,
	}, nil
}

// HistorySpreadsheet exports history entries with the excluded fields stripped
func (s *ReportService) HistorySpreadsheet(ctx context.Context, classification string) (*Attachment, error) {
	table, err := s.historyTable(ctx, classification)
	if err != nil {
		return nil, err
	}

	data, err := export.ToSpreadsheet("Historial", table)
	s.recordExport(ctx, export.FormatXLSX, "history", err)
	if err != nil {
		return nil, err
	}

	return &Attachment{
		Filename:    export.Filename("historial_mensajes", filterLabel(classification), s.now().In(s.aggregator.Location()), export.FormatXLSX),
		ContentType: export.ContentTypeXLSX,
		Data:        data,
	}, nil
}

// HistoryPDF exports history entries as a PDF table
func (s *ReportService) HistoryPDF(ctx context.Context, classification string) (*Attachment, error) {
	table, err := s.historyTable(ctx, classification)
	if err != nil {
		return nil, err
	}

	data, err := export.ToDocument(export.Document{
		Title: HistoryTitle,
		Metadata: []string{
			"Classification filter: " + filterLabel(classification),
			fmt.Sprintf("Total records: %d", len(table.Rows)),
			"Generated at: " + s.now().In(s.aggregator.Location()).Format("2006-01-02 15:04:05"),
		},
		Table: table,
	})
	s.recordExport(ctx, export.FormatPDF, "history", err)
	if err != nil {
		return nil, err
	}

	return &Attachment{
		Filename:    export.Filename("historial_mensajes", filterLabel(classification), s.now().In(s.aggregator.Location()), export.FormatPDF),
		ContentType: export.ContentTypePDF,
		Data:        data,
	}, nil
}

func (s *ReportService) historyTable(ctx context.Context, classification string) (export.Table, error) {
	records, err := s.history.List(ctx, classification)
	if err != nil {
		return export.Table{}, err
	}
	return export.FromRecords(records, s.excluded).WithoutColumns("actions"), nil
}

// EmailDashboard renders the dashboard PDF and sends it to recipient
func (s *ReportService) EmailDashboard(ctx context.Context, actor *models.Session, recipient string, filter models.ReportFilter) error {
	if s.mailer == nil {
		return models.ErrDeliveryDisabled
	}

	att, err := s.DashboardPDF(ctx, filter)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Attached is the %s report (action filter: %s), generated %s.",
		DashboardTitle, filter.Action, s.now().In(s.aggregator.Location()).Format("2006-01-02 15:04"))
	err = s.mailer.SendReport(ctx, recipient, DashboardTitle, body, *att)

	event := pkglogger.ActionEvent{
		Action:   "email_report",
		Success:  err == nil,
		Reason:   errorReason(err),
		Metadata: map[string]string{"recipient": pkglogger.SanitizedEmail(recipient), "file": att.Filename},
	}
	if actor != nil {
		event.Username = actor.Username
	}
	s.actions.Log(ctx, event)
	return err
}

func (s *ReportService) recordExport(ctx context.Context, format, report string, err error) {
	metrics.ExportsTotal.WithLabelValues(format, metrics.Result(err)).Inc()
	if err != nil {
		var exportErr *models.ExportError
		if !errors.As(err, &exportErr) {
			err = &models.ExportError{Format: format, Err: err}
		}
		s.logger.Error("export failed", slog.String("report", report), slog.Any("error", err))
	}
}

func dateOrNA(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format("2006-01-02")
}

func filterLabel(s string) string {
	if s == "" {
		return string(models.ActionAll)
	}
	return s
}
