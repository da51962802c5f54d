package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

// dateLabelLayout renders chart labels as month/day/year without padding
const dateLabelLayout = "1/2/2006"

// Palette is cycled over chart labels in order
var Palette = []string{
	"#4F91F3", "#FF6384", "#36D399", "#FFA07A", "#FF6F91", "#A66DD4", "#FF85E1",
	"#6EE7B7", "#FFD700", "#3DA5D9", "#B8E986", "#E4B7EB", "#00C49A", "#5EDFFF",
}

// AuditSource lists the backend's audit records
type AuditSource interface {
	ListAudit(ctx context.Context) ([]models.AuditRecord, error)
}

// AuditAggregator loads, filters and aggregates audit records into chart series.
// Calendar-day boundaries and date labels use the configured location.
type AuditAggregator struct {
	source AuditSource
	loc    *time.Location
	logger *slog.Logger
}

func NewAuditAggregator(source AuditSource, loc *time.Location, logger *slog.Logger) *AuditAggregator {
	if loc == nil {
		loc = time.Local
	}
	return &AuditAggregator{source: source, loc: loc, logger: logger}
}

// Location returns the zone used for day boundaries and labels
func (a *AuditAggregator) Location() *time.Location {
	return a.loc
}

// LoadRecords fetches every audit record, most recent first.
// Any backend failure is returned as *models.FetchError.
func (a *AuditAggregator) LoadRecords(ctx context.Context) ([]models.AuditRecord, error) {
	records, err := a.source.ListAudit(ctx)
	if err != nil {
		a.logger.Warn("failed to load audit records", slog.String("error", err.Error()))
		return nil, &models.FetchError{Err: err}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

// ApplyFilter keeps records matching the action and falling inside the
// inclusive [start of DateFrom, end of DateTo] range. Input order is kept.
func (a *AuditAggregator) ApplyFilter(records []models.AuditRecord, filter models.ReportFilter) []models.AuditRecord {
	var from, until time.Time
	if filter.DateFrom != nil {
		from = a.startOfDay(*filter.DateFrom)
	}
	if filter.DateTo != nil {
		until = a.startOfDay(*filter.DateTo).AddDate(0, 0, 1)
	}

	out := make([]models.AuditRecord, 0, len(records))
	for _, r := range records {
		if filter.Action != models.ActionAll && filter.Action != "" && r.Action != filter.Action {
			continue
		}
		if filter.DateFrom != nil && r.Timestamp.Before(from) {
			continue
		}
		if filter.DateTo != nil && !r.Timestamp.Before(until) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// startOfDay is midnight of d's calendar date in the aggregator's location
func (a *AuditAggregator) startOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, a.loc)
}

// AggregateByAction counts records per action in the order of actions.
// Records with other actions are not counted.
func AggregateByAction(records []models.AuditRecord, actions []models.Action) models.AggregatedSeries {
	counts := make(map[models.Action]int, len(actions))
	for _, r := range records {
		counts[r.Action]++
	}

	series := models.AggregatedSeries{
		Labels: make([]string, 0, len(actions)),
		Values: make([]int, 0, len(actions)),
	}
	for _, action := range actions {
		if action == models.ActionAll {
			continue
		}
		series.Labels = append(series.Labels, string(action))
		series.Values = append(series.Values, counts[action])
	}
	return series
}

// AggregateByDate counts records per calendar date, oldest date first
func (a *AuditAggregator) AggregateByDate(records []models.AuditRecord) models.AggregatedSeries {
	counts := make(map[time.Time]int)
	for _, r := range records {
		counts[a.startOfDay(r.Timestamp.In(a.loc))]++
	}

	days := make([]time.Time, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	series := models.AggregatedSeries{
		Labels: make([]string, len(days)),
		Values: make([]int, len(days)),
	}
	for i, day := range days {
		series.Labels[i] = day.Format(dateLabelLayout)
		series.Values[i] = counts[day]
	}
	return series
}

// Series picks the aggregation for the filter: per action for All, per date otherwise
func (a *AuditAggregator) Series(filtered []models.AuditRecord, filter models.ReportFilter) models.AggregatedSeries {
	if filter.Action == models.ActionAll || filter.Action == "" {
		return AggregateByAction(filtered, models.Actions)
	}
	return a.AggregateByDate(filtered)
}

// Colors cycles the palette to exactly n entries
func Colors(n int) []string {
	colors := make([]string, n)
	for i := range colors {
		colors[i] = Palette[i%len(Palette)]
	}
	return colors
}

// DatasetLabel names the chart dataset for the selected action
func DatasetLabel(action models.Action) string {
	if action == models.ActionAll || action == "" {
		return "Total by Action"
	}
	return fmt.Sprintf("Occurrences of %q", string(action))
}
