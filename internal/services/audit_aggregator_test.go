package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

func rec(action models.Action, ts time.Time) models.AuditRecord {
	return models.AuditRecord{ActorUser: "alice", Action: action, Timestamp: ts}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestAggregator(source AuditSource) *AuditAggregator {
	return NewAuditAggregator(source, time.UTC, discardLogger())
}

func TestAuditAggregator_LoadRecords_SortsDescending(t *testing.T) {
	source := &MockBackend{ListAuditFunc: func(ctx context.Context) ([]models.AuditRecord, error) {
		return []models.AuditRecord{
			rec(models.ActionLogin, day(2024, 1, 1)),
			rec(models.ActionPrediction, day(2024, 1, 3)),
			rec(models.ActionDeleteUser, day(2024, 1, 2)),
		}, nil
	}}

	records, err := newTestAggregator(source).LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, models.ActionPrediction, records[0].Action)
	assert.Equal(t, models.ActionDeleteUser, records[1].Action)
	assert.Equal(t, models.ActionLogin, records[2].Action)
}

func TestAuditAggregator_LoadRecords_FetchError(t *testing.T) {
	cause := &models.NetworkError{Op: "list audit", Err: errors.New("refused")}
	source := &MockBackend{ListAuditFunc: func(ctx context.Context) ([]models.AuditRecord, error) {
		return nil, cause
	}}

	records, err := newTestAggregator(source).LoadRecords(context.Background())
	assert.Nil(t, records)

	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, cause)
}

func TestAuditAggregator_ApplyFilter(t *testing.T) {
	a := newTestAggregator(nil)
	records := []models.AuditRecord{
		rec(models.ActionLogin, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		rec(models.ActionLogin, time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC)),
		rec(models.ActionLogin, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		rec(models.ActionPrediction, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)),
	}
	jan1 := day(2024, 1, 1)
	jan2 := day(2024, 1, 2)

	tests := []struct {
		name   string
		filter models.ReportFilter
		want   int
	}{
		{"no filter", models.ReportFilter{Action: models.ActionAll}, 4},
		{"action only", models.ReportFilter{Action: models.ActionPrediction}, 1},
		{"single day inclusive", models.ReportFilter{Action: models.ActionAll, DateFrom: &jan1, DateTo: &jan1}, 2},
		{"from only", models.ReportFilter{Action: models.ActionAll, DateFrom: &jan2}, 1},
		{"to only", models.ReportFilter{Action: models.ActionAll, DateTo: &jan1}, 3},
		{"action and range", models.ReportFilter{Action: models.ActionPrediction, DateFrom: &jan1, DateTo: &jan2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, a.ApplyFilter(records, tt.filter), tt.want)
		})
	}
}

func TestAuditAggregator_ApplyFilter_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	a := NewAuditAggregator(nil, loc, discardLogger())

	// 2024-01-02 03:00 UTC is still 2024-01-01 in UTC-5
	records := []models.AuditRecord{rec(models.ActionLogin, time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC))}
	jan1 := day(2024, 1, 1)

	filtered := a.ApplyFilter(records, models.ReportFilter{Action: models.ActionAll, DateFrom: &jan1, DateTo: &jan1})
	assert.Len(t, filtered, 1)
	assert.Equal(t, []string{"1/1/2024"}, a.AggregateByDate(filtered).Labels)
}

func TestAggregateByDate_Scenario(t *testing.T) {
	a := newTestAggregator(nil)
	records := []models.AuditRecord{
		rec(models.ActionLogin, day(2024, 1, 2)),
		rec(models.ActionLogin, day(2024, 1, 1)),
		rec(models.ActionPrediction, day(2024, 1, 1)),
	}

	filtered := a.ApplyFilter(records, models.ReportFilter{Action: models.ActionLogin})
	series := a.Series(filtered, models.ReportFilter{Action: models.ActionLogin})

	assert.Equal(t, []string{"1/1/2024", "1/2/2024"}, series.Labels)
	assert.Equal(t, []int{1, 1}, series.Values)
}

func TestAggregateByAction_CanonicalOrder(t *testing.T) {
	records := []models.AuditRecord{
		rec(models.ActionPrediction, day(2024, 1, 1)),
		rec(models.ActionPrediction, day(2024, 1, 1)),
		rec(models.ActionLogin, day(2024, 1, 1)),
	}

	series := AggregateByAction(records, models.Actions)
	assert.Equal(t, []string{"create_user", "login", "update_user", "delete_user", "edit_history", "delete_history", "prediction"}, series.Labels)
	assert.Equal(t, []int{0, 1, 0, 0, 0, 0, 2}, series.Values)
}

func TestAggregateByAction_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		actions := rapid.SliceOf(rapid.SampledFrom(models.Actions)).Draw(t, "actions")
		records := make([]models.AuditRecord, len(actions))
		for i, action := range actions {
			records[i] = rec(action, day(2024, 1, 1))
		}

		series := AggregateByAction(records, models.Actions)

		labels := make([]string, len(models.Actions))
		for i, action := range models.Actions {
			labels[i] = string(action)
		}
		if !assert.ObjectsAreEqual(labels, series.Labels) {
			t.Fatalf("labels %v, want %v", series.Labels, labels)
		}
		if series.Total() != len(records) {
			t.Fatalf("total %d, want %d", series.Total(), len(records))
		}
	})
}

func TestApplyFilter_SingleDayProperty(t *testing.T) {
	a := newTestAggregator(nil)
	today := day(2024, 6, 15)

	rapid.Check(t, func(t *rapid.T) {
		offsets := rapid.SliceOf(rapid.IntRange(-3*24*60, 3*24*60)).Draw(t, "offsetMinutes")
		records := make([]models.AuditRecord, len(offsets))
		for i, m := range offsets {
			records[i] = rec(models.ActionLogin, today.Add(time.Duration(m)*time.Minute))
		}

		filtered := a.ApplyFilter(records, models.ReportFilter{Action: models.ActionAll, DateFrom: &today, DateTo: &today})

		want := 0
		for _, r := range records {
			if r.Timestamp.Format("2006-01-02") == "2024-06-15" {
				want++
			}
		}
		if len(filtered) != want {
			t.Fatalf("kept %d records, want %d", len(filtered), want)
		}
		for _, r := range filtered {
			if r.Timestamp.Format("2006-01-02") != "2024-06-15" {
				t.Fatalf("record at %s outside the selected day", r.Timestamp)
			}
		}
	})
}

func TestColors(t *testing.T) {
	assert.Empty(t, Colors(0))
	assert.Equal(t, []string{"#4F91F3", "#FF6384"}, Colors(2))

	cycled := Colors(len(Palette) + 2)
	assert.Len(t, cycled, len(Palette)+2)
	assert.Equal(t, Palette[0], cycled[len(Palette)])
	assert.Equal(t, Palette[1], cycled[len(Palette)+1])
}

func TestDatasetLabel(t *testing.T) {
	assert.Equal(t, "Total by Action", DatasetLabel(models.ActionAll))
	assert.Equal(t, `Occurrences of "login"`, DatasetLabel(models.ActionLogin))
}
