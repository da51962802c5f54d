// Package export renders console data as downloadable spreadsheets and PDF documents
package export

import (
	"strings"
	"time"

	"github.com/espe-ciber/sentinel-console/internal/models"
)

// Table is a rectangular set of display strings with a header row
type Table struct {
	Columns []string
	Rows    [][]string
}

// FromRecords builds a table from ordered records. Excluded keys are dropped
// (case-insensitive). Columns follow the key order of the records, with keys
// first seen in later records appended at the end.
func FromRecords(records []models.OrderedRecord, excluded []string) Table {
	stripped := make([]models.OrderedRecord, len(records))
	var columns []string
	seen := make(map[string]bool)
	for i, r := range records {
		stripped[i] = r.Without(excluded...)
		for _, key := range stripped[i].Keys() {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}

	rows := make([][]string, len(stripped))
	for i, r := range stripped {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = r.String(col)
		}
		rows[i] = row
	}
	return Table{Columns: columns, Rows: rows}
}

// AuditColumns is the column set for audit exports
var AuditColumns = []string{"User", "Action", "Affected User", "Detail", "Date", "IP"}

// AuditTable lays audit records out as AuditColumns. Dates are shown in loc.
func AuditTable(records []models.AuditRecord, loc *time.Location) Table {
	if loc == nil {
		loc = time.Local
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		date := ""
		if !r.Timestamp.IsZero() {
			date = r.Timestamp.In(loc).Format("2006-01-02 15:04:05")
		}
		rows[i] = []string{
			r.ActorUser,
			string(r.Action),
			deref(r.AffectedUser),
			deref(r.Detail),
			date,
			deref(r.SourceIP),
		}
	}
	return Table{Columns: append([]string(nil), AuditColumns...), Rows: rows}
}

// WithoutColumns drops the named columns (case-insensitive)
func (t Table) WithoutColumns(names ...string) Table {
	keep := make([]int, 0, len(t.Columns))
	for i, col := range t.Columns {
		drop := false
		for _, name := range names {
			if strings.EqualFold(strings.TrimSpace(col), name) {
				drop = true
				break
			}
		}
		if !drop {
			keep = append(keep, i)
		}
	}

	out := Table{Columns: make([]string, len(keep)), Rows: make([][]string, len(t.Rows))}
	for j, idx := range keep {
		out.Columns[j] = t.Columns[idx]
	}
	for i, row := range t.Rows {
		out.Rows[i] = make([]string, len(keep))
		for j, idx := range keep {
			if idx < len(row) {
				out.Rows[i][j] = row[idx]
			}
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
