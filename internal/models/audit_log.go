package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Action is the kind of operation an audit record describes
type Action string

const (
	ActionCreateUser    Action = "create_user"
	ActionLogin         Action = "login"
	ActionUpdateUser    Action = "update_user"
	ActionDeleteUser    Action = "delete_user"
	ActionEditHistory   Action = "edit_history"
	ActionDeleteHistory Action = "delete_history"
	ActionPrediction    Action = "prediction"

	// ActionAll selects every action in a ReportFilter
	ActionAll Action = "All"
)

// Actions is the canonical action enumeration. Aggregations follow this order.
var Actions = []Action{
	ActionCreateUser,
	ActionLogin,
	ActionUpdateUser,
	ActionDeleteUser,
	ActionEditHistory,
	ActionDeleteHistory,
	ActionPrediction,
}

// ParseAction maps a query value to an Action. Empty means ActionAll.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(ActionAll)) {
		return ActionAll, nil
	}
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrBadRequest, s)
}

// AuditRecord is one entry of the backend's audit log. Read-only here.
type AuditRecord struct {
	ActorUser    string    `json:"usuario"`
	Action       Action    `json:"accion"`
	AffectedUser *string   `json:"usuario_afectado,omitempty"`
	Detail       *string   `json:"detalle,omitempty"`
	Timestamp    time.Time `json:"fecha"`
	SourceIP     *string   `json:"ip,omitempty"`
}

type auditRecordWire struct {
	Usuario         string  `json:"usuario"`
	UsuarioActor    string  `json:"usuario_actor"`
	Accion          string  `json:"accion"`
	UsuarioAfectado *string `json:"usuario_afectado"`
	Detalle         *string `json:"detalle"`
	Fecha           string  `json:"fecha"`
	IP              *string `json:"ip"`
}

// UnmarshalJSON accepts both actor field spellings the backend has used and
// the timestamp layouts it emits.
func (r *AuditRecord) UnmarshalJSON(data []byte) error {
	var w auditRecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	actor := w.Usuario
	if actor == "" {
		actor = w.UsuarioActor
	}
	if actor == "" {
		actor = "unknown"
	}

	var ts time.Time
	if w.Fecha != "" {
		parsed, err := ParseTimestamp(w.Fecha)
		if err != nil {
			return err
		}
		ts = parsed
	}

	*r = AuditRecord{
		ActorUser:    actor,
		Action:       Action(w.Accion),
		AffectedUser: nonEmpty(w.UsuarioAfectado),
		Detail:       nonEmpty(w.Detalle),
		Timestamp:    ts,
		SourceIP:     nonEmpty(w.IP),
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats produced by the backend.
// Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// ChartKind selects how an AggregatedSeries is drawn
type ChartKind string

const (
	ChartBar ChartKind = "bar"
	ChartPie ChartKind = "pie"
)

// ParseChartKind maps a query value to a ChartKind. Empty means bar.
func ParseChartKind(s string) (ChartKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ChartBar):
		return ChartBar, nil
	case string(ChartPie):
		return ChartPie, nil
	default:
		return "", fmt.Errorf("%w: unknown chart kind %q", ErrBadRequest, s)
	}
}

// ReportFilter narrows audit records for tables, charts and exports.
// DateFrom and DateTo are calendar dates; only their year/month/day are used.
type ReportFilter struct {
	Action    Action     `json:"action"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	ChartKind ChartKind  `json:"chart"`
}

// AggregatedSeries is a chart-ready label/value sequence
type AggregatedSeries struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// Total sums all values
func (s AggregatedSeries) Total() int {
	total := 0
	for _, v := range s.Values {
		total += v
	}
	return total
}
