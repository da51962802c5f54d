package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Classification labels produced by the backend model
const (
	ClassificationNormal        = "Normal"
	ClassificationCibersexting  = "Cibersexting"
	ClassificationCiberGrooming = "CiberGrooming"
)

// Classifications lists the labels an editor may assign
var Classifications = []string{
	ClassificationNormal,
	ClassificationCibersexting,
	ClassificationCiberGrooming,
}

// Advisory is the guidance shown next to a classification result
type Advisory struct {
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
	Caution        string `json:"caution"`
}

// AdvisoryFor returns the guidance for a classification label. Unknown labels get an empty advisory.
func AdvisoryFor(label string) Advisory {
	switch label {
	case ClassificationNormal:
		return Advisory{
			Severity:       "safe",
			Recommendation: "Message seems safe.",
			Caution:        "✅ All clear! No issues detected.",
		}
	case ClassificationCibersexting:
		return Advisory{
			Severity:       "warning",
			Recommendation: "Be cautious: possible sexting detected.",
			Caution:        "⚠️ Warning: Potential Cibersexting detected. Please be careful.",
		}
	case ClassificationCiberGrooming:
		return Advisory{
			Severity:       "critical",
			Recommendation: "Warning! Potential grooming detected. Stay alert.",
			Caution:        "⚠️ This is a serious alert. Please take immediate precautions.",
		}
	default:
		return Advisory{Severity: "unknown"}
	}
}

// HistoryUpdate is the editable part of a history entry
type HistoryUpdate struct {
	TextoOriginal string `json:"texto_original"`
	Clasificacion string `json:"clasificacion"`
}

// Field is one key/value pair of an OrderedRecord
type Field struct {
	Key   string
	Value json.RawMessage
}

// OrderedRecord is a JSON object that remembers the order its keys arrived in.
// Exports lay out columns in that order.
type OrderedRecord struct {
	fields []Field
}

// NewOrderedRecord builds a record from key/value pairs. Values are JSON-encoded.
func NewOrderedRecord(pairs ...any) (OrderedRecord, error) {
	if len(pairs)%2 != 0 {
		return OrderedRecord{}, fmt.Errorf("odd number of key/value arguments")
	}
	var r OrderedRecord
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return OrderedRecord{}, fmt.Errorf("key at position %d is not a string", i)
		}
		raw, err := json.Marshal(pairs[i+1])
		if err != nil {
			return OrderedRecord{}, err
		}
		r.set(key, raw)
	}
	return r, nil
}

func (r *OrderedRecord) set(key string, raw json.RawMessage) {
	for i := range r.fields {
		if r.fields[i].Key == key {
			r.fields[i].Value = raw
			return
		}
	}
	r.fields = append(r.fields, Field{Key: key, Value: raw})
}

// Keys returns the keys in arrival order
func (r OrderedRecord) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Raw returns the undecoded value for key
func (r OrderedRecord) Raw(key string) (json.RawMessage, bool) {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns the display text for key. Strings are unquoted, null and
// missing keys are empty, everything else is the compact JSON text.
func (r OrderedRecord) String(key string) string {
	raw, ok := r.Raw(key)
	if !ok {
		return ""
	}
	return DisplayValue(raw)
}

// DisplayValue renders a raw JSON value as cell text
func DisplayValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

// Without returns a copy with the named keys removed. Matching is case-insensitive.
func (r OrderedRecord) Without(excluded ...string) OrderedRecord {
	out := OrderedRecord{fields: make([]Field, 0, len(r.fields))}
	for _, f := range r.fields {
		skip := false
		for _, ex := range excluded {
			if strings.EqualFold(f.Key, ex) {
				skip = true
				break
			}
		}
		if !skip {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// UnmarshalJSON decodes a JSON object keeping key order
func (r *OrderedRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	r.fields = r.fields[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		r.set(key, raw)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the object in key order
func (r OrderedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(f.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
