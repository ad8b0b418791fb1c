// ABOUTME: Form schemas that drive the generic collection screens
// ABOUTME: Converts form strings into typed records, enforces required fields and rules, renders summaries
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/innkeep/models"
	"github.com/harperreed/innkeep/validation"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Kind is the input type of a form field.
type Kind int

const (
	KindText Kind = iota
	KindLongText
	KindNumber
	KindMoney
	KindDate
	KindDateTime
	KindTime
	KindBool
	KindChoice
	KindImage
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindLongText: "longtext",
	KindNumber:   "number",
	KindMoney:    "money",
	KindDate:     "date",
	KindDateTime: "datetime",
	KindTime:     "time",
	KindBool:     "bool",
	KindChoice:   "choice",
	KindImage:    "image",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Field describes one form input.
type Field struct {
	Key      string
	Label    string
	Kind     Kind
	Required bool
	Options  []string
	Default  string
}

// Rule checks a built record. The clock is injected so rules comparing
// against today stay deterministic.
type Rule func(rec models.Record, now time.Time) error

// Schema describes the screen for one collection.
type Schema struct {
	Collection string
	Title      string
	Singular   string
	Fields     []Field
	Rules      []Rule

	// Headline names the fields joined to form the title line of a summary.
	Headline []string
	// Columns are the field keys shown in list views.
	Columns []string
}

// Line is one label/value pair of a rendered summary.
type Line struct {
	Label string
	Value string
}

// Field returns the field with the given key.
func (s *Schema) Field(key string) (Field, bool) {
	return lo.Find(s.Fields, func(f Field) bool { return f.Key == key })
}

// Defaults returns the initial form values for a new record.
func (s *Schema) Defaults() map[string]string {
	values := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		values[f.Key] = f.Default
	}
	return values
}

// FormValues turns a stored record back into form strings for editing.
func (s *Schema) FormValues(rec models.Record) map[string]string {
	values := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		raw := rec.String(f.Key)
		switch f.Kind {
		case KindDate:
			if t, err := validation.ParseDate(f.Key, raw); err == nil {
				raw = t.Format("2006-01-02")
			}
		case KindDateTime:
			if t, err := validation.ParseDate(f.Key, raw); err == nil {
				raw = t.Format("2006-01-02T15:04")
			}
		case KindBool:
			raw = strconv.FormatBool(models.BoolField(rec, f.Key))
		}
		values[f.Key] = raw
	}
	return values
}

// Build converts form values into a record with the given id. Unknown keys
// are ignored, so the record carries exactly the schema's fields.
func (s *Schema) Build(id string, values map[string]string, now time.Time) (models.Record, error) {
	rec := models.NewRecord(id)
	for _, f := range s.Fields {
		raw := strings.TrimSpace(values[f.Key])
		if raw == "" {
			raw = f.Default
		}
		if raw == "" {
			if f.Kind == KindBool {
				rec.Set(f.Key, false)
				continue
			}
			if f.Required {
				return models.Record{}, validation.Errorf(f.Key, "%s is required", f.Label)
			}
			continue
		}
		value, err := convert(f, raw)
		if err != nil {
			return models.Record{}, err
		}
		rec.Set(f.Key, value)
	}
	for _, rule := range s.Rules {
		if err := rule(rec, now); err != nil {
			return models.Record{}, err
		}
	}
	return rec, nil
}

func convert(f Field, raw string) (any, error) {
	switch f.Kind {
	case KindNumber:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, validation.Errorf(f.Key, "%s must be a whole number", f.Label)
		}
		if n < 0 {
			return nil, validation.Errorf(f.Key, "%s cannot be negative", f.Label)
		}
		return models.Int(n), nil
	case KindMoney:
		d, err := decimal.NewFromString(strings.TrimPrefix(raw, "$"))
		if err != nil {
			return nil, validation.Errorf(f.Key, "%s must be a number", f.Label)
		}
		if d.IsNegative() {
			return nil, validation.Errorf(f.Key, "%s cannot be negative", f.Label)
		}
		return models.Money(d.Round(2)), nil
	case KindDate:
		t, err := validation.ParseDate(f.Key, raw)
		if err != nil {
			return nil, validation.Errorf(f.Key, "%s is not a valid date", f.Label)
		}
		return t.Format("2006-01-02"), nil
	case KindDateTime:
		t, err := validation.ParseDate(f.Key, raw)
		if err != nil {
			return nil, validation.Errorf(f.Key, "%s is not a valid date", f.Label)
		}
		return t.Format("2006-01-02T15:04"), nil
	case KindTime:
		t, err := validation.ParseClock(f.Key, raw)
		if err != nil {
			return nil, validation.Errorf(f.Key, "%s is not a valid time", f.Label)
		}
		return t.Format("15:04"), nil
	case KindBool:
		switch strings.ToLower(raw) {
		case "true", "yes", "y", "1", "on":
			return true, nil
		case "false", "no", "n", "0", "off":
			return false, nil
		}
		return nil, validation.Errorf(f.Key, "%s must be yes or no", f.Label)
	case KindChoice:
		match, ok := lo.Find(f.Options, func(o string) bool { return strings.EqualFold(o, raw) })
		if !ok {
			return nil, validation.Errorf(f.Key, "%s must be one of: %s", f.Label, strings.Join(f.Options, ", "))
		}
		return match, nil
	default:
		return raw, nil
	}
}

// Summary renders a record as a title line plus labelled detail lines.
func (s *Schema) Summary(rec models.Record) (string, []Line) {
	parts := lo.FilterMap(s.Headline, func(key string, _ int) (string, bool) {
		v := s.Display(rec, key)
		return v, v != ""
	})
	title := strings.Join(parts, " · ")
	if title == "" {
		title = rec.ID
	}

	var lines []Line
	for _, f := range s.Fields {
		if lo.Contains(s.Headline, f.Key) {
			continue
		}
		if v := s.Display(rec, f.Key); v != "" {
			lines = append(lines, Line{Label: f.Label, Value: v})
		}
	}
	for _, key := range extraKeys(s, rec) {
		lines = append(lines, Line{Label: key, Value: rec.String(key)})
	}
	return title, lines
}

// Row returns the list-view cells for a record.
func (s *Schema) Row(rec models.Record) []string {
	return lo.Map(s.Columns, func(key string, _ int) string { return s.Display(rec, key) })
}

// ColumnLabels returns the headers matching Row.
func (s *Schema) ColumnLabels() []string {
	return lo.Map(s.Columns, func(key string, _ int) string {
		if f, ok := s.Field(key); ok {
			return f.Label
		}
		return key
	})
}

// Display formats one field for humans.
func (s *Schema) Display(rec models.Record, key string) string {
	f, ok := s.Field(key)
	if !ok {
		return rec.String(key)
	}
	if _, present := rec.Fields[key]; !present {
		return ""
	}
	switch f.Kind {
	case KindMoney:
		return "$" + models.DecimalField(rec, key).StringFixed(2)
	case KindBool:
		if models.BoolField(rec, key) {
			return "yes"
		}
		return "no"
	case KindDate:
		if t, err := validation.ParseDate(key, rec.String(key)); err == nil {
			return t.Format("Jan 2, 2006")
		}
	case KindDateTime:
		if t, err := validation.ParseDate(key, rec.String(key)); err == nil {
			return t.Format("Jan 2, 2006 15:04")
		}
	}
	return rec.String(key)
}

// extraKeys lists stored fields the schema does not describe, sorted.
func extraKeys(s *Schema, rec models.Record) []string {
	var keys []string
	for key := range rec.Fields {
		if _, ok := s.Field(key); !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// String is used in error messages and logs.
func (s *Schema) String() string {
	return fmt.Sprintf("%s (%s)", s.Title, s.Collection)
}
