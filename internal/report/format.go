package report

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Placeholder stands in for every missing or empty value.
const Placeholder = "-"

func text(s *string) string {
	if s == nil {
		return Placeholder
	}
	return orDash(*s)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return strings.TrimSpace(s)
}

// shortDate formats as dd/mm/yy in loc.
func shortDate(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02/01/06")
}

func number(f *float64, unit string) string {
	if f == nil {
		return Placeholder
	}
	return withUnit(strconv.FormatFloat(*f, 'f', -1, 64), unit)
}

// withUnit appends the unit unless the value is the placeholder.
func withUnit(value, unit string) string {
	unit = strings.TrimSpace(unit)
	if value == Placeholder || unit == "" {
		return value
	}
	return value + " " + unit
}

// FormatValue renders a submitted metric value for display.
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return Placeholder
	case string:
		return orDash(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "Sí"
		}
		return "No"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Placeholder
	}
	return orDash(string(b))
}
