package qcmetrics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"insproduce-backend/internal/models"
)

// Check compares submitted values against template fields and reports what
// does not fit. Nothing here rejects a submission: inspectors' input is kept
// as typed and corrected later by an admin.
func Check(p Payload, fields []models.MetricField) []models.Warning {
	var warnings []models.Warning
	known := make(map[string]bool, len(fields))

	for _, f := range fields {
		known[f.Key] = true
		v, ok := p.Values[f.Key]
		if !ok || isBlank(v) {
			if f.Required {
				warnings = append(warnings, models.Warning{Key: f.Key, Message: "required value missing"})
			}
			continue
		}

		switch f.FieldType {
		case models.FieldTypeNumber:
			n, ok := ParseNumber(v)
			if !ok {
				warnings = append(warnings, models.Warning{Key: f.Key, Message: fmt.Sprintf("%v is not a number", v)})
				continue
			}
			if f.MinValue != nil && n < *f.MinValue {
				warnings = append(warnings, models.Warning{Key: f.Key, Message: fmt.Sprintf("%v is below minimum %v", v, *f.MinValue)})
			}
			if f.MaxValue != nil && n > *f.MaxValue {
				warnings = append(warnings, models.Warning{Key: f.Key, Message: fmt.Sprintf("%v is above maximum %v", v, *f.MaxValue)})
			}
		case models.FieldTypeSelect:
			opts := Options(f.Options)
			if len(opts) > 0 && !contains(opts, fmt.Sprint(v)) {
				warnings = append(warnings, models.Warning{Key: f.Key, Message: fmt.Sprintf("%v is not an allowed option", v)})
			}
		}
	}

	// Keys without a declared field are kept; this only flags them.
	if len(fields) > 0 {
		var unknown []string
		for k := range p.Values {
			if !known[k] {
				unknown = append(unknown, k)
			}
		}
		sort.Strings(unknown)
		for _, k := range unknown {
			warnings = append(warnings, models.Warning{Key: k, Message: "no such field in template"})
		}
	}
	return warnings
}

// ParseNumber accepts numbers and numeric strings, including a comma decimal
// separator ("14,5").
func ParseNumber(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Options decodes a field's allowed options. Stored options may be a JSON
// array or a JSON string holding one; anything else yields no options.
func Options(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var opts []string
	if err := json.Unmarshal(raw, &opts); err == nil {
		return opts
	}
	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		if err := json.Unmarshal([]byte(nested), &opts); err == nil {
			return opts
		}
	}
	return []string{}
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
