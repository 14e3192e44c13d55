package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/qcmetrics"
)

// Body is a request body flattened to field name -> value, from JSON or a
// multipart form.
type Body map[string]interface{}

// Has reports whether the key was supplied at all, even as null.
func (b Body) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// Commodity returns the first non-empty commodity alias.
func (b Body) Commodity() string {
	for _, key := range models.CommodityFields {
		if s := NormalizeCode(str(b[key])); s != "" {
			return s
		}
	}
	return ""
}

// MetricsInput picks out the metrics-related fields.
func (b Body) MetricsInput() qcmetrics.RawInput {
	return qcmetrics.RawInput{
		Metrics:         b["metrics"],
		TemplateID:      b["template_id"],
		TemplateVersion: b["template_version"],
		Values:          b["values"],
	}
}

type textField struct {
	wire, column string
	set          func(*models.Header, *string)
}

type numberField struct {
	wire, column string
	set          func(*models.Header, *float64)
}

var textFields = []textField{
	{models.FieldProducer, "producer", func(h *models.Header, v *string) { h.Producer = v }},
	{models.FieldLot, "lot", func(h *models.Header, v *string) { h.Lot = v }},
	{models.FieldVariety, "variety", func(h *models.Header, v *string) { h.Variety = v }},
	{models.FieldCaliber, "caliber", func(h *models.Header, v *string) { h.Caliber = v }},
	{models.FieldPackagingCode, "packaging_code", func(h *models.Header, v *string) { h.PackagingCode = v }},
	{models.FieldPackagingType, "packaging_type", func(h *models.Header, v *string) { h.PackagingType = v }},
	{models.FieldNotes, "notes", func(h *models.Header, v *string) { h.Notes = v }},
}

var numberFields = []numberField{
	{models.FieldNetWeight, "net_weight", func(h *models.Header, v *float64) { h.NetWeight = v }},
	{models.FieldBrixAvg, "brix_avg", func(h *models.Header, v *float64) { h.BrixAvg = v }},
	{models.FieldTempWater, "temp_water", func(h *models.Header, v *float64) { h.TempWater = v }},
	{models.FieldTempAmbient, "temp_ambient", func(h *models.Header, v *float64) { h.TempAmbient = v }},
	{models.FieldTempPulp, "temp_pulp", func(h *models.Header, v *float64) { h.TempPulp = v }},
}

// ParseHeader reads a full header for a new inspection. Blank text becomes
// null and numbers that do not parse are stored as null; only a malformed
// packaging date is rejected.
func ParseHeader(b Body, loc *time.Location) (models.Header, error) {
	var h models.Header
	for _, f := range textFields {
		f.set(&h, textOrNil(b[f.wire]))
	}
	for _, f := range numberFields {
		if n, ok := qcmetrics.ParseNumber(b[f.wire]); ok {
			f.set(&h, &n)
		}
	}
	date, err := parseDate(b[models.FieldPackagingDate], loc)
	if err != nil {
		return h, err
	}
	h.PackagingDate = date
	return h, nil
}

// ParseHeaderPatch keeps only supplied fields. Supplied text, even blank,
// overwrites; numbers and the date are only written when they parse, so a
// blank or malformed number leaves the stored value alone.
func ParseHeaderPatch(b Body, loc *time.Location) (models.HeaderPatch, error) {
	p := models.NewHeaderPatch()
	for _, f := range textFields {
		if b.Has(f.wire) {
			p.Set[f.column] = textOrNil(b[f.wire])
		}
	}
	for _, f := range numberFields {
		if n, ok := qcmetrics.ParseNumber(b[f.wire]); ok {
			p.Set[f.column] = n
		}
	}
	date, err := parseDate(b[models.FieldPackagingDate], loc)
	if err != nil {
		return p, err
	}
	if date != nil {
		p.Set["packaging_date"] = *date
	}
	return p, nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
}

// parseDate returns nil for a blank value. Dates without a zone are taken in loc.
func parseDate(v interface{}, loc *time.Location) (*time.Time, error) {
	s := strings.TrimSpace(str(v))
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apierr.Validation("invalid date %q", s)
}

func textOrNil(v interface{}) *string {
	s := strings.TrimSpace(str(v))
	if s == "" {
		return nil
	}
	return &s
}

func str(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case []string:
		if len(t) > 0 {
			return t[0]
		}
		return ""
	}
	return fmt.Sprint(v)
}
