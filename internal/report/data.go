// Package report turns an inspection into a PDF document. Rendering is pure:
// the same Data and photo bytes always produce the same file.
package report

import (
	"path"
	"sort"
	"strings"
	"time"

	"insproduce-backend/internal/models"
	"insproduce-backend/internal/qcmetrics"
)

type Field struct {
	Key     string
	Label   string
	Value   string
	Unit    string
	Section string
}

// Display is the value with its unit, or the placeholder.
func (f Field) Display() string {
	return withUnit(orDash(f.Value), f.Unit)
}

type Section struct {
	Key    string
	Title  string
	Fields []Field
}

// Photo is one evidence image. Data is nil and Err set when it could not be
// read from storage.
type Photo struct {
	Name  string
	Label string
	Data  []byte
	Err   error
}

type Data struct {
	InspectionID  int64
	CommodityCode string
	CommodityName string

	Producer      string
	Lot           string
	Variety       string
	Caliber       string
	PackagingCode string
	PackagingType string
	PackagingDate string

	Conditions []Field
	Sections   []Section

	// Stamped as the document's creation and modification date.
	Timestamp time.Time
}

var sectionTitles = map[string]string{
	"general":  "Aspectos Generales",
	"defects":  "Defectos / Condición",
	"comments": "Comentarios",
}

const defaultSection = "general"

// SectionTitle maps a section key to its heading.
func SectionTitle(key string) string {
	if title, ok := sectionTitles[key]; ok {
		return title
	}
	return key
}

// SectionOf is the first dot segment of a key.
func SectionOf(key string) string {
	if i := strings.Index(key, "."); i > 0 {
		return key[:i]
	}
	return defaultSection
}

// BuildData assembles render input from a loaded inspection and the fields of
// the template its metrics point at (nil when unresolvable).
func BuildData(ins *models.Inspection, fields []models.MetricField, loc *time.Location) Data {
	d := Data{
		InspectionID:  ins.ID,
		CommodityCode: ins.Commodity.Code,
		CommodityName: orDash(ins.Commodity.Name),
		Producer:      text(ins.Producer),
		Lot:           text(ins.Lot),
		Variety:       text(ins.Variety),
		Caliber:       text(ins.Caliber),
		PackagingCode: text(ins.PackagingCode),
		PackagingType: text(ins.PackagingType),
		PackagingDate: shortDate(ins.PackagingDate, loc),
		Conditions: []Field{
			{Label: "Peso neto", Value: number(ins.NetWeight, "kg")},
			{Label: "Sólidos solubles promedio", Value: number(ins.BrixAvg, "°Bx")},
			{Label: "T° agua diping", Value: number(ins.TempWater, "°C")},
			{Label: "T° ambiente", Value: number(ins.TempAmbient, "°C")},
			{Label: "T° pulpa embalada", Value: number(ins.TempPulp, "°C")},
			{Label: "Observaciones", Value: text(ins.Notes)},
		},
		Timestamp: ins.UpdatedAt.UTC(),
	}
	payload := qcmetrics.Decode(ins.Metrics)
	d.Sections = GroupSections(payload.Values, fields)
	return d
}

// GroupSections resolves values against template fields. Declared fields come
// first in template order, missing ones shown as the placeholder; undeclared
// keys follow sorted by key. Sections appear in order of first use.
func GroupSections(values map[string]interface{}, fields []models.MetricField) []Section {
	var flat []Field
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Key] = true
		unit := ""
		if f.Unit != nil {
			unit = *f.Unit
		}
		label := f.Label
		if strings.TrimSpace(label) == "" {
			label = f.Key
		}
		flat = append(flat, Field{
			Key:     f.Key,
			Label:   label,
			Value:   FormatValue(values[f.Key]),
			Unit:    unit,
			Section: SectionOf(f.Key),
		})
	}

	var extra []string
	for k := range values {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		flat = append(flat, Field{
			Key:     k,
			Label:   k,
			Value:   FormatValue(values[k]),
			Section: SectionOf(k),
		})
	}

	var sections []Section
	index := map[string]int{}
	for _, f := range flat {
		i, ok := index[f.Section]
		if !ok {
			i = len(sections)
			index[f.Section] = i
			sections = append(sections, Section{Key: f.Section, Title: SectionTitle(f.Section)})
		}
		sections[i].Fields = append(sections[i].Fields, f)
	}
	return sections
}

// FileName is the base name shown when a photo cannot be embedded.
func FileName(ref string) string {
	return path.Base(strings.ReplaceAll(ref, "\\", "/"))
}
