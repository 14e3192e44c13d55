// Package qcmetrics builds and inspects the per-inspection metrics payload:
// a template reference plus a free-form map of submitted field values.
package qcmetrics

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gorm.io/datatypes"
)

// Source records which rule produced a payload.
type Source string

const (
	SourceVerbatim  Source = "metrics"
	SourceAssembled Source = "template_values"
	SourceEmpty     Source = "empty"
)

// RawInput carries the metrics-related request fields exactly as received.
// Each value may be a decoded JSON value or a string from a form post.
type RawInput struct {
	Metrics         interface{}
	TemplateID      interface{}
	TemplateVersion interface{}
	Values          interface{}
}

// Payload is the decoded view of a stored metrics document.
type Payload struct {
	TemplateID      *int64
	TemplateVersion *int
	Values          map[string]interface{}
}

// Built is the outcome of Build: the document to persist and how it was chosen.
type Built struct {
	Source Source
	JSON   datatypes.JSON
}

// Build applies the precedence rules in order:
//  1. a pre-built metrics object (or a JSON string of one) is stored verbatim;
//  2. template_id + template_version + values are assembled into the canonical
//     shape, with unparsable values degrading to an empty map;
//  3. otherwise the payload is empty.
func Build(in RawInput) Built {
	if doc, ok := asObject(in.Metrics); ok {
		return Built{Source: SourceVerbatim, JSON: mustJSON(doc)}
	}

	if present(in.TemplateID) && present(in.TemplateVersion) && present(in.Values) {
		values, ok := asObject(in.Values)
		if !ok {
			values = map[string]interface{}{}
		}
		doc := map[string]interface{}{
			"template_id":      nullableInt(in.TemplateID),
			"template_version": nullableInt(in.TemplateVersion),
			"values":           values,
		}
		return Built{Source: SourceAssembled, JSON: mustJSON(doc)}
	}

	return Built{Source: SourceEmpty, JSON: datatypes.JSON("{}")}
}

// Decode reads a stored document. It never fails: anything malformed yields
// an empty payload.
func Decode(raw datatypes.JSON) Payload {
	p := Payload{Values: map[string]interface{}{}}
	doc, ok := asObject(string(raw))
	if !ok {
		return p
	}
	if id, ok := toInt(doc["template_id"]); ok {
		p.TemplateID = &id
	}
	if v, ok := toInt(doc["template_version"]); ok {
		version := int(v)
		p.TemplateVersion = &version
	}
	if values, ok := asObject(doc["values"]); ok {
		p.Values = values
	}
	return p
}

// TemplateRef optionally overrides the template a metrics edit points at.
type TemplateRef struct {
	ID      interface{}
	Version interface{}
}

// ReplaceValues swaps the values map wholesale. Other top-level keys of the
// current document survive, and the template reference is kept unless ref
// supplies a new one.
func ReplaceValues(current datatypes.JSON, values map[string]interface{}, ref TemplateRef) datatypes.JSON {
	doc, ok := asObject(string(current))
	if !ok {
		doc = map[string]interface{}{}
	}
	if values == nil {
		values = map[string]interface{}{}
	}

	templateID := doc["template_id"]
	if present(ref.ID) {
		templateID = ref.ID
	}
	templateVersion := doc["template_version"]
	if present(ref.Version) {
		templateVersion = ref.Version
	}

	doc["template_id"] = nullableInt(templateID)
	doc["template_version"] = nullableInt(templateVersion)
	doc["values"] = values
	return mustJSON(doc)
}

// ParseValues accepts a values object or a JSON string of one; anything else
// becomes an empty map.
func ParseValues(v interface{}) map[string]interface{} {
	if values, ok := asObject(v); ok {
		return values
	}
	return map[string]interface{}{}
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, false
		}
		var doc map[string]interface{}
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil || doc == nil {
			return nil, false
		}
		return doc, true
	case []byte:
		return asObject(string(t))
	case json.RawMessage:
		return asObject(string(t))
	}
	return nil, false
}

// present mirrors form semantics: nil, empty strings, false and zero count as absent.
func present(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}

func nullableInt(v interface{}) interface{} {
	if n, ok := toInt(v); ok && n != 0 {
		return n
	}
	return nil
}

func toInt(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		if f, err := t.Float64(); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
	case float64:
		if t == math.Trunc(t) {
			return int64(t), true
		}
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}
