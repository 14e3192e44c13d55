package qcmetrics_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"insproduce-backend/internal/qcmetrics"
)

func decodeMap(t *testing.T, raw datatypes.JSON) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestBuild_VerbatimObjectWins(t *testing.T) {
	built := qcmetrics.Build(qcmetrics.RawInput{
		Metrics:         map[string]interface{}{"template_id": 9, "values": map[string]interface{}{"a": "1"}, "extra": true},
		TemplateID:      "3",
		TemplateVersion: "2",
		Values:          `{"b":"2"}`,
	})

	assert.Equal(t, qcmetrics.SourceVerbatim, built.Source)
	m := decodeMap(t, built.JSON)
	assert.Equal(t, float64(9), m["template_id"])
	assert.Equal(t, true, m["extra"])
	assert.Equal(t, map[string]interface{}{"a": "1"}, m["values"])
}

func TestBuild_VerbatimJSONString(t *testing.T) {
	built := qcmetrics.Build(qcmetrics.RawInput{
		Metrics: `{"template_id": 4, "template_version": 1, "values": {"general.brix": "14,5"}}`,
	})

	assert.Equal(t, qcmetrics.SourceVerbatim, built.Source)
	p := qcmetrics.Decode(built.JSON)
	require.NotNil(t, p.TemplateID)
	assert.Equal(t, int64(4), *p.TemplateID)
	require.NotNil(t, p.TemplateVersion)
	assert.Equal(t, 1, *p.TemplateVersion)
	assert.Equal(t, "14,5", p.Values["general.brix"])
}

func TestBuild_AssemblesSeparateFields(t *testing.T) {
	built := qcmetrics.Build(qcmetrics.RawInput{
		TemplateID:      "12",
		TemplateVersion: "2",
		Values:          `{"general.brix":"14.5","defects.pitting":"2"}`,
	})

	assert.Equal(t, qcmetrics.SourceAssembled, built.Source)
	m := decodeMap(t, built.JSON)
	assert.Equal(t, float64(12), m["template_id"])
	assert.Equal(t, float64(2), m["template_version"])
	assert.Equal(t, map[string]interface{}{"general.brix": "14.5", "defects.pitting": "2"}, m["values"])
}

func TestBuild_UnparsableValuesBecomeEmpty(t *testing.T) {
	built := qcmetrics.Build(qcmetrics.RawInput{
		TemplateID:      json.Number("12"),
		TemplateVersion: json.Number("2"),
		Values:          "{not json",
	})

	assert.Equal(t, qcmetrics.SourceAssembled, built.Source)
	assert.Empty(t, qcmetrics.Decode(built.JSON).Values)
}

func TestBuild_MalformedMetricsFallsThrough(t *testing.T) {
	built := qcmetrics.Build(qcmetrics.RawInput{Metrics: "[1,2,3]"})
	assert.Equal(t, qcmetrics.SourceEmpty, built.Source)
	assert.JSONEq(t, `{}`, string(built.JSON))
}

func TestBuild_IncompleteTemplateReferenceIsEmpty(t *testing.T) {
	built := qcmetrics.Build(qcmetrics.RawInput{
		TemplateID: "12",
		Values:     `{"a":"1"}`,
	})
	assert.Equal(t, qcmetrics.SourceEmpty, built.Source)
	assert.JSONEq(t, `{}`, string(built.JSON))
}

func TestDecode_ToleratesGarbage(t *testing.T) {
	for _, raw := range []string{"", "null", "[]", "{", `{"values": "nope"}`} {
		p := qcmetrics.Decode(datatypes.JSON(raw))
		assert.Nil(t, p.TemplateID, raw)
		assert.NotNil(t, p.Values, raw)
		assert.Empty(t, p.Values, raw)
	}
}

func TestReplaceValues_KeepsReferenceAndOtherKeys(t *testing.T) {
	current := datatypes.JSON(`{"template_id": 7, "template_version": 3, "values": {"a": "1", "b": "2"}, "note": "kept"}`)

	next := qcmetrics.ReplaceValues(current, map[string]interface{}{"c": "3"}, qcmetrics.TemplateRef{})

	m := decodeMap(t, next)
	assert.Equal(t, float64(7), m["template_id"])
	assert.Equal(t, float64(3), m["template_version"])
	assert.Equal(t, "kept", m["note"])
	// Wholesale replacement: a and b are gone.
	assert.Equal(t, map[string]interface{}{"c": "3"}, m["values"])
}

func TestReplaceValues_OverridesReference(t *testing.T) {
	current := datatypes.JSON(`{"template_id": 7, "template_version": 3, "values": {}}`)

	next := qcmetrics.ReplaceValues(current, nil, qcmetrics.TemplateRef{ID: "8", Version: json.Number("4")})

	p := qcmetrics.Decode(next)
	require.NotNil(t, p.TemplateID)
	assert.Equal(t, int64(8), *p.TemplateID)
	require.NotNil(t, p.TemplateVersion)
	assert.Equal(t, 4, *p.TemplateVersion)
	assert.Empty(t, p.Values)
}

func TestReplaceValues_EmptyCurrent(t *testing.T) {
	next := qcmetrics.ReplaceValues(nil, map[string]interface{}{"a": 1}, qcmetrics.TemplateRef{})

	m := decodeMap(t, next)
	assert.Nil(t, m["template_id"])
	assert.Nil(t, m["template_version"])
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, m["values"])
}

func TestParseValues(t *testing.T) {
	assert.Equal(t, map[string]interface{}{"a": "1"}, qcmetrics.ParseValues(map[string]interface{}{"a": "1"}))
	assert.Equal(t, map[string]interface{}{"a": "1"}, qcmetrics.ParseValues(`{"a":"1"}`))
	assert.Empty(t, qcmetrics.ParseValues("nope"))
	assert.Empty(t, qcmetrics.ParseValues(nil))
	assert.Empty(t, qcmetrics.ParseValues(42))
}
