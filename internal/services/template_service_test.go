package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/qcmetrics"
	"insproduce-backend/internal/services"
	"insproduce-backend/internal/test/testkit"
)

func fptr(f float64) *float64 { return &f }

func TestTemplateService_ListCommoditiesHidesDenied(t *testing.T) {
	e := newEnv(t)
	testkit.Commodity(t, e.db, "PLUM", "Ciruela", false)

	list, err := e.templates.ListCommodities(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "BLUEBERRY", list[0].Code)
}

func TestTemplateService_ResolveCommodity(t *testing.T) {
	e := newEnv(t)
	testkit.Commodity(t, e.db, "PLUM", "Ciruela", false)
	ctx := context.Background()

	c, err := e.templates.ResolveCommodity(ctx, " blueberry ")
	require.NoError(t, err)
	assert.Equal(t, e.blueberry.ID, c.ID)

	_, err = e.templates.ResolveCommodity(ctx, "")
	assert.True(t, apierr.IsValidation(err))

	_, err = e.templates.ResolveCommodity(ctx, "Cherry")
	assert.True(t, apierr.IsValidation(err))
	assert.Contains(t, err.Error(), "commodity CHERRY is disabled")

	_, err = e.templates.ResolveCommodity(ctx, "MANGO")
	assert.True(t, apierr.IsNotFound(err))

	_, err = e.templates.ResolveCommodity(ctx, "PLUM")
	assert.True(t, apierr.IsNotFound(err))
}

func TestTemplateService_GetActiveTemplate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	active, err := e.templates.GetActiveTemplate(ctx, "BLUEBERRY")
	require.NoError(t, err)
	assert.Equal(t, 1, active.Template.Version)
	require.Len(t, active.Fields, 2)
	assert.Equal(t, "general.brix", active.Fields[0].Key)

	// CHERRY exists and is active but deny-listed.
	_, err = e.templates.GetActiveTemplate(ctx, "CHERRY")
	assert.True(t, apierr.IsValidation(err))

	testkit.Commodity(t, e.db, "RASPBERRY", "Frambuesa", true)
	_, err = e.templates.GetActiveTemplate(ctx, "RASPBERRY")
	assert.True(t, apierr.IsNotFound(err))
}

func TestTemplateService_PublishTemplate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, _, err := e.templates.PublishTemplate(ctx, "BLUEBERRY", "  ", nil)
	assert.True(t, apierr.IsValidation(err))

	_, _, err = e.templates.PublishTemplate(ctx, "CHERRY", "Temporada", nil)
	assert.True(t, apierr.IsValidation(err))

	published, skipped, err := e.templates.PublishTemplate(ctx, "BLUEBERRY", "Temporada 2025", []models.FieldInput{
		{Key: "general.firmness", Label: "Firmeza", FieldType: "number", OrderIndex: 1},
		{Key: "general.firmness", Label: "Duplicada", FieldType: "number"},
		{Key: "", Label: "Sin clave", FieldType: "text"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 2, published.Template.Version)
	require.Len(t, published.Fields, 1)

	active, err := e.templates.GetActiveTemplate(ctx, "BLUEBERRY")
	require.NoError(t, err)
	assert.Equal(t, published.Template.ID, active.Template.ID)
}

func TestTemplateService_ReplaceFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, _, err := e.templates.ReplaceFields(ctx, 999, nil)
	assert.True(t, apierr.IsNotFound(err))

	active, err := e.templates.GetActiveTemplate(ctx, "BLUEBERRY")
	require.NoError(t, err)

	stored, skipped, err := e.templates.ReplaceFields(ctx, active.Template.ID, []models.FieldInput{
		{Key: "general.color", Label: "Color", Type: "SELECT", Options: "Bajo, Normal ,Alto", OrderIndex: 2},
		{Key: "general.brix", Label: "Brix", FieldType: "number", MinValue: fptr(0), MaxValue: fptr(30), OrderIndex: 1},
		{Key: "general.other", Label: "Otro", FieldType: "date"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, stored, 2)
	assert.Equal(t, "general.brix", stored[0].Key)
	assert.Equal(t, []string{"Bajo", "Normal", "Alto"}, qcmetrics.Options(stored[1].Options))
}

func TestBuildFields(t *testing.T) {
	unit := "  "
	fields, skipped := services.BuildFields([]models.FieldInput{
		{Key: " general.brix ", Label: " Brix ", FieldType: "Number", Unit: &unit, MinValue: fptr(1), Options: []string{"x"}},
		{Key: "comments.general", Label: "Comentario", FieldType: "text", MinValue: fptr(1)},
		{Key: "general.color", Label: "Color", FieldType: "select", Options: `["a","b"]`},
		{Key: "general.size", Label: "Tamaño", FieldType: "select", Options: []interface{}{"S", "M", nil}},
		{Key: "general.brix", Label: "Otra vez", FieldType: "number"},
		{Key: "x", Label: "", FieldType: "text"},
	})

	assert.Equal(t, 2, skipped)
	require.Len(t, fields, 4)

	assert.Equal(t, "general.brix", fields[0].Key)
	assert.Equal(t, "Brix", fields[0].Label)
	assert.Equal(t, models.FieldTypeNumber, fields[0].FieldType)
	assert.Nil(t, fields[0].Unit)
	require.NotNil(t, fields[0].MinValue)
	assert.Nil(t, fields[0].Options)

	assert.Nil(t, fields[1].MinValue, "bounds only apply to numbers")

	assert.JSONEq(t, `["a","b"]`, string(fields[2].Options))
	assert.JSONEq(t, `["S","M"]`, string(fields[3].Options))
}

func TestTemplateService_FieldsFor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	v2 := testkit.Template(t, e.db, e.blueberry.ID, 2, false, testkit.NumberField("v2.only", "Solo v2", 1, ""))
	foreign := testkit.Template(t, e.db, e.cherry.ID, 1, true, testkit.NumberField("cherry.only", "Cereza", 1, ""))

	keys := func(fields []models.MetricField) []string {
		var out []string
		for _, f := range fields {
			out = append(out, f.Key)
		}
		return out
	}
	id := func(v int64) *int64 { return &v }
	version := func(v int) *int { return &v }

	// Template id wins when it belongs to the commodity.
	got := e.templates.FieldsFor(ctx, e.blueberry.ID, qcmetrics.Payload{TemplateID: id(v2.ID), TemplateVersion: version(1)})
	assert.Equal(t, []string{"v2.only"}, keys(got))

	// A foreign template id falls through to the version.
	got = e.templates.FieldsFor(ctx, e.blueberry.ID, qcmetrics.Payload{TemplateID: id(foreign.ID), TemplateVersion: version(2)})
	assert.Equal(t, []string{"v2.only"}, keys(got))

	// Nothing usable resolves to the active template.
	got = e.templates.FieldsFor(ctx, e.blueberry.ID, qcmetrics.Payload{TemplateVersion: version(9)})
	assert.Equal(t, []string{"general.brix", "defects.pitting"}, keys(got))

	plum := testkit.Commodity(t, e.db, "PLUM", "Ciruela", true)
	assert.Nil(t, e.templates.FieldsFor(ctx, plum.ID, qcmetrics.Payload{}))
}

func TestFieldViews(t *testing.T) {
	views := services.FieldViews([]models.MetricField{
		{ID: 1, Key: "general.color", FieldType: models.FieldTypeSelect, Options: []byte(`["Bajo"]`)},
		{ID: 2, Key: "general.brix", FieldType: models.FieldTypeNumber},
	})
	require.Len(t, views, 2)
	assert.Equal(t, []string{"Bajo"}, views[0].Options)
	assert.Equal(t, []string{}, views[1].Options)
}
