package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insproduce-backend/internal/database"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/test/testkit"
)

func TestTemplateRepo_CommodityLookup(t *testing.T) {
	db := testkit.OpenDB(t)
	repo := database.NewTemplateRepo(db)
	ctx := context.Background()

	testkit.Commodity(t, db, "blueberry", "Arándano", true)
	testkit.Commodity(t, db, "CHERRY", "Cereza", false)
	testkit.Commodity(t, db, "RASPBERRY", "Frambuesa", true)

	c, err := repo.GetCommodityByCode(ctx, " BlueBerry ")
	require.NoError(t, err)
	assert.Equal(t, "BLUEBERRY", c.Code)

	_, err = repo.GetCommodityByCode(ctx, "PLUM")
	assert.ErrorIs(t, err, database.ErrNotFound)

	active, err := repo.ListActiveCommodities(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Arándano", active[0].Name)
	assert.Equal(t, "Frambuesa", active[1].Name)
}

func TestTemplateRepo_UpsertCommodity(t *testing.T) {
	db := testkit.OpenDB(t)
	repo := database.NewTemplateRepo(db)
	ctx := context.Background()

	first := testkit.Commodity(t, db, "BLUEBERRY", "Arandano", true)
	second, err := repo.UpsertCommodity(ctx, models.Commodity{Code: "blueberry", Name: "Arándano", Active: false})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Arándano", second.Name)
	assert.False(t, second.Active)
}

func TestTemplateRepo_ActiveTemplate(t *testing.T) {
	db := testkit.OpenDB(t)
	repo := database.NewTemplateRepo(db)
	ctx := context.Background()

	c := testkit.Commodity(t, db, "BLUEBERRY", "Arándano", true)
	testkit.Template(t, db, c.ID, 1, true)
	want := testkit.Template(t, db, c.ID, 2, true)
	testkit.Template(t, db, c.ID, 3, false)

	got, err := repo.ActiveTemplate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, 2, got.Version)

	// Inactive versions stay addressable by number.
	v3, err := repo.TemplateByVersion(ctx, c.ID, 3)
	require.NoError(t, err)
	assert.False(t, v3.Active)

	other := testkit.Commodity(t, db, "CHERRY", "Cereza", true)
	_, err = repo.ActiveTemplate(ctx, other.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = repo.GetTemplate(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestTemplateRepo_ActiveTemplateTieBreaksOnID(t *testing.T) {
	db := testkit.OpenDB(t)
	repo := database.NewTemplateRepo(db)

	c := testkit.Commodity(t, db, "BLUEBERRY", "Arándano", true)
	testkit.Template(t, db, c.ID, 2, true)
	newer := testkit.Template(t, db, c.ID, 2, true)

	got, err := repo.ActiveTemplate(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestTemplateRepo_ReplaceFields(t *testing.T) {
	db := testkit.OpenDB(t)
	repo := database.NewTemplateRepo(db)
	ctx := context.Background()

	c := testkit.Commodity(t, db, "BLUEBERRY", "Arándano", true)
	tpl := testkit.Template(t, db, c.ID, 1, true,
		testkit.NumberField("general.brix", "Brix", 1, "°Bx"),
		testkit.NumberField("general.weight", "Peso", 2, "g"),
	)

	require.NoError(t, repo.ReplaceFields(ctx, tpl.ID, []models.MetricField{
		testkit.NumberField("defects.pitting", "Pitting", 2, "%"),
		testkit.NumberField("general.brix", "Brix", 1, "°Bx"),
	}))

	fields, err := repo.Fields(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "general.brix", fields[0].Key)
	assert.Equal(t, "defects.pitting", fields[1].Key)

	require.NoError(t, repo.ReplaceFields(ctx, tpl.ID, nil))
	fields, err = repo.Fields(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestTemplateRepo_PublishTemplate(t *testing.T) {
	db := testkit.OpenDB(t)
	repo := database.NewTemplateRepo(db)
	ctx := context.Background()

	c := testkit.Commodity(t, db, "BLUEBERRY", "Arándano", true)
	old := testkit.Template(t, db, c.ID, 4, true)

	created, err := repo.PublishTemplate(ctx, c.ID, "Temporada 2025", []models.MetricField{
		testkit.NumberField("general.brix", "Brix", 1, "°Bx"),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, created.Version)
	assert.True(t, created.Active)

	active, err := repo.ActiveTemplate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, active.ID)

	prev, err := repo.GetTemplate(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, prev.Active)

	fields, err := repo.Fields(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, created.ID, fields[0].TemplateID)
}

func TestTemplateRepo_PublishFirstVersion(t *testing.T) {
	db := testkit.OpenDB(t)
	c := testkit.Commodity(t, db, "BLUEBERRY", "Arándano", true)

	created, err := database.NewTemplateRepo(db).PublishTemplate(context.Background(), c.ID, "Inicial", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)
}
