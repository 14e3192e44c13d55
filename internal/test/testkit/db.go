// Package testkit holds fixtures shared by package tests: a migrated SQLite
// database, seeded commodities and templates, and signed tokens.
package testkit

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"insproduce-backend/internal/database"
	"insproduce-backend/internal/models"
)

// OpenDB returns a fresh SQLite database with every table migrated.
func OpenDB(t testing.TB) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "insproduce.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// One connection keeps SQLite from reporting "database is locked" inside
	// transactions.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&models.Commodity{},
		&models.MetricTemplate{},
		&models.MetricField{},
		&models.Inspection{},
		&models.InspectionPhoto{},
		&models.InspectionReportStatus{},
	))

	db, err := database.Wrap(gdb)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Commodity stores a commodity.
func Commodity(t testing.TB, db *database.DB, code, name string, active bool) models.Commodity {
	t.Helper()
	c, err := database.NewTemplateRepo(db).UpsertCommodity(context.Background(), models.Commodity{
		Code: code, Name: name, Active: active,
	})
	require.NoError(t, err)
	return *c
}

// Template stores a template row directly, bypassing version bookkeeping, so
// tests can build arbitrary active/inactive histories.
func Template(t testing.TB, db *database.DB, commodityID int64, version int, active bool, fields ...models.MetricField) models.MetricTemplate {
	t.Helper()
	tpl := models.MetricTemplate{
		CommodityID: commodityID,
		Version:     version,
		Name:        "v" + strconv.Itoa(version),
		Active:      active,
	}
	require.NoError(t, db.Gorm.Create(&tpl).Error)
	if len(fields) > 0 {
		require.NoError(t, database.NewTemplateRepo(db).ReplaceFields(context.Background(), tpl.ID, fields))
	}
	return tpl
}

// NumberField is a number-typed field fixture.
func NumberField(key, label string, order int, unit string) models.MetricField {
	f := models.MetricField{Key: key, Label: label, FieldType: models.FieldTypeNumber, OrderIndex: order}
	if unit != "" {
		f.Unit = &unit
	}
	return f
}
