package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"insproduce-backend/internal/database"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/services"
	"insproduce-backend/internal/storage"
	"insproduce-backend/internal/test/testkit"
)

type env struct {
	db          *database.DB
	clock       *testkit.Clock
	loc         *time.Location
	reportsDir  string
	repo        *database.InspectionRepo
	templates   *services.TemplateService
	inspections *services.InspectionService
	files       *services.StorageService
	reports     *services.ReportService
	blueberry   models.Commodity
	cherry      models.Commodity
}

type envConfig struct {
	store    func(storage.Store) storage.Store
	pageSize int
}

func newEnv(t *testing.T, setup ...func(*envConfig)) *env {
	t.Helper()
	cfg := envConfig{pageSize: 500}
	for _, s := range setup {
		s(&cfg)
	}

	db := testkit.OpenDB(t)
	base := t.TempDir()
	local, err := storage.NewLocalStore(filepath.Join(base, "uploads"), filepath.Join(base, "reports"))
	require.NoError(t, err)
	var store storage.Store = local
	if cfg.store != nil {
		store = cfg.store(local)
	}

	loc, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	clock := testkit.NewClock(time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC))
	opts := []services.Option{services.WithClock(clock.Now), services.WithLocation(loc)}

	log := logger.Nop()
	policy := services.NewCommodityPolicy([]string{"cherry"})
	templateRepo := database.NewTemplateRepo(db)
	repo := database.NewInspectionRepo(db)
	templates := services.NewTemplateService(templateRepo, policy, log)
	inspections := services.NewInspectionService(repo, templates, policy, cfg.pageSize, log, opts...)
	files := services.NewStorageService(store, log, opts...)

	e := &env{
		db:          db,
		clock:       clock,
		loc:         loc,
		reportsDir:  filepath.Join(base, "reports"),
		repo:        repo,
		templates:   templates,
		inspections: inspections,
		files:       files,
		reports:     services.NewReportService(inspections, repo, templates, files, log, opts...),
		blueberry:   testkit.Commodity(t, db, "BLUEBERRY", "Arándano", true),
		cherry:      testkit.Commodity(t, db, "CHERRY", "Cereza", true),
	}

	unit := "°Bx"
	testkit.Template(t, db, e.blueberry.ID, 1, true,
		models.MetricField{Key: "general.brix", Label: "Sólidos solubles", FieldType: models.FieldTypeNumber, Required: true, Unit: &unit, OrderIndex: 1},
		testkit.NumberField("defects.pitting", "Pitting", 2, "%"),
	)
	return e
}

func strPtr(s string) *string { return &s }

// create stores a BLUEBERRY inspection with the given header fields.
func (e *env) create(t *testing.T, producer, lot string, photos ...string) *models.Inspection {
	t.Helper()
	res, err := e.inspections.Create(context.Background(), services.CreateInput{
		CommodityCode: "blueberry",
		Header:        models.Header{Producer: strPtr(producer), Lot: strPtr(lot)},
		Photos:        photos,
		CreatedBy:     "7",
	})
	require.NoError(t, err)
	return res.Inspection
}

func (e *env) status(t *testing.T, id int64) *models.InspectionReportStatus {
	t.Helper()
	ins, err := e.inspections.GetDetail(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, ins.ReportStatus)
	return ins.ReportStatus
}

func (e *env) savePhoto(t *testing.T, name string) string {
	t.Helper()
	ref, err := e.files.SavePhoto(context.Background(), name, bytes.NewReader(testkit.PNG(t)))
	require.NoError(t, err)
	return ref
}

// failingReports refuses every write to the reports root.
type failingReports struct {
	storage.Store
}

func (f failingReports) Put(ctx context.Context, root, name string, r io.Reader) error {
	if root == storage.RootReports {
		return errors.New("disk full")
	}
	return f.Store.Put(ctx, root, name, r)
}

func withFailingReports(c *envConfig) {
	c.store = func(s storage.Store) storage.Store { return failingReports{Store: s} }
}

// hookedReports runs before on every write to the reports root.
type hookedReports struct {
	storage.Store
	before *func()
}

func (h hookedReports) Put(ctx context.Context, root, name string, r io.Reader) error {
	if root == storage.RootReports && *h.before != nil {
		(*h.before)()
	}
	return h.Store.Put(ctx, root, name, r)
}

func withReportHook(before *func()) func(*envConfig) {
	return func(c *envConfig) {
		c.store = func(s storage.Store) storage.Store { return hookedReports{Store: s, before: before} }
	}
}

func withPageSize(n int) func(*envConfig) {
	return func(c *envConfig) { c.pageSize = n }
}
