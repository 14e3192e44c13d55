// Package server wires repositories, services and handlers into a gin engine.
package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"insproduce-backend/internal/config"
	"insproduce-backend/internal/database"
	"insproduce-backend/internal/handlers"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/middleware"
	"insproduce-backend/internal/services"
	"insproduce-backend/internal/storage"
)

// Services groups the application services the handlers are built on.
type Services struct {
	Templates   *services.TemplateService
	Inspections *services.InspectionService
	Reports     *services.ReportService
	Files       *services.StorageService
	Location    *time.Location
}

func NewServices(cfg *config.Config, db *database.DB, store storage.Store, log *logger.Logger, opts ...services.Option) (*Services, error) {
	loc, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", cfg.ReportTimezone, err)
	}
	opts = append([]services.Option{services.WithLocation(loc)}, opts...)

	policy := services.NewCommodityPolicy(cfg.DeniedCommodities)
	templateRepo := database.NewTemplateRepo(db)
	inspectionRepo := database.NewInspectionRepo(db)

	templates := services.NewTemplateService(templateRepo, policy, log)
	inspections := services.NewInspectionService(inspectionRepo, templates, policy, cfg.HistoryPageSize, log, opts...)
	files := services.NewStorageService(store, log, opts...)
	reports := services.NewReportService(inspections, inspectionRepo, templates, files, log, opts...)

	return &Services{
		Templates:   templates,
		Inspections: inspections,
		Reports:     reports,
		Files:       files,
		Location:    loc,
	}, nil
}

// New builds the HTTP engine.
func New(cfg *config.Config, db *database.DB, store storage.Store, log *logger.Logger, opts ...services.Option) (*gin.Engine, error) {
	svc, err := NewServices(cfg, db, store, log, opts...)
	if err != nil {
		return nil, err
	}

	templatesHandler := handlers.NewTemplatesHandler(svc.Templates, log)
	inspectionsHandler := handlers.NewInspectionsHandler(svc.Inspections, svc.Templates, svc.Files, svc.Location, cfg.MaxUploadMB<<20, log)
	reportsHandler := handlers.NewReportsHandler(svc.Reports, log)
	filesHandler := handlers.NewFilesHandler(svc.Files, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// Stored artifacts
	router.GET("/uploads/*path", filesHandler.Serve(storage.RootUploads))
	router.GET("/reports/*path", filesHandler.Serve(storage.RootReports))

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))

	admin := middleware.RequireRoles(middleware.RoleAdmin)
	staff := middleware.RequireRoles(middleware.RoleInspector, middleware.RoleAdmin)

	// Templates
	api.GET("/commodities", templatesHandler.ListCommodities)
	api.GET("/commodities/:code/template", templatesHandler.GetActiveTemplate)
	api.GET("/metric-templates/:code", admin, templatesHandler.GetActiveTemplate)
	api.POST("/commodities/:code/templates", admin, templatesHandler.PublishTemplate)
	api.PUT("/templates/:id/fields", admin, templatesHandler.ReplaceFields)

	// Inspections
	api.POST("/inspecciones", staff, inspectionsHandler.Create)
	api.GET("/inspecciones/historial", admin, inspectionsHandler.History)
	api.GET("/inspecciones/:id", admin, inspectionsHandler.Get)
	api.PUT("/inspecciones/:id", admin, inspectionsHandler.UpdateHeader)
	api.PUT("/inspecciones/:id/metrics", admin, inspectionsHandler.UpdateMetrics)

	// Reports
	api.POST("/inspecciones/:id/generar-pdf", admin, reportsHandler.Generate)

	return router, nil
}
