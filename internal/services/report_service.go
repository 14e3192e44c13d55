package services

import (
	"context"
	"errors"
	"fmt"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/database"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/qcmetrics"
	"insproduce-backend/internal/report"
	"insproduce-backend/internal/storage"
)

// ReportService drives the PENDING/OK/ERROR lifecycle of inspection PDFs.
// Rendering only happens on explicit request.
type ReportService struct {
	inspections *InspectionService
	repo        *database.InspectionRepo
	templates   *TemplateService
	files       *StorageService
	log         *logger.Logger
	opts        options
}

func NewReportService(
	inspections *InspectionService,
	repo *database.InspectionRepo,
	templates *TemplateService,
	files *StorageService,
	log *logger.Logger,
	opts ...Option,
) *ReportService {
	return &ReportService{
		inspections: inspections,
		repo:        repo,
		templates:   templates,
		files:       files,
		log:         log.With("component", "ReportService"),
		opts:        buildOptions(opts),
	}
}

type GenerateResult struct {
	Location string
	Hash     string
	Status   string
}

// Generate renders the current inspection, stores the file and marks the
// status OK. Any failure after the inspection is loaded is recorded as ERROR
// and returned as a render error. An edit that lands while rendering wins:
// the status stays PENDING and a conflict is returned.
func (s *ReportService) Generate(ctx context.Context, id int64) (*GenerateResult, error) {
	ins, err := s.inspections.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.inspections.policy.Check(ins.Commodity.Code); err != nil {
		return nil, err
	}

	fields := s.templates.FieldsFor(ctx, ins.CommodityID, qcmetrics.Decode(ins.Metrics))
	data := report.BuildData(ins, fields, s.opts.location)
	photos := s.files.LoadPhotos(ctx, ins.Photos)

	pdf, hash, err := report.Render(ctx, data, photos)
	if err != nil {
		return nil, s.fail(ctx, id, "render", err)
	}

	now := s.opts.now()
	ref, err := s.files.SaveReport(ctx, reportName(ins, now.UnixMilli()), pdf)
	if err != nil {
		return nil, s.fail(ctx, id, "store", err)
	}

	location := storage.PublicPath(ref)
	if err := s.repo.SetReportOK(ctx, id, location, hash, now, ins.UpdatedAt); err != nil {
		if errors.Is(err, database.ErrStale) {
			s.log.Warn("inspection edited during rendering", "op", "generate_report", "inspection_id", id, "location", location)
			return nil, apierr.Conflict("inspection %d changed while the report was rendering; generate it again", id)
		}
		if errors.Is(err, database.ErrNotFound) {
			return nil, apierr.NotFound("inspection %d not found", id)
		}
		s.log.Error("failed to record report", "op", "generate_report", "inspection_id", id, "error", err)
		return nil, apierr.Internal("failed to record report", err)
	}

	s.log.Info("report generated", "inspection_id", id, "location", location, "hash", hash, "bytes", len(pdf))
	return &GenerateResult{Location: location, Hash: hash, Status: models.ReportOK}, nil
}

// fail records the ERROR transition. The inspection itself is untouched.
func (s *ReportService) fail(ctx context.Context, id int64, stage string, cause error) error {
	s.log.Error("report generation failed", "op", "generate_report", "stage", stage, "inspection_id", id, "error", cause)
	msg := fmt.Sprintf("%s: %v", stage, cause)
	if err := s.repo.SetReportError(ctx, id, msg, s.opts.now()); err != nil {
		s.log.Error("failed to record report error", "inspection_id", id, "error", err)
	}
	return apierr.Render(cause)
}

// reportName builds "informe-<COMMODITY>-<lot|sn>-<unix-ms>.pdf".
func reportName(ins *models.Inspection, millis int64) string {
	lot := "sn"
	if ins.Lot != nil && *ins.Lot != "" {
		lot = storage.SafeName(*ins.Lot)
	}
	return fmt.Sprintf("informe-%s-%s-%d.pdf", storage.SafeName(ins.Commodity.Code), lot, millis)
}
