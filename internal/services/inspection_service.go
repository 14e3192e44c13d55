package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/database"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/qcmetrics"
	"insproduce-backend/internal/storage"
)

const defaultPhotoLabel = "general"

type InspectionService struct {
	repo      *database.InspectionRepo
	templates *TemplateService
	policy    *CommodityPolicy
	pageSize  int
	log       *logger.Logger
	opts      options
}

func NewInspectionService(
	repo *database.InspectionRepo,
	templates *TemplateService,
	policy *CommodityPolicy,
	pageSize int,
	log *logger.Logger,
	opts ...Option,
) *InspectionService {
	return &InspectionService{
		repo:      repo,
		templates: templates,
		policy:    policy,
		pageSize:  pageSize,
		log:       log.With("component", "InspectionService"),
		opts:      buildOptions(opts),
	}
}

type CreateInput struct {
	CommodityCode string
	Header        models.Header
	Metrics       qcmetrics.RawInput
	// Photos are references already written to the uploads root, in order.
	Photos    []string
	CreatedBy string
}

type CreateResult struct {
	Inspection *models.Inspection
	Photos     []string
	Warnings   []models.Warning
}

// Create validates the commodity before writing anything, then stores the
// inspection, its photos and a PENDING report status together.
func (s *InspectionService) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	commodity, err := s.templates.ResolveCommodity(ctx, in.CommodityCode)
	if err != nil {
		return nil, err
	}

	built := qcmetrics.Build(in.Metrics)
	warnings := s.check(ctx, commodity.ID, built.JSON)

	now := s.opts.now()
	ins := &models.Inspection{
		CommodityID:     commodity.ID,
		CreatedByUserID: in.CreatedBy,
		Metrics:         built.JSON,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	in.Header.Apply(ins)

	label := defaultPhotoLabel
	photos := make([]models.InspectionPhoto, 0, len(in.Photos))
	for _, ref := range in.Photos {
		photos = append(photos, models.InspectionPhoto{URL: ref, Label: &label, CreatedAt: now})
	}

	if err := s.repo.Create(ctx, ins, photos); err != nil {
		s.log.Error("create inspection failed", "op", "create", "commodity", commodity.Code, "error", err)
		return nil, apierr.Internal("failed to create inspection", err)
	}
	ins.Commodity = *commodity

	s.log.Info("inspection created",
		"inspection_id", ins.ID,
		"commodity", commodity.Code,
		"metrics_source", built.Source,
		"photos", len(photos),
		"warnings", len(warnings),
	)

	refs := make([]string, 0, len(photos))
	for _, p := range photos {
		refs = append(refs, storage.PublicPath(p.URL))
	}
	return &CreateResult{Inspection: ins, Photos: refs, Warnings: warnings}, nil
}

// HeaderUpdate is a partial header edit. Commodity, when supplied, is only
// checked against the deny-list; an inspection never changes commodity.
// Metrics, when set, replaces the stored document.
type HeaderUpdate struct {
	Patch     models.HeaderPatch
	Commodity string
	Metrics   *qcmetrics.Built
}

type UpdateResult struct {
	Inspection *models.Inspection
	Warnings   []models.Warning
}

// UpdateHeader applies the patch and resets the report to PENDING.
func (s *InspectionService) UpdateHeader(ctx context.Context, id int64, in HeaderUpdate) (*UpdateResult, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCommodity(in.Commodity, current); err != nil {
		return nil, err
	}

	patch := models.NewHeaderPatch()
	for k, v := range in.Patch.Set {
		patch.Set[k] = v
	}
	var warnings []models.Warning
	if in.Metrics != nil {
		patch.Set["metrics"] = in.Metrics.JSON
		warnings = s.check(ctx, current.CommodityID, in.Metrics.JSON)
	}

	if err := s.repo.UpdateHeader(ctx, id, patch, s.opts.now()); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apierr.NotFound("inspection %d not found", id)
		}
		s.log.Error("update header failed", "op", "update_header", "inspection_id", id, "error", err)
		return nil, apierr.Internal("failed to update inspection", err)
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("inspection header updated", "inspection_id", id, "fields", len(patch.Set))
	return &UpdateResult{Inspection: updated, Warnings: warnings}, nil
}

// MetricsUpdate replaces metrics.values wholesale. TemplateID and
// TemplateVersion override the stored reference only when present.
type MetricsUpdate struct {
	Values          interface{}
	TemplateID      interface{}
	TemplateVersion interface{}
}

type MetricsResult struct {
	ID       int64
	Metrics  datatypes.JSON
	Warnings []models.Warning
}

// UpdateMetrics rewrites the values map and resets the report to PENDING.
func (s *InspectionService) UpdateMetrics(ctx context.Context, id int64, in MetricsUpdate) (*MetricsResult, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCommodity("", current); err != nil {
		return nil, err
	}

	values := qcmetrics.ParseValues(in.Values)
	ref := qcmetrics.TemplateRef{ID: in.TemplateID, Version: in.TemplateVersion}
	next, err := s.repo.UpdateMetrics(ctx, id, s.opts.now(), func(doc datatypes.JSON) datatypes.JSON {
		return qcmetrics.ReplaceValues(doc, values, ref)
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apierr.NotFound("inspection %d not found", id)
		}
		s.log.Error("update metrics failed", "op", "update_metrics", "inspection_id", id, "error", err)
		return nil, apierr.Internal("failed to update metrics", err)
	}

	s.log.Info("inspection metrics updated", "inspection_id", id, "values", len(values))
	return &MetricsResult{ID: id, Metrics: next, Warnings: s.check(ctx, current.CommodityID, next)}, nil
}

// GetDetail loads the full inspection or fails with NotFound.
func (s *InspectionService) GetDetail(ctx context.Context, id int64) (*models.Inspection, error) {
	return s.load(ctx, id)
}

// HistoryQuery holds raw filter values. Dates are calendar days (YYYY-MM-DD)
// in the configured zone; DateTo includes the whole day.
type HistoryQuery struct {
	Commodity    string
	Producer     string
	Lot          string
	DateFrom     string
	DateTo       string
	ReportStatus string
}

// ListHistory returns newest-first summaries matching every supplied filter.
func (s *InspectionService) ListHistory(ctx context.Context, q HistoryQuery) ([]database.HistoryRow, error) {
	f := database.HistoryFilter{
		Producer:     strings.TrimSpace(q.Producer),
		Lot:          strings.TrimSpace(q.Lot),
		ExcludeCodes: s.policy.Codes(),
		Limit:        s.pageSize,
	}

	if code := NormalizeCode(q.Commodity); code != "" {
		if err := s.policy.Check(code); err != nil {
			return nil, err
		}
		f.CommodityCode = code
	}

	if status := strings.ToUpper(strings.TrimSpace(q.ReportStatus)); status != "" {
		if !models.IsReportStatus(status) {
			return nil, apierr.Validation("invalid pdf_status %q", q.ReportStatus)
		}
		f.ReportStatus = status
	}

	from, err := s.day(q.DateFrom)
	if err != nil {
		return nil, err
	}
	f.DateFrom = from

	to, err := s.day(q.DateTo)
	if err != nil {
		return nil, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		f.DateTo = &end
	}

	rows, err := s.repo.List(ctx, f)
	if err != nil {
		s.log.Error("list history failed", "op", "list_history", "error", err)
		return nil, apierr.Internal("failed to list inspections", err)
	}

	return rows, nil
}

func (s *InspectionService) day(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if len(v) > len("2006-01-02") {
		v = v[:len("2006-01-02")]
	}
	t, err := time.ParseInLocation("2006-01-02", v, s.opts.location)
	if err != nil {
		return nil, apierr.Validation("invalid date %q (expected YYYY-MM-DD)", v)
	}
	return &t, nil
}

func (s *InspectionService) load(ctx context.Context, id int64) (*models.Inspection, error) {
	ins, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apierr.NotFound("inspection %d not found", id)
		}
		s.log.Error("load inspection failed", "inspection_id", id, "error", err)
		return nil, apierr.Internal("failed to load inspection", err)
	}
	return ins, nil
}

// checkCommodity rejects edits when either the supplied or the stored
// commodity is deny-listed.
func (s *InspectionService) checkCommodity(supplied string, ins *models.Inspection) error {
	if supplied != "" {
		if err := s.policy.Check(supplied); err != nil {
			return err
		}
	}
	return s.policy.Check(ins.Commodity.Code)
}

func (s *InspectionService) check(ctx context.Context, commodityID int64, doc datatypes.JSON) []models.Warning {
	payload := qcmetrics.Decode(doc)
	if len(payload.Values) == 0 {
		return nil
	}
	return qcmetrics.Check(payload, s.templates.FieldsFor(ctx, commodityID, payload))
}
