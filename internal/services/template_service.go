package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/database"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/qcmetrics"
)

type TemplateService struct {
	repo   *database.TemplateRepo
	policy *CommodityPolicy
	log    *logger.Logger
}

func NewTemplateService(repo *database.TemplateRepo, policy *CommodityPolicy, log *logger.Logger) *TemplateService {
	return &TemplateService{repo: repo, policy: policy, log: log.With("component", "TemplateService")}
}

// ActiveTemplate is a template with its fields in display order.
type ActiveTemplate struct {
	Commodity models.Commodity
	Template  models.MetricTemplate
	Fields    []models.MetricField
}

// ListCommodities returns active commodities that are not deny-listed.
func (s *TemplateService) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	all, err := s.repo.ListActiveCommodities(ctx)
	if err != nil {
		return nil, apierr.Internal("failed to list commodities", err)
	}
	out := make([]models.Commodity, 0, len(all))
	for _, c := range all {
		if !s.policy.Denied(c.Code) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ResolveCommodity validates a code and loads the commodity. Deny-listed codes
// fail validation before any lookup; unknown or inactive ones are not found.
func (s *TemplateService) ResolveCommodity(ctx context.Context, code string) (*models.Commodity, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, apierr.Validation("commodity is required")
	}
	if err := s.policy.Check(code); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCommodityByCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apierr.NotFound("commodity %s not found", code)
		}
		return nil, apierr.Internal("failed to load commodity", err)
	}
	if !c.Active {
		return nil, apierr.NotFound("commodity %s is not active", code)
	}
	return c, nil
}

// GetActiveTemplate returns the highest active version for the commodity.
func (s *TemplateService) GetActiveTemplate(ctx context.Context, code string) (*ActiveTemplate, error) {
	c, err := s.ResolveCommodity(ctx, code)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.ActiveTemplate(ctx, c.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apierr.NotFound("no active template for commodity %s", c.Code)
		}
		return nil, apierr.Internal("failed to load template", err)
	}
	fields, err := s.repo.Fields(ctx, t.ID)
	if err != nil {
		return nil, apierr.Internal("failed to load template fields", err)
	}
	return &ActiveTemplate{Commodity: *c, Template: *t, Fields: fields}, nil
}

// ReplaceFields swaps the template's field list. Entries without key, label
// or a known type are skipped, as are repeated keys after their first use.
func (s *TemplateService) ReplaceFields(ctx context.Context, templateID int64, inputs []models.FieldInput) ([]models.MetricField, int, error) {
	if _, err := s.repo.GetTemplate(ctx, templateID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, 0, apierr.NotFound("template %d not found", templateID)
		}
		return nil, 0, apierr.Internal("failed to load template", err)
	}

	fields, skipped := BuildFields(inputs)
	if err := s.repo.ReplaceFields(ctx, templateID, fields); err != nil {
		s.log.Error("replace fields failed", "op", "replace_fields", "template_id", templateID, "error", err)
		return nil, 0, apierr.Internal("failed to replace fields", err)
	}
	stored, err := s.repo.Fields(ctx, templateID)
	if err != nil {
		return nil, 0, apierr.Internal("failed to load template fields", err)
	}
	s.log.Info("template fields replaced", "template_id", templateID, "stored", len(stored), "skipped", skipped)
	return stored, skipped, nil
}

// PublishTemplate creates the next version for the commodity and makes it the
// only active one.
func (s *TemplateService) PublishTemplate(ctx context.Context, code, name string, inputs []models.FieldInput) (*ActiveTemplate, int, error) {
	c, err := s.ResolveCommodity(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, 0, apierr.Validation("template name is required")
	}

	fields, skipped := BuildFields(inputs)
	t, err := s.repo.PublishTemplate(ctx, c.ID, name, fields)
	if err != nil {
		s.log.Error("publish template failed", "op", "publish_template", "commodity", c.Code, "error", err)
		return nil, 0, apierr.Internal("failed to publish template", err)
	}
	stored, err := s.repo.Fields(ctx, t.ID)
	if err != nil {
		return nil, 0, apierr.Internal("failed to load template fields", err)
	}
	s.log.Info("template published", "commodity", c.Code, "template_id", t.ID, "version", t.Version)
	return &ActiveTemplate{Commodity: *c, Template: *t, Fields: stored}, skipped, nil
}

// FieldsFor resolves the template a metrics payload was captured against:
// its template id when it belongs to the commodity, else its version, else
// the active template. Returns nil when nothing matches.
func (s *TemplateService) FieldsFor(ctx context.Context, commodityID int64, p qcmetrics.Payload) []models.MetricField {
	var t *models.MetricTemplate
	if p.TemplateID != nil {
		if found, err := s.repo.GetTemplate(ctx, *p.TemplateID); err == nil && found.CommodityID == commodityID {
			t = found
		}
	}
	if t == nil && p.TemplateVersion != nil {
		if found, err := s.repo.TemplateByVersion(ctx, commodityID, *p.TemplateVersion); err == nil {
			t = found
		}
	}
	if t == nil {
		found, err := s.repo.ActiveTemplate(ctx, commodityID)
		if err != nil {
			return nil
		}
		t = found
	}

	fields, err := s.repo.Fields(ctx, t.ID)
	if err != nil {
		s.log.Warn("failed to load template fields", "template_id", t.ID, "error", err)
		return nil
	}
	return fields
}

// FieldViews decodes stored options for the API.
func FieldViews(fields []models.MetricField) []models.FieldView {
	out := make([]models.FieldView, 0, len(fields))
	for _, f := range fields {
		out = append(out, models.FieldView{
			ID:         f.ID,
			TemplateID: f.TemplateID,
			Key:        f.Key,
			Label:      f.Label,
			FieldType:  f.FieldType,
			Required:   f.Required,
			Unit:       f.Unit,
			MinValue:   f.MinValue,
			MaxValue:   f.MaxValue,
			Options:    qcmetrics.Options(f.Options),
			OrderIndex: f.OrderIndex,
		})
	}
	return out
}

// BuildFields converts field input to storable fields and counts the entries it
// skipped: missing key, label or a known type, or a repeated key.
func BuildFields(inputs []models.FieldInput) ([]models.MetricField, int) {
	fields := make([]models.MetricField, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	skipped := 0
	for _, in := range inputs {
		key := strings.TrimSpace(in.Key)
		label := strings.TrimSpace(in.Label)
		fieldType := strings.ToLower(strings.TrimSpace(in.ResolvedType()))
		if key == "" || label == "" || !models.IsFieldType(fieldType) || seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		f := models.MetricField{
			Key:        key,
			Label:      label,
			FieldType:  fieldType,
			Required:   in.Required,
			Unit:       trimmedOrNil(in.Unit),
			OrderIndex: in.OrderIndex,
		}
		if fieldType == models.FieldTypeNumber {
			f.MinValue = in.MinValue
			f.MaxValue = in.MaxValue
		}
		if fieldType == models.FieldTypeSelect {
			f.Options = optionsJSON(in.Options)
		}
		fields = append(fields, f)
	}
	return fields, skipped
}

// optionsJSON accepts a list, a JSON-encoded list or a comma separated string.
// Anything unparsable degrades to no options.
func optionsJSON(v interface{}) datatypes.JSON {
	var opts []string
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		opts = t
	case []interface{}:
		for _, item := range t {
			if item != nil {
				opts = append(opts, fmt.Sprint(item))
			}
		}
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") {
			opts = qcmetrics.Options([]byte(s))
		} else {
			for _, part := range strings.Split(s, ",") {
				if part = strings.TrimSpace(part); part != "" {
					opts = append(opts, part)
				}
			}
		}
	}
	if len(opts) == 0 {
		return nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
