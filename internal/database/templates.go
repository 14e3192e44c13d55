package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"insproduce-backend/internal/models"
)

// TemplateRepo reads and writes commodities, metric templates and their fields.
type TemplateRepo struct {
	db *gorm.DB
}

func NewTemplateRepo(db *DB) *TemplateRepo {
	return &TemplateRepo{db: db.Gorm}
}

// GetCommodityByCode matches the code case-insensitively and ignores the
// active flag; callers decide what an inactive commodity means.
func (r *TemplateRepo) GetCommodityByCode(ctx context.Context, code string) (*models.Commodity, error) {
	var c models.Commodity
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *TemplateRepo) ListActiveCommodities(ctx context.Context) ([]models.Commodity, error) {
	var out []models.Commodity
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list commodities: %w", err)
	}
	return out, nil
}

// UpsertCommodity inserts or updates by code and returns the stored row.
func (r *TemplateRepo) UpsertCommodity(ctx context.Context, c models.Commodity) (*models.Commodity, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "active"}),
	}).Create(&c).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert commodity %s: %w", c.Code, err)
	}
	return r.GetCommodityByCode(ctx, c.Code)
}

// ActiveTemplate returns the highest-version active template, newest id first
// on ties.
func (r *TemplateRepo) ActiveTemplate(ctx context.Context, commodityID int64) (*models.MetricTemplate, error) {
	var t models.MetricTemplate
	err := r.db.WithContext(ctx).
		Where("commodity_id = ? AND active = ?", commodityID, true).
		Order("version DESC").Order("id DESC").
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *TemplateRepo) GetTemplate(ctx context.Context, id int64) (*models.MetricTemplate, error) {
	var t models.MetricTemplate
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// TemplateByVersion looks up a specific version regardless of its active flag.
func (r *TemplateRepo) TemplateByVersion(ctx context.Context, commodityID int64, version int) (*models.MetricTemplate, error) {
	var t models.MetricTemplate
	err := r.db.WithContext(ctx).
		Where("commodity_id = ? AND version = ?", commodityID, version).
		Order("id DESC").
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *TemplateRepo) Fields(ctx context.Context, templateID int64) ([]models.MetricField, error) {
	var fields []models.MetricField
	err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("order_index ASC").Order("id ASC").
		Find(&fields).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load fields for template %d: %w", templateID, err)
	}
	return fields, nil
}

// ReplaceFields deletes every field of the template and inserts the given
// list in one transaction. An empty list clears the template.
func (r *TemplateRepo) ReplaceFields(ctx context.Context, templateID int64, fields []models.MetricField) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", templateID).Delete(&models.MetricField{}).Error; err != nil {
			return fmt.Errorf("failed to clear fields: %w", err)
		}
		return insertFields(tx, templateID, fields)
	})
}

// PublishTemplate stores a new version for the commodity, makes it the only
// active one and inserts its fields.
func (r *TemplateRepo) PublishTemplate(ctx context.Context, commodityID int64, name string, fields []models.MetricField) (*models.MetricTemplate, error) {
	var created models.MetricTemplate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		if err := tx.Model(&models.MetricTemplate{}).
			Where("commodity_id = ?", commodityID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error; err != nil {
			return fmt.Errorf("failed to read latest version: %w", err)
		}

		if err := tx.Model(&models.MetricTemplate{}).
			Where("commodity_id = ? AND active = ?", commodityID, true).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate previous versions: %w", err)
		}

		created = models.MetricTemplate{
			CommodityID: commodityID,
			Version:     maxVersion + 1,
			Name:        name,
			Active:      true,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}
		return insertFields(tx, created.ID, fields)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func insertFields(tx *gorm.DB, templateID int64, fields []models.MetricField) error {
	if len(fields) == 0 {
		return nil
	}
	rows := make([]models.MetricField, len(fields))
	for i, f := range fields {
		f.ID = 0
		f.TemplateID = templateID
		rows[i] = f
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert fields: %w", err)
	}
	return nil
}
