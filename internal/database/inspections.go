package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"insproduce-backend/internal/models"
)

type InspectionRepo struct {
	db *gorm.DB
}

func NewInspectionRepo(db *DB) *InspectionRepo {
	return &InspectionRepo{db: db.Gorm}
}

// Create inserts the inspection, its photos in the given order and a PENDING
// report status as one transaction.
func (r *InspectionRepo) Create(ctx context.Context, ins *models.Inspection, photos []models.InspectionPhoto) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(ins).Error; err != nil {
			return fmt.Errorf("failed to insert inspection: %w", err)
		}

		// One row per insert keeps ids in submission order.
		for i := range photos {
			photos[i].ID = 0
			photos[i].InspectionID = ins.ID
			if photos[i].CreatedAt.IsZero() {
				photos[i].CreatedAt = ins.CreatedAt
			}
			if err := tx.Create(&photos[i]).Error; err != nil {
				return fmt.Errorf("failed to insert photo: %w", err)
			}
		}

		status := models.InspectionReportStatus{InspectionID: ins.ID, Status: models.ReportPending}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "inspection_id"}},
			DoNothing: true,
		}).Create(&status).Error; err != nil {
			return fmt.Errorf("failed to insert report status: %w", err)
		}

		ins.Photos = photos
		ins.ReportStatus = &status
		return nil
	})
}

// Get loads the inspection with its commodity, photos (by id) and report status.
func (r *InspectionRepo) Get(ctx context.Context, id int64) (*models.Inspection, error) {
	var ins models.Inspection
	err := r.db.WithContext(ctx).
		Preload("Commodity").
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("ReportStatus").
		First(&ins, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &ins, nil
}

// UpdateHeader writes only the columns present in the patch and resets the
// report to PENDING.
func (r *InspectionRepo) UpdateHeader(ctx context.Context, id int64, patch models.HeaderPatch, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, id); err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": at}
		for col, v := range patch.Set {
			updates[col] = v
		}
		if err := tx.Model(&models.Inspection{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update inspection header: %w", err)
		}
		return resetPending(tx, id)
	})
}

// UpdateMetrics rewrites the metrics document through fn inside one
// transaction and resets the report to PENDING. It returns the stored document.
func (r *InspectionRepo) UpdateMetrics(ctx context.Context, id int64, at time.Time, fn func(current datatypes.JSON) datatypes.JSON) (datatypes.JSON, error) {
	var next datatypes.JSON
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Inspection
		if err := tx.Select("id", "metrics").First(&current, id).Error; err != nil {
			return notFound(err)
		}

		next = fn(current.Metrics)
		if err := tx.Model(&models.Inspection{}).Where("id = ?", id).Updates(map[string]interface{}{
			"metrics":    next,
			"updated_at": at,
		}).Error; err != nil {
			return fmt.Errorf("failed to update metrics: %w", err)
		}
		return resetPending(tx, id)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// SetReportOK records a successful render of the inspection as it was at
// renderedFrom (its updated_at when loaded). If the row changed since, the
// status is left alone and ErrStale is returned.
func (r *InspectionRepo) SetReportOK(ctx context.Context, id int64, location, hash string, at, renderedFrom time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Inspection
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "updated_at").
			First(&current, id).Error
		if err != nil {
			return notFound(err)
		}
		if !current.UpdatedAt.Equal(renderedFrom) {
			return ErrStale
		}
		return upsertStatus(tx, models.InspectionReportStatus{
			InspectionID: id,
			Status:       models.ReportOK,
			PDFURL:       &location,
			PDFHash:      &hash,
			RenderedAt:   &at,
		})
	})
}

// SetReportError records a failed render. Location and hash are cleared.
func (r *InspectionRepo) SetReportError(ctx context.Context, id int64, message string, at time.Time) error {
	return upsertStatus(r.db.WithContext(ctx), models.InspectionReportStatus{
		InspectionID: id,
		Status:       models.ReportError,
		RenderedAt:   &at,
		ErrorMessage: &message,
	})
}

// HistoryFilter narrows List. Empty fields are ignored; the rest are ANDed.
type HistoryFilter struct {
	CommodityCode string
	Producer      string
	Lot           string
	DateFrom      *time.Time
	// DateTo is exclusive.
	DateTo       *time.Time
	ReportStatus string
	// ExcludeCodes is applied before Limit.
	ExcludeCodes []string
	Limit        int
}

type HistoryRow struct {
	ID            int64          `gorm:"column:id"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
	Producer      *string        `gorm:"column:producer"`
	Lot           *string        `gorm:"column:lot"`
	Variety       *string        `gorm:"column:variety"`
	Caliber       *string        `gorm:"column:caliber"`
	Metrics       datatypes.JSON `gorm:"column:metrics"`
	CommodityCode string         `gorm:"column:commodity_code"`
	CommodityName string         `gorm:"column:commodity_name"`
	PDFStatus     string         `gorm:"column:pdf_status"`
	PDFURL        *string        `gorm:"column:pdf_url"`
}

// List returns summaries newest first. A missing status row reads as PENDING.
func (r *InspectionRepo) List(ctx context.Context, f HistoryFilter) ([]HistoryRow, error) {
	q := r.db.WithContext(ctx).
		Table("inspections AS i").
		Select(`i.id, i.created_at, i.producer, i.lot, i.variety, i.caliber, i.metrics,
			c.code AS commodity_code, c.name AS commodity_name,
			COALESCE(p.status, 'PENDING') AS pdf_status, p.pdf_url AS pdf_url`).
		Joins("JOIN commodities c ON c.id = i.commodity_id").
		Joins("LEFT JOIN inspection_pdfs p ON p.inspection_id = i.id")

	if f.CommodityCode != "" {
		q = q.Where("c.code = ?", strings.ToUpper(f.CommodityCode))
	}
	if len(f.ExcludeCodes) > 0 {
		q = q.Where("c.code NOT IN ?", f.ExcludeCodes)
	}
	if f.Producer != "" {
		q = q.Where("LOWER(i.producer) LIKE LOWER(?)", "%"+f.Producer+"%")
	}
	if f.Lot != "" {
		q = q.Where("LOWER(i.lot) LIKE LOWER(?)", "%"+f.Lot+"%")
	}
	if f.DateFrom != nil {
		q = q.Where("i.created_at >= ?", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		q = q.Where("i.created_at < ?", f.DateTo.UTC())
	}
	if f.ReportStatus != "" {
		q = q.Where("COALESCE(p.status, 'PENDING') = ?", strings.ToUpper(f.ReportStatus))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []HistoryRow
	if err := q.Order("i.created_at DESC").Order("i.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}
	return rows, nil
}

func exists(tx *gorm.DB, id int64) error {
	var count int64
	if err := tx.Model(&models.Inspection{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up inspection %d: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func resetPending(tx *gorm.DB, id int64) error {
	return upsertStatus(tx, models.InspectionReportStatus{InspectionID: id, Status: models.ReportPending})
}

// upsertStatus overwrites every tracked column so no stale location, hash or
// error survives a transition.
func upsertStatus(tx *gorm.DB, s models.InspectionReportStatus) error {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "inspection_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "pdf_url", "pdf_hash", "updated_at", "error_message"}),
	}).Create(&s).Error
	if err != nil {
		return fmt.Errorf("failed to set report status %s for inspection %d: %w", s.Status, s.InspectionID, err)
	}
	return nil
}
