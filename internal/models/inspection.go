package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ReportPending = "PENDING"
	ReportOK      = "OK"
	ReportError   = "ERROR"
)

func IsReportStatus(s string) bool {
	switch s {
	case ReportPending, ReportOK, ReportError:
		return true
	}
	return false
}

type Inspection struct {
	ID              int64          `gorm:"primaryKey"`
	CommodityID     int64          `gorm:"not null;index"`
	CreatedByUserID string         `gorm:"not null"`
	Producer        *string        `gorm:"index"`
	Lot             *string        `gorm:"index"`
	Variety         *string
	Caliber         *string
	PackagingCode   *string
	PackagingType   *string
	PackagingDate   *time.Time
	NetWeight       *float64
	BrixAvg         *float64
	TempWater       *float64
	TempAmbient     *float64
	TempPulp        *float64
	Notes           *string
	Metrics         datatypes.JSON
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time

	Commodity    Commodity               `gorm:"foreignKey:CommodityID"`
	Photos       []InspectionPhoto       `gorm:"foreignKey:InspectionID"`
	ReportStatus *InspectionReportStatus `gorm:"foreignKey:InspectionID"`
}

func (Inspection) TableName() string { return "inspections" }

type InspectionPhoto struct {
	ID           int64  `gorm:"primaryKey"`
	InspectionID int64  `gorm:"not null;index"`
	URL          string `gorm:"column:url;not null"`
	Label        *string
	CreatedAt    time.Time
}

func (InspectionPhoto) TableName() string { return "inspection_photos" }

// InspectionReportStatus tracks the rendered PDF for one inspection. OK is only
// trustworthy until the next header or metrics write.
type InspectionReportStatus struct {
	ID           int64      `gorm:"primaryKey"`
	InspectionID int64      `gorm:"not null;uniqueIndex"`
	Status       string     `gorm:"size:16;not null"`
	PDFURL       *string    `gorm:"column:pdf_url"`
	PDFHash      *string    `gorm:"column:pdf_hash"`
	RenderedAt   *time.Time `gorm:"column:updated_at"`
	ErrorMessage *string
}

func (InspectionReportStatus) TableName() string { return "inspection_pdfs" }

// CurrentStatus treats a missing row as PENDING.
func (i *Inspection) CurrentStatus() string {
	if i.ReportStatus == nil || i.ReportStatus.Status == "" {
		return ReportPending
	}
	return i.ReportStatus.Status
}

// Header is the identification and lot-condition block of an inspection.
type Header struct {
	Producer      *string
	Lot           *string
	Variety       *string
	Caliber       *string
	PackagingCode *string
	PackagingType *string
	PackagingDate *time.Time
	NetWeight     *float64
	BrixAvg       *float64
	TempWater     *float64
	TempAmbient   *float64
	TempPulp      *float64
	Notes         *string
}

func (h Header) Apply(i *Inspection) {
	i.Producer = h.Producer
	i.Lot = h.Lot
	i.Variety = h.Variety
	i.Caliber = h.Caliber
	i.PackagingCode = h.PackagingCode
	i.PackagingType = h.PackagingType
	i.PackagingDate = h.PackagingDate
	i.NetWeight = h.NetWeight
	i.BrixAvg = h.BrixAvg
	i.TempWater = h.TempWater
	i.TempAmbient = h.TempAmbient
	i.TempPulp = h.TempPulp
	i.Notes = h.Notes
}

// HeaderPatch holds only the supplied header fields. A Set entry with a nil
// value clears the column.
type HeaderPatch struct {
	Set map[string]interface{}
}

func NewHeaderPatch() HeaderPatch {
	return HeaderPatch{Set: make(map[string]interface{})}
}

// HeaderColumns lists the columns a HeaderPatch may touch.
var HeaderColumns = []string{
	"producer", "lot", "variety", "caliber",
	"packaging_code", "packaging_type", "packaging_date",
	"net_weight", "brix_avg", "temp_water", "temp_ambient", "temp_pulp",
	"notes",
}

func (p HeaderPatch) Empty() bool { return len(p.Set) == 0 }
