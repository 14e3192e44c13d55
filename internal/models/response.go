package models

import (
	"time"

	"gorm.io/datatypes"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ActiveTemplateResponse struct {
	Commodity Commodity      `json:"commodity"`
	Template  MetricTemplate `json:"template"`
	Fields    []FieldView    `json:"fields"`
}

type PublishTemplateResponse struct {
	ActiveTemplateResponse
	Skipped int `json:"skipped"`
}

// FieldView renders options as a decoded list instead of raw JSON.
type FieldView struct {
	ID         int64    `json:"id"`
	TemplateID int64    `json:"template_id"`
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	FieldType  string   `json:"field_type"`
	Required   bool     `json:"required"`
	Unit       *string  `json:"unit"`
	MinValue   *float64 `json:"min_value"`
	MaxValue   *float64 `json:"max_value"`
	Options    []string `json:"options"`
	OrderIndex int      `json:"order_index"`
}

type ReplaceFieldsResponse struct {
	TemplateID int64       `json:"template_id"`
	Stored     int         `json:"stored"`
	Skipped    int         `json:"skipped"`
	Fields     []FieldView `json:"fields"`
}

type Warning struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

type CreateInspectionResponse struct {
	Success      bool      `json:"success"`
	InspectionID int64     `json:"inspection_id"`
	PDFStatus    string    `json:"pdf_status"`
	Photos       []string  `json:"fotos"`
	Warnings     []Warning `json:"warnings,omitempty"`
}

type PhotoView struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	PublicURL string    `json:"url_public"`
	Label     *string   `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

type InspectionView struct {
	ID              int64          `json:"id"`
	CommodityID     int64          `json:"commodity_id"`
	CommodityCode   string         `json:"commodity_code"`
	CommodityName   string         `json:"commodity_name"`
	CreatedByUserID string         `json:"created_by_user_id"`
	Producer        *string        `json:"producer"`
	Lot             *string        `json:"lot"`
	Variety         *string        `json:"variety"`
	Caliber         *string        `json:"caliber"`
	PackagingCode   *string        `json:"packaging_code"`
	PackagingType   *string        `json:"packaging_type"`
	PackagingDate   *time.Time     `json:"packaging_date"`
	NetWeight       *float64       `json:"net_weight"`
	BrixAvg         *float64       `json:"brix_avg"`
	TempWater       *float64       `json:"temp_water"`
	TempAmbient     *float64       `json:"temp_ambient"`
	TempPulp        *float64       `json:"temp_pulp"`
	Notes           *string        `json:"notes"`
	Metrics         datatypes.JSON `json:"metrics"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	PDFStatus       string         `json:"pdf_status"`
	PDFURL          *string        `json:"pdf_url"`
	PDFHash         *string        `json:"pdf_hash,omitempty"`
	PDFUpdatedAt    *time.Time     `json:"pdf_updated_at"`
	PDFError        *string        `json:"pdf_error,omitempty"`
	Photos          []PhotoView    `json:"fotos,omitempty"`
}

type UpdateInspectionResponse struct {
	Success    bool           `json:"success"`
	Inspection InspectionView `json:"inspection"`
	PDFStatus  string         `json:"pdf_status"`
	Warnings   []Warning      `json:"warnings,omitempty"`
}

type UpdateMetricsResponse struct {
	Success   bool           `json:"success"`
	ID        int64          `json:"id"`
	Metrics   datatypes.JSON `json:"metrics"`
	PDFStatus string         `json:"pdf_status"`
	Warnings  []Warning      `json:"warnings,omitempty"`
}

// HistoryItem is one row of the admin history listing.
type HistoryItem struct {
	ID            int64          `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	Producer      *string        `json:"producer"`
	Lot           *string        `json:"lot"`
	Variety       *string        `json:"variety"`
	Caliber       *string        `json:"caliber"`
	Metrics       datatypes.JSON `json:"metrics"`
	CommodityCode string         `json:"commodity_code"`
	CommodityName string         `json:"commodity_name"`
	PDFStatus     string         `json:"pdf_status"`
	PDFURL        *string        `json:"pdf_url"`
}

type GenerateReportResponse struct {
	Success   bool   `json:"success"`
	PDFURL    string `json:"pdf_url,omitempty"`
	PDFHash   string `json:"pdf_hash,omitempty"`
	PDFStatus string `json:"pdf_status"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}
