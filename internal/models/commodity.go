package models

import (
	"time"

	"gorm.io/datatypes"
)

// Commodity is a fruit type. Rows are deactivated, never deleted.
type Commodity struct {
	ID     int64  `gorm:"primaryKey" json:"id"`
	Code   string `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name   string `gorm:"not null" json:"name"`
	Active bool   `gorm:"not null" json:"active"`
}

func (Commodity) TableName() string { return "commodities" }

// MetricTemplate is one version of the quality schema for a commodity.
type MetricTemplate struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	CommodityID int64     `gorm:"not null;index" json:"commodity_id"`
	Version     int       `gorm:"not null" json:"version"`
	Name        string    `gorm:"not null" json:"name"`
	Active      bool      `gorm:"not null;index" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (MetricTemplate) TableName() string { return "metric_templates" }

const (
	FieldTypeText   = "text"
	FieldTypeNumber = "number"
	FieldTypeSelect = "select"
)

func IsFieldType(t string) bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeSelect:
		return true
	}
	return false
}

type MetricField struct {
	ID         int64          `gorm:"primaryKey" json:"id"`
	TemplateID int64          `gorm:"not null;uniqueIndex:idx_metric_fields_template_key" json:"template_id"`
	Key        string         `gorm:"not null;uniqueIndex:idx_metric_fields_template_key" json:"key"`
	Label      string         `gorm:"not null" json:"label"`
	FieldType  string         `gorm:"column:field_type;not null" json:"field_type"`
	Required   bool           `gorm:"not null" json:"required"`
	Unit       *string        `json:"unit"`
	MinValue   *float64       `json:"min_value"`
	MaxValue   *float64       `json:"max_value"`
	Options    datatypes.JSON `json:"options"`
	OrderIndex int            `gorm:"not null" json:"order_index"`
}

func (MetricField) TableName() string { return "metric_fields" }
