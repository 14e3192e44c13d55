package models

// Header fields keep the wire names the inspection forms have always used.
const (
	FieldProducer      = "productor"
	FieldLot           = "lote"
	FieldVariety       = "variedad"
	FieldCaliber       = "calibre"
	FieldPackagingCode = "cod_embalaje"
	FieldPackagingType = "embalaje"
	FieldPackagingDate = "fecha_embalaje"
	FieldNetWeight     = "peso_neto"
	FieldBrixAvg       = "ss_promedio"
	FieldTempWater     = "t_agua_diping"
	FieldTempAmbient   = "t_ambiente"
	FieldTempPulp      = "t_pulpa_embalada"
	FieldNotes         = "observaciones"
)

// CommodityFields are the accepted names for the commodity code, in priority order.
var CommodityFields = []string{"commodity", "fruta", "commodity_code"}

type FieldInput struct {
	Key        string      `json:"key"`
	Label      string      `json:"label"`
	FieldType  string      `json:"field_type"`
	Type       string      `json:"type,omitempty"`
	Required   bool        `json:"required"`
	Unit       *string     `json:"unit,omitempty"`
	MinValue   *float64    `json:"min_value,omitempty"`
	MaxValue   *float64    `json:"max_value,omitempty"`
	Options    interface{} `json:"options,omitempty"`
	OrderIndex int         `json:"order_index"`
}

// ResolvedType prefers field_type and falls back to type.
func (f FieldInput) ResolvedType() string {
	if f.FieldType != "" {
		return f.FieldType
	}
	return f.Type
}

type ReplaceFieldsRequest struct {
	Fields []FieldInput `json:"fields"`
}

type PublishTemplateRequest struct {
	Name   string       `json:"name"`
	Fields []FieldInput `json:"fields"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
