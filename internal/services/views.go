package services

import (
	"strings"

	"insproduce-backend/internal/database"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/storage"
)

// InspectionView flattens an inspection and its report status for the API.
func InspectionView(ins *models.Inspection) models.InspectionView {
	v := models.InspectionView{
		ID:              ins.ID,
		CommodityID:     ins.CommodityID,
		CommodityCode:   ins.Commodity.Code,
		CommodityName:   ins.Commodity.Name,
		CreatedByUserID: ins.CreatedByUserID,
		Producer:        ins.Producer,
		Lot:             ins.Lot,
		Variety:         ins.Variety,
		Caliber:         ins.Caliber,
		PackagingCode:   ins.PackagingCode,
		PackagingType:   ins.PackagingType,
		PackagingDate:   ins.PackagingDate,
		NetWeight:       ins.NetWeight,
		BrixAvg:         ins.BrixAvg,
		TempWater:       ins.TempWater,
		TempAmbient:     ins.TempAmbient,
		TempPulp:        ins.TempPulp,
		Notes:           ins.Notes,
		Metrics:         ins.Metrics,
		CreatedAt:       ins.CreatedAt,
		UpdatedAt:       ins.UpdatedAt,
		PDFStatus:       ins.CurrentStatus(),
		Photos:          make([]models.PhotoView, 0, len(ins.Photos)),
	}
	if len(v.Metrics) == 0 {
		v.Metrics = []byte("{}")
	}
	if st := ins.ReportStatus; st != nil {
		v.PDFURL = st.PDFURL
		v.PDFHash = st.PDFHash
		v.PDFUpdatedAt = st.RenderedAt
		v.PDFError = st.ErrorMessage
	}
	for _, p := range ins.Photos {
		v.Photos = append(v.Photos, models.PhotoView{
			ID:        p.ID,
			URL:       p.URL,
			PublicURL: publicURL(p.URL),
			Label:     p.Label,
			CreatedAt: p.CreatedAt,
		})
	}
	return v
}

func HistoryItems(rows []database.HistoryRow) []models.HistoryItem {
	out := make([]models.HistoryItem, 0, len(rows))
	for _, r := range rows {
		metrics := r.Metrics
		if len(metrics) == 0 {
			metrics = []byte("{}")
		}
		out = append(out, models.HistoryItem{
			ID:            r.ID,
			CreatedAt:     r.CreatedAt,
			Producer:      r.Producer,
			Lot:           r.Lot,
			Variety:       r.Variety,
			Caliber:       r.Caliber,
			Metrics:       metrics,
			CommodityCode: r.CommodityCode,
			CommodityName: r.CommodityName,
			PDFStatus:     r.PDFStatus,
			PDFURL:        r.PDFURL,
		})
	}
	return out
}

func publicURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return storage.PublicPath(ref)
}
