package analytics

import (
    "time"

    "EpiCast/internal/domain/models"
    domsvc "EpiCast/internal/domain/service"
    "EpiCast/pkg/util"
)

// SalesSurge doubles a prediction when total tracked medicine sales rose on
// each of the last two one-day comparisons. Sales come from recorded
// history, never from predictions; a day with no record reads as 0.
type SalesSurge struct {
    sales map[time.Time]float64
}

func NewSalesSurge(rows []models.SeriesRow) *SalesSurge {
    sales := make(map[time.Time]float64, len(rows))
    for _, r := range rows {
        var total float64
        for _, v := range r.Sales {
            total += v
        }
        sales[util.Day(r.Date)] = total
    }
    return &SalesSurge{sales: sales}
}

func (s *SalesSurge) PredictorValue(time.Time) float64 { return 0 }

func (s *SalesSurge) Adjust(date time.Time, pred int) int {
    day := util.Day(date)
    t0 := s.sales[day]
    t1 := s.sales[day.AddDate(0, 0, -1)]
    t2 := s.sales[day.AddDate(0, 0, -2)]
    if t0 > t1 && t0 > t2 {
        return pred * 2
    }
    return pred
}

func (s *SalesSurge) Observe(time.Time, int) {}

var _ domsvc.Adjuster = (*SalesSurge)(nil)
