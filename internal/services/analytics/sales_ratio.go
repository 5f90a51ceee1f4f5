package analytics

import (
    "math"
    "sort"
    "time"

    "gonum.org/v1/gonum/stat"

    "EpiCast/internal/domain/models"
    domsvc "EpiCast/internal/domain/service"
    "EpiCast/pkg/util"
)

// Sales-ratio thresholds. The upper bound is inclusive, the lower exclusive.
const (
    ratioSurge     = 2.0
    ratioDrop      = 0.75
    surgeMultiple  = 2.5
    dropMultiple   = 0.75
)

// SalesRatio scales a prediction by how the day's total tracked sales
// compare with the trailing weekly average of the previous seven recorded
// days. A ratio of at least 2 multiplies by 2.5; a ratio under 0.75
// multiplies by 0.75 with a floor of one case; anything else, a missing
// day, or a zero average leaves the prediction unchanged.
type SalesRatio struct {
    sales map[time.Time]float64
    avg7  map[time.Time]float64
}

func NewSalesRatio(rows []models.SeriesRow) *SalesRatio {
    sorted := make([]models.SeriesRow, len(rows))
    copy(sorted, rows)
    sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

    totals := make([]float64, len(sorted))
    sales := make(map[time.Time]float64, len(sorted))
    for i, r := range sorted {
        var total float64
        for _, v := range r.Sales {
            total += v
        }
        totals[i] = total
        sales[util.Day(r.Date)] = total
    }

    // Trailing average over the previous 7 recorded rows, current excluded.
    avg7 := make(map[time.Time]float64, len(sorted))
    for i, r := range sorted {
        if i < 7 {
            continue
        }
        avg7[util.Day(r.Date)] = stat.Mean(totals[i-7:i], nil)
    }

    return &SalesRatio{sales: sales, avg7: avg7}
}

func (s *SalesRatio) PredictorValue(time.Time) float64 { return 0 }

func (s *SalesRatio) Adjust(date time.Time, pred int) int {
    day := util.Day(date)
    avg, ok := s.avg7[day]
    if !ok || avg <= 0 {
        return pred
    }
    total, ok := s.sales[day]
    if !ok {
        return pred
    }

    ratio := total / avg
    switch {
    case ratio >= ratioSurge:
        return int(math.Round(math.Max(0, float64(pred)*surgeMultiple)))
    case ratio < ratioDrop:
        down := int(math.Round(math.Max(0, float64(pred)*dropMultiple)))
        if down < 1 {
            down = 1
        }
        return down
    default:
        return pred
    }
}

func (s *SalesRatio) Observe(time.Time, int) {}

var _ domsvc.Adjuster = (*SalesRatio)(nil)
