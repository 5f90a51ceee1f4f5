package features

import (
    "fmt"
    "math"
    "sort"
    "time"

    "gonum.org/v1/gonum/stat"

    "EpiCast/internal/domain/models"
    "EpiCast/pkg/util"
)

// DefaultLags is the lag window shared by every disease pipeline.
const DefaultLags = 14

// Shared column names. Medicine sales columns are named by the medicine itself.
const (
    ColTarget = "positive_tests"
    ColY      = "y"
    ColPos7   = "pos7"
    ColPos14  = "pos14"
    ColYear   = "year"
    ColMonth  = "month"
    ColDOW    = "dow"
    ColDOM    = "dom"
)

// LagColumn names the k-step lag of a column.
func LagColumn(col string, k int) string {
    return fmt.Sprintf("%s_lag%d", col, k)
}

// CalendarColumns returns the calendar feature block for a disease. The year
// column, when configured, leads the block and reorders the remainder.
func CalendarColumns(spec models.DiseaseSpec) []string {
    if spec.IncludeYear {
        return []string{ColYear, ColMonth, ColDOW, ColDOM}
    }
    return []string{ColDOW, ColDOM, ColMonth}
}

// ModelColumns returns the ordered feature list the regressor sees: target
// and medicine lags, rolling means, calendar features, current-day sales,
// and the train-time predictor column when the disease has one. Training and
// prediction both derive their column list from here, so the two always agree.
func ModelColumns(spec models.DiseaseSpec, lags int) []string {
    cols := make([]string, 0, (1+len(spec.Medicines))*lags+len(spec.Medicines)+7)
    for k := 1; k <= lags; k++ {
        cols = append(cols, LagColumn(ColTarget, k))
    }
    for _, m := range spec.Medicines {
        for k := 1; k <= lags; k++ {
            cols = append(cols, LagColumn(m, k))
        }
    }
    cols = append(cols, ColPos7, ColPos14)
    cols = append(cols, CalendarColumns(spec)...)
    cols = append(cols, spec.Medicines...)
    if spec.PredictorColumn != "" {
        cols = append(cols, spec.PredictorColumn)
    }
    return cols
}

// Build derives the modelling frame from the joined daily series. Rows are
// re-sorted by date before lagging, so caller order never matters. Lag and
// rolling semantics are positional over the sorted rows, which equals
// calendar-day lags when the series is gap-free. Target lags and the target
// y are log1p-transformed; medicine lags stay in raw units. The rolling
// means pos7/pos14 average the previous 7/14 raw counts, never the current
// day. Rows lacking full lag or rolling history are dropped; fewer than
// lags+1 input rows therefore produce an empty frame, not an error.
//
// Day-of-week is encoded Monday=0 through Sunday=6.
func Build(rows []models.SeriesRow, spec models.DiseaseSpec, lags int) (*Frame, error) {
    if lags <= 0 {
        return nil, fmt.Errorf("features: invalid lag count %d", lags)
    }

    sorted := make([]models.SeriesRow, len(rows))
    copy(sorted, rows)
    sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

    n := len(sorted)
    dates := make([]time.Time, n)
    target := make([]float64, n)
    salesByMed := make(map[string][]float64, len(spec.Medicines))
    for _, m := range spec.Medicines {
        salesByMed[m] = make([]float64, n)
    }
    for i, r := range sorted {
        dates[i] = util.Day(r.Date)
        target[i] = r.PositiveTests
        for _, m := range spec.Medicines {
            salesByMed[m][i] = r.Sales[m]
        }
    }

    logTarget := make([]float64, n)
    for i, v := range target {
        logTarget[i] = math.Log1p(v)
    }

    f := NewFrame(dates)

    for k := 1; k <= lags; k++ {
        if err := f.AddColumn(LagColumn(ColTarget, k), shift(logTarget, k)); err != nil {
            return nil, err
        }
    }
    for _, m := range spec.Medicines {
        for k := 1; k <= lags; k++ {
            if err := f.AddColumn(LagColumn(m, k), shift(salesByMed[m], k)); err != nil {
                return nil, err
            }
        }
    }

    if err := f.AddColumn(ColPos7, shiftedRollingMean(target, 7)); err != nil {
        return nil, err
    }
    if err := f.AddColumn(ColPos14, shiftedRollingMean(target, 14)); err != nil {
        return nil, err
    }

    for _, c := range CalendarColumns(spec) {
        if err := f.AddColumn(c, calendarColumn(dates, c)); err != nil {
            return nil, err
        }
    }

    for _, m := range spec.Medicines {
        if err := f.AddColumn(m, salesByMed[m]); err != nil {
            return nil, err
        }
    }
    if err := f.AddColumn(ColTarget, target); err != nil {
        return nil, err
    }
    if err := f.AddColumn(ColY, logTarget); err != nil {
        return nil, err
    }

    return f.DropNull(), nil
}

// shift moves values down k positions, padding the head with NaN.
func shift(vals []float64, k int) []float64 {
    out := make([]float64, len(vals))
    for i := range out {
        if i < k {
            out[i] = math.NaN()
            continue
        }
        out[i] = vals[i-k]
    }
    return out
}

// shiftedRollingMean averages the previous window values: the value at row i
// covers rows i-window through i-1.
func shiftedRollingMean(vals []float64, window int) []float64 {
    out := make([]float64, len(vals))
    for i := range out {
        if i < window {
            out[i] = math.NaN()
            continue
        }
        out[i] = stat.Mean(vals[i-window:i], nil)
    }
    return out
}

func calendarColumn(dates []time.Time, name string) []float64 {
    out := make([]float64, len(dates))
    for i, d := range dates {
        switch name {
        case ColYear:
            out[i] = float64(d.Year())
        case ColMonth:
            out[i] = float64(int(d.Month()))
        case ColDOW:
            out[i] = float64((int(d.Weekday()) + 6) % 7)
        case ColDOM:
            out[i] = float64(d.Day())
        }
    }
    return out
}

// JoinSeries merges daily lab counts with pivoted medicine sales, as an
// inner join on date: a day survives only when it has a lab row and at least
// one sales row. Multiple sales rows for the same date and medicine sum; a
// tracked medicine with no row on a surviving day contributes 0.
func JoinSeries(lab []models.LabTest, sales []models.MedicineSale, medicines []string) []models.SeriesRow {
    tracked := make(map[string]bool, len(medicines))
    for _, m := range medicines {
        tracked[m] = true
    }

    pivot := make(map[time.Time]map[string]float64)
    for _, s := range sales {
        if !tracked[s.Medicine] {
            continue
        }
        day := util.Day(s.Date)
        if pivot[day] == nil {
            pivot[day] = make(map[string]float64, len(medicines))
        }
        pivot[day][s.Medicine] += s.Sale
    }

    out := make([]models.SeriesRow, 0, len(lab))
    for _, l := range lab {
        day := util.Day(l.Date)
        sal, ok := pivot[day]
        if !ok {
            continue
        }
        row := models.SeriesRow{
            Date:          day,
            PositiveTests: float64(l.PositiveTests),
            Sales:         make(map[string]float64, len(medicines)),
        }
        for _, m := range medicines {
            row.Sales[m] = sal[m]
        }
        out = append(out, row)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
    return out
}
