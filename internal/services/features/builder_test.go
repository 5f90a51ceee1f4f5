package features

import (
    "math"
    "testing"
    "time"

    "EpiCast/internal/domain/models"
)

func mustSpec(t *testing.T, d models.Disease) models.DiseaseSpec {
    t.Helper()
    spec, ok := models.SpecFor(d)
    if !ok {
        t.Fatalf("no spec for %s", d)
    }
    return spec
}

// syntheticRows builds n contiguous days from Monday 2024-01-01 with
// positives 10,11,12,... and both tracked medicines selling 2*i and 3*i.
func syntheticRows(spec models.DiseaseSpec, n int) []models.SeriesRow {
    start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    rows := make([]models.SeriesRow, n)
    for i := 0; i < n; i++ {
        sales := make(map[string]float64, len(spec.Medicines))
        for j, m := range spec.Medicines {
            sales[m] = float64((j + 2) * i)
        }
        rows[i] = models.SeriesRow{
            Date:          start.AddDate(0, 0, i),
            PositiveTests: float64(10 + i),
            Sales:         sales,
        }
    }
    return rows
}

func TestModelColumnsMalariaOrder(t *testing.T) {
    spec := mustSpec(t, models.DiseaseMalaria)
    cols := ModelColumns(spec, 2)
    want := []string{
        "positive_tests_lag1", "positive_tests_lag2",
        "Coartem_lag1", "Coartem_lag2",
        "Fansidar_lag1", "Fansidar_lag2",
        "pos7", "pos14",
        "year", "month", "dow", "dom",
        "Coartem", "Fansidar",
        "peak_cycle_predictor",
    }
    if len(cols) != len(want) {
        t.Fatalf("got %d columns, want %d: %v", len(cols), len(want), cols)
    }
    for i := range want {
        if cols[i] != want[i] {
            t.Fatalf("column %d: got %s want %s", i, cols[i], want[i])
        }
    }
}

func TestModelColumnsDengueOrder(t *testing.T) {
    spec := mustSpec(t, models.DiseaseDengue)
    cols := ModelColumns(spec, 2)
    want := []string{
        "positive_tests_lag1", "positive_tests_lag2",
        "Panadol_lag1", "Panadol_lag2",
        "Calpol_lag1", "Calpol_lag2",
        "pos7", "pos14",
        "dow", "dom", "month",
        "Panadol", "Calpol",
    }
    if len(cols) != len(want) {
        t.Fatalf("got %d columns, want %d: %v", len(cols), len(want), cols)
    }
    for i := range want {
        if cols[i] != want[i] {
            t.Fatalf("column %d: got %s want %s", i, cols[i], want[i])
        }
    }
}

func TestBuildDropsWarmupRows(t *testing.T) {
    spec := mustSpec(t, models.DiseaseDengue)
    f, err := Build(syntheticRows(spec, 20), spec, DefaultLags)
    if err != nil {
        t.Fatalf("build: %v", err)
    }
    if f.Len() != 6 {
        t.Fatalf("got %d rows, want 6", f.Len())
    }
    wantFirst := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
    if !f.Date(0).Equal(wantFirst) {
        t.Fatalf("first kept date %v, want %v", f.Date(0), wantFirst)
    }
}

func TestBuildShortHistoryIsEmpty(t *testing.T) {
    spec := mustSpec(t, models.DiseaseDengue)
    f, err := Build(syntheticRows(spec, DefaultLags), spec, DefaultLags)
    if err != nil {
        t.Fatalf("build: %v", err)
    }
    if f.Len() != 0 {
        t.Fatalf("got %d rows, want 0", f.Len())
    }
}

func TestBuildLagValues(t *testing.T) {
    spec := mustSpec(t, models.DiseaseDengue)
    rows := syntheticRows(spec, 20)
    f, err := Build(rows, spec, DefaultLags)
    if err != nil {
        t.Fatalf("build: %v", err)
    }

    // Frame row 0 is input row 14: positives 24, lag1 -> log1p(23),
    // lag14 -> log1p(10), Panadol lag1 -> 2*13 raw.
    lag1, _ := f.Column(LagColumn(ColTarget, 1))
    if got, want := lag1[0], math.Log1p(23); got != want {
        t.Fatalf("target lag1 = %v, want %v", got, want)
    }
    lag14, _ := f.Column(LagColumn(ColTarget, 14))
    if got, want := lag14[0], math.Log1p(10); got != want {
        t.Fatalf("target lag14 = %v, want %v", got, want)
    }
    pl1, _ := f.Column(LagColumn("Panadol", 1))
    if got, want := pl1[0], float64(2*13); got != want {
        t.Fatalf("Panadol lag1 = %v, want %v", got, want)
    }
    cur, _ := f.Column("Panadol")
    if got, want := cur[0], float64(2*14); got != want {
        t.Fatalf("Panadol current = %v, want %v", got, want)
    }
}

func TestBuildRollingMeans(t *testing.T) {
    spec := mustSpec(t, models.DiseaseDengue)
    f, err := Build(syntheticRows(spec, 20), spec, DefaultLags)
    if err != nil {
        t.Fatalf("build: %v", err)
    }
    // Row 0 is input row 14. pos7 averages positives of rows 7..13
    // = mean(17..23) = 20; pos14 averages rows 0..13 = mean(10..23) = 16.5.
    pos7, _ := f.Column(ColPos7)
    if pos7[0] != 20 {
        t.Fatalf("pos7 = %v, want 20", pos7[0])
    }
    pos14, _ := f.Column(ColPos14)
    if pos14[0] != 16.5 {
        t.Fatalf("pos14 = %v, want 16.5", pos14[0])
    }
}

func TestBuildNoCurrentDayLeakage(t *testing.T) {
    spec := mustSpec(t, models.DiseaseDengue)
    rows := syntheticRows(spec, 20)
    base, err := Build(rows, spec, DefaultLags)
    if err != nil {
        t.Fatalf("build: %v", err)
    }

    // Perturb only the final day's case count.
    rows[19].PositiveTests = 999
    mut, err := Build(rows, spec, DefaultLags)
    if err != nil {
        t.Fatalf("build: %v", err)
    }

    last := base.Len() - 1
    cols := ModelColumns(spec, DefaultLags)
    a, err := base.Row(last, cols)
    if err != nil {
        t.Fatalf("row: %v", err)
    }
    b, err := mut.Row(last, cols)
    if err != nil {
        t.Fatalf("row: %v", err)
    }
    for j := range a {
        if a[j] != b[j] {
            t.Fatalf("feature %s changed with current-day target: %v vs %v", cols[j], a[j], b[j])
        }
    }

    // The target itself must reflect the perturbation.
    ya, _ := base.Column(ColY)
    yb, _ := mut.Column(ColY)
    if ya[last] == yb[last] {
        t.Fatalf("y did not change with the perturbed target")
    }
}

func TestBuildCalendarEncoding(t *testing.T) {
    spec := mustSpec(t, models.DiseaseMalaria)
    f, err := Build(syntheticRows(spec, 20), spec, DefaultLags)
    if err != nil {
        t.Fatalf("build: %v", err)
    }
    // Row 0 is 2024-01-15, a Monday.
    dow, _ := f.Column(ColDOW)
    if dow[0] != 0 {
        t.Fatalf("monday dow = %v, want 0", dow[0])
    }
    dom, _ := f.Column(ColDOM)
    if dom[0] != 15 {
        t.Fatalf("dom = %v, want 15", dom[0])
    }
    year, _ := f.Column(ColYear)
    if year[0] != 2024 {
        t.Fatalf("year = %v, want 2024", year[0])
    }
}

func TestBuildResortsInput(t *testing.T) {
    spec := mustSpec(t, models.DiseaseDengue)
    rows := syntheticRows(spec, 20)
    shuffled := make([]models.SeriesRow, len(rows))
    copy(shuffled, rows)
    for i := 0; i < len(shuffled)-1; i += 2 {
        shuffled[i], shuffled[i+1] = shuffled[i+1], shuffled[i]
    }

    a, err := Build(rows, spec, DefaultLags)
    if err != nil {
        t.Fatalf("build: %v", err)
    }
    b, err := Build(shuffled, spec, DefaultLags)
    if err != nil {
        t.Fatalf("build: %v", err)
    }
    if a.Len() != b.Len() {
        t.Fatalf("row count differs: %d vs %d", a.Len(), b.Len())
    }
    cols := ModelColumns(spec, DefaultLags)
    for i := 0; i < a.Len(); i++ {
        ra, _ := a.Row(i, cols)
        rb, _ := b.Row(i, cols)
        for j := range ra {
            if ra[j] != rb[j] {
                t.Fatalf("row %d col %s differs after shuffle", i, cols[j])
            }
        }
    }
}

func TestJoinSeries(t *testing.T) {
    d := func(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }
    lab := []models.LabTest{
        {Date: d(1), Disease: models.DiseaseDengue, PositiveTests: 5},
        {Date: d(2), Disease: models.DiseaseDengue, PositiveTests: 7},
        {Date: d(3), Disease: models.DiseaseDengue, PositiveTests: 9},
    }
    sales := []models.MedicineSale{
        {Date: d(1), Medicine: "Panadol", Sale: 10},
        {Date: d(1), Medicine: "Panadol", Sale: 4}, // same day, summed
        {Date: d(3), Medicine: "Calpol", Sale: 6},
        {Date: d(3), Medicine: "Ibuprofen", Sale: 99}, // untracked
    }

    rows := JoinSeries(lab, sales, []string{"Panadol", "Calpol"})
    if len(rows) != 2 {
        t.Fatalf("got %d rows, want 2 (day 2 has no sales)", len(rows))
    }
    if rows[0].Sales["Panadol"] != 14 || rows[0].Sales["Calpol"] != 0 {
        t.Fatalf("day 1 sales = %v", rows[0].Sales)
    }
    if rows[1].Sales["Calpol"] != 6 || rows[1].Sales["Panadol"] != 0 {
        t.Fatalf("day 3 sales = %v", rows[1].Sales)
    }
    if _, ok := rows[1].Sales["Ibuprofen"]; ok {
        t.Fatalf("untracked medicine leaked into the join")
    }
}
