package models

import "time"

// LabTest is one daily laboratory record for a disease.
type LabTest struct {
	Date          time.Time
	Disease       Disease
	TotalTests    int
	PositiveTests int
}

// MedicineSale is one daily sales record for a medicine.
type MedicineSale struct {
	Date            time.Time
	Medicine        string
	Sale            float64
	DiseaseCategory Disease // classification assigned at import, may be empty
}

// SeriesRow is one day of the joined modelling series: the case count plus
// the tracked medicine sales pivoted into columns. Rows exist only for dates
// where both a lab record and at least one sales record are present; a
// medicine with no record on such a date contributes 0.
type SeriesRow struct {
	Date          time.Time
	PositiveTests float64
	Sales         map[string]float64
}

// DataRange describes the usable extent of stored data for one disease.
// The trainable range is the intersection of the lab and sales ranges.
type DataRange struct {
	Disease        Disease
	LabStart       time.Time
	LabEnd         time.Time
	SalesStart     time.Time
	SalesEnd       time.Time
	TrainableStart time.Time
	TrainableEnd   time.Time
}

// Empty reports whether no usable overlap exists.
func (r DataRange) Empty() bool {
	return r.TrainableStart.IsZero() || r.TrainableEnd.Before(r.TrainableStart)
}
