package usecase

import (
	"context"
	"fmt"

	"EpiCast/internal/domain/models"
	drepo "EpiCast/internal/domain/repository"
)

// DataRangeService reports how far each disease's stored series extend and
// where they overlap. The overlap is what training and forecasting can
// actually use.
type DataRangeService struct {
	series drepo.SeriesStore
}

func NewDataRangeService(series drepo.SeriesStore) *DataRangeService {
	return &DataRangeService{series: series}
}

// For computes the ranges for one disease.
func (s *DataRangeService) For(ctx context.Context, disease models.Disease) (*models.DataRange, error) {
	spec, ok := models.SpecFor(disease)
	if !ok {
		return nil, fmt.Errorf("usecase: unknown disease %q", disease)
	}

	labFrom, labTo, err := s.series.LabRange(ctx, disease)
	if err != nil {
		return nil, fmt.Errorf("usecase: lab range for %s: %w", disease, err)
	}
	salesFrom, salesTo, err := s.series.SalesRange(ctx, spec.Medicines)
	if err != nil {
		return nil, fmt.Errorf("usecase: sales range for %s: %w", disease, err)
	}

	rng := &models.DataRange{
		Disease:    disease,
		LabStart:   labFrom,
		LabEnd:     labTo,
		SalesStart: salesFrom,
		SalesEnd:   salesTo,
	}
	if !labFrom.IsZero() && !salesFrom.IsZero() {
		start, end := labFrom, labTo
		if salesFrom.After(start) {
			start = salesFrom
		}
		if salesTo.Before(end) {
			end = salesTo
		}
		if !end.Before(start) {
			rng.TrainableStart = start
			rng.TrainableEnd = end
		}
	}
	return rng, nil
}

// All computes the ranges for every configured disease.
func (s *DataRangeService) All(ctx context.Context) ([]models.DataRange, error) {
	specs := models.AllSpecs()
	ranges := make([]models.DataRange, 0, len(specs))
	for _, spec := range specs {
		rng, err := s.For(ctx, spec.Disease)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, *rng)
	}
	return ranges, nil
}
