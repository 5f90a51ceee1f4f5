package forecasting

import (
    "fmt"
    "time"

    "EpiCast/internal/domain/models"
)

// InsufficientDataError is returned when the training window yields fewer
// usable feature rows than the configured minimum.
type InsufficientDataError struct {
    Disease models.Disease
    Rows    int
    Need    int
}

func (e *InsufficientDataError) Error() string {
    return fmt.Sprintf("forecasting: not enough data for %s: %d usable rows, need at least %d", e.Disease, e.Rows, e.Need)
}

// MissingSeriesError is returned when one of the two input series (lab tests
// or medicine sales) has no records at all for the disease.
type MissingSeriesError struct {
    Disease models.Disease
    Series  string
}

func (e *MissingSeriesError) Error() string {
    return fmt.Sprintf("forecasting: no %s records available for %s", e.Series, e.Disease)
}

// DataRangeError is returned when a forecast window reaches past the last
// date covered by both input series. Max names the latest supported date so
// callers can clamp and retry.
type DataRangeError struct {
    Disease   models.Disease
    Requested time.Time
    Max       time.Time
}

func (e *DataRangeError) Error() string {
    if e.Max.IsZero() {
        return fmt.Sprintf("forecasting: no joinable data for %s in the requested window", e.Disease)
    }
    return fmt.Sprintf("forecasting: requested %s forecast through %s but data ends at %s",
        e.Disease, e.Requested.Format("2006-01-02"), e.Max.Format("2006-01-02"))
}

// FeatureMismatchError is returned when a stored model's feature columns do
// not line up with the columns the current feature derivation produces. A
// model in this state must be retrained, not silently re-mapped.
type FeatureMismatchError struct {
    Disease models.Disease
    Want    []string
    Got     []string
}

func (e *FeatureMismatchError) Error() string {
    return fmt.Sprintf("forecasting: model for %s was trained on %d feature columns but the current derivation produces %d; retrain required",
        e.Disease, len(e.Got), len(e.Want))
}
