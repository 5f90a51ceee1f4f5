package service

import "time"

// Regressor is the fitted-model surface the recursive forecaster drives.
// The in-repo forest satisfies it; tests substitute fixed-value stubs.
type Regressor interface {
	Predict(x []float64) float64
}

// Adjuster is the invocation-local heuristic attached to one recursive
// forecast run. State lives for the run and is never shared across runs
// or diseases.
type Adjuster interface {
	// PredictorValue returns the current value of the disease's train-time
	// predictor column for the given forecast day. Diseases without such a
	// column return 0 and the value is never used.
	PredictorValue(date time.Time) float64

	// Adjust maps the rounded base prediction to the final case count.
	Adjust(date time.Time, pred int) int

	// Observe records the final stored prediction so later forecast days
	// see updated heuristic state.
	Observe(date time.Time, pred int)
}
