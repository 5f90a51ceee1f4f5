package randomforest

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func clusterData() ([][]float64, []float64) {
	x := [][]float64{
		{0.05}, {0.1}, {0.15}, {0.2}, {0.3}, {0.4},
		{0.6}, {0.7}, {0.75}, {0.8}, {0.9}, {0.95},
	}
	y := []float64{0, 0, 0, 0, 0, 0, 100, 100, 100, 100, 100, 100}
	return x, y
}

func noisyData() ([][]float64, []float64) {
	x := [][]float64{
		{1, 3}, {2, 1}, {3, 4}, {4, 1}, {5, 5}, {6, 9}, {7, 2}, {8, 6},
		{9, 5}, {10, 3}, {11, 5}, {12, 8}, {13, 9}, {14, 7}, {15, 9}, {16, 3},
	}
	y := []float64{4, 7, 1, 9, 3, 12, 6, 15, 8, 2, 11, 5, 14, 9, 1, 13}
	return x, y
}

func TestFitValidatesInput(t *testing.T) {
	if _, err := Fit(nil, nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := Fit([][]float64{{1}}, []float64{1, 2}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
	if _, err := Fit([][]float64{{1, 2}, {3}}, []float64{1, 2}); err == nil {
		t.Fatalf("expected ragged row error")
	}
}

func TestFitDeterministic(t *testing.T) {
	x, y := noisyData()
	a, err := Fit(x, y, WithTrees(25), WithSeed(42))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	b, err := Fit(x, y, WithTrees(25), WithSeed(42))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different forests")
	}
}

func TestFitSeedMatters(t *testing.T) {
	x, y := noisyData()
	a, _ := Fit(x, y, WithTrees(25), WithSeed(1))
	b, _ := Fit(x, y, WithTrees(25), WithSeed(2))
	if reflect.DeepEqual(a, b) {
		t.Fatalf("different seeds produced identical forests")
	}
}

func TestPredictConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{5, 5, 5, 5}
	f, err := Fit(x, y, WithTrees(10))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if got := f.Predict([]float64{2.5}); got != 5 {
		t.Fatalf("got %v want 5", got)
	}
}

func TestPredictSeparatesClusters(t *testing.T) {
	x, y := clusterData()
	f, err := Fit(x, y, WithTrees(100))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if low := f.Predict([]float64{0.2}); low > 10 {
		t.Fatalf("low cluster predicted %v", low)
	}
	if high := f.Predict([]float64{0.8}); high < 90 {
		t.Fatalf("high cluster predicted %v", high)
	}
}

func TestMaxDepthStump(t *testing.T) {
	x, y := clusterData()
	f, err := Fit(x, y, WithTrees(5), WithMaxDepth(1))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for i, tree := range f.Trees {
		if len(tree.Nodes) > 3 {
			t.Fatalf("tree %d has %d nodes, want <= 3", i, len(tree.Nodes))
		}
	}
}

func TestForestJSONRoundTrip(t *testing.T) {
	x, y := noisyData()
	f, err := Fit(x, y, WithTrees(15))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Forest
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, probe := range [][]float64{{4, 4}, {9, 1}, {15, 8}} {
		if a, b := f.Predict(probe), back.Predict(probe); a != b {
			t.Fatalf("probe %v: %v != %v after round trip", probe, a, b)
		}
	}
}

func TestPredictBatch(t *testing.T) {
	x, y := clusterData()
	f, err := Fit(x, y, WithTrees(20))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	probes := [][]float64{{0.1}, {0.9}}
	got := f.PredictBatch(probes)
	for i, p := range probes {
		if got[i] != f.Predict(p) {
			t.Fatalf("batch row %d differs from single predict", i)
		}
	}
}
