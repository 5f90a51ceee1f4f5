package randomforest

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Defaults match the production training setup.
const (
	DefaultTrees = 300
	DefaultSeed  = 42
)

var ErrNoData = errors.New("randomforest: empty training set")

type Options struct {
	Trees           int
	MaxDepth        int // 0 grows until pure
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64
	Workers         int // 0 uses all CPUs
}

type Option func(*Options)

func WithTrees(n int) Option {
	return func(o *Options) { o.Trees = n }
}

func WithMaxDepth(d int) Option {
	return func(o *Options) { o.MaxDepth = d }
}

func WithMinSamplesSplit(n int) Option {
	return func(o *Options) { o.MinSamplesSplit = n }
}

func WithMinSamplesLeaf(n int) Option {
	return func(o *Options) { o.MinSamplesLeaf = n }
}

func WithSeed(s int64) Option {
	return func(o *Options) { o.Seed = s }
}

func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func defaultOptions() *Options {
	return &Options{
		Trees:           DefaultTrees,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            DefaultSeed,
	}
}

// Forest is a bootstrap-aggregated ensemble of CART regression trees. The
// zero value is unusable; construct with Fit or decode a stored artifact.
type Forest struct {
	Trees       []Tree `json:"trees"`
	NumFeatures int    `json:"num_features"`
	Seed        int64  `json:"seed"`
}

// Fit trains a forest on row-major samples x against targets y. Every tree
// grows on an n-sized bootstrap resample drawn from an RNG derived from the
// configured seed and the tree index, so identical inputs and options always
// produce an identical forest regardless of worker scheduling.
func Fit(x [][]float64, y []float64, opts ...Option) (*Forest, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if len(x) == 0 {
		return nil, ErrNoData
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("randomforest: %d samples vs %d targets", len(x), len(y))
	}
	nf := len(x[0])
	for i, row := range x {
		if len(row) != nf {
			return nil, fmt.Errorf("randomforest: row %d has %d features, want %d", i, len(row), nf)
		}
	}
	if o.Trees <= 0 {
		return nil, fmt.Errorf("randomforest: invalid tree count %d", o.Trees)
	}

	workers := o.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	f := &Forest{Trees: make([]Tree, o.Trees), NumFeatures: nf, Seed: o.Seed}
	n := len(x)

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for t := 0; t < o.Trees; t++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(t int) {
			defer wg.Done()
			defer func() { <-sem }()

			rng := rand.New(rand.NewSource(o.Seed + int64(t)))
			idx := make([]int, n)
			for i := range idx {
				idx[i] = rng.Intn(n)
			}
			b := &treeBuilder{x: x, y: y, opts: o}
			b.build(idx, 0)
			f.Trees[t] = Tree{Nodes: b.nodes}
		}(t)
	}
	wg.Wait()

	return f, nil
}

// Predict returns the mean prediction across all trees.
func (f *Forest) Predict(x []float64) float64 {
	preds := make([]float64, len(f.Trees))
	for i := range f.Trees {
		preds[i] = f.Trees[i].Predict(x)
	}
	return stat.Mean(preds, nil)
}

// PredictBatch predicts every row of x.
func (f *Forest) PredictBatch(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = f.Predict(row)
	}
	return out
}
