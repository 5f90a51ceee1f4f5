package randomforest

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// node is one decision node in the flattened tree layout. Leaves have
// Left == -1 and carry the mean target in Value.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

// Tree is a CART regression tree stored as a flat node slice with the root
// at index 0, so the whole structure serializes without pointer chasing.
type Tree struct {
	Nodes []node `json:"nodes"`
}

// Predict walks the tree for one feature vector. The vector must carry the
// number of features the tree was grown on.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeBuilder struct {
	x     [][]float64
	y     []float64
	opts  *Options
	nodes []node
}

func (b *treeBuilder) leaf(idx []int) int {
	ys := make([]float64, len(idx))
	for i, j := range idx {
		ys[i] = b.y[j]
	}
	b.nodes = append(b.nodes, node{Feature: -1, Left: -1, Right: -1, Value: stat.Mean(ys, nil)})
	return len(b.nodes) - 1
}

func (b *treeBuilder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, j := range idx[1:] {
		if b.y[j] != first {
			return false
		}
	}
	return true
}

// build grows the subtree over the sample indices idx and returns its root
// node index. Internal nodes are appended before their children, which keeps
// the overall root at index 0.
func (b *treeBuilder) build(idx []int, depth int) int {
	if len(idx) < b.opts.MinSamplesSplit || b.pure(idx) {
		return b.leaf(idx)
	}
	if b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth {
		return b.leaf(idx)
	}
	feat, thr, ok := b.bestSplit(idx)
	if !ok {
		return b.leaf(idx)
	}
	var left, right []int
	for _, j := range idx {
		if b.x[j][feat] <= thr {
			left = append(left, j)
		} else {
			right = append(right, j)
		}
	}
	// The midpoint can collapse onto a neighbouring value when the two are
	// adjacent floats; refuse the empty partition instead of recursing.
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(idx)
	}
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{Feature: feat, Threshold: thr})
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit scans every feature for the threshold minimizing the summed
// squared error of the two children. Candidate thresholds sit halfway
// between distinct neighbouring values; ties keep the first candidate found,
// so the scan order makes the result deterministic.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	nf := len(b.x[idx[0]])
	minLeaf := b.opts.MinSamplesLeaf

	bestSSE := math.Inf(1)
	bestFeat, bestThr := -1, 0.0

	ord := make([]int, n)
	for f := 0; f < nf; f++ {
		copy(ord, idx)
		sort.Slice(ord, func(p, q int) bool { return b.x[ord[p]][f] < b.x[ord[q]][f] })

		var tot1, tot2 float64
		for _, j := range ord {
			tot1 += b.y[j]
			tot2 += b.y[j] * b.y[j]
		}

		var l1, l2 float64
		for k := 1; k < n; k++ {
			yj := b.y[ord[k-1]]
			l1 += yj
			l2 += yj * yj
			xPrev, xNext := b.x[ord[k-1]][f], b.x[ord[k]][f]
			if xPrev == xNext {
				continue
			}
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			r1, r2 := tot1-l1, tot2-l2
			sse := (l2 - l1*l1/float64(k)) + (r2 - r1*r1/float64(n-k))
			if sse < bestSSE {
				bestSSE = sse
				bestFeat = f
				bestThr = xPrev + (xNext-xPrev)/2
			}
		}
	}
	if bestFeat < 0 {
		return 0, 0, false
	}
	return bestFeat, bestThr, true
}
