package forecast

import (
	"math"
	"math/rand"
	"sort"
)

// treeConfig controls regression tree growth.
type treeConfig struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	// maxFeatures is the number of features considered per split;
	// 0 means all features.
	maxFeatures int
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
}

func (n *treeNode) isLeaf() bool { return n.left == nil }

// regressionTree is a CART-style variance-reduction regression tree.
type regressionTree struct {
	cfg  treeConfig
	root *treeNode
}

func fitTree(X [][]float64, y []float64, cfg treeConfig, rng *rand.Rand) *regressionTree {
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	t := &regressionTree{cfg: cfg}
	t.root = t.grow(X, y, idx, 0, rng)
	return t
}

func (t *regressionTree) grow(X [][]float64, y []float64, idx []int, depth int, rng *rand.Rand) *treeNode {
	node := &treeNode{value: meanAt(y, idx)}

	if depth >= t.cfg.maxDepth || len(idx) < t.cfg.minSamplesSplit {
		return node
	}

	feature, threshold, ok := t.bestSplit(X, y, idx, rng)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < t.cfg.minSamplesLeaf || len(right) < t.cfg.minSamplesLeaf {
		return node
	}

	node.feature = feature
	node.threshold = threshold
	node.left = t.grow(X, y, left, depth+1, rng)
	node.right = t.grow(X, y, right, depth+1, rng)
	return node
}

// bestSplit scans a random feature subset for the split minimizing the
// summed squared error of the two children.
func (t *regressionTree) bestSplit(X [][]float64, y []float64, idx []int, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(X[idx[0]])
	features := sampleFeatures(nFeatures, t.cfg.maxFeatures, rng)

	type pair struct{ v, y float64 }

	bestSSE := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	pairs := make([]pair, len(idx))
	for _, f := range features {
		for k, i := range idx {
			pairs[k] = pair{v: X[i][f], y: y[i]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

		var totalSum, totalSq float64
		for _, p := range pairs {
			totalSum += p.y
			totalSq += p.y * p.y
		}

		var leftSum, leftSq float64
		n := len(pairs)
		for k := 0; k < n-1; k++ {
			leftSum += pairs[k].y
			leftSq += pairs[k].y * pairs[k].y

			// Split only between distinct feature values.
			if pairs[k].v == pairs[k+1].v {
				continue
			}

			nL, nR := float64(k+1), float64(n-k-1)
			if k+1 < t.cfg.minSamplesLeaf || n-k-1 < t.cfg.minSamplesLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nL) + (rightSq - rightSum*rightSum/nR)
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (pairs[k].v + pairs[k+1].v) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (t *regressionTree) predict(row []float64) float64 {
	node := t.root
	for !node.isLeaf() {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// sampleFeatures picks k distinct feature indices; k <= 0 selects all.
func sampleFeatures(nFeatures, k int, rng *rand.Rand) []int {
	if k <= 0 || k >= nFeatures {
		all := make([]int, nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := rng.Perm(nFeatures)
	return perm[:k]
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

// sqrtFeatures is the "sqrt" max-features policy of the ensemble regressors.
func sqrtFeatures(nFeatures int) int {
	k := int(math.Sqrt(float64(nFeatures)))
	if k < 1 {
		k = 1
	}
	return k
}
