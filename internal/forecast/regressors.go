package forecast

import "math/rand"

// forestRegressor is a bagging (variance-reduction) ensemble: trees fit on
// bootstrap samples, predictions averaged.
type forestRegressor struct {
	trees     []*regressionTree
	nFeatures int
}

type forestConfig struct {
	nTrees int
	tree   treeConfig

	// sqrtFeatures selects a sqrt-sized random feature subset per split.
	sqrtFeatures bool
}

// treeFor resolves the per-split feature budget against the actual width.
func (c forestConfig) treeFor(nFeatures int) treeConfig {
	tc := c.tree
	if c.sqrtFeatures {
		tc.maxFeatures = sqrtFeatures(nFeatures)
	}
	return tc
}

func fitForest(X [][]float64, y []float64, cfg forestConfig, seed int64) *forestRegressor {
	rng := rand.New(rand.NewSource(seed))
	n := len(y)
	treeCfg := cfg.treeFor(len(X[0]))

	f := &forestRegressor{nFeatures: len(X[0])}
	for t := 0; t < cfg.nTrees; t++ {
		// Bootstrap sample with replacement.
		bx := make([][]float64, n)
		by := make([]float64, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			bx[i] = X[j]
			by[i] = y[j]
		}
		f.trees = append(f.trees, fitTree(bx, by, treeCfg, rng))
	}
	return f
}

func (f *forestRegressor) predict(row []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}

// boostedRegressor is a boosting (sequential-residual) ensemble: each stage
// fits the residual of the accumulated prediction, scaled by a learning rate.
type boostedRegressor struct {
	initial      float64
	learningRate float64
	trees        []*regressionTree
	nFeatures    int
}

type boostConfig struct {
	nTrees       int
	learningRate float64
	tree         treeConfig
	sqrtFeatures bool
}

func (c boostConfig) treeFor(nFeatures int) treeConfig {
	tc := c.tree
	if c.sqrtFeatures {
		tc.maxFeatures = sqrtFeatures(nFeatures)
	}
	return tc
}

func fitBoosted(X [][]float64, y []float64, cfg boostConfig, seed int64) *boostedRegressor {
	rng := rand.New(rand.NewSource(seed))
	n := len(y)
	treeCfg := cfg.treeFor(len(X[0]))

	b := &boostedRegressor{
		learningRate: cfg.learningRate,
		nFeatures:    len(X[0]),
	}

	var sum float64
	for _, v := range y {
		sum += v
	}
	b.initial = sum / float64(n)

	current := make([]float64, n)
	residual := make([]float64, n)
	for i := range current {
		current[i] = b.initial
	}

	for t := 0; t < cfg.nTrees; t++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}
		tree := fitTree(X, residual, treeCfg, rng)
		b.trees = append(b.trees, tree)
		for i := range current {
			current[i] += cfg.learningRate * tree.predict(X[i])
		}
	}
	return b
}

func (b *boostedRegressor) predict(row []float64) float64 {
	out := b.initial
	for _, t := range b.trees {
		out += b.learningRate * t.predict(row)
	}
	return out
}

// rSquared is the training-fit score used to weight the two regressors.
func rSquared(predict func([]float64) float64, X [][]float64, y []float64) float64 {
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var sse, sst float64
	for i, row := range X {
		d := y[i] - predict(row)
		sse += d * d
		m := y[i] - mean
		sst += m * m
	}
	if sst == 0 {
		return 0
	}
	return 1 - sse/sst
}
