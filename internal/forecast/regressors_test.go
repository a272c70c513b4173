package forecast

import (
	"testing"

	"github.com/tj/assert"
)

func TestEnsembleConfigsUseSqrtFeatureSubset(t *testing.T) {
	assert.Equal(t, 7, forestDefaults.treeFor(52).maxFeatures)
	assert.Equal(t, 7, boostDefaults.treeFor(52).maxFeatures)
	assert.Equal(t, 4, forestDefaults.treeFor(24).maxFeatures)
	assert.Equal(t, 4, boostDefaults.treeFor(24).maxFeatures)
}

func TestFallbackForestConsidersAllFeatures(t *testing.T) {
	tc := fallbackForest.treeFor(24)
	assert.Equal(t, 0, tc.maxFeatures)

	// maxFeatures 0 means every feature is in play at each split.
	assert.Len(t, sampleFeatures(24, tc.maxFeatures, nil), 24)
}

func TestSqrtFeaturesFloorsAtOne(t *testing.T) {
	assert.Equal(t, 1, sqrtFeatures(1))
	assert.Equal(t, 1, sqrtFeatures(0))
	assert.Equal(t, 5, sqrtFeatures(25))
}
