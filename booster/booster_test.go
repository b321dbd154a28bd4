package booster

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmission-service/models"
)

type testTree struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     []int     `json:"default_left"`
}

// stumpOnStay splits on time_in_hospital (index 3) at the given threshold.
func stumpOnStay(threshold, leftLeaf, rightLeaf float64) testTree {
	return testTree{
		LeftChildren:    []int{1, -1, -1},
		RightChildren:   []int{2, -1, -1},
		SplitIndices:    []int{3, 0, 0},
		SplitConditions: []float64{threshold, leftLeaf, rightLeaf},
		DefaultLeft:     []int{0, 0, 0},
	}
}

func artifactJSON(t *testing.T, featureNames []string, baseScore, objective string, trees ...testTree) []byte {
	t.Helper()
	doc := map[string]interface{}{
		"version": []int{2, 0, 3},
		"learner": map[string]interface{}{
			"feature_names": featureNames,
			"learner_model_param": map[string]string{
				"base_score":  baseScore,
				"num_feature": "25",
			},
			"objective": map[string]string{"name": objective},
			"gradient_booster": map[string]interface{}{
				"model": map[string]interface{}{"trees": trees},
			},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func recordWithStay(days float64) models.FeatureRecord {
	return models.FeatureRecord{TimeInHospital: days}
}

func TestParseAndPredictSingleTree(t *testing.T) {
	data := artifactJSON(t, models.FeatureNames, "0.5", "binary:logistic",
		stumpOnStay(7, -1.0, 1.0))

	b, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 1, b.NumTrees())
	assert.Equal(t, "xgboost-2.0.3", b.Version())

	// base_score 0.5 contributes zero margin, so the leaf is the margin.
	short, err := b.Predict(recordWithStay(4))
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(1)), short, 1e-12)

	long, err := b.Predict(recordWithStay(10))
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-1)), long, 1e-12)
}

func TestPredictSumsTrees(t *testing.T) {
	data := artifactJSON(t, models.FeatureNames, "0.5", "binary:logistic",
		stumpOnStay(7, -0.4, 0.4),
		stumpOnStay(3, -0.1, 0.2))

	b, err := Parse(data)
	require.NoError(t, err)

	// stay=4: first tree left (-0.4), second tree right (+0.2).
	p, err := b.Predict(recordWithStay(4))
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(-0.2), p, 1e-12)
}

func TestParseFoldsBaseScoreIntoMargin(t *testing.T) {
	data := artifactJSON(t, models.FeatureNames, "0.3", "binary:logistic",
		stumpOnStay(7, 0, 0))

	b, err := Parse(data)
	require.NoError(t, err)

	p, err := b.Predict(recordWithStay(4))
	require.NoError(t, err)
	assert.InDelta(t, 0.3, p, 1e-12)
}

func TestSplitBoundaryGoesRight(t *testing.T) {
	data := artifactJSON(t, models.FeatureNames, "0.5", "binary:logistic",
		stumpOnStay(7, -1.0, 1.0))

	b, err := Parse(data)
	require.NoError(t, err)

	// x < threshold goes left; exactly equal goes right.
	p, err := b.Predict(recordWithStay(7))
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(1.0), p, 1e-12)
}

func TestParseRejectsSchemaMismatch(t *testing.T) {
	t.Run("renamed feature", func(t *testing.T) {
		names := append([]string{}, models.FeatureNames...)
		names[4] = "lab_count"
		data := artifactJSON(t, names, "0.5", "binary:logistic", stumpOnStay(7, 0, 0))

		_, err := Parse(data)
		require.Error(t, err)
		mismatch, ok := err.(*SchemaMismatchError)
		require.True(t, ok, "expected SchemaMismatchError, got %T", err)
		assert.Contains(t, mismatch.Detail, "lab_count")
	})

	t.Run("missing feature", func(t *testing.T) {
		names := models.FeatureNames[:24]
		data := artifactJSON(t, names, "0.5", "binary:logistic", stumpOnStay(7, 0, 0))

		_, err := Parse(data)
		require.Error(t, err)
		_, ok := err.(*SchemaMismatchError)
		assert.True(t, ok)
	})

	t.Run("reordered features", func(t *testing.T) {
		names := append([]string{}, models.FeatureNames...)
		names[0], names[1] = names[1], names[0]
		data := artifactJSON(t, names, "0.5", "binary:logistic", stumpOnStay(7, 0, 0))

		_, err := Parse(data)
		assert.Error(t, err)
	})
}

func TestParseRejectsBadArtifacts(t *testing.T) {
	t.Run("not json", func(t *testing.T) {
		_, err := Parse([]byte("not a model"))
		assert.Error(t, err)
	})

	t.Run("unsupported objective", func(t *testing.T) {
		data := artifactJSON(t, models.FeatureNames, "0.5", "multi:softmax", stumpOnStay(7, 0, 0))
		_, err := Parse(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported objective")
	})

	t.Run("no trees", func(t *testing.T) {
		data := artifactJSON(t, models.FeatureNames, "0.5", "binary:logistic")
		_, err := Parse(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no trees")
	})

	t.Run("invalid base score", func(t *testing.T) {
		data := artifactJSON(t, models.FeatureNames, "1.5", "binary:logistic", stumpOnStay(7, 0, 0))
		_, err := Parse(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "base_score")
	})

	t.Run("inconsistent node arrays", func(t *testing.T) {
		tree := stumpOnStay(7, 0, 0)
		tree.RightChildren = tree.RightChildren[:2]
		data := artifactJSON(t, models.FeatureNames, "0.5", "binary:logistic", tree)
		_, err := Parse(data)
		assert.Error(t, err)
	})
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	data := artifactJSON(t, models.FeatureNames, "0.5", "binary:logistic", stumpOnStay(7, -1.0, 1.0))
	require.NoError(t, os.WriteFile(path, data, 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, b.NumTrees())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
