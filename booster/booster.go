// Package booster loads a serialized XGBoost JSON model and scores feature
// records against it. It implements only what the readmission model needs:
// binary logistic trees over dense numeric input. It is not a general
// XGBoost runtime.
package booster

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"readmission-service/models"
)

// SchemaMismatchError means the artifact was trained on a different feature
// schema than this service encodes. Scoring anyway would silently corrupt
// every prediction, so loading fails instead.
type SchemaMismatchError struct {
	Detail string
}

func (e *SchemaMismatchError) Error() string {
	return "model schema mismatch: " + e.Detail
}

// Booster is a loaded model artifact. Read-only after Load; safe for
// concurrent use.
type Booster struct {
	trees      []tree
	baseMargin float64
	version    string
}

type tree struct {
	leftChildren    []int
	rightChildren   []int
	splitIndices    []int
	splitConditions []float64
	defaultLeft     []int
}

// Artifact JSON layout (xgboost >= 1.0 save_model format).
type artifactFile struct {
	Learner struct {
		FeatureNames      []string `json:"feature_names"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
		GradientBooster struct {
			Model struct {
				Trees []struct {
					LeftChildren    []int     `json:"left_children"`
					RightChildren   []int     `json:"right_children"`
					SplitIndices    []int     `json:"split_indices"`
					SplitConditions []float64 `json:"split_conditions"`
					DefaultLeft     []int     `json:"default_left"`
				} `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
	} `json:"learner"`
	Version []int `json:"version"`
}

// Load reads and validates the model artifact. Called once at process
// start; any failure here is fatal to startup by design — no request may be
// scored against a model whose schema cannot be verified.
func Load(path string) (*Booster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return Parse(data)
}

// Parse decodes an artifact held in memory.
func Parse(data []byte) (*Booster, error) {
	var f artifactFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}

	if name := f.Learner.Objective.Name; name != "binary:logistic" && name != "reg:logistic" {
		return nil, fmt.Errorf("unsupported objective %q", name)
	}

	if err := checkSchema(f.Learner.FeatureNames, f.Learner.LearnerModelParam.NumFeature); err != nil {
		return nil, err
	}

	rawTrees := f.Learner.GradientBooster.Model.Trees
	if len(rawTrees) == 0 {
		return nil, fmt.Errorf("model artifact contains no trees")
	}

	b := &Booster{
		trees:   make([]tree, 0, len(rawTrees)),
		version: versionString(f.Version),
	}
	for i, rt := range rawTrees {
		n := len(rt.LeftChildren)
		if n == 0 || len(rt.RightChildren) != n || len(rt.SplitIndices) != n || len(rt.SplitConditions) != n {
			return nil, fmt.Errorf("tree %d has inconsistent node arrays", i)
		}
		b.trees = append(b.trees, tree{
			leftChildren:    rt.LeftChildren,
			rightChildren:   rt.RightChildren,
			splitIndices:    rt.SplitIndices,
			splitConditions: rt.SplitConditions,
			defaultLeft:     rt.DefaultLeft,
		})
	}

	base := 0.5
	if s := f.Learner.LearnerModelParam.BaseScore; s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || parsed <= 0 || parsed >= 1 {
			return nil, fmt.Errorf("invalid base_score %q", s)
		}
		base = parsed
	}
	// binary:logistic stores base_score as a probability; fold it into the
	// margin so tree outputs can be summed directly.
	b.baseMargin = math.Log(base / (1 - base))
	return b, nil
}

// checkSchema enforces exact field set and order against the canonical
// schema. The booster accepts positional input, so order matters as much as
// membership.
func checkSchema(names []string, numFeature string) error {
	if len(names) == 0 {
		if numFeature != strconv.Itoa(len(models.FeatureNames)) {
			return &SchemaMismatchError{Detail: fmt.Sprintf(
				"artifact has no feature names and num_feature=%s, want %d", numFeature, len(models.FeatureNames))}
		}
		return nil
	}
	if len(names) != len(models.FeatureNames) {
		return &SchemaMismatchError{Detail: fmt.Sprintf(
			"artifact has %d features, want %d", len(names), len(models.FeatureNames))}
	}
	for i, want := range models.FeatureNames {
		if names[i] != want {
			return &SchemaMismatchError{Detail: fmt.Sprintf(
				"feature %d is %q, want %q", i, names[i], want)}
		}
	}
	return nil
}

// Predict scores one record and returns the readmission probability.
func (b *Booster) Predict(record models.FeatureRecord) (float64, error) {
	return b.predictVector(record.Vector())
}

func (b *Booster) predictVector(x []float64) (float64, error) {
	if len(x) != len(models.FeatureNames) {
		return 0, fmt.Errorf("expected %d features, got %d", len(models.FeatureNames), len(x))
	}

	margin := b.baseMargin
	for i := range b.trees {
		leaf, err := b.trees[i].walk(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		margin += leaf
	}
	return sigmoid(margin), nil
}

// walk descends from the root to a leaf. Leaf nodes are marked by a -1 left
// child; their value lives in split_conditions. Missing values cannot occur
// on this path (every schema field is populated), so default_left only
// matters for NaN guards.
func (t tree) walk(x []float64) (float64, error) {
	nid := 0
	for steps := 0; steps <= len(t.leftChildren); steps++ {
		if nid < 0 || nid >= len(t.leftChildren) {
			return 0, fmt.Errorf("node index %d out of range", nid)
		}
		if t.leftChildren[nid] == -1 {
			return t.splitConditions[nid], nil
		}

		fi := t.splitIndices[nid]
		if fi < 0 || fi >= len(x) {
			return 0, fmt.Errorf("split index %d out of range", fi)
		}
		v := x[fi]
		switch {
		case math.IsNaN(v):
			if len(t.defaultLeft) > nid && t.defaultLeft[nid] == 1 {
				nid = t.leftChildren[nid]
			} else {
				nid = t.rightChildren[nid]
			}
		case v < t.splitConditions[nid]:
			nid = t.leftChildren[nid]
		default:
			nid = t.rightChildren[nid]
		}
	}
	return 0, fmt.Errorf("cycle detected")
}

// Version reports the xgboost version the artifact was saved with.
func (b *Booster) Version() string { return b.version }

// NumTrees reports the ensemble size.
func (b *Booster) NumTrees() int { return len(b.trees) }

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func versionString(v []int) string {
	if len(v) == 0 {
		return "xgboost-json"
	}
	s := "xgboost-" + strconv.Itoa(v[0])
	for _, part := range v[1:] {
		s += "." + strconv.Itoa(part)
	}
	return s
}
