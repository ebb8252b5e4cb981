package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// CatBoostModel evaluates a binary classifier exported with
// model.save_model(path, format="json"). Only float features are supported;
// categorical values must already be integer codes.
type CatBoostModel struct {
	trees       []obliviousTree
	numFeatures int
	names       []string
	scale       float64
	bias        float64
	digest      string
}

type obliviousTree struct {
	features []int
	borders  []float64
	leaves   []float64
}

type catBoostJSON struct {
	FeaturesInfo struct {
		FloatFeatures []struct {
			FeatureIndex int    `json:"feature_index"`
			FeatureID    string `json:"feature_id"`
		} `json:"float_features"`
		CategoricalFeatures []json.RawMessage `json:"categorical_features"`
	} `json:"features_info"`
	ObliviousTrees []struct {
		LeafValues []float64 `json:"leaf_values"`
		Splits     []struct {
			FloatFeatureIndex int     `json:"float_feature_index"`
			Border            float64 `json:"border"`
			SplitType         string  `json:"split_type"`
		} `json:"splits"`
	} `json:"oblivious_trees"`
	ScaleAndBias []json.RawMessage `json:"scale_and_bias"`
}

func (m *CatBoostModel) Load(path string) error {
	payload, digest, err := readArtifact(path)
	if err != nil {
		return err
	}
	if err := m.decode(payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	m.digest = digest
	return nil
}

func (m *CatBoostModel) decode(payload []byte) error {
	var raw catBoostJSON
	if err := json.Unmarshal(payload, &raw); err != nil {
		return err
	}
	if len(raw.FeaturesInfo.CategoricalFeatures) > 0 {
		return errors.New("categorical features are not supported")
	}
	if len(raw.ObliviousTrees) == 0 {
		return errors.New("no trees")
	}

	numFeatures := 0
	names := make([]string, 0, len(raw.FeaturesInfo.FloatFeatures))
	named := true
	for _, f := range raw.FeaturesInfo.FloatFeatures {
		if f.FeatureIndex+1 > numFeatures {
			numFeatures = f.FeatureIndex + 1
		}
		if f.FeatureID == "" {
			named = false
		}
		names = append(names, f.FeatureID)
	}
	if numFeatures == 0 {
		return errors.New("no float features")
	}
	if !named || len(names) != numFeatures {
		names = nil
	}

	trees := make([]obliviousTree, len(raw.ObliviousTrees))
	for i, t := range raw.ObliviousTrees {
		if len(t.LeafValues) != 1<<len(t.Splits) {
			return fmt.Errorf("tree %d: %d leaves for depth %d", i, len(t.LeafValues), len(t.Splits))
		}
		tree := obliviousTree{
			features: make([]int, len(t.Splits)),
			borders:  make([]float64, len(t.Splits)),
			leaves:   t.LeafValues,
		}
		for d, s := range t.Splits {
			if s.SplitType != "" && s.SplitType != "FloatFeature" {
				return fmt.Errorf("tree %d: split type %q is not supported", i, s.SplitType)
			}
			if s.FloatFeatureIndex < 0 || s.FloatFeatureIndex >= numFeatures {
				return fmt.Errorf("tree %d: feature index %d out of range", i, s.FloatFeatureIndex)
			}
			tree.features[d] = s.FloatFeatureIndex
			tree.borders[d] = s.Border
		}
		trees[i] = tree
	}

	scale, bias, err := parseScaleAndBias(raw.ScaleAndBias)
	if err != nil {
		return err
	}

	m.trees = trees
	m.numFeatures = numFeatures
	m.names = names
	m.scale = scale
	m.bias = bias
	return nil
}

// parseScaleAndBias accepts both [scale, bias] and the newer
// [scale, [bias]] layout. A missing entry means scale 1, bias 0.
func parseScaleAndBias(raw []json.RawMessage) (float64, float64, error) {
	scale, bias := 1.0, 0.0
	if len(raw) == 0 {
		return scale, bias, nil
	}
	if len(raw) != 2 {
		return 0, 0, fmt.Errorf("scale_and_bias has %d entries", len(raw))
	}
	if err := json.Unmarshal(raw[0], &scale); err != nil {
		return 0, 0, fmt.Errorf("scale: %v", err)
	}
	if err := json.Unmarshal(raw[1], &bias); err == nil {
		return scale, bias, nil
	}
	var biases []float64
	if err := json.Unmarshal(raw[1], &biases); err != nil {
		return 0, 0, fmt.Errorf("bias: %v", err)
	}
	if len(biases) > 1 {
		return 0, 0, errors.New("multiclass bias is not supported")
	}
	if len(biases) == 1 {
		bias = biases[0]
	}
	return scale, bias, nil
}

func (m *CatBoostModel) Probability(features []float64) (float64, error) {
	if len(m.trees) == 0 {
		return 0, errors.New("model not loaded")
	}
	if len(features) != m.numFeatures {
		return 0, fmt.Errorf("%w: got %d features, model expects %d", ErrSchemaMismatch, len(features), m.numFeatures)
	}
	sum := 0.0
	for _, tree := range m.trees {
		idx := 0
		for d, f := range tree.features {
			if features[f] > tree.borders[d] {
				idx |= 1 << d
			}
		}
		sum += tree.leaves[idx]
	}
	return sigmoid(m.scale*sum + m.bias), nil
}

func (m *CatBoostModel) NumFeatures() int { return m.numFeatures }

func (m *CatBoostModel) FeatureNames() []string {
	if m.names == nil {
		return nil
	}
	return append([]string(nil), m.names...)
}

func (m *CatBoostModel) Digest() string { return m.digest }

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
