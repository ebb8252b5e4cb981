package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TreeEnsemble is a boosted ensemble of binary trees stored as flat node
// arrays, root at index 0. The raw score is base_score plus one leaf value
// per tree; the probability is its logistic transform.
type TreeEnsemble struct {
	numFeatures int
	names       []string
	baseScore   float64
	trees       [][]TreeNode
	digest      string
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

type treeEnsembleJSON struct {
	NumFeatures  int          `json:"num_features"`
	FeatureNames []string     `json:"feature_names"`
	BaseScore    float64      `json:"base_score"`
	Trees        [][]TreeNode `json:"trees"`
}

func (te *TreeEnsemble) Load(path string) error {
	payload, digest, err := readArtifact(path)
	if err != nil {
		return err
	}
	var raw treeEnsembleJSON
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	if err := te.init(raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	te.digest = digest
	return nil
}

func (te *TreeEnsemble) init(raw treeEnsembleJSON) error {
	numFeatures := raw.NumFeatures
	if numFeatures == 0 {
		numFeatures = len(raw.FeatureNames)
	}
	if numFeatures == 0 {
		return errors.New("num_features or feature_names is required")
	}
	if len(raw.FeatureNames) > 0 && len(raw.FeatureNames) != numFeatures {
		return fmt.Errorf("%d feature names for %d features", len(raw.FeatureNames), numFeatures)
	}
	if len(raw.Trees) == 0 {
		return errors.New("no trees")
	}
	for i, nodes := range raw.Trees {
		if err := validateTree(nodes, numFeatures); err != nil {
			return fmt.Errorf("tree %d: %v", i, err)
		}
	}
	te.numFeatures = numFeatures
	te.names = raw.FeatureNames
	te.baseScore = raw.BaseScore
	te.trees = raw.Trees
	return nil
}

// validateTree rejects child links that point backwards or out of range, so
// a walk always terminates.
func validateTree(nodes []TreeNode, numFeatures int) error {
	if len(nodes) == 0 {
		return errors.New("empty tree")
	}
	for idx, node := range nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= numFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", idx, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= idx || child >= len(nodes) {
				return fmt.Errorf("node %d: invalid child %d", idx, child)
			}
		}
	}
	return nil
}

func (te *TreeEnsemble) Probability(features []float64) (float64, error) {
	if len(te.trees) == 0 {
		return 0, errors.New("model not loaded")
	}
	if len(features) != te.numFeatures {
		return 0, fmt.Errorf("%w: got %d features, model expects %d", ErrSchemaMismatch, len(features), te.numFeatures)
	}
	sum := te.baseScore
	for _, nodes := range te.trees {
		sum += walkTree(nodes, features)
	}
	return sigmoid(sum), nil
}

func walkTree(nodes []TreeNode, features []float64) float64 {
	idx := 0
	for {
		node := nodes[idx]
		if node.IsLeaf {
			return node.Value
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func (te *TreeEnsemble) NumFeatures() int { return te.numFeatures }

func (te *TreeEnsemble) FeatureNames() []string {
	if len(te.names) == 0 {
		return nil
	}
	return append([]string(nil), te.names...)
}

func (te *TreeEnsemble) Digest() string { return te.digest }
