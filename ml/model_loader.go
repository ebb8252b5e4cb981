package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const (
	ModelTypeCatBoostJSON = "catboost_json"
	ModelTypeTreeEnsemble = "tree_ensemble"
)

func LoadModel(modelType, path string) (Model, error) {
	switch modelType {
	case ModelTypeCatBoostJSON:
		model := &CatBoostModel{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	case ModelTypeTreeEnsemble:
		model := &TreeEnsemble{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, modelType)
	}
}

func readArtifact(path string) ([]byte, string, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, "", fmt.Errorf("reading model artifact %s: %w", path, err)
	}
	sum := sha256.Sum256(payload)
	return payload, hex.EncodeToString(sum[:]), nil
}
