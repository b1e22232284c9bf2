package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Store persists the outputs of one analysis run, addressed by run id and a
// slash-separated path inside the run.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	GetURL(ctx context.Context, runID, path string) (string, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var (
	ErrNotFound   = errors.New("artifact not found")
	ErrInvalidKey = errors.New("invalid artifact key")
)

// checkKey trims and validates a run id and artifact path.
func checkKey(runID, path string) (string, string, error) {
	runID, err := checkRun(runID)
	if err != nil {
		return "", "", err
	}
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", "", fmt.Errorf("%w: path is required", ErrInvalidKey)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidKey, path)
		}
	}
	return runID, path, nil
}

func checkRun(runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", fmt.Errorf("%w: run_id is required", ErrInvalidKey)
	}
	if strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return "", fmt.Errorf("%w: run_id %s", ErrInvalidKey, runID)
	}
	return runID, nil
}

func objectKey(runID, path string) string {
	return runID + "/" + path
}

// PutJSON stores v as indented JSON.
func PutJSON(ctx context.Context, s Store, runID, path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return s.Put(ctx, runID, path, raw)
}

// GetJSON loads a JSON artifact into v.
func GetJSON(ctx context.Context, s Store, runID, path string, v any) error {
	raw, err := s.Get(ctx, runID, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
