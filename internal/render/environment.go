package render

import (
	"encoding/json"
	"fmt"

	"github.com/imamik/overcloud/internal/util/fileutil"
)

// RoleCounts are the node counts per overcloud role.
type RoleCounts struct {
	Controller    int `json:"ControllerCount"`
	Compute       int `json:"ComputeCount"`
	CephStorage   int `json:"CephStorageCount"`
	BlockStorage  int `json:"BlockStorageCount"`
	ObjectStorage int `json:"ObjectStorageCount"`
}

// DefaultRoleCounts is one controller and one compute node.
func DefaultRoleCounts() RoleCounts {
	return RoleCounts{Controller: 1, Compute: 1}
}

// Environment renders the scale environment file.
func Environment(counts RoleCounts) ([]byte, error) {
	data, err := json.Marshal(struct {
		ParameterDefaults RoleCounts `json:"parameter_defaults"`
	}{counts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal environment: %w", err)
	}
	return data, nil
}

// ParametersEnvironment renders stack parameters as parameter_defaults.
func ParametersEnvironment(params map[string]any) ([]byte, error) {
	data, err := json.Marshal(map[string]any{"parameter_defaults": params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameters environment: %w", err)
	}
	return data, nil
}

// WriteEnvironment renders the scale environment to path.
func WriteEnvironment(path string, counts RoleCounts) error {
	data, err := Environment(counts)
	if err != nil {
		return err
	}
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write environment file: %w", err)
	}
	return nil
}
