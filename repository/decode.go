package repository

import (
	"fmt"

	"github.com/wfgraph/engine/types"
	"gopkg.in/yaml.v3"
)

func decodeYAML(data []byte) (*types.Workflow, error) {
	var wf types.Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	return &wf, nil
}
