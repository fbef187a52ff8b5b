package pipeline

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mukfin/scripts/pkg/utils"
)

// WriteSummary persists the summary atomically. Files ending in .yaml or .yml
// are written as YAML, anything else as indented JSON.
func WriteSummary(path string, summary *Summary) error {
	if summary == nil {
		return fmt.Errorf("summary is nil")
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(summary)
	default:
		data, err = json.MarshalIndent(summary, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run summary to %s: %w", path, err)
	}
	return nil
}
