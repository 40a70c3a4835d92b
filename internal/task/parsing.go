package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// flexibleRaw tolerates the alternative field names that task files written
// by hand (or by an agent) tend to use.
type flexibleRaw struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	DependsOn   []string `json:"depends_on" yaml:"depends_on"`
	Deps        []string `json:"deps" yaml:"deps"` // Alternative name
	Effort      float64  `json:"estimated_effort" yaml:"estimated_effort"`
	EffortAlt   float64  `json:"effort" yaml:"effort"` // Alternative name
	Files       []string `json:"files" yaml:"files"`
	Resources   []string `json:"resource_tags" yaml:"resource_tags"`
	Tags        []string `json:"resources" yaml:"resources"` // Alternative name
}

func (f flexibleRaw) toRaw() Raw {
	raw := Raw{
		ID:          f.ID,
		Description: f.Description,
		DependsOn:   f.DependsOn,
		Effort:      f.Effort,
		Files:       f.Files,
		Resources:   f.Resources,
	}
	if len(raw.DependsOn) == 0 {
		raw.DependsOn = f.Deps
	}
	if raw.Effort == 0 {
		raw.Effort = f.EffortAlt
	}
	if len(raw.Resources) == 0 {
		raw.Resources = f.Tags
	}
	return raw
}

type taskFile struct {
	Tasks []flexibleRaw `json:"tasks" yaml:"tasks"`
}

// LoadFile reads raw task records from a JSON or YAML file. The file must
// contain a top-level "tasks" array; a bare array of tasks is also accepted.
// The format is chosen by extension (.yaml/.yml parse as YAML, everything
// else as JSON).
func LoadFile(path string) ([]Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return parseYAML(data)
	}
	return parseJSON(data)
}

func parseJSON(data []byte) ([]Raw, error) {
	var file taskFile
	if err := json.Unmarshal(data, &file); err == nil && len(file.Tasks) > 0 {
		return toRaws(file.Tasks), nil
	}

	// Fall back to a bare array of tasks
	var bare []flexibleRaw
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("failed to parse task JSON: %w", err)
	}
	return toRaws(bare), nil
}

func parseYAML(data []byte) ([]Raw, error) {
	var file taskFile
	if err := yaml.Unmarshal(data, &file); err == nil && len(file.Tasks) > 0 {
		return toRaws(file.Tasks), nil
	}

	var bare []flexibleRaw
	if err := yaml.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("failed to parse task YAML: %w", err)
	}
	return toRaws(bare), nil
}

func toRaws(flexible []flexibleRaw) []Raw {
	raws := make([]Raw, len(flexible))
	for i, f := range flexible {
		raws[i] = f.toRaw()
	}
	return raws
}
