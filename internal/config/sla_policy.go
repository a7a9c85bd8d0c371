package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SLAPolicyFile is the YAML layout of the policy file:
//
//	hours:
//	  LOW: 72
//	  MEDIUM: 24
//	  HIGH: 4
//	  EMERGENCY: 2
type SLAPolicyFile struct {
	Hours map[string]int `yaml:"hours"`
}

// LoadSLAPolicyFile reads the raw priority to hours table from path.
// Keys are validated by the sla package.
func LoadSLAPolicyFile(path string) (map[string]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sla policy: %w", err)
	}
	var file SLAPolicyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse sla policy %s: %w", path, err)
	}
	if len(file.Hours) == 0 {
		return nil, fmt.Errorf("sla policy %s: no hours defined", path)
	}
	return file.Hours, nil
}
