package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseControllerYAML parses a ControllerFile from YAML bytes and validates it.
// This is used for APIs where the controller is provided as payload (not via filesystem).
func ParseControllerYAML(data []byte) (*ControllerFile, error) {
	var f ControllerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse controller yaml: %w", err)
	}

	if err := validateControllerFile(&f); err != nil {
		return nil, fmt.Errorf("invalid controller: %w", err)
	}

	return &f, nil
}

// ParseControllerYAMLString parses a ControllerFile from a YAML string and validates it.
func ParseControllerYAMLString(yamlText string) (*ControllerFile, error) {
	return ParseControllerYAML([]byte(yamlText))
}

// ParseScenarioYAML parses a Scenario from YAML bytes and validates it.
func ParseScenarioYAML(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario yaml: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// ParseScenarioYAMLString parses a Scenario from a YAML string and validates it.
func ParseScenarioYAMLString(yamlText string) (*Scenario, error) {
	return ParseScenarioYAML([]byte(yamlText))
}

// MarshalControllerYAML renders f back to YAML.
func MarshalControllerYAML(f *ControllerFile) ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal controller yaml: %w", err)
	}
	return data, nil
}
