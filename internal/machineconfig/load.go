package machineconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

var ErrEmptyDocument = errors.New("configuration document has no machines")

// Load reads a configuration document. The document is either a single
// machine object or an array of them, json5 by default and yaml when the
// file ends in .yaml or .yml.
func Load(path string) ([]MachineConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	var machines []MachineConfiguration
	switch ext {
	case ".yaml", ".yml":
		machines, err = parseYAML(data)
	default:
		machines, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return machines, nil
}

// Parse decodes a json5 document, plain json is valid json5.
func Parse(data []byte) ([]MachineConfiguration, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	var machines []MachineConfiguration
	arrayErr := json5.Unmarshal(data, &machines)
	if arrayErr != nil {
		var machine MachineConfiguration
		err := json5.Unmarshal(data, &machine)
		if err != nil {
			if data[0] == '[' {
				return nil, arrayErr
			}
			return nil, err
		}
		machines = []MachineConfiguration{machine}
	}

	if len(machines) == 0 {
		return nil, ErrEmptyDocument
	}
	return machines, nil
}

func parseYAML(data []byte) ([]MachineConfiguration, error) {
	var root yaml.Node
	err := yaml.Unmarshal(data, &root)
	if err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	var machines []MachineConfiguration
	if root.Content[0].Kind == yaml.SequenceNode {
		err = root.Content[0].Decode(&machines)
	} else {
		var machine MachineConfiguration
		err = root.Content[0].Decode(&machine)
		machines = []MachineConfiguration{machine}
	}
	if err != nil {
		return nil, err
	}
	if len(machines) == 0 {
		return nil, ErrEmptyDocument
	}
	return machines, nil
}

// Save writes a single machine as indented json, the form the generator
// produces.
func Save(path string, machine MachineConfiguration) error {
	data, err := json.MarshalIndent(machine, "", "  ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// FileName is the conventional file name of a generated machine document.
func FileName(machineID string) string {
	return fmt.Sprintf("machine-%s-config.json", machineID)
}
