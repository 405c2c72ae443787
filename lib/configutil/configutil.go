package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Layers lists the files ReadConfig merges for name, lowest priority
// first: <name>.<ext> then <name>.local.<ext>.
func Layers(name string) []string {
	ext := filepath.Ext(name)
	local := strings.TrimSuffix(name, ext) + ".local" + ext
	return []string{name, local}
}

func readLayer[T any](path string) (T, bool, error) {
	var out T
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if len(contents) == 0 {
		return out, false, nil
	}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return out, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, true, nil
}

// ReadConfig reads the json5 file name and merges every later layer of it
// over the result. It returns os.ErrNotExist when none of the layers
// exist.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false
	for _, path := range Layers(name) {
		layer, ok, err := readLayer[T](path)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		if !found {
			out = layer
			found = true
			continue
		}
		err = mergo.Merge(&out, layer, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", path, err)
		}
		slog.Info("merging config with local overrides", "local", path)
	}
	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// FillDefaults sets every zero field of target to its value in defaults.
func FillDefaults[T any](target *T, defaults T) error {
	return mergo.Merge(target, defaults)
}

// ReadRecursively calls ReadConfig in the cwd and each of its parents
// until one of them has the file.
func ReadRecursively[T any](name string) (T, error) {
	var out T
	current, err := os.Getwd()
	if err != nil {
		return out, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return out, err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return out, os.ErrNotExist
		}
		current = parent
	}
}
