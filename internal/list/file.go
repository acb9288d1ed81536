package list

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for list files whose extension is not
// .json, .yaml or .yml.
var ErrUnsupportedFormat = errors.New("unsupported list file format")

// Load reads a shopping list from a JSON or YAML file. A list without a
// name takes the file's base name.
func Load(path string) (*ShoppingList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}

	sl, err := Decode(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("parse list %s: %w", path, err)
	}

	if sl.Name == "" {
		base := filepath.Base(path)
		sl.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return sl, nil
}

// Decode parses list data in the given format ("json" or "yaml").
func Decode(data []byte, format string) (*ShoppingList, error) {
	var sl ShoppingList
	switch format {
	case "json":
		if err := json.Unmarshal(data, &sl); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &sl); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &sl, nil
}

// Save writes the list to path, choosing the encoding from the extension.
func Save(path string, sl *ShoppingList) error {
	var (
		data []byte
		err  error
	)
	switch formatOf(path) {
	case "json":
		data, err = json.MarshalIndent(sl, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case "yaml":
		data, err = yaml.Marshal(sl)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write list %s: %w", path, err)
	}
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
}
