package page

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported user config format")

// LoadUserConfig reads a .json, .yaml, .yml or .toml file and returns it as compact JSON text.
func LoadUserConfig(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read user config: %w", err)
	}

	return DecodeUserConfig(filepath.Ext(path), raw)
}

// DecodeUserConfig normalizes raw, written in the format named by ext, to compact JSON text.
func DecodeUserConfig(ext string, raw []byte) (string, error) {
	var doc any

	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		if !json.Valid(raw) {
			return "", fmt.Errorf("%w: invalid json", ErrUnsupportedFormat)
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil

	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return "", fmt.Errorf("could not decode yaml user config: %w", err)
		}

	case "toml":
		var table map[string]any
		if err := toml.Unmarshal(raw, &table); err != nil {
			return "", fmt.Errorf("could not decode toml user config: %w", err)
		}
		doc = table

	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("could not encode user config: %w", err)
	}
	return string(out), nil
}
