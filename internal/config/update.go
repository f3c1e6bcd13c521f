package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/gpugraph/internal/errors"
	"gopkg.in/yaml.v3"
)

// Save writes cfg to path. If the file already exists its comments, key
// order and any unknown keys are preserved and only our keys are replaced.
func Save(path string, cfg *Config) error {
	root := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}

	data, err := os.ReadFile(path)
	switch {
	case err == nil && len(strings.TrimSpace(string(data))) > 0:
		var existing yaml.Node
		if err := yaml.Unmarshal(data, &existing); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to parse existing config file",
				"Fix the YAML in "+path+" or remove it")
		}
		if existing.Kind != yaml.DocumentNode || len(existing.Content) == 0 || existing.Content[0].Kind != yaml.MappingNode {
			return errors.New(errors.ErrConfig,
				"Expected a mapping at the top of "+path,
				"Fix the YAML or remove the file")
		}
		root = &existing
	case err != nil && !os.IsNotExist(err):
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to read config file", "Check file permissions")
	}

	doc := root.Content[0]
	for _, kv := range fileValues(cfg) {
		// Empty optional strings stay out of files that don't have them.
		if s, ok := kv.value.(string); ok && s == "" && findMapValue(doc, kv.key) == nil {
			continue
		}
		if err := setMapValue(doc, kv.key, kv.value); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
		}
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	encoder.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to create config directory", "Check directory permissions")
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to write config file", "Check file permissions")
	}
	return nil
}

type keyValue struct {
	key   string
	value any
}

// fileValues lists the keys Save owns, in the order a new file gets them.
// Durations are written as strings so they read back through viper.
func fileValues(cfg *Config) []keyValue {
	return []keyValue{
		{"width", cfg.Width},
		{"height", cfg.Height},
		{"update_interval", cfg.UpdateInterval.String()},
		{"history_size", cfg.HistorySize},
		{"source", cfg.Source},
		{"command", cfg.Command},
		{"marker", cfg.Marker},
		{"host", cfg.Host},
		{"sample_timeout", cfg.SampleTimeout.String()},
		{"slots", cfg.Slots},
	}
}

// setMapValue replaces the value under key in a mapping node, appending
// the key if it isn't there.
func setMapValue(node *yaml.Node, key string, value any) error {
	var valueNode yaml.Node
	if err := valueNode.Encode(value); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if existing := findMapValue(node, key); existing != nil {
		valueNode.HeadComment = existing.HeadComment
		valueNode.LineComment = existing.LineComment
		valueNode.FootComment = existing.FootComment
		*existing = valueNode
		return nil
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	node.Content = append(node.Content, keyNode, &valueNode)
	return nil
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
