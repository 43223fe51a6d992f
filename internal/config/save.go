package config

import (
	"bytes"
	"os"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/remote-engine-mock/internal/log"
)

// SaveAddress sets the top-level address key in the config file, keeping
// every other key and comment as written. The file is created if missing.
func SaveAddress(configPath, address string) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "reading config")
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return errors.Wrap(err, "parsing config")
		}
	}

	value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: address}
	if err := setTopLevel(&doc, "address", value); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	_ = enc.Close()

	if err := os.WriteFile(configPath, buf.Bytes(), 0o600); err != nil {
		return errors.Wrap(err, "writing config")
	}
	log.Info(log.CatConfig, "Saved address", "path", configPath, "address", address)
	return nil
}

// setTopLevel replaces or appends key in the document's root mapping.
func setTopLevel(doc *yaml.Node, key string, value *yaml.Node) error {
	if doc.Kind == 0 {
		*doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return errors.New("config is not a YAML document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return errors.New("config root is not a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			// Keep the comment written next to the old value.
			value.LineComment = root.Content[i+1].LineComment
			root.Content[i+1] = value
			return nil
		}
	}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		value,
	)
	return nil
}
