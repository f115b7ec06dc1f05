package entity

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type yamlConfiguration struct {
	Organizations orderedMap[organizationDocument] `yaml:"organizations"`
}

// UnmarshalYAML walks the mapping node to keep the keys order.
// Unknown fields of the values are ignored.
func (m *orderedMap[T]) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", value.Line)
	}
	m.values = make(map[string]*T)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i]
		var v T
		if err := value.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("%s: %w", key.Value, err)
		}
		m.set(key.Value, &v)
	}
	return nil
}

func ParseYAMLConfiguration(content []byte) (*Configuration, error) {
	var doc yamlConfiguration
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	return build(doc.Organizations)
}
