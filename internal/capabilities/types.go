package capabilities

import "gopkg.in/yaml.v3"

// Pricing is a rate pair in cents per million tokens.
type Pricing struct {
	Input  float64 `yaml:"input" json:"input"`
	Output float64 `yaml:"output" json:"output"`
}

// ModelCapabilities is the static metadata shipped for a hosted model.
type ModelCapabilities struct {
	// Model identifier (set during YAML unmarshaling)
	ID       string `yaml:"-" json:"id"`
	Provider string `yaml:"-" json:"provider"`

	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description,omitempty"`

	// Limits
	ContextWindow int `yaml:"context_window" json:"context_window"`
	MaxOutput     int `yaml:"max_output" json:"max_output"`

	// Catalog defaults used when seeding model configs
	IsFree    bool `yaml:"is_free" json:"is_free"`
	SortOrder int  `yaml:"sort_order" json:"sort_order"`

	Pricing Pricing `yaml:"pricing" json:"pricing"`
}

// ProviderCapabilities represents all models for a provider
type ProviderCapabilities struct {
	Provider string              `yaml:"provider" json:"provider"`
	Models   []ModelCapabilities `yaml:"-" json:"models"` // YAML order preserved
}

// UnmarshalYAML keeps models in file order; a plain map would lose it.
func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	var m struct {
		Provider string                       `yaml:"provider"`
		Models   map[string]ModelCapabilities `yaml:"models"`
	}
	if err := node.Decode(&m); err != nil {
		return err
	}
	p.Provider = m.Provider

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		// key, value, key, value...
		modelsNode := node.Content[i+1]
		for j := 0; j+1 < len(modelsNode.Content); j += 2 {
			id := modelsNode.Content[j].Value
			if model, ok := m.Models[id]; ok {
				model.ID = id
				model.Provider = m.Provider
				p.Models = append(p.Models, model)
			}
		}
		break
	}
	return nil
}
