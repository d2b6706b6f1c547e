package ai

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/prompts.yaml
var promptFile []byte

// defaultFormat is used when the client asks for a format we don't know.
const defaultFormat = "daily"

// PromptSet holds the summary prompt templates, keyed by format name.
type PromptSet struct {
	templates map[string]string
}

// LoadPrompts parses the embedded prompt templates.
func LoadPrompts() (*PromptSet, error) {
	templates := make(map[string]string)
	if err := yaml.Unmarshal(promptFile, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	if _, ok := templates[defaultFormat]; !ok {
		return nil, fmt.Errorf("prompt templates missing %q format", defaultFormat)
	}
	return &PromptSet{templates: templates}, nil
}

// Render fills the template for the given format with the transcript text.
// Unknown formats fall back to the daily template.
func (p *PromptSet) Render(format, text string) string {
	tmpl, ok := p.templates[format]
	if !ok {
		tmpl = p.templates[defaultFormat]
	}
	return strings.ReplaceAll(tmpl, "{text}", text)
}
