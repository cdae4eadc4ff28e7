// Package prompt loads the assistant prompt template that wraps user
// messages before they reach the provider. Definitions are YAML; a built-in
// default is embedded so the binary works without any prompt files.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed assistant.yaml
var defaultPromptYAML []byte

// Config describes a prompt definition loaded from YAML.
type Config struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Template    string `yaml:"template"`
}

// Prompt wraps a validated prompt definition with its compiled template.
type Prompt struct {
	Config Config
	Source string

	tmpl *template.Template
}

// templateData is the variable set exposed to prompt templates.
type templateData struct {
	Message string
}

// Load parses and compiles a prompt definition.
func Load(source string, data []byte) (*Prompt, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", source, err)
	}

	if strings.TrimSpace(cfg.Slug) == "" {
		return nil, fmt.Errorf("prompt %s: slug is required", source)
	}
	if strings.TrimSpace(cfg.Template) == "" {
		return nil, fmt.Errorf("prompt %s: template is required", source)
	}

	tmpl, err := template.New(cfg.Slug).Option("missingkey=error").Parse(cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("compile prompt %s: %w", source, err)
	}

	return &Prompt{Config: cfg, Source: source, tmpl: tmpl}, nil
}

// LoadDefault returns the embedded assistant prompt.
func LoadDefault() (*Prompt, error) {
	return Load("embedded:assistant.yaml", defaultPromptYAML)
}

// LoadFile loads a prompt definition from disk, falling back to the
// embedded default when path is empty.
func LoadFile(path string) (*Prompt, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return LoadDefault()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	return Load(path, data)
}

// Render expands the template around one user message.
func (p *Prompt) Render(message string) (string, error) {
	if p == nil || p.tmpl == nil {
		return "", fmt.Errorf("prompt is not loaded")
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, templateData{Message: message}); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", p.Config.Slug, err)
	}
	return buf.String(), nil
}
