// Package prompt renders named prompt templates with variable substitution.
//
// Templates are data, not code: the default set is embedded, and deployments
// can override it with a YAML file so prompts change without redeploying the
// orchestration logic.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Registry holds named prompt templates.
type Registry struct {
	templates map[string]string
}

// Load parses the embedded default templates.
func Load() (*Registry, error) {
	return parse(defaultTemplates)
}

// LoadFile parses templates from a YAML file at path.
func LoadFile(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=prompt.LoadFile: %w", err)
	}
	return parse(b)
}

func parse(b []byte) (*Registry, error) {
	m := map[string]string{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("op=prompt.parse: %w", err)
	}
	return &Registry{templates: m}, nil
}

// Render substitutes {{key}} placeholders in the named template. Unknown
// placeholders are left untouched so missing variables never silently drop
// surrounding text; callers must supply all expected variables.
func (r *Registry) Render(name string, vars map[string]string) (string, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("op=prompt.Render name=%s: %w", name, domain.ErrTemplateNotFound)
	}
	out := tpl
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return strings.TrimSpace(out), nil
}

// Names returns the registered template names; used by startup checks.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for k := range r.templates {
		names = append(names, k)
	}
	return names
}
