// Package templates loads named session templates from a YAML file.
//
// A template is a partial SessionConfig: callers naming a template at
// launch get its fields as defaults, with their own values layered on
// top. A missing template file is not an error; launching without
// templates is the common case.
package templates

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/termhive/termhive/internal/types"
)

// Template is a partial session configuration.
type Template struct {
	App        string            `yaml:"app,omitempty"`
	WorkingDir string            `yaml:"working_dir,omitempty"`
	Purpose    string            `yaml:"purpose,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`
}

// Library holds all loaded templates by name.
type Library struct {
	templates map[string]Template
}

type fileFormat struct {
	Templates map[string]Template `yaml:"templates"`
}

// Load reads a template library from path. A missing file yields an
// empty library.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Library{templates: map[string]Template{}}, nil
		}
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}
	if f.Templates == nil {
		f.Templates = map[string]Template{}
	}
	return &Library{templates: f.Templates}, nil
}

// Get returns a template by name.
func (l *Library) Get(name string) (Template, bool) {
	tpl, ok := l.templates[name]
	return tpl, ok
}

// Names returns the names of all loaded templates.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	return names
}

// Apply fills empty fields of config from the named template. Caller
// values always win; template env entries are added only where the
// caller did not set the same key. Naming an unknown template is a
// configuration error.
func (l *Library) Apply(config types.SessionConfig) (types.SessionConfig, error) {
	if config.Template == "" {
		return config, nil
	}
	tpl, ok := l.templates[config.Template]
	if !ok {
		return config, fmt.Errorf("unknown session template %q", config.Template)
	}

	if config.App == "" {
		config.App = tpl.App
	}
	if config.WorkingDir == "" {
		config.WorkingDir = tpl.WorkingDir
	}
	if config.Purpose == "" {
		config.Purpose = tpl.Purpose
	}
	if len(tpl.Env) > 0 {
		merged := make(map[string]string, len(tpl.Env)+len(config.Env))
		for k, v := range tpl.Env {
			merged[k] = v
		}
		for k, v := range config.Env {
			merged[k] = v
		}
		config.Env = merged
	}
	return config, nil
}
