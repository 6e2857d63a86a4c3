// Package source loads the scraping registry and turns each configured
// source into raw event postings.
package source

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"paris_events/internal/model"
)

// Registry holds the validated source configuration in file order.
type Registry struct {
	sources []model.Source
	byID    map[string]model.Source
}

// Load reads and validates the YAML source registry at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	var file struct {
		Sources []model.Source `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}

	reg := &Registry{byID: make(map[string]model.Source)}
	for _, src := range file.Sources {
		if err := validate(src); err != nil {
			return nil, fmt.Errorf("source %q: %w", src.ID, err)
		}
		if _, dup := reg.byID[src.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", src.ID)
		}
		if src.WindowDays <= 0 {
			src.WindowDays = 90
		}
		reg.byID[src.ID] = src
		reg.sources = append(reg.sources, src)
	}
	return reg, nil
}

func validate(src model.Source) error {
	if src.ID == "" {
		return errors.New("missing id")
	}
	if src.Name == "" {
		return errors.New("missing name")
	}
	if src.URL == "" {
		return errors.New("missing url")
	}
	switch src.Type {
	case model.SourceRSS, model.SourceHTML, model.SourceICS:
	default:
		return fmt.Errorf("unknown type %q", src.Type)
	}
	switch src.Frequency {
	case model.Hourly, model.Daily, model.Weekly, model.Monthly:
	default:
		return fmt.Errorf("unknown frequency %q", src.Frequency)
	}
	if src.Type == model.SourceHTML && src.Selectors.Item == "" {
		return errors.New("html source requires selectors.item")
	}
	return nil
}

// Active returns the active sources in file order.
func (r *Registry) Active() []model.Source {
	var active []model.Source
	for _, src := range r.sources {
		if src.Active {
			active = append(active, src)
		}
	}
	return active
}

// Get returns the source with the given id.
func (r *Registry) Get(id string) (model.Source, bool) {
	src, ok := r.byID[id]
	return src, ok
}
