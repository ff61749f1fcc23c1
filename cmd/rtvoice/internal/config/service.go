package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Service file names.
const (
	ServiceVoice   = "voice"
	ServiceBackend = "backend"
)

// ErrServiceNotFound is returned by LoadService when the file is missing.
var ErrServiceNotFound = errors.New("service config not found")

// ServicePath returns the YAML file of a service within a context directory.
func ServicePath(contextDir, service string) string {
	return filepath.Join(contextDir, service+".yaml")
}

// LoadService decodes "{contextDir}/{service}.yaml".
func LoadService[T any](contextDir, service string) (*T, error) {
	path := ServicePath(contextDir, service)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (expected %s)", ErrServiceNotFound, service, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &v, nil
}

// SaveService writes v to "{contextDir}/{service}.yaml".
func SaveService[T any](contextDir, service string, v *T) error {
	if err := os.MkdirAll(contextDir, 0o755); err != nil {
		return fmt.Errorf("create context dir: %w", err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s config: %w", service, err)
	}
	path := ServicePath(contextDir, service)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SetValue sets one key in a service file, creating the file if needed.
// The value is parsed as a YAML scalar so numbers and booleans keep their
// type.
func SetValue(contextDir, service, key, value string) error {
	m := map[string]any{}
	existing, err := LoadService[map[string]any](contextDir, service)
	switch {
	case err == nil && *existing != nil:
		m = *existing
	case err != nil && !errors.Is(err, ErrServiceNotFound):
		return err
	}

	var parsed any
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil || parsed == nil {
		parsed = value
	}
	if _, isMap := parsed.(map[string]any); isMap {
		parsed = value
	}
	if _, isList := parsed.([]any); isList {
		parsed = value
	}
	m[key] = parsed
	return SaveService(contextDir, service, &m)
}

// ListServices returns the service names configured in a context.
func ListServices(contextDir string) ([]string, error) {
	entries, err := os.ReadDir(contextDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list services: %w", err)
	}
	var services []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".yaml" || ext == ".yml" {
			services = append(services, name[:len(name)-len(ext)])
		}
	}
	return services, nil
}
