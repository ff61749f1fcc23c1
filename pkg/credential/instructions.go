package credential

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// DefaultInstructions is the system prompt used when none is configured.
const DefaultInstructions = `You are a friendly voice assistant.
Reply in the language the user speaks and switch when they switch.
Keep every answer brief, two or three sentences at most.`

// LoadInstructions reads a system prompt. YAML files (.yaml, .yml) hold it
// under an "instructions" key; any other file is used as plain text.
func LoadInstructions(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("credential: read instructions: %w", err)
	}

	text := string(data)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc struct {
			Instructions string `yaml:"instructions"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("credential: parse %s: %w", path, err)
		}
		text = doc.Instructions
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("credential: %s: empty instructions", path)
	}
	return text, nil
}
