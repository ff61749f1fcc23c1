package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// Format is an output encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	// FormatText prints strings and byte slices as they are and falls back
	// to YAML for anything else.
	FormatText Format = "text"
)

// ParseFormat validates a --format flag value. Empty means YAML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatYAML, nil
	case FormatYAML, FormatJSON, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want yaml, json or text)", s)
	}
}

// Output writes v to w in format f.
func Output(w io.Writer, v any, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML, "":
		return writeYAML(w, v)
	case FormatText:
		switch s := v.(type) {
		case string:
			_, err := fmt.Fprintln(w, s)
			return err
		case []byte:
			_, err := w.Write(s)
			return err
		case fmt.Stringer:
			_, err := fmt.Fprintln(w, s.String())
			return err
		}
		return writeYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format %q", f)
	}
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// PrintSuccess prints a line prefixed with a check mark.
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintWarning prints a line prefixed with a warning sign.
func PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "⚠ "+format+"\n", args...)
}
