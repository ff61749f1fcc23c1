package cli

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatYAML, "yaml": FormatYAML, "json": FormatJSON, "text": FormatText} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("table"); err == nil {
		t.Error("ParseFormat(table) succeeded")
	}
}

func TestOutput(t *testing.T) {
	v := sample{Name: "mic", Count: 2}

	var buf bytes.Buffer
	if err := Output(&buf, v, FormatJSON); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.Contains(got, `"name": "mic"`) || !strings.Contains(got, `"count": 2`) {
		t.Errorf("json = %q", got)
	}

	buf.Reset()
	if err := Output(&buf, v, FormatYAML); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "name: mic\ncount: 2\n" {
		t.Errorf("yaml = %q", got)
	}

	buf.Reset()
	if err := Output(&buf, "hello", FormatText); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hello\n" {
		t.Errorf("text = %q", buf.String())
	}

	if err := Output(&buf, v, Format("xml")); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer
	PrintSuccess(&buf, "context %q created", "dev")
	PrintWarning(&buf, "no %s", "backend")
	if got := buf.String(); got != "✓ context \"dev\" created\n⚠ no backend\n" {
		t.Errorf("output = %q", got)
	}
}
