package cli

import (
	"io"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error = %v", err)
	}
	if filepath.Base(dir) != appName {
		t.Errorf("cacheDir() = %q, want basename %q", dir, appName)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"svg", []string{"svg"}},
		{"svg,png,json", []string{"svg", "png", "json"}},
	}

	for _, tt := range tests {
		got := parseFormats(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"derive from flow input", "", "intake.flow.json", "intake"},
		{"derive from plain input", "", "intake.json", "intake"},
		{"explicit output with format ext", "out.svg", "intake.flow.json", "out"},
		{"explicit output without ext", "diagrams/intake", "intake.flow.json", "diagrams/intake"},
		{"explicit output with unknown ext", "out.diagram", "intake.flow.json", "out.diagram"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputBase(tt.output, tt.input); got != tt.want {
				t.Errorf("outputBase(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestRootCommand(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"layout", "render", "inspect", "view", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestNewRunner(t *testing.T) {
	c := New(io.Discard, LogInfo)

	runner, err := c.newRunner(true)
	if err != nil {
		t.Fatalf("newRunner() error = %v", err)
	}
	if runner == nil {
		t.Fatal("newRunner() returned nil")
	}
	defer runner.Close()
}
