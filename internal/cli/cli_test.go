package cli

import (
	"io"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Coffee Tracker", "coffee-tracker"},
		{"punctuation", "My App! (v2)", "my-app-v2"},
		{"already clean", "todo", "todo"},
		{"collapses runs", "a   b", "a-b"},
		{"empty", "", "mockup"},
		{"only symbols", "!!!", "mockup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slugify(tt.in); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"generate", "compose", "flows", "projects", "serve", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing %q subcommand", name)
		}
	}
}

func TestRootCommandConfigFlag(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("root command missing --config flag")
	}
}
