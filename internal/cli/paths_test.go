package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestXDGDirs(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		fn     func() (string, error)
		subdir string
	}{
		{"cache", "XDG_CACHE_HOME", cacheDir, ".cache"},
		{"config", "XDG_CONFIG_HOME", configDir, ".config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, "")
			dir, err := tt.fn()
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			home, _ := os.UserHomeDir()
			if want := filepath.Join(home, tt.subdir, appName); dir != want {
				t.Errorf("default = %q, want %q", dir, want)
			}

			custom := t.TempDir()
			t.Setenv(tt.env, custom)
			dir, err = tt.fn()
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if want := filepath.Join(custom, appName); dir != want {
				t.Errorf("with %s = %q, want %q", tt.env, dir, want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, input, format string
		multiple              bool
		want                  string
	}{
		{"", "designs/rose.jef", "svg", false, "designs/rose.svg"},
		{"", "designs/rose.JEF", "png", true, "designs/rose.png"},
		{"out.png", "rose.jef", "png", false, "out.png"},
		{"out.svg", "rose.jef", "png", true, "out.png"},
		{"preview", "rose.jef", "json", true, "preview.json"},
		{"my.design", "rose.jef", "svg", true, "my.design.svg"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.output, tt.input, tt.format, tt.multiple); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %v) = %q, want %q",
				tt.output, tt.input, tt.format, tt.multiple, got, tt.want)
		}
	}
}
