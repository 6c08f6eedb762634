package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/jef"
	"github.com/matzehuels/jefview/pkg/jef/jeftest"
)

// harness runs commands against a private config, cache and palette store.
type harness struct {
	t      *testing.T
	dir    string
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "config.toml")
	data := fmt.Sprintf("[cache]\ndir = %q\n\n[store]\npath = %q\n",
		filepath.Join(dir, "cache"), filepath.Join(dir, "palettes.db"))
	if err := os.WriteFile(config, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return &harness{t: t, dir: dir, config: config}
}

// run executes one command line and returns stdout and the log output.
func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--config", h.config))
	err := root.ExecuteContext(context.Background())
	return out.String(), logs.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, logs, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v: %v\nlogs:\n%s", args, err, logs)
	}
	return out
}

// rose has a black square (0x01) and a second square (0x0d).
func rose(t *testing.T) string {
	return jeftest.WriteFile(t, "rose.jef", jeftest.Build(0,
		jeftest.Square(0x01, 0, 0, 400),
		jeftest.Square(0x0d, 500, 500, 400),
	))
}

func TestInfoCommand(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("info", rose(t))

	for _, want := range []string{"rose.jef", "Hoop", "D (110×110 mm, code 0)", "Threads", "thread 1: code 0x0d, type 13"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output missing %q:\n%s", want, out)
		}
	}

	_, _, err := h.run("info", filepath.Join(t.TempDir(), "missing.jef"))
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestColoursCommand(t *testing.T) {
	h := newHarness(t)
	path := jeftest.WriteFile(t, "odd.jef", jeftest.Build(0,
		jeftest.Square(0x01, 0, 0, 200),
		jeftest.Square(0x7f, 300, 0, 200),
	))

	out, logs, err := h.run("colours", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Janome Polyester 2 Black") {
		t.Errorf("catalog colour missing:\n%s", out)
	}
	if !strings.Contains(out, "unknown colour (127)") || !strings.Contains(out, "1 thread(s)") {
		t.Errorf("unknown colour not reported:\n%s", out)
	}
	if !strings.Contains(logs, "0x7f") {
		t.Errorf("unknown colour not logged:\n%s", logs)
	}

	out = h.mustRun("colours", path, "--thread-type", "5")
	if strings.Contains(out, "Black") {
		t.Errorf("--thread-type did not filter:\n%s", out)
	}
}

func TestCatalogCommand(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("catalog", "0x01")
	if !strings.Contains(out, "Janome Polyester 2 Black") || !strings.Contains(out, "Robison-Anton Rayon 40 2296 Black") {
		t.Errorf("catalog 0x01:\n%s", out)
	}

	all := h.mustRun("catalog")
	if !strings.Contains(all, "(measured)") || strings.Count(all, "\n") <= strings.Count(out, "\n") {
		t.Errorf("full catalog looks incomplete:\n%s", all)
	}

	for arg, code := range map[string]errs.Code{
		"0x7f": errs.ErrCodeNotFound,
		"red":  errs.ErrCodeInvalidInput,
	} {
		if _, _, err := h.run("catalog", arg); !errs.Is(err, code) {
			t.Errorf("catalog %s error = %v, want %s", arg, err, code)
		}
	}
}

func TestRecolourCommand(t *testing.T) {
	h := newHarness(t)
	in := rose(t)
	original, _ := os.ReadFile(in)
	out := filepath.Join(t.TempDir(), "recoloured.jef")

	h.mustRun("recolour", in, "--thread", "1", "--code", "0x02", "-o", out)

	p, err := jef.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if p.Threads[1].ColourCode != 0x02 || p.Threads[0].ColourCode != 0x01 {
		t.Errorf("codes = %#x, %#x", p.Threads[0].ColourCode, p.Threads[1].ColourCode)
	}
	if now, _ := os.ReadFile(in); !bytes.Equal(now, original) {
		t.Error("input changed although --output was given")
	}

	bad := filepath.Join(t.TempDir(), "bad.jef")
	_, _, err = h.run("recolour", in, "--thread", "9", "--code", "1", "-o", bad)
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("out-of-range thread error = %v", err)
	}
	if _, statErr := os.Stat(bad); !os.IsNotExist(statErr) {
		t.Error("failed recolour wrote a file")
	}
}

type renderedThread struct {
	Index          int    `json:"index"`
	Name           string `json:"name"`
	Interpretation int    `json:"interpretation"`
	Visible        bool   `json:"visible"`
}

// renderJSON renders path to JSON on stdout and decodes the thread list.
func renderJSON(t *testing.T, h *harness, path string) []renderedThread {
	t.Helper()
	out := h.mustRun("render", path, "-f", "json", "-o", "-", "--no-cache")
	var doc struct {
		Threads []renderedThread `json:"threads"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("render json: %v\n%s", err, out)
	}
	return doc.Threads
}

func TestPaletteCommand(t *testing.T) {
	h := newHarness(t)
	path := rose(t)

	out := h.mustRun("palette", path, "--thread", "0", "--interpretation", "1")
	if !strings.Contains(out, "Robison-Anton Rayon 40 2296 Black") {
		t.Errorf("palette output:\n%s", out)
	}
	h.mustRun("palette", path, "--thread", "1", "--hide")

	threads := renderJSON(t, h, path)
	if threads[0].Interpretation != 1 || threads[1].Visible {
		t.Errorf("saved palette not used by render: %+v", threads)
	}

	out = h.mustRun("palette", path)
	if !strings.Contains(out, "hidden") {
		t.Errorf("palette listing does not show the hidden thread:\n%s", out)
	}

	h.mustRun("palette", path, "--reset")
	threads = renderJSON(t, h, path)
	if threads[0].Interpretation != 0 || !threads[1].Visible {
		t.Errorf("palette not reset: %+v", threads)
	}

	if _, _, err := h.run("palette", path, "--thread", "0", "--interpretation", "99"); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("bad interpretation error = %v", err)
	}
	if _, _, err := h.run("palette", path, "--hide", "--show"); err == nil {
		t.Error("--hide with --show should be rejected")
	}
}

func TestRenderCommand(t *testing.T) {
	h := newHarness(t)
	path := rose(t)
	base := strings.TrimSuffix(path, ".jef")

	out := h.mustRun("render", path, "-f", "svg,png", "--width", "200", "--height", "150")
	if !strings.Contains(out, "fresh") || !strings.Contains(out, "2 threads") {
		t.Errorf("first render output:\n%s", out)
	}
	svg, err := os.ReadFile(base + ".svg")
	if err != nil || !bytes.HasPrefix(svg, []byte("<svg")) {
		t.Fatalf("svg output: %v", err)
	}
	png, err := os.ReadFile(base + ".png")
	if err != nil || !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("png output: %v", err)
	}

	out = h.mustRun("render", path, "-f", "svg,png", "--width", "200", "--height", "150")
	if !strings.Contains(out, "cached") {
		t.Errorf("second render was not cached:\n%s", out)
	}

	single := filepath.Join(t.TempDir(), "view.svg")
	h.mustRun("render", path, "-o", single, "--viewport", "0,-400,100,100", "--background", "#fafafa")
	if data, err := os.ReadFile(single); err != nil || !bytes.Contains(data, []byte("#fafafa")) {
		t.Errorf("viewport render: %v", err)
	}

	out = h.mustRun("cache", "path")
	if strings.TrimSpace(out) != filepath.Join(h.dir, "cache") {
		t.Errorf("cache path = %q", out)
	}
	out = h.mustRun("cache", "clear")
	if !strings.Contains(out, "Cleared") || strings.Contains(out, "Cleared 0 ") {
		t.Errorf("cache clear output:\n%s", out)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	h := newHarness(t)
	path := rose(t)

	tests := []struct {
		name string
		args []string
	}{
		{"format", []string{"-f", "pdf"}},
		{"viewport", []string{"--viewport", "0,0,0,10"}},
		{"background", []string{"--background", "not-a-colour"}},
		{"width", []string{"--width", "-5"}},
		{"stdout", []string{"-f", "svg,png", "-o", "-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := h.run(append([]string{"render", path}, tt.args...)...)
			if !errs.Is(err, errs.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}

	bad := jeftest.WriteFile(t, "bad.jef", []byte("not a pattern"))
	if _, _, err := h.run("render", bad); !errs.Is(err, errs.ErrCodeFormat) {
		t.Errorf("bad file error = %v, want FORMAT_ERROR", err)
	}
}

func TestConfigFlag(t *testing.T) {
	h := newHarness(t)
	path := rose(t)

	cfg := fmt.Sprintf("[render]\nformats = [\"json\"]\n\n[cache]\ndisabled = true\n\n[store]\npath = %q\n",
		filepath.Join(h.dir, "palettes.db"))
	if err := os.WriteFile(h.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	h.mustRun("render", path)
	if _, err := os.Stat(strings.TrimSuffix(path, ".jef") + ".json"); err != nil {
		t.Errorf("config formats not applied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "cache")); !os.IsNotExist(err) {
		t.Error("disabled cache was written")
	}

	h.config = filepath.Join(h.dir, "missing.toml")
	if _, _, err := h.run("info", path); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing --config error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("completion", "bash")
	if !strings.Contains(out, "jefview") {
		t.Error("bash completion does not mention the command")
	}
}
