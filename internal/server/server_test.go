package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/jefview/pkg/cache"
	"github.com/matzehuels/jefview/pkg/jef/jeftest"
	"github.com/matzehuels/jefview/pkg/observability"
	"github.com/matzehuels/jefview/pkg/pipeline"
	"github.com/matzehuels/jefview/pkg/render"
	"github.com/matzehuels/jefview/pkg/store"
)

type fixture struct {
	root   string
	srv    *httptest.Server
	runner *pipeline.Runner
	store  *store.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	write := func(name string, data []byte) {
		if err := os.WriteFile(filepath.Join(root, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("rose.jef", jeftest.Build(0,
		jeftest.Square(0x01, 0, 0, 400),
		jeftest.Square(0x0d, 500, 500, 400),
	))
	write("blank.JEF", jeftest.Build(0))
	write("bad.jef", []byte("short"))
	write("notes.txt", []byte("not a pattern"))

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(c, cache.NewScopedKeyer(nil, "test:"), nil, nil)
	st := store.NewMemoryStore()
	s := New(Config{Root: root, Runner: runner, Store: st})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		runner.Close()
	})
	return &fixture{root: root, srv: srv, runner: runner, store: st}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/healthz")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "ok" || got["version"] == "" {
		t.Errorf("body = %v", got)
	}
}

func TestListPatterns(t *testing.T) {
	f := newFixture(t)
	_, body := f.get(t, "/patterns")

	var got struct{ Patterns []string }
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	want := []string{"bad.jef", "blank.JEF", "rose.jef"}
	if len(got.Patterns) != len(want) {
		t.Fatalf("patterns = %v, want %v", got.Patterns, want)
	}
	for i := range want {
		if got.Patterns[i] != want[i] {
			t.Errorf("patterns = %v, want %v", got.Patterns, want)
			break
		}
	}
}

func TestPatternInfo(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/patterns/rose.jef")

	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("status %d, type %q: %s", resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}
	var info patternInfo
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatal(err)
	}
	if len(info.Threads) != 2 || info.Stitches != 32 || info.Segments != 32 || info.Hoop != "D" {
		t.Errorf("info = %+v", info)
	}
	if info.Threads[0].Catalog != "Janome Polyester" || info.Threads[0].Interpretations < 2 {
		t.Errorf("thread 0 = %+v", info.Threads[0])
	}
	if !info.Consistent || len(info.Bounds) != 4 || info.Bounds[2] != 901 {
		t.Errorf("bounds %v, consistent %v", info.Bounds, info.Consistent)
	}

	catalog, err := f.runner.CatalogFingerprint()
	if err != nil {
		t.Fatal(err)
	}
	data, hit, err := f.runner.Cache.Get(context.Background(), f.runner.Keyer.InfoKey(info.Hash, catalog))
	if err != nil || !hit || !bytes.Equal(data, body) {
		t.Errorf("summary not cached: hit %v, err %v", hit, err)
	}
}

func TestPatternInfoSavedPalette(t *testing.T) {
	f := newFixture(t)
	_, body := f.get(t, "/patterns/rose.jef")
	var info patternInfo
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatal(err)
	}

	p := render.NewPalette(2)
	p.Choices[0] = 1
	p.Visible[1] = false
	if err := f.store.Put(context.Background(), &store.Record{PatternHash: info.Hash, Palette: p}); err != nil {
		t.Fatal(err)
	}

	_, body = f.get(t, "/patterns/rose.jef")
	var saved patternInfo
	if err := json.Unmarshal(body, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.Threads[1].Visible || saved.Threads[0].Catalog == info.Threads[0].Catalog {
		t.Errorf("saved palette ignored: %+v", saved.Threads)
	}
}

func TestRenderSVG(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/patterns/rose.jef/render.svg")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(body, []byte("<svg")) || resp.Header.Get("X-Cache") != "miss" {
		t.Errorf("first render: cache %q, body %.40s", resp.Header.Get("X-Cache"), body)
	}

	resp, again := f.get(t, "/patterns/rose.jef/render.svg")
	if resp.Header.Get("X-Cache") != "hit" || !bytes.Equal(body, again) {
		t.Errorf("second render: cache %q", resp.Header.Get("X-Cache"))
	}
}

func TestRenderPNGViewport(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/patterns/rose.jef/render.png?x=0&y=-400&w=400&h=400&width=120&height=90&background=navy&points=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 90 {
		t.Errorf("size = %v", b)
	}
}

func TestRenderEmptyPattern(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/patterns/blank.JEF/render.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
}

func TestErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/patterns/notes.txt", http.StatusBadRequest, "invalid_input"},
		{"/patterns/missing.jef", http.StatusNotFound, "file_not_found"},
		{"/patterns/bad.jef", http.StatusUnprocessableEntity, "format_error"},
		{"/patterns/rose.jef/render.gif", http.StatusBadRequest, "invalid_input"},
		{"/patterns/rose.jef/render.svg?x=0&y=0&w=0&h=10", http.StatusBadRequest, "invalid_input"},
		{"/patterns/rose.jef/render.svg?x=0", http.StatusBadRequest, "invalid_input"},
		{"/patterns/rose.jef/render.png?width=lots", http.StatusBadRequest, "invalid_input"},
		{"/patterns/rose.jef/render.png?background=plaid", http.StatusBadRequest, "invalid_input"},
		{"/patterns/rose.jef/render.svg?points=maybe", http.StatusBadRequest, "invalid_input"},
	}
	for _, tt := range tests {
		resp, body := f.get(t, tt.path)
		if resp.StatusCode != tt.status {
			t.Errorf("%s: status = %d, want %d (%s)", tt.path, resp.StatusCode, tt.status, body)
			continue
		}
		var got map[string]string
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("%s: %v", tt.path, err)
			continue
		}
		if got["code"] != tt.code || got["error"] == "" {
			t.Errorf("%s: body = %v, want code %s", tt.path, got, tt.code)
		}
	}
}

type requestHooks struct {
	mu     sync.Mutex
	routes []string
	status []int
}

func (h *requestHooks) OnRequest(_ context.Context, _ string, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
	h.status = append(h.status, status)
}

func TestServerHooks(t *testing.T) {
	h := &requestHooks{}
	observability.SetServerHooks(h)
	t.Cleanup(observability.Reset)

	f := newFixture(t)
	f.get(t, "/patterns/rose.jef/render.json")
	f.get(t, "/patterns/missing.jef")

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.routes) != 2 {
		t.Fatalf("routes = %v", h.routes)
	}
	if h.routes[0] != "/patterns/{name}/render.{format}" || h.status[0] != http.StatusOK {
		t.Errorf("first request = %s %d", h.routes[0], h.status[0])
	}
	if h.routes[1] != "/patterns/{name}" || h.status[1] != http.StatusNotFound {
		t.Errorf("second request = %s %d", h.routes[1], h.status[1])
	}
}

func TestServeShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	s := New(Config{Root: t.TempDir()})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
