package server

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/jefview/pkg/buildinfo"
	"github.com/matzehuels/jefview/pkg/cache"
	errs "github.com/matzehuels/jefview/pkg/errors"
	"github.com/matzehuels/jefview/pkg/jef"
	"github.com/matzehuels/jefview/pkg/pipeline"
	"github.com/matzehuels/jefview/pkg/render"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Resolve().Version,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.cfg.Root)
	if err != nil {
		s.writeErr(w, errs.Wrap(errs.ErrCodeIO, err, "read pattern root"))
		return
	}
	names := []string{}
	for _, e := range entries {
		if e.Type()&fs.ModeType == 0 && errs.ValidatePatternName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string][]string{"patterns": names})
}

// patternInfo is the JSON summary of one pattern.
type patternInfo struct {
	Hash       string         `json:"hash"`
	Size       int            `json:"size"`
	Hoop       string         `json:"hoop"`
	HoopCode   uint32         `json:"hoop_code"`
	Created    string         `json:"created,omitempty"`
	Moves      int            `json:"moves"`
	Stitches   int            `json:"stitches"`
	Consistent bool           `json:"data_length_consistent"`
	Bounds     []int          `json:"bounds,omitempty"` // x, y, w, h in screen units
	Segments   int            `json:"segments"`
	Depth      int            `json:"depth"`
	Threads    []threadInfo   `json:"threads"`
	Palette    render.Palette `json:"palette"`
}

type threadInfo struct {
	Index           int    `json:"index"`
	Code            int32  `json:"code"`
	Name            string `json:"name"`
	Colour          string `json:"colour"`
	Catalog         string `json:"catalog,omitempty"`
	Interpretations int    `json:"interpretations"`
	Visible         bool   `json:"visible"`
	Measured        bool   `json:"measured,omitempty"`
	Unknown         bool   `json:"unknown,omitempty"`
	Stitches        int    `json:"stitches"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, hash, err := s.load(r, chi.URLParam(r, "name"))
	if err != nil {
		s.writeErr(w, err)
		return
	}

	// Only summaries with the default palette are cached.
	runner := s.cfg.Runner
	saved := s.savedPalette(r, hash)
	catalog, err := runner.CatalogFingerprint()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	key := runner.Keyer.InfoKey(hash, catalog)
	if saved == nil {
		if data, hit, err := runner.Cache.Get(ctx, key); err == nil && hit {
			writeRaw(w, http.StatusOK, pipeline.ContentTypes[pipeline.FormatJSON], data)
			return
		}
	}

	sess, err := s.session(r, p, saved, pipeline.Options{})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	data, err := json.Marshal(summarise(hash, p, sess))
	if err != nil {
		s.writeErr(w, errs.Wrap(errs.ErrCodeInternal, err, "encode info"))
		return
	}
	if saved == nil {
		if err := runner.Cache.Set(ctx, key, data, cache.TTLInfo); err != nil {
			s.cfg.Logger.Warn("cache write failed", "key", key, "err", err)
		}
	}
	writeRaw(w, http.StatusOK, pipeline.ContentTypes[pipeline.FormatJSON], data)
}

func summarise(hash string, p *jef.Pattern, sess *render.Session) patternInfo {
	moves, stitches := p.Counts()
	info := patternInfo{
		Hash:       hash,
		Size:       p.Len(),
		Hoop:       p.Hoop.String(),
		HoopCode:   p.HoopCode,
		Moves:      moves,
		Stitches:   stitches,
		Consistent: p.DataLengthConsistent(),
		Segments:   sess.Tree().Len(),
		Depth:      sess.Tree().Depth(),
		Palette:    sess.Palette(),
	}
	if p.Created != nil {
		info.Created = p.Created.Format("2006-01-02 15:04:05")
	}
	if b := sess.Bounds(); !b.Empty() {
		info.Bounds = []int{b.Min.X, b.Min.Y, b.Dx() + 1, b.Dy() + 1}
	}
	for _, t := range sess.Threads() {
		info.Threads = append(info.Threads, threadInfo{
			Index:           t.Index,
			Code:            t.Code,
			Name:            t.Colour.Label(),
			Colour:          t.Colour.RGB.Hex(),
			Catalog:         t.Colour.ThreadType,
			Interpretations: t.Interpretations,
			Visible:         t.Visible,
			Measured:        t.Colour.Measured,
			Unknown:         t.Unknown,
			Stitches:        t.Stitches,
		})
	}
	return info
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeErr(w, err)
		return
	}
	opts, err := s.renderOptions(r, format)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	p, hash, err := s.load(r, chi.URLParam(r, "name"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	sess, err := s.session(r, p, s.savedPalette(r, hash), opts)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	artifacts, hit, err := s.cfg.Runner.RenderWithCacheInfo(r.Context(), sess, opts)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeRaw(w, http.StatusOK, pipeline.ContentTypes[format], artifacts[format])
}

// renderOptions merges query parameters over the configured defaults.
func (s *Server) renderOptions(r *http.Request, format string) (pipeline.Options, error) {
	opts := s.cfg.Defaults
	opts.Formats = []string{format}
	opts.Logger = s.cfg.Logger
	q := r.URL.Query()

	ints := map[string]*int{"width": &opts.Width, "height": &opts.Height}
	for key, dst := range ints {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return opts, errs.New(errs.ErrCodeInvalidInput, "%s=%q is not an integer", key, v)
			}
			*dst = n
		}
	}
	if v := q.Get("background"); v != "" {
		opts.Background = v
	}
	if v := q.Get("points"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errs.New(errs.ErrCodeInvalidInput, "points=%q is not a boolean", v)
		}
		opts.Points = b
	}

	if q.Has("x") || q.Has("y") || q.Has("w") || q.Has("h") {
		var v [4]int
		for i, key := range []string{"x", "y", "w", "h"} {
			n, err := strconv.Atoi(q.Get(key))
			if err != nil {
				return opts, errs.New(errs.ErrCodeInvalidInput, "viewport needs integer x, y, w and h (%s=%q)", key, q.Get(key))
			}
			v[i] = n
		}
		vp, err := pipeline.NewViewport(v[0], v[1], v[2], v[3])
		if err != nil {
			return opts, err
		}
		opts.Viewport = &vp
	}

	opts.SetRenderDefaults()
	return opts, opts.ValidateForRender()
}

// load validates name, reads the pattern from the root and hashes it.
func (s *Server) load(r *http.Request, name string) (*jef.Pattern, string, error) {
	if err := errs.ValidatePatternName(name); err != nil {
		return nil, "", err
	}
	path := filepath.Join(s.cfg.Root, filepath.FromSlash(name))
	p, err := s.cfg.Runner.Load(r.Context(), path)
	if err != nil {
		return nil, "", err
	}
	return p, cache.Hash(p.Bytes()), nil
}

// savedPalette returns the stored palette for hash, or nil.
func (s *Server) savedPalette(r *http.Request, hash string) *render.Palette {
	if s.cfg.Store == nil {
		return nil
	}
	rec, err := s.cfg.Store.Get(r.Context(), hash)
	if err != nil {
		s.cfg.Logger.Warn("palette lookup failed", "hash", hash, "err", err)
		return nil
	}
	if rec == nil {
		return nil
	}
	return &rec.Palette
}

// session builds a per-request session.
func (s *Server) session(r *http.Request, p *jef.Pattern, palette *render.Palette, opts pipeline.Options) (*render.Session, error) {
	opts.Palette = palette
	if opts.Logger == nil {
		opts.Logger = s.cfg.Logger
	}
	return s.cfg.Runner.NewSession(r.Context(), p, opts)
}

// =============================================================================
// Responses
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeRaw(w http.ResponseWriter, status int, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "err", err)
	}
	code := string(errs.GetCode(err))
	if code == "" {
		code = string(errs.ErrCodeInternal)
	}
	writeJSON(w, status, map[string]string{
		"error": errs.UserMessage(err),
		"code":  strings.ToLower(code),
	})
}

func statusFor(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidPath, errs.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errs.ErrCodeNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeFormat:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
