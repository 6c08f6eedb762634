package colours

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/jefview/pkg/errors"
)

//go:embed data/catalogs.toml
var defaultData []byte

var defaultResolver = sync.OnceValues(func() (*Resolver, error) {
	return Load(bytes.NewReader(defaultData))
})

// Default returns the resolver for the embedded catalog data.
func Default() (*Resolver, error) {
	return defaultResolver()
}

type dataFile struct {
	Order    []string      `toml:"order"`
	Catalogs []catalogDef  `toml:"catalog"`
	CrossRef []crossRefDef `toml:"crossref"`
	Measured []measuredDef `toml:"measured"`
}

type catalogDef struct {
	ThreadType string     `toml:"thread_type"`
	Colours    []entryDef `toml:"colours"`
}

type entryDef struct {
	Code int    `toml:"code"`
	Name string `toml:"name"`
	RGB  string `toml:"rgb"`
}

type crossRefDef struct {
	ThreadType string    `toml:"thread_type"`
	Codes      []pairDef `toml:"codes"`
}

type pairDef struct {
	Internal int32 `toml:"internal"`
	Code     int   `toml:"code"`
}

type measuredDef struct {
	Internal int32  `toml:"internal"`
	Name     string `toml:"name"`
	RGB      string `toml:"rgb"`
}

// Load parses catalog data and builds a resolver from it.
func Load(r io.Reader) (*Resolver, error) {
	var f dataFile
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse colour catalogs")
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unknown catalog key %q", keys[0].String())
	}

	catalogs := make([]Catalog, 0, len(f.Catalogs))
	for _, c := range f.Catalogs {
		if c.ThreadType == "" {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "catalog without thread_type")
		}
		cat := Catalog{ThreadType: c.ThreadType, Entries: make(map[int]Entry, len(c.Colours))}
		for _, e := range c.Colours {
			rgb, err := ParseRGB(e.RGB)
			if err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "%s code %d", c.ThreadType, e.Code)
			}
			cat.Entries[e.Code] = Entry{Name: e.Name, RGB: rgb}
		}
		catalogs = append(catalogs, cat)
	}

	xref := CrossRef{Order: f.Order, Pairs: make(map[string][]Pair, len(f.CrossRef))}
	for _, x := range f.CrossRef {
		for _, p := range x.Codes {
			xref.Pairs[x.ThreadType] = append(xref.Pairs[x.ThreadType], Pair{Internal: p.Internal, Code: p.Code})
		}
	}

	measured := make(map[int32]Entry, len(f.Measured))
	for _, m := range f.Measured {
		rgb, err := ParseRGB(m.RGB)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "measured colour 0x%02x", m.Internal)
		}
		measured[m.Internal] = Entry{Name: m.Name, RGB: rgb}
	}

	return NewResolver(catalogs, xref, measured), nil
}

// LoadFile reads catalog data from path.
func LoadFile(path string) (*Resolver, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "colour catalogs %s", path)
		}
		return nil, errs.Wrap(errs.ErrCodeIO, err, "open colour catalogs %s", path)
	}
	defer f.Close()
	return Load(f)
}
