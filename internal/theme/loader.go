package theme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	toml "github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v4"
)

const (
	DefaultKey = "default"
	PlainKey   = "plain"
)

var builtinKeys = []string{DefaultKey, PlainKey}

// Entry is a named theme. A theme file whose key matches a builtin
// replaces that builtin.
type Entry struct {
	Key     string
	Name    string
	Meta    Metadata
	Theme   Theme
	Builtin bool
	Path    string
}

type Catalog struct {
	entries map[string]Entry
}

// Builtins returns a catalog holding only the compiled-in themes.
func Builtins() Catalog {
	return Catalog{entries: map[string]Entry{
		DefaultKey: {Key: DefaultKey, Name: "Default", Theme: DefaultTheme(), Builtin: true},
		PlainKey: {
			Key:     PlainKey,
			Name:    "Plain",
			Meta:    Metadata{Description: "No colours"},
			Theme:   Plain(),
			Builtin: true,
		},
	}}
}

func (c Catalog) Get(key string) (Entry, bool) {
	e, ok := c.entries[normKey(key)]
	return e, ok
}

// Keys lists the builtin slots first, then file themes by key.
func (c Catalog) Keys() []string {
	var user []string
	for k := range c.entries {
		if !slices.Contains(builtinKeys, k) {
			user = append(user, k)
		}
	}
	slices.Sort(user)
	return append(slices.Clone(builtinKeys), user...)
}

// Resolve returns the theme for key, or the default theme when key is
// blank or unknown.
func (c Catalog) Resolve(key string) Theme {
	if e, ok := c.Get(key); ok {
		return e.Theme
	}
	if e, ok := c.entries[DefaultKey]; ok {
		return e.Theme
	}
	return DefaultTheme()
}

var decoders = map[string]func([]byte, *ThemeSpec) error{
	".toml": func(data []byte, spec *ThemeSpec) error { return toml.Unmarshal(data, spec) },
	".yaml": func(data []byte, spec *ThemeSpec) error { return yaml.Unmarshal(data, spec) },
	".yml":  func(data []byte, spec *ThemeSpec) error { return yaml.Unmarshal(data, spec) },
	".json": func(data []byte, spec *ThemeSpec) error {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(spec)
	},
}

type themeFile struct {
	path string
	spec ThemeSpec
}

// LoadCatalog layers every theme file in dir over the builtins. A theme is
// keyed by its file name, so "Night Owl.yaml" is selected as night-owl.
// Broken files are skipped and reported together; the catalog is always
// usable.
func LoadCatalog(dir string) (Catalog, error) {
	cat := Builtins()
	if strings.TrimSpace(dir) == "" {
		return cat, nil
	}
	ents, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return cat, nil
	}
	if err != nil {
		return cat, fmt.Errorf("themes: read %s: %w", dir, err)
	}

	var errs error
	files := make(map[string]themeFile)
	for _, de := range ents {
		dec, ok := decoders[strings.ToLower(filepath.Ext(de.Name()))]
		if de.IsDir() || !ok {
			continue
		}
		path := filepath.Join(dir, de.Name())
		key := fileKey(de.Name())
		if prev, dup := files[key]; dup {
			errs = errors.Join(errs, fmt.Errorf(
				"themes: %s: key %q already defined by %s",
				path, key, filepath.Base(prev.path),
			))
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("themes: %w", err))
			continue
		}
		var spec ThemeSpec
		if err := dec(data, &spec); err != nil {
			errs = errors.Join(errs, fmt.Errorf("themes: %s: %w", path, err))
			continue
		}
		files[key] = themeFile{path: path, spec: spec}
	}

	ld := &loader{cat: cat, files: files, done: make(map[string]error)}
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := ld.build(k, nil); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return cat, errs
}

type loader struct {
	cat   Catalog
	files map[string]themeFile
	done  map[string]error
}

// build registers key after its base. chain holds the keys being built
// above it, to catch extends cycles.
func (l *loader) build(key string, chain []string) error {
	if err, ok := l.done[key]; ok {
		return err
	}
	f, ok := l.files[key]
	if !ok {
		if _, ok := l.cat.entries[key]; ok {
			return nil
		}
		return fmt.Errorf("unknown theme %q", key)
	}
	if slices.Contains(chain, key) {
		return fmt.Errorf("extends cycle %s", strings.Join(append(chain, key), " -> "))
	}

	th, err := l.base(key, f, chain)
	if err == nil {
		th, err = ApplySpec(th, f.spec)
	}
	if err != nil {
		err = fmt.Errorf("themes: %s: %w", f.path, err)
		l.done[key] = err
		return err
	}

	meta := Metadata{}
	if f.spec.Metadata != nil {
		meta = *f.spec.Metadata
	}
	name := strings.TrimSpace(meta.Name)
	if name == "" {
		name = titleKey(key)
	}
	l.cat.entries[key] = Entry{Key: key, Name: name, Meta: meta, Theme: th, Path: f.path}
	l.done[key] = nil
	return nil
}

func (l *loader) base(key string, f themeFile, chain []string) (Theme, error) {
	bk := normKey(f.spec.Extends)
	if bk == "" {
		bk = DefaultKey
	}
	if bk == key {
		switch key {
		case DefaultKey:
			return DefaultTheme(), nil
		case PlainKey:
			return Plain(), nil
		}
		return Theme{}, fmt.Errorf("theme %q extends itself", key)
	}
	if err := l.build(bk, append(chain, key)); err != nil {
		return Theme{}, fmt.Errorf("extends %q: %w", bk, err)
	}
	return l.cat.entries[bk].Theme, nil
}

func normKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func fileKey(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.FieldsFunc(strings.ToLower(stem), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(parts) == 0 {
		return "theme"
	}
	return strings.Join(parts, "-")
}

func titleKey(key string) string {
	parts := strings.Split(key, "-")
	for i, p := range parts {
		if r, n := utf8.DecodeRuneInString(p); n > 0 {
			parts[i] = string(unicode.ToUpper(r)) + p[n:]
		}
	}
	return strings.Join(parts, " ")
}
