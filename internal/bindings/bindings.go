package bindings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v4"
)

// Format identifies the serialization format for key binding configs.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Source describes where the bindings config was loaded from.
type Source struct {
	Path   string
	Format Format
}

// ActionID identifies a prompt action.
type ActionID string

const (
	ActionRun         ActionID = "run"
	ActionHistoryPrev ActionID = "history_prev"
	ActionHistoryNext ActionID = "history_next"
	ActionClear       ActionID = "clear"
	ActionCopyResult  ActionID = "copy_result"
	ActionHelp        ActionID = "help"
	ActionQuit        ActionID = "quit"
)

type definition struct {
	id       ActionID
	defaults []string
}

var definitions = []definition{
	{id: ActionRun, defaults: []string{"enter"}},
	{id: ActionHistoryPrev, defaults: []string{"up", "ctrl+p"}},
	{id: ActionHistoryNext, defaults: []string{"down", "ctrl+n"}},
	{id: ActionClear, defaults: []string{"ctrl+l"}},
	{id: ActionCopyResult, defaults: []string{"ctrl+y"}},
	{id: ActionHelp, defaults: []string{"f1"}},
	{id: ActionQuit, defaults: []string{"ctrl+c", "ctrl+d", "esc"}},
}

var definitionLookup = func() map[ActionID]definition {
	out := make(map[ActionID]definition, len(definitions))
	for _, def := range definitions {
		out[def.id] = def
	}
	return out
}()

// Map resolves key strings to actions.
type Map struct {
	keys    map[string]ActionID
	actions map[ActionID][]string
}

// Load reads bindings.toml, bindings.yaml or bindings.json from dir. Actions
// the file does not mention keep their defaults; a missing file means all
// defaults.
func Load(dir string) (*Map, Source, error) {
	candidates := []Source{
		{Path: filepath.Join(dir, "bindings.toml"), Format: FormatTOML},
		{Path: filepath.Join(dir, "bindings.yaml"), Format: FormatYAML},
		{Path: filepath.Join(dir, "bindings.json"), Format: FormatJSON},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read bindings %q: %w", candidate.Path, err),
			)
			continue
		}

		overrides, err := parseConfig(data, candidate.Format)
		if err != nil {
			return nil, Source{}, fmt.Errorf("parse bindings %q: %w", candidate.Path, err)
		}
		built, err := buildMap(overrides)
		if err != nil {
			return nil, Source{}, fmt.Errorf("apply bindings %q: %w", candidate.Path, err)
		}
		return built, candidate, nil
	}

	if accumulated != nil {
		return nil, Source{}, accumulated
	}
	return DefaultMap(), Source{Path: candidates[0].Path, Format: FormatTOML}, nil
}

// DefaultMap builds the built-in bindings without consulting disk.
func DefaultMap() *Map {
	m, err := buildMap(nil)
	if err != nil {
		panic(err)
	}
	return m
}

// Match returns the action bound to key, in bubbletea's key string form.
func (m *Map) Match(key string) (ActionID, bool) {
	if m == nil {
		return "", false
	}
	id, ok := m.keys[NormalizeKeyString(key)]
	return id, ok
}

// Keys returns the keys bound to action in configuration order.
func (m *Map) Keys(action ActionID) []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.actions[action]...)
}

type configFile struct {
	Bindings map[string][]string `json:"bindings" toml:"bindings" yaml:"bindings"`
}

func parseConfig(data []byte, format Format) (map[ActionID][]string, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var payload configFile
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	overrides := make(map[ActionID][]string, len(payload.Bindings))
	for key, specs := range payload.Bindings {
		id := ActionID(key)
		if _, ok := definitionLookup[id]; !ok {
			return nil, fmt.Errorf("unknown action %q", key)
		}
		keys := make([]string, 0, len(specs))
		for _, spec := range specs {
			step, err := normalizeStep(spec)
			if err != nil {
				return nil, fmt.Errorf("action %q: %w", key, err)
			}
			keys = append(keys, step)
		}
		overrides[id] = keys
	}
	return overrides, nil
}

func buildMap(overrides map[ActionID][]string) (*Map, error) {
	m := &Map{
		keys:    make(map[string]ActionID),
		actions: make(map[ActionID][]string, len(definitions)),
	}
	for _, def := range definitions {
		keys := def.defaults
		if o, ok := overrides[def.id]; ok {
			keys = o
		}
		for _, key := range keys {
			if existing, ok := m.keys[key]; ok {
				if existing == def.id {
					return nil, fmt.Errorf("action %s: duplicate binding %q", def.id, key)
				}
				return nil, fmt.Errorf(
					"binding %q assigned to both %s and %s",
					key,
					existing,
					def.id,
				)
			}
			m.keys[key] = def.id
			m.actions[def.id] = append(m.actions[def.id], key)
		}
	}
	if len(m.actions[ActionQuit]) == 0 {
		return nil, errors.New("action quit needs at least one binding")
	}
	return m, nil
}

func normalizeStep(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty key")
	}
	if strings.ContainsAny(raw, " \t") {
		return "", fmt.Errorf("binding %q: key sequences are not supported", raw)
	}

	runes := []rune(raw)
	if len(runes) == 1 {
		r := runes[0]
		if unicode.IsLetter(r) && unicode.IsUpper(r) {
			return "shift+" + strings.ToLower(raw), nil
		}
		return strings.ToLower(raw), nil
	}
	if !strings.Contains(raw, "+") {
		return strings.ToLower(raw), nil
	}

	var keyParts []string
	modSet := make(map[string]struct{})
	for _, part := range strings.Split(raw, "+") {
		lower := strings.ToLower(strings.TrimSpace(part))
		switch lower {
		case "":
			continue
		case "ctrl", "control":
			modSet["ctrl"] = struct{}{}
		case "alt", "option":
			modSet["alt"] = struct{}{}
		case "shift":
			modSet["shift"] = struct{}{}
		default:
			keyParts = append(keyParts, lower)
		}
	}
	if len(keyParts) == 0 {
		return "", fmt.Errorf("binding %q missing key", raw)
	}
	key := strings.Join(keyParts, "+")
	mods := orderedModifiers(modSet)
	if len(mods) == 0 {
		return key, nil
	}
	return strings.Join(append(mods, key), "+"), nil
}

func orderedModifiers(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for _, mod := range []string{"ctrl", "alt", "shift"} {
		if _, ok := set[mod]; ok {
			out = append(out, mod)
		}
	}
	return out
}

// NormalizeKeyString converts a runtime key string into canonical form.
func NormalizeKeyString(raw string) string {
	normalized, err := normalizeStep(raw)
	if err != nil {
		return ""
	}
	return normalized
}

// KnownActions returns the sorted list of action identifiers.
func KnownActions() []ActionID {
	ids := make([]ActionID, 0, len(definitions))
	for _, def := range definitions {
		ids = append(ids, def.id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
