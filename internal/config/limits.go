package config

import (
	"strings"
	"time"

	"github.com/unkn0wn-root/ember/internal/ems"
)

type HistoryBackend string

const (
	HistoryBackendJSON   HistoryBackend = "json"
	HistoryBackendSQLite HistoryBackend = "sqlite"
)

type LimitSettings struct {
	MaxSteps  int   `json:"max_steps"  toml:"max_steps"  yaml:"max_steps"`
	MaxDepth  int   `json:"max_depth"  toml:"max_depth"  yaml:"max_depth"`
	TimeoutMS int64 `json:"timeout_ms" toml:"timeout_ms" yaml:"timeout_ms"`
}

type HistorySettings struct {
	Enabled    *bool          `json:"enabled,omitempty" toml:"enabled,omitempty" yaml:"enabled,omitempty"`
	Backend    HistoryBackend `json:"backend"           toml:"backend"           yaml:"backend"`
	MaxEntries int            `json:"max_entries"       toml:"max_entries"       yaml:"max_entries"`
	Path       string         `json:"path,omitempty"    toml:"path,omitempty"    yaml:"path,omitempty"`
}

type PlaygroundSettings struct {
	Addr     string `json:"addr"      toml:"addr"      yaml:"addr"`
	MaxConns int    `json:"max_conns" toml:"max_conns" yaml:"max_conns"`
}

const (
	LimitMaxStepsDefault = 100000
	LimitMaxStepsMin     = 100
	LimitMaxStepsMax     = 50000000
	LimitMaxDepthDefault = 256
	LimitMaxDepthMin     = 16
	LimitMaxDepthMax     = 10000
	LimitTimeoutMax      = int64(10 * time.Minute / time.Millisecond)

	HistoryMaxEntriesDefault = 500
	HistoryMaxEntriesMin     = 10
	HistoryMaxEntriesMax     = 100000

	PlaygroundAddrDefault     = "127.0.0.1:7420"
	PlaygroundMaxConnsDefault = 64
	PlaygroundMaxConnsMin     = 1
	PlaygroundMaxConnsMax     = 4096
)

func DefaultLimitSettings() LimitSettings {
	return LimitSettings{
		MaxSteps: LimitMaxStepsDefault,
		MaxDepth: LimitMaxDepthDefault,
	}
}

// NormaliseLimits clamps each limit into its allowed range. Zero means
// "use the default" except for the timeout, where zero disables it.
func NormaliseLimits(in LimitSettings) LimitSettings {
	out := DefaultLimitSettings()
	out.MaxSteps = clampNum(in.MaxSteps, LimitMaxStepsMin, LimitMaxStepsMax, LimitMaxStepsDefault)
	out.MaxDepth = clampNum(in.MaxDepth, LimitMaxDepthMin, LimitMaxDepthMax, LimitMaxDepthDefault)
	switch {
	case in.TimeoutMS < 0:
		out.TimeoutMS = 0
	case in.TimeoutMS > LimitTimeoutMax:
		out.TimeoutMS = LimitTimeoutMax
	default:
		out.TimeoutMS = in.TimeoutMS
	}
	return out
}

func (l LimitSettings) Engine() ems.Limits {
	return ems.Limits{
		MaxSteps: l.MaxSteps,
		MaxDepth: l.MaxDepth,
		Timeout:  time.Duration(l.TimeoutMS) * time.Millisecond,
	}
}

func DefaultHistorySettings() HistorySettings {
	return HistorySettings{
		Backend:    HistoryBackendJSON,
		MaxEntries: HistoryMaxEntriesDefault,
	}
}

func NormaliseHistory(in HistorySettings) HistorySettings {
	out := DefaultHistorySettings()
	out.Enabled = in.Enabled
	out.MaxEntries = clampNum(
		in.MaxEntries,
		HistoryMaxEntriesMin,
		HistoryMaxEntriesMax,
		HistoryMaxEntriesDefault,
	)
	out.Path = strings.TrimSpace(in.Path)
	switch HistoryBackend(strings.ToLower(strings.TrimSpace(string(in.Backend)))) {
	case HistoryBackendSQLite:
		out.Backend = HistoryBackendSQLite
	default:
		out.Backend = HistoryBackendJSON
	}
	return out
}

// On reports whether history recording is enabled; it defaults to true.
func (h HistorySettings) On() bool {
	return h.Enabled == nil || *h.Enabled
}

func DefaultPlaygroundSettings() PlaygroundSettings {
	return PlaygroundSettings{
		Addr:     PlaygroundAddrDefault,
		MaxConns: PlaygroundMaxConnsDefault,
	}
}

func NormalisePlayground(in PlaygroundSettings) PlaygroundSettings {
	out := DefaultPlaygroundSettings()
	if addr := strings.TrimSpace(in.Addr); addr != "" {
		out.Addr = addr
	}
	out.MaxConns = clampNum(
		in.MaxConns,
		PlaygroundMaxConnsMin,
		PlaygroundMaxConnsMax,
		PlaygroundMaxConnsDefault,
	)
	return out
}

func clampNum[T ~int | ~int64 | ~float64](value, min, max, fallback T) T {
	if value == 0 {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
