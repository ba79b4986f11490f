package config

import "testing"

func TestNormaliseLimits(t *testing.T) {
	got := NormaliseLimits(LimitSettings{})
	if got != DefaultLimitSettings() {
		t.Fatalf("zero limits should become defaults, got %+v", got)
	}

	got = NormaliseLimits(LimitSettings{MaxSteps: 1, MaxDepth: 1 << 30, TimeoutMS: -5})
	if got.MaxSteps != LimitMaxStepsMin {
		t.Fatalf("expected max steps clamp to %d, got %d", LimitMaxStepsMin, got.MaxSteps)
	}
	if got.MaxDepth != LimitMaxDepthMax {
		t.Fatalf("expected max depth clamp to %d, got %d", LimitMaxDepthMax, got.MaxDepth)
	}
	if got.TimeoutMS != 0 {
		t.Fatalf("negative timeout should disable, got %d", got.TimeoutMS)
	}

	got = NormaliseLimits(LimitSettings{TimeoutMS: LimitTimeoutMax * 2})
	if got.TimeoutMS != LimitTimeoutMax {
		t.Fatalf("expected timeout clamp, got %d", got.TimeoutMS)
	}
}

func TestNormaliseHistoryBackend(t *testing.T) {
	cases := map[HistoryBackend]HistoryBackend{
		"":         HistoryBackendJSON,
		"json":     HistoryBackendJSON,
		" sqlite ": HistoryBackendSQLite,
		"redis":    HistoryBackendJSON,
	}
	for in, want := range cases {
		if got := NormaliseHistory(HistorySettings{Backend: in}).Backend; got != want {
			t.Fatalf("backend %q: got %q, want %q", in, got, want)
		}
	}
}

func TestNormalisePlayground(t *testing.T) {
	got := NormalisePlayground(PlaygroundSettings{Addr: "  ", MaxConns: -1})
	if got.Addr != PlaygroundAddrDefault {
		t.Fatalf("unexpected addr %q", got.Addr)
	}
	if got.MaxConns != PlaygroundMaxConnsMin {
		t.Fatalf("unexpected max conns %d", got.MaxConns)
	}
}
