package ems

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestEngineRunCollectsDiagnostics(t *testing.T) {
	var out bytes.Buffer
	eng := NewEng()
	eng.Out = &out

	res, err := eng.Run(context.Background(), "main.ems", []byte("var = 1\nprint(2)\n3"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", res.Diags)
	}
	if res.Diags[0].Pos.Path != "main.ems" || res.Diags[0].Pos.Line != 1 {
		t.Fatalf("unexpected position %s", res.Diags[0].Pos)
	}
	if !res.Value.Equal(Num(3)) {
		t.Fatalf("got %s", res.Value)
	}
	if out.String() != "2\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if res.Steps == 0 {
		t.Fatalf("expected steps to be counted")
	}
}

func TestEngineRunIllegalToken(t *testing.T) {
	var out bytes.Buffer
	eng := NewEng()
	eng.Out = &out

	res, err := eng.Run(context.Background(), "main.ems", []byte("print(1)\n1 ? 2\n"))
	var ill *IllegalTokenError
	if !errors.As(err, &ill) {
		t.Fatalf("expected illegal token error, got %v", err)
	}
	if res == nil || res.Value.K != ONone {
		t.Fatalf("expected none result, got %+v", res)
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should run, got %q", out.String())
	}
}

func TestEngineLimits(t *testing.T) {
	eng := NewEng()
	eng.Out = nil
	eng.Lim = Limits{MaxSteps: 3}

	_, err := eng.Run(context.Background(), "", []byte("1\n2\n3\n4\n5"))
	if !IsAbort(err) {
		t.Fatalf("expected abort, got %v", err)
	}
}

func TestEngineDepthLimit(t *testing.T) {
	eng := NewEng()
	eng.Lim = Limits{MaxDepth: 4}

	_, err := eng.Run(context.Background(), "", []byte("{ { { { { 1 } } } } }"))
	if !IsAbort(err) {
		t.Fatalf("expected abort, got %v", err)
	}
}

func TestNilEngine(t *testing.T) {
	var eng *Eng
	if _, err := eng.Run(context.Background(), "", nil); err == nil {
		t.Fatalf("expected error")
	}
}
