package errdef

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestWrapKeepsChain(t *testing.T) {
	err := Wrap(CodeFilesystem, fs.ErrNotExist, "read %s", "main.ems")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected wrapped error to match fs.ErrNotExist")
	}
	if CodeOf(err) != CodeFilesystem {
		t.Fatalf("unexpected code %q", CodeOf(err))
	}
	if err.Error() != "read main.ems: file does not exist" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if Message(err) != "read main.ems" {
		t.Fatalf("unexpected short message %q", Message(err))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(CodeConfig, nil, "noop") != nil {
		t.Fatalf("expected nil")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if CodeOf(errors.New("boom")) != CodeUnknown {
		t.Fatalf("expected unknown code")
	}
	outer := fmt.Errorf("outer: %w", New(CodeParse, "bad token"))
	if CodeOf(outer) != CodeParse {
		t.Fatalf("expected parse code through fmt wrapping")
	}
	if Message(outer) != "bad token" {
		t.Fatalf("unexpected message %q", Message(outer))
	}
}
