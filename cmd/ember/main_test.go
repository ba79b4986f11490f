package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unkn0wn-root/ember/internal/telemetry"
)

func telemetryConfig() telemetry.Config {
	return telemetry.ConfigFromEnv(func(string) string { return "" })
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-theme", "plain"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("EMBER_CONFIG_DIR", dir)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("EMBER_OTEL_ENDPOINT", "")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunExpression(t *testing.T) {
	setupCLI(t)
	code, out, errOut := runCLI(t, "", "-no-history", "-e", "1 + 2 * 3")
	if code != exitOK {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if out != "=> 7\n" {
		t.Fatalf("unexpected stdout %q", out)
	}
}

func TestRunErrorValueFails(t *testing.T) {
	setupCLI(t)
	code, out, errOut := runCLI(t, "", "-no-history", "-e", "true + 1")
	if code != exitFail {
		t.Fatalf("expected failure, got %d", code)
	}
	if out != "" || !strings.Contains(errOut, "error: Unknown operation") {
		t.Fatalf("unexpected output %q / %q", out, errOut)
	}
}

func TestRunIllegalTokenReportsPosition(t *testing.T) {
	setupCLI(t)
	code, _, errOut := runCLI(t, "", "-no-history", "-e", "1 ~ 2")
	if code != exitFatal {
		t.Fatalf("expected fatal exit, got %d", code)
	}
	if !strings.Contains(errOut, "error at: 1:3") {
		t.Fatalf("expected one-line diagnostic in %q", errOut)
	}
}

func TestRunFileRecordsHistory(t *testing.T) {
	dir := setupCLI(t)
	path := writeFile(t, dir, "main.ems", "print(1)\n1 + 1\n")

	code, out, errOut := runCLI(t, "", path)
	if code != exitOK {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if out != "1\n=> 2\n" {
		t.Fatalf("unexpected stdout %q", out)
	}

	code, out, errOut = runCLI(t, "", "-history", "5")
	if code != exitOK {
		t.Fatalf("history exit %d, stderr %q", code, errOut)
	}
	if !strings.Contains(out, "file") || !strings.Contains(out, "print(1) 1 + 1") {
		t.Fatalf("unexpected history listing:\n%s", out)
	}
}

func TestRunStdin(t *testing.T) {
	setupCLI(t)
	code, out, _ := runCLI(t, "if false { 1 } else { 2 }", "-no-history", "-")
	if code != exitOK || out != "=> 2\n" {
		t.Fatalf("unexpected result %d %q", code, out)
	}
}

func TestRunStdinWithoutFileArgument(t *testing.T) {
	setupCLI(t)
	code, out, _ := runCLI(t, "print(4)\n5", "-no-history")
	if code != exitOK || out != "4\n=> 5\n" {
		t.Fatalf("unexpected result %d %q", code, out)
	}
}

func TestExpect(t *testing.T) {
	dir := setupCLI(t)
	src := writeFile(t, dir, "main.ems", "print(1)\n2\n")
	good := writeFile(t, dir, "good.out", "1\n=> 2\n")
	bad := writeFile(t, dir, "bad.out", "1\n=> 3\n")

	code, out, _ := runCLI(t, "", "-no-history", "-expect", good, src)
	if code != exitOK || out != "ok\n" {
		t.Fatalf("unexpected match result %d %q", code, out)
	}

	code, out, _ = runCLI(t, "", "-no-history", "-expect", bad, src)
	if code != exitFail {
		t.Fatalf("expected mismatch, got %d", code)
	}
	if !strings.Contains(out, "-=> 3") || !strings.Contains(out, "+=> 2") {
		t.Fatalf("unexpected diff:\n%s", out)
	}
}

func TestInspectFlags(t *testing.T) {
	setupCLI(t)

	code, out, _ := runCLI(t, "", "-tokens", "-e", "a >= 1")
	if code != exitOK || !strings.Contains(out, "1:6  NUMBER 1") {
		t.Fatalf("unexpected tokens %d:\n%s", code, out)
	}

	code, out, _ = runCLI(t, "", "-ast", "-e", "1 + 2 * 3")
	if code != exitOK || strings.TrimSpace(out) != "(+ 1 (* 2 3))" {
		t.Fatalf("unexpected ast %d %q", code, out)
	}

	code, out, _ = runCLI(t, "", "-html", "-", "-e", "var a = 1")
	if code != exitOK || !strings.Contains(out, "<html") {
		t.Fatalf("unexpected html %d:\n%s", code, out)
	}

	code, out, _ = runCLI(t, "", "-highlight", "-e", "var a = 1 # note")
	if code != exitOK || strings.TrimSpace(out) != "var a = 1 # note" {
		t.Fatalf("unexpected highlight %d %q", code, out)
	}
}

func TestUsageErrors(t *testing.T) {
	setupCLI(t)
	cases := [][]string{
		{"-bogus"},
		{"a.ems", "b.ems"},
		{"-e", "1", "a.ems"},
		{"-watch"},
		{filepath.Join(t.TempDir(), "missing.ems")},
	}
	for _, args := range cases {
		if code, _, _ := runCLI(t, "", args...); code != exitFatal {
			t.Fatalf("%v: expected usage error, got %d", args, code)
		}
	}
}

func TestStepLimitOverride(t *testing.T) {
	setupCLI(t)
	src := strings.Repeat("1 + 1\n", 200)
	code, _, errOut := runCLI(t, "", "-no-history", "-max-steps", "100", "-e", src)
	if code != exitFatal || !strings.Contains(errOut, "aborted:") {
		t.Fatalf("expected abort, got %d %q", code, errOut)
	}
}

func TestVersion(t *testing.T) {
	setupCLI(t)
	code, out, _ := runCLI(t, "", "-version")
	if code != exitOK || !strings.HasPrefix(out, "ember dev") {
		t.Fatalf("unexpected version output %d %q", code, out)
	}
}

func TestCheckDirectory(t *testing.T) {
	setupCLI(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.ems", "print(1)\n2\n")
	writeFile(t, dir, "a.out", "1\n=> 2\n")
	writeFile(t, dir, "b.ems", "3\n")
	writeFile(t, dir, "b.out", "=> 4\n")
	writeFile(t, dir, "c.ems", "5\n")

	code, out, _ := runCLI(t, "", "-check", dir)
	if code != exitFail {
		t.Fatalf("expected failure, got %d:\n%s", code, out)
	}
	for _, want := range []string{"PASS a.ems", "FAIL b.ems", "+=> 3", "SKIP c.ems", "1 passed, 1 failed, 1 skipped"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestServeFlag(t *testing.T) {
	var f serveFlag
	if err := f.Set("true"); err != nil || !f.on || f.addr != "" {
		t.Fatalf("unexpected flag %+v", f)
	}
	if err := f.Set(":9000"); err != nil || !f.on || f.String() != ":9000" {
		t.Fatalf("unexpected flag %+v", f)
	}
	if err := f.Set("false"); err != nil || f.on {
		t.Fatalf("unexpected flag %+v", f)
	}

	opts, err := parseArgs([]string{"-serve=127.0.0.1:0"}, telemetryConfig(), io.Discard)
	if err != nil || !opts.serve.on || opts.serve.addr != "127.0.0.1:0" {
		t.Fatalf("unexpected options %+v, err %v", opts.serve, err)
	}
}
