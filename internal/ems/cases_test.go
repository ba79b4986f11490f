package ems

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

type evalCase struct {
	Name  string `yaml:"name"`
	Src   string `yaml:"src"`
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

func loadEvalCases(t *testing.T) []evalCase {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "eval_cases.yaml"))
	if err != nil {
		t.Fatalf("read cases: %v", err)
	}
	var cases []evalCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		t.Fatalf("decode cases: %v", err)
	}
	if len(cases) == 0 {
		t.Fatalf("no cases loaded")
	}
	return cases
}

func TestEvalCases(t *testing.T) {
	for _, tc := range loadEvalCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			v, _ := evalSrc(t, tc.Src)
			if v.TypeName() != tc.Kind {
				t.Fatalf("kind: got %s (%s), want %s", v.TypeName(), v, tc.Kind)
			}
			got := v.String()
			if v.IsError() {
				got = v.Msg
			}
			if got != tc.Value {
				t.Fatalf("value: got %q, want %q", got, tc.Value)
			}
		})
	}
}
