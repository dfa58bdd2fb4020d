package openapi

import (
	"bytes"
	"os"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestSpecReturnsCopyAndMatchesFile(t *testing.T) {
	want, err := os.ReadFile("examinations.yaml")
	if err != nil {
		t.Fatalf("read examinations.yaml: %v", err)
	}
	spec := Spec()
	if !bytes.Equal(spec, want) {
		t.Fatalf("Spec does not match embedded contents")
	}
	spec[0] ^= 0xFF
	if !bytes.Equal(Spec(), want) {
		t.Fatalf("Spec mutation leaked into embedded content")
	}
}

func TestSpecDeclaresEveryRoute(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]any `yaml:"paths"`
	}
	if err := yaml.Unmarshal(Spec(), &doc); err != nil {
		t.Fatalf("parse spec: %v", err)
	}
	var got []string
	for path, item := range doc.Paths {
		for method := range item {
			if method == "parameters" {
				continue
			}
			got = append(got, method+" "+path)
		}
	}
	sort.Strings(got)
	want := []string{
		"get /api/v1/examinations",
		"get /api/v1/examinations/{id}",
		"get /api/v1/examinations/{id}/history",
		"post /api/v1/examinations",
		"put /api/v1/examinations/{id}",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
}
