package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred Predicate
		in   string
		want bool
	}{
		{"internal", InternalImport, "vetclinic/internal/core", true},
		{"internal root", InternalImport, "vetclinic/internal", true},
		{"internal public", InternalImport, "vetclinic/pkg/examination", false},
		{"domain", DomainImport, "vetclinic/pkg/domain", true},
		{"domain versioned", DomainImport, "example.com/x/pkg/domain@v1", true},
		{"domain lookalike", DomainImport, "vetclinic/pkg/domainx", false},
		{"aws", CloudSDKImport, "github.com/aws/aws-sdk-go-v2/service/s3", true},
		{"aws other", CloudSDKImport, "github.com/google/uuid", false},
		{"pgx", DatabaseDriverImport, "github.com/jackc/pgx/v5/stdlib", true},
		{"sqlite", DatabaseDriverImport, "modernc.org/sqlite", true},
		{"database/sql", DatabaseDriverImport, "database/sql", false},
	}
	for _, tc := range cases {
		if got := tc.pred(tc.in); got != tc.want {
			t.Fatalf("%s: pred(%q)=%v want %v", tc.name, tc.in, got, tc.want)
		}
	}
	either := AnyOf(CloudSDKImport, DatabaseDriverImport)
	if !either("modernc.org/sqlite") || !either("github.com/aws/smithy-go") || either("fmt") {
		t.Fatalf("AnyOf did not combine predicates")
	}
	if AnyOf()("anything") {
		t.Fatalf("empty AnyOf must match nothing")
	}
}

type recordingT struct {
	msg string
}

func (r *recordingT) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "ok.go", "package tmp\nimport \"fmt\"\nfunc X() { fmt.Println(1) }\n")
	writeGo(t, dir, "bad.go", "package tmp\nimport _ \"modernc.org/sqlite\"\n")
	writeGo(t, dir, "bad_test.go", "package tmp\nimport _ \"github.com/jackc/pgx/v5/stdlib\"\n")
	writeGo(t, dir, "notes.txt", "import \"github.com/jackc/pgx/v5\"")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeGo(t, filepath.Join(dir, "sub"), "sub.go", "package sub\nimport _ \"github.com/jackc/pgx/v5/stdlib\"\n")

	viols, err := directImportViolations(dir, DatabaseDriverImport)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "modernc.org/sqlite (in bad.go)" {
		t.Fatalf("unexpected violations %v", viols)
	}

	AssertNoDirectImports(t, dir, CloudSDKImport, "no aws here")
}

func TestDirectImportErrors(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InternalImport); err == nil {
		t.Fatalf("expected error for missing dir")
	}
	dir := t.TempDir()
	writeGo(t, dir, "broken.go", "package tmp\nimport (\n")
	if _, err := directImportViolations(dir, InternalImport); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTransitiveDependencyViolations(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })

	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nvetclinic/pkg/examination\n\ngithub.com/aws/smithy-go\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", CloudSDKImport)
	if err != nil || len(viols) != 1 || viols[0] != "github.com/aws/smithy-go" {
		t.Fatalf("unexpected result %v %v", viols, err)
	}

	goListDeps = func(string) ([]byte, error) { return []byte("boom"), errors.New("exit 1") }
	if _, out, err := transitiveDependencyViolations("./...", CloudSDKImport); err == nil || string(out) != "boom" {
		t.Fatalf("expected go list failure to propagate")
	}
}

func TestFailIfViolations(t *testing.T) {
	rec := &recordingT{}
	failIfViolations(rec, "forbidden direct imports", "reason", nil)
	if rec.msg != "" {
		t.Fatalf("no violations must not fail")
	}
	failIfViolations(rec, "forbidden direct imports", "keep drivers in infra", []string{"a", "b"})
	if !strings.Contains(rec.msg, "keep drivers in infra") || !strings.HasSuffix(rec.msg, "a\nb") {
		t.Fatalf("unexpected failure message %q", rec.msg)
	}
}
