package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"vetclinic/internal/blob/core"
)

func TestStorePutGetListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	info, err := s.Put(ctx, "examinations/a/r000001-create.json", bytes.NewReader([]byte(`{}`)), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"action": "create"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 2 || info.Metadata["action"] != "create" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "examinations/a/r000001-create.json", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := s.Put(ctx, "examinations/b/r000001-create.json", bytes.NewReader([]byte(`[]`)), core.PutOptions{}); err != nil {
		t.Fatalf("put b: %v", err)
	}

	got, rc, err := s.Get(ctx, "examinations/a/r000001-create.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "{}" || got.ContentType != "application/json" {
		t.Fatalf("unexpected object %q %+v", body, got)
	}

	list, err := s.List(ctx, "examinations/a/")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 2 || all[0].Key > all[1].Key {
		t.Fatalf("expected two keys in order, got %+v", all)
	}

	if ok, err := s.Delete(ctx, "examinations/a/r000001-create.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, _ := s.Delete(ctx, "examinations/a/r000001-create.json"); ok {
		t.Fatalf("second delete should report false")
	}
	if _, _, err := s.Get(ctx, "examinations/a/r000001-create.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreMetadataIsCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	meta := map[string]string{"k": "v"}
	if _, err := s.Put(ctx, "k", bytes.NewReader(nil), core.PutOptions{Metadata: meta}); err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["k"] = "changed"
	info, rc, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = rc.Close()
	if info.Metadata["k"] != "v" {
		t.Fatalf("metadata aliased caller map: %v", info.Metadata)
	}
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
}
