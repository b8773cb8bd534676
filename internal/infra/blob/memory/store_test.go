package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"usercore/internal/blob/core"
)

func TestStore_MissingHeadGet(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected delete false, got %v %v", ok, err)
	}
}

func TestStore_PutGetListDelete(t *testing.T) {
	store := New()
	ctx := context.Background()
	meta := map[string]string{"a": "1"}
	info, err := store.Put(ctx, "fixtures/users.json", bytes.NewReader([]byte("[]")), core.PutOptions{ContentType: "application/json", Metadata: meta})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["a"] = "mutated"
	if info.Size != 2 || info.ETag == "" || store.Driver() != core.DriverMemory {
		t.Fatalf("unexpected info %+v", info)
	}
	head, err := store.Head(ctx, "fixtures/users.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Metadata["a"] != "1" || head.ContentType != "application/json" {
		t.Fatalf("metadata not isolated: %+v", head)
	}
	_, rc, err := store.Get(ctx, "fixtures/users.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "[]" {
		t.Fatalf("unexpected body %q", body)
	}
	if _, err := store.Put(ctx, "other.json", bytes.NewReader(nil), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}
	if list, err := store.List(ctx, "fixtures/"); err != nil || len(list) != 1 {
		t.Fatalf("list prefix: %v %d", err, len(list))
	}
	if list, err := store.List(ctx, ""); err != nil || len(list) != 2 || list[0].Key != "fixtures/users.json" {
		t.Fatalf("list all: %v %+v", err, list)
	}
	if ok, err := store.Delete(ctx, "fixtures/users.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
}

func TestStore_PutOverwrite(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v1")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v2")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v2")), core.PutOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, _ := store.Get(ctx, "k")
	body, _ := io.ReadAll(rc)
	if string(body) != "v2" {
		t.Fatalf("expected overwritten body, got %q", body)
	}
}

func TestStore_InvalidInput(t *testing.T) {
	store := New()
	if _, err := store.Put(context.Background(), " ", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Put(ctx, "k", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if _, _, err := store.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled get, got %v", err)
	}
	if _, err := store.Head(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled head, got %v", err)
	}
}
