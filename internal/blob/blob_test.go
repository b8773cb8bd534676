package blob

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"usercore/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		cfg    config.Blob
		driver Driver
	}{
		{name: "default is filesystem", cfg: config.Blob{FSRoot: t.TempDir()}, driver: DriverFilesystem},
		{name: "filesystem", cfg: config.Blob{Driver: "fs", FSRoot: t.TempDir()}, driver: DriverFilesystem},
		{name: "memory", cfg: config.Blob{Driver: "memory"}, driver: DriverMemory},
		{name: "s3", cfg: config.Blob{Driver: "s3", S3: config.S3{Bucket: "fixtures", Region: "eu-west-1", Endpoint: "http://localhost:9000", PathStyle: true}}, driver: DriverS3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if store.Driver() != tc.driver {
				t.Fatalf("expected %s, got %s", tc.driver, store.Driver())
			}
		})
	}
}

func TestOpenS3UsesConfiguredCredentials(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.Blob{Driver: "s3", S3: config.S3{
		Bucket:          "fixtures",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		SessionToken:    "token",
	}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s3Store, ok := store.(*infraS3.Store)
	if !ok {
		t.Fatalf("expected *s3.Store, got %T", store)
	}
	creds, err := s3Store.Credentials(ctx)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds.AccessKeyID != "minio" || creds.SecretAccessKey != "minio-secret" || creds.SessionToken != "token" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, config.Blob{Driver: "gcs"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := Open(ctx, config.Blob{Driver: "s3"}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestStoresShareSemantics(t *testing.T) {
	ctx := context.Background()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	stores := map[string]Store{
		"fs":     fsStore,
		"memory": NewMemory(),
		"s3":     NewS3MockForTests(),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Put(ctx, "fixtures/a.json", bytes.NewReader([]byte("[]")), PutOptions{ContentType: "application/json"}); err != nil {
				t.Fatalf("put: %v", err)
			}
			if _, err := store.Put(ctx, "fixtures/a.json", bytes.NewReader([]byte("[]")), PutOptions{}); !errors.Is(err, ErrExists) {
				t.Fatalf("expected ErrExists, got %v", err)
			}
			if _, err := store.Head(ctx, "fixtures/missing.json"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			list, err := store.List(ctx, "fixtures/")
			if err != nil || len(list) != 1 || list[0].Key != "fixtures/a.json" {
				t.Fatalf("list: %v %+v", err, list)
			}
		})
	}
}
