//go:build integration

package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/communique/acebot/internal/registry"
	"github.com/communique/acebot/internal/testutil"
)

func TestRegistryLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	store, err := registry.NewStore(db.Pool, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	const url = "https://example.com/blog/launch"

	if _, err := store.Get(ctx, url); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("Get before create: err = %v, want ErrNotFound", err)
	}

	id, err := store.Create(ctx, url, "Launch", "article")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == 0 {
		t.Fatal("Create returned zero id")
	}

	if _, err := store.Create(ctx, url, "Launch", "article"); !errors.Is(err, registry.ErrDuplicate) {
		t.Fatalf("duplicate Create: err = %v, want ErrDuplicate", err)
	}

	doc, err := store.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Processed {
		t.Error("new document should not be processed")
	}

	if err := store.MarkProcessed(ctx, url, 7); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	doc, err = store.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get after MarkProcessed: %v", err)
	}
	if !doc.Processed || doc.ChunkCount != 7 {
		t.Errorf("got processed=%v chunk_count=%d, want true/7", doc.Processed, doc.ChunkCount)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 1 || stats.Processed != 1 {
		t.Errorf("stats = %+v, want total=1 processed=1", stats)
	}

	docs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].URL != url {
		t.Errorf("List = %+v, want single document for %s", docs, url)
	}

	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, url); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("Get after delete: err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("Delete of missing URL should be a no-op, got %v", err)
	}
}

func TestMarkProcessedUnknownURL(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store, err := registry.NewStore(db.Pool, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	err = store.MarkProcessed(context.Background(), "https://example.com/missing", 1)
	if !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
