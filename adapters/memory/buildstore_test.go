package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/artpar/construct/adapters/memory"
	"github.com/artpar/construct/core/storage"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestBuildStore_SaveAndGet(t *testing.T) {
	store := memory.NewBuildStore()
	ctx := context.Background()

	b := &storage.Build{Runtime: "Runtime", Fingerprint: "abc", ModuleCount: 3, Bundle: []byte(`{}`)}
	if err := store.Save(ctx, b); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if b.ID == "" || b.CreatedAt.IsZero() {
		t.Fatalf("Save should fill ID and CreatedAt, got %+v", b)
	}

	got, err := store.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if diff := cmp.Diff(*b, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}

	b.Bundle[0] = 'x'
	got, _ = store.Get(ctx, b.ID)
	if string(got.Bundle) != "{}" {
		t.Errorf("stored bundle shares memory with caller: %q", got.Bundle)
	}
}

func TestBuildStore_DuplicateID(t *testing.T) {
	store := memory.NewBuildStore()
	ctx := context.Background()

	store.Save(ctx, &storage.Build{ID: "b1"})
	if err := store.Save(ctx, &storage.Build{ID: "b1"}); err == nil {
		t.Error("expected error saving duplicate ID")
	}
}

func TestBuildStore_FindByFingerprint(t *testing.T) {
	store := memory.NewBuildStore()
	ctx := context.Background()

	store.Save(ctx, &storage.Build{ID: "old", Fingerprint: "f", CreatedAt: base})
	store.Save(ctx, &storage.Build{ID: "new", Fingerprint: "f", CreatedAt: base.Add(time.Minute)})

	got, err := store.FindByFingerprint(ctx, "f")
	if err != nil {
		t.Fatalf("FindByFingerprint failed: %v", err)
	}
	if got.ID != "new" {
		t.Errorf("FindByFingerprint = %q, want new", got.ID)
	}

	if _, err := store.FindByFingerprint(ctx, "none"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestBuildStore_List(t *testing.T) {
	store := memory.NewBuildStore()
	ctx := context.Background()

	for i, runtime := range []string{"Runtime", "Other", "Runtime"} {
		store.Save(ctx, &storage.Build{
			ID:        string(rune('a' + i)),
			Runtime:   runtime,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}

	tests := []struct {
		name      string
		opts      storage.ListOptions
		wantIDs   []string
		wantTotal int64
	}{
		{"all", storage.ListOptions{}, []string{"c", "b", "a"}, 3},
		{"limit", storage.ListOptions{Limit: 1}, []string{"c"}, 3},
		{"offset", storage.ListOptions{Offset: 2}, []string{"a"}, 3},
		{"offset past end", storage.ListOptions{Offset: 5}, nil, 3},
		{"runtime", storage.ListOptions{Runtime: "Runtime"}, []string{"c", "a"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builds, total, err := store.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			var got []string
			for _, b := range builds {
				got = append(got, b.ID)
			}
			if diff := cmp.Diff(tt.wantIDs, got); diff != "" {
				t.Errorf("IDs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildStore_Delete(t *testing.T) {
	store := memory.NewBuildStore()
	ctx := context.Background()

	store.Save(ctx, &storage.Build{ID: "b1"})
	if err := store.Delete(ctx, "b1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
	if err := store.Delete(ctx, "b1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}
