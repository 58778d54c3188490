package category

import (
	"context"
	"testing"

	"github.com/fentz26/daylog/internal/store"
)

func TestAddListDelete(t *testing.T) {
	r := New(store.NewMemory())
	ctx := context.Background()

	work, err := r.Add(ctx, " Work ", "")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if work.Name != "Work" || work.Color != Palette[0] {
		t.Errorf("Unexpected category %+v", work)
	}
	study, _ := r.Add(ctx, "Study", "")
	if study.Color != Palette[1] {
		t.Errorf("Expected next palette color, got %s", study.Color)
	}
	if _, err := r.Add(ctx, "Bad", "red"); err == nil {
		t.Error("Expected error for invalid color")
	}

	cats, _ := r.List(ctx)
	if len(cats) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(cats))
	}
	if c, ok := Resolve(cats, "work"); !ok || c.ID != work.ID {
		t.Errorf("Resolve by name failed: %+v", c)
	}
	if _, ok := Resolve(cats, study.ID); !ok {
		t.Error("Resolve by id failed")
	}

	if ok, _ := r.Delete(ctx, work.ID); !ok {
		t.Error("Delete should report true")
	}
	if ok, _ := r.Delete(ctx, work.ID); ok {
		t.Error("Second delete should report false")
	}
	cats, _ = r.List(ctx)
	if len(cats) != 1 || cats[0].ID != study.ID {
		t.Errorf("Unexpected categories after delete %+v", cats)
	}
}
