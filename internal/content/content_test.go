package content

import (
	"context"
	"errors"
	"testing"
)

func TestGuard_TranslatesErrorsToEmpty(t *testing.T) {
	failing := SourceFunc(func(ctx context.Context, topic string) ([]Item, error) {
		return nil, errors.New("connection refused")
	})

	items, err := NewGuard(failing, nil).Fetch(context.Background(), "faith")
	if err != nil {
		t.Fatalf("Guard returned error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestGuard_PassesItemsThrough(t *testing.T) {
	want := []Item{{Reference: "John 3:16", Text: "For God so loved the world"}}
	src := SourceFunc(func(ctx context.Context, topic string) ([]Item, error) {
		return want, nil
	})

	got, err := NewGuard(src, nil).Fetch(context.Background(), "love")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Reference != "John 3:16" {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestItemLabel(t *testing.T) {
	it := Item{Reference: "Psalm 23:1", Text: "The LORD is my shepherd"}
	if got := it.Label(); got != "Psalm 23:1: The LORD is my shepherd" {
		t.Errorf("Label() = %q", got)
	}
}

func TestFallback(t *testing.T) {
	fb := Fallback()
	if fb.Reference != "1 Corinthians 13:4-7" {
		t.Errorf("fallback reference = %q", fb.Reference)
	}
	if fb.Text == "" {
		t.Error("fallback text should not be empty")
	}
}
