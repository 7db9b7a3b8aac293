package registry

import (
	"testing"

	"moment-machine/internal/model"
)

func TestDefaultOnePerPersonality(t *testing.T) {
	r := Default()
	if r.Size() != 4 {
		t.Fatalf("expected 4 bots, got %d", r.Size())
	}
	seen := map[model.Personality]bool{}
	for _, b := range r.Bots() {
		if seen[b.Personality] {
			t.Fatalf("duplicate personality %s", b.Personality)
		}
		seen[b.Personality] = true
	}
}

func TestFind(t *testing.T) {
	r := Default()
	b, ok := r.Find("bot-blaze")
	if !ok || b.Personality != model.Aggressive {
		t.Fatalf("expected aggressive bot-blaze, got %+v ok=%v", b, ok)
	}
	if _, ok := r.Find("bot-unknown"); ok {
		t.Fatal("expected not found for unknown id")
	}
}

func TestDuplicateIDIgnored(t *testing.T) {
	r := New([]model.Bot{
		{ID: "b1", Name: "first"},
		{ID: "b1", Name: "second"},
	})
	if r.Size() != 1 {
		t.Fatalf("expected size 1, got %d", r.Size())
	}
	b, _ := r.Find("b1")
	if b.Name != "first" {
		t.Fatalf("expected first registration kept, got %s", b.Name)
	}
}

func TestBotsReturnsCopy(t *testing.T) {
	r := Default()
	bots := r.Bots()
	bots[0].ID = "mutated"
	if b, _ := r.Find("bot-blaze"); b.ID != "bot-blaze" {
		t.Fatal("registry mutated through returned slice")
	}
}
