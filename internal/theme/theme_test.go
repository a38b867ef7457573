package theme

import (
	"context"
	"testing"

	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/pkg/api"
)

func TestThemeDefaultsAndToggle(t *testing.T) {
	ctx := context.Background()
	kv := db.NewMem()
	s := New(kv, "")
	if got := s.Load(ctx); got != api.ThemeLight {
		t.Fatalf("default=%q want light", got)
	}
	next, err := s.Toggle(ctx)
	if err != nil || next != api.ThemeDark {
		t.Fatalf("toggle=%q,%v", next, err)
	}
	if got := New(kv, api.ThemeLight).Load(ctx); got != api.ThemeDark {
		t.Fatalf("reloaded=%q want dark", got)
	}
}

func TestThemeCorruptValueFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := db.NewMem()
	_ = kv.Put(ctx, Key, []byte("purple"))
	if got := New(kv, api.ThemeDark).Load(ctx); got != api.ThemeDark {
		t.Fatalf("got %q want fallback dark", got)
	}
	if err := New(kv, "").Save(ctx, "purple"); err == nil {
		t.Fatalf("expected error saving an unknown theme")
	}
}

func TestThemeIndependentOfDocuments(t *testing.T) {
	ctx := context.Background()
	kv := db.NewMem()
	_ = kv.Put(ctx, "documents", []byte("{garbage"))
	s := New(kv, "")
	if err := s.Save(ctx, api.ThemeDark); err != nil {
		t.Fatal(err)
	}
	raw, _ := kv.Get(ctx, "documents")
	if string(raw) != "{garbage" {
		t.Fatalf("theme write touched documents key: %q", raw)
	}
}

func TestThemeResetRestoresFallback(t *testing.T) {
	ctx := context.Background()
	kv := db.NewMem()
	s := New(kv, api.ThemeDark)
	if err := s.Save(ctx, api.ThemeLight); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := s.Load(ctx); got != api.ThemeDark {
		t.Fatalf("after reset=%q want dark", got)
	}
	if _, err := kv.Get(ctx, Key); err == nil {
		t.Fatalf("theme key still stored")
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("second reset: %v", err)
	}
}
