// Package theme persists the light/dark preference under its own key,
// independently of the document collection.
package theme

import (
	"context"
	"errors"

	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/pkg/api"
)

// Key is the durable-store key holding the theme string.
const Key = "theme"

type Store struct {
	kv       db.Store
	fallback api.Theme
}

// New returns a theme store; fallback is used when nothing valid is stored.
func New(kv db.Store, fallback api.Theme) *Store {
	if _, ok := api.ParseTheme(string(fallback)); !ok {
		fallback = api.ThemeLight
	}
	return &Store{kv: kv, fallback: fallback}
}

// Load returns the stored theme, or the fallback for missing or unknown values.
func (s *Store) Load(ctx context.Context) api.Theme {
	raw, err := s.kv.Get(ctx, Key)
	if err != nil {
		return s.fallback
	}
	if t, ok := api.ParseTheme(string(raw)); ok {
		return t
	}
	return s.fallback
}

func (s *Store) Save(ctx context.Context, t api.Theme) error {
	if _, ok := api.ParseTheme(string(t)); !ok {
		return errors.New("theme must be light or dark")
	}
	return s.kv.Put(ctx, Key, []byte(t))
}

// Reset forgets the saved theme so the fallback applies again.
func (s *Store) Reset(ctx context.Context) error {
	return s.kv.Delete(ctx, Key)
}

// Toggle flips and saves the theme, returning the new value.
func (s *Store) Toggle(ctx context.Context) (api.Theme, error) {
	next := s.Load(ctx).Toggle()
	return next, s.Save(ctx, next)
}
