package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "documents")
	require.True(t, errors.Is(err, ErrNotFound), "missing key err=%v", err)

	require.NoError(t, s.Put(ctx, "documents", []byte(`[1]`)))
	got, err := s.Get(ctx, "documents")
	require.NoError(t, err)
	require.Equal(t, `[1]`, string(got))

	// Put replaces the whole value.
	require.NoError(t, s.Put(ctx, "documents", []byte(`[1,2]`)))
	got, err = s.Get(ctx, "documents")
	require.NoError(t, err)
	require.Equal(t, `[1,2]`, string(got))

	// Keys are independent.
	require.NoError(t, s.Put(ctx, "theme", []byte("dark")))
	got, err = s.Get(ctx, "documents")
	require.NoError(t, err)
	require.Equal(t, `[1,2]`, string(got))

	require.NoError(t, s.Delete(ctx, "theme"))
	_, err = s.Get(ctx, "theme")
	require.True(t, errors.Is(err, ErrNotFound))
	// Deleting a missing key is not an error.
	require.NoError(t, s.Delete(ctx, "theme"))
}

func TestMemStore(t *testing.T) {
	s, err := Open(context.Background(), "mem://")
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMem()
	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", buf))
	buf[0] = 'z'
	got, _ := s.Get(ctx, "k")
	require.Equal(t, "abc", string(got))
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "inkpad.db")
	s, err := Open(context.Background(), "sqlite://"+path)
	require.NoError(t, err)
	exerciseStore(t, s)

	// Values survive a reopen.
	require.NoError(t, s.Put(context.Background(), "documents", []byte("persisted")))
	require.NoError(t, s.Close())
	s2, err := Open(context.Background(), "sqlite://"+path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get(context.Background(), "documents")
	require.NoError(t, err)
	require.Equal(t, "persisted", string(got))
}

func TestBarePathIsSQLite(t *testing.T) {
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "plain.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
	require.True(t, mr.Exists(redisPrefix+"documents"))
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("INKPAD_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("INKPAD_TEST_POSTGRES_URL not set")
	}
	s, err := Open(context.Background(), url)
	require.NoError(t, err)
	defer s.Close()
	_ = s.Delete(context.Background(), "documents")
	_ = s.Delete(context.Background(), "theme")
	exerciseStore(t, s)
}

func TestOpenUnsupportedScheme(t *testing.T) {
	_, err := Open(context.Background(), "ftp://example.com/x")
	require.Error(t, err)
}
