package documents

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/pkg/api"
)

func newTestStore(t *testing.T) (*Store, db.Store) {
	t.Helper()
	kv := db.NewMem()
	return New(kv, zaptest.NewLogger(t)), kv
}

func seed(t *testing.T, kv db.Store, raw string) {
	t.Helper()
	require.NoError(t, kv.Put(context.Background(), Key, []byte(raw)))
}

func TestLoadDefaults(t *testing.T) {
	cases := map[string]string{
		"missing":        "",
		"invalid json":   "{not json",
		"empty array":    "[]",
		"empty envelope": `{"version":1,"documents":[]}`,
		"future version": `{"version":9,"documents":[{"id":"a","name":"a","content":"x"}]}`,
		"wrong type":     `"just a string"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			s, kv := newTestStore(t)
			if raw != "" {
				seed(t, kv, raw)
			}
			col := s.Load(context.Background())
			require.Len(t, col.Documents, 1)
			d := col.Documents[0]
			require.Equal(t, "", d.Content)
			require.Equal(t, DefaultName(1), d.Name)
			require.NotEmpty(t, d.ID)
			require.Equal(t, d.ID, col.ActiveID)
		})
	}
}

func TestLoadLegacyArray(t *testing.T) {
	s, kv := newTestStore(t)
	seed(t, kv, `[{"id":"a","name":"A.md","content":"alpha"},{"id":"b","name":"B.md","content":"beta"}]`)
	col := s.Load(context.Background())
	require.Len(t, col.Documents, 2)
	require.Equal(t, "a", col.ActiveID)
	require.Equal(t, "beta", col.Documents[1].Content)
}

func TestLoadEnvelopeRepairsActiveAndDuplicates(t *testing.T) {
	s, kv := newTestStore(t)
	seed(t, kv, `{"version":1,"active":"gone","documents":[{"id":"a","name":"A"},{"id":"a","name":"dup"},{"id":"b","name":"B"}]}`)
	col := s.Load(context.Background())
	require.Len(t, col.Documents, 2)
	require.Equal(t, "A", col.Documents[0].Name)
	require.Equal(t, "a", col.ActiveID)
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)
	s.Load(ctx)
	d := s.Create()
	require.True(t, s.SetContent(d.ID, "Hello 🌍"))
	require.NoError(t, s.Persist(ctx))

	raw, err := kv.Get(ctx, Key)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	require.Equal(t, schemaVersion, env.Version)
	require.Equal(t, d.ID, env.Active)

	again := New(kv, zaptest.NewLogger(t)).Load(ctx)
	require.Equal(t, s.Snapshot(), again)
}

type failingKV struct{ db.Store }

func (failingKV) Put(context.Context, string, []byte) error { return errors.New("quota exceeded") }

func TestPersistFailureWrapsErrPersist(t *testing.T) {
	s := New(failingKV{db.NewMem()}, zaptest.NewLogger(t))
	s.Load(context.Background())
	err := s.Persist(context.Background())
	require.ErrorIs(t, err, ErrPersist)
}

func TestCreate(t *testing.T) {
	s, _ := newTestStore(t)
	s.Load(context.Background())
	a := s.Create()
	b := s.Create()
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, DefaultName(3), b.Name)
	require.Equal(t, b.ID, s.Snapshot().ActiveID)
	require.Empty(t, b.Content)
}

func TestRename(t *testing.T) {
	s, _ := newTestStore(t)
	col := s.Load(context.Background())
	id := col.Documents[0].ID
	other := s.Create()

	require.NoError(t, s.Rename(id, "notes.md"))
	// Duplicate names are allowed.
	require.NoError(t, s.Rename(other.ID, "notes.md"))
	require.ErrorIs(t, s.Rename("missing", "x"), ErrNotFound)

	got, err := s.Get(id)
	require.NoError(t, err)
	require.Equal(t, "notes.md", got.Name)
}

func TestDeleteLastDocumentRejected(t *testing.T) {
	s, _ := newTestStore(t)
	col := s.Load(context.Background())
	_, err := s.Delete(col.Documents[0].ID)
	require.ErrorIs(t, err, ErrLastDocument)
	require.Equal(t, col, s.Snapshot())
}

func threeDocs(t *testing.T) (*Store, [3]api.Document) {
	t.Helper()
	s, kv := newTestStore(t)
	seed(t, kv, `{"version":1,"active":"A","documents":[{"id":"A","name":"a"},{"id":"B","name":"b"},{"id":"C","name":"c"}]}`)
	col := s.Load(context.Background())
	return s, [3]api.Document{col.Documents[0], col.Documents[1], col.Documents[2]}
}

func TestDeleteActiveFirstFallsToNewFirst(t *testing.T) {
	s, _ := threeDocs(t)
	active, err := s.Delete("A")
	require.NoError(t, err)
	require.Equal(t, "B", active)
	require.Len(t, s.Snapshot().Documents, 2)
}

func TestDeleteActiveMiddleFallsToPredecessor(t *testing.T) {
	s, _ := threeDocs(t)
	require.NoError(t, s.SetActive("C"))
	active, err := s.Delete("C")
	require.NoError(t, err)
	require.Equal(t, "B", active)
}

func TestDeleteInactiveKeepsActive(t *testing.T) {
	s, _ := threeDocs(t)
	active, err := s.Delete("B")
	require.NoError(t, err)
	require.Equal(t, "A", active)
	_, err = s.Delete("B")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetContentUnknownIsNoOp(t *testing.T) {
	s, _ := threeDocs(t)
	before := s.Snapshot()
	require.False(t, s.SetContent("zzz", "x"))
	require.Equal(t, before, s.Snapshot())
}

func TestReplaceWithShared(t *testing.T) {
	s, _ := threeDocs(t)
	d := s.ReplaceWithShared("shared text")
	col := s.Snapshot()
	require.Len(t, col.Documents, 1)
	require.Equal(t, d.ID, col.ActiveID)
	require.Equal(t, SharedName, d.Name)
	require.Equal(t, "shared text", d.Content)
}

func TestImportAssignsFreshIDs(t *testing.T) {
	s, _ := threeDocs(t)
	got := s.Import([]api.Document{{ID: "A", Name: "copy"}, {Name: ""}})
	require.Len(t, got, 2)
	require.NotEqual(t, "A", got[0].ID)
	require.Equal(t, got[0].ID, s.Snapshot().ActiveID)
	require.Equal(t, DefaultName(5), got[1].Name)
}

func TestFind(t *testing.T) {
	s, _ := newTestStore(t)
	s.Load(context.Background())
	readme := s.CreateWith("README.md", "")
	s.CreateWith("blog-post.md", "")

	got := s.Find("rdme")
	require.NotEmpty(t, got)
	require.Equal(t, readme.ID, got[0].ID)

	byID := s.Find(readme.ID)
	require.Len(t, byID, 1)

	require.Empty(t, s.Find("qqqq"))
	require.Len(t, s.Find(""), 3)
}
