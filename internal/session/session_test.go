package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mithrel/inkpad/internal/codec"
	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/internal/documents"
	"github.com/mithrel/inkpad/internal/export"
	"github.com/mithrel/inkpad/internal/notify"
	"github.com/mithrel/inkpad/pkg/api"
)

type recorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recorder) Notify(n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) last() notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return notify.Notice{}
	}
	return r.notices[len(r.notices)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

type fixture struct {
	ctl   *Controller
	docs  *documents.Store
	kv    db.Store
	clock *notify.ManualScheduler
	notes *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	kv := db.NewMem()
	docs := documents.New(kv, log)
	docs.Load(context.Background())
	clock := &notify.ManualScheduler{}
	notes := &recorder{}
	ctl := New(docs, notes, export.New(log), log, Options{Scheduler: clock})
	t.Cleanup(ctl.Close)
	return &fixture{ctl: ctl, docs: docs, kv: kv, clock: clock, notes: notes}
}

// typeAndSettle simulates a burst of typing followed by a pause.
func (f *fixture) typeAndSettle(content string) {
	f.ctl.OnContentChanged(context.Background(), f.docs.Active().ID, content)
	f.clock.Advance(DefaultQuietPeriod)
}

func persisted(t *testing.T, kv db.Store) api.Collection {
	t.Helper()
	raw, err := kv.Get(context.Background(), documents.Key)
	require.NoError(t, err)
	col, err := documents.ParseCollection(raw)
	require.NoError(t, err)
	return col
}

func TestEndToEndAutosaveIndicator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.ctl.NewDocument(ctx)
	require.NoError(t, err)

	var seen []bool
	cancel := f.ctl.Subscribe(func(ev Event) {
		if ev.Kind == IndicatorChanged {
			seen = append(seen, ev.State.Saved)
		}
	})
	defer cancel()

	for _, s := range []string{"H", "He", "Hel", "Hell", "Hello"} {
		f.ctl.OnContentChanged(ctx, d.ID, s)
		f.clock.Advance(200 * time.Millisecond)
	}
	assert.False(t, f.ctl.State().Saved, "indicator must wait for the quiet period")

	f.clock.Advance(DefaultQuietPeriod)
	assert.True(t, f.ctl.State().Saved)

	f.clock.Advance(DefaultIndicatorFor)
	assert.False(t, f.ctl.State().Saved)
	assert.Equal(t, []bool{true, false}, seen)

	col := persisted(t, f.kv)
	got, ok := col.Active()
	require.True(t, ok)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, "Hello", got.Content)
}

func TestEditRestartsTimers(t *testing.T) {
	f := newFixture(t)
	id := f.docs.Active().ID
	f.typeAndSettle("a")
	require.True(t, f.ctl.State().Saved)

	f.ctl.OnContentChanged(context.Background(), id, "ab")
	assert.False(t, f.ctl.State().Saved, "new edit hides the indicator")
	assert.Equal(t, 1, f.clock.Pending(), "only the new quiet timer remains")
}

func TestHistoryRecordedOnQuietPeriodNotPerKeystroke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.docs.Active().ID
	f.ctl.OnContentChanged(ctx, id, "a")
	f.ctl.OnContentChanged(ctx, id, "ab")
	f.ctl.OnContentChanged(ctx, id, "abc")
	f.clock.Advance(DefaultQuietPeriod)

	got, ok := f.ctl.Undo(ctx)
	assert.True(t, ok)
	assert.Equal(t, "", got, "the burst is a single history entry")
	assert.Equal(t, "", f.docs.Active().Content)
}

func TestUndoRedoApplyWithoutRecording(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.typeAndSettle("a")
	f.typeAndSettle("b")
	f.typeAndSettle("c")

	got, ok := f.ctl.Undo(ctx)
	require.True(t, ok)
	assert.Equal(t, "b", got)
	assert.Equal(t, notify.Success, f.notes.last().Level)
	assert.Equal(t, "Undo", f.notes.last().Message)

	got, ok = f.ctl.Undo(ctx)
	require.True(t, ok)
	assert.Equal(t, "a", got)
	assert.True(t, f.ctl.State().CanRedo, "undo must not push an entry")

	got, ok = f.ctl.Redo(ctx)
	require.True(t, ok)
	assert.Equal(t, "b", got)
	assert.Equal(t, "b", f.docs.Active().Content)
	assert.Equal(t, "b", mustActive(t, persisted(t, f.kv)).Content)
}

func TestUndoFlushesPendingEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.typeAndSettle("a")
	f.ctl.OnContentChanged(ctx, f.docs.Active().ID, "ab")

	got, ok := f.ctl.Undo(ctx)
	require.True(t, ok)
	assert.Equal(t, "a", got)
	got, ok = f.ctl.Redo(ctx)
	require.True(t, ok)
	assert.Equal(t, "ab", got, "typed text survives an undo before the quiet period")

	f.clock.Advance(DefaultQuietPeriod)
	assert.False(t, f.ctl.State().CanRedo)
	assert.True(t, f.ctl.State().CanUndo)
}

func TestNothingToUndo(t *testing.T) {
	f := newFixture(t)
	got, ok := f.ctl.Undo(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "", got)
	assert.Equal(t, notify.Info, f.notes.last().Level)
}

func TestSwitchResetsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.docs.Active()
	y, err := f.ctl.NewDocument(ctx)
	require.NoError(t, err)
	f.ctl.OnContentChanged(ctx, y.ID, "y content")
	f.clock.Advance(DefaultQuietPeriod)

	require.NoError(t, f.ctl.Switch(ctx, x.ID))
	f.typeAndSettle("x1")
	f.typeAndSettle("x2")
	f.typeAndSettle("x3")
	_, ok := f.ctl.Undo(ctx)
	require.True(t, ok, "cursor is mid-sequence")

	require.NoError(t, f.ctl.Switch(ctx, y.ID))
	st := f.ctl.State()
	assert.Equal(t, y.ID, st.Active.ID)
	assert.False(t, st.CanUndo)
	assert.False(t, st.CanRedo)

	got, ok := f.ctl.Undo(ctx)
	assert.False(t, ok)
	assert.Equal(t, "y content", got)
	assert.Equal(t, "y content", f.docs.Active().Content)
}

func TestSwitchCancelsPendingRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.docs.Active()
	y, _ := f.ctl.NewDocument(ctx)
	require.NoError(t, f.ctl.Switch(ctx, x.ID))

	f.ctl.OnContentChanged(ctx, x.ID, "typed")
	require.NoError(t, f.ctl.Switch(ctx, y.ID))
	f.clock.Advance(DefaultQuietPeriod)

	assert.False(t, f.ctl.State().CanUndo, "stale timer must not record into y's history")
	assert.Equal(t, "typed", mustGet(t, f.docs, x.ID).Content)
}

func TestSwitchUnknownIsNotFound(t *testing.T) {
	f := newFixture(t)
	err := f.ctl.Switch(context.Background(), "missing")
	assert.ErrorIs(t, err, documents.ErrNotFound)
}

func TestEditToInactiveDocumentLeavesHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.docs.Active()
	_, _ = f.ctl.NewDocument(ctx)

	f.ctl.OnContentChanged(ctx, x.ID, "background")
	assert.Equal(t, 0, f.clock.Pending())
	assert.Equal(t, "background", mustGet(t, f.docs, x.ID).Content)
	assert.False(t, f.ctl.State().CanUndo)
}

func TestDeleteLastDocumentNotifiesError(t *testing.T) {
	f := newFixture(t)
	only := f.docs.Active()
	err := f.ctl.Delete(context.Background(), only.ID)
	assert.ErrorIs(t, err, documents.ErrLastDocument)
	assert.Equal(t, notify.Error, f.notes.last().Level)
	assert.Len(t, f.docs.Snapshot().Documents, 1)
}

func TestDeleteActiveResetsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.docs.Active()
	f.ctl.OnContentChanged(ctx, a.ID, "first doc")
	b, _ := f.ctl.NewDocument(ctx)
	f.typeAndSettle("b1")
	f.typeAndSettle("b2")
	require.True(t, f.ctl.State().CanUndo)

	require.NoError(t, f.ctl.Delete(ctx, b.ID))
	st := f.ctl.State()
	assert.Equal(t, a.ID, st.Active.ID)
	assert.False(t, st.CanUndo)
	assert.Equal(t, notify.Success, f.notes.last().Level)
	assert.Len(t, persisted(t, f.kv).Documents, 1)
}

func TestDeleteUnknownIsSilent(t *testing.T) {
	f := newFixture(t)
	err := f.ctl.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, documents.ErrNotFound)
	assert.Equal(t, 0, f.notes.count())
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.docs.Active().ID
	require.NoError(t, f.ctl.Rename(ctx, id, "Plan.md"))
	assert.Equal(t, "Renamed to Plan.md", f.notes.last().Message)
	assert.Equal(t, "Plan.md", mustActive(t, persisted(t, f.kv)).Name)

	err := f.ctl.Rename(ctx, "missing", "x")
	assert.ErrorIs(t, err, documents.ErrNotFound)
	assert.Equal(t, notify.Error, f.notes.last().Level)
}

func TestNewFromTemplate(t *testing.T) {
	f := newFixture(t)
	d, err := f.ctl.NewFromTemplate(context.Background(), "project-readme")
	require.NoError(t, err)
	assert.Equal(t, "Project README.md", d.Name)
	assert.Contains(t, d.Content, "## Installation")
	assert.Equal(t, d.ID, f.ctl.State().Active.ID)

	_, err = f.ctl.NewFromTemplate(context.Background(), "novel")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestLoadSharedReplacesCollection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.ctl.NewDocument(ctx)
	f.typeAndSettle("local work")

	ok, err := f.ctl.LoadShared(ctx, codec.Encode("# Shared ✓"))
	require.NoError(t, err)
	require.True(t, ok)

	st := f.ctl.State()
	require.Len(t, st.Documents, 1)
	assert.Equal(t, documents.SharedName, st.Active.Name)
	assert.Equal(t, "# Shared ✓", st.Active.Content)
	assert.False(t, st.CanUndo)

	n := f.notes.last()
	assert.Equal(t, notify.Info, n.Level)
	assert.True(t, n.Sticky)
	assert.Equal(t, SharedLoadedMessage, n.Message)
	assert.Len(t, persisted(t, f.kv).Documents, 1)
}

func TestLoadSharedMalformedIsIgnored(t *testing.T) {
	f := newFixture(t)
	before := f.docs.Snapshot()
	ok, err := f.ctl.LoadShared(context.Background(), "%%%")
	assert.False(t, ok)
	assert.ErrorIs(t, err, codec.ErrDecode)
	assert.Equal(t, 0, f.notes.count())
	assert.Equal(t, before, f.docs.Snapshot())
}

func TestShareLink(t *testing.T) {
	f := newFixture(t)
	f.ctl.OnContentChanged(context.Background(), f.docs.Active().ID, "hi")
	link, err := f.ctl.ShareLink("http://127.0.0.1:7466/", "md")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:7466/?md="+codec.Encode("hi"), link)
}

func TestExportIsReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.typeAndSettle("# Title")
	before := f.docs.Snapshot()
	canUndo := f.ctl.State().CanUndo

	a, err := f.ctl.Export(ctx, export.HTML, api.ThemeDark)
	require.NoError(t, err)
	assert.Contains(t, string(a.Data), "Title")
	assert.Equal(t, before, f.docs.Snapshot())
	assert.Equal(t, canUndo, f.ctl.State().CanUndo)
	assert.Equal(t, notify.Success, f.notes.last().Level)
}

type blockingExporter struct {
	*export.Exporter
	fail bool
}

func (b blockingExporter) Export(ctx context.Context, kind export.Kind, col api.Collection, theme api.Theme) (export.Artifact, error) {
	if b.fail {
		return export.Artifact{}, errors.New("boom")
	}
	return b.Exporter.Export(ctx, kind, col, theme)
}

func TestExportInFlightAndFailure(t *testing.T) {
	f := newFixture(t)
	exp := export.New(nil)
	f.ctl.exp = blockingExporter{Exporter: exp, fail: true}

	release, err := exp.Begin(export.PDF)
	require.NoError(t, err)
	_, err = f.ctl.Export(context.Background(), export.PDF, api.ThemeLight)
	assert.ErrorIs(t, err, export.ErrInFlight)
	release()

	_, err = f.ctl.Export(context.Background(), export.PDF, api.ThemeLight)
	assert.Error(t, err)
	assert.Equal(t, notify.Error, f.notes.last().Level)
	assert.False(t, exp.Busy(export.PDF), "the flag is released after a failure")
}

func TestDownloadWritesFile(t *testing.T) {
	f := newFixture(t)
	f.typeAndSettle("hello")
	dir := t.TempDir()
	path, err := f.ctl.Download(context.Background(), export.Markdown, api.ThemeLight, dir)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	out, err := f.ctl.Import(context.Background(), []api.Document{{Name: "a.md", Content: "A"}, {Name: "b.md", Content: "B"}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, out[0].ID, f.ctl.State().Active.ID)
	assert.Len(t, persisted(t, f.kv).Documents, 3)
}

func TestCloseStopsTimers(t *testing.T) {
	f := newFixture(t)
	fired := 0
	f.ctl.Subscribe(func(Event) { fired++ })
	f.ctl.OnContentChanged(context.Background(), f.docs.Active().ID, "x")
	fired = 0

	f.ctl.Close()
	assert.Equal(t, 0, f.clock.Pending())
	f.clock.Advance(time.Minute)
	assert.Equal(t, 0, fired)
	assert.False(t, f.ctl.State().Saved)

	f.ctl.OnContentChanged(context.Background(), f.docs.Active().ID, "after close")
	assert.Equal(t, "x", f.docs.Active().Content)
}

func TestSubscribeCancel(t *testing.T) {
	f := newFixture(t)
	var kinds []EventKind
	cancel := f.ctl.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })
	f.ctl.OnContentChanged(context.Background(), f.docs.Active().ID, "x")
	cancel()
	f.ctl.OnContentChanged(context.Background(), f.docs.Active().ID, "y")
	assert.Equal(t, []EventKind{ContentChanged}, kinds)
}

func mustActive(t *testing.T, col api.Collection) api.Document {
	t.Helper()
	d, ok := col.Active()
	require.True(t, ok)
	return d
}

func mustGet(t *testing.T, s *documents.Store, id string) api.Document {
	t.Helper()
	d, err := s.Get(id)
	require.NoError(t, err)
	return d
}
