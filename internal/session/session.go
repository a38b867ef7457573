// Package session orchestrates one editing session: content changes, the
// debounced history record and save indicator, undo/redo, document
// lifecycle, shared-link loading and exports.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mithrel/inkpad/internal/codec"
	"github.com/mithrel/inkpad/internal/documents"
	"github.com/mithrel/inkpad/internal/export"
	"github.com/mithrel/inkpad/internal/history"
	"github.com/mithrel/inkpad/internal/notify"
	"github.com/mithrel/inkpad/internal/share"
	"github.com/mithrel/inkpad/pkg/api"
)

const (
	DefaultQuietPeriod  = 1500 * time.Millisecond
	DefaultIndicatorFor = 1200 * time.Millisecond
)

// SharedLoadedMessage is posted as a sticky notice after a shared link
// replaced the collection.
const SharedLoadedMessage = "Loaded shared document; previous local documents were replaced"

var (
	ErrClosed          = errors.New("session closed")
	ErrUnknownTemplate = errors.New("unknown template")
)

// DocumentStore is the document capability the controller drives.
// *documents.Store satisfies it.
type DocumentStore interface {
	Persist(ctx context.Context) error
	Snapshot() api.Collection
	Active() api.Document
	Get(id string) (api.Document, error)
	Create() api.Document
	CreateWith(name, content string) api.Document
	Rename(id, name string) error
	Delete(id string) (string, error)
	SetContent(id, content string) bool
	SetActive(id string) error
	ReplaceWithShared(content string) api.Document
	Import(docs []api.Document) []api.Document
}

// Exporter renders artifacts. *export.Exporter satisfies it.
type Exporter interface {
	Begin(kind export.Kind) (release func(), err error)
	Busy(kind export.Kind) bool
	Export(ctx context.Context, kind export.Kind, col api.Collection, theme api.Theme) (export.Artifact, error)
}

type Options struct {
	QuietPeriod  time.Duration
	IndicatorFor time.Duration
	HistoryMax   int
	Scheduler    notify.Scheduler
}

func (o *Options) defaults() {
	if o.QuietPeriod <= 0 {
		o.QuietPeriod = DefaultQuietPeriod
	}
	if o.IndicatorFor <= 0 {
		o.IndicatorFor = DefaultIndicatorFor
	}
	if o.HistoryMax <= 0 {
		o.HistoryMax = history.DefaultMax
	}
	if o.Scheduler == nil {
		o.Scheduler = notify.RealScheduler{}
	}
}

type EventKind int

const (
	ContentChanged EventKind = iota
	ActiveChanged
	CollectionChanged
	IndicatorChanged
)

func (k EventKind) String() string {
	switch k {
	case ContentChanged:
		return "content"
	case ActiveChanged:
		return "active"
	case CollectionChanged:
		return "collection"
	case IndicatorChanged:
		return "indicator"
	}
	return "unknown"
}

type Event struct {
	Kind  EventKind
	State State
}

// State is a point-in-time view for UIs.
type State struct {
	Active    api.Document
	Documents []api.Document
	CanUndo   bool
	CanRedo   bool
	Saved     bool // auto-save indicator visible
}

// Controller owns the history tracker and both debounce timers.
type Controller struct {
	docs  DocumentStore
	notes notify.Notifier
	exp   Exporter
	log   *zap.Logger
	opts  Options

	mu        sync.Mutex
	hist      *history.Tracker
	quiet     notify.Timer
	hide      notify.Timer
	quietGen  uint64
	hideGen   uint64
	pending   bool
	indicator bool
	closed    bool
	subs      map[int]func(Event)
	nextSub   int
}

// New seeds history with the active document's content.
func New(docs DocumentStore, notes notify.Notifier, exp Exporter, log *zap.Logger, opts Options) *Controller {
	opts.defaults()
	if notes == nil {
		notes = notify.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		docs:  docs,
		notes: notes,
		exp:   exp,
		log:   log,
		opts:  opts,
		hist:  history.New(docs.Active().Content, opts.HistoryMax),
		subs:  map[int]func(Event){},
	}
}

// OnContentChanged applies an edit and persists it. Edits to the active
// document restart the quiet timer; history is recorded when it fires.
func (c *Controller) OnContentChanged(ctx context.Context, id, content string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !c.docs.SetContent(id, content) {
		c.mu.Unlock()
		c.log.Debug("edit for unknown document ignored", zap.String("id", id))
		return
	}
	c.persistLocked(ctx)
	if c.docs.Active().ID == id {
		c.stopTimersLocked()
		c.indicator = false
		c.pending = true
		c.quietGen++
		gen := c.quietGen
		c.quiet = c.opts.Scheduler.AfterFunc(c.opts.QuietPeriod, func() { c.quietElapsed(gen) })
	}
	ev := c.eventLocked(ContentChanged)
	c.mu.Unlock()
	c.emit(ev)
}

func (c *Controller) quietElapsed(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.quietGen || !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.hist.Record(c.docs.Active().Content)
	c.indicator = true
	c.hideGen++
	hgen := c.hideGen
	c.hide = c.opts.Scheduler.AfterFunc(c.opts.IndicatorFor, func() { c.hideElapsed(hgen) })
	ev := c.eventLocked(IndicatorChanged)
	c.mu.Unlock()
	c.emit(ev)
}

func (c *Controller) hideElapsed(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.hideGen || !c.indicator {
		c.mu.Unlock()
		return
	}
	c.indicator = false
	ev := c.eventLocked(IndicatorChanged)
	c.mu.Unlock()
	c.emit(ev)
}

// Undo steps history back and applies the result without recording it.
func (c *Controller) Undo(ctx context.Context) (string, bool) {
	return c.step(ctx, c.hist.Undo, "Undo", "Nothing to undo")
}

// Redo steps history forward and applies the result without recording it.
func (c *Controller) Redo(ctx context.Context) (string, bool) {
	return c.step(ctx, c.hist.Redo, "Redo", "Nothing to redo")
}

func (c *Controller) step(ctx context.Context, move func() (string, bool), okMsg, noopMsg string) (string, bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", false
	}
	c.flushLocked()
	content, ok := move()
	if ok {
		c.docs.SetContent(c.docs.Active().ID, content)
		c.persistLocked(ctx)
	}
	ev := c.eventLocked(ContentChanged)
	c.mu.Unlock()

	if ok {
		c.notes.Notify(notify.Notice{Level: notify.Success, Message: okMsg})
		c.emit(ev)
	} else {
		c.notes.Notify(notify.Notice{Level: notify.Info, Message: noopMsg})
	}
	return content, ok
}

// Switch makes id active and restarts history from its content.
func (c *Controller) Switch(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.docs.Active().ID == id {
		c.mu.Unlock()
		return nil
	}
	if err := c.docs.SetActive(id); err != nil {
		c.mu.Unlock()
		return err
	}
	c.resetLocked()
	c.persistLocked(ctx)
	ev := c.eventLocked(ActiveChanged)
	c.mu.Unlock()
	c.emit(ev)
	return nil
}

// NewDocument creates an empty, auto-named document and activates it.
func (c *Controller) NewDocument(ctx context.Context) (api.Document, error) {
	return c.create(ctx, func() api.Document { return c.docs.Create() })
}

// NewFromTemplate creates a document from the named template.
func (c *Controller) NewFromTemplate(ctx context.Context, name string) (api.Document, error) {
	t, ok := FindTemplate(name)
	if !ok {
		return api.Document{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	d, err := c.create(ctx, func() api.Document { return c.docs.CreateWith(t.Name+".md", t.Content) })
	if err == nil {
		c.notes.Notify(notify.Notice{Level: notify.Success, Message: fmt.Sprintf("Template %q loaded", t.Name)})
	}
	return d, err
}

func (c *Controller) create(ctx context.Context, mk func() api.Document) (api.Document, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return api.Document{}, ErrClosed
	}
	d := mk()
	c.resetLocked()
	c.persistLocked(ctx)
	ev := c.eventLocked(CollectionChanged)
	c.mu.Unlock()
	c.emit(ev)
	return d, nil
}

// Rename sets the display name of id.
func (c *Controller) Rename(ctx context.Context, id, name string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	err := c.docs.Rename(id, name)
	if err == nil {
		c.persistLocked(ctx)
	}
	ev := c.eventLocked(CollectionChanged)
	c.mu.Unlock()

	if err != nil {
		c.notes.Notify(notify.Notice{Level: notify.Error, Message: "Rename failed: " + err.Error()})
		return err
	}
	d, _ := c.docs.Get(id)
	c.notes.Notify(notify.Notice{Level: notify.Success, Message: "Renamed to " + d.Name})
	c.emit(ev)
	return nil
}

// Delete removes id. Deleting the last document is refused and reported.
// When the active document changes, history restarts from the new one.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	before := c.docs.Active().ID
	d, getErr := c.docs.Get(id)
	activeID, err := c.docs.Delete(id)
	if err != nil {
		c.mu.Unlock()
		if errors.Is(err, documents.ErrLastDocument) {
			c.notes.Notify(notify.Notice{Level: notify.Error, Message: "Cannot delete the last document"})
		}
		return err
	}
	if activeID != before {
		c.resetLocked()
	}
	c.persistLocked(ctx)
	ev := c.eventLocked(CollectionChanged)
	c.mu.Unlock()

	if getErr == nil {
		c.notes.Notify(notify.Notice{Level: notify.Success, Message: "Deleted " + d.Name})
	}
	c.emit(ev)
	return nil
}

// Import appends documents and activates the first one.
func (c *Controller) Import(ctx context.Context, docs []api.Document) ([]api.Document, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	out := c.docs.Import(docs)
	if len(out) > 0 {
		c.resetLocked()
		c.persistLocked(ctx)
	}
	ev := c.eventLocked(CollectionChanged)
	c.mu.Unlock()

	c.notes.Notify(notify.Notice{Level: notify.Success, Message: fmt.Sprintf("Imported %d document(s)", len(out))})
	c.emit(ev)
	return out, nil
}

// LoadShared replaces every document with the decoded token. A malformed
// token loads nothing and posts no notice.
func (c *Controller) LoadShared(ctx context.Context, token string) (bool, error) {
	content, err := codec.Decode(token)
	if err != nil {
		c.log.Warn("ignoring shared link", zap.Error(err))
		return false, err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	d := c.docs.ReplaceWithShared(content)
	c.resetLocked()
	c.persistLocked(ctx)
	ev := c.eventLocked(CollectionChanged)
	c.mu.Unlock()

	c.log.Info("loaded shared document", zap.String("id", d.ID), zap.Int("bytes", len(content)))
	c.notes.Notify(notify.Notice{Level: notify.Info, Message: SharedLoadedMessage, Sticky: true})
	c.emit(ev)
	return true, nil
}

// ShareLink encodes the active document into a link under base.
func (c *Controller) ShareLink(base, param string) (string, error) {
	link, err := share.Link(base, param, c.docs.Active().Content)
	if err != nil {
		c.notes.Notify(notify.Notice{Level: notify.Error, Message: "Share failed: " + err.Error()})
		return "", err
	}
	c.notes.Notify(notify.Notice{Level: notify.Success, Message: "Share link created"})
	return link, nil
}

// Export renders kind without touching documents or history. A second
// export of the same kind while one runs fails with export.ErrInFlight.
func (c *Controller) Export(ctx context.Context, kind export.Kind, theme api.Theme) (export.Artifact, error) {
	a, err := c.export(ctx, kind, theme)
	if err == nil {
		c.notes.Notify(notify.Notice{Level: notify.Success, Message: "Exported " + a.Filename})
	}
	return a, err
}

// Download exports kind and writes it into dir, returning the file path.
func (c *Controller) Download(ctx context.Context, kind export.Kind, theme api.Theme, dir string) (string, error) {
	a, err := c.export(ctx, kind, theme)
	if err != nil {
		return "", err
	}
	path, err := export.WriteFile(dir, a)
	if err != nil {
		c.notes.Notify(notify.Notice{Level: notify.Error, Message: "Export failed: " + err.Error()})
		return "", err
	}
	c.notes.Notify(notify.Notice{Level: notify.Success, Message: "Saved " + path})
	return path, nil
}

// Exporting reports whether an export of kind is running.
func (c *Controller) Exporting(kind export.Kind) bool {
	return c.exp != nil && c.exp.Busy(kind)
}

func (c *Controller) export(ctx context.Context, kind export.Kind, theme api.Theme) (export.Artifact, error) {
	if c.exp == nil {
		return export.Artifact{}, fmt.Errorf("%w: no exporter configured", export.ErrExport)
	}
	release, err := c.exp.Begin(kind)
	if err != nil {
		c.notes.Notify(notify.Notice{Level: notify.Info, Message: "Export already in progress"})
		return export.Artifact{}, err
	}
	defer release()
	a, err := c.exp.Export(ctx, kind, c.docs.Snapshot(), theme)
	if err != nil {
		c.notes.Notify(notify.Notice{Level: notify.Error, Message: "Export failed: " + err.Error()})
		return export.Artifact{}, err
	}
	return a, nil
}

// State returns a snapshot for UIs.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Subscribe registers f for change events. f runs outside the controller
// lock and may call back into it. The returned func unsubscribes.
func (c *Controller) Subscribe(f func(Event)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = f
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Close stops both timers. No callback fires afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimersLocked()
	c.pending = false
	c.indicator = false
	c.subs = map[int]func(Event){}
}

// flushLocked records pending typed text right away so it can be undone.
func (c *Controller) flushLocked() {
	if !c.pending {
		return
	}
	if c.quiet != nil {
		c.quiet.Stop()
		c.quiet = nil
	}
	c.quietGen++
	c.pending = false
	c.hist.Record(c.docs.Active().Content)
}

func (c *Controller) resetLocked() {
	if c.quiet != nil {
		c.quiet.Stop()
		c.quiet = nil
	}
	c.quietGen++
	c.pending = false
	c.hist.Reset(c.docs.Active().Content)
}

func (c *Controller) stopTimersLocked() {
	if c.quiet != nil {
		c.quiet.Stop()
		c.quiet = nil
	}
	if c.hide != nil {
		c.hide.Stop()
		c.hide = nil
	}
	c.quietGen++
	c.hideGen++
}

func (c *Controller) persistLocked(ctx context.Context) {
	if err := c.docs.Persist(ctx); err != nil {
		c.log.Warn("persist failed", zap.Error(err))
	}
}

func (c *Controller) stateLocked() State {
	col := c.docs.Snapshot()
	active, _ := col.Active()
	dirty := c.pending && active.Content != c.hist.Current()
	return State{
		Active:    active,
		Documents: col.Documents,
		CanUndo:   c.hist.CanUndo() || dirty,
		CanRedo:   c.hist.CanRedo() && !dirty,
		Saved:     c.indicator,
	}
}

func (c *Controller) eventLocked(kind EventKind) func() {
	if len(c.subs) == 0 {
		return nil
	}
	ev := Event{Kind: kind, State: c.stateLocked()}
	subs := make([]func(Event), 0, len(c.subs))
	for _, f := range c.subs {
		subs = append(subs, f)
	}
	return func() {
		for _, f := range subs {
			f(ev)
		}
	}
}

func (c *Controller) emit(fire func()) {
	if fire != nil {
		fire()
	}
}
