// Package tui is the terminal editor: a tab line, a textarea bound to the
// editing session, a rendered preview and a status line.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mithrel/inkpad/internal/export"
	"github.com/mithrel/inkpad/internal/notify"
	"github.com/mithrel/inkpad/internal/session"
	"github.com/mithrel/inkpad/internal/theme"
	"github.com/mithrel/inkpad/pkg/api"
)

// Finder looks documents up by name.
type Finder interface {
	Find(query string) []api.Document
}

// Deps are the collaborators the editor drives.
type Deps struct {
	Session    *session.Controller
	Docs       Finder
	Theme      *theme.Store
	Notices    *notify.Board
	Log        *zap.Logger
	ShareBase  string
	ShareParam string
	ExportDir  string
}

// minPreviewWidth is the terminal width below which the preview is hidden.
const minPreviewWidth = 80

const helpLine = "ctrl+z undo • ctrl+y redo • ctrl+n new • ctrl+w delete • tab switch • ctrl+p go to • ctrl+r rename • ctrl+l template • ctrl+t theme • ctrl+e export • ctrl+s share • alt+p preview • ctrl+q quit"

type model struct {
	ctx         context.Context
	d           Deps
	in          *inbox
	editor      textarea.Model
	preview     *previewPane
	showPreview bool
	modal       *promptModal
	state       session.State
	activeID    string
	theme       api.Theme
	notice      notify.Notice
	hasNotice   bool
	width       int
	height      int
}

func newModel(ctx context.Context, d Deps) model {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	m := model{ctx: ctx, d: d, in: newInbox(), showPreview: true}
	m.theme = d.Theme.Load(ctx)
	m.editor = textarea.New()
	m.editor.CharLimit = 0
	m.editor.MaxHeight = 0
	m.editor.ShowLineNumbers = true
	m.editor.Placeholder = "Start writing Markdown…"
	m.editor.Focus()
	m.preview = newPreviewPane(m.theme)
	m.notice, m.hasNotice = d.Notices.Current()
	m.sync()
	return m
}

// Run starts the editor and blocks until the user quits or ctx ends.
func Run(ctx context.Context, d Deps) error {
	m := newModel(ctx, d)
	unsubscribe := d.Session.Subscribe(func(e session.Event) { m.in.push(sessionEventMsg(e)) })
	restore := d.Notices.Watch(func(notify.Notice, bool) { m.in.push(noticeMsg{}) })
	defer func() {
		unsubscribe()
		restore()
		m.in.close()
	}()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.in.wait())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.applyLayout()
		if m.modal != nil {
			m.modal.resizeForTerm(msg.Width, msg.Height)
		}
		return m, nil
	case inboxMsg:
		for _, item := range msg {
			m = m.apply(item)
		}
		return m, m.in.wait()
	case sessionEventMsg, noticeMsg:
		return m.apply(msg), nil
	case exportResultMsg:
		if msg.err != nil {
			m.d.Log.Warn("export failed", zap.String("kind", string(msg.kind)), zap.Error(msg.err))
		} else {
			m.d.Log.Info("exported", zap.String("kind", string(msg.kind)), zap.String("path", msg.path), zap.Duration("took", msg.dur))
		}
		return m, nil
	case tea.KeyMsg:
		if m.modal != nil {
			return m.updateModal(msg)
		}
		return m.updateKey(msg)
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// apply folds a queued message into the model. Session state is re-read
// rather than taken from the event so late events never roll the view back.
func (m model) apply(msg tea.Msg) model {
	switch msg.(type) {
	case sessionEventMsg:
		m.sync()
	case noticeMsg:
		m.notice, m.hasNotice = m.d.Notices.Current()
	}
	return m
}

// sync refreshes the session snapshot and loads the active document into
// the editor when it changed.
func (m *model) sync() {
	m.state = m.d.Session.State()
	if m.state.Active.ID != m.activeID {
		m.activeID = m.state.Active.ID
		m.editor.SetValue(m.state.Active.Content)
	}
	m.preview.setSource(m.editor.Value(), m.theme)
}

// setContent replaces the editor text after undo or redo.
func (m *model) setContent(content string) {
	m.editor.SetValue(content)
	m.state = m.d.Session.State()
	m.preview.setSource(content, m.theme)
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := m.ctx
	switch msg.String() {
	case "ctrl+q", "ctrl+c":
		return m, tea.Quit
	case "ctrl+z":
		if content, ok := m.d.Session.Undo(ctx); ok {
			m.setContent(content)
		}
		m.state = m.d.Session.State()
		return m, nil
	case "ctrl+y":
		if content, ok := m.d.Session.Redo(ctx); ok {
			m.setContent(content)
		}
		m.state = m.d.Session.State()
		return m, nil
	case "ctrl+n":
		if _, err := m.d.Session.NewDocument(ctx); err != nil {
			m.d.Log.Warn("new document", zap.Error(err))
		}
		m.sync()
		return m, nil
	case "ctrl+w":
		if err := m.d.Session.Delete(ctx, m.activeID); err != nil {
			m.d.Log.Debug("delete refused", zap.Error(err))
		}
		m.sync()
		return m, nil
	case "tab", "shift+tab":
		step := 1
		if msg.String() == "shift+tab" {
			step = -1
		}
		m.switchBy(step)
		return m, nil
	case "ctrl+t":
		next, err := m.d.Theme.Toggle(ctx)
		if err != nil {
			m.d.Notices.Notify(notify.Notice{Level: notify.Error, Message: "Theme not saved: " + err.Error()})
		}
		m.theme = next
		m.preview.setSource(m.editor.Value(), m.theme)
		return m, nil
	case "ctrl+e":
		if m.d.Session.Exporting(export.Markdown) {
			return m, nil
		}
		return m, exportCmd(ctx, m.d.Session, export.Markdown, m.theme, m.d.ExportDir)
	case "ctrl+s":
		link, err := m.d.Session.ShareLink(m.d.ShareBase, m.d.ShareParam)
		if err == nil {
			m.d.Notices.Notify(notify.Notice{Level: notify.Info, Message: link, Sticky: true})
		}
		return m, nil
	case "esc":
		m.d.Notices.Dismiss()
		return m, nil
	case "ctrl+p":
		m.modal = newPromptModal(promptSwitch, "", m.d.Docs.Find, m.width, m.height)
		return m, nil
	case "ctrl+r":
		m.modal = newPromptModal(promptRename, m.state.Active.Name, nil, m.width, m.height)
		return m, nil
	case "ctrl+l":
		m.modal = newPromptModal(promptTemplate, "", nil, m.width, m.height)
		return m, nil
	case "alt+p":
		m.showPreview = !m.showPreview
		m.applyLayout()
		return m, nil
	case "pgup", "pgdown":
		if m.previewVisible() {
			return m, m.preview.update(msg)
		}
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		m.d.Session.OnContentChanged(ctx, m.activeID, after)
		m.state = m.d.Session.State()
		m.preview.setSource(after, m.theme)
	}
	return m, cmd
}

func (m model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+q":
		m.modal = nil
		return m, nil
	case "enter":
		kind, value := m.modal.kind, m.modal.value()
		m.modal = nil
		if value == "" {
			return m, nil
		}
		var err error
		switch kind {
		case promptRename:
			err = m.d.Session.Rename(m.ctx, m.activeID, value)
		case promptSwitch:
			err = m.d.Session.Switch(m.ctx, value)
		case promptTemplate:
			_, err = m.d.Session.NewFromTemplate(m.ctx, value)
		}
		if err != nil {
			m.d.Log.Debug("prompt action failed", zap.Error(err))
		}
		m.sync()
		return m, nil
	}
	var cmd tea.Cmd
	m.modal, cmd = m.modal.update(msg)
	return m, cmd
}

func (m *model) switchBy(step int) {
	docs := m.state.Documents
	if len(docs) < 2 {
		return
	}
	idx := 0
	for i, d := range docs {
		if d.ID == m.activeID {
			idx = i
			break
		}
	}
	next := docs[(idx+step+len(docs))%len(docs)]
	if err := m.d.Session.Switch(m.ctx, next.ID); err != nil {
		m.d.Log.Warn("switch document", zap.String("id", next.ID), zap.Error(err))
	}
	m.sync()
}

func (m model) previewVisible() bool {
	return m.showPreview && m.width >= minPreviewWidth
}

func (m *model) applyLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	bodyH := max(3, m.height-3)
	editorW := m.width
	if m.previewVisible() {
		editorW = m.width / 2
		m.preview.resize(m.width-editorW, bodyH)
	}
	m.editor.SetWidth(editorW)
	m.editor.SetHeight(bodyH)
}

func (m model) renderStatus() string {
	parts := []string{
		string(m.theme),
		yesNo(m.state.CanUndo, "undo"),
		yesNo(m.state.CanRedo, "redo"),
	}
	if m.state.Saved {
		parts = append(parts, savedStyle.Render("Auto-saved"))
	}
	if m.d.Session.Exporting(export.Markdown) {
		parts = append(parts, faintStyle.Render("exporting"))
	}
	left := " " + strings.Join(parts, " • ")
	var right string
	if m.hasNotice {
		right = noticeStyles[m.notice.Level].Render(m.notice.Message)
		if m.notice.Sticky {
			right += faintStyle.Render(" (esc)")
		}
		right += " "
	} else {
		right = faintStyle.Render(fmt.Sprintf("%d document(s) ", len(m.state.Documents)))
	}
	return spread(left, right, m.width)
}

func (m model) View() string {
	body := m.editor.View()
	if m.previewVisible() {
		body = joinColumns(body, m.preview.View())
	}
	view := strings.Join([]string{
		tabLine(m.state, m.width),
		body,
		m.renderStatus(),
		faintStyle.Render(truncate(helpLine, m.width)),
	}, "\n")
	if m.modal != nil {
		return m.renderOverlay(view, m.modal.View())
	}
	return view
}
