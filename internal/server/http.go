package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mithrel/inkpad/internal/codec"
	"github.com/mithrel/inkpad/internal/documents"
	"github.com/mithrel/inkpad/internal/export"
	"github.com/mithrel/inkpad/internal/notify"
	"github.com/mithrel/inkpad/internal/render"
	"github.com/mithrel/inkpad/internal/session"
	"github.com/mithrel/inkpad/internal/share"
	"github.com/mithrel/inkpad/internal/theme"
	"github.com/mithrel/inkpad/internal/wire"
	"github.com/mithrel/inkpad/pkg/api"
)

const maxBody = 8 << 20

// Server exposes the editing session over HTTP and a live WebSocket feed.
type Server struct {
	cfg     *viper.Viper
	log     *zap.Logger
	session *session.Controller
	docs    *documents.Store
	theme   *theme.Store
	notices *notify.Board
	hub     *Hub
	detach  func()
}

func New(app *wire.App) *Server {
	s := &Server{
		cfg:     app.Cfg,
		log:     app.Log.Named("http"),
		session: app.Session,
		docs:    app.Docs,
		theme:   app.Theme,
		notices: app.Notices,
	}
	s.hub = newHub(s.log, s.previewMessage)
	s.detach = s.hub.attach(s.session)
	return s
}

// Close detaches from the session and disconnects live clients.
func (s *Server) Close() {
	s.detach()
	s.hub.closeAll()
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/", s.auth(http.HandlerFunc(s.handleIndex))).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(s.auth)
	v1.HandleFunc("/live", s.hub.serveWS).Methods(http.MethodGet)
	v1.HandleFunc("/documents", s.handleList).Methods(http.MethodGet)
	v1.HandleFunc("/documents", s.handleCreate).Methods(http.MethodPost)
	v1.HandleFunc("/documents/{id}", s.handleGet).Methods(http.MethodGet)
	v1.HandleFunc("/documents/{id}", s.handleWrite).Methods(http.MethodPut)
	v1.HandleFunc("/documents/{id}", s.handleRename).Methods(http.MethodPatch)
	v1.HandleFunc("/documents/{id}", s.handleDelete).Methods(http.MethodDelete)
	v1.HandleFunc("/documents/{id}/activate", s.handleActivate).Methods(http.MethodPost)
	v1.HandleFunc("/documents/{id}/preview", s.handlePreview).Methods(http.MethodGet)
	v1.HandleFunc("/undo", s.handleStep(s.session.Undo)).Methods(http.MethodPost)
	v1.HandleFunc("/redo", s.handleStep(s.session.Redo)).Methods(http.MethodPost)
	v1.HandleFunc("/export/{kind}", s.handleExport).Methods(http.MethodGet)
	v1.HandleFunc("/share", s.handleShare).Methods(http.MethodGet)
	v1.HandleFunc("/theme", s.handleGetTheme).Methods(http.MethodGet)
	v1.HandleFunc("/theme", s.handleSetTheme).Methods(http.MethodPut)
	v1.HandleFunc("/notice", s.handleNotice).Methods(http.MethodGet)
	v1.HandleFunc("/notice", s.handleDismiss).Methods(http.MethodDelete)
	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("listening", zap.String("addr", addr))
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		s.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// auth requires auth.token, when configured, on the index page and on /v1.
// Browsers cannot set headers on a WebSocket or a plain link, so the token
// is also accepted as the "token" query parameter.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := s.authToken()
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		if subtle.ConstantTimeCompare([]byte(requestToken(r)), []byte(tok)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authToken() string {
	return strings.TrimSpace(s.cfg.GetString("auth.token"))
}

// requestToken returns the bearer token, falling back to ?token=.
func requestToken(r *http.Request) string {
	if got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(got)
	}
	return r.URL.Query().Get("token")
}

type documentJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
	Active  bool   `json:"active"`
}

type listJSON struct {
	Active    string         `json:"active"`
	Documents []documentJSON `json:"documents"`
	CanUndo   bool           `json:"can_undo"`
	CanRedo   bool           `json:"can_redo"`
	Saved     bool           `json:"saved"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	st := s.session.State()
	out := listJSON{Active: st.Active.ID, CanUndo: st.CanUndo, CanRedo: st.CanRedo, Saved: st.Saved}
	for _, d := range st.Documents {
		out.Documents = append(out.Documents, documentJSON{ID: d.ID, Name: d.Name, Active: d.ID == st.Active.ID})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	d, err := s.docs.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.docJSON(d))
}

type createRequest struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Template string `json:"template"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	var (
		d   api.Document
		err error
	)
	if req.Template != "" {
		d, err = s.session.NewFromTemplate(ctx, req.Template)
	} else {
		d, err = s.session.NewDocument(ctx)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Name != "" {
		if err := s.session.Rename(ctx, d.ID, req.Name); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Content != "" {
		s.session.OnContentChanged(ctx, d.ID, req.Content)
	}
	d, _ = s.docs.Get(d.ID)
	writeJSON(w, http.StatusCreated, s.docJSON(d))
}

type writeRequest struct {
	Content *string `json:"content"`
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req writeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Content == nil {
		writeError(w, badRequest("content is required"))
		return
	}
	if _, err := s.docs.Get(id); err != nil {
		writeError(w, err)
		return
	}
	s.session.OnContentChanged(r.Context(), id, *req.Content)
	d, _ := s.docs.Get(id)
	writeJSON(w, http.StatusOK, s.docJSON(d))
}

type renameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req renameRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.Rename(r.Context(), id, req.Name); err != nil {
		writeError(w, err)
		return
	}
	d, _ := s.docs.Get(id)
	writeJSON(w, http.StatusOK, s.docJSON(d))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.session.Switch(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	d, _ := s.docs.Get(id)
	writeJSON(w, http.StatusOK, s.docJSON(d))
}

func (s *Server) handleStep(step func(context.Context) (string, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, ok := step(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "content": content})
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	d, err := s.docs.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	etag := strconv.Quote(api.ContentHash(d.Content))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, render.HTML(d.Content))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind, ok := export.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		writeError(w, badRequest("unknown export kind"))
		return
	}
	a, err := s.session.Export(r.Context(), kind, s.theme.Load(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", a.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	_, _ = w.Write(a.Data)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	link, err := s.session.ShareLink(s.cfg.GetString("share.base_url"), s.cfg.GetString("share.param"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"theme": string(s.theme.Load(r.Context()))})
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var (
		t   api.Theme
		err error
	)
	if req.Theme == "toggle" {
		t, err = s.theme.Toggle(r.Context())
	} else {
		parsed, ok := api.ParseTheme(req.Theme)
		if !ok {
			writeError(w, badRequest("theme must be light, dark or toggle"))
			return
		}
		t, err = parsed, s.theme.Save(r.Context(), parsed)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": string(t)})
}

type noticeJSON struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Sticky  bool   `json:"sticky"`
}

func (s *Server) handleNotice(w http.ResponseWriter, r *http.Request) {
	n, ok := s.notices.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, noticeJSON{Level: n.Level.String(), Message: n.Message, Sticky: n.Sticky})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.notices.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) docJSON(d api.Document) documentJSON {
	return documentJSON{ID: d.ID, Name: d.Name, Content: d.Content, Active: d.ID == s.docs.Active().ID}
}

type requestError struct{ msg string }

func (e requestError) Error() string { return e.msg }

func badRequest(msg string) error { return requestError{msg: msg} }

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid json: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var reqErr requestError
	switch {
	case errors.As(err, &reqErr), errors.Is(err, codec.ErrDecode), errors.Is(err, session.ErrUnknownTemplate):
		status = http.StatusBadRequest
	case errors.Is(err, documents.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, documents.ErrLastDocument), errors.Is(err, export.ErrInFlight):
		status = http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// sharedToken pulls the share token from a request, if any.
func (s *Server) sharedToken(r *http.Request) (string, bool) {
	return share.TokenFromURL("?"+r.URL.RawQuery, s.cfg.GetString("share.param"))
}
