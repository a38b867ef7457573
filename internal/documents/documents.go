// Package documents owns the open document collection: identity, names,
// content, the active selection, and its round trip through the durable
// key-value store.
package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/pkg/api"
)

// Key is the durable-store key holding the serialized collection.
const Key = "documents"

// SharedName names the document synthesized from a shared link.
const SharedName = "Shared.md"

const schemaVersion = 1

var (
	ErrNotFound     = errors.New("document not found")
	ErrLastDocument = errors.New("cannot delete the last document")
	ErrPersist      = errors.New("persist documents")
)

// envelope is the persisted shape. Version lets a later shape be told apart.
type envelope struct {
	Version   int            `json:"version"`
	Active    string         `json:"active"`
	Documents []api.Document `json:"documents"`
}

// Store is the in-memory collection plus its durable copy.
type Store struct {
	mu     sync.Mutex
	kv     db.Store
	log    *zap.Logger
	col    api.Collection
	lastFP string
}

// New returns a Store holding the default collection until Load is called.
func New(kv db.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, log: log, col: defaultCollection()}
}

// DefaultName is the auto-generated name for the n-th document.
func DefaultName(n int) string {
	return fmt.Sprintf("Untitled %d.md", n)
}

func defaultCollection() api.Collection {
	d := api.Document{ID: api.NewID(), Name: DefaultName(1)}
	return api.Collection{Documents: []api.Document{d}, ActiveID: d.ID}
}

// Load reads the durable collection. Missing or unusable data degrades to a
// single empty document; Load never returns an error.
func (s *Store) Load(ctx context.Context) api.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, Key)
	switch {
	case errors.Is(err, db.ErrNotFound):
		s.col = defaultCollection()
	case err != nil:
		s.log.Warn("load documents failed; using default", zap.Error(err))
		s.col = defaultCollection()
	default:
		col, derr := decode(raw)
		if derr != nil {
			s.log.Warn("stored documents unusable; using default", zap.Error(derr))
			s.col = defaultCollection()
		} else {
			s.col = col
			s.lastFP = api.Fingerprint(raw)
		}
	}
	return s.col.Clone()
}

// decode accepts the versioned envelope and the bare legacy array.
func decode(raw []byte) (api.Collection, error) {
	raw = bytes.TrimSpace(raw)
	var env envelope
	if bytes.HasPrefix(raw, []byte("[")) {
		if err := json.Unmarshal(raw, &env.Documents); err != nil {
			return api.Collection{}, err
		}
	} else {
		if err := json.Unmarshal(raw, &env); err != nil {
			return api.Collection{}, err
		}
		if env.Version != schemaVersion {
			return api.Collection{}, fmt.Errorf("unknown schema version %d", env.Version)
		}
	}

	seen := make(map[string]struct{}, len(env.Documents))
	docs := make([]api.Document, 0, len(env.Documents))
	for _, d := range env.Documents {
		d.ID = strings.TrimSpace(d.ID)
		if d.ID == "" {
			d.ID = api.NewID()
		}
		if _, dup := seen[d.ID]; dup {
			continue
		}
		seen[d.ID] = struct{}{}
		docs = append(docs, d)
	}
	if len(docs) == 0 {
		return api.Collection{}, errors.New("no documents")
	}
	col := api.Collection{Documents: docs, ActiveID: env.Active}
	if col.Index(col.ActiveID) < 0 {
		col.ActiveID = docs[0].ID
	}
	return col, nil
}

// Persist writes the whole collection as one value. Unchanged values are
// not rewritten. Failures wrap ErrPersist.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(envelope{Version: schemaVersion, Active: s.col.ActiveID, Documents: s.col.Documents})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	fp := api.Fingerprint(b)
	if fp == s.lastFP {
		return nil
	}
	if err := s.kv.Put(ctx, Key, b); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	s.lastFP = fp
	return nil
}

// Snapshot returns a copy of the collection.
func (s *Store) Snapshot() api.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.col.Clone()
}

// Active returns the active document.
func (s *Store) Active() api.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, _ := s.col.Active()
	return d
}

// Get returns the document with id.
func (s *Store) Get(id string) (api.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.col.Index(id); i >= 0 {
		return s.col.Documents[i], nil
	}
	return api.Document{}, ErrNotFound
}

// Create appends an empty, auto-named document and makes it active.
func (s *Store) Create() api.Document {
	return s.CreateWith("", "")
}

// CreateWith appends a document with the given name and content and makes
// it active. An empty name gets the default name.
func (s *Store) CreateWith(name, content string) api.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(len(s.col.Documents) + 1)
	}
	d := api.Document{ID: api.NewID(), Name: name, Content: content}
	s.col.Documents = append(s.col.Documents, d)
	s.col.ActiveID = d.ID
	return d
}

// Rename sets the display name. Names need not be unique.
func (s *Store) Rename(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.col.Index(id)
	if i < 0 {
		return ErrNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(i + 1)
	}
	s.col.Documents[i].Name = name
	return nil
}

// Delete removes id and returns the active id afterwards. The last
// remaining document cannot be deleted. When the active document goes, its
// predecessor becomes active, or the new first entry if it was first.
func (s *Store) Delete(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.col.Index(id)
	if i < 0 {
		return s.col.ActiveID, ErrNotFound
	}
	if len(s.col.Documents) == 1 {
		return s.col.ActiveID, ErrLastDocument
	}
	s.col.Documents = append(s.col.Documents[:i], s.col.Documents[i+1:]...)
	if s.col.ActiveID == id {
		next := i - 1
		if next < 0 {
			next = 0
		}
		s.col.ActiveID = s.col.Documents[next].ID
	}
	return s.col.ActiveID, nil
}

// SetContent replaces the text of id. It reports false if id is unknown.
func (s *Store) SetContent(id, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.col.Index(id)
	if i < 0 {
		return false
	}
	s.col.Documents[i].Content = content
	return true
}

// SetActive moves the active pointer to id.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.col.Index(id) < 0 {
		return ErrNotFound
	}
	s.col.ActiveID = id
	return nil
}

// ReplaceWithShared discards every document and installs a single active
// document holding content.
func (s *Store) ReplaceWithShared(content string) api.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := api.Document{ID: api.NewID(), Name: SharedName, Content: content}
	s.col = api.Collection{Documents: []api.Document{d}, ActiveID: d.ID}
	return d
}

// Import appends docs with fresh ids so they never collide with open ones.
// The first imported document becomes active.
func (s *Store) Import(docs []api.Document) []api.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Document, 0, len(docs))
	for _, d := range docs {
		d.ID = api.NewID()
		if strings.TrimSpace(d.Name) == "" {
			d.Name = DefaultName(len(s.col.Documents) + 1)
		}
		s.col.Documents = append(s.col.Documents, d)
		out = append(out, d)
	}
	if len(out) > 0 {
		s.col.ActiveID = out[0].ID
	}
	return out
}

// Find fuzzy-matches query against document names, best match first.
// An exact id match wins outright.
func (s *Store) Find(query string) []api.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	query = strings.TrimSpace(query)
	if i := s.col.Index(query); i >= 0 {
		return []api.Document{s.col.Documents[i]}
	}
	if query == "" {
		return append([]api.Document(nil), s.col.Documents...)
	}
	names := make([]string, len(s.col.Documents))
	for i, d := range s.col.Documents {
		names[i] = d.Name
	}
	matches := fuzzy.Find(query, names)
	out := make([]api.Document, 0, len(matches))
	for _, m := range matches {
		out = append(out, s.col.Documents[m.Index])
	}
	return out
}

// ParseCollection decodes an exported collection (envelope or bare array).
func ParseCollection(raw []byte) (api.Collection, error) {
	return decode(raw)
}
