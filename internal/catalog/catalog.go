// Package catalog holds the client's read-only copy of the server's
// document and folder listings. Views are replaced wholesale on every
// fetch; the catalog never mutates individual records.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/user/docdash/internal/session"
	"github.com/user/docdash/pkg/docapi"
)

// ErrEmptyQuery is returned when a search is attempted with a blank query.
var ErrEmptyQuery = errors.New("search query is empty")

// State describes what a view currently shows.
type State string

const (
	StateLoading   State = "loading"
	StatePopulated State = "populated"
	StateEmpty     State = "empty"
	StateFailed    State = "failed"
)

// DocumentView is the current document listing plus the scope and query
// that produced it. Scope is the folder name, empty for the full listing.
type DocumentView struct {
	State State
	Scope string
	Query string
	Docs  []docapi.Document
	Err   error
}

// FolderView is the current folder listing.
type FolderView struct {
	State   State
	Folders []docapi.Folder
	Err     error
}

// Controller fetches listings and installs them as views. Each fetch
// carries a generation number; when fetches race, only the most recently
// started one installs its result. A fetch started before a logout is
// discarded entirely so a stale session can never repopulate the views.
type Controller struct {
	api     *docapi.Client
	session *session.Manager

	mu        sync.RWMutex
	docs      DocumentView
	folders   FolderView
	docGen    atomic.Int64
	folderGen atomic.Int64
}

// New creates a Controller over the API client and session manager.
func New(api *docapi.Client, sess *session.Manager) *Controller {
	return &Controller{api: api, session: sess}
}

// Documents returns a copy of the current document view.
func (c *Controller) Documents() DocumentView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.docs
}

// Folders returns a copy of the current folder view.
func (c *Controller) Folders() FolderView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.folders
}

// RefreshDocuments fetches the document listing. An empty scope fetches
// everything; a non-empty scope fetches the named folder's documents.
// Refreshing an already-current scope is safe and simply replaces the
// view with the fresh server copy.
func (c *Controller) RefreshDocuments(ctx context.Context, scope string) error {
	return c.fetchDocs(ctx, scope, "", func(ctx context.Context) ([]docapi.Document, error) {
		if scope == "" {
			return c.api.ListDocuments(ctx)
		}
		return c.api.FolderDocuments(ctx, scope)
	})
}

// Search fetches documents matching the query, optionally scoped to a
// folder. A blank query is rejected before touching the network.
func (c *Controller) Search(ctx context.Context, query, scope string) error {
	if query == "" {
		return ErrEmptyQuery
	}
	return c.fetchDocs(ctx, scope, query, func(ctx context.Context) ([]docapi.Document, error) {
		return c.api.SearchDocuments(ctx, query, scope)
	})
}

// fetchDocs runs one document fetch under generation and epoch guards.
func (c *Controller) fetchDocs(ctx context.Context, scope, query string, fetch func(context.Context) ([]docapi.Document, error)) error {
	gen := c.docGen.Add(1)
	epoch := c.session.Epoch()

	c.mu.Lock()
	c.docs = DocumentView{State: StateLoading, Scope: scope, Query: query}
	c.mu.Unlock()

	docs, err := fetch(ctx)

	if c.session.Epoch() != epoch {
		slog.Debug("discarding document fetch from previous session")
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.docGen.Load() != gen {
		slog.Debug("discarding superseded document fetch", "scope", scope, "query", query)
		return nil
	}

	if err != nil {
		c.docs = DocumentView{State: StateFailed, Scope: scope, Query: query, Err: err}
		return err
	}
	state := StatePopulated
	if len(docs) == 0 {
		state = StateEmpty
	}
	c.docs = DocumentView{State: state, Scope: scope, Query: query, Docs: docs}
	return nil
}

// RefreshFolders fetches the folder listing.
func (c *Controller) RefreshFolders(ctx context.Context) error {
	gen := c.folderGen.Add(1)
	epoch := c.session.Epoch()

	c.mu.Lock()
	c.folders = FolderView{State: StateLoading}
	c.mu.Unlock()

	folders, err := c.api.ListFolders(ctx)

	if c.session.Epoch() != epoch {
		slog.Debug("discarding folder fetch from previous session")
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.folderGen.Load() != gen {
		slog.Debug("discarding superseded folder fetch")
		return nil
	}

	if err != nil {
		c.folders = FolderView{State: StateFailed, Err: err}
		return err
	}
	state := StatePopulated
	if len(folders) == 0 {
		state = StateEmpty
	}
	c.folders = FolderView{State: state, Folders: folders}
	return nil
}

// Download fetches a document's payload into dir and returns the written
// path. Requires an authenticated session.
func (c *Controller) Download(ctx context.Context, id, dir string) (string, error) {
	if c.session.Token() == "" {
		return "", session.ErrNotAuthenticated
	}
	return c.api.DownloadDocument(ctx, id, dir)
}

// Reset clears both views, returning the catalog to its initial state.
// Called after logout.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = DocumentView{}
	c.folders = FolderView{}
}
