package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/docdash/internal/catalog"
	"github.com/user/docdash/internal/config"
	"github.com/user/docdash/internal/dashboard"
	"github.com/user/docdash/internal/session"
	"github.com/user/docdash/internal/workflow"
	"github.com/user/docdash/pkg/docapi"
)

// app wires the client stack for one command invocation.
type app struct {
	cfg     *config.Config
	api     *docapi.Client
	session *session.Manager
	catalog *catalog.Controller
	theme   dashboard.Theme
}

func newApp() *app {
	cfg := loadConfig()

	var store session.TokenStore
	if cfg.TokenStore == "keyring" {
		store = session.NewKeyringStore()
	} else {
		store = session.NewFileStore(cfg.DataDir)
	}

	mgr := session.NewManager(store)
	api := docapi.New(&docapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	}, mgr.Token)
	mgr.SetClient(api)

	return &app{
		cfg:     cfg,
		api:     api,
		session: mgr,
		catalog: catalog.New(api, mgr),
		theme:   dashboard.ByName(cfg.Theme),
	}
}

// requireSession restores the stored session and fails with a friendly
// message when there is none.
func (a *app) requireSession(ctx context.Context) error {
	err := a.session.Restore(ctx)
	if errors.Is(err, session.ErrNotAuthenticated) {
		return fmt.Errorf("not logged in, run 'docdash login' first")
	}
	return err
}

// refreshHooks builds the post-mutation refresh set for workflows. Each
// hook swallows its own failure; the triggering operation already
// succeeded.
func (a *app) refreshHooks() workflow.RefreshHooks {
	return workflow.RefreshHooks{
		Documents: func(ctx context.Context) { a.catalog.RefreshDocuments(ctx, "") },
		Folders:   func(ctx context.Context) { a.catalog.RefreshFolders(ctx) },
	}
}
