package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/user/docdash/internal/permissions"
	"github.com/user/docdash/internal/session"
	"github.com/user/docdash/pkg/docapi"
)

// ErrActionsNotPermitted is returned when the session's role lacks the
// AI capability.
var ErrActionsNotPermitted = errors.New("your role cannot run AI actions")

// DefaultPrompt seeds the conversation when the caller provides none.
const DefaultPrompt = "Summarize the documents and generate CSV if needed."

// Artifact is a downloadable output an AI run produced.
type Artifact struct {
	Kind string // "text" or "csv"
	URI  string
	Name string
}

// ActionRunner runs the AI action workflow. Artifacts from the latest
// successful run replace the previous run's; a failed run clears them.
type ActionRunner struct {
	api     *docapi.Client
	session *session.Manager
	hooks   RefreshHooks

	mu        sync.Mutex
	last      *Run
	result    *docapi.ActionResult
	artifacts []Artifact
}

// NewActionRunner creates an ActionRunner. Hooks fire only after a
// successful run, since a failed run changes nothing server-side worth
// refetching.
func NewActionRunner(api *docapi.Client, sess *session.Manager, hooks RefreshHooks) *ActionRunner {
	return &ActionRunner{api: api, session: sess, hooks: hooks}
}

// Last returns a copy of the most recent run.
func (a *ActionRunner) Last() Run {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return Run{Status: StatusIdle}
	}
	return *a.last
}

// Result returns the latest successful run's server response, or nil.
func (a *ActionRunner) Result() *docapi.ActionResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Artifacts returns the download affordances from the latest successful
// run.
func (a *ActionRunner) Artifacts() []Artifact {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.artifacts
}

// Run submits one AI action request over the given scope. An empty
// prompt falls back to DefaultPrompt. The action list comes from the
// two want flags, always in the order make_document then make_csv.
func (a *ActionRunner) Run(ctx context.Context, scope docapi.Scope, prompt string, wantDocument, wantCSV bool) (Run, error) {
	run := newRun()
	a.mu.Lock()
	a.last = run
	a.result = nil
	a.artifacts = nil
	a.mu.Unlock()

	if !permissions.Can(a.session.Current().Role(), permissions.CanRunAI) {
		run.fail(ErrActionsNotPermitted)
		return *run, run.Err
	}
	if a.session.Token() == "" {
		run.fail(session.ErrNotAuthenticated)
		return *run, run.Err
	}

	if prompt == "" {
		prompt = DefaultPrompt
	}
	var actions []string
	if wantDocument {
		actions = append(actions, "make_document")
	}
	if wantCSV {
		actions = append(actions, "make_csv")
	}
	req := &docapi.ActionRequest{
		Scope:    scope,
		Messages: []docapi.Message{{Role: "user", Content: prompt}},
		Actions:  actions,
	}

	run.Status = StatusSubmitting
	result, err := a.api.RunActions(ctx, req)
	if err != nil {
		run.fail(err)
		return *run, run.Err
	}

	message := result.Message
	if message == "" {
		message = "Action completed"
	}
	run.succeed(message)

	a.mu.Lock()
	a.result = result
	a.artifacts = artifactsFrom(result)
	a.mu.Unlock()

	slog.Info("action run complete", "credits", result.CreditsUsed, "new_docs", len(result.NewDocs))
	a.hooks.run(ctx)
	return *run, nil
}

// Download fetches one artifact into dir and returns the written path.
func (a *ActionRunner) Download(ctx context.Context, artifact Artifact, dir string) (string, error) {
	return a.api.DownloadFile(ctx, artifact.URI, dir, artifact.Name)
}

func artifactsFrom(result *docapi.ActionResult) []Artifact {
	if result.Downloads == nil {
		return nil
	}
	var artifacts []Artifact
	if result.Downloads.Text != "" {
		artifacts = append(artifacts, Artifact{Kind: "text", URI: result.Downloads.Text, Name: "summary.txt"})
	}
	if result.Downloads.CSV != "" {
		artifacts = append(artifacts, Artifact{Kind: "csv", URI: result.Downloads.CSV, Name: "report.csv"})
	}
	return artifacts
}
