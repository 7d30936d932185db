package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/docdash/internal/session"
	"github.com/user/docdash/pkg/docapi"
)

// loggedIn builds a client and session authenticated with the given role.
// Requests outside the auth endpoints are passed to handler.
func loggedIn(t *testing.T, role string, handler http.HandlerFunc) (*docapi.Client, *session.Manager) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
		case "/auth/me":
			json.NewEncoder(w).Encode(map[string]any{"sub": "self", "email": "me@x.com", "role": role})
		default:
			handler(w, r)
		}
	}))
	t.Cleanup(server.Close)

	mgr := session.NewManager(session.NewFileStore(t.TempDir()))
	api := docapi.New(&docapi.Config{BaseURL: server.URL}, mgr.Token)
	mgr.SetClient(api)
	if err := mgr.Login(context.Background(), "me@x.com", "pw"); err != nil {
		t.Fatal(err)
	}
	return api, mgr
}

func tempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadSuccess(t *testing.T) {
	uploaded := false
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/docs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("primaryTag") != "invoices" {
			t.Errorf("missing primaryTag, got %s", r.URL.RawQuery)
		}
		uploaded = true
		json.NewEncoder(w).Encode(map[string]string{"id": "d1"})
	})

	refreshed := 0
	hooks := RefreshHooks{
		Documents: func(ctx context.Context) { refreshed++ },
		Folders:   func(ctx context.Context) { refreshed++ },
	}
	up := NewUploader(api, mgr, hooks)

	run, err := up.Upload(context.Background(), UploadRequest{
		Path:       tempFile(t, "a.pdf", "data"),
		PrimaryTag: "invoices",
	})
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != StatusSucceeded {
		t.Errorf("expected succeeded, got %s", run.Status)
	}
	if run.Message != "Uploaded successfully" {
		t.Errorf("unexpected message: %q", run.Message)
	}
	if !uploaded {
		t.Error("upload never reached the server")
	}
	if refreshed != 2 {
		t.Errorf("expected both refresh hooks to fire, got %d", refreshed)
	}
	if up.Last().ID != run.ID {
		t.Error("Last should report the run just executed")
	}
}

func TestUploadOCRMessage(t *testing.T) {
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/docs/ocr-scan" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"classification": "invoice"})
	})
	up := NewUploader(api, mgr, RefreshHooks{})

	run, err := up.Upload(context.Background(), UploadRequest{
		Path: tempFile(t, "scan.png", "img"),
		OCR:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if run.Message != "OCR processed (invoice)" {
		t.Errorf("unexpected message: %q", run.Message)
	}
}

func TestUploadOCRDefaultClassification(t *testing.T) {
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})
	up := NewUploader(api, mgr, RefreshHooks{})

	run, err := up.Upload(context.Background(), UploadRequest{
		Path: tempFile(t, "scan.png", "img"),
		OCR:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if run.Message != "OCR processed (ok)" {
		t.Errorf("unexpected message: %q", run.Message)
	}
}

func TestUploadCapabilityCheckedFirst(t *testing.T) {
	api, mgr := loggedIn(t, "support", func(w http.ResponseWriter, r *http.Request) {
		t.Error("forbidden upload must not reach the server")
	})
	up := NewUploader(api, mgr, RefreshHooks{})

	// No file either, but the capability failure must win.
	run, err := up.Upload(context.Background(), UploadRequest{})
	if err != ErrUploadNotPermitted {
		t.Fatalf("expected ErrUploadNotPermitted, got %v", err)
	}
	if run.Status != StatusFailed {
		t.Errorf("expected failed, got %s", run.Status)
	}
}

func TestUploadMissingFile(t *testing.T) {
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		t.Error("fileless upload must not reach the server")
	})
	up := NewUploader(api, mgr, RefreshHooks{})

	if _, err := up.Upload(context.Background(), UploadRequest{}); err != ErrNoFile {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
}

func TestUploadPlainRequiresPrimaryTag(t *testing.T) {
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		t.Error("untagged plain upload must not reach the server")
	})
	up := NewUploader(api, mgr, RefreshHooks{})

	_, err := up.Upload(context.Background(), UploadRequest{Path: tempFile(t, "a.pdf", "x")})
	if err != ErrTagsRequired {
		t.Fatalf("expected ErrTagsRequired, got %v", err)
	}
}

func TestUploadAfterLogoutDenied(t *testing.T) {
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		t.Error("post-logout upload must not reach the server")
	})
	up := NewUploader(api, mgr, RefreshHooks{})
	mgr.Logout()

	_, err := up.Upload(context.Background(), UploadRequest{Path: tempFile(t, "a.pdf", "x")})
	if err != ErrUploadNotPermitted {
		t.Fatalf("expected ErrUploadNotPermitted, got %v", err)
	}
}

func TestUploadFailureSkipsHooks(t *testing.T) {
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		json.NewEncoder(w).Encode(map[string]string{"detail": "file too large"})
	})
	fired := false
	up := NewUploader(api, mgr, RefreshHooks{Documents: func(ctx context.Context) { fired = true }})

	run, err := up.Upload(context.Background(), UploadRequest{Path: tempFile(t, "big.pdf", "x"), PrimaryTag: "misc"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if run.Status != StatusFailed {
		t.Errorf("expected failed, got %s", run.Status)
	}
	if fired {
		t.Error("hooks must not fire on failure")
	}
}

func TestActionRunPayload(t *testing.T) {
	var got docapi.ActionRequest
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/actions/run" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"message": "done", "credits_used": 3})
	})
	runner := NewActionRunner(api, mgr, RefreshHooks{})

	run, err := runner.Run(context.Background(), docapi.Scope{Type: "all"}, "", true, true)
	if err != nil {
		t.Fatal(err)
	}
	if run.Message != "done" {
		t.Errorf("unexpected message: %q", run.Message)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != DefaultPrompt {
		t.Errorf("empty prompt should fall back to the default, got %+v", got.Messages)
	}
	if len(got.Actions) != 2 || got.Actions[0] != "make_document" || got.Actions[1] != "make_csv" {
		t.Errorf("actions must be the fixed ordered set, got %v", got.Actions)
	}
	if runner.Result() == nil || runner.Result().CreditsUsed != 3 {
		t.Errorf("result should be retained: %+v", runner.Result())
	}
}

func TestActionSubsetOfActions(t *testing.T) {
	var got docapi.ActionRequest
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"message": "ok"})
	})
	runner := NewActionRunner(api, mgr, RefreshHooks{})

	if _, err := runner.Run(context.Background(), docapi.Scope{Type: "all"}, "p", true, false); err != nil {
		t.Fatal(err)
	}
	if len(got.Actions) != 1 || got.Actions[0] != "make_document" {
		t.Errorf("only the requested action should be sent, got %v", got.Actions)
	}
}

func TestActionArtifactsReplacePrevious(t *testing.T) {
	withCSV := true
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		downloads := map[string]string{"text": "/files/t.txt"}
		if withCSV {
			downloads["csv"] = "/files/r.csv"
		}
		json.NewEncoder(w).Encode(map[string]any{"message": "ok", "downloads": downloads})
	})
	runner := NewActionRunner(api, mgr, RefreshHooks{})
	ctx := context.Background()

	if _, err := runner.Run(ctx, docapi.Scope{Type: "all"}, "p", true, true); err != nil {
		t.Fatal(err)
	}
	if got := runner.Artifacts(); len(got) != 2 {
		t.Fatalf("expected text and csv artifacts, got %+v", got)
	}

	withCSV = false
	if _, err := runner.Run(ctx, docapi.Scope{Type: "all"}, "p", true, true); err != nil {
		t.Fatal(err)
	}
	got := runner.Artifacts()
	if len(got) != 1 || got[0].Kind != "text" || got[0].Name != "summary.txt" {
		t.Errorf("artifacts should be replaced wholesale, got %+v", got)
	}
}

func TestActionFailureClearsArtifacts(t *testing.T) {
	fail := false
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(map[string]string{"detail": "out of credits"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"message": "ok", "downloads": map[string]string{"text": "/files/t.txt"}})
	})
	runner := NewActionRunner(api, mgr, RefreshHooks{})
	ctx := context.Background()

	if _, err := runner.Run(ctx, docapi.Scope{Type: "all"}, "p", true, true); err != nil {
		t.Fatal(err)
	}
	fail = true
	if _, err := runner.Run(ctx, docapi.Scope{Type: "all"}, "p", true, true); err == nil {
		t.Fatal("expected an error")
	}
	if got := runner.Artifacts(); got != nil {
		t.Errorf("failed run should clear artifacts, got %+v", got)
	}
	if runner.Result() != nil {
		t.Error("failed run should clear the retained result")
	}
}

func TestActionGatedByRole(t *testing.T) {
	api, mgr := loggedIn(t, "support", func(w http.ResponseWriter, r *http.Request) {
		t.Error("forbidden run must not reach the server")
	})
	runner := NewActionRunner(api, mgr, RefreshHooks{})

	if _, err := runner.Run(context.Background(), docapi.Scope{Type: "all"}, "p", true, true); err != ErrActionsNotPermitted {
		t.Fatalf("expected ErrActionsNotPermitted, got %v", err)
	}
}

func TestActionRunAfterLogoutDenied(t *testing.T) {
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		t.Error("post-logout run must not reach the server")
	})
	runner := NewActionRunner(api, mgr, RefreshHooks{})
	mgr.Logout()

	if _, err := runner.Run(context.Background(), docapi.Scope{Type: "all"}, "p", true, true); err != ErrActionsNotPermitted {
		t.Fatalf("expected ErrActionsNotPermitted, got %v", err)
	}
}

func TestAdminAfterLogoutDenied(t *testing.T) {
	api, mgr := loggedIn(t, "admin", func(w http.ResponseWriter, r *http.Request) {
		t.Error("post-logout admin call must not reach the server")
	})
	admin := NewAdmin(api, mgr)
	mgr.Logout()

	if _, err := admin.Refresh(context.Background()); err != ErrAdminNotPermitted {
		t.Fatalf("expected ErrAdminNotPermitted, got %v", err)
	}
	if _, err := admin.SetRole(context.Background(), "u1", "user"); err != ErrAdminNotPermitted {
		t.Fatalf("expected ErrAdminNotPermitted, got %v", err)
	}
}

func TestAdminRefreshDegradesCreditCell(t *testing.T) {
	api, mgr := loggedIn(t, "admin", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/users":
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": "u1", "email": "a@x.com", "role": "user"},
				{"id": "u2", "email": "b@x.com", "role": "support"},
			})
		case "/v1/actions/usage/u1":
			json.NewEncoder(w).Encode(map[string]any{"userId": "u1", "total_credits": 12})
		case "/v1/actions/usage/u2":
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"detail": "boom"})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})
	admin := NewAdmin(api, mgr)

	rows, err := admin.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Credits != "12" {
		t.Errorf("expected credits '12', got %q", rows[0].Credits)
	}
	if rows[1].Credits != "—" {
		t.Errorf("failed lookup should degrade that cell only, got %q", rows[1].Credits)
	}
}

func TestAdminSelfRoleChangeRejected(t *testing.T) {
	api, mgr := loggedIn(t, "admin", func(w http.ResponseWriter, r *http.Request) {
		t.Error("self role change must not reach the server")
	})
	admin := NewAdmin(api, mgr)

	// The logged-in identity has ID "self".
	if _, err := admin.SetRole(context.Background(), "self", "user"); err != ErrSelfRoleChange {
		t.Fatalf("expected ErrSelfRoleChange, got %v", err)
	}
}

func TestAdminUnknownRoleRejected(t *testing.T) {
	api, mgr := loggedIn(t, "admin", func(w http.ResponseWriter, r *http.Request) {
		t.Error("unknown role must not reach the server")
	})
	admin := NewAdmin(api, mgr)

	_, err := admin.SetRole(context.Background(), "u1", "moderator")
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestAdminSetRoleRefetches(t *testing.T) {
	listed := 0
	api, mgr := loggedIn(t, "admin", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/admin/users/u1/role":
			if r.URL.Query().Get("new_role") != "support" {
				t.Errorf("missing new_role, got %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(map[string]string{"message": "Role updated"})
		case r.URL.Path == "/admin/users":
			listed++
			json.NewEncoder(w).Encode([]map[string]any{{"id": "u1", "email": "a@x.com", "role": "support"}})
		default:
			json.NewEncoder(w).Encode(map[string]any{"userId": "u1", "total_credits": 0})
		}
	})
	admin := NewAdmin(api, mgr)

	message, err := admin.SetRole(context.Background(), "u1", "support")
	if err != nil {
		t.Fatal(err)
	}
	if message != "Role updated" {
		t.Errorf("unexpected message: %q", message)
	}
	if listed != 1 {
		t.Errorf("role change should refetch the user table, got %d listings", listed)
	}
	if rows := admin.Rows(); len(rows) != 1 || rows[0].User.Role != "support" {
		t.Errorf("rows should reflect the refetched table: %+v", rows)
	}
}

func TestAdminGatedByRole(t *testing.T) {
	api, mgr := loggedIn(t, "user", func(w http.ResponseWriter, r *http.Request) {
		t.Error("forbidden listing must not reach the server")
	})
	admin := NewAdmin(api, mgr)

	if _, err := admin.Refresh(context.Background()); err != ErrAdminNotPermitted {
		t.Fatalf("expected ErrAdminNotPermitted, got %v", err)
	}
	if _, err := admin.SetRole(context.Background(), "u1", "user"); err != ErrAdminNotPermitted {
		t.Fatalf("expected ErrAdminNotPermitted, got %v", err)
	}
}
