package docapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRunActionsPayloadAndRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/actions/run" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Scope.Type != "folder" || req.Scope.Name != "invoices" {
			t.Errorf("unexpected scope: %+v", req.Scope)
		}
		if len(req.Actions) != 2 || req.Actions[0] != "make_document" || req.Actions[1] != "make_csv" {
			t.Errorf("unexpected actions: %v", req.Actions)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"credits_used": 3,
			"downloads":    map[string]string{"csv": "/files/r.csv"},
		})
	}))
	defer server.Close()

	result, err := testClient(server.URL, "tok").RunActions(context.Background(), &ActionRequest{
		Scope:    Scope{Type: "folder", Name: "invoices"},
		Messages: []Message{{Role: "user", Content: "summarize"}},
		Actions:  []string{"make_document", "make_csv"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.CreditsUsed != 3 {
		t.Errorf("expected 3 credits, got %d", result.CreditsUsed)
	}
	if result.Downloads == nil || result.Downloads.CSV != "/files/r.csv" {
		t.Errorf("unexpected downloads: %+v", result.Downloads)
	}
	if result.Downloads.Text != "" {
		t.Error("unexpected text download")
	}
	if !strings.Contains(string(result.Raw), "credits_used") {
		t.Errorf("raw payload not retained: %s", result.Raw)
	}
}

func TestUsageSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/actions/usage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]int{"used": 12, "limit": 50})
	}))
	defer server.Close()

	summary, err := testClient(server.URL, "tok").Usage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Used != 12 || summary.Limit != 50 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestUserUsagePath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/actions/usage/u42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"userId": "u42", "total_credits": 7})
	}))
	defer server.Close()

	credits, err := testClient(server.URL, "tok").UserUsage(context.Background(), "u42")
	if err != nil {
		t.Fatal(err)
	}
	if credits.TotalCredits != 7 {
		t.Errorf("expected 7 credits, got %d", credits.TotalCredits)
	}
}

func TestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/metrics" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]int{
			"docs_total": 10, "folders_total": 3, "actions_month": 5, "tasks_today": 1,
		})
	}))
	defer server.Close()

	m, err := testClient(server.URL, "tok").Metrics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if m.DocsTotal != 10 || m.ActionsMonth != 5 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}
