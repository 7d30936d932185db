// Package dashboard renders the role-gated overview as styled terminal
// text. Rendering is pure: functions take snapshots and return strings,
// so they are trivially testable and never touch the network.
package dashboard

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/docdash/internal/catalog"
	"github.com/user/docdash/internal/workflow"
	"github.com/user/docdash/pkg/docapi"
)

// Theme is a named set of styles. The name round-trips through config.
type Theme struct {
	Name    string
	Header  lipgloss.Style
	Accent  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
}

// Dark is the default theme.
var Dark = Theme{
	Name:    "dark",
	Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
	Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
	Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

// Light adapts the palette for light terminal backgrounds.
var Light = Theme{
	Name:    "light",
	Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
	Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color("90")),
	Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
}

// ByName resolves a configured theme name, defaulting to Dark.
func ByName(name string) Theme {
	if name == "light" {
		return Light
	}
	return Dark
}

// RenderDocuments renders a document view. The scope and query that
// produced the listing appear in the header so the reader knows what
// they are looking at.
func (t Theme) RenderDocuments(view catalog.DocumentView) string {
	var b strings.Builder
	header := "Documents"
	if view.Scope != "" {
		header += " / " + view.Scope
	}
	if view.Query != "" {
		header += fmt.Sprintf(" (search: %q)", view.Query)
	}
	b.WriteString(t.Header.Render(header) + "\n")

	switch view.State {
	case catalog.StateLoading:
		b.WriteString(t.Muted.Render("loading...") + "\n")
	case catalog.StateFailed:
		b.WriteString(t.Error.Render("failed: "+view.Err.Error()) + "\n")
	case catalog.StateEmpty:
		b.WriteString(t.Muted.Render("no documents") + "\n")
	case catalog.StatePopulated:
		w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, doc := range view.Docs {
			tags := strings.Join(doc.Tags, ",")
			created := ""
			if doc.CreatedAt != nil {
				created = doc.CreatedAt.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				t.Muted.Render(doc.ID), doc.Filename, t.Accent.Render(tags), t.Muted.Render(created))
		}
		w.Flush()
	}
	return b.String()
}

// RenderFolders renders a folder view.
func (t Theme) RenderFolders(view catalog.FolderView) string {
	var b strings.Builder
	b.WriteString(t.Header.Render("Folders") + "\n")

	switch view.State {
	case catalog.StateLoading:
		b.WriteString(t.Muted.Render("loading...") + "\n")
	case catalog.StateFailed:
		b.WriteString(t.Error.Render("failed: "+view.Err.Error()) + "\n")
	case catalog.StateEmpty:
		b.WriteString(t.Muted.Render("no folders") + "\n")
	case catalog.StatePopulated:
		w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, folder := range view.Folders {
			fmt.Fprintf(w, "%s\t%s\n", t.Accent.Render(folder.Name),
				t.Muted.Render(fmt.Sprintf("%d docs", folder.DocumentCount)))
		}
		w.Flush()
	}
	return b.String()
}

// RenderUsers renders the admin user table.
func (t Theme) RenderUsers(rows []workflow.UserRow) string {
	var b strings.Builder
	b.WriteString(t.Header.Render("Users") + "\n")
	if len(rows) == 0 {
		b.WriteString(t.Muted.Render("no users") + "\n")
		return b.String()
	}
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		t.Muted.Render("ID"), t.Muted.Render("EMAIL"), t.Muted.Render("ROLE"), t.Muted.Render("CREDITS"))
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			row.User.ID, row.User.Email, t.Accent.Render(row.User.Role), row.Credits)
	}
	w.Flush()
	return b.String()
}

// RenderUsage renders the current user's credit consumption.
func (t Theme) RenderUsage(usage *docapi.UsageSummary) string {
	if usage == nil {
		return t.Muted.Render("usage unavailable") + "\n"
	}
	line := fmt.Sprintf("Credits: %d / %d", usage.Used, usage.Limit)
	if usage.Limit > 0 && usage.Used >= usage.Limit {
		return t.Error.Render(line) + "\n"
	}
	return t.Accent.Render(line) + "\n"
}

// RenderMetrics renders the service counters.
func (t Theme) RenderMetrics(m *docapi.Metrics) string {
	var b strings.Builder
	b.WriteString(t.Header.Render("Metrics") + "\n")
	if m == nil {
		b.WriteString(t.Muted.Render("metrics unavailable") + "\n")
		return b.String()
	}
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "documents\t%d\n", m.DocsTotal)
	fmt.Fprintf(w, "folders\t%d\n", m.FoldersTotal)
	fmt.Fprintf(w, "actions this month\t%d\n", m.ActionsMonth)
	fmt.Fprintf(w, "tasks today\t%d\n", m.TasksToday)
	w.Flush()
	return b.String()
}

// RenderStatus renders a workflow run outcome.
func (t Theme) RenderStatus(run workflow.Run) string {
	switch run.Status {
	case workflow.StatusSucceeded:
		return t.Success.Render(run.Message) + "\n"
	case workflow.StatusFailed:
		return t.Error.Render(run.Message) + "\n"
	case workflow.StatusValidating, workflow.StatusSubmitting:
		return t.Muted.Render(string(run.Status)+"...") + "\n"
	default:
		return ""
	}
}
