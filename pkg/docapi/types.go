package docapi

import (
	"encoding/json"
	"strings"
	"time"
)

// User is the identity returned by /auth/me and /admin/users. The identity
// endpoint historically used "sub" for the record identifier while the
// admin listing uses "id"; both are accepted.
type User struct {
	ID        string
	Email     string
	Role      string
	CreatedAt *time.Time
}

func (u *User) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID        string     `json:"id"`
		Sub       string     `json:"sub"`
		Email     string     `json:"email"`
		Role      string     `json:"role"`
		CreatedAt *time.Time `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.ID = aux.ID
	if u.ID == "" {
		u.ID = aux.Sub
	}
	u.Email = aux.Email
	u.Role = aux.Role
	u.CreatedAt = aux.CreatedAt
	return nil
}

// Document is a server-owned record; the client only ever holds the copy
// from the most recent list fetch. Several historical server shapes exist
// for the identifier and tag fields, resolved in a fixed priority order.
type Document struct {
	ID        string
	Filename  string
	MimeType  string
	Tags      []string
	CreatedAt *time.Time
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var aux struct {
		MongoID   string          `json:"_id"`
		ID        string          `json:"id"`
		IDStr     string          `json:"id_str"`
		Filename  string          `json:"filename"`
		Mime      string          `json:"mime"`
		Tags      json.RawMessage `json:"tags"`
		TagNames  json.RawMessage `json:"tagNames"`
		OldTags   json.RawMessage `json:"_tags"`
		CreatedAt *time.Time      `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	// Identifier priority: _id, then id, then id_str.
	switch {
	case aux.MongoID != "":
		d.ID = aux.MongoID
	case aux.ID != "":
		d.ID = aux.ID
	default:
		d.ID = aux.IDStr
	}

	d.Filename = aux.Filename
	d.MimeType = aux.Mime
	d.CreatedAt = aux.CreatedAt

	for _, raw := range []json.RawMessage{aux.Tags, aux.TagNames, aux.OldTags} {
		if tags := decodeTags(raw); tags != nil {
			d.Tags = tags
			break
		}
	}
	return nil
}

// decodeTags accepts either a JSON array of strings or a single
// comma-separated string.
func decodeTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return nil
}

// Folder is an aggregate over documents sharing a tag. The wire field for
// the document count is "count".
type Folder struct {
	Name          string `json:"name"`
	DocumentCount int    `json:"count"`
}

// Scope identifies the subset of documents an AI action considers.
type Scope struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Message is one turn of the AI action conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ActionRequest is the payload for POST /v1/actions/run. Constructed fresh
// per invocation and never persisted.
type ActionRequest struct {
	Scope    Scope     `json:"scope"`
	Messages []Message `json:"messages"`
	Actions  []string  `json:"actions"`
}

// Downloads holds the artifact URIs an AI run produced.
type Downloads struct {
	Text string `json:"text,omitempty"`
	CSV  string `json:"csv,omitempty"`
}

// ActionResult is the transient outcome of an AI run. Raw keeps the full
// response body for inspection.
type ActionResult struct {
	Message     string          `json:"message"`
	NewDocs     []string        `json:"new_docs"`
	CreditsUsed int             `json:"credits_used"`
	Downloads   *Downloads      `json:"downloads"`
	Raw         json.RawMessage `json:"-"`
}

// UsageSummary is the current user's credit consumption against their cap.
type UsageSummary struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// UserCredits is the credit total for a single (admin-viewed) user.
type UserCredits struct {
	UserID       string `json:"userId"`
	TotalCredits int    `json:"total_credits"`
}

// Metrics is the role-scoped counters from /v1/metrics.
type Metrics struct {
	DocsTotal    int `json:"docs_total"`
	FoldersTotal int `json:"folders_total"`
	ActionsMonth int `json:"actions_month"`
	TasksToday   int `json:"tasks_today"`
}

// UploadResult is the response to a plain document upload.
type UploadResult struct {
	ID string `json:"id"`
}

// OCRResult is the response to an OCR upload.
type OCRResult struct {
	Classification string `json:"classification"`
}
