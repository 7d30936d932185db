package docapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response whose body has been normalized into a
// single human-readable detail string.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("API error (status %d)", e.Status)
	}
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Detail)
}

// ProtocolError is a 2xx response missing a field the contract requires.
// It is distinct from APIError so callers can tell a broken server apart
// from a rejected request.
type ProtocolError struct {
	Endpoint string
	Missing  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s returned no %s (check server)", e.Endpoint, e.Missing)
}

// errorBody covers the error shapes the server has emitted over time:
// a structured validation list under "detail", a plain string under
// "detail", or a "message"/"error" field.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Err     string          `json:"error"`
}

// validationError is one entry of a structured validation failure.
// Location parts can be strings or numbers, so they decode as any.
type validationError struct {
	Msg string `json:"msg"`
	Loc []any  `json:"loc"`
}

func (v validationError) String() string {
	if len(v.Loc) == 0 {
		return v.Msg
	}
	parts := make([]string, len(v.Loc))
	for i, loc := range v.Loc {
		parts[i] = fmt.Sprintf("%v", loc)
	}
	return fmt.Sprintf("%s (%s)", v.Msg, strings.Join(parts, " → "))
}

// normalizeError flattens whatever error payload the server sent into one
// readable message, falling back to the status text.
func normalizeError(body []byte, fallback string) string {
	if len(body) == 0 {
		return fallback
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		// Not an object; a bare JSON string is still a usable message.
		var s string
		if err := json.Unmarshal(body, &s); err == nil && s != "" {
			return s
		}
		return fallback
	}

	if len(eb.Detail) > 0 {
		var list []validationError
		if err := json.Unmarshal(eb.Detail, &list); err == nil && len(list) > 0 {
			msgs := make([]string, len(list))
			for i, v := range list {
				msgs[i] = v.String()
			}
			return strings.Join(msgs, ", ")
		}
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil && s != "" {
			return s
		}
	}
	if eb.Message != "" {
		return eb.Message
	}
	if eb.Err != "" {
		return eb.Err
	}
	return fallback
}
