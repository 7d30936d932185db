package docapi

import (
	"context"
	"net/http"
	"net/url"
)

// ListUsers fetches every account. Admin only; the server enforces this
// regardless of the client-side capability gate.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

type roleChangeResponse struct {
	Message string `json:"message"`
}

// SetUserRole changes a user's role and returns the server's confirmation
// message (or a generic one when the server omits it).
func (c *Client) SetUserRole(ctx context.Context, userID, newRole string) (string, error) {
	q := url.Values{}
	q.Set("new_role", newRole)
	path := "/admin/users/" + url.PathEscape(userID) + "/role"
	req, err := c.newRequest(ctx, http.MethodPost, path, q, nil, "")
	if err != nil {
		return "", err
	}
	var resp roleChangeResponse
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	if resp.Message == "" {
		resp.Message = "Role updated"
	}
	return resp.Message, nil
}
