package docapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// RunActions executes a scoped AI action. The full response body is kept
// on the result's Raw field for inspection.
func (c *Client) RunActions(ctx context.Context, reqBody *ActionRequest) (*ActionResult, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/actions/run", nil, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}
	body, err := c.doRaw(req)
	if err != nil {
		return nil, err
	}
	var result ActionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	result.Raw = append(json.RawMessage(nil), body...)
	return &result, nil
}

// Usage returns the current user's credit consumption and cap.
func (c *Client) Usage(ctx context.Context) (*UsageSummary, error) {
	var summary UsageSummary
	if err := c.getJSON(ctx, "/v1/actions/usage", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// MonthlyUsage returns the current user's credit total for the calendar
// month so far.
func (c *Client) MonthlyUsage(ctx context.Context) (*UserCredits, error) {
	var credits UserCredits
	if err := c.getJSON(ctx, "/v1/actions/usage/month", nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

// UserUsage returns the credit total for the given user. Admin only.
func (c *Client) UserUsage(ctx context.Context, userID string) (*UserCredits, error) {
	var credits UserCredits
	if err := c.getJSON(ctx, "/v1/actions/usage/"+url.PathEscape(userID), nil, &credits); err != nil {
		return nil, err
	}
	return &credits, nil
}

// Metrics returns the role-scoped dashboard counters.
func (c *Client) Metrics(ctx context.Context) (*Metrics, error) {
	var m Metrics
	if err := c.getJSON(ctx, "/v1/metrics", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
