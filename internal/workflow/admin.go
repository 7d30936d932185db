package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/user/docdash/internal/permissions"
	"github.com/user/docdash/internal/session"
	"github.com/user/docdash/pkg/docapi"
)

// ErrAdminNotPermitted is returned when the session's role lacks the
// user-management capability.
var ErrAdminNotPermitted = errors.New("your role cannot manage users")

// ErrSelfRoleChange rejects changing your own role before the request
// leaves the client. The server rejects it too; this just fails faster.
var ErrSelfRoleChange = errors.New("cannot change your own role")

// ErrUnknownRole rejects role values outside the closed enumeration.
var ErrUnknownRole = errors.New("unknown role")

// creditLookups bounds the concurrent per-user usage fetches.
const creditLookups = 4

// UserRow is one line of the admin user table. Credits is the rendered
// credit total; a failed lookup degrades that one cell to an em dash
// rather than failing the whole listing.
type UserRow struct {
	User    docapi.User
	Credits string
}

// Admin runs the user-management workflow.
type Admin struct {
	api     *docapi.Client
	session *session.Manager

	mu   sync.RWMutex
	rows []UserRow
}

// NewAdmin creates an Admin workflow over the API client and session.
func NewAdmin(api *docapi.Client, sess *session.Manager) *Admin {
	return &Admin{api: api, session: sess}
}

// Rows returns the user table from the last successful refresh.
func (a *Admin) Rows() []UserRow {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rows
}

// Refresh fetches the user list and each user's credit total. The
// listing itself must succeed; individual credit lookups may not, and
// each failure only blanks that user's credits cell.
func (a *Admin) Refresh(ctx context.Context) ([]UserRow, error) {
	if !permissions.Can(a.session.Current().Role(), permissions.CanManageUsers) {
		return nil, ErrAdminNotPermitted
	}

	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	rows := make([]UserRow, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(creditLookups)
	for i, user := range users {
		i, user := i, user
		rows[i].User = user
		g.Go(func() error {
			credits, err := a.api.UserUsage(gctx, user.ID)
			if err != nil {
				slog.Warn("credit lookup failed", "user", user.ID, "error", err)
				rows[i].Credits = "—"
				return nil
			}
			rows[i].Credits = strconv.Itoa(credits.TotalCredits)
			return nil
		})
	}
	g.Wait()

	a.mu.Lock()
	a.rows = rows
	a.mu.Unlock()
	return rows, nil
}

// SetRole changes a user's role and refreshes the table. The target role
// must be in the closed enumeration, and the signed-in admin cannot
// change their own role.
func (a *Admin) SetRole(ctx context.Context, userID string, role permissions.Role) (string, error) {
	if !permissions.Can(a.session.Current().Role(), permissions.CanManageUsers) {
		return "", ErrAdminNotPermitted
	}
	if !permissions.Valid(role) {
		return "", fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	if current := a.session.Current().User; current != nil && current.ID == userID {
		return "", ErrSelfRoleChange
	}

	message, err := a.api.SetUserRole(ctx, userID, string(role))
	if err != nil {
		return "", err
	}
	slog.Info("role changed", "user", userID, "role", role)

	if _, err := a.Refresh(ctx); err != nil {
		slog.Warn("user table refresh failed after role change", "error", err)
	}
	return message, nil
}
