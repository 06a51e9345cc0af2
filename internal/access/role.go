// Package access holds the role model and the scope policy that decides which
// faults a user may see. ScopeFilter is the only place fault visibility is decided.
package access

import (
	"context"
	"strings"

	"github.com/cuihairu/faultline/internal/errs"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleEngineer    Role = "engineer"
	RoleCTCWatchman Role = "ctc_watchman"
	RoleCTC         Role = "ctc"
	RoleWorker      Role = "worker"
)

var allRoles = []Role{RoleAdmin, RoleEngineer, RoleCTCWatchman, RoleCTC, RoleWorker}

func Roles() []Role { return append([]Role(nil), allRoles...) }

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, x := range allRoles {
		if r == x {
			return r, nil
		}
	}
	return "", errs.Validation("unknown role %q", s)
}

// Identity is the authenticated caller as loaded from the user table.
type Identity struct {
	UserID     uint
	Username   string
	Role       Role
	ChiefdomID *uint
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

type ctxKeyIdentity struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity{}).(Identity)
	return id, ok
}
