package access

import (
	"strings"

	"github.com/cuihairu/faultline/internal/errs"
)

// View selects which dashboard a fault listing serves.
type View string

const (
	ViewAll     View = "all"
	ViewActive  View = "active"
	ViewHistory View = "history"
)

func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return ViewAll, nil
	case ViewAll, ViewActive, ViewHistory:
		return v, nil
	}
	return "", errs.Validation("unknown view %q", s)
}

// Filter is the data restriction a role imposes. Nil means unrestricted.
type Filter struct {
	ChiefdomID   *uint
	ReportedByID *uint
}

var (
	ErrUnsupportedRole = errs.Forbidden("role has no fault access")
	ErrNoChiefdom      = errs.Forbidden("worker has no chiefdom assignment")
)

type scopeRule func(id Identity, view View) (Filter, error)

var scopeRules = map[Role]scopeRule{
	RoleAdmin:       unscoped,
	RoleEngineer:    unscoped,
	RoleCTCWatchman: watchmanScope,
	RoleWorker:      workerScope,
	RoleCTC:         unsupported,
}

func unscoped(Identity, View) (Filter, error) { return Filter{}, nil }

func unsupported(Identity, View) (Filter, error) { return Filter{}, ErrUnsupportedRole }

// The watchman dispatches every open fault but only reviews the history it reported.
func watchmanScope(id Identity, view View) (Filter, error) {
	if view == ViewActive {
		return Filter{}, nil
	}
	uid := id.UserID
	return Filter{ReportedByID: &uid}, nil
}

func workerScope(id Identity, _ View) (Filter, error) {
	if id.ChiefdomID == nil || *id.ChiefdomID == 0 {
		return Filter{}, ErrNoChiefdom
	}
	c := *id.ChiefdomID
	return Filter{ChiefdomID: &c}, nil
}

// ScopeFilter maps the caller and the requested view to the fault filter it is entitled to.
func ScopeFilter(id Identity, view View) (Filter, error) {
	rule, ok := scopeRules[id.Role]
	if !ok {
		return Filter{}, ErrUnsupportedRole
	}
	return rule(id, view)
}

// Narrow intersects the scope with an explicit query. ok is false when the two
// cannot both hold, in which case the result set is empty.
func (f Filter) Narrow(chiefdomID, reportedByID *uint) (Filter, bool) {
	out := f
	if chiefdomID != nil {
		if f.ChiefdomID != nil && *f.ChiefdomID != *chiefdomID {
			return Filter{}, false
		}
		c := *chiefdomID
		out.ChiefdomID = &c
	}
	if reportedByID != nil {
		if f.ReportedByID != nil && *f.ReportedByID != *reportedByID {
			return Filter{}, false
		}
		r := *reportedByID
		out.ReportedByID = &r
	}
	return out, true
}

// Allows reports whether a fault with the given chiefdom and reporter lies inside the filter.
func (f Filter) Allows(chiefdomID, reportedByID uint) bool {
	if f.ChiefdomID != nil && *f.ChiefdomID != chiefdomID {
		return false
	}
	if f.ReportedByID != nil && *f.ReportedByID != reportedByID {
		return false
	}
	return true
}
