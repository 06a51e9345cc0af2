package access

import (
	"errors"
	"testing"

	"github.com/cuihairu/faultline/internal/errs"
)

func uptr(v uint) *uint { return &v }

func TestScopeFilterRules(t *testing.T) {
	cases := []struct {
		name     string
		id       Identity
		view     View
		chiefdom *uint
		reporter *uint
		err      error
	}{
		{name: "admin unscoped", id: Identity{UserID: 1, Role: RoleAdmin}, view: ViewAll},
		{name: "engineer unscoped", id: Identity{UserID: 2, Role: RoleEngineer}, view: ViewHistory},
		{name: "worker pinned to chiefdom", id: Identity{UserID: 3, Role: RoleWorker, ChiefdomID: uptr(9)}, view: ViewActive, chiefdom: uptr(9)},
		{name: "worker without chiefdom", id: Identity{UserID: 3, Role: RoleWorker}, view: ViewAll, err: ErrNoChiefdom},
		{name: "watchman active queue", id: Identity{UserID: 4, Role: RoleCTCWatchman}, view: ViewActive},
		{name: "watchman history", id: Identity{UserID: 4, Role: RoleCTCWatchman}, view: ViewHistory, reporter: uptr(4)},
		{name: "ctc unsupported", id: Identity{UserID: 5, Role: RoleCTC}, view: ViewActive, err: ErrUnsupportedRole},
		{name: "unknown role", id: Identity{UserID: 6, Role: "guest"}, view: ViewAll, err: ErrUnsupportedRole},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := ScopeFilter(c.id, c.view)
			if c.err != nil {
				if !errors.Is(err, c.err) || !errors.Is(err, errs.ErrForbidden) {
					t.Fatalf("want %v, got %v", c.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !eq(f.ChiefdomID, c.chiefdom) || !eq(f.ReportedByID, c.reporter) {
				t.Fatalf("unexpected filter %+v", f)
			}
		})
	}
}

func eq(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func TestNarrowNeverWidens(t *testing.T) {
	worker := Filter{ChiefdomID: uptr(1)}
	if _, ok := worker.Narrow(uptr(2), nil); ok {
		t.Fatalf("worker asking for another chiefdom must yield nothing")
	}
	f, ok := worker.Narrow(uptr(1), uptr(7))
	if !ok || *f.ChiefdomID != 1 || *f.ReportedByID != 7 {
		t.Fatalf("unexpected narrow result %+v %v", f, ok)
	}
	open, ok := Filter{}.Narrow(uptr(3), nil)
	if !ok || *open.ChiefdomID != 3 || open.ReportedByID != nil {
		t.Fatalf("unscoped narrow should adopt query: %+v", open)
	}
}

func TestAllows(t *testing.T) {
	f := Filter{ChiefdomID: uptr(1)}
	if !f.Allows(1, 99) || f.Allows(2, 99) {
		t.Fatalf("chiefdom filter mismatch")
	}
	if !(Filter{}).Allows(5, 5) {
		t.Fatalf("empty filter allows everything")
	}
}

func TestParseRoleAndView(t *testing.T) {
	if r, err := ParseRole(" Worker "); err != nil || r != RoleWorker {
		t.Fatalf("parse role: %v %v", r, err)
	}
	if _, err := ParseRole("root"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if v, err := ParseView(""); err != nil || v != ViewAll {
		t.Fatalf("empty view defaults to all: %v %v", v, err)
	}
	if _, err := ParseView("resolved"); err == nil {
		t.Fatalf("expected error for unknown view")
	}
}
