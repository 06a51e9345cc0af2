package rbac

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	e, err := NewEnforcer("")
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}
	cases := []struct {
		role, res, act string
		want           bool
	}{
		{"admin", ResUsers, ActDelete, true},
		{"engineer", ResUsers, ActRead, true},
		{"engineer", ResUsers, ActCreate, false},
		{"engineer", ResFaults, ActDelete, true},
		{"ctc_watchman", ResFaults, ActCreate, true},
		{"ctc_watchman", ResOrg, ActUpdate, false},
		{"worker", ResFaults, ActUpdate, true},
		{"worker", ResFaults, ActCreate, false},
		{"worker", ResImages, ActDelete, false},
		{"ctc", ResFaults, ActRead, false},
		{"nobody", ResOrg, ActRead, false},
	}
	for _, c := range cases {
		if got := e.Can(c.role, c.res, c.act); got != c.want {
			t.Errorf("Can(%s,%s,%s)=%v want %v", c.role, c.res, c.act, got, c.want)
		}
	}
}

func TestFilePolicyReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, worker, faults, read\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := NewEnforcer(path)
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}
	if e.PolicyPath() != path {
		t.Fatalf("expected file source, got %q", e.PolicyPath())
	}
	if e.Can("worker", ResFaults, ActUpdate) {
		t.Fatalf("update not granted yet")
	}
	if err := os.WriteFile(path, []byte("p, worker, faults, read\np, worker, faults, update\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !e.Can("worker", ResFaults, ActUpdate) {
		t.Fatalf("reloaded rule not applied")
	}
}

func TestMissingFileFallsBack(t *testing.T) {
	e, err := NewEnforcer(filepath.Join(t.TempDir(), "absent.csv"))
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}
	if e.PolicyPath() != "" || !e.Can("admin", ResOrg, ActCreate) {
		t.Fatalf("expected built-in policy")
	}
}
