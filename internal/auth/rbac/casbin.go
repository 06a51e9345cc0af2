package rbac

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/zeromicro/go-zero/core/logx"
)

// Resources gated by the enforcer.
const (
	ResFaults = "faults"
	ResImages = "images"
	ResOrg    = "org"
	ResUsers  = "users"
)

// Actions gated by the enforcer.
const (
	ActRead   = "read"
	ActCreate = "create"
	ActUpdate = "update"
	ActDelete = "delete"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj) && keyMatch(r.act, p.act)
`

// DefaultPolicy is used when no policy file is configured or the file is missing.
const DefaultPolicy = `p, admin, *, *
p, engineer, *, read
p, engineer, faults, *
p, engineer, images, *
p, ctc_watchman, faults, *
p, ctc_watchman, images, *
p, ctc_watchman, org, read
p, worker, faults, read
p, worker, faults, update
p, worker, images, read
p, worker, org, read
`

// Enforcer wraps a synced casbin enforcer deciding role -> (resource, action).
type Enforcer struct {
	e          *casbin.SyncedEnforcer
	policyPath string
	reloads    atomic.Int64
}

// NewEnforcer loads policyPath when it exists, otherwise DefaultPolicy.
func NewEnforcer(policyPath string) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	var adapter persist.Adapter
	if policyPath != "" && fileExists(policyPath) {
		adapter = fileadapter.NewAdapter(policyPath)
	} else {
		if policyPath != "" {
			logx.Infof("[RBAC] policy file %s not found, using built-in policy", policyPath)
		}
		policyPath = ""
		adapter = stringadapter.NewAdapter(strings.TrimSpace(DefaultPolicy))
	}
	e, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	return &Enforcer{e: e, policyPath: policyPath}, nil
}

// Can reports whether role may perform action on resource. Enforcement errors deny.
func (x *Enforcer) Can(role, resource, action string) bool {
	ok, err := x.e.Enforce(role, resource, action)
	if err != nil {
		logx.Errorf("[RBAC] enforce %s %s:%s: %v", role, resource, action, err)
		return false
	}
	return ok
}

// Reload re-reads the policy source. A failed reload keeps the previous rules.
func (x *Enforcer) Reload() error {
	if err := x.e.LoadPolicy(); err != nil {
		return err
	}
	n := x.reloads.Add(1)
	logx.Infof("[RBAC] policy reloaded (%d) from %s", n, x.source())
	return nil
}

// PolicyPath is empty when the built-in policy is in use.
func (x *Enforcer) PolicyPath() string { return x.policyPath }

func (x *Enforcer) source() string {
	if x.policyPath == "" {
		return "built-in policy"
	}
	return x.policyPath
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
