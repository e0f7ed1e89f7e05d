package permission

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"adapta/internal/shared/logger"
)

// Role grants are flat key grants: p = role, permission key. Role
// inheritance via g lets a tier imply another tier's grants.
const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

// Enforcer expands provider roles into permission keys using policies
// stored through the gorm adapter. The expansion happens once per login
// when the identity snapshot is built; evaluation afterwards is pure.
type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

func NewEnforcer(db *gorm.DB, log logger.Interface) (*Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to build casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	return &Enforcer{
		enforcer: enforcer,
		logger:   log,
	}, nil
}

// ExpandRoles returns the deduplicated permission keys granted to the
// given roles, including keys inherited through role links.
func (e *Enforcer) ExpandRoles(roles []string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	seen := make(map[string]struct{})
	var keys []string

	for _, role := range roles {
		perms, err := e.enforcer.GetImplicitPermissionsForUser(role)
		if err != nil {
			e.logger.Errorw("failed to expand role", "error", err, "role", role)
			return nil, fmt.Errorf("failed to expand role %q: %w", role, err)
		}
		for _, p := range perms {
			if len(p) < 2 {
				continue
			}
			if _, ok := seen[p[1]]; ok {
				continue
			}
			seen[p[1]] = struct{}{}
			keys = append(keys, p[1])
		}
	}

	return keys, nil
}

func (e *Enforcer) AddGrant(role, permissionKey string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddPolicy(role, permissionKey); err != nil {
		e.logger.Errorw("failed to add grant", "error", err, "role", role, "permission", permissionKey)
		return fmt.Errorf("failed to add grant: %w", err)
	}

	return e.enforcer.SavePolicy()
}

func (e *Enforcer) RemoveGrant(role, permissionKey string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.RemovePolicy(role, permissionKey); err != nil {
		e.logger.Errorw("failed to remove grant", "error", err, "role", role, "permission", permissionKey)
		return fmt.Errorf("failed to remove grant: %w", err)
	}

	return e.enforcer.SavePolicy()
}

// SeedDefaultGrants installs the baseline role grants when the policy
// store is empty. Existing deployments keep whatever operators configured.
func (e *Enforcer) SeedDefaultGrants() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.enforcer.GetPolicy()
	if err != nil {
		return fmt.Errorf("failed to read policy: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	grants := [][]string{
		{"vip", "adaptation:advanced"},
		{"vip", "library:unlimited"},
		{"admin", "account:admin"},
		{"admin", "invite:generate"},
		{"member", "invite:generate"},
	}

	for _, g := range grants {
		if _, err := e.enforcer.AddPolicy(g); err != nil {
			return fmt.Errorf("failed to seed grant %v: %w", g, err)
		}
	}

	e.logger.Info("seeded default role grants")
	return e.enforcer.SavePolicy()
}
