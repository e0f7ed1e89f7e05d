package identity

import (
	"fmt"

	"adapta/internal/shared/id"
)

// Kind distinguishes locally generated visitor identities from
// provider-issued account identities.
type Kind string

const (
	KindAnonymous Kind = "anonymous"
	KindAccount   Kind = "account"
)

func (k Kind) IsValid() bool {
	return k == KindAnonymous || k == KindAccount
}

// Identity is the central aggregate. Exactly one identity is current at any
// time; an id never changes in place. Upgrading an anonymous visitor to an
// account replaces the current identity with a new one after binding.
type Identity struct {
	id          string
	kind        Kind
	displayName string
	email       string
	phone       string
	avatarURL   string
	roles       []string
	permissions []string
	vipLevel    VIPLevel
}

// NewAnonymous creates a fresh anonymous identity with a generated id.
func NewAnonymous() (*Identity, error) {
	anonID, err := id.GenerateWithPrefix(id.PrefixAnonymous, id.DefaultLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate anonymous id: %w", err)
	}
	return &Identity{
		id:       anonID,
		kind:     KindAnonymous,
		vipLevel: VIPNone,
	}, nil
}

// ReconstructAnonymous rebuilds an anonymous identity from a persisted id.
func ReconstructAnonymous(anonID string) (*Identity, error) {
	if anonID == "" {
		return nil, fmt.Errorf("anonymous id is required")
	}
	return &Identity{
		id:       anonID,
		kind:     KindAnonymous,
		vipLevel: VIPNone,
	}, nil
}

// NewAccount creates an account identity from the provider-issued subject.
func NewAccount(subject string) (*Identity, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	return &Identity{
		id:       subject,
		kind:     KindAccount,
		vipLevel: VIPNone,
	}, nil
}

// ReconstructAccount rebuilds an account identity from persistence.
func ReconstructAccount(
	subject string,
	displayName, email, phone, avatarURL string,
	roles, permissions []string,
	vipLevel VIPLevel,
) (*Identity, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if !vipLevel.IsValid() {
		return nil, fmt.Errorf("invalid vip level: %s", vipLevel)
	}
	return &Identity{
		id:          subject,
		kind:        KindAccount,
		displayName: displayName,
		email:       email,
		phone:       phone,
		avatarURL:   avatarURL,
		roles:       dedupe(roles),
		permissions: dedupe(permissions),
		vipLevel:    vipLevel,
	}, nil
}

// ID returns the identity id.
func (i *Identity) ID() string {
	return i.id
}

// Kind returns the identity kind.
func (i *Identity) Kind() Kind {
	return i.kind
}

// IsAnonymous reports whether the identity was never bound to an account.
func (i *Identity) IsAnonymous() bool {
	return i.kind == KindAnonymous
}

// DisplayName returns the profile display name.
func (i *Identity) DisplayName() string {
	return i.displayName
}

// Email returns the profile email.
func (i *Identity) Email() string {
	return i.email
}

// Phone returns the profile phone number.
func (i *Identity) Phone() string {
	return i.phone
}

// AvatarURL returns the profile avatar URL.
func (i *Identity) AvatarURL() string {
	return i.avatarURL
}

// Roles returns a copy of the role set.
func (i *Identity) Roles() []string {
	out := make([]string, len(i.roles))
	copy(out, i.roles)
	return out
}

// Permissions returns a copy of the permission set.
func (i *Identity) Permissions() []string {
	out := make([]string, len(i.permissions))
	copy(out, i.permissions)
	return out
}

// VIPLevel returns the tier marker.
func (i *Identity) VIPLevel() VIPLevel {
	return i.vipLevel
}

// HasRole reports whether the role is present.
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission resolves overlapping authorization signals with a single
// precedence: an explicit permission string wins, a role grant is checked
// next, the bare VIP tier last. The three inputs never disagree silently.
func (i *Identity) HasPermission(perm string) bool {
	for _, p := range i.permissions {
		if p == perm {
			return true
		}
	}
	if i.HasRole(RoleVIP) && vipGrantedPermissions[perm] {
		return true
	}
	if i.vipLevel.AtLeast(VIPSilver) && vipGrantedPermissions[perm] {
		return true
	}
	return false
}

// SetAuthorization replaces the role/permission sets and tier. Used when the
// provider profile or the permission sync supplies fresh attributes.
func (i *Identity) SetAuthorization(roles, permissions []string, vipLevel VIPLevel) error {
	if !vipLevel.IsValid() {
		return fmt.Errorf("invalid vip level: %s", vipLevel)
	}
	i.roles = dedupe(roles)
	i.permissions = dedupe(permissions)
	i.vipLevel = vipLevel
	return nil
}

// ProfilePatch carries partial profile fields for an update; nil means
// "leave unchanged".
type ProfilePatch struct {
	DisplayName *string
	Email       *string
	Phone       *string
	AvatarURL   *string
}

// ApplyProfile merges partial profile fields. The id is never touched.
func (i *Identity) ApplyProfile(patch ProfilePatch) {
	if patch.DisplayName != nil {
		i.displayName = *patch.DisplayName
	}
	if patch.Email != nil {
		i.email = *patch.Email
	}
	if patch.Phone != nil {
		i.phone = *patch.Phone
	}
	if patch.AvatarURL != nil {
		i.avatarURL = *patch.AvatarURL
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
