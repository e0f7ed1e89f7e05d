package permission

import "adapta/internal/domain/identity"

// DefaultRules is the built-in rule table for the application's gated
// features. Predicates read only the identity snapshot.
func DefaultRules() []Rule {
	return []Rule{
		{
			Key:            KeyAuthRequired,
			Description:    "a signed-in account is required",
			Predicate:      func(i *identity.Identity) bool { return !i.IsAnonymous() },
			OnFailRedirect: "/login",
			OnFailMessage:  "Please sign in to continue",
		},
		{
			Key:            "adaptation:advanced",
			Description:    "advanced adaptation requires a VIP tier or an explicit grant",
			Predicate:      func(i *identity.Identity) bool { return i.HasPermission("adaptation:advanced") },
			OnFailRedirect: "/upgrade",
			OnFailMessage:  "Upgrade to use advanced adaptation",
		},
		{
			Key:            "library:unlimited",
			Description:    "unlimited library access requires a VIP tier or an explicit grant",
			Predicate:      func(i *identity.Identity) bool { return i.HasPermission("library:unlimited") },
			OnFailRedirect: "/upgrade",
			OnFailMessage:  "Upgrade for unlimited library access",
		},
		{
			Key:           "invite:generate",
			Description:   "invite codes can only be generated by signed-in accounts",
			Predicate:     func(i *identity.Identity) bool { return !i.IsAnonymous() },
			OnFailMessage: "Sign in to invite friends",
		},
		{
			Key:           "account:admin",
			Description:   "administration requires the admin role",
			Predicate:     func(i *identity.Identity) bool { return i.HasRole("admin") },
			OnFailMessage: "Administrator access only",
		},
	}
}
