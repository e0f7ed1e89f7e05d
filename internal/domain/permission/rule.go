// Package permission evaluates named rules against an identity snapshot.
// New features add a table entry instead of a fresh conditional branch.
package permission

import "adapta/internal/domain/identity"

// KeyAuthRequired is the built-in rule requiring a permanent, non-anonymous
// identity. When requested alongside other keys it is always checked first.
const KeyAuthRequired = "auth:required"

// Rule is a named predicate over identity attributes, with redirect and
// message metadata returned on failure. Predicates must be pure functions
// of the supplied snapshot so results stay deterministic.
type Rule struct {
	Key            string
	Description    string
	Predicate      func(*identity.Identity) bool
	OnFailRedirect string
	OnFailMessage  string
}

// Result is the outcome of an Evaluate call.
type Result struct {
	Pass bool
	// FailedKey, Reason, Redirect and Message are set when Pass is false.
	FailedKey string
	Reason    string
	Redirect  string
	Message   string
	// SkippedKeys lists requested keys with no registered rule. Unknown
	// keys never grant or deny; they are warned about and skipped.
	SkippedKeys []string
}
