package permission

import (
	"adapta/internal/domain/identity"
	"adapta/internal/shared/logger"
)

// Engine evaluates permission rules in caller-given order with
// short-circuit on the first failure. The engine never reads global state;
// everything it consults arrives through the identity snapshot.
type Engine struct {
	rules  map[string]Rule
	logger logger.Interface
}

// NewEngine builds an engine from a rule table. Duplicate keys keep the
// last registration.
func NewEngine(rules []Rule, log logger.Interface) *Engine {
	table := make(map[string]Rule, len(rules))
	for _, r := range rules {
		table[r.Key] = r
	}
	return &Engine{rules: table, logger: log}
}

// Register adds or replaces a rule.
func (e *Engine) Register(rule Rule) {
	e.rules[rule.Key] = rule
}

// Evaluate checks the given rule keys against the identity snapshot.
// auth:required, when present among the keys, is hoisted to the front so
// feature predicates never run for anonymous visitors. Evaluation stops at
// the first failing rule; unknown keys are warned about and skipped.
func (e *Engine) Evaluate(keys []string, ident *identity.Identity) Result {
	ordered := hoistAuthRequired(keys)

	var skipped []string
	for _, key := range ordered {
		rule, ok := e.rules[key]
		if !ok {
			e.logger.Warnw("unknown permission rule requested", "key", key)
			skipped = append(skipped, key)
			continue
		}
		if !rule.Predicate(ident) {
			return Result{
				Pass:        false,
				FailedKey:   rule.Key,
				Reason:      rule.Description,
				Redirect:    rule.OnFailRedirect,
				Message:     rule.OnFailMessage,
				SkippedKeys: skipped,
			}
		}
	}
	return Result{Pass: true, SkippedKeys: skipped}
}

func hoistAuthRequired(keys []string) []string {
	if len(keys) < 2 {
		return keys
	}
	found := false
	rest := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == KeyAuthRequired {
			found = true
			continue
		}
		rest = append(rest, k)
	}
	if !found {
		return keys
	}
	return append([]string{KeyAuthRequired}, rest...)
}
