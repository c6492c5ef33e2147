// Package policy holds the access-control rules of the platform: profile
// visibility, course membership transitions and slideshow ownership.
//
// Every check here is a pure function of its inputs. Facts that live in
// storage (friendships, memberships, pending requests) are resolved by the
// caller and handed in, so the same inputs always produce the same answer.
package policy

import (
	"errors"
	"fmt"
	"strings"
)

// Rule decision sentinels. A rule returns one of them (optionally wrapped)
// to end evaluation with a decision or to abstain.
var (
	Allow = errors.New("policy: allow rule")
	Deny  = errors.New("policy: deny rule")
	Skip  = errors.New("policy: skip rule")
)

// Denyf returns a formatted decision wrapping Deny.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Allowf returns a formatted decision wrapping Allow.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Rule inspects a request and returns Allow, Deny or Skip. Nil counts as Skip.
type Rule[R any] func(R) error

// Rules is an ordered chain; the first decision that is not Skip wins and
// an exhausted chain denies.
type Rules[R any] []Rule[R]

// Eval returns nil when the chain allows, or the deny decision otherwise.
func (rules Rules[R]) Eval(req R) error {
	for _, rule := range rules {
		switch decision := rule(req); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return Denyf("policy: no rule allowed the request")
}

// Allowed is a convenience wrapper around Eval.
func (rules Rules[R]) Allowed(req R) bool {
	return rules.Eval(req) == nil
}

// decide maps a boolean to a terminal decision.
func decide(ok bool, reason string) error {
	if ok {
		return Allow
	}
	return Denyf("%s", reason)
}

// denyReason strips the sentinel from a Denyf decision.
func denyReason(err error) string {
	return strings.TrimSuffix(err.Error(), ": "+Deny.Error())
}
