package domain

import (
	"fmt"
	"strings"
)

// RuleRole says which side of the mixer a rule selects for
type RuleRole string

const (
	RuleRoleInput  RuleRole = "input"
	RuleRoleOutput RuleRole = "output"
)

// MatchRule is a declarative predicate that classifies a node as a mixer
// input or the mixer output. Predicates within a rule are ANDed; a node
// matches a role if it satisfies at least one rule of that role.
// Description matching is case-insensitive, since device descriptions vary
// in casing between drivers.
type MatchRule struct {
	Role                RuleRole  `yaml:"role" json:"role"`
	DescriptionContains string    `yaml:"description_contains,omitempty" json:"description_contains,omitempty"`
	MediaClassEquals    string    `yaml:"media_class_equals,omitempty" json:"media_class_equals,omitempty"`
	MediaClassContains  string    `yaml:"media_class_contains,omitempty" json:"media_class_contains,omitempty"`
	MediaRole           MediaRole `yaml:"media_role,omitempty" json:"media_role,omitempty"`
}

// Matches reports whether the node satisfies every predicate set on the rule
func (r MatchRule) Matches(n *Node) bool {
	if r.DescriptionContains != "" &&
		!strings.Contains(strings.ToUpper(n.Description), strings.ToUpper(r.DescriptionContains)) {
		return false
	}
	if r.MediaClassEquals != "" && n.MediaClass != r.MediaClassEquals {
		return false
	}
	if r.MediaClassContains != "" && !strings.Contains(n.MediaClass, r.MediaClassContains) {
		return false
	}
	if r.MediaRole != "" && n.Role() != r.MediaRole {
		return false
	}
	return true
}

// MatchesRole reports whether the node matches any rule of the given role
func MatchesRole(rules []MatchRule, role RuleRole, n *Node) bool {
	for _, r := range rules {
		if r.Role == role && r.Matches(n) {
			return true
		}
	}
	return false
}

// ValidateRules checks that every rule names a known role and at least one
// predicate. An empty rule would match every node, which is never intended.
func ValidateRules(rules []MatchRule) error {
	for i, r := range rules {
		if r.Role != RuleRoleInput && r.Role != RuleRoleOutput {
			return &RuleError{Index: i, Reason: "role must be 'input' or 'output'"}
		}
		if r.DescriptionContains == "" && r.MediaClassEquals == "" &&
			r.MediaClassContains == "" && r.MediaRole == "" {
			return &RuleError{Index: i, Reason: "rule has no predicates"}
		}
	}
	return nil
}

// RuleError describes an invalid match rule
type RuleError struct {
	Index  int
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %d: %s", e.Index, e.Reason)
}
