package draft

import (
	"fmt"
	"strings"
)

// RemoveLastPolicy decides what removing the only remaining item does.
type RemoveLastPolicy string

const (
	// RemoveLastReseed replaces the removed item with a blank one.
	RemoveLastReseed RemoveLastPolicy = "reseed"
	// RemoveLastNoop leaves the draft unchanged.
	RemoveLastNoop RemoveLastPolicy = "noop"
)

// AfterCreatePolicy decides what the editor holds after a successful create.
type AfterCreatePolicy string

const (
	// AfterCreateReset starts a blank draft and keeps the saved ref for export.
	AfterCreateReset AfterCreatePolicy = "reset"
	// AfterCreateEdit keeps the content and switches to editing the new invoice.
	AfterCreateEdit AfterCreatePolicy = "edit"
)

type Policies struct {
	RemoveLast  RemoveLastPolicy
	AfterCreate AfterCreatePolicy
}

func DefaultPolicies() Policies {
	return Policies{RemoveLast: RemoveLastReseed, AfterCreate: AfterCreateReset}
}

// PolicySource returns the policies in force; it is consulted on every
// operation so reloaded settings apply without a restart.
type PolicySource func() Policies

func StaticPolicies(p Policies) PolicySource {
	return func() Policies { return p }
}

func ParseRemoveLastPolicy(s string) (RemoveLastPolicy, error) {
	switch RemoveLastPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RemoveLastReseed:
		return RemoveLastReseed, nil
	case RemoveLastNoop:
		return RemoveLastNoop, nil
	default:
		return "", fmt.Errorf("unknown remove-last policy %q", s)
	}
}

func ParseAfterCreatePolicy(s string) (AfterCreatePolicy, error) {
	switch AfterCreatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AfterCreateReset:
		return AfterCreateReset, nil
	case AfterCreateEdit:
		return AfterCreateEdit, nil
	default:
		return "", fmt.Errorf("unknown after-create policy %q", s)
	}
}

// PoliciesFromConfig adapts string-valued settings; unknown values fall back
// to the defaults.
func PoliciesFromConfig(removeLast, afterCreate string) Policies {
	p := DefaultPolicies()
	if v, err := ParseRemoveLastPolicy(removeLast); err == nil {
		p.RemoveLast = v
	}
	if v, err := ParseAfterCreatePolicy(afterCreate); err == nil {
		p.AfterCreate = v
	}
	return p
}
