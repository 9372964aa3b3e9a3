// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"encoding/asn1"
	"errors"
	"slices"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
	x509ext "github.com/H0llyW00dzZ/x509-path-validator/src/x509/ext"
)

var errNoValidPolicy = errors.New("no valid certificate policy")

// policyState is the valid policy set without policy mappings or qualifiers.
type policyState struct {
	any bool
	set []asn1.ObjectIdentifier
	// failedAt is the position where the set became empty, or 0.
	failedAt int
}

func (p *policyState) empty() bool { return !p.any && len(p.set) == 0 }

// intersect narrows the state by one certificate's policies.
func (p *policyState) intersect(certAny bool, oids []asn1.ObjectIdentifier) {
	switch {
	case p.any && certAny:
	case p.any:
		p.any = false
		p.set = slices.Clone(oids)
	case certAny:
	default:
		p.set = slices.DeleteFunc(p.set, func(have asn1.ObjectIdentifier) bool {
			return !slices.ContainsFunc(oids, have.Equal)
		})
	}
}

// processPolicies runs a reduced form of the policy processing of RFC 5280
// section 6.1 over path (leaf first, anchor excluded). Policy mappings are
// not supported.
func processPolicies(path []*x509certs.Certificate, sets []*x509ext.ConstraintSet, opts *Options) (policyState, error) {
	n := len(path)
	explicit, inhibitAny := n+1, n+1
	if opts.RequireExplicitPolicy {
		explicit = 0
	}
	if opts.InhibitAnyPolicy {
		inhibitAny = 0
	}

	state := policyState{any: true, failedAt: -1}
	for i := n - 1; i >= 0; i-- {
		leaf := i == 0
		selfIssued := !leaf && path[i].IsSelfIssued()
		set := sets[i]

		wasEmpty := state.empty()
		if set.Policies == nil {
			state.any, state.set = false, nil
		} else {
			certAny := false
			var oids []asn1.ObjectIdentifier
			for _, pol := range set.Policies.Policies {
				if pol.ID.Equal(x509certs.OIDAnyPolicy) {
					certAny = certAny || inhibitAny > 0 || selfIssued
					continue
				}
				oids = append(oids, pol.ID)
			}
			state.intersect(certAny, oids)
		}
		if !wasEmpty && state.empty() {
			state.failedAt = i
		}

		if leaf {
			if explicit > 0 {
				explicit--
			}
			if pc := set.PolicyConstraints; pc != nil && pc.RequireExplicitPolicy == 0 {
				explicit = 0
			}
			continue
		}
		if !selfIssued {
			if explicit > 0 {
				explicit--
			}
			if inhibitAny > 0 {
				inhibitAny--
			}
		}
		if pc := set.PolicyConstraints; pc != nil && pc.RequireExplicitPolicy >= 0 && pc.RequireExplicitPolicy < explicit {
			explicit = pc.RequireExplicitPolicy
		}
		if ia := set.InhibitAnyPolicy; ia != nil && ia.SkipCerts < inhibitAny {
			inhibitAny = ia.SkipCerts
		}
	}

	if len(opts.InitialPolicies) > 0 && !slices.ContainsFunc(opts.InitialPolicies, x509certs.OIDAnyPolicy.Equal) {
		wasEmpty := state.empty()
		state.intersect(false, opts.InitialPolicies)
		if !wasEmpty && state.empty() {
			state.failedAt = 0
		}
	}

	if explicit == 0 && state.empty() {
		if state.failedAt < 0 {
			state.failedAt = 0
		}
		return state, errNoValidPolicy
	}
	if state.failedAt < 0 {
		state.failedAt = 0
	}
	if len(state.set) == 0 {
		state.set = nil
	}
	return state, nil
}
