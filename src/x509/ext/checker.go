// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ext

import (
	"bytes"
	"encoding/asn1"
	"errors"
	"fmt"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
)

// Checker failures wrap one of these.
var (
	ErrKeyUsage      = errors.New("x509ext: key usage not permitted")
	ErrExtKeyUsage   = errors.New("x509ext: extended key usage not permitted")
	ErrKeyIdentifier = errors.New("x509ext: key identifier mismatch")
	ErrPolicy        = errors.New("x509ext: required policy not asserted")
)

// Path is a candidate certification path, leaf first.
type Path struct {
	Certificates []*x509certs.Certificate
	Constraints  []*ConstraintSet
	// Anchored reports that the last certificate is the trust anchor.
	Anchored bool
}

// Subordinates returns the number of certificates below the trust anchor.
func (p *Path) Subordinates() int {
	if p.Anchored {
		return len(p.Certificates) - 1
	}
	return len(p.Certificates)
}

// CheckError reports the failing position of a Checker. Position 0 is the leaf.
type CheckError struct {
	Position int
	Reason   string
	Err      error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("certificate %d: %s", e.Position, e.Reason)
}

func (e *CheckError) Unwrap() error { return e.Err }

// Checker is an additional rule over a built path.
type Checker interface {
	// Handles lists critical extensions this checker takes responsibility for.
	Handles() []asn1.ObjectIdentifier
	// Check returns a *CheckError when the path violates the rule.
	Check(path *Path) error
}

// KeyIdentifierChecker requires the authority key identifier of each
// certificate to equal the subject key identifier of its issuer when both
// are present.
type KeyIdentifierChecker struct{}

func (KeyIdentifierChecker) Handles() []asn1.ObjectIdentifier { return nil }

func (KeyIdentifierChecker) Check(p *Path) error {
	for i := 0; i+1 < len(p.Constraints); i++ {
		aki, ski := p.Constraints[i].AuthorityKeyID, p.Constraints[i+1].SubjectKeyID
		if aki != nil && ski != nil && !bytes.Equal(aki, ski) {
			return &CheckError{Position: i, Reason: "authority key identifier does not match issuer", Err: ErrKeyIdentifier}
		}
	}
	return nil
}

// KeyUsageChecker requires the leaf to assert Leaf when it carries a keyUsage
// extension. With RequireExtension set the extension must be present.
type KeyUsageChecker struct {
	Leaf             x509certs.KeyUsageBits
	RequireExtension bool
}

func (KeyUsageChecker) Handles() []asn1.ObjectIdentifier { return nil }

func (c KeyUsageChecker) Check(p *Path) error {
	if len(p.Constraints) == 0 || c.Leaf == 0 {
		return nil
	}
	ku := p.Constraints[0].KeyUsage
	if ku == nil {
		if c.RequireExtension {
			return &CheckError{Reason: "key usage extension missing", Err: ErrKeyUsage}
		}
		return nil
	}
	if !ku.Has(c.Leaf) {
		return &CheckError{Reason: fmt.Sprintf("key usage %#x lacks %#x", ku.Bits, c.Leaf), Err: ErrKeyUsage}
	}
	return nil
}

// ExtKeyUsageChecker requires each purpose in Required on the leaf. Issuers
// below the trust anchor that list purposes must permit them as well. An
// absent extension permits every purpose.
type ExtKeyUsageChecker struct {
	Required []asn1.ObjectIdentifier
}

func (ExtKeyUsageChecker) Handles() []asn1.ObjectIdentifier { return nil }

func (c ExtKeyUsageChecker) Check(p *Path) error {
	for i := 0; i < p.Subordinates(); i++ {
		eku := p.Constraints[i].ExtKeyUsage
		if eku == nil {
			continue
		}
		for _, want := range c.Required {
			if !eku.Has(want) {
				return &CheckError{Position: i, Reason: fmt.Sprintf("purpose %v not permitted", want), Err: ErrExtKeyUsage}
			}
		}
	}
	return nil
}

// PolicyChecker requires every certificate below the trust anchor to assert
// each policy in Required, or anyPolicy.
type PolicyChecker struct {
	Required []asn1.ObjectIdentifier
}

func (PolicyChecker) Handles() []asn1.ObjectIdentifier { return nil }

func (c PolicyChecker) Check(p *Path) error {
	if len(c.Required) == 0 {
		return nil
	}
	for i := 0; i < p.Subordinates(); i++ {
		pol := p.Constraints[i].Policies
		for _, want := range c.Required {
			if pol == nil || !(pol.Has(want) || pol.Has(x509certs.OIDAnyPolicy)) {
				return &CheckError{Position: i, Reason: fmt.Sprintf("policy %v not asserted", want), Err: ErrPolicy}
			}
		}
	}
	return nil
}
