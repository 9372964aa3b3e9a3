// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ext

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"slices"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
)

// ErrUnsupportedCriticalExtension is returned for a critical extension that
// nothing understands.
var ErrUnsupportedCriticalExtension = errors.New("x509ext: unsupported critical extension")

// ConstraintSet is the queryable view of the extensions of one certificate.
// A nil field means the extension is absent.
type ConstraintSet struct {
	BasicConstraints  *x509certs.BasicConstraints
	KeyUsage          *x509certs.KeyUsage
	ExtKeyUsage       *x509certs.ExtKeyUsage
	NameConstraints   *x509certs.NameConstraints
	SubjectAltName    *x509certs.SubjectAltName
	Policies          *x509certs.CertificatePolicies
	PolicyConstraints *x509certs.PolicyConstraints
	InhibitAnyPolicy  *x509certs.InhibitAnyPolicy
	SubjectKeyID      []byte
	AuthorityKeyID    []byte

	// Delegated lists critical extensions left to a checker.
	Delegated []asn1.ObjectIdentifier
}

// IsCA reports whether basic constraints assert a CA.
func (s *ConstraintSet) IsCA() bool {
	return s.BasicConstraints != nil && s.BasicConstraints.IsCA
}

// MaxPathLen returns the path length constraint, or -1 when unbounded.
func (s *ConstraintSet) MaxPathLen() int {
	if s.BasicConstraints == nil {
		return -1
	}
	return s.BasicConstraints.MaxPathLen
}

// CanSignCertificates reports whether the key may verify certificate
// signatures. It requires a keyUsage extension asserting keyCertSign.
func (s *ConstraintSet) CanSignCertificates() bool {
	return s.KeyUsage != nil && s.KeyUsage.Has(x509certs.KeyUsageCertSign)
}

// Processor builds constraint sets and runs checkers.
// It is safe for concurrent use once constructed.
type Processor struct {
	checkers []Checker
	handled  []asn1.ObjectIdentifier
}

// NewProcessor returns a Processor running checkers in order. Critical
// extensions claimed by a checker's Handles are accepted by Process.
func NewProcessor(checkers ...Checker) *Processor {
	p := &Processor{checkers: slices.Clone(checkers)}
	for _, c := range checkers {
		p.handled = append(p.handled, c.Handles()...)
	}
	return p
}

func (p *Processor) handles(oid asn1.ObjectIdentifier) bool {
	return slices.ContainsFunc(p.handled, oid.Equal)
}

// Process extracts the constraint set of cert. It returns an error wrapping
// ErrUnsupportedCriticalExtension for the first critical extension that is
// neither decoded nor claimed. The set is complete even when err is non-nil.
func (p *Processor) Process(cert *x509certs.Certificate) (*ConstraintSet, error) {
	var err error
	s := &ConstraintSet{}
	for i := range cert.Extensions {
		ext := &cert.Extensions[i]
		switch v := ext.Parsed.(type) {
		case *x509certs.BasicConstraints:
			s.BasicConstraints = v
		case *x509certs.KeyUsage:
			s.KeyUsage = v
		case *x509certs.ExtKeyUsage:
			s.ExtKeyUsage = v
		case *x509certs.NameConstraints:
			s.NameConstraints = v
		case *x509certs.SubjectAltName:
			s.SubjectAltName = v
		case *x509certs.CertificatePolicies:
			s.Policies = v
		case *x509certs.PolicyConstraints:
			s.PolicyConstraints = v
		case *x509certs.InhibitAnyPolicy:
			s.InhibitAnyPolicy = v
		case *x509certs.SubjectKeyIdentifier:
			s.SubjectKeyID = v.KeyID
		case *x509certs.AuthorityKeyIdentifier:
			s.AuthorityKeyID = v.KeyID
		case *x509certs.UnrecognizedExtension:
			if !v.Critical {
				continue
			}
			if !p.handles(ext.ID) {
				if err == nil {
					err = fmt.Errorf("%w: %v", ErrUnsupportedCriticalExtension, ext.ID)
				}
				continue
			}
			s.Delegated = append(s.Delegated, ext.ID)
		}
	}
	return s, err
}

// Check runs every checker over path and returns the first failure.
func (p *Processor) Check(path *Path) error {
	for _, c := range p.checkers {
		if err := c.Check(path); err != nil {
			return err
		}
	}
	return nil
}
