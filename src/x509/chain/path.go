// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"errors"
	"fmt"
	"time"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
	x509ext "github.com/H0llyW00dzZ/x509-path-validator/src/x509/ext"
)

var (
	errNotCA      = errors.New("issuer is not a CA")
	errPathLen    = errors.New("path length constraint exceeded")
	errNoCertSign = errors.New("issuer key usage lacks keyCertSign")
	errNoKeyUsage = errors.New("issuer has no key usage extension")
)

// finish validates path, which ends below anchor a. Certificates are
// checked leaf first; the first failure is returned.
func (s *search) finish(path []*x509certs.Certificate, sets []*x509ext.ConstraintSet, a *TrustAnchor) (*Result, *ValidationError) {
	n := len(path)
	full := path[:n:n]
	allSets := sets[:n:n]
	var anchorSet *x509ext.ConstraintSet
	if a.Certificate != nil {
		// The anchor is trusted as is; its unknown extensions do not matter.
		anchorSet, _ = s.v.proc.Process(a.Certificate)
		full = append(full, a.Certificate)
		allSets = append(allSets, anchorSet)
	}

	overLength := pathLengthViolations(path, sets, anchorSet)

	for i := range n {
		issuerKey := a.PublicKey
		if i+1 < n {
			issuerKey = path[i+1].PublicKey
		}
		if err := s.checkSignature(full, i, issuerKey); err != nil {
			return nil, err
		}
		if kind, err := checkValidity(path[i], s.now); err != nil {
			return nil, failure(kind, full, i, err)
		}
		if i > 0 {
			switch {
			case !sets[i].IsCA():
				return nil, failure(KindPathConstraintViolated, full, i, errNotCA)
			case overLength[i]:
				return nil, failure(KindPathConstraintViolated, full, i, errPathLen)
			case sets[i].KeyUsage == nil:
				return nil, failure(KindKeyUsageViolated, full, i, errNoKeyUsage)
			case !sets[i].CanSignCertificates():
				return nil, failure(KindKeyUsageViolated, full, i, errNoCertSign)
			}
		}
		if i == 0 || !path[i].IsSelfIssued() {
			if err := checkNameConstraints(path[i], sets[i], constraintsAbove(allSets, i)); err != nil {
				return nil, failure(KindNameConstraintViolated, full, i, err)
			}
		}
		if i > 0 && s.isRevoked(path[i]) {
			return nil, failure(KindRevoked, full, i, nil)
		}
	}

	if a.Certificate != nil {
		if kind, err := checkValidity(a.Certificate, s.now); err != nil {
			return nil, failure(kind, full, n, err)
		}
		if s.isRevoked(a.Certificate) {
			return nil, failure(KindRevoked, full, n, nil)
		}
	}

	policies, err := processPolicies(path, sets, &s.v.opts)
	if err != nil {
		return nil, failure(KindPolicyViolated, full, policies.failedAt, err)
	}

	if err := s.v.proc.Check(&x509ext.Path{
		Certificates: full,
		Constraints:  allSets,
		Anchored:     a.Certificate != nil,
	}); err != nil {
		return nil, checkerFailure(err, full)
	}

	return &Result{
		Path:      full,
		Anchor:    *a,
		Policies:  policies.set,
		AnyPolicy: policies.any,
	}, nil
}

// checkValidity applies the inclusive validity window.
func checkValidity(c *x509certs.Certificate, now time.Time) (Kind, error) {
	switch {
	case now.Before(c.Validity.NotBefore):
		return KindNotYetValid, fmt.Errorf("valid from %s, now %s", c.Validity.NotBefore.Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	case now.After(c.Validity.NotAfter):
		return KindExpired, fmt.Errorf("valid until %s, now %s", c.Validity.NotAfter.Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	}
	return 0, nil
}

// pathLengthViolations walks the issuers from the top and marks each that
// exceeds a path length constraint above it. Self-issued certificates do not
// count. The anchor certificate's constraint applies.
func pathLengthViolations(path []*x509certs.Certificate, sets []*x509ext.ConstraintSet, anchorSet *x509ext.ConstraintSet) []bool {
	n := len(path)
	over := make([]bool, n)
	remaining := n
	if anchorSet != nil {
		if l := anchorSet.MaxPathLen(); l >= 0 {
			remaining = l
		}
	}
	for i := n - 1; i >= 1; i-- {
		if !path[i].IsSelfIssued() {
			if remaining <= 0 {
				over[i] = true
			} else {
				remaining--
			}
		}
		if l := sets[i].MaxPathLen(); l >= 0 && l < remaining {
			remaining = l
		}
	}
	return over
}

// checkerFailure maps a Checker error to a ValidationError.
func checkerFailure(err error, full []*x509certs.Certificate) *ValidationError {
	kind := KindCheckFailed
	switch {
	case errors.Is(err, x509ext.ErrKeyUsage), errors.Is(err, x509ext.ErrExtKeyUsage):
		kind = KindKeyUsageViolated
	case errors.Is(err, x509ext.ErrPolicy):
		kind = KindPolicyViolated
	case errors.Is(err, x509ext.ErrUnsupportedCriticalExtension):
		kind = KindUnsupportedCriticalExtension
	}
	pos := 0
	var ce *x509ext.CheckError
	if errors.As(err, &ce) {
		pos = ce.Position
	}
	return failure(kind, full, pos, err)
}
