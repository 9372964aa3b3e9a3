// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
)

// TrustAnchor is a certificate or a bare subject and key the caller trusts.
// Anchors are supplied per call and never retained.
type TrustAnchor struct {
	// Certificate is nil for a key anchor.
	Certificate *x509certs.Certificate
	Subject     x509certs.Name
	PublicKey   x509certs.PublicKeyInfo
	// KeyID is the subject key identifier, used to match authority key
	// identifiers. It may be nil.
	KeyID []byte
}

// NewTrustAnchor trusts cert. Its validity period, basic constraints path
// length and name constraints apply to paths ending at it.
func NewTrustAnchor(cert *x509certs.Certificate) TrustAnchor {
	return TrustAnchor{
		Certificate: cert,
		Subject:     cert.Subject,
		PublicKey:   cert.PublicKey,
		KeyID:       cert.SubjectKeyID(),
	}
}

// NewKeyAnchor trusts pub as the key of subject. Set KeyID on the result to
// narrow matching by authority key identifier.
func NewKeyAnchor(subject x509certs.Name, pub x509certs.PublicKeyInfo) TrustAnchor {
	return TrustAnchor{Subject: subject, PublicKey: pub}
}

// issues reports whether the anchor may have issued cert, judged by names
// and key identifiers only.
func (a *TrustAnchor) issues(cert *x509certs.Certificate) bool {
	if !a.Subject.Equal(cert.Issuer) {
		return false
	}
	aki := cert.AuthorityKeyID()
	return aki == nil || a.KeyID == nil || bytes.Equal(aki, a.KeyID)
}

// is reports whether cert is the anchor certificate itself.
func (a *TrustAnchor) is(cert *x509certs.Certificate) bool {
	return a.Certificate != nil && bytes.Equal(a.Certificate.Raw, cert.Raw)
}
