// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509revocation

import (
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/ocsp"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
)

type ocspEntry struct {
	status     int
	thisUpdate time.Time
	nextUpdate time.Time
}

// OCSPOracle answers revocation queries from OCSP responses added by the
// caller.
//
// Thread Safety: Safe for concurrent use.
type OCSPOracle struct {
	opts options

	mu        sync.RWMutex
	responses map[string]ocspEntry
}

// NewOCSPOracle creates an empty OCSPOracle. WithMaxSize and WithVerifier do
// not apply; response signatures are checked by the OCSP package.
func NewOCSPOracle(opts ...Option) *OCSPOracle {
	return &OCSPOracle{
		opts:      newOptions(opts),
		responses: make(map[string]ocspEntry),
	}
}

// Add parses a DER OCSP response signed by issuer, or by a responder that
// issuer delegated to, and records the status it carries.
func (o *OCSPOracle) Add(der []byte, issuer *x509certs.Certificate) error {
	stdIssuer, err := x509.ParseCertificate(issuer.Raw)
	if err != nil {
		return fmt.Errorf("%w: issuer: %v", ErrInvalidResponse, err)
	}
	resp, err := ocsp.ParseResponse(der, stdIssuer)
	if err != nil {
		// Signature failures surface as ocsp.ParseError too.
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	key := issuer.Subject.CanonicalKey() + "/" + serialKey(resp.SerialNumber)

	o.mu.Lock()
	defer o.mu.Unlock()

	if cur, ok := o.responses[key]; ok && cur.thisUpdate.After(resp.ThisUpdate) {
		return nil
	}
	o.responses[key] = ocspEntry{
		status:     resp.Status,
		thisUpdate: resp.ThisUpdate,
		nextUpdate: resp.NextUpdate,
	}
	return nil
}

// IsRevoked implements Oracle.
func (o *OCSPOracle) IsRevoked(cert *x509certs.Certificate) bool {
	key := cert.Issuer.CanonicalKey() + "/" + serialKey(cert.SerialNumber.BigInt())

	o.mu.RLock()
	entry, ok := o.responses[key]
	o.mu.RUnlock()

	if !ok {
		return o.opts.strict
	}
	if !entry.nextUpdate.IsZero() && o.opts.now().After(entry.nextUpdate) {
		return o.opts.strict
	}
	switch entry.status {
	case ocsp.Good:
		return false
	case ocsp.Revoked:
		return true
	default:
		return o.opts.strict
	}
}

// Len returns the number of recorded responses.
func (o *OCSPOracle) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.responses)
}
