// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509revocation

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
)

type crlEntry struct {
	serials    map[string]struct{}
	thisUpdate time.Time
	nextUpdate time.Time
}

// isFresh reports whether the CRL may still be relied on at now.
func (e *crlEntry) isFresh(now time.Time) bool {
	return !now.Before(e.thisUpdate) && (e.nextUpdate.IsZero() || !now.After(e.nextUpdate))
}

// isExpired reports whether the CRL is past its nextUpdate by more than grace.
func (e *crlEntry) isExpired(now time.Time, grace time.Duration) bool {
	return !e.nextUpdate.IsZero() && e.nextUpdate.Before(now.Add(-grace))
}

// CRLOracle answers revocation queries from CRLs added by the caller, one
// current CRL per issuer. Issuers are told apart by name and key
// identifier, so CAs that share a name across a key rollover keep separate
// lists.
//
// Thread Safety: Safe for concurrent use.
type CRLOracle struct {
	opts options

	mu    sync.Mutex
	lists map[string]*crlEntry
	order []string // least recently used first
}

// NewCRLOracle creates an empty CRLOracle.
func NewCRLOracle(opts ...Option) *CRLOracle {
	return &CRLOracle{
		opts:  newOptions(opts),
		lists: make(map[string]*crlEntry),
	}
}

// Add parses a DER CRL, checks that issuer signed it and makes it the
// current CRL for that issuer. An older CRL never replaces a newer one.
func (o *CRLOracle) Add(der []byte, issuer *x509certs.Certificate) error {
	crl, err := x509.ParseRevocationList(der)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	name, err := x509certs.ParseName(crl.RawIssuer)
	if err != nil || !name.Equal(issuer.Subject) {
		return fmt.Errorf("%w: CRL issued by %q", ErrIssuerMismatch, crl.Issuer.String())
	}
	if ku, ok := issuer.KeyUsage(); ok && !ku.Has(x509certs.KeyUsageCRLSign) {
		return fmt.Errorf("%w: issuer key may not sign CRLs", ErrIssuerMismatch)
	}
	if err := o.verify(der, issuer); err != nil {
		return err
	}
	keyID := issuer.SubjectKeyID()
	if len(crl.AuthorityKeyId) > 0 {
		if len(keyID) > 0 && !bytes.Equal(keyID, crl.AuthorityKeyId) {
			return fmt.Errorf("%w: CRL authority key identifier does not match issuer", ErrIssuerMismatch)
		}
		keyID = crl.AuthorityKeyId
	}

	entry := &crlEntry{
		serials:    make(map[string]struct{}, len(crl.RevokedCertificateEntries)),
		thisUpdate: crl.ThisUpdate,
		nextUpdate: crl.NextUpdate,
	}
	for _, rc := range crl.RevokedCertificateEntries {
		entry.serials[serialKey(rc.SerialNumber)] = struct{}{}
	}

	key := crlKey(issuer.Subject, keyID)

	o.mu.Lock()
	defer o.mu.Unlock()

	if cur, ok := o.lists[key]; ok && cur.thisUpdate.After(entry.thisUpdate) {
		return nil
	}
	if _, ok := o.lists[key]; !ok {
		for o.opts.maxSize > 0 && len(o.lists) >= o.opts.maxSize && len(o.order) > 0 {
			delete(o.lists, o.order[0])
			o.order = o.order[1:]
		}
	}
	o.lists[key] = entry
	o.touch(key)
	return nil
}

// verify checks the outer signature of a CRL with the provider.
func (o *CRLOracle) verify(der []byte, issuer *x509certs.Certificate) error {
	input := cryptobyte.String(der)
	var (
		crl, tbs, algSeq cryptobyte.String
		oid              asn1.ObjectIdentifier
		sig              asn1.BitString
	)
	if !input.ReadASN1(&crl, cryptobyte_asn1.SEQUENCE) ||
		!crl.ReadASN1Element(&tbs, cryptobyte_asn1.SEQUENCE) ||
		!crl.ReadASN1(&algSeq, cryptobyte_asn1.SEQUENCE) ||
		!algSeq.ReadASN1ObjectIdentifier(&oid) ||
		!crl.ReadASN1BitString(&sig) {
		return fmt.Errorf("%w: CRL outer structure", ErrInvalidResponse)
	}
	var params []byte
	if !algSeq.Empty() {
		params = algSeq
	}
	alg, err := x509certs.NewAlgorithmIdentifier(oid, params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if sig.BitLength%8 != 0 {
		return ErrBadSignature
	}
	ok, err := o.opts.verifier.VerifySignature(alg, issuer.PublicKey, tbs, sig.Bytes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	}
	if !ok {
		return ErrBadSignature
	}
	return nil
}

// touch moves key to the most recently used end. Callers hold mu.
func (o *CRLOracle) touch(key string) {
	if i := slices.Index(o.order, key); i >= 0 {
		o.order = slices.Delete(o.order, i, i+1)
	}
	o.order = append(o.order, key)
}

// crlKey indexes a CRL by issuer name and issuer key identifier. An empty
// keyID only matches certificates without an authority key identifier.
func crlKey(issuer x509certs.Name, keyID []byte) string {
	return issuer.CanonicalKey() + "/" + hex.EncodeToString(keyID)
}

// IsRevoked implements Oracle.
func (o *CRLOracle) IsRevoked(cert *x509certs.Certificate) bool {
	key := crlKey(cert.Issuer, cert.AuthorityKeyID())

	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.lists[key]
	if !ok || !entry.isFresh(o.opts.now()) {
		return o.opts.strict
	}
	o.touch(key)
	_, revoked := entry.serials[serialKey(cert.SerialNumber.BigInt())]
	return revoked
}

// Len returns the number of issuers with a CRL.
func (o *CRLOracle) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.lists)
}

// Prune removes CRLs whose nextUpdate passed more than the grace period ago
// and returns how many were removed.
func (o *CRLOracle) Prune() int {
	now := o.opts.now()

	o.mu.Lock()
	defer o.mu.Unlock()

	removed := 0
	for key, entry := range o.lists {
		if !entry.isExpired(now, o.opts.grace) {
			continue
		}
		delete(o.lists, key)
		if i := slices.Index(o.order, key); i >= 0 {
			o.order = slices.Delete(o.order, i, i+1)
		}
		removed++
	}
	return removed
}
