// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
)

// degree is the B-tree node fan-out.
const degree = 16

type entry struct {
	subject     string
	fingerprint string
	cert        *x509certs.Certificate
}

func bySubject(a, b entry) bool {
	if c := strings.Compare(a.subject, b.subject); c != 0 {
		return c < 0
	}
	return a.fingerprint < b.fingerprint
}

func byFingerprint(a, b entry) bool { return a.fingerprint < b.fingerprint }

// Option configures a Store.
type Option func(*Store)

// WithSizeObserver registers fn to receive the number of stored
// certificates after every successful insert or remove.
func WithSizeObserver(fn func(int)) Option {
	return func(s *Store) { s.observe = fn }
}

// Store is an indexed set of certificates keyed by fingerprint.
//
// Thread Safety: Safe for concurrent use. Readers see the snapshot that was
// current when their call started.
type Store struct {
	mu           sync.Mutex
	subjects     *btree.BTreeG[entry]
	fingerprints *btree.BTreeG[entry]
	current      atomic.Pointer[Snapshot]
	observe      func(int)
}

// New creates an empty Store.
//
// Parameters:
//   - opts: Optional settings such as [WithSizeObserver]
//
// Returns:
//   - *Store: New empty store
func New(opts ...Option) *Store {
	s := &Store{
		subjects:     btree.NewG(degree, bySubject),
		fingerprints: btree.NewG(degree, byFingerprint),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publish()
	return s
}

// publish must be called with mu held or before s is shared.
func (s *Store) publish() {
	s.current.Store(&Snapshot{
		subjects:     s.subjects.Clone(),
		fingerprints: s.fingerprints.Clone(),
	})
	if s.observe != nil {
		s.observe(s.fingerprints.Len())
	}
}

// Insert adds cert to the store.
//
// Certificates with the same subject but different content are all kept.
//
// Parameters:
//   - cert: Decoded certificate
//
// Returns:
//   - bool: false if a certificate with the same fingerprint is already stored
func (s *Store) Insert(cert *x509certs.Certificate) bool {
	e := entry{
		subject:     cert.Subject.CanonicalKey(),
		fingerprint: cert.Fingerprint(),
		cert:        cert,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fingerprints.Get(e); ok {
		return false
	}
	s.subjects.ReplaceOrInsert(e)
	s.fingerprints.ReplaceOrInsert(e)
	s.publish()
	return true
}

// InsertDER decodes der and inserts the result. A decode error leaves the
// store untouched.
//
// Returns:
//   - *x509certs.Certificate: Decoded certificate
//   - error: Error wrapping x509certs.ErrMalformedEncoding on invalid input
func (s *Store) InsertDER(der []byte) (*x509certs.Certificate, error) {
	cert, err := x509certs.Decode(der)
	if err != nil {
		return nil, err
	}
	s.Insert(cert)
	return cert, nil
}

// Remove deletes the certificate with the given fingerprint.
//
// Returns:
//   - bool: true if a certificate was removed
func (s *Store) Remove(fingerprint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.fingerprints.Delete(entry{fingerprint: fingerprint})
	if !ok {
		return false
	}
	s.subjects.Delete(e)
	s.publish()
	return true
}

// Snapshot returns the current immutable view of the store.
func (s *Store) Snapshot() *Snapshot { return s.current.Load() }

// FindIssuers is shorthand for s.Snapshot().FindIssuers.
func (s *Store) FindIssuers(subject x509certs.Name, keyID []byte) []*x509certs.Certificate {
	return s.Snapshot().FindIssuers(subject, keyID)
}

// Get is shorthand for s.Snapshot().Get.
func (s *Store) Get(fingerprint string) (*x509certs.Certificate, bool) {
	return s.Snapshot().Get(fingerprint)
}

// Len returns the number of stored certificates.
func (s *Store) Len() int { return s.Snapshot().Len() }

// Snapshot is a point-in-time, read-only view of a Store.
type Snapshot struct {
	subjects     *btree.BTreeG[entry]
	fingerprints *btree.BTreeG[entry]
}

// Len returns the number of certificates in the snapshot.
func (v *Snapshot) Len() int { return v.fingerprints.Len() }

// Get returns the certificate with the given fingerprint.
func (v *Snapshot) Get(fingerprint string) (*x509certs.Certificate, bool) {
	e, ok := v.fingerprints.Get(entry{fingerprint: fingerprint})
	return e.cert, ok
}

// FindIssuers returns the certificates whose subject equals subject under
// name canonicalization.
//
// When keyID is non-nil, certificates whose subject key identifier equals
// keyID come first, followed by those without one. Certificates with a
// different subject key identifier are skipped. The order within each group
// is by fingerprint, so repeated calls on the same snapshot agree.
func (v *Snapshot) FindIssuers(subject x509certs.Name, keyID []byte) []*x509certs.Certificate {
	key := subject.CanonicalKey()

	var matched, unkeyed []*x509certs.Certificate
	v.subjects.AscendGreaterOrEqual(entry{subject: key}, func(e entry) bool {
		if e.subject != key {
			return false
		}
		ski := e.cert.SubjectKeyID()
		switch {
		case keyID == nil:
			matched = append(matched, e.cert)
		case ski == nil:
			unkeyed = append(unkeyed, e.cert)
		case bytes.Equal(ski, keyID):
			matched = append(matched, e.cert)
		}
		return true
	})
	return append(matched, unkeyed...)
}

// Certificates returns every certificate ordered by subject.
func (v *Snapshot) Certificates() []*x509certs.Certificate {
	out := make([]*x509certs.Certificate, 0, v.Len())
	v.subjects.Ascend(func(e entry) bool {
		out = append(out, e.cert)
		return true
	})
	return out
}
