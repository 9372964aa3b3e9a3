// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"encoding/asn1"
	"errors"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/x509-path-validator/src/logger"
	"github.com/H0llyW00dzZ/x509-path-validator/src/metrics"
	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
	x509ext "github.com/H0llyW00dzZ/x509-path-validator/src/x509/ext"
	x509provider "github.com/H0llyW00dzZ/x509-path-validator/src/x509/provider"
	x509store "github.com/H0llyW00dzZ/x509-path-validator/src/x509/store"
)

// DefaultMaxDepth bounds the number of certificates below the trust anchor.
const DefaultMaxDepth = 10

var (
	errCandidateLimit = errors.New("issuer candidate limit reached")
	errMaxDepth       = errors.New("maximum path depth reached")
)

// IssuerSource locates candidate issuers by subject name and, optionally,
// key identifier. *x509store.Store and *x509store.Snapshot implement it.
type IssuerSource interface {
	FindIssuers(subject x509certs.Name, keyID []byte) []*x509certs.Certificate
}

// RevocationOracle reports whether a certificate is revoked.
// x509revocation provides implementations.
type RevocationOracle interface {
	IsRevoked(cert *x509certs.Certificate) bool
}

// Options configures a Validator.
type Options struct {
	// Time is the reference time. The zero value means the time of each call.
	Time time.Time

	// Provider verifies signatures; nil means x509provider.Default().
	Provider x509provider.Verifier

	// Revocation, when set, is consulted once per certificate per call.
	Revocation RevocationOracle

	// Checkers run after the built-in checks on every complete path. Their
	// Handles lists make the named critical extensions acceptable.
	Checkers []x509ext.Checker

	// MaxCandidates bounds the issuer candidates tried per call; zero means
	// unbounded.
	MaxCandidates int

	// MaxDepth bounds the certificates below the trust anchor; zero means
	// DefaultMaxDepth.
	MaxDepth int

	// InitialPolicies is the user-initial-policy-set; empty means anyPolicy.
	InitialPolicies []asn1.ObjectIdentifier
	// RequireExplicitPolicy demands a non-empty valid policy set.
	RequireExplicitPolicy bool
	// InhibitAnyPolicy stops anyPolicy from matching below the anchor.
	InhibitAnyPolicy bool

	// Logger receives path building decisions; nil means logger.Discard.
	Logger logger.Logger
	// Metrics may be nil.
	Metrics *metrics.Collector
}

// Result is a validated path.
type Result struct {
	// Path runs from the leaf to the trust anchor. It ends with the anchor
	// certificate unless the anchor is a bare key.
	Path   []*x509certs.Certificate
	Anchor TrustAnchor
	// Policies is the valid policy set when AnyPolicy is false.
	Policies  []asn1.ObjectIdentifier
	AnyPolicy bool
}

// Validator validates certification paths.
//
// Thread Safety: Safe for concurrent use.
type Validator struct {
	opts Options
	proc *x509ext.Processor
}

// New creates a Validator.
//
// Parameters:
//   - opts: Validation options; zero fields take their documented defaults
//
// Returns:
//   - *Validator: New validator
func New(opts Options) *Validator {
	if opts.Provider == nil {
		opts.Provider = x509provider.Default()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard
	}
	return &Validator{
		opts: opts,
		proc: x509ext.NewProcessor(opts.Checkers...),
	}
}

// ValidateDER decodes der and validates it. A decode failure is reported as
// KindMalformedEncoding.
func (v *Validator) ValidateDER(der []byte, anchors []TrustAnchor, store IssuerSource) (*Result, error) {
	leaf, err := x509certs.Decode(der)
	if err != nil {
		verr := &ValidationError{Kind: KindMalformedEncoding, Err: err}
		v.opts.Metrics.ObserveValidation(verr.Kind.Label(), 0)
		return nil, verr
	}
	return v.Validate(leaf, anchors, store)
}

// Validate builds and validates a path from leaf to one of anchors, looking
// up intermediates in store. store may be nil.
//
// Parameters:
//   - leaf: Certificate to validate
//   - anchors: Trust anchors for this call
//   - store: Source of intermediate certificates
//
// Returns:
//   - *Result: The first fully valid path found
//   - error: *ValidationError describing the failure
//
// Thread Safety: Safe for concurrent use.
func (v *Validator) Validate(leaf *x509certs.Certificate, anchors []TrustAnchor, store IssuerSource) (*Result, error) {
	start := time.Now()
	if snap, ok := store.(interface{ Snapshot() *x509store.Snapshot }); ok {
		store = snap.Snapshot()
	}

	s := &search{
		v:       v,
		now:     v.opts.Time,
		anchors: anchors,
		store:   store,
		revoked: make(map[string]bool),
		sigs:    make(map[sigKey]sigResult),
	}
	if s.now.IsZero() {
		s.now = start
	}

	res, verr := s.run(leaf)
	v.opts.Metrics.AddCandidateAttempts(s.attempts)
	if verr != nil {
		v.opts.Logger.Printf("x509chain: %s rejected: %v", leaf.Subject, verr)
		v.opts.Metrics.ObserveValidation(verr.Kind.Label(), time.Since(start))
		return nil, verr
	}
	v.opts.Metrics.ObserveValidation(metrics.ResultValid, time.Since(start))
	return res, nil
}

type sigKey struct {
	fingerprint string
	key         string
}

type sigResult struct {
	ok  bool
	err error
}

// search is the state of one Validate call.
type search struct {
	v       *Validator
	now     time.Time
	anchors []TrustAnchor
	store   IssuerSource

	attempts  int
	exhausted bool
	last      *ValidationError

	revoked map[string]bool
	sigs    map[sigKey]sigResult
}

func (s *search) run(leaf *x509certs.Certificate) (*Result, *ValidationError) {
	path := []*x509certs.Certificate{leaf}

	// Failures no issuer choice can cure.
	set, err := s.v.proc.Process(leaf)
	if err != nil {
		return nil, failure(KindUnsupportedCriticalExtension, path, 0, err)
	}
	if kind, err := checkValidity(leaf, s.now); err != nil {
		return nil, failure(kind, path, 0, err)
	}
	if s.isRevoked(leaf) {
		return nil, failure(KindRevoked, path, 0, nil)
	}

	for i := range s.anchors {
		if s.anchors[i].is(leaf) {
			return &Result{Path: path, Anchor: s.anchors[i], AnyPolicy: true}, nil
		}
	}

	if res := s.extend(path, []*x509ext.ConstraintSet{set}); res != nil {
		return res, nil
	}
	switch {
	case s.exhausted && s.last != nil:
		return nil, failure(KindIncompletePath, path, 0, fmt.Errorf("%w; last rejection: %v", errCandidateLimit, s.last))
	case s.exhausted || s.last == nil:
		return nil, failure(KindIncompletePath, path, 0, errCandidateLimit)
	}
	return nil, s.last
}

// attempt counts one candidate and reports whether it may be tried.
func (s *search) attempt() bool {
	if s.exhausted {
		return false
	}
	s.attempts++
	if limit := s.v.opts.MaxCandidates; limit > 0 && s.attempts > limit {
		s.attempts = limit
		s.exhausted = true
		s.v.opts.Logger.Println("x509chain:", errCandidateLimit)
		return false
	}
	return true
}

func (s *search) reject(err *ValidationError) {
	s.v.opts.Logger.Printf("x509chain: candidate rejected: %v", err)
	s.last = err
}

// extend tries every issuer of the last certificate of path, depth first.
func (s *search) extend(path []*x509certs.Certificate, sets []*x509ext.ConstraintSet) *Result {
	cur := path[len(path)-1]
	tried := false

	for i := range s.anchors {
		a := &s.anchors[i]
		if !a.issues(cur) {
			continue
		}
		if !s.attempt() {
			return nil
		}
		tried = true
		s.v.opts.Logger.Printf("x509chain: trying trust anchor %s for %s", a.Subject, cur.Subject)
		res, err := s.finish(path, sets, a)
		if err == nil {
			return res
		}
		s.reject(err)
	}

	if s.store == nil {
		if !tried {
			s.reject(failure(KindIncompletePath, path, len(path)-1, fmt.Errorf("no issuer found for %s", cur.Issuer)))
		}
		return nil
	}
	if len(path) >= s.v.opts.MaxDepth {
		if !tried {
			s.reject(failure(KindIncompletePath, path, len(path)-1, errMaxDepth))
		}
		return nil
	}

	for _, cand := range s.store.FindIssuers(cur.Issuer, cur.AuthorityKeyID()) {
		if s.skip(path, cand) {
			continue
		}
		if !s.attempt() {
			return nil
		}
		tried = true
		s.v.opts.Logger.Printf("x509chain: trying issuer %s for %s", cand.Subject, cur.Subject)

		next := append(path[:len(path):len(path)], cand)
		if err := s.checkSignature(next, len(path)-1, cand.PublicKey); err != nil {
			s.reject(err)
			continue
		}
		set, err := s.v.proc.Process(cand)
		if err != nil {
			s.reject(failure(KindUnsupportedCriticalExtension, next, len(path), err))
			continue
		}
		if res := s.extend(next, append(sets[:len(sets):len(sets)], set)); res != nil {
			return res
		}
		if s.exhausted {
			return nil
		}
	}

	if !tried {
		s.reject(failure(KindIncompletePath, path, len(path)-1, fmt.Errorf("no issuer found for %s", cur.Issuer)))
	}
	return nil
}

// skip reports candidates already on the path or tried as trust anchors.
func (s *search) skip(path []*x509certs.Certificate, cand *x509certs.Certificate) bool {
	for _, c := range path {
		if bytes.Equal(c.Raw, cand.Raw) {
			return true
		}
	}
	for i := range s.anchors {
		if s.anchors[i].is(cand) {
			return true
		}
	}
	return false
}

// isRevoked consults the oracle at most once per certificate per call.
func (s *search) isRevoked(cert *x509certs.Certificate) bool {
	if s.v.opts.Revocation == nil {
		return false
	}
	fp := cert.Fingerprint()
	if r, ok := s.revoked[fp]; ok {
		return r
	}
	r := s.v.opts.Revocation.IsRevoked(cert)
	s.revoked[fp] = r
	s.v.opts.Metrics.ObserveRevocation(r)
	return r
}

// checkSignature verifies path[i] with pub.
func (s *search) checkSignature(path []*x509certs.Certificate, i int, pub x509certs.PublicKeyInfo) *ValidationError {
	cert := path[i]
	key := sigKey{fingerprint: cert.Fingerprint(), key: string(pub.Raw)}
	r, ok := s.sigs[key]
	if !ok {
		r.ok, r.err = x509provider.VerifyCertificate(s.v.opts.Provider, cert, pub)
		s.sigs[key] = r
	}
	switch {
	case r.err != nil && errors.Is(r.err, x509provider.ErrUnsupportedAlgorithm):
		return failure(KindUnsupportedAlgorithm, path, i, r.err)
	case r.err != nil:
		return failure(KindProviderError, path, i, r.err)
	case !r.ok:
		return failure(KindSignatureInvalid, path, i, nil)
	}
	return nil
}
