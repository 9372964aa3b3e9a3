// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509revocation

import (
	"errors"
	"math/big"
	"time"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
	x509provider "github.com/H0llyW00dzZ/x509-path-validator/src/x509/provider"
)

var (
	// ErrInvalidResponse indicates revocation data that cannot be parsed.
	ErrInvalidResponse = errors.New("x509revocation: invalid revocation data")
	// ErrIssuerMismatch indicates revocation data issued by someone else.
	ErrIssuerMismatch = errors.New("x509revocation: issuer mismatch")
	// ErrBadSignature indicates revocation data whose signature does not verify.
	ErrBadSignature = errors.New("x509revocation: bad signature")
)

// Oracle answers whether a certificate is revoked.
type Oracle interface {
	IsRevoked(cert *x509certs.Certificate) bool
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(cert *x509certs.Certificate) bool

// IsRevoked calls f(cert).
func (f OracleFunc) IsRevoked(cert *x509certs.Certificate) bool { return f(cert) }

type anyOracle []Oracle

func (a anyOracle) IsRevoked(cert *x509certs.Certificate) bool {
	for _, o := range a {
		if o.IsRevoked(cert) {
			return true
		}
	}
	return false
}

// Any returns an Oracle reporting revocation when any of oracles does.
// Nil oracles are skipped.
func Any(oracles ...Oracle) Oracle {
	out := make(anyOracle, 0, len(oracles))
	for _, o := range oracles {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Option configures an oracle.
type Option func(*options)

type options struct {
	now      func() time.Time
	strict   bool
	maxSize  int
	grace    time.Duration
	verifier x509provider.Verifier
}

func newOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		maxSize:  100,
		grace:    time.Hour,
		verifier: x509provider.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock sets the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithStrict reports certificates without fresh, definite status as revoked.
func WithStrict() Option {
	return func(o *options) { o.strict = true }
}

// WithMaxSize bounds how many issuers are tracked; the least recently used
// issuer is evicted first. Zero means unlimited.
func WithMaxSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxSize = n
		}
	}
}

// WithVerifier sets the signature verifier for CRLs.
func WithVerifier(v x509provider.Verifier) Option {
	return func(o *options) { o.verifier = v }
}

func serialKey(n *big.Int) string { return n.Text(16) }
