// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"errors"
	"fmt"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
)

// Kind classifies a validation failure.
type Kind int

const (
	KindMalformedEncoding Kind = iota + 1
	KindUnsupportedCriticalExtension
	KindUnsupportedAlgorithm
	KindSignatureInvalid
	KindExpired
	KindNotYetValid
	KindPathConstraintViolated
	KindKeyUsageViolated
	KindNameConstraintViolated
	KindPolicyViolated
	KindRevoked
	KindIncompletePath
	KindProviderError
	KindCheckFailed
)

var kindNames = map[Kind]string{
	KindMalformedEncoding:            "malformed encoding",
	KindUnsupportedCriticalExtension: "unsupported critical extension",
	KindUnsupportedAlgorithm:         "unsupported algorithm",
	KindSignatureInvalid:             "signature invalid",
	KindExpired:                      "expired",
	KindNotYetValid:                  "not yet valid",
	KindPathConstraintViolated:       "path constraint violated",
	KindKeyUsageViolated:             "key usage violated",
	KindNameConstraintViolated:       "name constraint violated",
	KindPolicyViolated:               "policy violated",
	KindRevoked:                      "revoked",
	KindIncompletePath:               "incomplete path",
	KindProviderError:                "provider error",
	KindCheckFailed:                  "check failed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Label returns k in snake case, for metric labels.
func (k Kind) Label() string {
	b := []byte(k.String())
	for i, c := range b {
		if c == ' ' || c == '(' || c == ')' {
			b[i] = '_'
		}
	}
	return string(b)
}

// Sentinels matched by errors.Is against a *ValidationError of the same Kind.
var (
	ErrMalformedEncoding            = errors.New("x509chain: malformed encoding")
	ErrUnsupportedCriticalExtension = errors.New("x509chain: unsupported critical extension")
	ErrUnsupportedAlgorithm         = errors.New("x509chain: unsupported algorithm")
	ErrSignatureInvalid             = errors.New("x509chain: signature invalid")
	ErrExpired                      = errors.New("x509chain: certificate expired")
	ErrNotYetValid                  = errors.New("x509chain: certificate not yet valid")
	ErrPathConstraintViolated       = errors.New("x509chain: path constraint violated")
	ErrKeyUsageViolated             = errors.New("x509chain: key usage violated")
	ErrNameConstraintViolated       = errors.New("x509chain: name constraint violated")
	ErrPolicyViolated               = errors.New("x509chain: policy violated")
	ErrRevoked                      = errors.New("x509chain: certificate revoked")
	ErrIncompletePath               = errors.New("x509chain: incomplete path")
	ErrProviderError                = errors.New("x509chain: provider error")
	ErrCheckFailed                  = errors.New("x509chain: check failed")
)

var kindErrors = map[Kind]error{
	KindMalformedEncoding:            ErrMalformedEncoding,
	KindUnsupportedCriticalExtension: ErrUnsupportedCriticalExtension,
	KindUnsupportedAlgorithm:         ErrUnsupportedAlgorithm,
	KindSignatureInvalid:             ErrSignatureInvalid,
	KindExpired:                      ErrExpired,
	KindNotYetValid:                  ErrNotYetValid,
	KindPathConstraintViolated:       ErrPathConstraintViolated,
	KindKeyUsageViolated:             ErrKeyUsageViolated,
	KindNameConstraintViolated:       ErrNameConstraintViolated,
	KindPolicyViolated:               ErrPolicyViolated,
	KindRevoked:                      ErrRevoked,
	KindIncompletePath:               ErrIncompletePath,
	KindProviderError:                ErrProviderError,
	KindCheckFailed:                  ErrCheckFailed,
}

// ValidationError describes why a path was rejected.
type ValidationError struct {
	Kind Kind
	// Position is the index of the failing certificate in Path; 0 is the leaf.
	Position    int
	Certificate *x509certs.Certificate
	// Path is the attempted path, leaf first.
	Path []*x509certs.Certificate
	// Err is the underlying cause, if any.
	Err error
}

func (e *ValidationError) Error() string {
	subject := "<unknown>"
	if e.Certificate != nil {
		subject = e.Certificate.Subject.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("x509chain: %s at certificate %d (%s): %v", e.Kind, e.Position, subject, e.Err)
	}
	return fmt.Sprintf("x509chain: %s at certificate %d (%s)", e.Kind, e.Position, subject)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e.Kind.
func (e *ValidationError) Is(target error) bool {
	return target != nil && kindErrors[e.Kind] == target
}

// failure builds a ValidationError at position i of path. The path is
// copied so later extension of the search does not alter it.
func failure(kind Kind, path []*x509certs.Certificate, i int, err error) *ValidationError {
	e := &ValidationError{
		Kind:     kind,
		Position: i,
		Path:     append([]*x509certs.Certificate(nil), path...),
		Err:      err,
	}
	if i >= 0 && i < len(path) {
		e.Certificate = path[i]
	}
	return e
}
