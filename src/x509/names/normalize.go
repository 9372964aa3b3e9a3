// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509names

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

var (
	// ErrInvalidDNSName is returned when a DNS name fails IDNA lookup rules.
	ErrInvalidDNSName = errors.New("x509names: invalid DNS name")
	// ErrInvalidEmail is returned for an rfc822Name without a usable domain part.
	ErrInvalidEmail = errors.New("x509names: invalid email address")
)

// lookup applies UTS #46 lookup mapping, enforces DNS length limits and the
// bidi rule, and restricts labels to letters, digits and hyphens.
var lookup = idna.New(
	idna.MapForLookup(),
	idna.VerifyDNSLength(true),
	idna.BidiRule(),
)

const wildcardPrefix = "*."

// NormalizeDNSName converts a DNS name to its lower-case ASCII-compatible form.
//
// A single trailing dot is dropped. A leading "*." wildcard label is kept
// verbatim and the remainder is normalized. Names with empty labels, labels
// longer than 63 octets, a total length above 253 octets, or code points that
// IDNA disallows are rejected with ErrInvalidDNSName.
func NormalizeDNSName(name string) (string, error) {
	s := strings.TrimSuffix(name, ".")
	if s == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidDNSName)
	}

	prefix := ""
	if strings.HasPrefix(s, wildcardPrefix) {
		prefix, s = wildcardPrefix, s[len(wildcardPrefix):]
	}

	out, err := lookup.ToASCII(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidDNSName, name, err)
	}
	return prefix + strings.ToLower(out), nil
}

// NormalizeDNSConstraint normalizes a dNSName subtree base. The empty
// constraint, which matches every name, is returned unchanged, and a leading
// dot marking "subdomains only" is preserved.
func NormalizeDNSConstraint(constraint string) (string, error) {
	if constraint == "" {
		return "", nil
	}
	if rest, ok := strings.CutPrefix(constraint, "."); ok {
		n, err := NormalizeDNSName(rest)
		if err != nil {
			return "", err
		}
		return "." + n, nil
	}
	return NormalizeDNSName(constraint)
}

// NamesEqual reports whether two DNS names are equal after normalization.
// Names that cannot be normalized are never equal to anything.
func NamesEqual(a, b string) bool {
	na, err := NormalizeDNSName(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeDNSName(b)
	if err != nil {
		return false
	}
	return na == nb
}

// ToUnicode returns the display form of a normalized DNS name, decoding any
// punycode labels.
func ToUnicode(name string) (string, error) {
	prefix := ""
	if strings.HasPrefix(name, wildcardPrefix) {
		prefix, name = wildcardPrefix, name[len(wildcardPrefix):]
	}
	out, err := idna.Display.ToUnicode(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDNSName, err)
	}
	return prefix + out, nil
}

// NormalizeEmail lower-cases and IDNA-normalizes the domain part of an
// rfc822Name. The local part is case-sensitive and kept as is.
func NormalizeEmail(email string) (string, error) {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	domain, err := NormalizeDNSName(email[at+1:])
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidEmail, email, err)
	}
	return email[:at+1] + domain, nil
}
