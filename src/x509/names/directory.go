// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509names

import (
	"encoding/asn1"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MatchingRule is the comparison rule for a directory attribute type.
type MatchingRule int

const (
	// RuleUnknown means no rule is known; compare encoded bytes.
	RuleUnknown MatchingRule = iota
	// RuleCaseIgnore folds case and collapses insignificant whitespace.
	RuleCaseIgnore
	// RuleCaseExact collapses insignificant whitespace but preserves case.
	RuleCaseExact
)

// attributeRules maps attribute type OIDs (dotted form) to their rule.
var attributeRules = map[string]MatchingRule{
	"2.5.4.3":                    RuleCaseIgnore, // commonName
	"2.5.4.4":                    RuleCaseIgnore, // surname
	"2.5.4.5":                    RuleCaseIgnore, // serialNumber
	"2.5.4.6":                    RuleCaseIgnore, // countryName
	"2.5.4.7":                    RuleCaseIgnore, // localityName
	"2.5.4.8":                    RuleCaseIgnore, // stateOrProvinceName
	"2.5.4.9":                    RuleCaseIgnore, // streetAddress
	"2.5.4.10":                   RuleCaseIgnore, // organizationName
	"2.5.4.11":                   RuleCaseIgnore, // organizationalUnitName
	"2.5.4.12":                   RuleCaseIgnore, // title
	"2.5.4.17":                   RuleCaseIgnore, // postalCode
	"2.5.4.42":                   RuleCaseIgnore, // givenName
	"2.5.4.43":                   RuleCaseIgnore, // initials
	"2.5.4.44":                   RuleCaseIgnore, // generationQualifier
	"2.5.4.46":                   RuleCaseIgnore, // dnQualifier
	"2.5.4.65":                   RuleCaseIgnore, // pseudonym
	"2.5.4.97":                   RuleCaseIgnore, // organizationIdentifier
	"0.9.2342.19200300.100.1.1":  RuleCaseIgnore, // uid
	"0.9.2342.19200300.100.1.25": RuleCaseIgnore, // domainComponent
	"1.2.840.113549.1.9.1":       RuleCaseIgnore, // emailAddress
	"1.3.6.1.4.1.311.60.2.1.3":   RuleCaseExact,  // jurisdictionCountryName
}

// RuleFor returns the matching rule for an attribute type.
func RuleFor(oid asn1.ObjectIdentifier) MatchingRule {
	return attributeRules[oid.String()]
}

// CanonicalAttributeValue returns the comparison form of a decoded attribute
// value. The second result is false when the attribute type has no known
// matching rule, in which case the caller must compare the encoded value.
func CanonicalAttributeValue(oid asn1.ObjectIdentifier, value string) (string, bool) {
	switch RuleFor(oid) {
	case RuleCaseIgnore:
		return collapseSpace(cases.Fold().String(norm.NFKC.String(value))), true
	case RuleCaseExact:
		return collapseSpace(norm.NFKC.String(value)), true
	default:
		return "", false
	}
}

// collapseSpace trims leading and trailing whitespace and replaces every
// interior run of whitespace with a single space.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.TrimFunc(s, unicode.IsSpace) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
