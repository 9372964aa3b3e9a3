// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import "encoding/asn1"

// Extension identifiers.
var (
	OIDExtensionSubjectKeyID          = asn1.ObjectIdentifier{2, 5, 29, 14}
	OIDExtensionKeyUsage              = asn1.ObjectIdentifier{2, 5, 29, 15}
	OIDExtensionSubjectAltName        = asn1.ObjectIdentifier{2, 5, 29, 17}
	OIDExtensionIssuerAltName         = asn1.ObjectIdentifier{2, 5, 29, 18}
	OIDExtensionBasicConstraints      = asn1.ObjectIdentifier{2, 5, 29, 19}
	OIDExtensionNameConstraints       = asn1.ObjectIdentifier{2, 5, 29, 30}
	OIDExtensionCRLDistributionPoints = asn1.ObjectIdentifier{2, 5, 29, 31}
	OIDExtensionCertificatePolicies   = asn1.ObjectIdentifier{2, 5, 29, 32}
	OIDExtensionAuthorityKeyID        = asn1.ObjectIdentifier{2, 5, 29, 35}
	OIDExtensionPolicyConstraints     = asn1.ObjectIdentifier{2, 5, 29, 36}
	OIDExtensionExtKeyUsage           = asn1.ObjectIdentifier{2, 5, 29, 37}
	OIDExtensionInhibitAnyPolicy      = asn1.ObjectIdentifier{2, 5, 29, 54}
	OIDExtensionAuthorityInfoAccess   = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 1}
)

// Extended key usage purposes.
var (
	OIDExtKeyUsageAny             = asn1.ObjectIdentifier{2, 5, 29, 37, 0}
	OIDExtKeyUsageServerAuth      = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 1}
	OIDExtKeyUsageClientAuth      = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 2}
	OIDExtKeyUsageCodeSigning     = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 3}
	OIDExtKeyUsageEmailProtection = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 4}
	OIDExtKeyUsageTimeStamping    = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 8}
	OIDExtKeyUsageOCSPSigning     = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 9}
)

// OIDAnyPolicy is the special anyPolicy certificate policy.
var OIDAnyPolicy = asn1.ObjectIdentifier{2, 5, 29, 32, 0}

// Access methods used in the authority information access extension.
var (
	OIDAccessMethodOCSP      = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1}
	OIDAccessMethodCAIssuers = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 2}
)

// Common attribute types.
var (
	OIDAttributeCommonName         = asn1.ObjectIdentifier{2, 5, 4, 3}
	OIDAttributeSerialNumber       = asn1.ObjectIdentifier{2, 5, 4, 5}
	OIDAttributeCountry            = asn1.ObjectIdentifier{2, 5, 4, 6}
	OIDAttributeLocality           = asn1.ObjectIdentifier{2, 5, 4, 7}
	OIDAttributeProvince           = asn1.ObjectIdentifier{2, 5, 4, 8}
	OIDAttributeStreetAddress      = asn1.ObjectIdentifier{2, 5, 4, 9}
	OIDAttributeOrganization       = asn1.ObjectIdentifier{2, 5, 4, 10}
	OIDAttributeOrganizationalUnit = asn1.ObjectIdentifier{2, 5, 4, 11}
	OIDAttributePostalCode         = asn1.ObjectIdentifier{2, 5, 4, 17}
	OIDAttributeDomainComponent    = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 25}
	OIDAttributeEmailAddress       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}
)

// attributeShortNames are the RFC 4514 labels used by Name.String.
var attributeShortNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.5":                    "SERIALNUMBER",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "STREET",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"2.5.4.17":                   "POSTALCODE",
	"0.9.2342.19200300.100.1.1":  "UID",
	"0.9.2342.19200300.100.1.25": "DC",
}
