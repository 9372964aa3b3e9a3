// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"encoding/asn1"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Extension is one entry of the extensions field.
type Extension struct {
	ID       asn1.ObjectIdentifier
	Critical bool
	// Value is the content of extnValue.
	Value []byte
	// Parsed is the decoded form. It is never nil on a decoded certificate.
	Parsed ExtensionValue
}

// ExtensionValue is the decoded form of an extension. The set of
// implementations is closed; unknown extensions decode to
// *UnrecognizedExtension.
type ExtensionValue interface{ extensionValue() }

// UnrecognizedExtension holds an extension whose OID has no decoder.
type UnrecognizedExtension struct {
	Critical bool
	Raw      []byte
}

// BasicConstraints marks a certificate as a CA. MaxPathLen is -1 when no
// pathLenConstraint is present.
type BasicConstraints struct {
	IsCA       bool
	MaxPathLen int
}

// KeyUsageBits is the keyUsage bit set; bit n of the BIT STRING is 1<<n.
type KeyUsageBits uint16

// Key usage bits in the order of RFC 5280.
const (
	KeyUsageDigitalSignature KeyUsageBits = 1 << iota
	KeyUsageContentCommitment
	KeyUsageKeyEncipherment
	KeyUsageDataEncipherment
	KeyUsageKeyAgreement
	KeyUsageCertSign
	KeyUsageCRLSign
	KeyUsageEncipherOnly
	KeyUsageDecipherOnly
)

// KeyUsage is the decoded keyUsage extension.
type KeyUsage struct{ Bits KeyUsageBits }

// Has reports whether every bit of want is asserted.
func (k *KeyUsage) Has(want KeyUsageBits) bool { return k.Bits&want == want }

// ExtKeyUsage lists the extended key usage purposes.
type ExtKeyUsage struct{ Purposes []asn1.ObjectIdentifier }

// Has reports whether the purpose, or anyExtendedKeyUsage, is listed.
func (e *ExtKeyUsage) Has(purpose asn1.ObjectIdentifier) bool {
	for _, p := range e.Purposes {
		if p.Equal(purpose) || p.Equal(OIDExtKeyUsageAny) {
			return true
		}
	}
	return false
}

// NameConstraints holds permitted and excluded subtrees.
type NameConstraints struct {
	Permitted []GeneralName
	Excluded  []GeneralName
}

// AuthorityKeyIdentifier identifies the key that signed the certificate.
type AuthorityKeyIdentifier struct {
	KeyID  []byte
	Issuer []GeneralName
	Serial *SerialNumber
}

// SubjectKeyIdentifier identifies the certified public key.
type SubjectKeyIdentifier struct{ KeyID []byte }

// SubjectAltName lists alternative subject identities.
type SubjectAltName struct{ Names []GeneralName }

// IssuerAltName lists alternative issuer identities.
type IssuerAltName struct{ Names []GeneralName }

// PolicyInformation is one certificate policy with its raw qualifiers.
type PolicyInformation struct {
	ID         asn1.ObjectIdentifier
	Qualifiers []byte
}

// CertificatePolicies lists the policies the certificate was issued under.
type CertificatePolicies struct{ Policies []PolicyInformation }

// Has reports whether policy is listed.
func (c *CertificatePolicies) Has(policy asn1.ObjectIdentifier) bool {
	for _, p := range c.Policies {
		if p.ID.Equal(policy) {
			return true
		}
	}
	return false
}

// PolicyConstraints limits policy processing below the certificate. A field
// is -1 when absent.
type PolicyConstraints struct {
	RequireExplicitPolicy int
	InhibitPolicyMapping  int
}

// InhibitAnyPolicy is the number of further certificates that may assert anyPolicy.
type InhibitAnyPolicy struct{ SkipCerts int }

// AccessDescription is one authorityInfoAccess entry.
type AccessDescription struct {
	Method   asn1.ObjectIdentifier
	Location GeneralName
}

// AuthorityInfoAccess lists where to find issuer information.
type AuthorityInfoAccess struct{ Descriptions []AccessDescription }

// OCSPServers returns the URIs of OCSP responders.
func (a *AuthorityInfoAccess) OCSPServers() []string { return a.uris(OIDAccessMethodOCSP) }

// IssuingCertificateURLs returns the URIs of caIssuers entries.
func (a *AuthorityInfoAccess) IssuingCertificateURLs() []string {
	return a.uris(OIDAccessMethodCAIssuers)
}

func (a *AuthorityInfoAccess) uris(method asn1.ObjectIdentifier) []string {
	var out []string
	for _, d := range a.Descriptions {
		if d.Method.Equal(method) && d.Location.Kind == GeneralNameURI {
			out = append(out, d.Location.URI)
		}
	}
	return out
}

// DistributionPoint is one CRL distribution point. Only the fullName form is decoded.
type DistributionPoint struct {
	FullName  []GeneralName
	CRLIssuer []GeneralName
	Raw       []byte
}

// CRLDistributionPoints lists where CRLs covering the certificate are published.
type CRLDistributionPoints struct{ Points []DistributionPoint }

// URIs returns every fullName URI across all points.
func (c *CRLDistributionPoints) URIs() []string {
	var out []string
	for _, p := range c.Points {
		for _, n := range p.FullName {
			if n.Kind == GeneralNameURI {
				out = append(out, n.URI)
			}
		}
	}
	return out
}

func (*UnrecognizedExtension) extensionValue()  {}
func (*BasicConstraints) extensionValue()       {}
func (*KeyUsage) extensionValue()               {}
func (*ExtKeyUsage) extensionValue()            {}
func (*NameConstraints) extensionValue()        {}
func (*AuthorityKeyIdentifier) extensionValue() {}
func (*SubjectKeyIdentifier) extensionValue()   {}
func (*SubjectAltName) extensionValue()         {}
func (*IssuerAltName) extensionValue()          {}
func (*CertificatePolicies) extensionValue()    {}
func (*PolicyConstraints) extensionValue()      {}
func (*InhibitAnyPolicy) extensionValue()       {}
func (*AuthorityInfoAccess) extensionValue()    {}
func (*CRLDistributionPoints) extensionValue()  {}

type extensionParser func(cryptobyte.String) (ExtensionValue, error)

// extensionParsers is keyed by dotted OID.
var extensionParsers = map[string]extensionParser{
	OIDExtensionBasicConstraints.String():      parseBasicConstraints,
	OIDExtensionKeyUsage.String():              parseKeyUsage,
	OIDExtensionExtKeyUsage.String():           parseExtKeyUsage,
	OIDExtensionNameConstraints.String():       parseNameConstraints,
	OIDExtensionAuthorityKeyID.String():        parseAuthorityKeyID,
	OIDExtensionSubjectKeyID.String():          parseSubjectKeyID,
	OIDExtensionSubjectAltName.String():        parseSubjectAltName,
	OIDExtensionIssuerAltName.String():         parseIssuerAltName,
	OIDExtensionCertificatePolicies.String():   parseCertificatePolicies,
	OIDExtensionPolicyConstraints.String():     parsePolicyConstraints,
	OIDExtensionInhibitAnyPolicy.String():      parseInhibitAnyPolicy,
	OIDExtensionAuthorityInfoAccess.String():   parseAuthorityInfoAccess,
	OIDExtensionCRLDistributionPoints.String(): parseCRLDistributionPoints,
}

// IsRecognized reports whether the OID has a structured decoder.
func IsRecognized(oid asn1.ObjectIdentifier) bool {
	_, ok := extensionParsers[oid.String()]
	return ok
}

// decodeValue fills ext.Parsed.
func (ext *Extension) decodeValue() error {
	parse, ok := extensionParsers[ext.ID.String()]
	if !ok {
		ext.Parsed = &UnrecognizedExtension{Critical: ext.Critical, Raw: ext.Value}
		return nil
	}
	v, err := parse(cryptobyte.String(ext.Value))
	if err != nil {
		return err
	}
	ext.Parsed = v
	return nil
}

func parseBasicConstraints(der cryptobyte.String) (ExtensionValue, error) {
	const field = "extension.basicConstraints"
	bc := &BasicConstraints{MaxPathLen: -1}
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !der.Empty() {
		return nil, malformed(field)
	}
	if seq.PeekASN1Tag(cryptobyte_asn1.BOOLEAN) && !seq.ReadASN1Boolean(&bc.IsCA) {
		return nil, malformed(field + ".cA")
	}
	if seq.PeekASN1Tag(cryptobyte_asn1.INTEGER) {
		if !seq.ReadASN1Integer(&bc.MaxPathLen) || bc.MaxPathLen < 0 {
			return nil, malformed(field + ".pathLenConstraint")
		}
	}
	if !seq.Empty() {
		return nil, malformed(field)
	}
	return bc, nil
}

func parseKeyUsage(der cryptobyte.String) (ExtensionValue, error) {
	var bits asn1.BitString
	if !der.ReadASN1BitString(&bits) || !der.Empty() || bits.BitLength > 9 {
		return nil, malformed("extension.keyUsage")
	}
	ku := &KeyUsage{}
	for i := range bits.BitLength {
		if bits.At(i) != 0 {
			ku.Bits |= 1 << uint(i)
		}
	}
	return ku, nil
}

func parseExtKeyUsage(der cryptobyte.String) (ExtensionValue, error) {
	const field = "extension.extKeyUsage"
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !der.Empty() || seq.Empty() {
		return nil, malformed(field)
	}
	eku := &ExtKeyUsage{}
	for !seq.Empty() {
		var oid asn1.ObjectIdentifier
		if !seq.ReadASN1ObjectIdentifier(&oid) {
			return nil, malformed(field)
		}
		eku.Purposes = append(eku.Purposes, oid)
	}
	return eku, nil
}

func parseNameConstraints(der cryptobyte.String) (ExtensionValue, error) {
	const field = "extension.nameConstraints"
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !der.Empty() {
		return nil, malformed(field)
	}

	subtrees := func(tag cryptobyte_asn1.Tag) ([]GeneralName, error) {
		var body cryptobyte.String
		var present bool
		if !seq.ReadOptionalASN1(&body, &present, tag) {
			return nil, malformed(field)
		}
		if present && body.Empty() {
			return nil, malformed(field + ".subtrees")
		}
		var out []GeneralName
		for !body.Empty() {
			var subtree cryptobyte.String
			if !body.ReadASN1(&subtree, cryptobyte_asn1.SEQUENCE) {
				return nil, malformed(field + ".subtree")
			}
			// minimum and maximum are fixed by the PKIX profile and ignored.
			gn, err := parseGeneralName(&subtree, true, field+".subtree.base")
			if err != nil {
				return nil, err
			}
			out = append(out, gn)
		}
		return out, nil
	}

	nc := &NameConstraints{}
	var err error
	if nc.Permitted, err = subtrees(cryptobyte_asn1.Tag(0).ContextSpecific().Constructed()); err != nil {
		return nil, err
	}
	if nc.Excluded, err = subtrees(cryptobyte_asn1.Tag(1).ContextSpecific().Constructed()); err != nil {
		return nil, err
	}
	if !seq.Empty() || (len(nc.Permitted) == 0 && len(nc.Excluded) == 0) {
		return nil, malformed(field)
	}
	return nc, nil
}

func parseAuthorityKeyID(der cryptobyte.String) (ExtensionValue, error) {
	const field = "extension.authorityKeyIdentifier"
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !der.Empty() {
		return nil, malformed(field)
	}
	aki := &AuthorityKeyIdentifier{}

	var body cryptobyte.String
	var present bool
	if !seq.ReadOptionalASN1(&body, &present, cryptobyte_asn1.Tag(0).ContextSpecific()) {
		return nil, malformed(field + ".keyIdentifier")
	}
	if present {
		aki.KeyID = body
	}
	if !seq.ReadOptionalASN1(&body, &present, cryptobyte_asn1.Tag(1).ContextSpecific().Constructed()) {
		return nil, malformed(field + ".authorityCertIssuer")
	}
	if present {
		names, err := parseGeneralNames(body, field+".authorityCertIssuer")
		if err != nil {
			return nil, err
		}
		aki.Issuer = names
	}
	if !seq.ReadOptionalASN1(&body, &present, cryptobyte_asn1.Tag(2).ContextSpecific()) {
		return nil, malformed(field + ".authorityCertSerialNumber")
	}
	if present {
		sn := SerialNumberFromBytes(body)
		aki.Serial = &sn
	}
	if !seq.Empty() {
		return nil, malformed(field)
	}
	return aki, nil
}

func parseSubjectKeyID(der cryptobyte.String) (ExtensionValue, error) {
	var id cryptobyte.String
	if !der.ReadASN1(&id, cryptobyte_asn1.OCTET_STRING) || !der.Empty() {
		return nil, malformed("extension.subjectKeyIdentifier")
	}
	return &SubjectKeyIdentifier{KeyID: id}, nil
}

func readGeneralNames(der cryptobyte.String, field string) ([]GeneralName, error) {
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !der.Empty() || seq.Empty() {
		return nil, malformed(field)
	}
	return parseGeneralNames(seq, field)
}

func parseSubjectAltName(der cryptobyte.String) (ExtensionValue, error) {
	names, err := readGeneralNames(der, "extension.subjectAltName")
	if err != nil {
		return nil, err
	}
	return &SubjectAltName{Names: names}, nil
}

func parseIssuerAltName(der cryptobyte.String) (ExtensionValue, error) {
	names, err := readGeneralNames(der, "extension.issuerAltName")
	if err != nil {
		return nil, err
	}
	return &IssuerAltName{Names: names}, nil
}

func parseCertificatePolicies(der cryptobyte.String) (ExtensionValue, error) {
	const field = "extension.certificatePolicies"
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !der.Empty() || seq.Empty() {
		return nil, malformed(field)
	}
	cp := &CertificatePolicies{}
	seen := make(map[string]bool)
	for !seq.Empty() {
		var info cryptobyte.String
		var pi PolicyInformation
		if !seq.ReadASN1(&info, cryptobyte_asn1.SEQUENCE) || !info.ReadASN1ObjectIdentifier(&pi.ID) {
			return nil, malformed(field + ".policyInformation")
		}
		if seen[pi.ID.String()] {
			return nil, malformed(field + ".duplicatePolicy")
		}
		seen[pi.ID.String()] = true
		if !info.Empty() {
			var q cryptobyte.String
			if !info.ReadASN1Element(&q, cryptobyte_asn1.SEQUENCE) || !info.Empty() {
				return nil, malformed(field + ".policyQualifiers")
			}
			pi.Qualifiers = q
		}
		cp.Policies = append(cp.Policies, pi)
	}
	return cp, nil
}

func parsePolicyConstraints(der cryptobyte.String) (ExtensionValue, error) {
	const field = "extension.policyConstraints"
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !der.Empty() {
		return nil, malformed(field)
	}
	pc := &PolicyConstraints{RequireExplicitPolicy: -1, InhibitPolicyMapping: -1}
	read := func(tag cryptobyte_asn1.Tag, out *int) bool {
		if !seq.PeekASN1Tag(tag) {
			return true
		}
		var v int64
		if !seq.ReadASN1Int64WithTag(&v, tag) || v < 0 || v > 1<<30 {
			return false
		}
		*out = int(v)
		return true
	}
	if !read(cryptobyte_asn1.Tag(0).ContextSpecific(), &pc.RequireExplicitPolicy) ||
		!read(cryptobyte_asn1.Tag(1).ContextSpecific(), &pc.InhibitPolicyMapping) ||
		!seq.Empty() ||
		(pc.RequireExplicitPolicy < 0 && pc.InhibitPolicyMapping < 0) {
		return nil, malformed(field)
	}
	return pc, nil
}

func parseInhibitAnyPolicy(der cryptobyte.String) (ExtensionValue, error) {
	var n int
	if !der.ReadASN1Integer(&n) || !der.Empty() || n < 0 {
		return nil, malformed("extension.inhibitAnyPolicy")
	}
	return &InhibitAnyPolicy{SkipCerts: n}, nil
}

func parseAuthorityInfoAccess(der cryptobyte.String) (ExtensionValue, error) {
	const field = "extension.authorityInfoAccess"
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !der.Empty() || seq.Empty() {
		return nil, malformed(field)
	}
	aia := &AuthorityInfoAccess{}
	for !seq.Empty() {
		var desc cryptobyte.String
		var ad AccessDescription
		if !seq.ReadASN1(&desc, cryptobyte_asn1.SEQUENCE) || !desc.ReadASN1ObjectIdentifier(&ad.Method) {
			return nil, malformed(field + ".accessDescription")
		}
		loc, err := parseGeneralName(&desc, false, field+".accessLocation")
		if err != nil {
			return nil, err
		}
		if !desc.Empty() {
			return nil, malformed(field + ".accessDescription")
		}
		ad.Location = loc
		aia.Descriptions = append(aia.Descriptions, ad)
	}
	return aia, nil
}

func parseCRLDistributionPoints(der cryptobyte.String) (ExtensionValue, error) {
	const field = "extension.cRLDistributionPoints"
	var seq cryptobyte.String
	if !der.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !der.Empty() || seq.Empty() {
		return nil, malformed(field)
	}
	cdp := &CRLDistributionPoints{}
	for !seq.Empty() {
		var raw, dp cryptobyte.String
		if !seq.ReadASN1Element(&raw, cryptobyte_asn1.SEQUENCE) {
			return nil, malformed(field + ".distributionPoint")
		}
		point := DistributionPoint{Raw: raw}
		raw.ReadASN1(&dp, cryptobyte_asn1.SEQUENCE)

		var name cryptobyte.String
		var present bool
		if !dp.ReadOptionalASN1(&name, &present, cryptobyte_asn1.Tag(0).ContextSpecific().Constructed()) {
			return nil, malformed(field + ".distributionPointName")
		}
		if present && name.PeekASN1Tag(cryptobyte_asn1.Tag(0).ContextSpecific().Constructed()) {
			var full cryptobyte.String
			name.ReadASN1(&full, cryptobyte_asn1.Tag(0).ContextSpecific().Constructed())
			names, err := parseGeneralNames(full, field+".fullName")
			if err != nil {
				return nil, err
			}
			point.FullName = names
		}
		if !dp.SkipOptionalASN1(cryptobyte_asn1.Tag(1).ContextSpecific()) {
			return nil, malformed(field + ".reasons")
		}
		var issuer cryptobyte.String
		if !dp.ReadOptionalASN1(&issuer, &present, cryptobyte_asn1.Tag(2).ContextSpecific().Constructed()) {
			return nil, malformed(field + ".cRLIssuer")
		}
		if present {
			names, err := parseGeneralNames(issuer, field+".cRLIssuer")
			if err != nil {
				return nil, err
			}
			point.CRLIssuer = names
		}
		if !dp.Empty() {
			return nil, malformed(field + ".distributionPoint")
		}
		cdp.Points = append(cdp.Points, point)
	}
	return cdp, nil
}
