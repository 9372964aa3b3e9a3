// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"math/big"
	"slices"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/crypto/sha3"
)

// AlgorithmIdentifier is an algorithm OID with optional parameters.
type AlgorithmIdentifier struct {
	Algorithm asn1.ObjectIdentifier
	// Parameters is the complete TLV of the parameters, or nil when absent.
	Parameters []byte
	// Raw is the complete TLV of the identifier.
	Raw []byte
}

// Equal compares the encoded forms.
func (a AlgorithmIdentifier) Equal(o AlgorithmIdentifier) bool {
	return a.Algorithm.Equal(o.Algorithm) && bytes.Equal(a.Parameters, o.Parameters)
}

// Validity is the certificate validity window, both ends inclusive.
type Validity struct {
	NotBefore time.Time
	NotAfter  time.Time
}

// Contains reports whether NotBefore <= t <= NotAfter.
func (v Validity) Contains(t time.Time) bool {
	return !t.Before(v.NotBefore) && !t.After(v.NotAfter)
}

// PublicKeyInfo is a SubjectPublicKeyInfo.
type PublicKeyInfo struct {
	Algorithm AlgorithmIdentifier
	Key       BitString
	// Raw is the complete TLV, as accepted by x509.ParsePKIXPublicKey.
	Raw []byte
}

// Certificate is a decoded X.509 certificate. It must not be modified after
// decoding; every Raw field aliases one private buffer.
type Certificate struct {
	Raw                     []byte
	RawTBSCertificate       []byte
	RawIssuer               []byte
	RawSubject              []byte
	RawSubjectPublicKeyInfo []byte

	// Version is 1, 2 or 3.
	Version      int
	SerialNumber SerialNumber
	// TBSSignature is the signature field inside the TBS structure.
	TBSSignature AlgorithmIdentifier
	Issuer       Name
	Subject      Name
	Validity     Validity
	PublicKey    PublicKeyInfo

	IssuerUniqueID  *BitString
	SubjectUniqueID *BitString
	Extensions      []Extension

	SignatureAlgorithm AlgorithmIdentifier
	SignatureValue     BitString

	fingerprint string
}

// Decode parses a single DER certificate. The input is copied; the caller may
// reuse it afterwards.
func Decode(der []byte) (*Certificate, error) {
	input := cryptobyte.String(slices.Clone(der))

	var raw cryptobyte.String
	if !input.ReadASN1Element(&raw, cryptobyte_asn1.SEQUENCE) {
		return nil, malformed("certificate")
	}
	if !input.Empty() {
		return nil, malformed("certificate: trailing data")
	}

	c := &Certificate{Raw: raw}
	var body cryptobyte.String
	raw.ReadASN1(&body, cryptobyte_asn1.SEQUENCE)

	var tbs cryptobyte.String
	if !body.ReadASN1Element(&tbs, cryptobyte_asn1.SEQUENCE) {
		return nil, malformed("tbsCertificate")
	}
	c.RawTBSCertificate = tbs
	if err := c.parseTBS(tbs); err != nil {
		return nil, err
	}

	var err error
	var sigAlg cryptobyte.String
	if !body.ReadASN1Element(&sigAlg, cryptobyte_asn1.SEQUENCE) {
		return nil, malformed("signatureAlgorithm")
	}
	if c.SignatureAlgorithm, err = parseAlgorithmIdentifier(sigAlg, "signatureAlgorithm"); err != nil {
		return nil, err
	}
	if !bytes.Equal(c.SignatureAlgorithm.Raw, c.TBSSignature.Raw) {
		return nil, malformed("signatureAlgorithm: does not match tbsCertificate.signature")
	}

	var sig asn1.BitString
	if !body.ReadASN1BitString(&sig) {
		return nil, malformed("signatureValue")
	}
	c.SignatureValue = BitString{Bytes: sig.Bytes, BitLength: sig.BitLength}
	if !body.Empty() {
		return nil, malformed("certificate: unexpected field after signatureValue")
	}

	c.fingerprint = fingerprintOf(c.Raw)
	return c, nil
}

func (c *Certificate) parseTBS(tbs cryptobyte.String) error {
	var s cryptobyte.String
	tbs.ReadASN1(&s, cryptobyte_asn1.SEQUENCE)

	// An explicit v1 is a DEFAULT value written out, which DER forbids.
	var version int
	if vtag := cryptobyte_asn1.Tag(0).Constructed().ContextSpecific(); s.PeekASN1Tag(vtag) {
		var v cryptobyte.String
		if !s.ReadASN1(&v, vtag) || !v.ReadASN1Integer(&version) || !v.Empty() ||
			version < 1 || version > 2 {
			return malformed("tbsCertificate.version")
		}
	}
	c.Version = version + 1

	serial := new(big.Int)
	if !s.ReadASN1Integer(serial) {
		return malformed("tbsCertificate.serialNumber")
	}
	if serial.Sign() < 0 {
		return malformedErr("tbsCertificate.serialNumber", ErrNegativeSerial)
	}
	c.SerialNumber = SerialNumber{v: serial}

	var err error
	var elem cryptobyte.String
	if !s.ReadASN1Element(&elem, cryptobyte_asn1.SEQUENCE) {
		return malformed("tbsCertificate.signature")
	}
	if c.TBSSignature, err = parseAlgorithmIdentifier(elem, "tbsCertificate.signature"); err != nil {
		return err
	}

	if !s.ReadASN1Element(&elem, cryptobyte_asn1.SEQUENCE) {
		return malformed("tbsCertificate.issuer")
	}
	c.RawIssuer = elem
	if c.Issuer, err = parseName(elem); err != nil {
		return err
	}

	var validity cryptobyte.String
	if !s.ReadASN1(&validity, cryptobyte_asn1.SEQUENCE) {
		return malformed("tbsCertificate.validity")
	}
	if c.Validity.NotBefore, err = readTime(&validity, "tbsCertificate.validity.notBefore"); err != nil {
		return err
	}
	if c.Validity.NotAfter, err = readTime(&validity, "tbsCertificate.validity.notAfter"); err != nil {
		return err
	}
	if !validity.Empty() {
		return malformed("tbsCertificate.validity")
	}

	if !s.ReadASN1Element(&elem, cryptobyte_asn1.SEQUENCE) {
		return malformed("tbsCertificate.subject")
	}
	c.RawSubject = elem
	if c.Subject, err = parseName(elem); err != nil {
		return err
	}

	if !s.ReadASN1Element(&elem, cryptobyte_asn1.SEQUENCE) {
		return malformed("tbsCertificate.subjectPublicKeyInfo")
	}
	c.RawSubjectPublicKeyInfo = elem
	if c.PublicKey, err = parsePublicKeyInfo(elem); err != nil {
		return err
	}

	if c.Version >= 2 {
		if c.IssuerUniqueID, err = readUniqueID(&s, 1, "tbsCertificate.issuerUniqueID"); err != nil {
			return err
		}
		if c.SubjectUniqueID, err = readUniqueID(&s, 2, "tbsCertificate.subjectUniqueID"); err != nil {
			return err
		}
	}

	if s.PeekASN1Tag(cryptobyte_asn1.Tag(3).Constructed().ContextSpecific()) {
		if c.Version != 3 {
			return malformed("tbsCertificate.extensions: only allowed in v3")
		}
		if c.Extensions, err = parseExtensions(&s); err != nil {
			return err
		}
	}

	if !s.Empty() {
		return malformed("tbsCertificate: trailing data")
	}
	return nil
}

func readTime(s *cryptobyte.String, field string) (time.Time, error) {
	var t time.Time
	switch {
	case s.PeekASN1Tag(cryptobyte_asn1.UTCTime):
		if !s.ReadASN1UTCTime(&t) {
			return time.Time{}, malformed(field)
		}
	case s.PeekASN1Tag(cryptobyte_asn1.GeneralizedTime):
		if !s.ReadASN1GeneralizedTime(&t) {
			return time.Time{}, malformed(field)
		}
	default:
		return time.Time{}, malformed(field)
	}
	return t.UTC(), nil
}

func readUniqueID(s *cryptobyte.String, n int, field string) (*BitString, error) {
	tag := cryptobyte_asn1.Tag(n).ContextSpecific()
	if !s.PeekASN1Tag(tag) {
		return nil, nil
	}
	var body cryptobyte.String
	if !s.ReadASN1(&body, tag) || body.Empty() {
		return nil, malformed(field)
	}
	pad := body[0]
	bits := body[1:]
	if pad > 7 || (len(bits) == 0 && pad != 0) || (len(bits) > 0 && bits[len(bits)-1]&(1<<pad-1) != 0) {
		return nil, malformed(field)
	}
	return &BitString{Bytes: bits, BitLength: len(bits)*8 - int(pad)}, nil
}

func parseAlgorithmIdentifier(raw cryptobyte.String, field string) (AlgorithmIdentifier, error) {
	ai := AlgorithmIdentifier{Raw: raw}
	var seq cryptobyte.String
	if !raw.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !seq.ReadASN1ObjectIdentifier(&ai.Algorithm) {
		return AlgorithmIdentifier{}, malformed(field)
	}
	if !seq.Empty() {
		var params cryptobyte.String
		var tag cryptobyte_asn1.Tag
		if !seq.ReadAnyASN1Element(&params, &tag) || !seq.Empty() {
			return AlgorithmIdentifier{}, malformed(field + ".parameters")
		}
		ai.Parameters = params
	}
	return ai, nil
}

func parsePublicKeyInfo(raw cryptobyte.String) (PublicKeyInfo, error) {
	const field = "tbsCertificate.subjectPublicKeyInfo"
	pki := PublicKeyInfo{Raw: raw}
	var seq, alg cryptobyte.String
	raw.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE)
	if !seq.ReadASN1Element(&alg, cryptobyte_asn1.SEQUENCE) {
		return PublicKeyInfo{}, malformed(field + ".algorithm")
	}
	var err error
	if pki.Algorithm, err = parseAlgorithmIdentifier(alg, field+".algorithm"); err != nil {
		return PublicKeyInfo{}, err
	}
	var key asn1.BitString
	if !seq.ReadASN1BitString(&key) || !seq.Empty() {
		return PublicKeyInfo{}, malformed(field + ".subjectPublicKey")
	}
	pki.Key = BitString{Bytes: key.Bytes, BitLength: key.BitLength}
	return pki, nil
}

func parseExtensions(s *cryptobyte.String) ([]Extension, error) {
	const field = "tbsCertificate.extensions"
	var wrapper, seq cryptobyte.String
	if !s.ReadASN1(&wrapper, cryptobyte_asn1.Tag(3).Constructed().ContextSpecific()) ||
		!wrapper.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !wrapper.Empty() || seq.Empty() {
		return nil, malformed(field)
	}

	var exts []Extension
	seen := make(map[string]bool)
	for !seq.Empty() {
		var e cryptobyte.String
		var ext Extension
		if !seq.ReadASN1(&e, cryptobyte_asn1.SEQUENCE) || !e.ReadASN1ObjectIdentifier(&ext.ID) {
			return nil, malformed(field + ".extension")
		}
		if e.PeekASN1Tag(cryptobyte_asn1.BOOLEAN) {
			// critical DEFAULT FALSE: an encoded FALSE is not DER.
			if !e.ReadASN1Boolean(&ext.Critical) || !ext.Critical {
				return nil, malformed(field + ".extension.critical")
			}
		}
		var value cryptobyte.String
		if !e.ReadASN1(&value, cryptobyte_asn1.OCTET_STRING) || !e.Empty() {
			return nil, malformed(field + ".extension.extnValue")
		}
		ext.Value = value

		key := ext.ID.String()
		if seen[key] {
			return nil, malformed(field + ": duplicate extension " + key)
		}
		seen[key] = true

		if err := ext.decodeValue(); err != nil {
			return nil, err
		}
		exts = append(exts, ext)
	}
	return exts, nil
}

// Encode returns the DER encoding of c. For a decoded certificate this is
// the original input; otherwise it is assembled from RawTBSCertificate,
// SignatureAlgorithm and SignatureValue without re-encoding the TBS part.
func Encode(c *Certificate) ([]byte, error) {
	if len(c.Raw) > 0 {
		return slices.Clone(c.Raw), nil
	}
	if len(c.RawTBSCertificate) == 0 || len(c.SignatureAlgorithm.Raw) == 0 {
		return nil, errors.New("x509certs: certificate has no encoded TBS or signature algorithm")
	}
	return assemble(c.RawTBSCertificate, c.SignatureAlgorithm.Raw, c.SignatureValue)
}

func assemble(tbs, sigAlg []byte, sig BitString) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(tbs)
		b.AddBytes(sigAlg)
		addBitString(b, sig)
	})
	return b.Bytes()
}

// Fingerprint returns the lower-case hex SHA3-512 digest of the DER encoding.
func (c *Certificate) Fingerprint() string {
	if c.fingerprint != "" {
		return c.fingerprint
	}
	return fingerprintOf(c.Raw)
}

func fingerprintOf(der []byte) string {
	sum := sha3.Sum512(der)
	return hex.EncodeToString(sum[:])
}

// Extension returns the extension with the given OID.
func (c *Certificate) Extension(oid asn1.ObjectIdentifier) (*Extension, bool) {
	for i := range c.Extensions {
		if c.Extensions[i].ID.Equal(oid) {
			return &c.Extensions[i], true
		}
	}
	return nil, false
}

// parsed returns the first decoded extension value of type T.
func parsed[T ExtensionValue](c *Certificate) (T, bool) {
	for _, ext := range c.Extensions {
		if v, ok := ext.Parsed.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// BasicConstraints returns the basicConstraints extension, if present.
func (c *Certificate) BasicConstraints() (*BasicConstraints, bool) {
	return parsed[*BasicConstraints](c)
}

// KeyUsage returns the keyUsage extension, if present.
func (c *Certificate) KeyUsage() (*KeyUsage, bool) { return parsed[*KeyUsage](c) }

// ExtKeyUsage returns the extKeyUsage extension, if present.
func (c *Certificate) ExtKeyUsage() (*ExtKeyUsage, bool) { return parsed[*ExtKeyUsage](c) }

// NameConstraints returns the nameConstraints extension, if present.
func (c *Certificate) NameConstraints() (*NameConstraints, bool) {
	return parsed[*NameConstraints](c)
}

// SubjectAltName returns the subjectAltName extension, if present.
func (c *Certificate) SubjectAltName() (*SubjectAltName, bool) {
	return parsed[*SubjectAltName](c)
}

// CertificatePolicies returns the certificatePolicies extension, if present.
func (c *Certificate) CertificatePolicies() (*CertificatePolicies, bool) {
	return parsed[*CertificatePolicies](c)
}

// PolicyConstraints returns the policyConstraints extension, if present.
func (c *Certificate) PolicyConstraints() (*PolicyConstraints, bool) {
	return parsed[*PolicyConstraints](c)
}

// InhibitAnyPolicy returns the inhibitAnyPolicy extension, if present.
func (c *Certificate) InhibitAnyPolicy() (*InhibitAnyPolicy, bool) {
	return parsed[*InhibitAnyPolicy](c)
}

// AuthorityInfoAccess returns the authorityInfoAccess extension, if present.
func (c *Certificate) AuthorityInfoAccess() (*AuthorityInfoAccess, bool) {
	return parsed[*AuthorityInfoAccess](c)
}

// CRLDistributionPoints returns the cRLDistributionPoints extension, if present.
func (c *Certificate) CRLDistributionPoints() (*CRLDistributionPoints, bool) {
	return parsed[*CRLDistributionPoints](c)
}

// SubjectKeyID returns the subject key identifier, or nil.
func (c *Certificate) SubjectKeyID() []byte {
	if ski, ok := parsed[*SubjectKeyIdentifier](c); ok {
		return ski.KeyID
	}
	return nil
}

// AuthorityKeyID returns the keyIdentifier of the authority key identifier, or nil.
func (c *Certificate) AuthorityKeyID() []byte {
	if aki, ok := parsed[*AuthorityKeyIdentifier](c); ok {
		return aki.KeyID
	}
	return nil
}

// IsSelfIssued reports whether subject and issuer are the same name.
func (c *Certificate) IsSelfIssued() bool { return c.Subject.Equal(c.Issuer) }

// IsCA reports whether basicConstraints asserts cA.
func (c *Certificate) IsCA() bool {
	bc, ok := c.BasicConstraints()
	return ok && bc.IsCA
}

// DNSNames returns the normalized dNSName entries of the subject alternative name.
func (c *Certificate) DNSNames() []string {
	san, ok := c.SubjectAltName()
	if !ok {
		return nil
	}
	var out []string
	for _, n := range san.Names {
		if n.Kind == GeneralNameDNS && !n.Unnormalized {
			out = append(out, n.DNS)
		}
	}
	return out
}
