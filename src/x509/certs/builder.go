// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"encoding/asn1"
	"fmt"
	"slices"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Template describes a v3 certificate to be signed.
type Template struct {
	SerialNumber SerialNumber
	Issuer       Name
	Subject      Name
	NotBefore    time.Time
	NotAfter     time.Time
	// PublicKey is the DER SubjectPublicKeyInfo of the subject key.
	PublicKey  []byte
	Extensions []Extension
}

// NewAlgorithmIdentifier encodes an algorithm identifier. params, when
// non-nil, must be a complete DER element such as NULL.
func NewAlgorithmIdentifier(oid asn1.ObjectIdentifier, params []byte) (AlgorithmIdentifier, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oid)
		if params != nil {
			b.AddBytes(params)
		}
	})
	der, err := b.Bytes()
	if err != nil {
		return AlgorithmIdentifier{}, err
	}
	return parseAlgorithmIdentifier(der, "algorithmIdentifier")
}

// ParsePublicKeyInfo decodes a DER SubjectPublicKeyInfo.
func ParsePublicKeyInfo(der []byte) (PublicKeyInfo, error) {
	return parsePublicKeyInfo(cryptobyte.String(slices.Clone(der)))
}

// MarshalTBS returns the DER TBSCertificate for the given signature algorithm.
func (t *Template) MarshalTBS(sigAlg AlgorithmIdentifier) ([]byte, error) {
	switch {
	case len(sigAlg.Raw) == 0:
		return nil, fmt.Errorf("%w: signature algorithm not encoded", ErrInvalidTemplate)
	case len(t.Issuer.Raw) == 0 || len(t.Subject.Raw) == 0:
		return nil, fmt.Errorf("%w: issuer and subject must be encoded names", ErrInvalidTemplate)
	case len(t.PublicKey) == 0:
		return nil, fmt.Errorf("%w: missing public key", ErrInvalidTemplate)
	case t.NotAfter.Before(t.NotBefore):
		return nil, fmt.Errorf("%w: notAfter before notBefore", ErrInvalidTemplate)
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cryptobyte_asn1.Tag(0).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddASN1Int64(2)
		})
		b.AddASN1BigInt(t.SerialNumber.BigInt())
		b.AddBytes(sigAlg.Raw)
		b.AddBytes(t.Issuer.Raw)
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			addTime(b, t.NotBefore)
			addTime(b, t.NotAfter)
		})
		b.AddBytes(t.Subject.Raw)
		b.AddBytes(t.PublicKey)
		if len(t.Extensions) == 0 {
			return
		}
		b.AddASN1(cryptobyte_asn1.Tag(3).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				for _, ext := range t.Extensions {
					addExtension(b, ext)
				}
			})
		})
	})
	return b.Bytes()
}

// addTime uses UTCTime through 2049 and GeneralizedTime afterwards.
func addTime(b *cryptobyte.Builder, t time.Time) {
	t = t.UTC().Truncate(time.Second)
	if t.Year() < 2050 {
		b.AddASN1UTCTime(t)
		return
	}
	b.AddASN1GeneralizedTime(t)
}

func addExtension(b *cryptobyte.Builder, ext Extension) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(ext.ID)
		if ext.Critical {
			b.AddASN1Boolean(true)
		}
		b.AddASN1OctetString(ext.Value)
	})
}

// Sign marshals the template, signs the TBS bytes with signer and decodes
// the result. opts selects the digest; a zero hash signs the TBS bytes
// directly, as Ed25519 requires.
func Sign(t *Template, sigAlg AlgorithmIdentifier, signer crypto.Signer, opts crypto.SignerOpts) (*Certificate, error) {
	tbs, err := t.MarshalTBS(sigAlg)
	if err != nil {
		return nil, err
	}

	msg := tbs
	if h := opts.HashFunc(); h != 0 {
		if !h.Available() {
			return nil, fmt.Errorf("%w: hash %v unavailable", ErrInvalidTemplate, h)
		}
		hh := h.New()
		hh.Write(tbs)
		msg = hh.Sum(nil)
	}

	sig, err := signer.Sign(rand.Reader, msg, opts)
	if err != nil {
		return nil, fmt.Errorf("x509certs: sign: %w", err)
	}

	der, err := assemble(tbs, sigAlg.Raw, BitString{Bytes: sig, BitLength: 8 * len(sig)})
	if err != nil {
		return nil, err
	}
	return Decode(der)
}

// KeyIdentifier derives a key identifier from the subject public key bits:
// the leftmost 160 bits of their SHA-256 digest.
func KeyIdentifier(pki PublicKeyInfo) []byte {
	sum := sha256.Sum256(pki.Key.Bytes)
	return sum[:20]
}

func newExtension(oid asn1.ObjectIdentifier, critical bool, b *cryptobyte.Builder) (Extension, error) {
	value, err := b.Bytes()
	if err != nil {
		return Extension{}, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	ext := Extension{ID: oid, Critical: critical, Value: value}
	if err := ext.decodeValue(); err != nil {
		return Extension{}, err
	}
	return ext, nil
}

// MarshalBasicConstraints returns a critical basicConstraints extension. A
// negative maxPathLen omits the path length constraint.
func MarshalBasicConstraints(isCA bool, maxPathLen int) (Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		if isCA {
			b.AddASN1Boolean(true)
		}
		if maxPathLen >= 0 {
			b.AddASN1Int64(int64(maxPathLen))
		}
	})
	return newExtension(OIDExtensionBasicConstraints, true, &b)
}

// MarshalKeyUsage returns a critical keyUsage extension.
func MarshalKeyUsage(bits KeyUsageBits) (Extension, error) {
	n := 0
	for i := range 9 {
		if bits&(1<<uint(i)) != 0 {
			n = i + 1
		}
	}
	bs := BitString{Bytes: make([]byte, (n+7)/8), BitLength: n}
	for i := range n {
		if bits&(1<<uint(i)) != 0 {
			bs.Bytes[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	var b cryptobyte.Builder
	addBitString(&b, bs)
	return newExtension(OIDExtensionKeyUsage, true, &b)
}

// MarshalExtKeyUsage returns a non-critical extKeyUsage extension.
func MarshalExtKeyUsage(purposes ...asn1.ObjectIdentifier) (Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, p := range purposes {
			b.AddASN1ObjectIdentifier(p)
		}
	})
	return newExtension(OIDExtensionExtKeyUsage, false, &b)
}

// MarshalSubjectKeyID returns a non-critical subjectKeyIdentifier extension.
func MarshalSubjectKeyID(id []byte) (Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1OctetString(id)
	return newExtension(OIDExtensionSubjectKeyID, false, &b)
}

// MarshalAuthorityKeyID returns a non-critical authorityKeyIdentifier
// extension carrying only the key identifier.
func MarshalAuthorityKeyID(id []byte) (Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cryptobyte_asn1.Tag(0).ContextSpecific(), func(b *cryptobyte.Builder) {
			b.AddBytes(id)
		})
	})
	return newExtension(OIDExtensionAuthorityKeyID, false, &b)
}

// MarshalSubjectAltName returns a subjectAltName extension. It is critical
// when the subject name is empty.
func MarshalSubjectAltName(critical bool, names ...GeneralName) (Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, n := range names {
			addGeneralName(b, n)
		}
	})
	return newExtension(OIDExtensionSubjectAltName, critical, &b)
}

// MarshalNameConstraints returns a critical nameConstraints extension.
func MarshalNameConstraints(permitted, excluded []GeneralName) (Extension, error) {
	subtrees := func(b *cryptobyte.Builder, tag cryptobyte_asn1.Tag, names []GeneralName) {
		if len(names) == 0 {
			return
		}
		b.AddASN1(tag, func(b *cryptobyte.Builder) {
			for _, n := range names {
				b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
					addGeneralName(b, n)
				})
			}
		})
	}
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		subtrees(b, cryptobyte_asn1.Tag(0).ContextSpecific().Constructed(), permitted)
		subtrees(b, cryptobyte_asn1.Tag(1).ContextSpecific().Constructed(), excluded)
	})
	return newExtension(OIDExtensionNameConstraints, true, &b)
}

// MarshalCertificatePolicies returns a non-critical certificatePolicies
// extension without qualifiers.
func MarshalCertificatePolicies(policies ...asn1.ObjectIdentifier) (Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, p := range policies {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(p)
			})
		}
	})
	return newExtension(OIDExtensionCertificatePolicies, false, &b)
}

// MarshalPolicyConstraints returns a critical policyConstraints extension.
// Negative values are omitted.
func MarshalPolicyConstraints(requireExplicitPolicy, inhibitPolicyMapping int) (Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		if requireExplicitPolicy >= 0 {
			b.AddASN1Int64WithTag(int64(requireExplicitPolicy), cryptobyte_asn1.Tag(0).ContextSpecific())
		}
		if inhibitPolicyMapping >= 0 {
			b.AddASN1Int64WithTag(int64(inhibitPolicyMapping), cryptobyte_asn1.Tag(1).ContextSpecific())
		}
	})
	return newExtension(OIDExtensionPolicyConstraints, true, &b)
}

// MarshalInhibitAnyPolicy returns a critical inhibitAnyPolicy extension.
func MarshalInhibitAnyPolicy(skipCerts int) (Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1Int64(int64(skipCerts))
	return newExtension(OIDExtensionInhibitAnyPolicy, true, &b)
}

// MarshalAuthorityInfoAccess returns a non-critical authorityInfoAccess
// extension listing OCSP responders and caIssuers URLs.
func MarshalAuthorityInfoAccess(ocspServers, issuerURLs []string) (Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		add := func(method asn1.ObjectIdentifier, uris []string) {
			for _, u := range uris {
				b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1ObjectIdentifier(method)
					addGeneralName(b, URIName(u))
				})
			}
		}
		add(OIDAccessMethodOCSP, ocspServers)
		add(OIDAccessMethodCAIssuers, issuerURLs)
	})
	return newExtension(OIDExtensionAuthorityInfoAccess, false, &b)
}

// MarshalCRLDistributionPoints returns a non-critical cRLDistributionPoints
// extension with one fullName point per URI.
func MarshalCRLDistributionPoints(uris ...string) (Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, u := range uris {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1(cryptobyte_asn1.Tag(0).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
					b.AddASN1(cryptobyte_asn1.Tag(0).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
						addGeneralName(b, URIName(u))
					})
				})
			})
		}
	})
	return newExtension(OIDExtensionCRLDistributionPoints, false, &b)
}
