// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509provider

import (
	"crypto"
	"encoding/asn1"
	"fmt"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
)

// Signature algorithm identifiers.
var (
	OIDSignatureMD2WithRSA      = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 2}
	OIDSignatureMD5WithRSA      = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 4}
	OIDSignatureSHA1WithRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	OIDSignatureSHA256WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	OIDSignatureSHA384WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	OIDSignatureSHA512WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}
	OIDSignatureRSAPSS          = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	OIDSignatureECDSAWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}
	OIDSignatureECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	OIDSignatureECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	OIDSignatureECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}
	OIDSignatureEd25519         = asn1.ObjectIdentifier{1, 3, 101, 112}
)

// Public key algorithm identifiers.
var (
	OIDPublicKeyRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	OIDPublicKeyECDSA   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	OIDPublicKeyEd25519 = OIDSignatureEd25519
)

var (
	oidMGF1   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 8}
	oidSHA1   = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	oidSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	oidSHA384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}
	oidSHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
)

// keyKind is the public key family a scheme needs.
type keyKind int

const (
	keyRSA keyKind = iota
	keyECDSA
	keyEd25519
)

// scheme is a resolved digest and signature scheme.
type scheme struct {
	key  keyKind
	hash crypto.Hash
	pss  bool
	salt int
	// insecure marks identifiers that no policy may enable.
	insecure bool
}

type entry struct {
	oid asn1.ObjectIdentifier
	scheme
	// nullParams accepts an explicit NULL parameter.
	nullParams bool
}

var table = []entry{
	{oid: OIDSignatureMD2WithRSA, scheme: scheme{key: keyRSA, insecure: true}, nullParams: true},
	{oid: OIDSignatureMD5WithRSA, scheme: scheme{key: keyRSA, hash: crypto.MD5, insecure: true}, nullParams: true},
	{oid: OIDSignatureSHA1WithRSA, scheme: scheme{key: keyRSA, hash: crypto.SHA1}, nullParams: true},
	{oid: OIDSignatureSHA256WithRSA, scheme: scheme{key: keyRSA, hash: crypto.SHA256}, nullParams: true},
	{oid: OIDSignatureSHA384WithRSA, scheme: scheme{key: keyRSA, hash: crypto.SHA384}, nullParams: true},
	{oid: OIDSignatureSHA512WithRSA, scheme: scheme{key: keyRSA, hash: crypto.SHA512}, nullParams: true},
	{oid: OIDSignatureECDSAWithSHA1, scheme: scheme{key: keyECDSA, hash: crypto.SHA1}},
	{oid: OIDSignatureECDSAWithSHA256, scheme: scheme{key: keyECDSA, hash: crypto.SHA256}},
	{oid: OIDSignatureECDSAWithSHA384, scheme: scheme{key: keyECDSA, hash: crypto.SHA384}},
	{oid: OIDSignatureECDSAWithSHA512, scheme: scheme{key: keyECDSA, hash: crypto.SHA512}},
	{oid: OIDSignatureEd25519, scheme: scheme{key: keyEd25519}},
}

var nullParams = []byte{0x05, 0x00}

// resolve maps an identifier to its scheme.
func resolve(alg x509certs.AlgorithmIdentifier) (scheme, error) {
	if alg.Algorithm.Equal(OIDSignatureRSAPSS) {
		return parsePSS(alg.Parameters)
	}
	for _, e := range table {
		if !alg.Algorithm.Equal(e.oid) {
			continue
		}
		switch {
		case alg.Parameters == nil:
		case e.nullParams && string(alg.Parameters) == string(nullParams):
		default:
			return scheme{}, fmt.Errorf("%w: unexpected parameters for %v", ErrUnsupportedAlgorithm, alg.Algorithm)
		}
		return e.scheme, nil
	}
	return scheme{}, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, alg.Algorithm)
}

// parsePSS decodes RSASSA-PSS-params. MGF1 must use the message digest and
// the trailer field must be 1.
func parsePSS(params []byte) (scheme, error) {
	bad := func(what string) (scheme, error) {
		return scheme{}, fmt.Errorf("%w: RSASSA-PSS %s", ErrUnsupportedAlgorithm, what)
	}
	s := scheme{key: keyRSA, pss: true, hash: crypto.SHA1, salt: 20}

	in := cryptobyte.String(params)
	var seq cryptobyte.String
	if !in.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !in.Empty() {
		return bad("parameters")
	}

	var field cryptobyte.String
	var present bool
	if !seq.ReadOptionalASN1(&field, &present, cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()) {
		return bad("hashAlgorithm")
	}
	if present {
		h, ok := readDigestAlgorithm(&field)
		if !ok {
			return bad("hashAlgorithm")
		}
		s.hash = h
	}

	mgfHash := crypto.SHA1
	if !seq.ReadOptionalASN1(&field, &present, cryptobyte_asn1.Tag(1).Constructed().ContextSpecific()) {
		return bad("maskGenAlgorithm")
	}
	if present {
		var mgf cryptobyte.String
		var oid asn1.ObjectIdentifier
		if !field.ReadASN1(&mgf, cryptobyte_asn1.SEQUENCE) || !mgf.ReadASN1ObjectIdentifier(&oid) || !oid.Equal(oidMGF1) {
			return bad("maskGenAlgorithm")
		}
		h, ok := readDigestAlgorithm(&mgf)
		if !ok {
			return bad("maskGenAlgorithm")
		}
		mgfHash = h
	}
	if mgfHash != s.hash {
		return bad("MGF1 digest differs from message digest")
	}

	if !seq.ReadOptionalASN1(&field, &present, cryptobyte_asn1.Tag(2).Constructed().ContextSpecific()) {
		return bad("saltLength")
	}
	if present && (!field.ReadASN1Integer(&s.salt) || s.salt < 0) {
		return bad("saltLength")
	}

	if !seq.ReadOptionalASN1(&field, &present, cryptobyte_asn1.Tag(3).Constructed().ContextSpecific()) {
		return bad("trailerField")
	}
	if present {
		var trailer int
		if !field.ReadASN1Integer(&trailer) || trailer != 1 {
			return bad("trailerField")
		}
	}
	if !seq.Empty() {
		return bad("parameters")
	}
	return s, nil
}

func readDigestAlgorithm(s *cryptobyte.String) (crypto.Hash, bool) {
	var seq cryptobyte.String
	var oid asn1.ObjectIdentifier
	if !s.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !seq.ReadASN1ObjectIdentifier(&oid) {
		return 0, false
	}
	// Parameters are absent or NULL.
	if !seq.Empty() && !seq.SkipASN1(cryptobyte_asn1.NULL) {
		return 0, false
	}
	if !seq.Empty() {
		return 0, false
	}
	switch {
	case oid.Equal(oidSHA1):
		return crypto.SHA1, true
	case oid.Equal(oidSHA256):
		return crypto.SHA256, true
	case oid.Equal(oidSHA384):
		return crypto.SHA384, true
	case oid.Equal(oidSHA512):
		return crypto.SHA512, true
	}
	return 0, false
}

// ParseHash maps a digest name such as "SHA-256" or "sha384" to crypto.Hash.
func ParseHash(name string) (crypto.Hash, error) {
	switch strings.ToUpper(strings.ReplaceAll(name, "-", "")) {
	case "SHA1":
		return crypto.SHA1, nil
	case "SHA256":
		return crypto.SHA256, nil
	case "SHA384":
		return crypto.SHA384, nil
	case "SHA512":
		return crypto.SHA512, nil
	}
	return 0, fmt.Errorf("%w: digest %q", ErrUnsupportedAlgorithm, name)
}
