// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509provider

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"slices"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
)

var (
	// ErrUnsupportedAlgorithm indicates an unknown, malformed or disallowed
	// algorithm identifier, or a key the policy rejects.
	ErrUnsupportedAlgorithm = errors.New("x509provider: unsupported algorithm")

	// ErrProvider indicates that the backend itself failed, as opposed to a
	// signature that did not verify.
	ErrProvider = errors.New("x509provider: provider failure")
)

// Verifier verifies a signature over msg made with the key in pub.
//
// A false result with a nil error means the signature does not verify.
// Errors wrap ErrUnsupportedAlgorithm or ErrProvider.
type Verifier interface {
	VerifySignature(alg x509certs.AlgorithmIdentifier, pub x509certs.PublicKeyInfo, msg, sig []byte) (bool, error)
}

// DefaultMinRSABits is the smallest RSA modulus accepted by default.
const DefaultMinRSABits = 2048

// Policy restricts which algorithms the provider accepts.
type Policy struct {
	// AllowSHA1 enables SHA-1 based signatures.
	AllowSHA1 bool
	// MinRSABits is the smallest accepted RSA modulus; zero means DefaultMinRSABits.
	MinRSABits int
	// AllowedHashes, when non-empty, lists the only digests accepted.
	// Ed25519 is not affected.
	AllowedHashes []crypto.Hash
}

// Provider is the default Verifier backed by the Go standard crypto packages.
// It is safe for concurrent use.
type Provider struct{ policy Policy }

// New returns a Provider enforcing policy.
func New(policy Policy) *Provider {
	if policy.MinRSABits <= 0 {
		policy.MinRSABits = DefaultMinRSABits
	}
	return &Provider{policy: policy}
}

// Default returns a Provider with the default policy.
func Default() *Provider { return New(Policy{}) }

// VerifySignature implements Verifier.
func (p *Provider) VerifySignature(alg x509certs.AlgorithmIdentifier, pub x509certs.PublicKeyInfo, msg, sig []byte) (bool, error) {
	s, err := resolve(alg)
	if err != nil {
		return false, err
	}
	if err := p.allowed(s); err != nil {
		return false, err
	}

	key, err := parseKey(pub)
	if err != nil {
		return false, err
	}

	digest := msg
	if s.hash != 0 {
		if !s.hash.Available() {
			return false, fmt.Errorf("%w: digest %v not linked", ErrProvider, s.hash)
		}
		h := s.hash.New()
		h.Write(msg)
		digest = h.Sum(nil)
	}

	switch s.key {
	case keyRSA:
		k, ok := key.(*rsa.PublicKey)
		if !ok {
			return false, nil
		}
		if k.N.BitLen() < p.policy.MinRSABits {
			return false, fmt.Errorf("%w: RSA key of %d bits below minimum %d", ErrUnsupportedAlgorithm, k.N.BitLen(), p.policy.MinRSABits)
		}
		if s.pss {
			return rsa.VerifyPSS(k, s.hash, digest, sig, &rsa.PSSOptions{SaltLength: s.salt, Hash: s.hash}) == nil, nil
		}
		return rsa.VerifyPKCS1v15(k, s.hash, digest, sig) == nil, nil
	case keyECDSA:
		k, ok := key.(*ecdsa.PublicKey)
		if !ok {
			return false, nil
		}
		return ecdsa.VerifyASN1(k, digest, sig), nil
	case keyEd25519:
		k, ok := key.(ed25519.PublicKey)
		if !ok {
			return false, nil
		}
		return ed25519.Verify(k, msg, sig), nil
	}
	return false, fmt.Errorf("%w: unhandled key family", ErrProvider)
}

func (p *Provider) allowed(s scheme) error {
	if s.insecure {
		return fmt.Errorf("%w: insecure digest", ErrUnsupportedAlgorithm)
	}
	if s.hash == 0 {
		return nil
	}
	if s.hash == crypto.SHA1 && !p.policy.AllowSHA1 {
		return fmt.Errorf("%w: SHA-1 signatures are disabled", ErrUnsupportedAlgorithm)
	}
	if len(p.policy.AllowedHashes) > 0 && !slices.Contains(p.policy.AllowedHashes, s.hash) {
		return fmt.Errorf("%w: digest %v not allowed by policy", ErrUnsupportedAlgorithm, s.hash)
	}
	return nil
}

// parseKey loads the key. Unknown key algorithms are unsupported; a known
// algorithm the backend cannot load is a provider failure.
func parseKey(pub x509certs.PublicKeyInfo) (crypto.PublicKey, error) {
	a := pub.Algorithm.Algorithm
	if !a.Equal(OIDPublicKeyRSA) && !a.Equal(OIDPublicKeyECDSA) && !a.Equal(OIDPublicKeyEd25519) {
		return nil, fmt.Errorf("%w: public key algorithm %v", ErrUnsupportedAlgorithm, a)
	}
	key, err := x509.ParsePKIXPublicKey(pub.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return key, nil
}

// SignatureAlgorithmFor returns the identifier and signer options to sign
// with key: SHA-256 for RSA, the curve-matched digest for ECDSA, and pure
// Ed25519.
func SignatureAlgorithmFor(key crypto.PublicKey) (x509certs.AlgorithmIdentifier, crypto.SignerOpts, error) {
	var (
		oid    = OIDSignatureSHA256WithRSA
		params []byte
		opts   crypto.SignerOpts = crypto.SHA256
	)
	switch k := key.(type) {
	case *rsa.PublicKey:
		params = nullParams
	case *ecdsa.PublicKey:
		switch k.Curve {
		case elliptic.P256():
			oid, opts = OIDSignatureECDSAWithSHA256, crypto.SHA256
		case elliptic.P384():
			oid, opts = OIDSignatureECDSAWithSHA384, crypto.SHA384
		case elliptic.P521():
			oid, opts = OIDSignatureECDSAWithSHA512, crypto.SHA512
		default:
			return x509certs.AlgorithmIdentifier{}, nil, fmt.Errorf("%w: curve %v", ErrUnsupportedAlgorithm, k.Curve.Params().Name)
		}
	case ed25519.PublicKey:
		oid, opts = OIDSignatureEd25519, crypto.Hash(0)
	default:
		return x509certs.AlgorithmIdentifier{}, nil, fmt.Errorf("%w: key type %T", ErrUnsupportedAlgorithm, key)
	}
	alg, err := x509certs.NewAlgorithmIdentifier(oid, params)
	if err != nil {
		return x509certs.AlgorithmIdentifier{}, nil, err
	}
	return alg, opts, nil
}

// VerifyCertificate checks that issuerKey signed the TBS bytes of cert.
// A signature value that is not octet aligned never verifies.
func VerifyCertificate(v Verifier, cert *x509certs.Certificate, issuerKey x509certs.PublicKeyInfo) (bool, error) {
	sig, err := cert.SignatureValue.Octets()
	if err != nil {
		return false, nil
	}
	return v.VerifySignature(cert.SignatureAlgorithm, issuerKey, cert.RawTBSCertificate, sig)
}
