// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package testpki issues real, signed certificate chains for tests.
package testpki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
	x509provider "github.com/H0llyW00dzZ/x509-path-validator/src/x509/provider"
)

// Epoch is the reference time every default validity window covers.
var Epoch = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

// Options controls a certificate issued by NewRoot or Issue.
type Options struct {
	CommonName string
	// Subject overrides CommonName when set.
	Subject *x509certs.Name

	NotBefore time.Time
	NotAfter  time.Time

	IsCA bool
	// MaxPathLen is only encoded when SetPathLen is true.
	MaxPathLen int
	SetPathLen bool

	// KeyUsage defaults to certSign|cRLSign for CAs and digitalSignature
	// otherwise.
	KeyUsage     x509certs.KeyUsageBits
	OmitKeyUsage bool

	OmitBasicConstraints bool
	OmitKeyIDs           bool

	DNSNames []string
	Emails   []string
	URIs     []string
	IPs      []net.IP
	Policies []x509certs.Extension

	ExtraExtensions []x509certs.Extension

	// Key is generated (ECDSA P-256) when nil.
	Key crypto.Signer
}

// Issuer is an issued certificate with its private key.
type Issuer struct {
	Cert *x509certs.Certificate
	Key  crypto.Signer
}

// NewRoot issues a self-signed CA certificate.
func NewRoot(t testing.TB, opts Options) *Issuer {
	t.Helper()
	opts.IsCA = true
	return issue(t, nil, opts)
}

// Issue issues a certificate signed by i.
func (i *Issuer) Issue(t testing.TB, opts Options) *Issuer {
	t.Helper()
	return issue(t, i, opts)
}

// Chain3 returns a root, an intermediate CA and a leaf for "leaf.example.com".
func Chain3(t testing.TB) (root, intermediate, leaf *Issuer) {
	t.Helper()
	root = NewRoot(t, Options{CommonName: "Test Root CA"})
	intermediate = root.Issue(t, Options{CommonName: "Test Intermediate CA", IsCA: true})
	leaf = intermediate.Issue(t, Options{CommonName: "leaf.example.com", DNSNames: []string{"leaf.example.com"}})
	return root, intermediate, leaf
}

func issue(t testing.TB, parent *Issuer, opts Options) *Issuer {
	t.Helper()

	key := opts.Key
	if key == nil {
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		key = k
	}
	spki, err := x509.MarshalPKIXPublicKey(key.Public())
	require.NoError(t, err)
	pki, err := x509certs.ParsePublicKeyInfo(spki)
	require.NoError(t, err)

	subject := opts.Subject
	if subject == nil {
		name, err := x509certs.BuildName(
			x509certs.Attribute{Type: x509certs.OIDAttributeOrganization, Value: "Test PKI"},
			x509certs.Attribute{Type: x509certs.OIDAttributeCommonName, Value: opts.CommonName},
		)
		require.NoError(t, err)
		subject = &name
	}

	notBefore, notAfter := opts.NotBefore, opts.NotAfter
	if notBefore.IsZero() {
		notBefore = Epoch.AddDate(-1, 0, 0)
	}
	if notAfter.IsZero() {
		notAfter = Epoch.AddDate(1, 0, 0)
	}

	serial, err := x509certs.GenerateSerialNumber(nil, x509certs.DefaultSerialOctets)
	require.NoError(t, err)

	tmpl := &x509certs.Template{
		SerialNumber: serial,
		Issuer:       *subject,
		Subject:      *subject,
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		PublicKey:    spki,
	}
	signer := key
	authorityKeyID := x509certs.KeyIdentifier(pki)
	if parent != nil {
		tmpl.Issuer = parent.Cert.Subject
		signer = parent.Key
		authorityKeyID = parent.Cert.SubjectKeyID()
	}

	add := func(ext x509certs.Extension, err error) {
		t.Helper()
		require.NoError(t, err)
		tmpl.Extensions = append(tmpl.Extensions, ext)
	}
	if !opts.OmitBasicConstraints {
		pathLen := -1
		if opts.SetPathLen {
			pathLen = opts.MaxPathLen
		}
		add(x509certs.MarshalBasicConstraints(opts.IsCA, pathLen))
	}
	if !opts.OmitKeyUsage {
		ku := opts.KeyUsage
		if ku == 0 {
			ku = x509certs.KeyUsageDigitalSignature
			if opts.IsCA {
				ku = x509certs.KeyUsageCertSign | x509certs.KeyUsageCRLSign
			}
		}
		add(x509certs.MarshalKeyUsage(ku))
	}
	if !opts.OmitKeyIDs {
		add(x509certs.MarshalSubjectKeyID(x509certs.KeyIdentifier(pki)))
		if authorityKeyID != nil {
			add(x509certs.MarshalAuthorityKeyID(authorityKeyID))
		}
	}
	if len(opts.DNSNames)+len(opts.Emails)+len(opts.URIs)+len(opts.IPs) > 0 {
		var names []x509certs.GeneralName
		for _, d := range opts.DNSNames {
			names = append(names, x509certs.DNSName(d))
		}
		for _, e := range opts.Emails {
			names = append(names, x509certs.EmailName(e))
		}
		for _, u := range opts.URIs {
			names = append(names, x509certs.URIName(u))
		}
		for _, ip := range opts.IPs {
			names = append(names, x509certs.IPName(ip))
		}
		add(x509certs.MarshalSubjectAltName(false, names...))
	}
	tmpl.Extensions = append(tmpl.Extensions, opts.Policies...)
	tmpl.Extensions = append(tmpl.Extensions, opts.ExtraExtensions...)

	alg, signOpts, err := x509provider.SignatureAlgorithmFor(signer.Public())
	require.NoError(t, err)

	cert, err := x509certs.Sign(tmpl, alg, signer, signOpts)
	require.NoError(t, err)
	return &Issuer{Cert: cert, Key: key}
}
