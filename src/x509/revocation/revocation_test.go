// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509revocation_test

import (
	"crypto/rand"
	"crypto/x509"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"

	"github.com/H0llyW00dzZ/x509-path-validator/src/internal/testpki"
	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
	x509revocation "github.com/H0llyW00dzZ/x509-path-validator/src/x509/revocation"
)

func stdCert(t *testing.T, c *x509certs.Certificate) *x509.Certificate {
	t.Helper()
	std, err := x509.ParseCertificate(c.Raw)
	require.NoError(t, err)
	return std
}

func clockAt(t time.Time) x509revocation.Option {
	return x509revocation.WithClock(func() time.Time { return t })
}

func makeCRL(t *testing.T, issuer *testpki.Issuer, number int64, thisUpdate time.Time, revoked ...*x509certs.Certificate) []byte {
	t.Helper()
	tmpl := &x509.RevocationList{
		Number:     big.NewInt(number),
		ThisUpdate: thisUpdate,
		NextUpdate: thisUpdate.Add(24 * time.Hour),
	}
	for _, c := range revoked {
		tmpl.RevokedCertificateEntries = append(tmpl.RevokedCertificateEntries, x509.RevocationListEntry{
			SerialNumber:   c.SerialNumber.BigInt(),
			RevocationTime: thisUpdate.Add(-time.Hour),
		})
	}
	der, err := x509.CreateRevocationList(rand.Reader, tmpl, stdCert(t, issuer.Cert), issuer.Key)
	require.NoError(t, err)
	return der
}

func makeOCSP(t *testing.T, issuer, signer *testpki.Issuer, cert *x509certs.Certificate, status int) []byte {
	t.Helper()
	der, err := ocsp.CreateResponse(stdCert(t, issuer.Cert), stdCert(t, signer.Cert), ocsp.Response{
		Status:       status,
		SerialNumber: cert.SerialNumber.BigInt(),
		ThisUpdate:   testpki.Epoch.Add(-time.Hour),
		NextUpdate:   testpki.Epoch.Add(time.Hour),
		RevokedAt:    testpki.Epoch.Add(-2 * time.Hour),
	}, signer.Key)
	require.NoError(t, err)
	return der
}

func TestCRLOracle(t *testing.T) {
	root, intermediate, leaf := testpki.Chain3(t)
	sibling := intermediate.Issue(t, testpki.Options{CommonName: "sibling.example.com"})
	thisUpdate := testpki.Epoch.Add(-time.Hour)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "revoked and good",
			testFunc: func(t *testing.T) {
				o := x509revocation.NewCRLOracle(clockAt(testpki.Epoch))
				require.NoError(t, o.Add(makeCRL(t, intermediate, 1, thisUpdate, leaf.Cert), intermediate.Cert))
				assert.True(t, o.IsRevoked(leaf.Cert))
				assert.False(t, o.IsRevoked(sibling.Cert))
				assert.Equal(t, 1, o.Len())
			},
		},
		{
			name: "missing CRL",
			testFunc: func(t *testing.T) {
				assert.False(t, x509revocation.NewCRLOracle(clockAt(testpki.Epoch)).IsRevoked(leaf.Cert))
				assert.True(t, x509revocation.NewCRLOracle(clockAt(testpki.Epoch), x509revocation.WithStrict()).IsRevoked(leaf.Cert))
			},
		},
		{
			name: "stale CRL",
			testFunc: func(t *testing.T) {
				later := testpki.Epoch.Add(48 * time.Hour)
				lax := x509revocation.NewCRLOracle(clockAt(later))
				strict := x509revocation.NewCRLOracle(clockAt(later), x509revocation.WithStrict())
				der := makeCRL(t, intermediate, 1, thisUpdate)
				require.NoError(t, lax.Add(der, intermediate.Cert))
				require.NoError(t, strict.Add(der, intermediate.Cert))
				assert.False(t, lax.IsRevoked(sibling.Cert))
				assert.True(t, strict.IsRevoked(sibling.Cert))
			},
		},
		{
			name: "older CRL does not replace newer",
			testFunc: func(t *testing.T) {
				o := x509revocation.NewCRLOracle(clockAt(testpki.Epoch))
				require.NoError(t, o.Add(makeCRL(t, intermediate, 2, thisUpdate, leaf.Cert), intermediate.Cert))
				require.NoError(t, o.Add(makeCRL(t, intermediate, 1, thisUpdate.Add(-time.Hour)), intermediate.Cert))
				assert.True(t, o.IsRevoked(leaf.Cert))
			},
		},
		{
			name: "issuer mismatch",
			testFunc: func(t *testing.T) {
				o := x509revocation.NewCRLOracle()
				err := o.Add(makeCRL(t, intermediate, 1, thisUpdate), root.Cert)
				assert.ErrorIs(t, err, x509revocation.ErrIssuerMismatch)
			},
		},
		{
			name: "issuer without cRLSign",
			testFunc: func(t *testing.T) {
				noCRL := root.Issue(t, testpki.Options{CommonName: "No CRL CA", IsCA: true,
					KeyUsage: x509certs.KeyUsageCertSign | x509certs.KeyUsageCRLSign})
				restricted := root.Issue(t, testpki.Options{Subject: &noCRL.Cert.Subject, IsCA: true,
					KeyUsage: x509certs.KeyUsageCertSign, Key: noCRL.Key})
				err := x509revocation.NewCRLOracle().Add(makeCRL(t, noCRL, 1, thisUpdate), restricted.Cert)
				assert.ErrorIs(t, err, x509revocation.ErrIssuerMismatch)
			},
		},
		{
			name: "forged signature",
			testFunc: func(t *testing.T) {
				impostor := testpki.NewRoot(t, testpki.Options{Subject: &intermediate.Cert.Subject})
				err := x509revocation.NewCRLOracle().Add(makeCRL(t, impostor, 1, thisUpdate, sibling.Cert), intermediate.Cert)
				assert.ErrorIs(t, err, x509revocation.ErrBadSignature)
			},
		},
		{
			name: "key rollover keeps one CRL per key",
			testFunc: func(t *testing.T) {
				oldCA := root.Issue(t, testpki.Options{CommonName: "Rollover CA", IsCA: true})
				newCA := root.Issue(t, testpki.Options{Subject: &oldCA.Cert.Subject, IsCA: true})
				oldLeaf := oldCA.Issue(t, testpki.Options{CommonName: "old.example.com"})
				newLeaf := newCA.Issue(t, testpki.Options{CommonName: "new.example.com"})

				o := x509revocation.NewCRLOracle(clockAt(testpki.Epoch), x509revocation.WithStrict())
				require.NoError(t, o.Add(makeCRL(t, oldCA, 1, thisUpdate.Add(-time.Hour), oldLeaf.Cert), oldCA.Cert))
				require.NoError(t, o.Add(makeCRL(t, newCA, 1, thisUpdate), newCA.Cert))
				assert.Equal(t, 2, o.Len())
				assert.True(t, o.IsRevoked(oldLeaf.Cert))
				assert.False(t, o.IsRevoked(newLeaf.Cert))

				err := o.Add(makeCRL(t, newCA, 2, thisUpdate), oldCA.Cert)
				assert.ErrorIs(t, err, x509revocation.ErrBadSignature)
			},
		},
		{
			name: "garbage",
			testFunc: func(t *testing.T) {
				err := x509revocation.NewCRLOracle().Add([]byte("not a crl"), intermediate.Cert)
				assert.ErrorIs(t, err, x509revocation.ErrInvalidResponse)
			},
		},
		{
			name: "least recently used issuer evicted",
			testFunc: func(t *testing.T) {
				o := x509revocation.NewCRLOracle(clockAt(testpki.Epoch), x509revocation.WithMaxSize(1))
				require.NoError(t, o.Add(makeCRL(t, intermediate, 1, thisUpdate, leaf.Cert), intermediate.Cert))
				require.NoError(t, o.Add(makeCRL(t, root, 1, thisUpdate), root.Cert))
				assert.Equal(t, 1, o.Len())
				assert.False(t, o.IsRevoked(leaf.Cert))
			},
		},
		{
			name: "prune expired",
			testFunc: func(t *testing.T) {
				now := testpki.Epoch
				o := x509revocation.NewCRLOracle(x509revocation.WithClock(func() time.Time { return now }))
				require.NoError(t, o.Add(makeCRL(t, intermediate, 1, thisUpdate), intermediate.Cert))
				assert.Zero(t, o.Prune())
				now = now.Add(72 * time.Hour)
				assert.Equal(t, 1, o.Prune())
				assert.Zero(t, o.Len())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestOCSPOracle(t *testing.T) {
	_, intermediate, leaf := testpki.Chain3(t)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "good",
			testFunc: func(t *testing.T) {
				o := x509revocation.NewOCSPOracle(clockAt(testpki.Epoch))
				require.NoError(t, o.Add(makeOCSP(t, intermediate, intermediate, leaf.Cert, ocsp.Good), intermediate.Cert))
				assert.False(t, o.IsRevoked(leaf.Cert))
				assert.Equal(t, 1, o.Len())
			},
		},
		{
			name: "revoked",
			testFunc: func(t *testing.T) {
				o := x509revocation.NewOCSPOracle(clockAt(testpki.Epoch))
				require.NoError(t, o.Add(makeOCSP(t, intermediate, intermediate, leaf.Cert, ocsp.Revoked), intermediate.Cert))
				assert.True(t, o.IsRevoked(leaf.Cert))
			},
		},
		{
			name: "unknown status",
			testFunc: func(t *testing.T) {
				der := makeOCSP(t, intermediate, intermediate, leaf.Cert, ocsp.Unknown)
				lax := x509revocation.NewOCSPOracle(clockAt(testpki.Epoch))
				strict := x509revocation.NewOCSPOracle(clockAt(testpki.Epoch), x509revocation.WithStrict())
				require.NoError(t, lax.Add(der, intermediate.Cert))
				require.NoError(t, strict.Add(der, intermediate.Cert))
				assert.False(t, lax.IsRevoked(leaf.Cert))
				assert.True(t, strict.IsRevoked(leaf.Cert))
			},
		},
		{
			name: "stale response",
			testFunc: func(t *testing.T) {
				o := x509revocation.NewOCSPOracle(clockAt(testpki.Epoch.Add(2*time.Hour)), x509revocation.WithStrict())
				require.NoError(t, o.Add(makeOCSP(t, intermediate, intermediate, leaf.Cert, ocsp.Good), intermediate.Cert))
				assert.True(t, o.IsRevoked(leaf.Cert))
			},
		},
		{
			name: "signed by a stranger",
			testFunc: func(t *testing.T) {
				stranger := testpki.NewRoot(t, testpki.Options{CommonName: "Stranger"})
				err := x509revocation.NewOCSPOracle().Add(makeOCSP(t, stranger, stranger, leaf.Cert, ocsp.Good), intermediate.Cert)
				assert.ErrorIs(t, err, x509revocation.ErrInvalidResponse)
			},
		},
		{
			name: "garbage",
			testFunc: func(t *testing.T) {
				err := x509revocation.NewOCSPOracle().Add([]byte{0x30, 0x00}, intermediate.Cert)
				assert.ErrorIs(t, err, x509revocation.ErrInvalidResponse)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestAny(t *testing.T) {
	_, _, leaf := testpki.Chain3(t)
	never := x509revocation.OracleFunc(func(*x509certs.Certificate) bool { return false })
	always := x509revocation.OracleFunc(func(*x509certs.Certificate) bool { return true })

	assert.False(t, x509revocation.Any().IsRevoked(leaf.Cert))
	assert.False(t, x509revocation.Any(never, nil).IsRevoked(leaf.Cert))
	assert.True(t, x509revocation.Any(never, always).IsRevoked(leaf.Cert))
}
