// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-path-validator/src/internal/testpki"
	x509certs "github.com/H0llyW00dzZ/x509-path-validator/src/x509/certs"
	x509store "github.com/H0llyW00dzZ/x509-path-validator/src/x509/store"
)

func sharedSubject(t *testing.T) *x509certs.Name {
	t.Helper()
	name, err := x509certs.BuildName(
		x509certs.Attribute{Type: x509certs.OIDAttributeOrganization, Value: "Rollover Org"},
		x509certs.Attribute{Type: x509certs.OIDAttributeCommonName, Value: "Rollover CA"},
	)
	require.NoError(t, err)
	return &name
}

func TestStore(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "insert and duplicate",
			testFunc: func(t *testing.T) {
				root, _, _ := testpki.Chain3(t)
				s := x509store.New()
				assert.True(t, s.Insert(root.Cert))
				assert.False(t, s.Insert(root.Cert))
				assert.Equal(t, 1, s.Len())

				got, ok := s.Get(root.Cert.Fingerprint())
				require.True(t, ok)
				assert.Same(t, root.Cert, got)
			},
		},
		{
			name: "find issuers by name",
			testFunc: func(t *testing.T) {
				root, intermediate, leaf := testpki.Chain3(t)
				s := x509store.New()
				s.Insert(root.Cert)
				s.Insert(intermediate.Cert)
				s.Insert(leaf.Cert)

				got := s.FindIssuers(leaf.Cert.Issuer, leaf.Cert.AuthorityKeyID())
				require.Len(t, got, 1)
				assert.Same(t, intermediate.Cert, got[0])

				self := s.FindIssuers(leaf.Cert.Subject, nil)
				require.Len(t, self, 1)
				assert.Same(t, leaf.Cert, self[0])

				assert.Empty(t, s.FindIssuers(*sharedSubject(t), nil))
			},
		},
		{
			name: "key rollover keeps every candidate",
			testFunc: func(t *testing.T) {
				subject := sharedSubject(t)
				oldRoot := testpki.NewRoot(t, testpki.Options{Subject: subject})
				newRoot := testpki.NewRoot(t, testpki.Options{Subject: subject})
				unkeyed := testpki.NewRoot(t, testpki.Options{Subject: subject, OmitKeyIDs: true})

				s := x509store.New()
				s.Insert(unkeyed.Cert)
				s.Insert(newRoot.Cert)
				s.Insert(oldRoot.Cert)

				all := s.FindIssuers(*subject, nil)
				assert.Len(t, all, 3)
				assert.Equal(t, all, s.FindIssuers(*subject, nil), "order must be repeatable")

				narrowed := s.FindIssuers(*subject, newRoot.Cert.SubjectKeyID())
				require.Len(t, narrowed, 2)
				assert.Same(t, newRoot.Cert, narrowed[0])
				assert.Same(t, unkeyed.Cert, narrowed[1])
			},
		},
		{
			name: "lookup uses canonical names",
			testFunc: func(t *testing.T) {
				root := testpki.NewRoot(t, testpki.Options{CommonName: "Case CA"})
				s := x509store.New()
				s.Insert(root.Cert)

				folded, err := x509certs.BuildName(
					x509certs.Attribute{Type: x509certs.OIDAttributeOrganization, Value: "test  pki"},
					x509certs.Attribute{Type: x509certs.OIDAttributeCommonName, Value: "CASE ca"},
				)
				require.NoError(t, err)
				assert.Len(t, s.FindIssuers(folded, nil), 1)
			},
		},
		{
			name: "remove",
			testFunc: func(t *testing.T) {
				root, intermediate, _ := testpki.Chain3(t)
				s := x509store.New()
				s.Insert(root.Cert)
				s.Insert(intermediate.Cert)

				assert.True(t, s.Remove(intermediate.Cert.Fingerprint()))
				assert.False(t, s.Remove(intermediate.Cert.Fingerprint()))
				assert.Equal(t, 1, s.Len())
				assert.Empty(t, s.FindIssuers(intermediate.Cert.Subject, nil))
			},
		},
		{
			name: "malformed DER leaves store untouched",
			testFunc: func(t *testing.T) {
				s := x509store.New()
				_, err := s.InsertDER([]byte{0x30, 0x03, 0x02, 0x01})
				assert.ErrorIs(t, err, x509certs.ErrMalformedEncoding)
				assert.Zero(t, s.Len())

				root, _, _ := testpki.Chain3(t)
				cert, err := s.InsertDER(root.Cert.Raw)
				require.NoError(t, err)
				assert.Equal(t, root.Cert.Fingerprint(), cert.Fingerprint())
			},
		},
		{
			name: "snapshot isolation",
			testFunc: func(t *testing.T) {
				root, intermediate, _ := testpki.Chain3(t)
				s := x509store.New()
				s.Insert(root.Cert)
				snap := s.Snapshot()

				s.Insert(intermediate.Cert)
				s.Remove(root.Cert.Fingerprint())

				assert.Equal(t, 1, snap.Len())
				_, ok := snap.Get(root.Cert.Fingerprint())
				assert.True(t, ok)
				assert.Len(t, snap.Certificates(), 1)
				assert.Equal(t, 1, s.Len())
			},
		},
		{
			name: "size observer",
			testFunc: func(t *testing.T) {
				var sizes []int
				root, intermediate, _ := testpki.Chain3(t)
				s := x509store.New(x509store.WithSizeObserver(func(n int) { sizes = append(sizes, n) }))
				s.Insert(root.Cert)
				s.Insert(root.Cert)
				s.Insert(intermediate.Cert)
				s.Remove(root.Cert.Fingerprint())
				assert.Equal(t, []int{0, 1, 2, 1}, sizes)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestStore_Concurrent(t *testing.T) {
	root := testpki.NewRoot(t, testpki.Options{CommonName: "Concurrent Root"})
	var issued []*x509certs.Certificate
	for range 16 {
		issued = append(issued, root.Issue(t, testpki.Options{CommonName: "Concurrent CA", IsCA: true}).Cert)
	}

	s := x509store.New()
	s.Insert(root.Cert)

	var (
		wg    sync.WaitGroup
		found atomic.Int64
	)
	for _, cert := range issued {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Insert(cert)
		}()
		go func() {
			defer wg.Done()
			found.Add(int64(len(s.FindIssuers(cert.Issuer, cert.AuthorityKeyID()))))
		}()
	}
	wg.Wait()

	assert.Equal(t, len(issued)+1, s.Len())
	assert.Equal(t, int64(len(issued)), found.Load(), "the root is visible to every reader")
	assert.Len(t, s.FindIssuers(issued[0].Subject, nil), len(issued))
}
