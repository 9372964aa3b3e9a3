// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509names_test

import (
	"encoding/asn1"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509names "github.com/H0llyW00dzZ/x509-path-validator/src/x509/names"
)

func TestNormalizeDNSName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "ascii lower-cased", input: "Host.Example.COM", want: "host.example.com"},
		{name: "trailing dot dropped", input: "example.com.", want: "example.com"},
		{name: "unicode to punycode", input: "bücher.example", want: "xn--bcher-kva.example"},
		{name: "already punycode", input: "xn--bcher-kva.example", want: "xn--bcher-kva.example"},
		{name: "wildcard kept", input: "*.Bücher.example", want: "*.xn--bcher-kva.example"},
		{name: "empty", input: "", wantErr: true},
		{name: "empty label", input: "a..example", wantErr: true},
		{name: "label too long", input: strings.Repeat("a", 64) + ".example", wantErr: true},
		{name: "disallowed code point", input: "exa mple.com", wantErr: true},
		{name: "name too long", input: strings.Repeat(strings.Repeat("a", 60)+".", 5) + "com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := x509names.NormalizeDNSName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, x509names.ErrInvalidDNSName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNamesEqual(t *testing.T) {
	assert.True(t, x509names.NamesEqual("BÜCHER.example", "xn--bcher-kva.example"))
	assert.True(t, x509names.NamesEqual("example.com.", "EXAMPLE.com"))
	assert.False(t, x509names.NamesEqual("example.com", "example.org"))
	assert.False(t, x509names.NamesEqual("", ""), "invalid names never compare equal")
}

func TestToUnicode(t *testing.T) {
	got, err := x509names.ToUnicode("*.xn--bcher-kva.example")
	require.NoError(t, err)
	assert.Equal(t, "*.bücher.example", got)
}

func TestNameInSubtree(t *testing.T) {
	tests := []struct {
		name       string
		host       string
		constraint string
		want       bool
	}{
		{name: "subdomain", host: "host.example.com", constraint: "example.com", want: true},
		{name: "exact", host: "example.com", constraint: "example.com", want: true},
		{name: "label boundary", host: "notexample.com", constraint: "example.com", want: false},
		{name: "case insensitive", host: "HOST.Example.com", constraint: "example.COM", want: true},
		{name: "leading dot excludes self", host: "example.com", constraint: ".example.com", want: false},
		{name: "leading dot admits subdomain", host: "a.b.example.com", constraint: ".example.com", want: true},
		{name: "empty constraint", host: "anything.test", constraint: "", want: true},
		{name: "unicode constraint", host: "www.xn--bcher-kva.example", constraint: "bücher.example", want: true},
		{name: "wildcard inside", host: "*.example.com", constraint: "example.com", want: true},
		{name: "wildcard not inside narrower", host: "*.example.com", constraint: "host.example.com", want: false},
		{name: "invalid name", host: "bad..name", constraint: "name", want: false},
		{name: "parent not inside child", host: "example.com", constraint: "host.example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x509names.NameInSubtree(tt.host, tt.constraint))
		})
	}
}

func TestWildcardOverlapsSubtree(t *testing.T) {
	tests := []struct {
		name       string
		host       string
		constraint string
		want       bool
	}{
		{name: "plain name", host: "host.example.com", constraint: "example.com", want: true},
		{name: "plain name outside", host: "example.com", constraint: "secret.example.com", want: false},
		{name: "wildcard covers constraint", host: "*.example.com", constraint: "secret.example.com", want: true},
		{name: "wildcard covers deeper constraint", host: "*.example.com", constraint: ".a.secret.example.com", want: true},
		{name: "wildcard inside constraint", host: "*.example.com", constraint: "example.com", want: true},
		{name: "wildcard sibling", host: "*.example.com", constraint: "example.org", want: false},
		{name: "wildcard parent not covered", host: "*.a.example.com", constraint: "b.example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x509names.WildcardOverlapsSubtree(tt.host, tt.constraint))
		})
	}
}

func TestEmailInSubtree(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		constraint string
		want       bool
	}{
		{name: "mailbox", email: "alice@example.com", constraint: "alice@EXAMPLE.com", want: true},
		{name: "mailbox other user", email: "bob@example.com", constraint: "alice@example.com", want: false},
		{name: "host", email: "alice@example.com", constraint: "example.com", want: true},
		{name: "host excludes subdomain", email: "alice@mail.example.com", constraint: "example.com", want: false},
		{name: "domain subtree", email: "alice@mail.example.com", constraint: ".example.com", want: true},
		{name: "domain subtree excludes host", email: "alice@example.com", constraint: ".example.com", want: false},
		{name: "malformed", email: "no-at-sign", constraint: "example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x509names.EmailInSubtree(tt.email, tt.constraint))
		})
	}
}

func TestURIInSubtree(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		constraint string
		want       bool
	}{
		{name: "exact host", uri: "https://example.com/path", constraint: "example.com", want: true},
		{name: "host with port", uri: "https://example.com:8443/", constraint: "example.com", want: true},
		{name: "subdomain needs dot", uri: "https://www.example.com/", constraint: "example.com", want: false},
		{name: "dot constraint", uri: "https://www.example.com/", constraint: ".example.com", want: true},
		{name: "ip host", uri: "https://192.0.2.1/", constraint: "example.com", want: false},
		{name: "no host", uri: "urn:example:abc", constraint: "example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x509names.URIInSubtree(tt.uri, tt.constraint))
		})
	}
}

func TestIPInSubtree(t *testing.T) {
	_, v4net, err := net.ParseCIDR("192.0.2.0/24")
	require.NoError(t, err)
	_, v6net, err := net.ParseCIDR("2001:db8::/32")
	require.NoError(t, err)

	assert.True(t, x509names.IPInSubtree(net.ParseIP("192.0.2.77"), v4net))
	assert.True(t, x509names.IPInSubtree(net.ParseIP("192.0.2.77").To4(), v4net))
	assert.False(t, x509names.IPInSubtree(net.ParseIP("198.51.100.1"), v4net))
	assert.True(t, x509names.IPInSubtree(net.ParseIP("2001:db8::1"), v6net))
	assert.False(t, x509names.IPInSubtree(net.ParseIP("2001:db9::1"), v6net))
	assert.False(t, x509names.IPInSubtree(net.ParseIP("192.0.2.77").To4(), v6net))
	assert.False(t, x509names.IPInSubtree(net.ParseIP("192.0.2.77"), nil))
}

func TestCanonicalAttributeValue(t *testing.T) {
	commonName := asn1.ObjectIdentifier{2, 5, 4, 3}
	unknown := asn1.ObjectIdentifier{1, 2, 3, 4}

	a, ok := x509names.CanonicalAttributeValue(commonName, "  Example   Root\tCA ")
	require.True(t, ok)
	b, ok := x509names.CanonicalAttributeValue(commonName, "example root ca")
	require.True(t, ok)
	assert.Equal(t, a, b)

	// Fullwidth forms fold to ASCII under NFKC.
	c, ok := x509names.CanonicalAttributeValue(commonName, "ＥＸＡＭＰＬＥ root ca")
	require.True(t, ok)
	assert.Equal(t, b, c)

	_, ok = x509names.CanonicalAttributeValue(unknown, "value")
	assert.False(t, ok)
	assert.Equal(t, x509names.RuleUnknown, x509names.RuleFor(unknown))
}
