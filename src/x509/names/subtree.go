// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509names

import (
	"net"
	"net/url"
	"strings"
)

// NameInSubtree reports whether the DNS name lies within the dNSName subtree
// rooted at constraint.
//
// Matching is case-insensitive and label-wise. A constraint without a leading
// dot matches itself and every subdomain; a constraint with a leading dot
// matches subdomains only. The empty constraint matches every name. A name or
// constraint that cannot be normalized never matches, so callers that apply
// the result to permitted subtrees fail closed.
func NameInSubtree(name, constraint string) bool {
	n, err := NormalizeDNSName(name)
	if err != nil {
		return false
	}
	c, err := NormalizeDNSConstraint(constraint)
	if err != nil {
		return false
	}
	return labelsInSubtree(n, c)
}

// WildcardOverlapsSubtree reports whether name, or any host a leading "*."
// label of name stands for, lies within constraint. It is NameInSubtree for
// names without a wildcard.
func WildcardOverlapsSubtree(name, constraint string) bool {
	if NameInSubtree(name, constraint) {
		return true
	}
	rest, ok := strings.CutPrefix(name, wildcardPrefix)
	if !ok {
		return false
	}
	parent, err := NormalizeDNSName(rest)
	if err != nil {
		return false
	}
	c, err := NormalizeDNSConstraint(constraint)
	if err != nil {
		return false
	}
	return labelsInSubtree(strings.TrimPrefix(c, "."), "."+parent)
}

// labelsInSubtree matches already normalized forms.
func labelsInSubtree(name, constraint string) bool {
	if constraint == "" {
		return true
	}

	subdomainsOnly := false
	if rest, ok := strings.CutPrefix(constraint, "."); ok {
		subdomainsOnly, constraint = true, rest
	}

	nl := strings.Split(name, ".")
	cl := strings.Split(constraint, ".")
	if len(nl) < len(cl) || (subdomainsOnly && len(nl) == len(cl)) {
		return false
	}

	off := len(nl) - len(cl)
	for i, label := range cl {
		if nl[off+i] != label {
			return false
		}
	}
	return true
}

// EmailInSubtree reports whether an rfc822Name lies within an rfc822Name
// constraint. A constraint containing "@" names one mailbox; a constraint with
// a leading dot admits every mailbox on a subdomain; any other constraint
// admits every mailbox on exactly that host.
func EmailInSubtree(email, constraint string) bool {
	e, err := NormalizeEmail(email)
	if err != nil {
		return false
	}
	if constraint == "" {
		return true
	}

	if strings.Contains(constraint, "@") {
		c, err := NormalizeEmail(constraint)
		return err == nil && c == e
	}

	domain := e[strings.LastIndexByte(e, '@')+1:]
	c, err := NormalizeDNSConstraint(constraint)
	if err != nil {
		return false
	}
	if strings.HasPrefix(c, ".") {
		return labelsInSubtree(domain, c)
	}
	return domain == c
}

// URIInSubtree reports whether the host of a uniformResourceIdentifier lies
// within a URI constraint. A constraint with a leading dot admits subdomains
// only; any other constraint names exactly one host. URIs without a host, or
// whose host is an IP address, never match.
func URIInSubtree(uri, constraint string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "" || net.ParseIP(host) != nil {
		return false
	}
	h, err := NormalizeDNSName(host)
	if err != nil {
		return false
	}
	if constraint == "" {
		return true
	}

	c, err := NormalizeDNSConstraint(constraint)
	if err != nil {
		return false
	}
	if strings.HasPrefix(c, ".") {
		return labelsInSubtree(h, c)
	}
	return h == c
}

// IPInSubtree reports whether ip falls inside the iPAddress constraint. An
// IPv4 address never matches an IPv6 constraint and vice versa.
func IPInSubtree(ip net.IP, constraint *net.IPNet) bool {
	if constraint == nil || len(constraint.IP) != len(constraint.Mask) {
		return false
	}
	if len(ip) != len(constraint.IP) {
		v4 := ip.To4()
		if v4 == nil || len(constraint.IP) != net.IPv4len {
			return false
		}
		ip = v4
	}
	for i := range ip {
		if ip[i]&constraint.Mask[i] != constraint.IP[i]&constraint.Mask[i] {
			return false
		}
	}
	return true
}
