// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"encoding/asn1"
	"fmt"
	"net"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	x509names "github.com/H0llyW00dzZ/x509-path-validator/src/x509/names"
)

// GeneralNameKind tags the variant held by a GeneralName.
type GeneralNameKind int

// GeneralName variants, numbered by their context-specific tag.
const (
	GeneralNameOther GeneralNameKind = iota
	GeneralNameEmail
	GeneralNameDNS
	GeneralNameX400
	GeneralNameDirectory
	GeneralNameEDIParty
	GeneralNameURI
	GeneralNameIP
	GeneralNameRegisteredID
)

var generalNameKindNames = [...]string{
	"otherName", "rfc822Name", "dNSName", "x400Address", "directoryName",
	"ediPartyName", "uniformResourceIdentifier", "iPAddress", "registeredID",
}

func (k GeneralNameKind) String() string {
	if k >= 0 && int(k) < len(generalNameKindNames) {
		return generalNameKindNames[k]
	}
	return fmt.Sprintf("GeneralNameKind(%d)", int(k))
}

// GeneralName is a tagged variant. Only the field matching Kind is set.
//
// DNS holds the IDNA-normalized form. In a name constraint it may start with
// a dot or be empty. IP is set for subject and issuer names, IPNet for
// constraints. Kinds without a decoded form keep only Raw.
type GeneralName struct {
	Kind GeneralNameKind

	DNS string
	// Unnormalized marks a dNSName that failed IDNA mapping. DNS then holds
	// the raw IA5 value and the name never matches a constraint.
	Unnormalized bool

	Email        string
	URI          string
	IP           net.IP
	IPNet        *net.IPNet
	Directory    Name
	RegisteredID asn1.ObjectIdentifier
	// OtherNameType is the type-id of an otherName.
	OtherNameType asn1.ObjectIdentifier

	// Raw is the complete TLV of the name.
	Raw []byte
}

func (g GeneralName) String() string {
	switch g.Kind {
	case GeneralNameDNS:
		return "DNS:" + g.DNS
	case GeneralNameEmail:
		return "email:" + g.Email
	case GeneralNameURI:
		return "URI:" + g.URI
	case GeneralNameIP:
		if g.IPNet != nil {
			return "IP:" + g.IPNet.String()
		}
		return "IP:" + g.IP.String()
	case GeneralNameDirectory:
		return "DirName:" + g.Directory.String()
	case GeneralNameRegisteredID:
		return "RID:" + g.RegisteredID.String()
	case GeneralNameOther:
		return "othername:" + g.OtherNameType.String()
	default:
		return g.Kind.String()
	}
}

// DNSName returns a dNSName entry for host.
func DNSName(host string) GeneralName { return GeneralName{Kind: GeneralNameDNS, DNS: host} }

// EmailName returns an rfc822Name entry.
func EmailName(addr string) GeneralName { return GeneralName{Kind: GeneralNameEmail, Email: addr} }

// URIName returns a uniformResourceIdentifier entry.
func URIName(uri string) GeneralName { return GeneralName{Kind: GeneralNameURI, URI: uri} }

// IPName returns an iPAddress entry for an address.
func IPName(ip net.IP) GeneralName { return GeneralName{Kind: GeneralNameIP, IP: ip} }

// IPNetName returns an iPAddress constraint entry.
func IPNetName(n *net.IPNet) GeneralName { return GeneralName{Kind: GeneralNameIP, IPNet: n} }

// DirectoryName returns a directoryName entry.
func DirectoryName(n Name) GeneralName { return GeneralName{Kind: GeneralNameDirectory, Directory: n} }

// parseGeneralNames decodes a GeneralNames SEQUENCE body.
func parseGeneralNames(seq cryptobyte.String, field string) ([]GeneralName, error) {
	var out []GeneralName
	for !seq.Empty() {
		gn, err := parseGeneralName(&seq, false, field)
		if err != nil {
			return nil, err
		}
		out = append(out, gn)
	}
	return out, nil
}

// parseGeneralName reads one GeneralName. In constraint mode dNSName may be
// empty or dot-prefixed and iPAddress carries an address and mask.
func parseGeneralName(s *cryptobyte.String, constraint bool, field string) (GeneralName, error) {
	var raw, body cryptobyte.String
	var tag cryptobyte_asn1.Tag
	if !s.ReadAnyASN1Element(&raw, &tag) {
		return GeneralName{}, malformed(field)
	}
	gn := GeneralName{Raw: raw}
	elem := raw
	elem.ReadAnyASN1(&body, &tag)

	if tag&0xc0 != 0x80 {
		return GeneralName{}, malformed(field)
	}
	gn.Kind = GeneralNameKind(tag & 0x1f)

	switch gn.Kind {
	case GeneralNameOther:
		if !isConstructed(tag) || !body.ReadASN1ObjectIdentifier(&gn.OtherNameType) {
			return GeneralName{}, malformed(field + ".otherName")
		}
	case GeneralNameEmail, GeneralNameURI:
		if isConstructed(tag) || !isIA5(body) {
			return GeneralName{}, malformed(field + "." + gn.Kind.String())
		}
		if gn.Kind == GeneralNameEmail {
			gn.Email = string(body)
		} else {
			gn.URI = string(body)
		}
	case GeneralNameDNS:
		if isConstructed(tag) || !isIA5(body) {
			return GeneralName{}, malformed(field + ".dNSName")
		}
		var err error
		if constraint {
			gn.DNS, err = x509names.NormalizeDNSConstraint(string(body))
		} else {
			gn.DNS, err = x509names.NormalizeDNSName(string(body))
		}
		if err != nil {
			gn.DNS, gn.Unnormalized = string(body), true
		}
	case GeneralNameDirectory:
		if !isConstructed(tag) {
			return GeneralName{}, malformed(field + ".directoryName")
		}
		var err error
		var inner cryptobyte.String
		if !body.ReadASN1Element(&inner, cryptobyte_asn1.SEQUENCE) || !body.Empty() {
			return GeneralName{}, malformed(field + ".directoryName")
		}
		if gn.Directory, err = parseName(inner); err != nil {
			return GeneralName{}, err
		}
	case GeneralNameIP:
		if isConstructed(tag) {
			return GeneralName{}, malformed(field + ".iPAddress")
		}
		switch {
		case !constraint && (len(body) == net.IPv4len || len(body) == net.IPv6len):
			gn.IP = net.IP(body)
		case constraint && (len(body) == 2*net.IPv4len || len(body) == 2*net.IPv6len):
			n := len(body) / 2
			mask := net.IPMask(body[n:])
			if _, bits := mask.Size(); bits == 0 {
				return GeneralName{}, malformed(field + ".iPAddress.mask")
			}
			gn.IPNet = &net.IPNet{IP: net.IP(body[:n]), Mask: mask}
		default:
			return GeneralName{}, malformed(field + ".iPAddress")
		}
	case GeneralNameRegisteredID:
		if isConstructed(tag) {
			return GeneralName{}, malformed(field + ".registeredID")
		}
		// Re-wrap the implicit body so cryptobyte can read it as an OID.
		var b cryptobyte.Builder
		b.AddASN1(cryptobyte_asn1.OBJECT_IDENTIFIER, func(b *cryptobyte.Builder) { b.AddBytes(body) })
		oid, err := b.Bytes()
		in := cryptobyte.String(oid)
		if err != nil || !in.ReadASN1ObjectIdentifier(&gn.RegisteredID) {
			return GeneralName{}, malformed(field + ".registeredID")
		}
	case GeneralNameX400, GeneralNameEDIParty:
		if !isConstructed(tag) {
			return GeneralName{}, malformed(field + "." + gn.Kind.String())
		}
	default:
		return GeneralName{}, malformed(field)
	}
	return gn, nil
}

func isConstructed(t cryptobyte_asn1.Tag) bool { return t&0x20 != 0 }

// addGeneralName encodes g. Raw, when present, is written verbatim.
func addGeneralName(b *cryptobyte.Builder, g GeneralName) {
	if len(g.Raw) > 0 {
		b.AddBytes(g.Raw)
		return
	}
	ctx := func(n int) cryptobyte_asn1.Tag { return cryptobyte_asn1.Tag(n).ContextSpecific() }

	switch g.Kind {
	case GeneralNameDNS:
		host, err := x509names.NormalizeDNSConstraint(g.DNS)
		if err != nil {
			b.SetError(fmt.Errorf("%w: %v", ErrInvalidTemplate, err))
			return
		}
		addIA5(b, ctx(2), host)
	case GeneralNameEmail:
		addIA5(b, ctx(1), g.Email)
	case GeneralNameURI:
		addIA5(b, ctx(6), g.URI)
	case GeneralNameIP:
		b.AddASN1(ctx(7), func(b *cryptobyte.Builder) {
			if g.IPNet != nil {
				ip := g.IPNet.IP
				if len(g.IPNet.Mask) == net.IPv4len {
					ip = ip.To4()
				}
				b.AddBytes(ip)
				b.AddBytes(g.IPNet.Mask)
				return
			}
			if v4 := g.IP.To4(); v4 != nil {
				b.AddBytes(v4)
				return
			}
			b.AddBytes(g.IP)
		})
	case GeneralNameDirectory:
		b.AddASN1(ctx(4).Constructed(), func(b *cryptobyte.Builder) {
			b.AddBytes(g.Directory.Raw)
		})
	default:
		b.SetError(fmt.Errorf("%w: cannot encode %s without Raw", ErrInvalidTemplate, g.Kind))
	}
}

func addIA5(b *cryptobyte.Builder, tag cryptobyte_asn1.Tag, s string) {
	if !isIA5([]byte(s)) {
		b.SetError(fmt.Errorf("%w: %q is not IA5", ErrInvalidTemplate, s))
		return
	}
	b.AddASN1(tag, func(b *cryptobyte.Builder) { b.AddBytes([]byte(s)) })
}
