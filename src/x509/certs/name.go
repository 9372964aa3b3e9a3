// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	x509names "github.com/H0llyW00dzZ/x509-path-validator/src/x509/names"
)

// String tags missing from cryptobyte/asn1.
const (
	tagNumericString   = cryptobyte_asn1.Tag(18)
	tagUniversalString = cryptobyte_asn1.Tag(28)
	tagBMPString       = cryptobyte_asn1.Tag(30)
)

// AttributeTypeAndValue is one attribute of a relative distinguished name.
type AttributeTypeAndValue struct {
	Type asn1.ObjectIdentifier
	// Tag is the universal tag of the encoded value.
	Tag int
	// Value is the decoded text. It is empty and Decoded is false when the
	// value is not a string type.
	Value   string
	Decoded bool
	// RawValue is the complete TLV of the value.
	RawValue []byte
}

// RelativeDistinguishedName is a SET of attributes.
type RelativeDistinguishedName []AttributeTypeAndValue

// Name is an X.501 distinguished name: an ordered sequence of RDNs.
type Name struct {
	RDNs []RelativeDistinguishedName
	// Raw is the complete DER encoding of the name.
	Raw []byte
}

// Attribute is a single attribute used to build a Name.
type Attribute struct {
	Type  asn1.ObjectIdentifier
	Value string
}

// IsEmpty reports whether the name has no RDNs.
func (n Name) IsEmpty() bool { return len(n.RDNs) == 0 }

// Equal compares two names with per-attribute matching rules: case and
// insignificant whitespace are ignored for known directory-string attributes,
// other attributes compare their encoded bytes.
func (n Name) Equal(o Name) bool {
	if len(n.RDNs) != len(o.RDNs) {
		return false
	}
	for i := range n.RDNs {
		if rdnKey(n.RDNs[i]) != rdnKey(o.RDNs[i]) {
			return false
		}
	}
	return true
}

// HasPrefix reports whether the first RDNs of n equal every RDN of prefix,
// which is how directoryName subtrees are matched.
func (n Name) HasPrefix(prefix Name) bool {
	if len(prefix.RDNs) > len(n.RDNs) {
		return false
	}
	for i := range prefix.RDNs {
		if rdnKey(n.RDNs[i]) != rdnKey(prefix.RDNs[i]) {
			return false
		}
	}
	return true
}

// CanonicalKey returns a string that is equal for two names exactly when
// Equal reports true. It is used as an index key.
func (n Name) CanonicalKey() string {
	var b strings.Builder
	for _, rdn := range n.RDNs {
		k := rdnKey(rdn)
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// rdnKey joins the canonical attribute keys of an RDN in sorted order, since
// a SET has no significant order.
func rdnKey(rdn RelativeDistinguishedName) string {
	keys := make([]string, len(rdn))
	for i, atv := range rdn {
		keys[i] = atv.canonical()
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

func (a AttributeTypeAndValue) canonical() string {
	if a.Decoded {
		if v, ok := x509names.CanonicalAttributeValue(a.Type, a.Value); ok {
			return a.Type.String() + "=" + v
		}
	}
	return a.Type.String() + "#" + hex.EncodeToString(a.RawValue)
}

// CommonName returns the first commonName value, if any.
func (n Name) CommonName() string {
	for _, rdn := range n.RDNs {
		for _, atv := range rdn {
			if atv.Type.Equal(OIDAttributeCommonName) && atv.Decoded {
				return atv.Value
			}
		}
	}
	return ""
}

// Attributes returns every decoded value of the given attribute type in order.
func (n Name) Attributes(oid asn1.ObjectIdentifier) []string {
	var out []string
	for _, rdn := range n.RDNs {
		for _, atv := range rdn {
			if atv.Type.Equal(oid) && atv.Decoded {
				out = append(out, atv.Value)
			}
		}
	}
	return out
}

// String renders the name in RFC 4514 order (last RDN first).
func (n Name) String() string {
	parts := make([]string, 0, len(n.RDNs))
	for i := len(n.RDNs) - 1; i >= 0; i-- {
		attrs := make([]string, 0, len(n.RDNs[i]))
		for _, atv := range n.RDNs[i] {
			label, ok := attributeShortNames[atv.Type.String()]
			if !ok {
				label = atv.Type.String()
			}
			if !atv.Decoded {
				attrs = append(attrs, label+"=#"+hex.EncodeToString(atv.RawValue))
				continue
			}
			attrs = append(attrs, label+"="+escapeDN(atv.Value))
		}
		parts = append(parts, strings.Join(attrs, "+"))
	}
	return strings.Join(parts, ",")
}

func escapeDN(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case strings.ContainsRune(",+\"\\<>;", r),
			i == 0 && (r == ' ' || r == '#'),
			i == len(s)-1 && r == ' ':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseName decodes a Name from its complete DER element.
func parseName(raw cryptobyte.String) (Name, error) {
	name := Name{Raw: raw}
	var seq cryptobyte.String
	if !raw.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !raw.Empty() {
		return Name{}, malformed("name")
	}

	for !seq.Empty() {
		var set cryptobyte.String
		if !seq.ReadASN1(&set, cryptobyte_asn1.SET) || set.Empty() {
			return Name{}, malformed("name.rdn")
		}
		var rdn RelativeDistinguishedName
		for !set.Empty() {
			var atvSeq cryptobyte.String
			var atv AttributeTypeAndValue
			if !set.ReadASN1(&atvSeq, cryptobyte_asn1.SEQUENCE) ||
				!atvSeq.ReadASN1ObjectIdentifier(&atv.Type) {
				return Name{}, malformed("name.attribute")
			}
			var value cryptobyte.String
			var tag cryptobyte_asn1.Tag
			if !atvSeq.ReadAnyASN1Element(&value, &tag) || !atvSeq.Empty() {
				return Name{}, malformed("name.attribute.value")
			}
			atv.Tag = int(tag)
			atv.RawValue = value

			var contents cryptobyte.String
			value.ReadAnyASN1(&contents, &tag)
			s, ok, err := decodeDirectoryString(tag, contents)
			if err != nil {
				return Name{}, malformedErr("name.attribute.value", err)
			}
			atv.Value, atv.Decoded = s, ok
			rdn = append(rdn, atv)
		}
		name.RDNs = append(name.RDNs, rdn)
	}
	return name, nil
}

var (
	errInvalidUTF8      = errors.New("invalid UTF-8")
	errInvalidBMP       = errors.New("invalid BMPString")
	errInvalidUniversal = errors.New("invalid UniversalString")
	errInvalidPrintable = errors.New("invalid PrintableString")
	errInvalidIA5       = errors.New("invalid IA5String")
)

// decodeDirectoryString decodes the string types allowed in names. The bool
// result is false for non-string tags.
func decodeDirectoryString(tag cryptobyte_asn1.Tag, b []byte) (string, bool, error) {
	switch tag {
	case cryptobyte_asn1.UTF8String:
		if !utf8.Valid(b) {
			return "", false, errInvalidUTF8
		}
		return string(b), true, nil
	case cryptobyte_asn1.PrintableString:
		for _, c := range b {
			if !isPrintable(c) {
				return "", false, errInvalidPrintable
			}
		}
		return string(b), true, nil
	case cryptobyte_asn1.IA5String, tagNumericString:
		if !isIA5(b) {
			return "", false, errInvalidIA5
		}
		return string(b), true, nil
	case cryptobyte_asn1.T61String:
		// Treated as ISO 8859-1, which is what issuers put there in practice.
		r := make([]rune, len(b))
		for i, c := range b {
			r[i] = rune(c)
		}
		return string(r), true, nil
	case tagBMPString:
		if len(b)%2 != 0 {
			return "", false, errInvalidBMP
		}
		u := make([]uint16, len(b)/2)
		for i := range u {
			u[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
		}
		return string(utf16.Decode(u)), true, nil
	case tagUniversalString:
		if len(b)%4 != 0 {
			return "", false, errInvalidUniversal
		}
		r := make([]rune, len(b)/4)
		for i := range r {
			r[i] = rune(b[4*i])<<24 | rune(b[4*i+1])<<16 | rune(b[4*i+2])<<8 | rune(b[4*i+3])
			if !utf8.ValidRune(r[i]) {
				return "", false, errInvalidUniversal
			}
		}
		return string(r), true, nil
	default:
		return "", false, nil
	}
}

func isPrintable(c byte) bool {
	return 'a' <= c && c <= 'z' ||
		'A' <= c && c <= 'Z' ||
		'0' <= c && c <= '9' ||
		strings.IndexByte(" '()+,-./:=?", c) >= 0 ||
		// Widely issued despite being outside the PrintableString alphabet.
		c == '*' || c == '&'
}

func isIA5(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// BuildName encodes attrs as a Name with one attribute per RDN, in order.
// Values that fit the PrintableString alphabet are encoded as such, the rest
// as UTF8String.
func BuildName(attrs ...Attribute) (Name, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, a := range attrs {
			b.AddASN1(cryptobyte_asn1.SET, func(b *cryptobyte.Builder) {
				b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1ObjectIdentifier(a.Type)
					tag := cryptobyte_asn1.PrintableString
					for i := 0; i < len(a.Value); i++ {
						if c := a.Value[i]; !isPrintable(c) || c == '*' || c == '&' {
							tag = cryptobyte_asn1.UTF8String
							break
						}
					}
					b.AddASN1(tag, func(b *cryptobyte.Builder) {
						b.AddBytes([]byte(a.Value))
					})
				})
			})
		}
	})
	der, err := b.Bytes()
	if err != nil {
		return Name{}, err
	}
	return parseName(der)
}

// ParseName decodes a DER-encoded Name.
func ParseName(der []byte) (Name, error) {
	return parseName(cryptobyte.String(slices.Clone(der)))
}
