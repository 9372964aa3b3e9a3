// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// BitString is an ASN.1 BIT STRING. Bytes holds the bits most significant
// first; trailing padding bits in the last octet are zero.
type BitString struct {
	Bytes     []byte
	BitLength int
}

// At returns the bit at index i, or 0 when i is out of range.
func (b BitString) At(i int) int {
	if i < 0 || i >= b.BitLength {
		return 0
	}
	return int(b.Bytes[i/8]>>(7-uint(i%8))) & 1
}

// Octets returns the contents of an octet-aligned bit string, such as a
// public key or signature value.
func (b BitString) Octets() ([]byte, error) {
	if b.BitLength%8 != 0 {
		return nil, ErrNotOctetAligned
	}
	return b.Bytes, nil
}

// Flip returns a copy of b with bit i inverted.
func (b BitString) Flip(i int) BitString {
	out := BitString{Bytes: append([]byte(nil), b.Bytes...), BitLength: b.BitLength}
	if i >= 0 && i < b.BitLength {
		out.Bytes[i/8] ^= 1 << (7 - uint(i%8))
	}
	return out
}

// addBitString writes b as a DER BIT STRING.
func addBitString(bld *cryptobyte.Builder, b BitString) {
	bld.AddASN1(cryptobyte_asn1.BIT_STRING, func(c *cryptobyte.Builder) {
		c.AddUint8(uint8((8 - b.BitLength%8) % 8))
		c.AddBytes(b.Bytes)
	})
}
