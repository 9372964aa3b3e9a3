// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Serial number length limits in octets.
const (
	MinSerialOctets     = 9
	MaxSerialOctets     = 20
	DefaultSerialOctets = MaxSerialOctets
)

// SerialNumber is an arbitrary-precision non-negative certificate serial.
// The zero value is the serial 0.
type SerialNumber struct{ v *big.Int }

// NewSerialNumber returns a serial holding a copy of n.
func NewSerialNumber(n *big.Int) (SerialNumber, error) {
	if n == nil {
		return SerialNumber{}, nil
	}
	if n.Sign() < 0 {
		return SerialNumber{}, ErrNegativeSerial
	}
	return SerialNumber{v: new(big.Int).Set(n)}, nil
}

// SerialNumberFromBytes interprets b as an unsigned big-endian integer.
func SerialNumberFromBytes(b []byte) SerialNumber {
	return SerialNumber{v: new(big.Int).SetBytes(b)}
}

// GenerateSerialNumber returns a positive, non-zero serial whose DER encoding
// is exactly octets long. A nil reader uses crypto/rand.
func GenerateSerialNumber(r io.Reader, octets int) (SerialNumber, error) {
	if octets < MinSerialOctets || octets > MaxSerialOctets {
		return SerialNumber{}, fmt.Errorf("x509certs: serial length %d outside %d..%d octets", octets, MinSerialOctets, MaxSerialOctets)
	}
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, octets)
	if _, err := io.ReadFull(r, b); err != nil {
		return SerialNumber{}, fmt.Errorf("x509certs: generate serial: %w", err)
	}
	// Clear the sign bit and keep the leading octet non-zero.
	b[0] &= 0x7f
	if b[0] == 0 {
		b[0] = 1
	}
	return SerialNumberFromBytes(b), nil
}

// BigInt returns a copy of the serial as a big.Int.
func (s SerialNumber) BigInt() *big.Int {
	if s.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(s.v)
}

// Bytes returns the minimal unsigned big-endian encoding.
func (s SerialNumber) Bytes() []byte {
	if s.v == nil {
		return nil
	}
	return s.v.Bytes()
}

// Cmp compares two serials.
func (s SerialNumber) Cmp(o SerialNumber) int { return s.BigInt().Cmp(o.BigInt()) }

// Equal reports whether both serials hold the same value.
func (s SerialNumber) Equal(o SerialNumber) bool { return s.Cmp(o) == 0 }

// IsZero reports whether the serial is 0.
func (s SerialNumber) IsZero() bool { return s.v == nil || s.v.Sign() == 0 }

// String returns the lower-case hexadecimal form.
func (s SerialNumber) String() string { return s.BigInt().Text(16) }
