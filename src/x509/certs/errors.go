// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEncoding indicates a structural DER or PKIX violation.
	ErrMalformedEncoding = errors.New("x509certs: malformed encoding")

	// ErrInvalidPEMBlock indicates that the provided data does not contain a valid PEM block.
	ErrInvalidPEMBlock = errors.New("x509certs: invalid PEM block")

	// ErrInvalidBlockType indicates that the PEM block type is not the expected certificate type.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrParsePKCS7 indicates a failure to parse PKCS7 formatted data.
	ErrParsePKCS7 = errors.New("x509certs: failed to parse PKCS7 data")

	// ErrNoCertificates indicates that a bundle held no certificates.
	ErrNoCertificates = errors.New("x509certs: no certificates found")

	// ErrNegativeSerial indicates a serial number below zero.
	ErrNegativeSerial = errors.New("x509certs: negative serial number")

	// ErrInvalidTemplate indicates a template that cannot be marshaled.
	ErrInvalidTemplate = errors.New("x509certs: invalid certificate template")

	// ErrNotOctetAligned indicates a bit string whose length is not a multiple of eight.
	ErrNotOctetAligned = errors.New("x509certs: bit string is not octet aligned")
)

// DecodeError describes which field of a structure failed to decode.
// It matches [ErrMalformedEncoding] with [errors.Is].
type DecodeError struct {
	// Field names the offending element, for example "tbsCertificate.validity".
	Field string
	// Err is an optional underlying cause.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("x509certs: malformed %s: %v", e.Field, e.Err)
	}
	return "x509certs: malformed " + e.Field
}

// Unwrap exposes both the malformed-encoding sentinel and the cause.
func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedEncoding, e.Err}
	}
	return []error{ErrMalformedEncoding}
}

func malformed(field string) error { return &DecodeError{Field: field} }

func malformedErr(field string, err error) error { return &DecodeError{Field: field, Err: err} }
