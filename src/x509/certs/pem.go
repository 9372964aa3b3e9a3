// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"encoding/pem"
	"fmt"
	"io"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/H0llyW00dzZ/x509-path-validator/src/internal/helper/gc"
)

// CertificateBlockType is the PEM block type of a certificate.
const CertificateBlockType = "CERTIFICATE"

// IsPEM checks if the data is in PEM format.
func IsPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// DecodePEM decodes the first PEM block of data, which must be a certificate.
func DecodePEM(data []byte) (*Certificate, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMBlock
	}
	if block.Type != CertificateBlockType {
		return nil, ErrInvalidBlockType
	}
	return Decode(block.Bytes)
}

// DecodeBundle decodes every certificate in data, which may be a sequence of
// PEM blocks, concatenated DER certificates, or a certs-only PKCS7 structure.
// The first failing certificate aborts the whole bundle.
func DecodeBundle(data []byte) ([]*Certificate, error) {
	if IsPEM(data) {
		return decodePEMBundle(data)
	}

	certs, derErr := decodeDERBundle(data)
	if derErr == nil {
		return certs, nil
	}

	p, err := pkcs7.ParsePKCS7(data)
	if err != nil || p.Content.SignedData.Certificates == nil {
		// Not PKCS7 either; the DER error is the more useful one.
		return nil, derErr
	}
	if len(p.Content.SignedData.Certificates) == 0 {
		return nil, ErrNoCertificates
	}
	for _, c := range p.Content.SignedData.Certificates {
		cert, err := Decode(c.Raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParsePKCS7, err)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// ReadBundle reads r to the end and decodes it with DecodeBundle.
func ReadBundle(r io.Reader) ([]*Certificate, error) {
	buf := gc.Default.Get()
	defer gc.Default.Put(buf)

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("x509certs: read bundle: %w", err)
	}
	// Decode copies its input, so the pooled bytes may be reused afterwards.
	return DecodeBundle(buf.Bytes())
}

func decodePEMBundle(data []byte) ([]*Certificate, error) {
	var certs []*Certificate
	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != CertificateBlockType {
			return nil, ErrInvalidBlockType
		}
		cert, err := Decode(block.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
		data = rest
	}
	if len(certs) == 0 {
		return nil, ErrNoCertificates
	}
	return certs, nil
}

func decodeDERBundle(data []byte) ([]*Certificate, error) {
	s := cryptobyte.String(data)
	if s.Empty() {
		return nil, ErrNoCertificates
	}
	var certs []*Certificate
	for !s.Empty() {
		var elem cryptobyte.String
		if !s.ReadASN1Element(&elem, cryptobyte_asn1.SEQUENCE) {
			return nil, malformed("certificate")
		}
		cert, err := Decode(elem)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// EncodePEM encodes a certificate to PEM format.
func EncodePEM(cert *Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: CertificateBlockType, Bytes: cert.Raw})
}

// EncodeMultiplePEM encodes multiple certificates to PEM format.
func EncodeMultiplePEM(certs []*Certificate) []byte {
	buf := gc.Default.Get()
	defer gc.Default.Put(buf)

	for _, cert := range certs {
		// A bytebufferpool buffer never fails to write.
		_ = pem.Encode(buf, &pem.Block{Type: CertificateBlockType, Bytes: cert.Raw})
	}
	return gc.Copy(buf)
}

// EncodeMultipleDER concatenates the DER encodings of certs.
func EncodeMultipleDER(certs []*Certificate) []byte {
	var data []byte
	for _, cert := range certs {
		data = append(data, cert.Raw...)
	}
	return data
}
