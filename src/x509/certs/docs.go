// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs decodes and encodes [X.509] certificates in DER, [PEM] and
// [PKCS7] form into an immutable, typed data model.
//
// Decoding is strict: trailing bytes, wrong outer tags, missing mandatory
// fields, non-minimal DER lengths and malformed recognized extensions are all
// rejected with [ErrMalformedEncoding]. Every Raw field of a decoded
// [Certificate] is a sub-slice of one private copy of the input, so the
// to-be-signed bytes verified later are exactly the bytes the issuer signed.
//
// Recognized extensions are decoded into typed values behind the sealed
// [ExtensionValue] interface. Anything else is kept as an
// [UnrecognizedExtension] carrying its criticality and raw bytes.
//
// The package also builds certificates: a [Template] is marshaled into TBS
// bytes and signed by a caller-supplied [crypto.Signer]. It never generates keys.
//
// [X.509]: https://grokipedia.com/page/X.509
// [PKCS7]: https://grokipedia.com/page/PKCS_7
// [PEM]: https://grokipedia.com/page/PEM#privacy-enhanced-mail
package x509certs
