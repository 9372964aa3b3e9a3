// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509provider maps [X.509] signature algorithm identifiers to a
// digest and signature scheme and verifies signatures with them.
//
// It is the only place the path validator touches cryptographic primitives.
// The [Verifier] interface lets callers substitute another backend, such as
// a hardware module; [Provider] is the default backend built on the Go
// standard crypto packages.
//
// Supported schemes:
//   - RSA PKCS #1 v1.5 with SHA-256, SHA-384 or SHA-512 (SHA-1 only when allowed)
//   - RSASSA-PSS with SHA-256, SHA-384 or SHA-512 and MGF1 over the same hash
//   - ECDSA with SHA-256, SHA-384 or SHA-512 (SHA-1 only when allowed)
//   - Ed25519
//
// MD2 and MD5 based identifiers are always reported as [ErrUnsupportedAlgorithm].
//
// [X.509]: https://grokipedia.com/page/X.509
package x509provider
