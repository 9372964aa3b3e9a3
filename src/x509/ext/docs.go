// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509ext interprets certificate extensions into constraint sets and
// runs pluggable checkers over a certification path.
//
// A [Processor] fails closed: a critical extension that is neither decoded by
// [x509certs] nor claimed by one of its [Checker] values is reported as
// [ErrUnsupportedCriticalExtension].
//
// Built-in checkers:
//   - [KeyIdentifierChecker]: authority key identifier of a child must match
//     the subject key identifier of its issuer.
//   - [KeyUsageChecker]: required key usage bits on the leaf.
//   - [ExtKeyUsageChecker]: required purposes on the leaf, nested through the
//     issuers that restrict purposes.
//   - [PolicyChecker]: required certificate policies on every certificate
//     below the trust anchor.
//
// Basic constraints and the keyCertSign requirement on issuers are enforced
// by the chain validator itself.
package x509ext
