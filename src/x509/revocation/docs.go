// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509revocation provides revocation oracles for the chain
// validator. The oracles never perform network I/O: callers fetch CRLs and
// OCSP responses themselves and add them.
//
// By default a certificate without fresh revocation information is reported
// as not revoked. [WithStrict] reverses that so missing, stale or unknown
// status fails closed.
package x509revocation
