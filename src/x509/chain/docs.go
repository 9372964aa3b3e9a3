// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain implements [X.509] certification path building and
// validation. It provides capabilities to:
//   - Build candidate paths from a leaf to caller-supplied trust anchors,
//     using a certificate store to locate intermediates.
//   - Verify every signature along the path through a pluggable provider.
//   - Enforce validity periods, basic constraints, path length constraints,
//     key usage, name constraints and certificate policies.
//   - Consult a caller-supplied revocation oracle for every certificate.
//
// Validation performs no I/O and holds no state between calls, so a single
// [Validator] may validate many leaves concurrently.
//
// Candidate issuers are tried depth first: trust anchors before store
// certificates, and store certificates in the order the store returns them.
// The first fully valid path wins. When every candidate fails, the failure
// of the last candidate tried is returned.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509chain
