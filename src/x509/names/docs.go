// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509names canonicalizes the names that appear in [X.509] certificates
// so they can be compared for equality and tested against name constraints.
//
// DNS names are converted to their ASCII-compatible form with [IDNA] lookup
// rules (punycode "xn--" labels), lower-cased, and checked against label and
// total length limits. Subtree matching is label-wise: the constraint
// "example.com" admits "example.com" and "host.example.com" but not
// "notexample.com", while ".example.com" admits subdomains only.
//
// Directory string attribute values are compared after Unicode compatibility
// normalization, case folding, and whitespace collapsing. Attribute types
// without a known matching rule are reported as such so callers fall back to
// byte-for-byte comparison.
//
// [X.509]: https://grokipedia.com/page/X.509
// [IDNA]: https://www.rfc-editor.org/rfc/rfc5891
package x509names
