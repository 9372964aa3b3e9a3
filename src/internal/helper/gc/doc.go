// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package gc provides reusable byte buffer pooling to reduce garbage collection overhead.
// It abstracts the [bytebufferpool] library so the certificate codec (PEM bundle
// encoding, bundle reading) and the JSON logger share one pool instead of
// allocating a fresh buffer for every certificate they touch.
//
// [bytebufferpool]: https://github.com/valyala/bytebufferpool
package gc
