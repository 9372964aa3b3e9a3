// Copyright (c) 2024 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"io"

	"github.com/valyala/bytebufferpool"
)

// Buffer defines the interface for a reusable byte buffer.
// It abstracts the [bytebufferpool.ByteBuffer] type to avoid direct dependencies.
type Buffer interface {
	Write(p []byte) (int, error)
	WriteString(s string) (int, error)
	WriteByte(c byte) error
	Set(p []byte)
	SetString(s string)
	String() string
	Bytes() []byte
	Len() int
	Reset()
	ReadFrom(r io.Reader) (int64, error)
	WriteTo(w io.Writer) (int64, error)
}

// Pool defines the interface for buffer pooling.
// It abstracts the [bytebufferpool.Pool] type to avoid direct dependencies.
//
// Pool implementations must be safe for concurrent use by multiple goroutines.
type Pool interface {
	Get() Buffer
	Put(b Buffer)
}

// pool wraps [bytebufferpool.Pool] to implement Pool interface.
type pool struct{ p *bytebufferpool.Pool }

// Get returns a buffer from the pool.
func (p *pool) Get() Buffer { return p.p.Get() }

// Put resets the buffer and returns it to the pool. Buffers that did not come
// from a [bytebufferpool.Pool] are dropped.
func (p *pool) Put(b Buffer) {
	if buf, ok := b.(*bytebufferpool.ByteBuffer); ok {
		buf.Reset()
		p.p.Put(buf)
	}
}

// Default is the default buffer pool used for efficient memory reuse.
//
// Typical usage:
//
//	buf := gc.Default.Get()
//	defer gc.Default.Put(buf)
//
//	if _, err := buf.ReadFrom(r); err != nil {
//		return nil, err
//	}
//	data := gc.Copy(buf)
var Default Pool = &pool{p: &bytebufferpool.Pool{}}

// Copy returns a copy of the buffer contents that stays valid after the
// buffer is returned to the pool.
func Copy(b Buffer) []byte {
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out
}
