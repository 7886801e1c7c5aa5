// Package source provides the raw file handles owned by ingested records.
package source

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
)

// File is an opaque reference to a dropped file: its metadata plus a way to
// read the content. Once ingested, a File belongs to exactly one record and
// is released when that record is removed.
type File interface {
	Name() string
	Size() int64
	// ContentType is the declared MIME-like type, possibly empty.
	ContentType() string
	// Open returns a fresh reader over the full content. Callers close it.
	Open() (io.ReadCloser, error)
	// Release frees whatever backs the content. Open fails afterwards.
	Release() error
}

// Bytes is an in-memory File, used for gRPC payloads.
type Bytes struct {
	name        string
	contentType string
	data        []byte
	released    atomic.Bool
}

// NewBytes wraps data as a File. An empty contentType is sniffed.
func NewBytes(name, contentType string, data []byte) *Bytes {
	if strings.TrimSpace(contentType) == "" {
		contentType = Sniff(data)
	}
	return &Bytes{name: name, contentType: contentType, data: data}
}

func (b *Bytes) Name() string        { return b.name }
func (b *Bytes) Size() int64         { return int64(len(b.data)) }
func (b *Bytes) ContentType() string { return b.contentType }

func (b *Bytes) Open() (io.ReadCloser, error) {
	if b.released.Load() {
		return nil, ErrReleased
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (b *Bytes) Release() error {
	b.released.Store(true)
	return nil
}

// Sniff detects a content type from the first 512 bytes of head.
func Sniff(head []byte) string {
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}
