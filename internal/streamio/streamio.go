// Package streamio instruments byte streams with progress counters and
// a rolling content checksum.
package streamio

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"
)

// ProgressReader wraps a Read+Seek stream, reporting the current byte
// position after every read or seek and aborting as soon as its
// context is cancelled. Uploads poll cancellation here, at every read,
// rather than only between files.
type ProgressReader struct {
	inner    io.ReadSeeker
	ctx      context.Context
	report   func(pos int64)
	position int64
}

// NewProgressReader wraps inner. report may be nil.
func NewProgressReader(ctx context.Context, inner io.ReadSeeker, report func(pos int64)) *ProgressReader {
	return &ProgressReader{inner: inner, ctx: ctx, report: report}
}

func (r *ProgressReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := r.inner.Read(p)
	if n > 0 {
		r.position += int64(n)
		if r.report != nil {
			r.report(r.position)
		}
	}
	return n, err
}

func (r *ProgressReader) Seek(offset int64, whence int) (int64, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	pos, err := r.inner.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	r.position = pos
	if r.report != nil {
		r.report(pos)
	}
	return pos, nil
}

// Position returns the number of bytes delivered so far (or the
// position of the last seek).
func (r *ProgressReader) Position() int64 {
	return r.position
}

// MD5Writer tees writes into an md5 state so a download's checksum is
// available the moment the last byte lands, without a second pass over
// the file.
type MD5Writer struct {
	inner io.Writer
	hash  hash.Hash
}

// NewMD5Writer wraps inner.
func NewMD5Writer(inner io.Writer) *MD5Writer {
	return &MD5Writer{inner: inner, hash: md5.New()}
}

func (w *MD5Writer) Write(p []byte) (int, error) {
	n, err := w.inner.Write(p)
	if n > 0 {
		w.hash.Write(p[:n])
	}
	return n, err
}

// Sum returns the hex md5 of everything written so far.
func (w *MD5Writer) Sum() string {
	return hex.EncodeToString(w.hash.Sum(nil))
}
