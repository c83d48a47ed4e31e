package streamio

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestProgressReaderReportsPosition(t *testing.T) {
	var positions []int64
	r := NewProgressReader(context.Background(), strings.NewReader("hello world"),
		func(pos int64) { positions = append(positions, pos) })

	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read: %v", err)
	}

	if r.Position() != 8 {
		t.Errorf("Position() = %d, want 8", r.Position())
	}
	if len(positions) != 2 || positions[0] != 4 || positions[1] != 8 {
		t.Errorf("reported positions = %v, want [4 8]", positions)
	}

	// Positions never decrease across sequential reads.
	last := int64(0)
	for _, p := range positions {
		if p < last {
			t.Errorf("position went backwards: %v", positions)
		}
		last = p
	}
}

func TestProgressReaderSeek(t *testing.T) {
	r := NewProgressReader(context.Background(), strings.NewReader("abcdef"), nil)

	buf := make([]byte, 6)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	pos, err := r.Seek(0, io.SeekStart)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if pos != 0 || r.Position() != 0 {
		t.Errorf("after rewind: pos=%d Position()=%d, want 0", pos, r.Position())
	}
}

func TestProgressReaderCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewProgressReader(ctx, strings.NewReader("data"), nil)

	cancel()

	if _, err := r.Read(make([]byte, 4)); !errors.Is(err, context.Canceled) {
		t.Errorf("Read after cancel = %v, want context.Canceled", err)
	}
	if _, err := r.Seek(0, io.SeekStart); !errors.Is(err, context.Canceled) {
		t.Errorf("Seek after cancel = %v, want context.Canceled", err)
	}
}

func TestMD5Writer(t *testing.T) {
	payload := []byte("the quick brown fox")
	sum := md5.Sum(payload)
	want := hex.EncodeToString(sum[:])

	var sink bytes.Buffer
	w := NewMD5Writer(&sink)
	if _, err := w.Write(payload[:7]); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(payload[7:]); err != nil {
		t.Fatal(err)
	}

	if got := w.Sum(); got != want {
		t.Errorf("Sum() = %q, want %q", got, want)
	}
	if !bytes.Equal(sink.Bytes(), payload) {
		t.Error("written bytes do not match payload")
	}
}

type shortWriter struct{ n int }

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		return w.n, errors.New("disk full")
	}
	return len(p), nil
}

func TestMD5WriterHashesOnlyWrittenBytes(t *testing.T) {
	w := NewMD5Writer(&shortWriter{n: 3})
	if _, err := w.Write([]byte("abcdef")); err == nil {
		t.Fatal("expected write error")
	}

	sum := md5.Sum([]byte("abc"))
	if got := w.Sum(); got != hex.EncodeToString(sum[:]) {
		t.Errorf("Sum() = %q, want hash of the 3 accepted bytes", got)
	}
}
