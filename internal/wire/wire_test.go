package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestUint16RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteUint16(0xBEEF); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewReader(&buf)
	got, err := r.ReadUint16()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0xBEEF {
		t.Fatalf("got %x want %x", got, 0xBEEF)
	}
}

func TestInt64RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	want := int64(-123456789)
	if err := w.WriteInt64(want); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewReader(&buf)
	got, err := r.ReadInt64()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "hi", "αβγ unicode", string(make([]byte, 5000))}
	for _, want := range cases {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		if err := w.WriteString(want); err != nil {
			t.Fatalf("write: %v", err)
		}
		r := NewReader(&buf)
		got, err := r.ReadString()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if got != want {
			t.Fatalf("len got=%d want=%d", len(got), len(want))
		}
	}
}

func TestTagRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteTag(MoreData); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewReader(&buf)
	got, err := r.ReadTag()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != MoreData {
		t.Fatalf("got %v want %v", got, MoreData)
	}
}

func TestShortReadIsEndOfStream(t *testing.T) {
	// a size field truncated mid-flight.
	buf := bytes.NewReader([]byte{0x01, 0x02})
	r := NewReader(buf)
	if _, err := r.ReadInt64(); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
}

func TestCopyNExactBytes(t *testing.T) {
	src := bytes.NewReader([]byte("hello world"))
	var dst bytes.Buffer
	var ticked int
	if err := CopyN(&dst, src, 11, func(n int) { ticked += n }); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if dst.String() != "hello world" {
		t.Fatalf("got %q", dst.String())
	}
	if ticked != 11 {
		t.Fatalf("ticked %d want 11", ticked)
	}
}

func TestCopyNShortSourceFails(t *testing.T) {
	src := bytes.NewReader([]byte("short"))
	var dst bytes.Buffer
	err := CopyN(&dst, src, 100, nil)
	if !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
}

func TestCopyNLargerThanChunkSize(t *testing.T) {
	data := make([]byte, ChunkSize*2+17)
	for i := range data {
		data[i] = byte(i)
	}
	src := bytes.NewReader(data)
	var dst bytes.Buffer
	if err := CopyN(&dst, src, int64(len(data)), nil); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if !bytes.Equal(dst.Bytes(), data) {
		t.Fatalf("mismatch over multi-chunk copy")
	}
}

func TestReadExactEOF(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	buf := make([]byte, 4)
	err := r.ReadExact(buf)
	if !errors.Is(err, ErrEndOfStream) && !errors.Is(err, io.EOF) {
		t.Fatalf("expected eof-like error, got %v", err)
	}
}
