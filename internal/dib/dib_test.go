package dib

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// testDIB builds a minimal well-formed 32x32 24-bit DIB (header + pixels,
// no palette, no masks).
func testDIB(t *testing.T) []byte {
	t.Helper()
	const w, h = 32, 32
	stride := ((w*3 + 3) / 4) * 4
	pixels := make([]byte, stride*h)
	for i := range pixels {
		pixels[i] = byte(i)
	}

	hdr := make([]byte, infoHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:4], infoHeaderSize)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(w))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(h))
	binary.LittleEndian.PutUint16(hdr[12:14], 1)
	binary.LittleEndian.PutUint16(hdr[14:16], 24)
	binary.LittleEndian.PutUint32(hdr[16:20], 0)
	binary.LittleEndian.PutUint32(hdr[20:24], uint32(len(pixels)))

	return append(hdr, pixels...)
}

func TestToBMPWellFormed(t *testing.T) {
	d := testDIB(t)
	out, err := ToBMPBytes(d)
	if err != nil {
		t.Fatalf("ToBMPBytes: %v", err)
	}
	if out[0] != 'B' || out[1] != 'M' {
		t.Fatalf("expected BM signature, got %q", out[0:2])
	}
	if len(out) <= 14 {
		t.Fatalf("output too short: %d bytes", len(out))
	}
	bfSize := binary.LittleEndian.Uint32(out[2:6])
	if bfSize > uint32(len(out)) || bfSize <= 14 {
		t.Fatalf("bfSize %d out of expected range (14, %d]", bfSize, len(out))
	}
	if got, want := len(out), fileHeaderSize+len(d); got != want {
		t.Fatalf("output length got=%d want=%d", got, want)
	}
}

func TestToBMPOffBitsNoPalette(t *testing.T) {
	d := testDIB(t)
	out, err := ToBMPBytes(d)
	if err != nil {
		t.Fatalf("ToBMPBytes: %v", err)
	}
	bfOffBits := binary.LittleEndian.Uint32(out[10:14])
	if bfOffBits != fileHeaderSize+infoHeaderSize {
		t.Fatalf("bfOffBits got=%d want=%d (no palette, 24-bit)", bfOffBits, fileHeaderSize+infoHeaderSize)
	}
}

func TestToBMPTruncatedHeaderFails(t *testing.T) {
	d := testDIB(t)
	_, err := ToBMPBytes(d[1:])
	if !errors.Is(err, ErrInvalidDIB) {
		t.Fatalf("expected ErrInvalidDIB, got %v", err)
	}
}

func TestToBMPCorruptedSizeFails(t *testing.T) {
	d := testDIB(t)
	d[0]-- // decrement biSize so it no longer reads 40
	_, err := ToBMPBytes(d)
	if !errors.Is(err, ErrInvalidDIB) {
		t.Fatalf("expected ErrInvalidDIB, got %v", err)
	}
}

func TestToBMPStreamReader(t *testing.T) {
	d := testDIB(t)
	out, err := ToBMP(bytes.NewReader(d))
	if err != nil {
		t.Fatalf("ToBMP: %v", err)
	}
	if !bytes.Equal(out[14:], d) {
		t.Fatalf("DIB bytes not preserved verbatim after the file header")
	}
}

func TestPaletteBytesLowBitCount(t *testing.T) {
	h := infoHeader{biBitCount: 8}
	if got, want := h.paletteBytes(), uint32(256*4); got != want {
		t.Fatalf("got %d want %d", got, want)
	}
	h2 := infoHeader{biBitCount: 8, biClrUsed: 16}
	if got, want := h2.paletteBytes(), uint32(16*4); got != want {
		t.Fatalf("got %d want %d", got, want)
	}
	h3 := infoHeader{biBitCount: 24}
	if got := h3.paletteBytes(); got != 0 {
		t.Fatalf("24-bit should have no palette, got %d", got)
	}
}
