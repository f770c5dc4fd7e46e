// Package dib converts a Device-Independent Bitmap (BITMAPINFO + pixels)
// into a standalone BMP file by prepending a BITMAPFILEHEADER.
package dib

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidDIB is returned when the input is too short to hold a
// BITMAPINFOHEADER or the header's declared size does not match the
// expected 40 bytes.
var ErrInvalidDIB = errors.New("dib: invalid DIB")

const (
	fileHeaderSize = 14
	infoHeaderSize = 40
	bfType         = 0x4D42 // "BM"
)

type infoHeader struct {
	biSize          uint32
	biWidth         int32
	biHeight        int32
	biPlanes        uint16
	biBitCount      uint16
	biCompression   uint32
	biSizeImage     uint32
	biXPelsPerMeter int32
	biYPelsPerMeter int32
	biClrUsed       uint32
	biClrImportant  uint32
}

func parseInfoHeader(b []byte) (infoHeader, error) {
	if len(b) < infoHeaderSize {
		return infoHeader{}, fmt.Errorf("%w: deserialize BITMAPINFO, data invalid", ErrInvalidDIB)
	}
	h := infoHeader{
		biSize:          binary.LittleEndian.Uint32(b[0:4]),
		biWidth:         int32(binary.LittleEndian.Uint32(b[4:8])),
		biHeight:        int32(binary.LittleEndian.Uint32(b[8:12])),
		biPlanes:        binary.LittleEndian.Uint16(b[12:14]),
		biBitCount:      binary.LittleEndian.Uint16(b[14:16]),
		biCompression:   binary.LittleEndian.Uint32(b[16:20]),
		biSizeImage:     binary.LittleEndian.Uint32(b[20:24]),
		biXPelsPerMeter: int32(binary.LittleEndian.Uint32(b[24:28])),
		biYPelsPerMeter: int32(binary.LittleEndian.Uint32(b[28:32])),
		biClrUsed:       binary.LittleEndian.Uint32(b[32:36]),
		biClrImportant:  binary.LittleEndian.Uint32(b[36:40]),
	}
	if h.biSize != infoHeaderSize {
		return infoHeader{}, fmt.Errorf("%w: biSize %d != %d", ErrInvalidDIB, h.biSize, infoHeaderSize)
	}
	return h, nil
}

// paletteBytes returns the size in bytes of the color palette that
// follows the BITMAPINFOHEADER: colorsUsed*4 when present, else
// (1<<bitCount)*4 for bit-counts ≤8.
func (h infoHeader) paletteBytes() uint32 {
	if h.biClrUsed > 0 {
		return h.biClrUsed * 4
	}
	if h.biBitCount <= 8 {
		return (1 << h.biBitCount) * 4
	}
	return 0
}

// maskBytes returns the size of the BI_BITFIELDS color masks, present
// only for 16/32-bit images using that compression mode.
func (h infoHeader) maskBytes() uint32 {
	const biBitfields = 3
	if h.biCompression == biBitfields && (h.biBitCount == 16 || h.biBitCount == 32) {
		return 12
	}
	return 0
}

// ToBMP reads exactly a 40-byte BITMAPINFOHEADER (plus whatever follows)
// from r and returns a standalone BMP file: a 14-byte BITMAPFILEHEADER
// prepended to the full DIB bytes.
func ToBMP(r io.Reader) ([]byte, error) {
	dibBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dib: read DIB: %w", err)
	}
	return dibBytesToBMP(dibBytes)
}

// ToBMPBytes is the byte-slice equivalent of ToBMP, used when the caller
// already holds the full DIB payload (e.g. a clipboard item's bytes).
func ToBMPBytes(dibBytes []byte) ([]byte, error) {
	return dibBytesToBMP(dibBytes)
}

func dibBytesToBMP(dibBytes []byte) ([]byte, error) {
	h, err := parseInfoHeader(dibBytes)
	if err != nil {
		return nil, err
	}

	bfOffBits := uint32(fileHeaderSize) + h.biSize + h.paletteBytes() + h.maskBytes()
	bfSize := uint32(fileHeaderSize) + uint32(len(dibBytes))

	out := make([]byte, fileHeaderSize+len(dibBytes))
	binary.LittleEndian.PutUint16(out[0:2], bfType)
	binary.LittleEndian.PutUint32(out[2:6], bfSize)
	binary.LittleEndian.PutUint16(out[6:8], 0) // bfReserved1
	binary.LittleEndian.PutUint16(out[8:10], 0) // bfReserved2
	binary.LittleEndian.PutUint32(out[10:14], bfOffBits)
	copy(out[fileHeaderSize:], dibBytes)

	return out, nil
}
