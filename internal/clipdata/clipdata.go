// Package clipdata models the multi-format clipboard payload exchanged
// between peers: an ordered list of (format, bytes) items plus the
// conversions applied at the host boundary.
package clipdata

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf16"
)

// Known format names, transmitted verbatim and case-sensitive.
const (
	Text            = "Text"
	UnicodeText     = "UnicodeText"
	SystemString    = "System.String"
	OEMText         = "OEMText"
	RichTextFormat  = "Rich Text Format"
	Locale          = "Locale"
	HTMLFormat      = "HTML Format"
	WaveAudio       = "WaveAudio"
	Bitmap          = "Bitmap"
	Dib             = "Dib"
	FileDropSentinel = "FileDrop"
)

// Item is a single clipboard entry: a format name and its byte payload.
type Item struct {
	Format  string
	Payload []byte
}

// Data is an ordered sequence of clipboard items; insertion order is
// transmission order.
type Data struct {
	Items []Item
}

// TotalLen returns the sum of every item's payload length.
func (d *Data) TotalLen() int64 {
	var n int64
	for _, it := range d.Items {
		n += int64(len(it.Payload))
	}
	return n
}

// Validate enforces the non-empty-format invariant.
func (d *Data) Validate() error {
	for i, it := range d.Items {
		if it.Format == "" {
			return fmt.Errorf("clipdata: item %d has empty format", i)
		}
	}
	return nil
}

/*────── host-boundary conversions ──────────────────────────────*/

// Converter encodes a host value to wire bytes and decodes wire bytes back
// to a host value for one clipboard format.
type Converter struct {
	// Encode turns a host-side value (typically a string) into wire bytes.
	Encode func(v any) ([]byte, error)
	// Decode turns wire bytes back into a host-side value.
	Decode func(b []byte) (any, error)
}

func utf8Converter() Converter {
	return Converter{
		Encode: func(v any) ([]byte, error) {
			s, ok := v.(string)
			if !ok {
				if b, ok := v.([]byte); ok {
					return b, nil
				}
				return nil, errors.New("clipdata: expected string or []byte")
			}
			return []byte(s), nil
		},
		Decode: func(b []byte) (any, error) { return string(b), nil },
	}
}

func utf16leConverter() Converter {
	return Converter{
		Encode: func(v any) ([]byte, error) {
			s, ok := v.(string)
			if !ok {
				if b, ok := v.([]byte); ok {
					return b, nil
				}
				return nil, errors.New("clipdata: expected string or []byte")
			}
			units := utf16.Encode([]rune(s))
			out := make([]byte, len(units)*2)
			for i, u := range units {
				out[i*2] = byte(u)
				out[i*2+1] = byte(u >> 8)
			}
			return out, nil
		},
		Decode: func(b []byte) (any, error) {
			if len(b)%2 != 0 {
				return nil, errors.New("clipdata: odd-length UTF-16LE payload")
			}
			units := make([]uint16, len(b)/2)
			for i := range units {
				units[i] = uint16(b[i*2]) | uint16(b[i*2+1])<<8
			}
			return string(utf16.Decode(units)), nil
		},
	}
}

func asciiConverter() Converter {
	return Converter{
		Encode: func(v any) ([]byte, error) {
			s, ok := v.(string)
			if !ok {
				if b, ok := v.([]byte); ok {
					return b, nil
				}
				return nil, errors.New("clipdata: expected string or []byte")
			}
			out := make([]byte, len(s))
			for i := 0; i < len(s); i++ {
				c := s[i]
				if c > 127 {
					c = '?'
				}
				out[i] = c
			}
			return out, nil
		},
		Decode: func(b []byte) (any, error) { return string(b), nil },
	}
}

func rawConverter() Converter {
	return Converter{
		Encode: func(v any) ([]byte, error) {
			if b, ok := v.([]byte); ok {
				return b, nil
			}
			return nil, errors.New("clipdata: expected []byte")
		},
		Decode: func(b []byte) (any, error) { return b, nil },
	}
}

func noopConverter() Converter {
	return Converter{
		Encode: func(v any) ([]byte, error) { return nil, nil },
		Decode: func(b []byte) (any, error) { return b, nil },
	}
}

// converters is the static format → converter table: a lookup in place
// of per-format dynamic dispatch.
var converters = map[string]Converter{
	Text:           utf8Converter(),
	SystemString:   utf8Converter(),
	HTMLFormat:     utf8Converter(),
	RichTextFormat: utf8Converter(),
	UnicodeText:    utf16leConverter(),
	OEMText:        asciiConverter(),
	Locale:         rawConverter(),
	Dib:            rawConverter(),
	// WaveAudio and Bitmap are recognized but unwired: the branch is
	// present for handshake parity, nothing is transmitted.
	WaveAudio: noopConverter(),
	Bitmap:    noopConverter(),
}

// ConverterFor returns the converter registered for a known format, or a
// pass-through raw converter for unknown formats.
func ConverterFor(format string) Converter {
	if c, ok := converters[format]; ok {
		return c
	}
	return rawConverter()
}

// Encode converts a host value for the given format to wire bytes.
func Encode(format string, v any) ([]byte, error) {
	return ConverterFor(format).Encode(v)
}

// Decode converts wire bytes for the given format to a host value.
func Decode(format string, b []byte) (any, error) {
	return ConverterFor(format).Decode(b)
}

// NewReader returns a fresh reader over an item's payload; transmission
// resets the read cursor to 0 before send.
func (it *Item) NewReader() *bytes.Reader {
	return bytes.NewReader(it.Payload)
}
