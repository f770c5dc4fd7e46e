// Package wire implements the little-endian, length-prefixed framing used
// on the control channel between a data client and a data server.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrEndOfStream is returned whenever a read is shorter than requested,
// i.e. the peer closed the stream mid-frame.
var ErrEndOfStream = errors.New("wire: end of stream")

// ChunkSize is the bulk-transfer buffer size used when streaming item
// and file payloads.
const ChunkSize = 64 * 1024

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, ChunkSize)
		return &b
	},
}

/*────── Tag: control-channel values ───────────────────────────*/

// Tag is a u16 constant carried on the control channel.
type Tag uint16

const (
	Version        Tag = 1
	SuccessVersion Tag = 2
	SuccessFormat  Tag = 3
	SuccessSize    Tag = 4
	SuccessData    Tag = 5
	MoreData       Tag = 6
	Finish         Tag = 7
	Error          Tag = 8
)

func (t Tag) String() string {
	switch t {
	case Version:
		return "Version"
	case SuccessVersion:
		return "SuccessVersion"
	case SuccessFormat:
		return "SuccessFormat"
	case SuccessSize:
		return "SuccessSize"
	case SuccessData:
		return "SuccessData"
	case MoreData:
		return "MoreData"
	case Finish:
		return "Finish"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("Tag(%d)", uint16(t))
	}
}

// ProtocolVersion is the value the client writes first during the
// handshake.
const ProtocolVersion uint16 = 1

/*────── Reader ─────────────────────────────────────────────────*/

// Reader reads the primitive wire types off an underlying io.Reader.
type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// fill reads exactly len(buf) bytes. A clean close with zero bytes
// consumed (io.EOF) is returned unwrapped so callers can distinguish a
// graceful end-of-connection at a frame boundary from a short/corrupt
// read mid-frame (which is wrapped as ErrEndOfStream).
func (r *Reader) fill(buf []byte) error {
	_, err := io.ReadFull(r.r, buf)
	switch err {
	case nil:
		return nil
	case io.EOF:
		return io.EOF
	default:
		return fmt.Errorf("%w: %v", ErrEndOfStream, err)
	}
}

// ReadTag reads a u16 and returns it as a Tag.
func (r *Reader) ReadTag() (Tag, error) {
	v, err := r.ReadUint16()
	return Tag(v), err
}

// ReadUint16 reads a little-endian u16.
func (r *Reader) ReadUint16() (uint16, error) {
	var buf [2]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadInt64 reads a little-endian i64.
func (r *Reader) ReadInt64() (int64, error) {
	var buf [8]byte
	if err := r.fill(buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

// ReadString reads an i32-length-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	var lbuf [4]byte
	if err := r.fill(lbuf[:]); err != nil {
		return "", err
	}
	n := int32(binary.LittleEndian.Uint32(lbuf[:]))
	if n < 0 {
		return "", fmt.Errorf("%w: negative string length %d", ErrEndOfStream, n)
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if err := r.fill(buf); err != nil {
		if err == io.EOF {
			// the length prefix was consumed, so this close is mid-frame
			return "", fmt.Errorf("%w: %v", ErrEndOfStream, io.ErrUnexpectedEOF)
		}
		return "", err
	}
	return string(buf), nil
}

// ReadExact reads exactly len(buf) bytes.
func (r *Reader) ReadExact(buf []byte) error {
	return r.fill(buf)
}

/*────── Writer ─────────────────────────────────────────────────*/

// Writer writes the primitive wire types to an underlying io.Writer.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// WriteTag writes a Tag as a u16.
func (w *Writer) WriteTag(t Tag) error {
	return w.WriteUint16(uint16(t))
}

// WriteUint16 writes a little-endian u16.
func (w *Writer) WriteUint16(v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.w.Write(buf[:])
	return err
}

// WriteInt64 writes a little-endian i64.
func (w *Writer) WriteInt64(v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, err := w.w.Write(buf[:])
	return err
}

// WriteString writes an i32-length-prefixed UTF-8 string.
func (w *Writer) WriteString(s string) error {
	var lbuf [4]byte
	binary.LittleEndian.PutUint32(lbuf[:], uint32(int32(len(s))))
	if _, err := w.w.Write(lbuf[:]); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	_, err := w.w.Write([]byte(s))
	return err
}

// WriteExact writes buf verbatim.
func (w *Writer) WriteExact(buf []byte) error {
	_, err := w.w.Write(buf)
	return err
}

/*────── bulk streaming helpers ─────────────────────────────────*/

// CopyN streams exactly n bytes from src to dst using a pooled chunk
// buffer, invoking tick after every chunk written (progress reporting).
// The buffer is always returned to the pool, on every exit path.
func CopyN(dst io.Writer, src io.Reader, n int64, tick func(int)) error {
	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)
	buf := *bufp

	for n > 0 {
		want := int64(len(buf))
		if n < want {
			want = n
		}
		read, err := io.ReadFull(src, buf[:want])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEndOfStream, err)
		}
		if _, err := dst.Write(buf[:read]); err != nil {
			return err
		}
		if tick != nil {
			tick(read)
		}
		n -= int64(read)
	}
	return nil
}
