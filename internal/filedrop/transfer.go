package filedrop

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"clipsync/internal/wire"
)

// kind tags carried in the per-record "format" slot of the outer
// clipboard-item envelope.
const (
	kindTagDirectory = "Directory"
	kindTagFile      = "File"
)

func kindTag(k EntryKind) string {
	if k == EntryDirectory {
		return kindTagDirectory
	}
	return kindTagFile
}

// Send streams the walk of roots to w/r using the per-record envelope:
// kind tag, relative path, size, then (for files) exactly size bytes of
// content, each step acknowledged and followed by MoreData/Finish.
// tick is invoked with bytes-written deltas for progress.
func Send(w *wire.Writer, r *wire.Reader, roots []string, tick func(int)) error {
	if len(roots) == 0 {
		return w.WriteTag(wire.Finish)
	}
	entries, err := Walk(roots)
	if err != nil {
		return err
	}

	rootIndex := rootLookup(roots)

	for i, e := range entries {
		if err := w.WriteString(kindTag(e.Kind)); err != nil {
			return err
		}
		if ack, err := r.ReadTag(); err != nil {
			return err
		} else if ack != wire.SuccessFormat {
			return fmt.Errorf("filedrop: peer rejected kind tag: %v", ack)
		}

		if err := w.WriteString(e.Path); err != nil {
			return err
		}
		if err := w.WriteInt64(e.Size); err != nil {
			return err
		}
		if ack, err := r.ReadTag(); err != nil {
			return err
		} else if ack != wire.SuccessSize {
			return fmt.Errorf("filedrop: peer rejected size: %v", ack)
		}

		if e.Kind == EntryFile {
			root := rootIndex[topSegment(e.Path)]
			f, err := os.Open(filepath.Join(filepath.Dir(root), filepath.FromSlash(e.Path)))
			if err != nil {
				return fmt.Errorf("filedrop: open %s: %w", e.Path, err)
			}
			err = wire.CopyN(structWriter{w}, f, e.Size, tick)
			f.Close()
			if err != nil {
				return err
			}
		}
		if ack, err := r.ReadTag(); err != nil {
			return err
		} else if ack != wire.SuccessData {
			return fmt.Errorf("filedrop: peer rejected data: %v", ack)
		}

		if i < len(entries)-1 {
			if err := w.WriteTag(wire.MoreData); err != nil {
				return err
			}
		} else {
			if err := w.WriteTag(wire.Finish); err != nil {
				return err
			}
		}
	}
	return nil
}

// rootLookup maps a walked entry's top path segment back to the original
// filesystem root it came from, so Send can reopen the file by its real
// path. Roots are matched by base name (Walk uses filepath.Base(root) as
// the top segment).
func rootLookup(roots []string) map[string]string {
	m := make(map[string]string, len(roots))
	for _, root := range roots {
		m[filepath.Base(root)] = root
	}
	return m
}

func topSegment(relPath string) string {
	for i := 0; i < len(relPath); i++ {
		if relPath[i] == '/' {
			return relPath[:i]
		}
	}
	return relPath
}

// structWriter adapts *wire.Writer to io.Writer for wire.CopyN.
type structWriter struct{ w *wire.Writer }

func (s structWriter) Write(p []byte) (int, error) {
	if err := s.w.WriteExact(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// structReader adapts *wire.Reader to io.Reader for wire.CopyN.
type structReader struct{ r *wire.Reader }

func (s structReader) Read(p []byte) (int, error) {
	if err := s.r.ReadExact(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ReceiveEntry consumes exactly one file-drop record, given that its
// kind-tag string has already been read (and SuccessFormat written) by
// the caller as the outer ClipboardData "format" field. It returns
// whether more entries follow.
func ReceiveEntry(w *wire.Writer, r *wire.Reader, spoolDir, kindTagValue string, tick func(int)) (more bool, err error) {
	relPath, err := r.ReadString()
	if err != nil {
		return false, err
	}
	size, err := r.ReadInt64()
	if err != nil {
		return false, err
	}
	if err := w.WriteTag(wire.SuccessSize); err != nil {
		return false, err
	}

	abs, err := ResolveSpoolPath(spoolDir, relPath)
	if err != nil {
		// Drain the announced bytes (if any) so the stream stays framed,
		// then report the rejection without materializing anything.
		if kindTagValue == kindTagFile && size > 0 {
			_ = wire.CopyN(io.Discard, structReader{r}, size, nil)
		}
		_ = w.WriteTag(wire.SuccessData)
		_, _ = drainContinuation(w, r)
		return false, err
	}

	switch kindTagValue {
	case kindTagDirectory:
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return false, fmt.Errorf("filedrop: mkdir %s: %w", abs, err)
		}
	case kindTagFile:
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return false, fmt.Errorf("filedrop: mkdir %s: %w", filepath.Dir(abs), err)
		}
		f, err := os.Create(abs)
		if err != nil {
			return false, fmt.Errorf("filedrop: create %s: %w", abs, err)
		}
		copyErr := wire.CopyN(f, structReader{r}, size, tick)
		closeErr := f.Close()
		if copyErr != nil {
			return false, copyErr
		}
		if closeErr != nil {
			return false, closeErr
		}
	default:
		return false, fmt.Errorf("filedrop: unknown kind tag %q", kindTagValue)
	}

	if err := w.WriteTag(wire.SuccessData); err != nil {
		return false, err
	}
	return drainContinuation(w, r)
}

func drainContinuation(w *wire.Writer, r *wire.Reader) (bool, error) {
	tag, err := r.ReadTag()
	if err != nil {
		return false, err
	}
	switch tag {
	case wire.MoreData:
		return true, nil
	case wire.Finish:
		return false, nil
	default:
		return false, fmt.Errorf("filedrop: unexpected tag %v after record", tag)
	}
}
