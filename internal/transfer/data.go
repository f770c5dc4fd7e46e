package transfer

import (
	"fmt"

	"clipsync/internal/clipdata"
	"clipsync/internal/dib"
	"clipsync/internal/filedrop"
	"clipsync/internal/wire"
)

// SendData streams a ClipboardData as an i64 total length, then for
// each item a (format, size, payload) round, separated by MoreData and
// terminated by Finish. The file-drop sentinel gets no special
// treatment here: an item with that format is sent like any other.
// File-drop lists are sent with SendFileDropRoots.
func SendData(w *wire.Writer, r *wire.Reader, data *clipdata.Data, progress ProgressHandle) error {
	if err := data.Validate(); err != nil {
		return err
	}
	if progress == nil {
		progress = noopProgressHandle{}
	}
	progress.SetMaxTick(data.TotalLen())

	if err := w.WriteInt64(data.TotalLen()); err != nil {
		return fmt.Errorf("transfer: write size: %w", err)
	}
	if err := expectTag(r, wire.SuccessSize, ErrUnsupportedSize); err != nil {
		return err
	}

	for i, item := range data.Items {
		if err := w.WriteString(item.Format); err != nil {
			return fmt.Errorf("transfer: write format: %w", err)
		}
		if err := expectTag(r, wire.SuccessFormat, ErrUnsupportedFormat); err != nil {
			return err
		}

		size := int64(len(item.Payload))
		if err := w.WriteInt64(size); err != nil {
			return fmt.Errorf("transfer: write item size: %w", err)
		}
		if err := expectTag(r, wire.SuccessSize, ErrUnsupportedSize); err != nil {
			return err
		}

		if err := wire.CopyN(writerAdapter{w}, item.NewReader(), size, func(n int) { progress.Tick(int64(n)) }); err != nil {
			return err
		}
		if err := expectTag(r, wire.SuccessData, ErrTransferFailed); err != nil {
			return err
		}

		if i < len(data.Items)-1 {
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

// SendFileDropRoots streams a file-drop list: the total content length,
// a single format frame carrying the FileDrop sentinel, then the
// walked entries.
func SendFileDropRoots(w *wire.Writer, r *wire.Reader, roots []string, progress ProgressHandle) error {
	if progress == nil {
		progress = noopProgressHandle{}
	}
	entries, err := filedrop.Walk(roots)
	if err != nil {
		return err
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	progress.SetMaxTick(total)

	if err := w.WriteInt64(total); err != nil {
		return fmt.Errorf("transfer: write size: %w", err)
	}
	if err := expectTag(r, wire.SuccessSize, ErrUnsupportedSize); err != nil {
		return err
	}

	if err := w.WriteString(clipdata.FileDropSentinel); err != nil {
		return fmt.Errorf("transfer: write format: %w", err)
	}
	if err := expectTag(r, wire.SuccessFormat, ErrUnsupportedFormat); err != nil {
		return err
	}

	return filedrop.Send(w, r, roots, func(n int) { progress.Tick(int64(n)) })
}

// SendPing writes a zero-length size frame and waits for the single
// acknowledgment, keeping the connection warm without touching Dispatch.
func SendPing(w *wire.Writer, r *wire.Reader) error {
	if err := w.WriteInt64(0); err != nil {
		return fmt.Errorf("transfer: write ping: %w", err)
	}
	return expectTag(r, wire.SuccessSize, ErrUnsupportedSize)
}

// RecvSession reads one (size, format..., payload...) session off r,
// acknowledging every frame on w, and dispatches the assembled object.
// A zero-length size with no further frames is a ping and is swallowed
// silently.
func RecvSession(w *wire.Writer, r *wire.Reader, dispatch Dispatch, progress Progress) error {
	total, err := r.ReadInt64()
	if err != nil {
		return fmt.Errorf("transfer: read size: %w", err)
	}
	if err := w.WriteTag(wire.SuccessSize); err != nil {
		return fmt.Errorf("transfer: write success size: %w", err)
	}
	if total == 0 {
		return nil // ping
	}

	if progress == nil {
		progress = NoopProgress{}
	}
	handle, err := progress.Begin(ProgressReceive)
	if err != nil {
		return err
	}
	defer handle.Close()
	handle.SetMaxTick(total)

	format, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("transfer: read format: %w", err)
	}
	if err := w.WriteTag(wire.SuccessFormat); err != nil {
		return fmt.Errorf("transfer: write success format: %w", err)
	}

	if format == clipdata.FileDropSentinel {
		return recvFileDrop(w, r, dispatch, handle)
	}
	return recvClipboardItems(w, r, dispatch, handle, format)
}

func recvClipboardItems(w *wire.Writer, r *wire.Reader, dispatch Dispatch, handle ProgressHandle, firstFormat string) error {
	var data clipdata.Data
	format := firstFormat
	for {
		size, err := r.ReadInt64()
		if err != nil {
			return fmt.Errorf("transfer: read item size: %w", err)
		}
		if err := w.WriteTag(wire.SuccessSize); err != nil {
			return fmt.Errorf("transfer: write success size: %w", err)
		}

		payload := make([]byte, size)
		if size > 0 {
			if err := wire.CopyN(&sliceWriter{payload}, structReader{r}, size, func(n int) { handle.Tick(int64(n)) }); err != nil {
				return err
			}
		}
		if err := w.WriteTag(wire.SuccessData); err != nil {
			return fmt.Errorf("transfer: write success data: %w", err)
		}
		data.Items = append(data.Items, clipdata.Item{Format: format, Payload: payload})

		tag, err := r.ReadTag()
		if err != nil {
			return fmt.Errorf("transfer: read continuation: %w", err)
		}
		if tag == wire.Finish {
			break
		}
		if tag != wire.MoreData {
			return fmt.Errorf("transfer: unexpected continuation tag %v", tag)
		}

		format, err = r.ReadString()
		if err != nil {
			return fmt.Errorf("transfer: read format: %w", err)
		}
		if err := w.WriteTag(wire.SuccessFormat); err != nil {
			return fmt.Errorf("transfer: write success format: %w", err)
		}
	}
	if err := dispatch.DeliverClipboardData(&data); err != nil {
		return err
	}
	for _, item := range data.Items {
		if item.Format != clipdata.Dib || len(item.Payload) == 0 {
			continue
		}
		bmp, err := dib.ToBMPBytes(item.Payload)
		if err != nil {
			// the items were already delivered; the conversion failure
			// is still returned so the session reports it.
			return fmt.Errorf("transfer: convert Dib item: %w", err)
		}
		if err := dispatch.DeliverImage(bmp); err != nil {
			return err
		}
		break
	}
	return nil
}

func recvFileDrop(w *wire.Writer, r *wire.Reader, dispatch Dispatch, handle ProgressHandle) error {
	spoolDir, err := filedrop.PrepareSpool()
	if err != nil {
		return err
	}

	for {
		kindTagValue, err := r.ReadString()
		if err != nil {
			return fmt.Errorf("transfer: read kind tag: %w", err)
		}
		if err := w.WriteTag(wire.SuccessFormat); err != nil {
			return fmt.Errorf("transfer: write success format: %w", err)
		}

		more, err := filedrop.ReceiveEntry(w, r, spoolDir, kindTagValue, func(n int) { handle.Tick(int64(n)) })
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	paths, err := filedrop.EnumerateSpool(spoolDir)
	if err != nil {
		return err
	}
	return dispatch.DeliverFilePaths(paths)
}

/*────── small adapters ─────────────────────────────────────────*/

type writerAdapter struct{ w *wire.Writer }

func (a writerAdapter) Write(p []byte) (int, error) {
	if err := a.w.WriteExact(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

type structReader struct{ r *wire.Reader }

func (s structReader) Read(p []byte) (int, error) {
	if err := s.r.ReadExact(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

type sliceWriter struct{ buf []byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	n := copy(s.buf, p)
	s.buf = s.buf[n:]
	return n, nil
}

func expectTag(r *wire.Reader, want wire.Tag, onMismatch error) error {
	tag, err := r.ReadTag()
	if err != nil {
		return err
	}
	if tag != want {
		return onMismatch
	}
	return nil
}
