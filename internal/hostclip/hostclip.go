//go:build windows

// Package hostclip is the Windows OS clipboard binding: it reads the
// local clipboard into a clipdata.Data and writes a received
// clipdata.Data back onto the clipboard, owned by its own goroutine so
// the core transfer packages never touch Win32 directly.
package hostclip

import (
	"runtime"
	"time"
	"unsafe"

	"clipsync/internal/clipdata"

	"golang.org/x/sys/windows"
)

/*────── DLL and procedure loading (LazyDLL) ──────────────────────*/
var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard           = user32.NewProc("OpenClipboard")
	procCloseClipboard          = user32.NewProc("CloseClipboard")
	procEmptyClipboard          = user32.NewProc("EmptyClipboard")
	procSetClipboardData        = user32.NewProc("SetClipboardData")
	procGetClipboardData        = user32.NewProc("GetClipboardData")
	procIsClipboardFormatAvail  = user32.NewProc("IsClipboardFormatAvailable")
	procRegisterClipboardFormatW = user32.NewProc("RegisterClipboardFormatW")
	procGetClipboardSequenceNum = user32.NewProc("GetClipboardSequenceNumber")
	procDragQueryFileW          = user32.NewProc("DragQueryFileW")

	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
	procGlobalSize   = kernel32.NewProc("GlobalSize")
)

const (
	cfText       = 1
	cfDib        = 8
	cfUnicode    = 13
	cfHDrop      = 15
	cfLocale     = 16
	gmemMoveable = 0x0002
)

var (
	fmtRichText uint32
	fmtHTML     uint32
)

func init() {
	fmtRichText = regFormat("Rich Text Format")
	fmtHTML = regFormat("HTML Format")
}

func regFormat(name string) uint32 {
	p, _ := windows.UTF16PtrFromString(name)
	ret, _, _ := procRegisterClipboardFormatW.Call(uintptr(unsafe.Pointer(p)))
	return uint32(ret)
}

/*────── request/response channel, owned by one goroutine ─────────*/

type ReqKind uint8

const (
	ReqRead ReqKind = iota
	ReqWrite
)

type Req struct {
	Kind      ReqKind
	WriteData *clipdata.Data // for ReqWrite
	Resp      chan Resp
}

type Resp struct {
	Data *clipdata.Data
	Err  error
}

// StartThread runs a goroutine that owns the clipboard for the lifetime
// of the process and returns the request channel.
func StartThread() chan<- Req {
	ch := make(chan Req)
	go clipThread(ch)
	return ch
}

func clipThread(in <-chan Req) {
	runtime.LockOSThread()
	for req := range in {
		switch req.Kind {
		case ReqRead:
			data, err := readSnapshot()
			req.Resp <- Resp{Data: data, Err: err}
		case ReqWrite:
			err := writeSnapshot(req.WriteData)
			req.Resp <- Resp{Err: err}
		}
	}
}

/*────── open/close with a busy-retry window ───────────────────────*/

var errClipboardBusy = clipboardBusyError{}

type clipboardBusyError struct{}

func (clipboardBusyError) Error() string { return "hostclip: clipboard busy" }

func openCB() error {
	start := time.Now()
	for {
		if ret, _, _ := procOpenClipboard.Call(0); ret != 0 {
			return nil
		}
		if time.Since(start) > 500*time.Millisecond {
			return errClipboardBusy
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func closeCB() { procCloseClipboard.Call() }

/*────── write: clipdata.Data → clipboard ──────────────────────────*/

func writeSnapshot(data *clipdata.Data) error {
	if err := openCB(); err != nil {
		return err
	}
	defer closeCB()

	procEmptyClipboard.Call()

	for _, it := range data.Items {
		if len(it.Payload) == 0 {
			continue
		}
		switch it.Format {
		case clipdata.UnicodeText:
			if err := putUnicodeText(it.Payload); err != nil {
				return err
			}
		case clipdata.Text:
			if err := putHandle(cfText, it.Payload); err != nil {
				return err
			}
		case clipdata.Dib:
			if err := putHandle(cfDib, it.Payload); err != nil {
				return err
			}
		case clipdata.Locale:
			if err := putHandle(cfLocale, it.Payload); err != nil {
				return err
			}
		case clipdata.RichTextFormat:
			if fmtRichText != 0 {
				if err := putHandle(uintptr(fmtRichText), it.Payload); err != nil {
					return err
				}
			}
		case clipdata.HTMLFormat:
			if fmtHTML != 0 {
				if err := putHandle(uintptr(fmtHTML), it.Payload); err != nil {
					return err
				}
			}
		case clipdata.WaveAudio, clipdata.Bitmap:
			// recognized format, intentionally not written to the clipboard.
		}
	}
	return nil
}

func putUnicodeText(decoded []byte) error {
	v, err := clipdata.Decode(clipdata.UnicodeText, decoded)
	if err != nil {
		return err
	}
	s := v.(string)
	units, _ := windows.UTF16FromString(s)
	size := len(units) * 2
	h := alloc(size)
	p := lock(h)
	copy(unsafe.Slice((*uint16)(p), len(units)), units)
	procGlobalUnlock.Call(h)

	ret, _, _ := procSetClipboardData.Call(cfUnicode, h)
	if ret == 0 {
		return windows.GetLastError()
	}
	return nil
}

func putHandle(format uintptr, payload []byte) error {
	h := hFromBytes(payload)
	ret, _, _ := procSetClipboardData.Call(format, h)
	if ret == 0 {
		return windows.GetLastError()
	}
	return nil
}

/*────── read: clipboard → clipdata.Data ───────────────────────────*/

func readSnapshot() (*clipdata.Data, error) {
	if err := openCB(); err != nil {
		return nil, err
	}
	defer closeCB()

	var data clipdata.Data

	if isAvail(cfUnicode) {
		if it := readUnicodeText(); it != nil {
			data.Items = append(data.Items, *it)
		}
	}
	if isAvail(cfDib) {
		if it := readHandle(cfDib, clipdata.Dib); it != nil {
			data.Items = append(data.Items, *it)
		}
	}
	if isAvail(cfLocale) {
		if it := readHandle(cfLocale, clipdata.Locale); it != nil {
			data.Items = append(data.Items, *it)
		}
	}
	if fmtRichText != 0 && isAvail(uintptr(fmtRichText)) {
		if it := readHandle(uintptr(fmtRichText), clipdata.RichTextFormat); it != nil {
			data.Items = append(data.Items, *it)
		}
	}
	if fmtHTML != 0 && isAvail(uintptr(fmtHTML)) {
		if it := readHandle(uintptr(fmtHTML), clipdata.HTMLFormat); it != nil {
			data.Items = append(data.Items, *it)
		}
	}

	if len(data.Items) == 0 {
		return nil, nil
	}
	return &data, nil
}

func readUnicodeText() *clipdata.Item {
	h, _, _ := procGetClipboardData.Call(cfUnicode)
	if h == 0 {
		return nil
	}
	p := lock(uintptr(h))
	defer procGlobalUnlock.Call(h)

	var units []uint16
	base := (*uint16)(p)
	for i := 0; ; i++ {
		c := *(*uint16)(unsafe.Add(unsafe.Pointer(base), i*2))
		if c == 0 {
			break
		}
		units = append(units, c)
	}
	s := windows.UTF16ToString(units)
	payload, err := clipdata.Encode(clipdata.UnicodeText, s)
	if err != nil {
		return nil
	}
	return &clipdata.Item{Format: clipdata.UnicodeText, Payload: payload}
}

func readHandle(format uintptr, as string) *clipdata.Item {
	h, _, _ := procGetClipboardData.Call(format)
	if h == 0 {
		return nil
	}
	p := lock(uintptr(h))
	defer procGlobalUnlock.Call(h)

	size := globalSize(uintptr(h))
	raw := make([]byte, size)
	copy(raw, unsafe.Slice((*byte)(p), size))

	return &clipdata.Item{Format: as, Payload: raw}
}

/*────── file-drop list (CF_HDROP) ──────────────────────────────────*/

// ReadFileDropList returns the paths dropped on the clipboard via
// CF_HDROP, using DragQueryFileW the way Explorer's own copy does.
func ReadFileDropList() ([]string, error) {
	if err := openCB(); err != nil {
		return nil, err
	}
	defer closeCB()

	if !isAvail(cfHDrop) {
		return nil, nil
	}
	h, _, _ := procGetClipboardData.Call(cfHDrop)
	if h == 0 {
		return nil, nil
	}

	count, _, _ := procDragQueryFileW.Call(h, 0xFFFFFFFF, 0, 0)
	paths := make([]string, 0, count)
	for i := uintptr(0); i < count; i++ {
		n, _, _ := procDragQueryFileW.Call(h, i, 0, 0)
		buf := make([]uint16, n+1)
		procDragQueryFileW.Call(h, i, uintptr(unsafe.Pointer(&buf[0])), n+1)
		paths = append(paths, windows.UTF16ToString(buf))
	}
	return paths, nil
}

/*────── helpers ─────────────────────────────────────────────────*/

func isAvail(format uintptr) bool {
	ret, _, _ := procIsClipboardFormatAvail.Call(format)
	return ret != 0
}

func alloc(size int) uintptr {
	h, _, _ := procGlobalAlloc.Call(gmemMoveable, uintptr(size))
	return h
}

func lock(h uintptr) unsafe.Pointer {
	p, _, _ := procGlobalLock.Call(h)
	return unsafe.Pointer(p)
}

func hFromBytes(data []byte) uintptr {
	h := alloc(len(data))
	p := lock(h)
	copy(unsafe.Slice((*byte)(p), len(data)), data)
	procGlobalUnlock.Call(h)
	return h
}

func globalSize(h uintptr) int {
	ret, _, _ := procGlobalSize.Call(h)
	return int(ret)
}

// GetSeq returns the cheap kernel clipboard-sequence counter, used by
// callers to poll for changes without opening the clipboard.
func GetSeq() uint32 {
	seq, _, _ := procGetClipboardSequenceNum.Call()
	return uint32(seq)
}
