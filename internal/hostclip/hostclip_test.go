//go:build !windows

package hostclip

import (
	"testing"

	"clipsync/internal/clipdata"
)

/*────── stub clipboard for non-Windows ───────────────────────*/
var (
	stubData *clipdata.Data
	stubSeq  uint32
)

// GetSeq increments on every call so a Watcher sees a new value each
// poll, standing in for the kernel's real change counter.
func GetSeq() uint32 {
	stubSeq++
	return stubSeq
}

// StartThread runs the same single-goroutine request loop as the
// Windows build, against the package-level stub state instead of the
// real clipboard.
func StartThread() chan Req {
	ch := make(chan Req)
	go func() {
		for req := range ch {
			switch req.Kind {
			case ReqRead:
				data, err := readSnapshot()
				req.Resp <- Resp{Data: data, Err: err}
			case ReqWrite:
				err := writeSnapshot(req.WriteData)
				req.Resp <- Resp{Err: err}
			}
		}
	}()
	return ch
}

func writeSnapshot(data *clipdata.Data) error {
	stubData = data
	return nil
}

func readSnapshot() (*clipdata.Data, error) {
	return stubData, nil
}

/*────── actual tests ──────────────────────────────────────────*/

func TestReadWriteStub(t *testing.T) {
	want := &clipdata.Data{Items: []clipdata.Item{{
		Format:  clipdata.UnicodeText,
		Payload: mustEncode("hello"),
	}}}

	if err := writeSnapshot(want); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := readSnapshot()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Items) != 1 || string(got.Items[0].Payload) != string(want.Items[0].Payload) {
		t.Fatalf("mismatch: got %+v want %+v", got, want)
	}
}

func TestDibRoundTripsUnderOwnKey(t *testing.T) {
	want := &clipdata.Data{Items: []clipdata.Item{{
		Format:  clipdata.Dib,
		Payload: []byte{0x28, 0, 0, 0},
	}}}
	if err := writeSnapshot(want); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := readSnapshot()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Items[0].Format != clipdata.Dib {
		t.Fatalf("got format %q, want Dib", got.Items[0].Format)
	}
}

func mustEncode(s string) []byte {
	b, err := clipdata.Encode(clipdata.UnicodeText, s)
	if err != nil {
		panic(err)
	}
	return b
}
