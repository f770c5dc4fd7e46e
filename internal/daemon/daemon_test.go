package daemon

import (
	"testing"
	"time"

	"clipsync/internal/clipdata"
	"clipsync/internal/hostclip"
)

func TestClipboardDispatchDeliverClipboardData(t *testing.T) {
	cb := hostclip.StartThread()
	d := ClipboardDispatch{CB: cb}

	data := &clipdata.Data{Items: []clipdata.Item{{Format: clipdata.Text, Payload: []byte("hi")}}}
	if err := d.DeliverClipboardData(data); err != nil {
		t.Fatalf("deliver: %v", err)
	}
}

func TestClipboardDispatchDeliverFilePathsAndImage(t *testing.T) {
	d := ClipboardDispatch{}
	if err := d.DeliverFilePaths([]string{"a", "b"}); err != nil {
		t.Fatalf("deliver file paths: %v", err)
	}
	if err := d.DeliverImage([]byte{0x42, 0x4D}); err != nil {
		t.Fatalf("deliver image: %v", err)
	}
}

func TestLogProgressRoundTrip(t *testing.T) {
	p := LogProgress{Label: "test"}
	h, err := p.Begin(0)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	h.SetMaxTick(10)
	h.Tick(10)
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWatcherSendsOnChange(t *testing.T) {
	cb := hostclip.StartThread()

	// seed the stub with data so a poll finds something to report.
	reply := make(chan hostclip.Resp, 1)
	cb <- hostclip.Req{Kind: hostclip.ReqWrite, WriteData: &clipdata.Data{
		Items: []clipdata.Item{{Format: clipdata.Text, Payload: []byte("x")}},
	}, Resp: reply}
	<-reply

	w := Watcher{CB: cb, Interval: 5 * time.Millisecond}
	stop := make(chan struct{})
	got := make(chan *clipdata.Data, 1)

	go w.Run(stop, func(d *clipdata.Data) { got <- d })

	select {
	case d := <-got:
		if len(d.Items) == 0 {
			t.Fatalf("expected items")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for watcher to report a change")
	}
	close(stop)
}
