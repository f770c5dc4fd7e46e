// Package daemon wires concrete, log-based implementations of the
// external collaborators onto the core transfer protocol: a status
// logger, an error logger, a progress logger, a clipboard dispatcher,
// and a local clipboard watcher goroutine.
package daemon

import (
	"log"
	"time"

	"clipsync/internal/clipdata"
	"clipsync/internal/hostclip"
	"clipsync/internal/transfer"
)

var (
	icSend  = "↗"
	icRecv  = "🛰 "
	icLocal = "🖳"
)

func ts() string { return time.Now().Format("15:04:05.000") }

/*────── ConnectStatus ───────────────────────────────────────────*/

// LogStatus logs every connection-state transition at the point it
// happens; a GUI shell would swap this for a tray icon update.
type LogStatus struct{ Label string }

func (s LogStatus) SetStatus(status transfer.Status) {
	log.Printf("%s %s status: %s", ts(), s.Label, status)
}

/*────── ErrorDialog ──────────────────────────────────────────────*/

// LogErrorDialog reports errors to the process log instead of a modal.
type LogErrorDialog struct{ Label string }

func (d LogErrorDialog) ShowError(err error) {
	log.Printf("%s %s error: %v", ts(), d.Label, err)
}

/*────── Progress ──────────────────────────────────────────────*/

// LogProgress logs a one-line summary per transfer instead of a bar.
type LogProgress struct{ Label string }

func (p LogProgress) Begin(mode transfer.ProgressMode) (transfer.ProgressHandle, error) {
	icon := icSend
	if mode == transfer.ProgressReceive {
		icon = icRecv
	}
	return &logHandle{label: p.Label, icon: icon, start: time.Now()}, nil
}

type logHandle struct {
	label string
	icon  string
	start time.Time
	max   int64
	sent  int64
}

func (h *logHandle) SetMaxTick(total int64) { h.max = total }
func (h *logHandle) Tick(delta int64)       { h.sent += delta }
func (h *logHandle) Close() error {
	el := time.Since(h.start).Milliseconds()
	log.Printf("%s %s %s %d/%d bytes (%d ms)", ts(), h.icon, h.label, h.sent, h.max, el)
	return nil
}

/*────── Dispatch ─────────────────────────────────────────────────*/

// ClipboardDispatch forwards received payloads onto the local OS
// clipboard via the hostclip request channel, and logs file-drop and
// image deliveries the watcher has no other sink for.
type ClipboardDispatch struct {
	CB chan<- hostclip.Req
}

func (d ClipboardDispatch) DeliverClipboardData(data *clipdata.Data) error {
	reply := make(chan hostclip.Resp, 1)
	d.CB <- hostclip.Req{Kind: hostclip.ReqWrite, WriteData: data, Resp: reply}
	if err := (<-reply).Err; err != nil {
		return err
	}
	log.Printf("%s %s remote -> clipboard (%d items)", ts(), icRecv, len(data.Items))
	return nil
}

func (d ClipboardDispatch) DeliverFilePaths(paths []string) error {
	log.Printf("%s %s remote -> %d file(s) spooled", ts(), icRecv, len(paths))
	for _, p := range paths {
		log.Printf("%s   %s", ts(), p)
	}
	return nil
}

func (d ClipboardDispatch) DeliverImage(bmp []byte) error {
	log.Printf("%s %s remote -> image (%d bytes BMP)", ts(), icRecv, len(bmp))
	return nil
}

/*────── local clipboard watcher (outbound direction) ─────────────*/

// Watcher polls the cheap kernel sequence counter and pushes a changed
// snapshot to send whenever it advances.
type Watcher struct {
	CB       chan<- hostclip.Req
	Interval time.Duration
}

// Run blocks until stop is closed, calling send with every new local
// clipboard snapshot.
func (w Watcher) Run(stop <-chan struct{}, send func(*clipdata.Data)) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	lastSeq := hostclip.GetSeq()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			seq := hostclip.GetSeq()
			if seq == lastSeq {
				continue
			}
			lastSeq = seq

			reply := make(chan hostclip.Resp, 1)
			w.CB <- hostclip.Req{Kind: hostclip.ReqRead, Resp: reply}
			resp := <-reply
			if resp.Err != nil || resp.Data == nil || len(resp.Data.Items) == 0 {
				continue
			}
			log.Printf("%s %s local clipboard changed (%d items)", ts(), icLocal, len(resp.Data.Items))
			send(resp.Data)
		}
	}
}
