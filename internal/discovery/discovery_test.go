package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func TestDiscoverResolvesRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")

		var q query
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := wsjson.Read(ctx, c, &q); err != nil {
			t.Errorf("read query: %v", err)
			return
		}
		if q.ID != "peer01" {
			t.Errorf("got id %q want peer01", q.ID)
		}
		_ = wsjson.Write(ctx, c, record{Host: "10.0.0.5", Port: 4040})
	}))
	defer ts.Close()

	d := &WSDiscoverer{Endpoint: "ws" + ts.URL[4:]}
	host, port, err := d.Discover(context.Background(), "peer01")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if host != "10.0.0.5" || port != 4040 {
		t.Fatalf("got %s:%d", host, port)
	}
}

func TestDiscoverUnknownIDErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		var q query
		_ = wsjson.Read(r.Context(), c, &q)
		_ = wsjson.Write(r.Context(), c, record{})
	}))
	defer ts.Close()

	d := &WSDiscoverer{Endpoint: "ws" + ts.URL[4:]}
	if _, _, err := d.Discover(context.Background(), "ghost"); err == nil {
		t.Fatalf("expected error for unknown id")
	}
}

func TestMarshalQuery(t *testing.T) {
	b, err := marshalQuery("abc123")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"id":"abc123"}` {
		t.Fatalf("got %s", b)
	}
}
