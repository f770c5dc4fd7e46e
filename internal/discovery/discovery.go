// Package discovery implements the AddressDiscovery collaborator:
// resolving a partner's short discovery id to a host:port pair to dial
// against a small WebSocket rendezvous endpoint, since the core
// transfer protocol itself is plain TCP and has no framing of its own
// for this step.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// record is what the rendezvous endpoint returns for a discovery id.
type record struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// query is what WSDiscoverer sends to the rendezvous endpoint.
type query struct {
	ID string `json:"id"`
}

// WSDiscoverer resolves discovery ids against a small WebSocket
// rendezvous endpoint: dial, send {"id": id}, read back {"host","port"}.
type WSDiscoverer struct {
	// Endpoint is the rendezvous server's ws:// or wss:// URL.
	Endpoint string
}

// Discover implements transfer.AddressDiscovery.
func (d *WSDiscoverer) Discover(ctx context.Context, id string) (string, int, error) {
	conn, _, err := websocket.Dial(ctx, d.Endpoint, nil)
	if err != nil {
		return "", 0, fmt.Errorf("discovery: dial %s: %w", d.Endpoint, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := wsjson.Write(ctx, conn, query{ID: id}); err != nil {
		return "", 0, fmt.Errorf("discovery: write query: %w", err)
	}

	var rec record
	if err := wsjson.Read(ctx, conn, &rec); err != nil {
		return "", 0, fmt.Errorf("discovery: read record: %w", err)
	}
	if rec.Host == "" || rec.Port == 0 {
		return "", 0, fmt.Errorf("discovery: id %q not found", id)
	}
	return rec.Host, rec.Port, nil
}

// marshalQuery returns the JSON encoding of the query WSDiscoverer sends
// for id; it is unexported, so only this package (and its tests) use it.
func marshalQuery(id string) ([]byte, error) {
	return json.Marshal(query{ID: id})
}
