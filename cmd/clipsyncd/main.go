// Command clipsyncd runs one side of a clipsync pair: it listens for an
// inbound connection from the partner while also pushing local clipboard
// changes out to it, running the server and a clipboard watcher side by
// side.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"time"

	"clipsync/internal/clipdata"
	"clipsync/internal/config"
	"clipsync/internal/daemon"
	"clipsync/internal/discovery"
	"clipsync/internal/hostclip"
	"clipsync/internal/transfer"
)

func main() {
	configPath := flag.String("config", "clipsync.yaml", "path to config file")
	listen := flag.String("listen", "", "override the configured listen address")
	partner := flag.String("partner", "", "override the configured partner address or discovery id")
	discoveryEndpoint := flag.String("discovery", "", "ws(s):// rendezvous endpoint, required if partner is a bare id")
	poll := flag.Duration("poll", 200*time.Millisecond, "local clipboard poll interval")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *listen != "" {
		cfg.HostAddress = *listen
	}
	if *partner != "" {
		cfg.PartnerAddress = *partner
	}

	var disc transfer.AddressDiscovery
	if *discoveryEndpoint != "" {
		disc = &discovery.WSDiscoverer{Endpoint: *discoveryEndpoint}
	}

	cb := hostclip.StartThread()

	client := transfer.NewClient(cfg.PartnerAddress, disc)
	client.Progress = daemon.LogProgress{Label: "send"}
	client.Status = daemon.LogStatus{Label: "client"}
	client.ErrorDialog = daemon.LogErrorDialog{Label: "client"}
	client.Start()
	defer client.Stop()

	server := &transfer.Server{
		Dispatch:    daemon.ClipboardDispatch{CB: cb},
		Progress:    daemon.LogProgress{Label: "recv"},
		Status:      daemon.LogStatus{Label: "server"},
		ErrorDialog: daemon.LogErrorDialog{Label: "server"},
	}

	ln, err := net.Listen("tcp", cfg.HostAddress)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.HostAddress, err)
	}
	log.Printf("clipsyncd listening on %s, partner=%s", cfg.HostAddress, cfg.PartnerAddress)

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ctx, ln) }()

	watcher := daemon.Watcher{CB: cb, Interval: *poll}
	stopWatch := make(chan struct{})
	go watcher.Run(stopWatch, func(data *clipdata.Data) {
		sendCtx, sendCancel := context.WithTimeout(ctx, 30*time.Second)
		defer sendCancel()
		_ = client.SendClipboardData(sendCtx, data)
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	log.Println("shutting down...")
	close(stopWatch)
	cancel()
	server.Stop()
	<-serveErr
}
