// Command dlna-device runs a reference UPnP MediaRenderer: a device
// description, AVTransport/RenderingControl/ConnectionManager SCPD and
// control endpoints, and SSDP advertisement, wiring internal/device end
// to end. Real media transport logic is out of scope (spec's Non-goals);
// the action handlers here track just enough state to answer the actions
// a control point expects a renderer to support.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tinydlna/dlna-engine-go/internal/config"
	"github.com/tinydlna/dlna-engine-go/internal/device"
)

func main() {
	cfg := config.Load()

	baseURL := envString("DLNA_DEVICE_BASE_URL", "http://192.168.1.50:8200")
	listenAddr := envString("DLNA_DEVICE_LISTEN_ADDR", ":8200")
	udn := envString("DLNA_DEVICE_UDN", "uuid:dlna-engine-renderer-1")
	friendlyName := envString("DLNA_DEVICE_FRIENDLY_NAME", "dlna-engine reference renderer")

	dev := referenceRenderer(udn, friendlyName, baseURL)

	mgr, err := device.NewManager(dev, cfg, log.Default())
	if err != nil {
		log.Fatalf("dlna-device: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Start(ctx, listenAddr); err != nil {
		log.Fatalf("dlna-device: start: %v", err)
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				mgr.Loop(ctx, now)
			}
		}
	}()

	log.Printf("dlna-device: %s listening on %s (%s)", friendlyName, listenAddr, baseURL)
	<-shutdownCh

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := mgr.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		log.Printf("dlna-device: shutdown error: %v", err)
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
