// Command dlna-cp is a reference control point: it discovers UPnP devices
// on the local network and prints what it finds. Pass -service/-action flags
// to additionally invoke a single SOAP action against the first matching
// service, exercising internal/controlpoint end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/tinydlna/dlna-engine-go/internal/config"
	"github.com/tinydlna/dlna-engine-go/internal/controlpoint"
	"github.com/tinydlna/dlna-engine-go/internal/model"
	"github.com/tinydlna/dlna-engine-go/internal/registry"
)

func main() {
	searchTarget := flag.String("st", "ssdp:all", "SSDP search target")
	minWait := flag.Duration("min-wait", 1*time.Second, "minimum discovery window")
	maxWait := flag.Duration("max-wait", 5*time.Second, "maximum discovery window")
	serviceType := flag.String("service", "", "serviceType URN to invoke an action against")
	actionName := flag.String("action", "", "action name to invoke (requires -service)")
	flag.Parse()

	cfg := config.Load()
	reg := registry.New(nil)
	mgr := controlpoint.NewManager(reg, cfg, "", log.Default())

	ctx, cancel := context.WithTimeout(context.Background(), *maxWait+2*time.Second)
	defer cancel()

	found, err := mgr.Discover(ctx, *searchTarget, *minWait, *maxWait)
	if err != nil {
		log.Fatalf("dlna-cp: discover: %v", err)
	}
	if !found {
		fmt.Println("no devices found")
		return
	}

	for _, dev := range reg.List() {
		fmt.Printf("%s  %s  %s\n", dev.UDN, dev.FriendlyName, dev.DeviceType)
		for _, svc := range dev.Services {
			fmt.Printf("    %s\n", svc.ServiceType)
		}
	}

	if *serviceType == "" || *actionName == "" {
		return
	}

	if err := invokeOne(ctx, mgr, reg, *serviceType, *actionName); err != nil {
		log.Fatalf("dlna-cp: invoke: %v", err)
	}
}

func invokeOne(ctx context.Context, mgr *controlpoint.Manager, reg *registry.Registry, serviceType, actionName string) error {
	for _, dev := range reg.List() {
		svc := dev.ServiceByType(serviceType)
		if svc == nil {
			continue
		}
		controlURL := svc.ControlURL
		if !strings.HasPrefix(controlURL, "http") {
			controlURL = dev.BaseURL + controlURL
		}

		reply, err := mgr.ExecuteActions(ctx, []model.ActionRequest{
			{ServiceType: serviceType, ControlURL: controlURL, ActionName: actionName},
		})
		if err != nil {
			return err
		}
		for _, arg := range reply.Arguments {
			fmt.Printf("%s = %s\n", arg.Name, arg.Value)
		}
		return nil
	}
	fmt.Fprintf(os.Stderr, "no device exposes service %s\n", serviceType)
	return nil
}
