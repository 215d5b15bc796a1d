package device

import (
	"bytes"
	"strconv"

	"github.com/tinydlna/dlna-engine-go/internal/model"
	"github.com/tinydlna/dlna-engine-go/internal/xmlstream"
)

// renderDescription renders the root device description XML served at the
// device's own DeviceDescriptionURL (spec §6: root/specVersion/URLBase?/
// device{...iconList?,serviceList}), using the incremental printer
// exclusively (spec §4.A), mirroring registry.ParseDescription's field
// set in reverse.
func renderDescription(d *model.DeviceInfo) []byte {
	var buf bytes.Buffer
	p := xmlstream.NewPrinter(&buf)
	p.Declaration()
	p.StartTag("", "root", `xmlns="urn:schemas-upnp-org:device-1-0"`)

	p.StartTag("", "specVersion", "")
	p.Leaf("", "major", "", "1")
	p.Leaf("", "minor", "", "0")
	p.EndTag("", "specVersion")

	if d.BaseURL != "" {
		p.Leaf("", "URLBase", "", xmlstream.EscapeText(d.BaseURL))
	}

	p.StartTag("", "device", "")
	p.Leaf("", "deviceType", "", xmlstream.EscapeText(d.DeviceType))
	p.Leaf("", "friendlyName", "", xmlstream.EscapeText(d.FriendlyName))
	p.Leaf("", "manufacturer", "", xmlstream.EscapeText(d.Manufacturer))
	if d.ManufacturerURL != "" {
		p.Leaf("", "manufacturerURL", "", xmlstream.EscapeText(d.ManufacturerURL))
	}
	if d.ModelDescription != "" {
		p.Leaf("", "modelDescription", "", xmlstream.EscapeText(d.ModelDescription))
	}
	p.Leaf("", "modelName", "", xmlstream.EscapeText(d.ModelName))
	if d.ModelNumber != "" {
		p.Leaf("", "modelNumber", "", xmlstream.EscapeText(d.ModelNumber))
	}
	if d.ModelURL != "" {
		p.Leaf("", "modelURL", "", xmlstream.EscapeText(d.ModelURL))
	}
	p.Leaf("", "serialNumber", "", xmlstream.EscapeText(d.SerialNumber))
	p.Leaf("", "UDN", "", xmlstream.EscapeText(d.UDN))

	if len(d.Icons) > 0 {
		p.StartTag("", "iconList", "")
		for _, icon := range d.Icons {
			p.StartTag("", "icon", "")
			p.Leaf("", "mimetype", "", xmlstream.EscapeText(icon.Mime))
			p.Leaf("", "width", "", strconv.Itoa(icon.Width))
			p.Leaf("", "height", "", strconv.Itoa(icon.Height))
			p.Leaf("", "depth", "", strconv.Itoa(icon.Depth))
			p.Leaf("", "url", "", xmlstream.EscapeText(icon.URL))
			p.EndTag("", "icon")
		}
		p.EndTag("", "iconList")
	}

	p.StartTag("", "serviceList", "")
	for _, svc := range d.Services {
		p.StartTag("", "service", "")
		p.Leaf("", "serviceType", "", xmlstream.EscapeText(svc.ServiceType))
		p.Leaf("", "serviceId", "", xmlstream.EscapeText(svc.ServiceID))
		p.Leaf("", "SCPDURL", "", xmlstream.EscapeText(svc.SCPDURL))
		p.Leaf("", "controlURL", "", xmlstream.EscapeText(svc.ControlURL))
		p.Leaf("", "eventSubURL", "", xmlstream.EscapeText(svc.EventSubURL))
		p.EndTag("", "service")
	}
	p.EndTag("", "serviceList")

	p.EndTag("", "device")
	p.EndTag("", "root")

	return buf.Bytes()
}
