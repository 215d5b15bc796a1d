// Package didl renders DIDL-Lite XML fragments for the media items
// returned by ContentDirectory#Browse's Result argument (spec §3's
// MediaItem type, supplemented per SPEC_FULL.md from
// original_source/src/dlna/devices/MediaServer/MediaItem.h, which defines
// the field set but not its wire shape).
package didl

import (
	"bytes"
	"strconv"

	"github.com/tinydlna/dlna-engine-go/internal/model"
	"github.com/tinydlna/dlna-engine-go/internal/xmlstream"
)

// RenderItems wraps items in a <DIDL-Lite> document suitable for a
// Browse/Search reply's Result argument (itself embedded, unescaped, as
// SOAP <Result> text — see internal/soap.BuildResponseEnvelope).
func RenderItems(items []model.MediaItem) string {
	var buf bytes.Buffer
	p := xmlstream.NewPrinter(&buf)
	p.StartTag("", "DIDL-Lite", `xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/"`)
	for _, item := range items {
		renderOne(p, item)
	}
	p.EndTag("", "DIDL-Lite")
	return buf.String()
}

func renderOne(p *xmlstream.Printer, item model.MediaItem) {
	tag := "item"
	if item.IsContainer() {
		tag = "container"
	}

	restricted := "0"
	if item.Restricted {
		restricted = "1"
	}
	parentID := item.ParentID
	if parentID == "" {
		parentID = "0"
	}
	attrs := `id="` + xmlstream.EscapeText(item.ID) + `" parentID="` + xmlstream.EscapeText(parentID) + `" restricted="` + restricted + `"`

	p.StartTag("", tag, attrs)
	p.Leaf("dc", "title", "", xmlstream.EscapeText(item.Title))
	p.Leaf("upnp", "class", "", item.Class.UpnpClass())
	if tag == "item" && item.ResourceURI != "" {
		resAttrs := ""
		if item.MimeType != "" {
			resAttrs = `protocolInfo="http-get:*:` + xmlstream.EscapeText(item.MimeType) + `:*"`
		}
		if item.Size > 0 {
			if resAttrs != "" {
				resAttrs += " "
			}
			resAttrs += `size="` + strconv.FormatInt(item.Size, 10) + `"`
		}
		p.Leaf("", "res", resAttrs, xmlstream.EscapeText(item.ResourceURI))
	}
	p.EndTag("", tag)
}
