// Package soap implements both directions of SOAP action invocation (spec
// §4.H): the control-point client that builds envelopes and posts them to
// a device's control URL, and the device-side dispatcher that parses an
// incoming envelope and routes it to the matching service's ActionHandler.
package soap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tinydlna/dlna-engine-go/internal/dlnaerr"
	"github.com/tinydlna/dlna-engine-go/internal/httpheader"
	"github.com/tinydlna/dlna-engine-go/internal/model"
	"github.com/tinydlna/dlna-engine-go/internal/xmlstream"
)

// Client issues SOAP action requests to remote device control URLs (spec
// §4.H.4), grounded on the teacher's sonos/soap.Client: pooled
// *http.Client, envelope-build-then-POST-then-parse-or-fault shape.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a Client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// HTTPClient returns the pooled *http.Client backing Invoke, so other
// components that need to issue their own requests against the same
// timeout (e.g. gena.ControlPointManager's SUBSCRIBE/UNSUBSCRIBE) can
// reuse the connection pool instead of opening a second one.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Invoke sends req to its ControlURL and returns the parsed reply, or
// InvalidActionReply (spec §7) on any non-200 response.
func (c *Client) Invoke(ctx context.Context, req model.ActionRequest) (model.ActionReply, error) {
	envelope := BuildEnvelope(req.ServiceType, req.ActionName, req.Arguments)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.ControlURL, bytes.NewReader(envelope))
	if err != nil {
		return model.InvalidActionReply(), dlnaerr.SoapFault(err.Error())
	}
	httpReq.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	httpReq.Header.Set(httpheader.SoapAction, httpheader.SoapActionValue(req.ServiceType, req.ActionName))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.InvalidActionReply(), dlnaerr.SoapFault(fmt.Sprintf("%s: %v", req.ActionName, err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.InvalidActionReply(), dlnaerr.SoapFault(err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		code, desc := ParseFault(payload)
		if code != "" {
			return model.InvalidActionReply(), dlnaerr.SoapFault(fmt.Sprintf("%s: fault %s: %s", req.ActionName, code, desc))
		}
		return model.InvalidActionReply(), dlnaerr.SoapFault(fmt.Sprintf("%s: http %d", req.ActionName, resp.StatusCode))
	}

	args, err := ParseResponse(payload, req.ActionName)
	if err != nil {
		return model.InvalidActionReply(), dlnaerr.New(dlnaerr.CodeSoapInvalidResponse, err.Error(), 0)
	}
	return model.NewActionReply(args...), nil
}

// BuildEnvelope renders a SOAP 1.1 request envelope for action on
// serviceType with the given ordered arguments (spec §4.H.1/§6's
// SOAPACTION convention).
func BuildEnvelope(serviceType, action string, args []model.Argument) []byte {
	var buf bytes.Buffer
	p := xmlstream.NewPrinter(&buf)
	p.Declaration()
	p.StartTag("s", "Envelope", `xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"`)
	p.StartTag("s", "Body", "")
	p.StartTag("u", action, fmt.Sprintf(`xmlns:u="%s"`, serviceType))
	for _, a := range args {
		p.Leaf("", a.Name, "", xmlstream.EscapeText(a.Value))
	}
	p.EndTag("u", action)
	p.EndTag("s", "Body")
	p.EndTag("s", "Envelope")
	return buf.Bytes()
}

// BuildResponseEnvelope renders a SOAP 1.1 response envelope for action's
// <ActionNameResponse> (spec §4.H.2).
func BuildResponseEnvelope(serviceType, action string, args []model.Argument) []byte {
	var buf bytes.Buffer
	p := xmlstream.NewPrinter(&buf)
	p.Declaration()
	p.StartTag("s", "Envelope", `xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"`)
	p.StartTag("s", "Body", "")
	responseTag := action + "Response"
	p.StartTag("u", responseTag, fmt.Sprintf(`xmlns:u="%s"`, serviceType))
	for _, a := range args {
		if a.Name == "Result" {
			// Result carries raw (already-escaped-by-caller) DIDL-Lite and
			// must not be re-escaped (spec §3, §4.H).
			p.StartTag("", "Result", "")
			buf.WriteString(a.Value)
			p.EndTag("", "Result")
			continue
		}
		p.Leaf("", a.Name, "", xmlstream.EscapeText(a.Value))
	}
	p.EndTag("u", responseTag)
	p.EndTag("s", "Body")
	p.EndTag("s", "Envelope")
	return buf.Bytes()
}

// BuildFaultEnvelope renders a SOAP 1.1 UPnPError fault (spec §4.H.3,
// §7).
func BuildFaultEnvelope(errorCode int, errorDescription string) []byte {
	var buf bytes.Buffer
	p := xmlstream.NewPrinter(&buf)
	p.Declaration()
	p.StartTag("s", "Envelope", `xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"`)
	p.StartTag("s", "Body", "")
	p.StartTag("s", "Fault", "")
	p.Leaf("", "faultcode", "", "s:Client")
	p.Leaf("", "faultstring", "", "UPnPError")
	p.StartTag("", "detail", "")
	p.StartTag("", "UPnPError", `xmlns="urn:schemas-upnp-org:control-1-0"`)
	p.Leaf("", "errorCode", "", fmt.Sprintf("%d", errorCode))
	p.Leaf("", "errorDescription", "", xmlstream.EscapeText(errorDescription))
	p.EndTag("", "UPnPError")
	p.EndTag("", "detail")
	p.EndTag("s", "Fault")
	p.EndTag("s", "Body")
	p.EndTag("s", "Envelope")
	return buf.Bytes()
}

// ParseResponse streams a SOAP response envelope and returns its reply
// arguments in document order, skipping the enclosing Envelope/Body/
// ActionNameResponse wrapper.
func ParseResponse(payload []byte, action string) ([]model.Argument, error) {
	return parseEnvelopeArgs(payload, action+"Response")
}

// ParseRequest streams a SOAP request envelope and returns its action
// arguments in document order, skipping the enclosing Envelope/Body/
// action wrapper.
func ParseRequest(payload []byte, action string) ([]model.Argument, error) {
	return parseEnvelopeArgs(payload, action)
}

func parseEnvelopeArgs(payload []byte, wrapperTag string) ([]model.Argument, error) {
	p := xmlstream.NewParser()
	p.Write(payload)

	var args []model.Argument
	for {
		node, path, text, _, ok := p.Parse()
		if !ok {
			break
		}
		if node == "" || node == "Envelope" || node == "Body" || localName(node) == wrapperTag {
			continue
		}
		// An argument's leaf-fold event carries its parent (the wrapper
		// element) as path's last entry; the element's own start-tag event
		// (emitted first, with an always-empty text) instead carries the
		// argument itself there, so this also skips that duplicate.
		if len(path) == 0 || localName(path[len(path)-1]) != wrapperTag {
			continue
		}
		args = append(args, model.Argument{Name: node, Value: text})
	}
	return args, nil
}

// ParseFault extracts the UPnPError errorCode/errorDescription pair from a
// SOAP fault body, if present.
func ParseFault(payload []byte) (code, description string) {
	p := xmlstream.NewParser()
	p.Write(payload)
	for {
		node, _, text, _, ok := p.Parse()
		if !ok {
			break
		}
		switch node {
		case "errorCode":
			code = strings.TrimSpace(text)
		case "errorDescription":
			description = strings.TrimSpace(text)
		}
	}
	return code, description
}

// localName strips a namespace prefix ("u:SetVolume" -> "SetVolume").
func localName(tag string) string {
	if idx := strings.IndexByte(tag, ':'); idx >= 0 {
		return tag[idx+1:]
	}
	return tag
}
