// Package httpheader implements the GENA/SOAP header conventions the engine
// layers on top of net/http (spec §4.B). The original codec (TinyHttp's
// HttpRequestHeader/HttpReplyHeader) exists because that project has no HTTP
// library to build on; here net/http.Header already is the wire codec, so
// this package is reduced to the UPnP-specific header vocabulary: SID,
// TIMEOUT, CALLBACK, NT/NTS/SEQ, and SOAPACTION.
package httpheader

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Canonical header names used throughout GENA and SOAP exchanges.
const (
	SID        = "SID"
	Timeout    = "TIMEOUT"
	Callback   = "CALLBACK"
	NT         = "NT"
	NTS        = "NTS"
	Seq        = "SEQ"
	SoapAction = "SOAPACTION"

	NTEvent         = "upnp:event"
	NTSPropChange   = "upnp:propchange"
	DefaultTimeoutS = 1800
)

// FormatTimeout renders the "Second-<n>" form GENA uses on both the request
// and the reply (spec §4.F, §4.G).
func FormatTimeout(seconds int) string {
	return fmt.Sprintf("Second-%d", seconds)
}

// ParseTimeout extracts the integer seconds from a "Second-<n>" header
// value, falling back to DefaultTimeoutS on anything malformed (mirrors the
// original's lenient TIMEOUT parsing).
func ParseTimeout(value string) int {
	const prefix = "Second-"
	if !strings.HasPrefix(value, prefix) {
		return DefaultTimeoutS
	}
	n, err := strconv.Atoi(strings.TrimPrefix(value, prefix))
	if err != nil || n <= 0 {
		return DefaultTimeoutS
	}
	return n
}

// FormatCallback wraps a callback URL in the angle brackets GENA requires.
func FormatCallback(url string) string {
	return "<" + url + ">"
}

// ParseCallback strips the angle brackets (and surrounding whitespace) a
// CALLBACK header value carries; multiple bracketed URLs are allowed by the
// spec but this engine only ever sends and expects one.
func ParseCallback(value string) string {
	v := strings.TrimSpace(value)
	v = strings.TrimPrefix(v, "<")
	v = strings.TrimSuffix(v, ">")
	return strings.TrimSpace(v)
}

// FormatSeq renders the event sequence number GENA's SEQ header carries.
func FormatSeq(seq int) string {
	return strconv.Itoa(seq)
}

// ParseSeq parses a SEQ header value, defaulting to 0 on malformed input.
func ParseSeq(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

// IsChunked reports whether h declares a chunked transfer encoding.
func IsChunked(h http.Header) bool {
	return strings.EqualFold(h.Get("Transfer-Encoding"), "chunked")
}

// SoapActionValue renders the quoted SOAPACTION header value for the given
// service type and action name (spec §6: SOAPACTION: "<serviceType>#<action>").
func SoapActionValue(serviceType, action string) string {
	return fmt.Sprintf("%q", serviceType+"#"+action)
}

// ParseSoapAction splits a (possibly quoted) SOAPACTION header value back
// into its service type and action name. ok is false when the value does
// not contain the "#" separator.
func ParseSoapAction(value string) (serviceType, action string, ok bool) {
	v := strings.Trim(value, `"`)
	idx := strings.LastIndex(v, "#")
	if idx < 0 {
		return "", "", false
	}
	return v[:idx], v[idx+1:], true
}
