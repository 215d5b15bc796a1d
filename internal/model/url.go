// Package model holds the shared value types passed between the protocol
// engine's components: URLs, device/service descriptors, SOAP action
// payloads, and content-directory media items.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Url is an immutable parsed URL value, deliberately narrower than
// net/url.URL: only the fields the engine actually threads through SSDP
// locations, SCPD/control/event-sub paths, and device description URLs.
type Url struct {
	Protocol string
	Host     string
	Port     int
	Path     string
	root     string
}

// defaultPort mirrors the scheme table in spec §3.
func defaultPort(protocol string) int {
	switch protocol {
	case "http":
		return 80
	case "https":
		return 443
	case "ftp":
		return 21
	default:
		return -1
	}
}

// ParseUrl parses an absolute URL of the form scheme://host[:port][/path].
func ParseUrl(raw string) (Url, error) {
	idx := strings.Index(raw, "://")
	if idx < 0 {
		return Url{}, fmt.Errorf("model: invalid url %q: missing scheme", raw)
	}
	protocol := raw[:idx]
	rest := raw[idx+3:]

	path := "/"
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		path = rest[slash:]
		rest = rest[:slash]
	}

	host := rest
	port := defaultPort(protocol)
	if colon := strings.LastIndexByte(rest, ':'); colon >= 0 {
		host = rest[:colon]
		if p, err := strconv.Atoi(rest[colon+1:]); err == nil {
			port = p
		}
	}

	u := Url{Protocol: protocol, Host: host, Port: port, Path: path}
	u.root = u.Root()
	return u, nil
}

// MustParseUrl is ParseUrl but panics on a malformed input; reserved for
// constant URLs known at construction time (tests, fixtures).
func MustParseUrl(raw string) Url {
	u, err := ParseUrl(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// Root returns "<scheme>://<host>[:<port>]" with the port omitted when it
// equals the scheme's default, e.g. "http://192.168.1.20:44757".
func (u Url) Root() string {
	if u.Port == defaultPort(u.Protocol) || u.Port < 0 {
		return fmt.Sprintf("%s://%s", u.Protocol, u.Host)
	}
	return fmt.Sprintf("%s://%s:%d", u.Protocol, u.Host, u.Port)
}

// String renders the full URL, root + path, normalizing the single slash
// at the join the way the SOAP control-URL builder requires (§4.H.2).
func (u Url) String() string {
	root := u.Root()
	path := u.Path
	if strings.HasSuffix(root, "/") && strings.HasPrefix(path, "/") {
		path = strings.TrimPrefix(path, "/")
	} else if !strings.HasSuffix(root, "/") && !strings.HasPrefix(path, "/") && path != "" {
		path = "/" + path
	}
	return root + path
}

// JoinPath joins base and path into a URL string, normalizing a
// doubled slash at the join to a single slash (spec §4.H.2).
func JoinPath(base, path string) string {
	if base == "" {
		return path
	}
	trimmedBase := strings.TrimSuffix(base, "/")
	if path == "" {
		return trimmedBase
	}
	if strings.HasPrefix(path, "/") {
		return trimmedBase + path
	}
	return trimmedBase + "/" + path
}
