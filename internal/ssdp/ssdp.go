// Package ssdp builds and parses the SSDP datagrams the engine sends and
// receives over UDP multicast/unicast (spec §4.C): M-SEARCH requests and
// their unicast replies, and NOTIFY ssdp:alive/ssdp:byebye announcements.
// The wire templates mirror the fixed-format messages the original's
// Schedule subclasses snprintf by hand; here each is a small builder
// function returning a string, parsed back with the same line-oriented
// scanner idiom the reference Go discovery client uses.
package ssdp

import (
	"bufio"
	"fmt"
	"strings"
)

// MulticastAddr is the standard SSDP multicast group and port.
const MulticastAddr = "239.255.255.250:1900"

// RootDeviceNT is the NT value devices additionally announce alongside
// their device type and UDN (spec §4.C).
const RootDeviceNT = "upnp:rootdevice"

// BuildMSearch renders an M-SEARCH request for searchTarget with the given
// MX (max wait seconds).
func BuildMSearch(searchTarget string, mx int) string {
	return strings.Join([]string{
		"M-SEARCH * HTTP/1.1",
		"HOST: " + MulticastAddr,
		`MAN: "ssdp:discover"`,
		fmt.Sprintf("MX: %d", mx),
		"ST: " + searchTarget,
		"", "",
	}, "\r\n")
}

// BuildMSearchReply renders the unicast 200 OK a device sends back to an
// M-SEARCH requester.
func BuildMSearchReply(maxAge int, location, searchTarget, usn string) string {
	return strings.Join([]string{
		"HTTP/1.1 200 OK",
		fmt.Sprintf("CACHE-CONTROL: max-age = %d", maxAge),
		"LOCATION: " + location,
		"ST: " + searchTarget,
		"USN: " + usn,
		"", "",
	}, "\r\n")
}

// BuildNotifyAlive renders an ssdp:alive NOTIFY announcement.
func BuildNotifyAlive(maxAge int, location, nt, usn string) string {
	return strings.Join([]string{
		"NOTIFY * HTTP/1.1",
		"HOST: " + MulticastAddr,
		fmt.Sprintf("CACHE-CONTROL: max-age = %d", maxAge),
		"LOCATION: " + location,
		"NT: " + nt,
		"NTS: ssdp:alive",
		"USN: " + usn,
		"", "",
	}, "\r\n")
}

// BuildNotifyByebye renders an ssdp:byebye NOTIFY announcement. Byebye
// carries no LOCATION (the device is going away).
func BuildNotifyByebye(nt, usn string) string {
	return strings.Join([]string{
		"NOTIFY * HTTP/1.1",
		"HOST: " + MulticastAddr,
		"NT: " + nt,
		"NTS: ssdp:byebye",
		"USN: " + usn,
		"", "",
	}, "\r\n")
}

// Message is a parsed SSDP datagram: the request/status line plus its
// header set, keyed case-insensitively (headers are folded to upper-case on
// read, matching the original's header comparisons).
type Message struct {
	StartLine string
	Headers   map[string]string
}

// Get returns a header value by name, case-insensitively.
func (m Message) Get(name string) string {
	return m.Headers[strings.ToUpper(name)]
}

// Parse reads a single SSDP datagram (start line + CRLF-terminated headers,
// no body) into a Message.
func Parse(raw string) Message {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	msg := Message{Headers: make(map[string]string)}

	if scanner.Scan() {
		msg.StartLine = strings.TrimSpace(scanner.Text())
	}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(parts[0]))
		msg.Headers[key] = strings.TrimSpace(parts[1])
	}
	return msg
}

// IsNotify reports whether msg's start line is an SSDP NOTIFY.
func (m Message) IsNotify() bool {
	return strings.HasPrefix(m.StartLine, "NOTIFY")
}

// IsMSearch reports whether msg's start line is an SSDP M-SEARCH.
func (m Message) IsMSearch() bool {
	return strings.HasPrefix(m.StartLine, "M-SEARCH")
}

// IsSearchReply reports whether msg's start line is an HTTP 200 OK search
// reply.
func (m Message) IsSearchReply() bool {
	return strings.HasPrefix(m.StartLine, "HTTP/1.1 200")
}

// InSameSubnet reports whether peer and local are on the same subnet under
// netmask, all as dotted-quad IPv4 strings (spec §4.C, the discovery-filter
// invariant: DLNA_DISCOVERY_NETMASK gates which M-SEARCH requesters get a
// reply).
func InSameSubnet(local, peer, netmask string) bool {
	l := splitOctets(local)
	p := splitOctets(peer)
	m := splitOctets(netmask)
	if l == nil || p == nil || m == nil {
		return true // no usable netmask configured: don't filter
	}
	for i := 0; i < 4; i++ {
		if l[i]&m[i] != p[i]&m[i] {
			return false
		}
	}
	return true
}

func splitOctets(addr string) []byte {
	parts := strings.Split(addr, ".")
	if len(parts) != 4 {
		return nil
	}
	out := make([]byte, 4)
	for i, p := range parts {
		var n int
		if _, err := fmt.Sscanf(p, "%d", &n); err != nil || n < 0 || n > 255 {
			return nil
		}
		out[i] = byte(n)
	}
	return out
}
