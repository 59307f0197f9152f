package address

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Scheme identifies how a resource is retrieved.
type Scheme string

const (
	SchemeHTTP       Scheme = "http"
	SchemeHTTPS      Scheme = "https"
	SchemeFile       Scheme = "file"
	SchemeData       Scheme = "data"
	SchemeViewSource Scheme = "view-source"
)

// Address is a parsed, scheme-tagged URL. file and data addresses carry no
// host or port. A view-source address wraps the address it displays.
type Address struct {
	Scheme   Scheme
	Host     string
	Port     int
	Path     string
	Query    string
	Fragment string

	// MediaType and Payload are set for data: addresses only.
	MediaType string
	Payload   string

	// Inner is the wrapped target of a view-source: address.
	Inner *Address
}

// MalformedURLError reports an unparseable URL.
type MalformedURLError struct {
	URL    string
	Reason string
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed URL %q: %s", e.URL, e.Reason)
}

func malformed(raw, reason string) error {
	return &MalformedURLError{URL: raw, Reason: reason}
}

// DefaultPort returns the default port for a scheme, or 0 when the scheme
// has none.
func DefaultPort(scheme Scheme) int {
	switch scheme {
	case SchemeHTTP:
		return 80
	case SchemeHTTPS:
		return 443
	default:
		return 0
	}
}

// Parse parses a raw URL string into an Address. It fails with
// *MalformedURLError when the scheme is unrecognized or a required
// component is missing.
func Parse(raw string) (Address, error) {
	if rest, ok := strings.CutPrefix(raw, "view-source:"); ok {
		inner, err := Parse(rest)
		if err != nil {
			return Address{}, err
		}
		return Address{Scheme: SchemeViewSource, Inner: &inner}, nil
	}

	if rest, ok := strings.CutPrefix(raw, "data:"); ok {
		mediaType, payload, found := strings.Cut(rest, ",")
		if !found {
			return Address{}, malformed(raw, "data URL missing comma separator")
		}
		return Address{Scheme: SchemeData, MediaType: mediaType, Payload: payload}, nil
	}

	if rest, ok := strings.CutPrefix(raw, "file://"); ok {
		if rest == "" {
			return Address{}, malformed(raw, "file URL missing path")
		}
		return Address{Scheme: SchemeFile, Path: rest}, nil
	}

	var scheme Scheme
	var rest string
	switch {
	case strings.HasPrefix(raw, "http://"):
		scheme, rest = SchemeHTTP, raw[len("http://"):]
	case strings.HasPrefix(raw, "https://"):
		scheme, rest = SchemeHTTPS, raw[len("https://"):]
	default:
		return Address{}, malformed(raw, "unsupported scheme")
	}

	hostport, path, found := strings.Cut(rest, "/")
	if found {
		path = "/" + path
	} else {
		path = "/"
	}

	addr := Address{Scheme: scheme, Path: path, Port: DefaultPort(scheme)}

	if i := strings.Index(addr.Path, "#"); i >= 0 {
		addr.Path, addr.Fragment = addr.Path[:i], addr.Path[i+1:]
	}
	if i := strings.Index(addr.Path, "?"); i >= 0 {
		addr.Path, addr.Query = addr.Path[:i], addr.Path[i+1:]
	}

	if strings.HasPrefix(hostport, "[") {
		// Bracketed IPv6 literal, optionally followed by :port.
		end := strings.Index(hostport, "]")
		if end < 0 {
			return Address{}, malformed(raw, "unterminated IPv6 host")
		}
		addr.Host = hostport[1:end]
		if rest := hostport[end+1:]; rest != "" {
			port, ok := strings.CutPrefix(rest, ":")
			if !ok {
				return Address{}, malformed(raw, "junk after IPv6 host")
			}
			p, err := strconv.Atoi(port)
			if err != nil || p <= 0 || p > 65535 {
				return Address{}, malformed(raw, "invalid port")
			}
			addr.Port = p
		}
	} else if host, port, ok := strings.Cut(hostport, ":"); ok {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return Address{}, malformed(raw, "invalid port")
		}
		addr.Host, addr.Port = host, p
	} else {
		addr.Host = hostport
	}

	if addr.Host == "" {
		return Address{}, malformed(raw, "missing host")
	}

	return addr, nil
}

// String re-serializes the address. Default ports are omitted so that
// parse/serialize round-trips.
func (a Address) String() string {
	switch a.Scheme {
	case SchemeViewSource:
		if a.Inner == nil {
			return "view-source:"
		}
		return "view-source:" + a.Inner.String()
	case SchemeData:
		return "data:" + a.MediaType + "," + a.Payload
	case SchemeFile:
		return "file://" + a.Path
	}

	var b strings.Builder
	b.WriteString(string(a.Scheme))
	b.WriteString("://")
	if strings.Contains(a.Host, ":") {
		b.WriteString("[" + a.Host + "]")
	} else {
		b.WriteString(a.Host)
	}
	if a.Port != 0 && a.Port != DefaultPort(a.Scheme) {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(a.Port))
	}
	b.WriteString(a.Path)
	if a.Query != "" {
		b.WriteString("?")
		b.WriteString(a.Query)
	}
	if a.Fragment != "" {
		b.WriteString("#")
		b.WriteString(a.Fragment)
	}
	return b.String()
}

// HostPort returns the dial target for network schemes.
func (a Address) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Secure reports whether the address uses TLS.
func (a Address) Secure() bool {
	return a.Scheme == SchemeHTTPS
}

// Resolve resolves a reference against the address, per standard URL
// resolution: absolute URLs are taken as-is, scheme-relative references
// inherit the scheme, absolute paths replace the path, and relative paths
// are resolved against the directory of the current path.
func (a Address) Resolve(ref string) (Address, error) {
	if ref == "" {
		return a, nil
	}

	// Absolute reference with a recognized scheme.
	for _, prefix := range []string{"http://", "https://", "file://", "data:", "view-source:"} {
		if strings.HasPrefix(ref, prefix) {
			return Parse(ref)
		}
	}

	// Scheme-relative: //host/path
	if strings.HasPrefix(ref, "//") {
		return Parse(string(a.Scheme) + ":" + ref)
	}

	resolved := a
	resolved.Query = ""
	resolved.Fragment = ""

	if i := strings.Index(ref, "#"); i >= 0 {
		ref, resolved.Fragment = ref[:i], ref[i+1:]
	}
	if i := strings.Index(ref, "?"); i >= 0 {
		ref, resolved.Query = ref[:i], ref[i+1:]
	}

	switch {
	case ref == "":
		resolved.Path = a.Path
	case strings.HasPrefix(ref, "/"):
		resolved.Path = ref
	default:
		base := a.Path
		if i := strings.LastIndex(base, "/"); i >= 0 {
			base = base[:i+1]
		} else {
			base = "/"
		}
		resolved.Path = normalizePath(base + ref)
	}

	return resolved, nil
}

// normalizePath collapses "." and ".." segments. It never escapes the
// root, and a trailing dot segment keeps the trailing slash.
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for i, seg := range segments {
		switch seg {
		case ".", "..":
			if seg == ".." && len(out) > 1 {
				out = out[:len(out)-1]
			}
			if i == len(segments)-1 {
				out = append(out, "")
			}
		default:
			out = append(out, seg)
		}
	}
	joined := strings.Join(out, "/")
	if !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	return joined
}
