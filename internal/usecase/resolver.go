package usecase

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gridsync-logstream/internal/domain"
)

// DefaultStreamPath is the node's streaming-log WebSocket resource.
const DefaultStreamPath = "/private/logs/v1"

// AddressError reports a base address that cannot be turned into a stream endpoint.
type AddressError struct {
	BaseURL string
	Reason  string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("resolve stream endpoint from %q: %s", e.BaseURL, e.Reason)
}

func (e *AddressError) Unwrap() error { return domain.ErrInvalidAddress }

// ResolveEndpoint maps the node's HTTP(S) base address to its log stream
// endpoint: http becomes ws, https becomes wss, host and port are kept and
// streamPath is appended to whatever path the base already carries.
func ResolveEndpoint(baseURL, streamPath string) (domain.EndpointAddress, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return domain.EndpointAddress{}, &AddressError{BaseURL: baseURL, Reason: "address is empty"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return domain.EndpointAddress{}, &AddressError{BaseURL: baseURL, Reason: err.Error()}
	}
	var scheme string
	defaultPort := 0
	switch strings.ToLower(u.Scheme) {
	case "http":
		scheme, defaultPort = "ws", 80
	case "https":
		scheme, defaultPort = "wss", 443
	default:
		return domain.EndpointAddress{}, &AddressError{BaseURL: baseURL, Reason: "unsupported scheme " + strconv.Quote(u.Scheme)}
	}
	host := u.Hostname()
	if host == "" {
		return domain.EndpointAddress{}, &AddressError{BaseURL: baseURL, Reason: "missing host"}
	}
	port := defaultPort
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return domain.EndpointAddress{}, &AddressError{BaseURL: baseURL, Reason: "invalid port " + strconv.Quote(p)}
		}
		port = n
	}
	if streamPath == "" {
		streamPath = DefaultStreamPath
	}
	path := strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(streamPath, "/")
	return domain.EndpointAddress{Scheme: scheme, Host: host, Port: port, Path: path}, nil
}
