package domain

import (
	"net"
	"net/url"
	"strconv"
)

// EndpointAddress is the resolved target of one streaming subscription attempt.
type EndpointAddress struct {
	Scheme string `json:"scheme"` // "ws" | "wss"
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Path   string `json:"path"`
}

// HostPort returns host:port suitable for dialing.
func (a EndpointAddress) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

func (a EndpointAddress) URL() string {
	u := url.URL{Scheme: a.Scheme, Host: a.HostPort(), Path: a.Path}
	return u.String()
}

