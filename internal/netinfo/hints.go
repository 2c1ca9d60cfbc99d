package netinfo

import (
	"net"
	"strings"

	"github.com/netlens/netlens/pkg/errors"
	"github.com/netlens/netlens/pkg/types"
)

// InterfaceHints derives coarse connection hints from the default network
// interface name. It only classifies the link type; effective type and
// downlink need a capability this environment does not expose.
type InterfaceHints struct{}

func (InterfaceHints) Hints() (types.ConnectionHints, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return types.ConnectionHints{}, errors.ErrCapabilityUnavailable("connection information")
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		return types.ConnectionHints{Type: classifyInterface(iface.Name)}, nil
	}
	return types.ConnectionHints{}, errors.ErrCapabilityUnavailable("connection information")
}

func classifyInterface(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "wl"), strings.Contains(lower, "wifi"), strings.Contains(lower, "wlan"):
		return "wifi"
	case strings.HasPrefix(lower, "en"), strings.HasPrefix(lower, "eth"):
		return "ethernet"
	case strings.HasPrefix(lower, "ww"), strings.Contains(lower, "cell"):
		return "cellular"
	default:
		return "unknown"
	}
}

// StaticHints is a fixed capability, used when hint values are supplied
// externally (tests, embedding environments).
type StaticHints struct {
	Values types.ConnectionHints
}

func (s StaticHints) Hints() (types.ConnectionHints, error) {
	return s.Values, nil
}

// NoHints models an environment with no connection-information capability.
type NoHints struct{}

func (NoHints) Hints() (types.ConnectionHints, error) {
	return types.ConnectionHints{}, errors.ErrCapabilityUnavailable("connection information")
}
