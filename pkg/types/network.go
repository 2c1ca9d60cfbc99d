package types

import (
	"net"
	"regexp"
	"strings"
)

// Placeholder strings for fields a lookup could not populate.
const (
	FieldNotAvailable = "not available"
	FieldUnableDetect = "unable to detect"
	FieldBehindNAT    = "behind NAT/firewall"
	FieldLoadingError = "loading error"
)

// NetworkInfo is the display-ready record the network-info aggregation
// produces. Every field is best-effort; a failed lookup leaves its
// placeholder rather than blanking fields populated earlier.
type NetworkInfo struct {
	LocalIP  string `json:"local_ip"`
	PublicIP string `json:"public_ip"`
	City     string `json:"city"`
	Country  string `json:"country"`
	ISP      string `json:"isp"`

	ConnectionType string  `json:"connection_type"`
	EffectiveType  string  `json:"effective_type"`
	DownlinkMbps   float64 `json:"downlink_mbps"`
	EstimatedSpeed string  `json:"estimated_speed"`
	Quality        string  `json:"quality"`
}

func NewNetworkInfo() *NetworkInfo {
	return &NetworkInfo{
		LocalIP:        FieldUnableDetect,
		PublicIP:       FieldUnableDetect,
		City:           FieldNotAvailable,
		Country:        FieldNotAvailable,
		ISP:            FieldNotAvailable,
		ConnectionType: FieldNotAvailable,
		EffectiveType:  FieldNotAvailable,
		EstimatedSpeed: FieldNotAvailable,
		Quality:        "Unknown",
	}
}

// ConnectionHints mirrors the optional connection-information capability some
// environments expose. Consumers must tolerate its complete absence.
type ConnectionHints struct {
	EffectiveType string
	Type          string
	DownlinkMbps  float64
}

// HintsProvider is the optional environment capability. Implementations
// return ErrCapabilityUnavailable-classified errors when the environment
// exposes no connection information.
type HintsProvider interface {
	Hints() (ConnectionHints, error)
}

var ipv4Pattern = regexp.MustCompile(`\b(\d{1,3}(?:\.\d{1,3}){3})\b`)

// ExtractPrivateIPv4 pulls the first IPv4 address out of a candidate string,
// skipping loopback and link-local ranges. Returns "" when none qualifies.
func ExtractPrivateIPv4(candidate string) string {
	for _, match := range ipv4Pattern.FindAllString(candidate, -1) {
		if strings.HasPrefix(match, "127.") || strings.HasPrefix(match, "169.254.") {
			continue
		}
		if net.ParseIP(match) == nil {
			continue
		}
		return match
	}
	return ""
}

// LocalIPv4 returns the first non-loopback IPv4 address of this host.
func LocalIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return ""
}

// StripHostPort removes the port from a host string, handling IPv6 brackets.
func StripHostPort(host string) string {
	if host == "" {
		return host
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	}
	return host
}
