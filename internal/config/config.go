package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Resolver is one DNS-over-HTTPS endpoint used for timing probes. URL is a
// template receiving the query name and record type.
type Resolver struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Config struct {
	// Speed test shape.
	TestDuration   time.Duration
	UpdateInterval time.Duration
	PhasePause     time.Duration
	MaxDataPoints  int

	// Sanity bound: computed throughput at or above this (or <= 0) is
	// discarded. Heuristic, not a measured link capability.
	MaxSaneMbps float64

	// Per-iteration transfer size ranges, bytes. Half-open [Min, Max).
	DownloadBytesMin int
	DownloadBytesMax int
	UploadBytesMin   int
	UploadBytesMax   int

	// Timeouts.
	ProbeTimeout  time.Duration
	LookupTimeout time.Duration

	// Latency probe chain.
	ReferenceURL  string
	TinyAssetURL  string
	LatencyTrials int
	TrialPause    time.Duration

	// External collaborators.
	IPLookupURL  string
	GeoLookupURL string // template receiving the public IP
	ProbeBaseURL string // byte-count probe service
	Resolvers    []Resolver
	STUNServers  []string

	// Serve mode.
	Port           string
	BindAddress    string
	AllowedOrigins []string

	// Notifications.
	NoticeDismiss      time.Duration
	NoticeDismissError time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		TestDuration:   10 * time.Second,
		UpdateInterval: 500 * time.Millisecond,
		PhasePause:     500 * time.Millisecond,
		MaxDataPoints:  20,

		MaxSaneMbps: 1000,

		DownloadBytesMin: 50000,
		DownloadBytesMax: 150000,
		UploadBytesMin:   25000,
		UploadBytesMax:   75000,

		ProbeTimeout:  3 * time.Second,
		LookupTimeout: 5 * time.Second,

		ReferenceURL:  "https://www.gstatic.com/generate_204",
		TinyAssetURL:  "https://www.google.com/favicon.ico",
		LatencyTrials: 3,
		TrialPause:    200 * time.Millisecond,

		IPLookupURL:  "https://api.ipify.org?format=json",
		GeoLookupURL: "https://ipapi.co/%s/json/",
		ProbeBaseURL: "https://httpbin.org",
		Resolvers: []Resolver{
			{Name: "Google", URL: "https://dns.google/resolve?name=%s&type=%s"},
			{Name: "Cloudflare", URL: "https://cloudflare-dns.com/dns-query?name=%s&type=%s"},
			{Name: "Quad9", URL: "https://dns.quad9.net:5053/dns-query?name=%s&type=%s"},
		},
		STUNServers: []string{
			"stun.l.google.com:19302",
			"stun1.l.google.com:19302",
		},

		Port:           "8090",
		BindAddress:    "127.0.0.1",
		AllowedOrigins: []string{"*"},

		NoticeDismiss:      4 * time.Second,
		NoticeDismissError: 6 * time.Second,
	}
}

func (c *Config) LoadFromEnv() error {
	if dur := os.Getenv("NETLENS_TEST_DURATION"); dur != "" {
		d, err := time.ParseDuration(dur)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid NETLENS_TEST_DURATION %q: must be a positive duration (e.g. 10s)", dur)
		}
		c.TestDuration = d
	}
	if interval := os.Getenv("NETLENS_UPDATE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid NETLENS_UPDATE_INTERVAL %q: must be a positive duration (e.g. 500ms)", interval)
		}
		c.UpdateInterval = d
	}
	if max := os.Getenv("NETLENS_MAX_DATA_POINTS"); max != "" {
		m, err := strconv.Atoi(max)
		if err != nil || m <= 0 {
			return fmt.Errorf("invalid NETLENS_MAX_DATA_POINTS %q: must be a positive integer", max)
		}
		c.MaxDataPoints = m
	}
	if max := os.Getenv("NETLENS_MAX_SANE_MBPS"); max != "" {
		m, err := strconv.ParseFloat(max, 64)
		if err != nil || m <= 0 {
			return fmt.Errorf("invalid NETLENS_MAX_SANE_MBPS %q: must be a positive number", max)
		}
		c.MaxSaneMbps = m
	}
	if url := os.Getenv("NETLENS_PROBE_BASE_URL"); url != "" {
		c.ProbeBaseURL = url
	}
	if url := os.Getenv("NETLENS_IP_LOOKUP_URL"); url != "" {
		c.IPLookupURL = url
	}
	if url := os.Getenv("NETLENS_GEO_LOOKUP_URL"); url != "" {
		c.GeoLookupURL = url
	}
	if port := os.Getenv("NETLENS_PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid NETLENS_PORT %q: must be a number", port)
		}
		c.Port = port
	}
	if addr := os.Getenv("NETLENS_BIND_ADDRESS"); addr != "" {
		c.BindAddress = addr
	}
	return nil
}

func (c *Config) Validate() error {
	if c.TestDuration <= 0 {
		return fmt.Errorf("test duration must be > 0")
	}
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update interval must be > 0")
	}
	if c.MaxDataPoints <= 0 {
		return fmt.Errorf("max data points must be > 0")
	}
	if c.MaxSaneMbps <= 0 {
		return fmt.Errorf("max sane mbps must be > 0")
	}
	if c.DownloadBytesMin <= 0 || c.DownloadBytesMax <= c.DownloadBytesMin {
		return fmt.Errorf("invalid download size range [%d, %d)", c.DownloadBytesMin, c.DownloadBytesMax)
	}
	if c.UploadBytesMin <= 0 || c.UploadBytesMax <= c.UploadBytesMin {
		return fmt.Errorf("invalid upload size range [%d, %d)", c.UploadBytesMin, c.UploadBytesMax)
	}
	if c.ProbeTimeout <= 0 || c.LookupTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	if c.LatencyTrials <= 0 {
		return fmt.Errorf("latency trials must be > 0")
	}
	if c.ProbeBaseURL == "" {
		return fmt.Errorf("probe base URL cannot be empty")
	}
	if c.IPLookupURL == "" || c.GeoLookupURL == "" {
		return fmt.Errorf("lookup URLs cannot be empty")
	}
	if len(c.Resolvers) == 0 {
		return fmt.Errorf("at least one DNS resolver is required")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port %q: must be 1-65535", c.Port)
	}
	return nil
}
