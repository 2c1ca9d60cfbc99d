package netinfo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/netlens/netlens/internal/config"
	"github.com/netlens/netlens/internal/netinfo"
	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/internal/probe"
	"github.com/netlens/netlens/pkg/types"
)

func testConfig(ipURL, geoURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.IPLookupURL = ipURL
	cfg.GeoLookupURL = geoURL
	cfg.STUNServers = nil // keep the local-address probe offline
	cfg.LookupTimeout = 500 * time.Millisecond
	return cfg
}

func TestGatherMergesAllLookups(t *testing.T) {
	ipSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.9"}`))
	}))
	defer ipSrv.Close()

	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"city":"Lisbon","country_name":"Portugal","org":"ExampleNet"}`))
	}))
	defer geoSrv.Close()

	cfg := testConfig(ipSrv.URL, geoSrv.URL+"/%s/json/")
	hints := netinfo.StaticHints{Values: types.ConnectionHints{Type: "wifi", EffectiveType: "4g", DownlinkMbps: 25}}

	agg := netinfo.NewAggregator(probe.NewClient(), cfg, hints, nil)
	info := agg.Gather(context.Background())

	if info.PublicIP != "203.0.113.9" {
		t.Errorf("public IP = %q, want 203.0.113.9", info.PublicIP)
	}
	if info.City != "Lisbon" || info.Country != "Portugal" || info.ISP != "ExampleNet" {
		t.Errorf("geo = %q/%q/%q", info.City, info.Country, info.ISP)
	}
	if info.ConnectionType != "wifi" {
		t.Errorf("connection type = %q, want wifi", info.ConnectionType)
	}
	if info.Quality != "Excellent" {
		t.Errorf("quality = %q, want Excellent (downlink 25)", info.Quality)
	}
	if info.EstimatedSpeed != "25.0 Mbps (estimated)" {
		t.Errorf("estimated speed = %q", info.EstimatedSpeed)
	}
}

func TestGatherGeoFailureKeepsPublicIP(t *testing.T) {
	ipSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.9"}`))
	}))
	defer ipSrv.Close()

	notifier := notify.New(time.Minute, time.Minute)
	defer notifier.Close()

	// Geo endpoint is a closed port: the lookup fails after the IP succeeded.
	cfg := testConfig(ipSrv.URL, "http://127.0.0.1:1/%s/json/")
	agg := netinfo.NewAggregator(probe.NewClient(), cfg, netinfo.NoHints{}, notifier)

	info := agg.Gather(context.Background())

	if info.PublicIP != "203.0.113.9" {
		t.Errorf("public IP = %q, want the successfully fetched 203.0.113.9", info.PublicIP)
	}
	if info.City != types.FieldLoadingError {
		t.Errorf("city = %q, want %q", info.City, types.FieldLoadingError)
	}
	if info.Country != types.FieldLoadingError {
		t.Errorf("country = %q, want %q", info.Country, types.FieldLoadingError)
	}
	if info.ISP != types.FieldLoadingError {
		t.Errorf("isp = %q, want %q", info.ISP, types.FieldLoadingError)
	}

	// Exactly one aggregate notification for the whole degraded gather.
	active := notifier.Active()
	if len(active) != 1 {
		t.Fatalf("notices = %d, want 1", len(active))
	}
	if active[0].Kind != notify.KindError {
		t.Errorf("notice kind = %v, want error", active[0].Kind)
	}
	if active[0].Text != "Some network information could not be loaded." {
		t.Errorf("notice text = %q", active[0].Text)
	}
}

func TestGatherIPFailureDegradesDependentFields(t *testing.T) {
	notifier := notify.New(time.Minute, time.Minute)
	defer notifier.Close()

	cfg := testConfig("http://127.0.0.1:1/", "http://127.0.0.1:1/%s/json/")
	agg := netinfo.NewAggregator(probe.NewClient(), cfg, netinfo.NoHints{}, notifier)

	info := agg.Gather(context.Background())

	for name, got := range map[string]string{
		"public IP": info.PublicIP,
		"city":      info.City,
		"country":   info.Country,
		"isp":       info.ISP,
	} {
		if got != types.FieldLoadingError {
			t.Errorf("%s = %q, want %q", name, got, types.FieldLoadingError)
		}
	}

	if got := len(notifier.Active()); got != 1 {
		t.Errorf("notices = %d, want a single aggregate one", got)
	}
}

func TestGatherWithoutHintsCapability(t *testing.T) {
	ipSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.9"}`))
	}))
	defer ipSrv.Close()
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer geoSrv.Close()

	cfg := testConfig(ipSrv.URL, geoSrv.URL+"/%s/json/")
	agg := netinfo.NewAggregator(probe.NewClient(), cfg, netinfo.NoHints{}, nil)

	info := agg.Gather(context.Background())

	if info.ConnectionType != types.FieldNotAvailable {
		t.Errorf("connection type = %q, want placeholder", info.ConnectionType)
	}
	if info.Quality != "Unknown" {
		t.Errorf("quality = %q, want Unknown", info.Quality)
	}
	// Geo response had no fields; placeholders survive a successful fetch.
	if info.City != types.FieldNotAvailable {
		t.Errorf("city = %q, want placeholder for absent field", info.City)
	}
}

func TestGatherQualityFromEffectiveTypeWhenNoDownlink(t *testing.T) {
	ipSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.9"}`))
	}))
	defer ipSrv.Close()
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer geoSrv.Close()

	cfg := testConfig(ipSrv.URL, geoSrv.URL+"/%s/json/")
	hints := netinfo.StaticHints{Values: types.ConnectionHints{EffectiveType: "3g"}}
	agg := netinfo.NewAggregator(probe.NewClient(), cfg, hints, nil)

	info := agg.Gather(context.Background())

	if info.Quality != "Fair" {
		t.Errorf("quality = %q, want Fair (3g)", info.Quality)
	}
}
