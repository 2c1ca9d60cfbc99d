// Package netinfo sequences the independent lookups behind the network
// information panel: local address, connection hints, public IP, geolocation
// and a derived quality band. Each step is best-effort; a failed lookup
// degrades its own fields and never blanks the ones populated before it.
package netinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/netlens/netlens/internal/config"
	"github.com/netlens/netlens/internal/logging"
	"github.com/netlens/netlens/internal/notify"
	"github.com/netlens/netlens/internal/probe"
	"github.com/netlens/netlens/pkg/diagnostic"
	"github.com/netlens/netlens/pkg/errors"
	"github.com/netlens/netlens/pkg/types"
)

type Aggregator struct {
	client   *probe.Client
	cfg      *config.Config
	hints    types.HintsProvider
	notifier *notify.Notifier
}

func NewAggregator(client *probe.Client, cfg *config.Config, hints types.HintsProvider, notifier *notify.Notifier) *Aggregator {
	return &Aggregator{
		client:   client,
		cfg:      cfg,
		hints:    hints,
		notifier: notifier,
	}
}

// Gather runs every lookup in sequence and merges the results into a
// display-ready record. It never fails outright: each sub-step's failure is
// isolated, and at most one aggregate error notification is emitted.
func (a *Aggregator) Gather(ctx context.Context) *types.NetworkInfo {
	info := types.NewNetworkInfo()
	var firstErr error

	a.gatherLocalAddress(ctx, info)

	hints, hintsOK := a.gatherHints(info)

	if err := a.gatherPublicIP(ctx, info); err != nil {
		firstErr = err
		info.PublicIP = types.FieldLoadingError
		info.City = types.FieldLoadingError
		info.Country = types.FieldLoadingError
		info.ISP = types.FieldLoadingError
	} else if err := a.gatherGeo(ctx, info); err != nil {
		firstErr = err
		info.City = types.FieldLoadingError
		info.Country = types.FieldLoadingError
		info.ISP = types.FieldLoadingError
	}

	a.deriveQuality(info, hints, hintsOK)

	if firstErr != nil && a.notifier != nil {
		a.notifier.Error(errors.FriendlyMessage(errors.ErrPartialDegradation("network info", firstErr)))
	}
	return info
}

// gatherLocalAddress runs the connectivity-handshake probe and extracts a
// private IPv4 from the discovered candidate. Timeouts degrade to fixed
// placeholder classifications.
func (a *Aggregator) gatherLocalAddress(ctx context.Context, info *types.NetworkInfo) {
	_, candidate, err := probe.STUNRoundTrip(ctx, a.cfg.STUNServers, a.cfg.LookupTimeout)
	if err != nil {
		logging.Debug("local address probe failed", logging.Field{Key: "error", Value: err})
		info.LocalIP = types.FieldUnableDetect
		return
	}

	if local := types.LocalIPv4(); local != "" {
		info.LocalIP = local
		return
	}
	if extracted := types.ExtractPrivateIPv4(candidate); extracted != "" {
		info.LocalIP = extracted
		return
	}
	info.LocalIP = types.FieldBehindNAT
}

func (a *Aggregator) gatherHints(info *types.NetworkInfo) (types.ConnectionHints, bool) {
	if a.hints == nil {
		return types.ConnectionHints{}, false
	}
	hints, err := a.hints.Hints()
	if err != nil {
		// Capability absence is checked defensively, never surfaced.
		logging.Debug("connection hints unavailable", logging.Field{Key: "error", Value: err})
		return types.ConnectionHints{}, false
	}

	if hints.EffectiveType != "" {
		info.EffectiveType = hints.EffectiveType
	}
	if hints.Type != "" {
		info.ConnectionType = hints.Type
	}
	if hints.DownlinkMbps > 0 {
		info.DownlinkMbps = hints.DownlinkMbps
		info.EstimatedSpeed = fmt.Sprintf("%.1f Mbps (estimated)", hints.DownlinkMbps)
	}
	return hints, true
}

type ipResponse struct {
	IP string `json:"ip"`
}

func (a *Aggregator) gatherPublicIP(ctx context.Context, info *types.NetworkInfo) error {
	resp, err := a.client.Get(ctx, a.cfg.IPLookupURL, a.cfg.LookupTimeout, "public IP lookup")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.ErrHTTPStatus("public IP lookup", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return errors.ErrNetworkUnreachable("public IP lookup", err)
	}
	var parsed ipResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return errors.ErrNetworkUnreachable("public IP lookup", err)
	}
	if parsed.IP == "" {
		return errors.ErrNetworkUnreachable("public IP lookup", fmt.Errorf("empty ip field"))
	}
	info.PublicIP = parsed.IP
	return nil
}

type geoResponse struct {
	City        string `json:"city"`
	CountryName string `json:"country_name"`
	Org         string `json:"org"`
}

func (a *Aggregator) gatherGeo(ctx context.Context, info *types.NetworkInfo) error {
	url := fmt.Sprintf(a.cfg.GeoLookupURL, info.PublicIP)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return errors.ErrNetworkUnreachable("geolocation lookup", err)
	}
	resp, err := a.client.Fetch(ctx, req, a.cfg.LookupTimeout, "geolocation lookup")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.ErrHTTPStatus("geolocation lookup", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return errors.ErrNetworkUnreachable("geolocation lookup", err)
	}
	var parsed geoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return errors.ErrNetworkUnreachable("geolocation lookup", err)
	}

	// Any field may be absent; keep placeholders for missing ones.
	if parsed.City != "" {
		info.City = parsed.City
	}
	if parsed.CountryName != "" {
		info.Country = parsed.CountryName
	}
	if parsed.Org != "" {
		info.ISP = parsed.Org
	}
	return nil
}

func (a *Aggregator) deriveQuality(info *types.NetworkInfo, hints types.ConnectionHints, hintsOK bool) {
	switch {
	case hintsOK && hints.DownlinkMbps > 0:
		info.Quality = diagnostic.QualityFromDownlink(hints.DownlinkMbps)
	case hintsOK && hints.EffectiveType != "":
		info.Quality = diagnostic.QualityFromEffectiveType(hints.EffectiveType)
	default:
		info.Quality = diagnostic.QualityUnknown
	}
}
