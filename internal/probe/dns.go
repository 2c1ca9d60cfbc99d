package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/netlens/netlens/internal/config"
	"github.com/netlens/netlens/internal/logging"
	"github.com/netlens/netlens/pkg/errors"
)

// ResolverTiming is one resolver's independently timed result. A failed
// resolver reports Err without affecting the others.
type ResolverTiming struct {
	Name string  `json:"name"`
	Ms   float64 `json:"ms"`
	Err  string  `json:"error,omitempty"`
}

// TimeResolvers issues a DNS-over-HTTPS query against each resolver in turn,
// purely for timing. Resolvers run sequentially; each is failure-isolated.
func TimeResolvers(ctx context.Context, client *Client, resolvers []config.Resolver, domain, recordType string, timeout time.Duration) []ResolverTiming {
	results := make([]ResolverTiming, 0, len(resolvers))

	for _, resolver := range resolvers {
		timing := ResolverTiming{Name: resolver.Name}

		ms, err := timeResolver(ctx, client, resolver, domain, recordType, timeout)
		if err != nil {
			timing.Err = errors.FriendlyMessage(err)
			logging.Debug("dns timing failed",
				logging.Field{Key: "resolver", Value: resolver.Name},
				logging.Field{Key: "error", Value: err})
		} else {
			timing.Ms = ms
		}
		results = append(results, timing)
	}
	return results
}

func timeResolver(ctx context.Context, client *Client, resolver config.Resolver, domain, recordType string, timeout time.Duration) (float64, error) {
	url := fmt.Sprintf(resolver.URL, domain, recordType)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.ErrNetworkUnreachable("dns timing", err)
	}
	req.Header.Set("Accept", "application/dns-json")

	start := time.Now()
	resp, err := client.Fetch(ctx, req, timeout, "dns timing")
	if err != nil {
		return 0, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, errors.ErrHTTPStatus("dns timing", resp.Status)
	}
	return float64(time.Since(start)) / float64(time.Millisecond), nil
}
