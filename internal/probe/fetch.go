package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/netlens/netlens/pkg/errors"
)

// Client wraps an http.Client with the timeout race every network-touching
// operation goes through.
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	transport := &http.Transport{
		DisableCompression: true,
	}
	return &Client{
		http: &http.Client{Transport: transport},
	}
}

type fetchResult struct {
	resp *http.Response
	err  error
}

// Fetch issues the request and a hard timer concurrently; whichever settles
// first wins. A losing request is abandoned rather than cancelled: it keeps
// running until its own context deadline reaps it, a bounded self-resolving
// leak. The caller owns resp.Body on success.
func (c *Client) Fetch(ctx context.Context, req *http.Request, timeout time.Duration, op string) (*http.Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 2*timeout)
	req = req.WithContext(reqCtx)

	resultCh := make(chan fetchResult, 1)
	go func() {
		resp, err := c.http.Do(req)
		resultCh <- fetchResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-resultCh:
		if result.err != nil {
			cancel()
			if errors.IsContextError(result.err) || reqCtx.Err() != nil {
				return nil, errors.ErrTimeout(op)
			}
			return nil, errors.ErrNetworkUnreachable(op, result.err)
		}
		// Tie body lifetime to the request context: cancel when closed.
		result.resp.Body = &cancelBody{ReadCloser: result.resp.Body, cancel: cancel}
		return result.resp, nil
	case <-timer.C:
		go drainAbandoned(resultCh, cancel)
		return nil, errors.ErrTimeout(op)
	case <-ctx.Done():
		go drainAbandoned(resultCh, cancel)
		return nil, ctx.Err()
	}
}

// Get is the common GET + discard-status fetch used by probes and lookups.
func (c *Client) Get(ctx context.Context, url string, timeout time.Duration, op string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.ErrNetworkUnreachable(op, err)
	}
	return c.Fetch(ctx, req, timeout, op)
}

func drainAbandoned(resultCh <-chan fetchResult, cancel context.CancelFunc) {
	result := <-resultCh
	if result.resp != nil {
		io.Copy(io.Discard, result.resp.Body)
		result.resp.Body.Close()
	}
	cancel()
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
