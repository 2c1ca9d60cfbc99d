package sampler

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/netlens/netlens/internal/probe"
	"github.com/netlens/netlens/pkg/errors"
	"github.com/netlens/netlens/pkg/types"
)

const payloadCharset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DownloadIterator requests a pseudo-random number of bytes per iteration and
// times the full request plus body read.
type DownloadIterator struct {
	client   *probe.Client
	baseURL  string
	minBytes int
	maxBytes int
	timeout  time.Duration
}

func NewDownloadIterator(client *probe.Client, baseURL string, minBytes, maxBytes int, timeout time.Duration) *DownloadIterator {
	return &DownloadIterator{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		minBytes: minBytes,
		maxBytes: maxBytes,
		timeout:  timeout,
	}
}

func (d *DownloadIterator) Direction() string { return types.DirectionDownload }

func (d *DownloadIterator) Measure(ctx context.Context) (Measurement, error) {
	size := d.minBytes + rand.Intn(d.maxBytes-d.minBytes)
	url := fmt.Sprintf("%s/bytes/%d", d.baseURL, size)

	start := time.Now()
	resp, err := d.client.Get(ctx, url, d.timeout, "download sample")
	if err != nil {
		return Measurement{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Measurement{}, errors.ErrHTTPStatus("download sample", resp.Status)
	}

	n, err := io.Copy(io.Discard, resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return Measurement{}, errors.ErrNetworkUnreachable("download sample", err)
	}
	return Measurement{Bytes: n, Elapsed: elapsed}, nil
}

// UploadIterator POSTs a pseudo-random alphanumeric payload per iteration and
// times the full request/response round trip.
type UploadIterator struct {
	client   *probe.Client
	baseURL  string
	minBytes int
	maxBytes int
	timeout  time.Duration
}

func NewUploadIterator(client *probe.Client, baseURL string, minBytes, maxBytes int, timeout time.Duration) *UploadIterator {
	return &UploadIterator{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		minBytes: minBytes,
		maxBytes: maxBytes,
		timeout:  timeout,
	}
}

func (u *UploadIterator) Direction() string { return types.DirectionUpload }

func (u *UploadIterator) Measure(ctx context.Context) (Measurement, error) {
	size := u.minBytes + rand.Intn(u.maxBytes-u.minBytes)
	payload := randomPayload(size)

	req, err := http.NewRequest(http.MethodPost, u.baseURL+"/post", strings.NewReader(payload))
	if err != nil {
		return Measurement{}, errors.ErrNetworkUnreachable("upload sample", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	start := time.Now()
	resp, err := u.client.Fetch(ctx, req, u.timeout, "upload sample")
	if err != nil {
		return Measurement{}, err
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)
	elapsed := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Measurement{}, errors.ErrHTTPStatus("upload sample", resp.Status)
	}
	return Measurement{Bytes: int64(len(payload)), Elapsed: elapsed}, nil
}

func randomPayload(size int) string {
	b := make([]byte, size)
	for i := range b {
		b[i] = payloadCharset[rand.Intn(len(payloadCharset))]
	}
	return string(b)
}
