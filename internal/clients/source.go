package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/amaumene/syllabus-merge/internal/domain"
	log "github.com/sirupsen/logrus"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBytes     = 32 << 20
	defaultUserAgent    = "syllabus-merge/1.0"
)

// SourceConfig bounds a single fetch.
type SourceConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// SourceClient downloads source documents over HTTP.
type SourceClient struct {
	cfg        SourceConfig
	httpClient *http.Client
}

// NewSourceClient returns a client using httpClient, or a pooled default
// client when httpClient is nil. Zero config values fall back to defaults.
func NewSourceClient(cfg SourceConfig, httpClient *http.Client) *SourceClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &SourceClient{cfg: cfg, httpClient: httpClient}
}

// Fetch performs a GET on rawURL and returns the body. A non-2xx status
// yields a SourceFetchError carrying that status.
func (c *SourceClient) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.SourceFetchError{Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.SourceFetchError{StatusCode: resp.StatusCode}
	}

	if resp.ContentLength > c.cfg.MaxBytes {
		return nil, &domain.SourceFetchError{Err: fmt.Errorf("document is %d bytes, limit is %d", resp.ContentLength, c.cfg.MaxBytes)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBytes+1))
	if err != nil {
		return nil, c.transportError(ctx, fmt.Errorf("reading response body: %w", err))
	}
	if int64(len(body)) > c.cfg.MaxBytes {
		return nil, &domain.SourceFetchError{Err: fmt.Errorf("document exceeds %d bytes", c.cfg.MaxBytes)}
	}

	log.WithFields(log.Fields{
		"component": "source",
		"url":       rawURL,
		"status":    resp.StatusCode,
		"bytes":     len(body),
		"duration":  time.Since(start),
	}).Debug("fetched source document")

	return body, nil
}

func (c *SourceClient) transportError(ctx context.Context, err error) error {
	var netErr net.Error
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())
	return &domain.SourceFetchError{Timeout: timedOut, Err: err}
}
