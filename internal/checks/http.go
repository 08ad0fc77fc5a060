package checks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pulsewatch/internal/config"
	"pulsewatch/internal/storage"
)

// maxDrainBytes bounds how much of a response body is read before closing.
const maxDrainBytes = 64 << 10

// HTTPProber performs single HTTP GET probes.
//
// The underlying client and transport are shared across calls so connections
// can be reused; no other state is retained between probes.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// NewHTTPProber creates a prober using the HTTP defaults from cfg.
func NewHTTPProber(cfg config.HTTPDefaultsConfig) *HTTPProber {
	maxRedirects := cfg.MaxRedirects

	client := &http.Client{
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if maxRedirects == 0 {
				return http.ErrUseLastResponse
			}
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &HTTPProber{
		client:    client,
		userAgent: cfg.UserAgent,
	}
}

// Probe issues one GET to target bounded by timeout and classifies the result.
//
// Network failures are reported inside the Outcome, never as an error. Only a
// malformed target URL returns an error, a *storage.ValidationError.
func (h *HTTPProber) Probe(ctx context.Context, target string, timeout time.Duration) (storage.Outcome, error) {
	if err := storage.ValidateTargetURL(target); err != nil {
		return storage.Outcome{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return storage.Outcome{}, storage.NewValidationError("target_url", "malformed: %v", err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return downOutcome(err, time.Since(start)), nil
	}
	defer resp.Body.Close()

	// Drain so the connection can go back to the pool.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return upOutcome(resp.StatusCode, time.Since(start)), nil
}
