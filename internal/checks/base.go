package checks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	"pulsewatch/internal/storage"
)

// upOutcome builds the outcome of a probe that received a response.
func upOutcome(statusCode int, elapsed time.Duration) storage.Outcome {
	code := statusCode
	latency := elapsedMs(elapsed)
	return storage.Outcome{
		IsUp:       statusCode >= 200 && statusCode < 400,
		StatusCode: &code,
		LatencyMs:  &latency,
	}
}

// downOutcome builds the outcome of a probe that never got a response.
func downOutcome(err error, elapsed time.Duration) storage.Outcome {
	msg := describeError(err)
	latency := elapsedMs(elapsed)
	return storage.Outcome{
		IsUp:         false,
		LatencyMs:    &latency,
		ErrorMessage: &msg,
	}
}

func elapsedMs(d time.Duration) int {
	return int(d.Milliseconds())
}

// describeError turns a transport error into a short human-readable message.
// The underlying error text is kept so operators can still see the cause.
func describeError(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout: " + err.Error()
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout: " + err.Error()
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused: " + err.Error()
	case errors.As(err, &dnsErr):
		return fmt.Sprintf("dns lookup failed for %s: %s", dnsErr.Name, dnsErr.Err)
	case strings.Contains(err.Error(), "x509:") || strings.Contains(err.Error(), "tls:"):
		return "tls error: " + err.Error()
	default:
		return err.Error()
	}
}
