package parser

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"invoicerecon/internal/domain"
	"invoicerecon/internal/port"
)

const defaultRetryBackoff = 2 * time.Second

// RetryParser retries transient provider failures with exponential
// backoff. Rate limits are returned immediately so a FallbackParser can
// move on to the next provider.
type RetryParser struct {
	inner      port.DocumentParser
	name       string
	maxRetries int
	backoff    time.Duration
	log        logrus.FieldLogger
}

// NewRetryParser wraps inner. A zero backoff selects the default.
func NewRetryParser(inner port.DocumentParser, name string, maxRetries int, backoff time.Duration, log logrus.FieldLogger) *RetryParser {
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryParser{
		inner:      inner,
		name:       name,
		maxRetries: maxRetries,
		backoff:    backoff,
		log:        log.WithField("component", "parser.retry"),
	}
}

func (r *RetryParser) Parse(ctx context.Context, input port.ParseInput) (*port.ParseOutput, error) {
	var err error
	for attempt := 0; ; attempt++ {
		var out *port.ParseOutput
		out, err = r.inner.Parse(ctx, input)
		if err == nil {
			return out, nil
		}
		if attempt >= r.maxRetries || !retryable(err) {
			return nil, err
		}

		wait := r.backoff << attempt
		r.log.WithError(err).WithFields(logrus.Fields{
			"provider": r.name,
			"document": input.DocumentName,
			"attempt":  attempt + 1,
			"wait":     wait.String(),
		}).Info("retrying extraction")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, domain.ErrUnsupportedFileType) || errors.Is(err, ErrBlocked) || errors.Is(err, ErrTruncated) {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	// Transport failures and malformed provider envelopes.
	return true
}
