// Package tts synthesizes narration audio over HTTP.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bft-labs/sketchreel/internal/domain"
	"github.com/bft-labs/sketchreel/internal/ports"
)

// DefaultURL is the StreamElements speech endpoint.
const DefaultURL = "https://api.streamelements.com/kappa/v2/speech"

const (
	defaultAttempts = 3
	maxAudioBytes   = 20 << 20
)

// Config holds client options. Zero fields take their defaults.
type Config struct {
	URL            string
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client implements ports.Narrator against a GET speech endpoint that takes
// voice and text query parameters and returns encoded audio.
type Client struct {
	client ports.HTTPClient
	cfg    Config
	logger ports.Logger
}

// New creates a Client. A nil client uses http.DefaultClient.
func New(client ports.HTTPClient, cfg Config, logger ports.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	return &Client{client: client, cfg: cfg, logger: logger}
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.code, e.body)
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Synthesize returns the encoded narration audio for text. Failures after
// validation wrap domain.ErrResourceUnavailable.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = domain.DefaultVoice
	}
	if err := domain.ValidateNarration(text, voice); err != nil {
		return nil, err
	}

	bo := newBackoff(c.cfg.InitialBackoff, c.cfg.MaxBackoff)
	var lastErr error
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		data, err := c.fetch(ctx, text, voice)
		if err == nil {
			c.logger.Debug("narration synthesized",
				ports.String("voice", voice),
				ports.Int("bytes", len(data)),
				ports.Int("attempt", attempt))
			return data, nil
		}
		lastErr = err
		if !retryable(err) || attempt == c.cfg.Attempts {
			break
		}
		c.logger.Warn("narration request failed, retrying",
			ports.Int("attempt", attempt),
			ports.Duration("backoff", bo.Current()),
			ports.Err(err))
		if !bo.Sleep(ctx) {
			lastErr = ctx.Err()
			break
		}
	}
	return nil, fmt.Errorf("%w: narration: %v", domain.ErrResourceUnavailable, lastErr)
}

func (c *Client) fetch(ctx context.Context, text, voice string) ([]byte, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("voice", voice)
	q.Set("text", text)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "audio/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxAudioBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxAudioBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("empty response")
	}
	return data, nil
}
