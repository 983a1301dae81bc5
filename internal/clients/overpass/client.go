package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/geo"
)

// DefaultURL is the public Overpass API interpreter endpoint
const DefaultURL = "https://lz4.overpass-api.de/api/interpreter"

// HTTPDoer is the subset of *http.Client used by Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds Overpass API settings
type Config struct {
	URL       string        `koanf:"url"`
	Timeout   time.Duration `koanf:"timeout"` // server side query timeout, also bounds the HTTP call
	Retries   int           `koanf:"retries"`
	Backoff   time.Duration `koanf:"backoff"`
	UserAgent string        `koanf:"user_agent"`
}

// DefaultConfig returns the settings used against the public instance
func DefaultConfig() Config {
	return Config{
		URL:       DefaultURL,
		Timeout:   40 * time.Second,
		Retries:   4,
		Backoff:   200 * time.Millisecond,
		UserAgent: "routeicon/1.0",
	}
}

// StatusError is returned when the Overpass API answers with a non-success
// HTTP status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("overpass API error %d: %s", e.Code, e.Body)
}

// Temporary reports whether the request is worth retrying
func (e *StatusError) Temporary() bool {
	switch e.Code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client provides access to an Overpass API interpreter
type Client struct {
	cfg        Config
	httpClient HTTPDoer
	logger     *zap.SugaredLogger
}

// NewClient creates a new Overpass API client
func NewClient(cfg Config, logger *zap.SugaredLogger) *Client {
	return NewClientWithHTTPDoer(cfg, &http.Client{Timeout: cfg.Timeout + 10*time.Second}, logger)
}

// NewClientWithHTTPDoer creates a client with a custom HTTP doer, for tests
func NewClientWithHTTPDoer(cfg Config, doer HTTPDoer, logger *zap.SugaredLogger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{cfg: cfg, httpClient: doer, logger: logger}
}

// BuildRequestBody joins queries into a single [out:json] Overpass QL program
func (c *Client) BuildRequestBody(queries []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];", int(c.cfg.Timeout.Seconds()))
	for _, q := range queries {
		b.WriteString(q)
	}
	return b.String()
}

// Query runs queries as one Overpass request and decodes the merged result
func (c *Client) Query(ctx context.Context, queries []string) (*Response, error) {
	if len(queries) == 0 {
		return nil, errors.New("no overpass queries")
	}

	body := url.Values{"data": {c.BuildRequestBody(queries)}}.Encode()

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		if c.cfg.UserAgent != "" {
			req.Header.Set("User-Agent", c.cfg.UserAgent)
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	return &response, nil
}

// Load implements the icon geodata loader contract
func (c *Client) Load(ctx context.Context, queries []string, at geo.LatLng) (*Response, error) {
	start := time.Now()
	response, err := c.Query(ctx, queries)
	if err != nil {
		c.logger.Errorw("Overpass query failed", "lat", at.Lat, "lng", at.Lng, "error", err)
		return nil, err
	}

	c.logger.Debugw("Overpass query done",
		"lat", at.Lat,
		"lng", at.Lng,
		"elements", len(response.Elements),
		"duration", time.Since(start))
	return response, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// doWithRetry retries rate limiting, 5xx responses and network errors with
// exponential backoff, stopping on context cancellation
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	backoff := c.cfg.Backoff
	var lastErr error

	for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var se *StatusError
		if errors.As(err, &se) {
			retry = se.Temporary()
		} else {
			var netErr net.Error
			retry = errors.As(err, &netErr)
		}

		if !retry || attempt == c.cfg.Retries {
			return nil, lastErr
		}

		c.logger.Infow("Retrying overpass query", "attempt", attempt, "backoff", backoff, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}
