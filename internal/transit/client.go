// Package transit forwards train and flight lookups to third-party APIs.
// Responses are passed through untouched; nothing is cached or retried.
package transit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotConfigured means the API key for the provider is missing.
	ErrNotConfigured = errors.New("api key not configured")
	// ErrMissingParam means the caller did not supply a required lookup parameter.
	ErrMissingParam = errors.New("missing parameter")
)

// UpstreamError is returned when the provider cannot be reached or answers with a non-2xx status.
type UpstreamError struct {
	Provider   string
	StatusCode int // zero when the request never completed
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s api request failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Config holds provider credentials and endpoints.
type Config struct {
	TrainAPIKey   string
	TrainBaseURL  string
	FlightAPIKey  string
	FlightBaseURL string
	Timeout       time.Duration
}

// Client calls the train and flight providers.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client with the configured timeout.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// TrainStatus fetches the live status of trainNo on date (DD-MM-YYYY).
// The key is embedded in the path, as the provider requires.
func (c *Client) TrainStatus(ctx context.Context, trainNo, date string) (json.RawMessage, error) {
	if c.cfg.TrainAPIKey == "" {
		return nil, fmt.Errorf("train: %w", ErrNotConfigured)
	}
	if trainNo == "" || date == "" {
		return nil, fmt.Errorf("train_no and date are required: %w", ErrMissingParam)
	}

	endpoint := fmt.Sprintf("%s/livetrainstatus/apikey/%s/trainnumber/%s/date/%s/",
		strings.TrimRight(c.cfg.TrainBaseURL, "/"),
		url.PathEscape(c.cfg.TrainAPIKey), url.PathEscape(trainNo), url.PathEscape(date))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, "train")
}

// FlightSummary looks a flight up by its provider id or, failing that, its flight number.
func (c *Client) FlightSummary(ctx context.Context, flightNo, fr24ID string) (json.RawMessage, error) {
	if c.cfg.FlightAPIKey == "" {
		return nil, fmt.Errorf("flight: %w", ErrNotConfigured)
	}

	params := url.Values{}
	switch {
	case fr24ID != "":
		params.Set("flightId", fr24ID)
	case flightNo != "":
		params.Set("query", flightNo)
	default:
		return nil, fmt.Errorf("provide flight_no or fr24_id: %w", ErrMissingParam)
	}

	endpoint := strings.TrimRight(c.cfg.FlightBaseURL, "/") + "/common/v1/flight/list.json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.FlightAPIKey)
	return c.do(req, "flight")
}

func (c *Client) do(req *http.Request, provider string) (json.RawMessage, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &UpstreamError{Provider: provider, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Provider: provider, Err: err}
	}
	if !json.Valid(body) {
		return nil, &UpstreamError{Provider: provider, Err: errors.New("response is not valid JSON")}
	}
	return json.RawMessage(body), nil
}
