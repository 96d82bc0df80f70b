package maps

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

	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

const (
	defaultBaseURL              = "https://maps.googleapis.com/maps/api"
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("google maps api key is required")

// Client wraps the Google Distance Matrix API used to estimate delivery distance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Maps API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Google Maps client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Route is the driving distance between two addresses.
type Route struct {
	DistanceMeters  int64
	DurationSeconds int64
}

// DrivingDistance returns the driving route between origin and destination.
func (c *Client) DrivingDistance(ctx context.Context, origin, destination string) (*Route, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin and destination are required")
	}

	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", destination)
	q.Set("mode", "driving")
	q.Set("units", "metric")
	q.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/distancematrix/json?%s", strings.TrimRight(c.baseURL, "/"), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build distance matrix request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute distance matrix request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "distance matrix request failed")
	}

	var apiResp struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Rows         []struct {
			Elements []struct {
				Status   string `json:"status"`
				Distance struct {
					Value int64 `json:"value"`
				} `json:"distance"`
				Duration struct {
					Value int64 `json:"value"`
				} `json:"duration"`
			} `json:"elements"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode distance matrix response")
	}
	if apiResp.Status != "OK" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%s: %s", apiResp.Status, apiResp.ErrorMessage), "distance matrix rejected request")
	}
	if len(apiResp.Rows) == 0 || len(apiResp.Rows[0].Elements) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no route returned")
	}
	element := apiResp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("route lookup status %s", element.Status))
	}

	return &Route{
		DistanceMeters:  element.Distance.Value,
		DurationSeconds: element.Duration.Value,
	}, nil
}
