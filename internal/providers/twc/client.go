package twc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// API Docs: https://twcservice.mybluemix.net/rest-api/ (Site-based Observations, Current Conditions)
// Sample request: https://api.weather.com/v1/geocode/39.86/-104.67/observations.json?language=en-US&units=e&apiKey=...
const (
	baseURL = "https://api.weather.com/v1"
)

var (
	// ErrMissingAPIKey is returned when no Weather Company API key is configured.
	ErrMissingAPIKey = errors.New("missing TWC API key")

	errMissingMetadata = errors.New("observation response has no metadata")
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewClient(baseAPIURL string, logger *slog.Logger) *Client {
	if baseAPIURL == "" {
		baseAPIURL = baseURL
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseAPIURL,
		logger:     logger.With("component", "twc-client"),
	}
}

// GetObservation fetches the current observation nearest to the given point.
//
// Upstream failures that still carry a JSON body (bad key, no station nearby)
// are returned as a response whose Metadata.StatusCode is not 200; only
// transport and decoding failures are returned as errors.
func (c *Client) GetObservation(ctx context.Context, latitude, longitude float64, apiKey string) (*ObservationResponse, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	u = u.JoinPath("geocode", formatCoordinate(latitude), formatCoordinate(longitude), "observations.json")
	logURL := u.String()

	q := u.Query()
	q.Set("language", "en-US")
	q.Set("units", "e")
	q.Set("apiKey", apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("fetching observation", "url", logURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("failed to fetch observation",
			"latitude", latitude,
			"longitude", longitude,
			"error", err,
		)
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	var apiResp ObservationResponse
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&apiResp); err != nil {
		c.logger.Error("failed to decode observation response",
			"status_code", resp.StatusCode,
			"error", err,
		)
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if apiResp.Metadata == nil {
		return nil, fmt.Errorf("%w (status %d)", errMissingMetadata, resp.StatusCode)
	}

	if apiResp.Metadata.StatusCode == http.StatusOK && apiResp.Observation == nil {
		return nil, errors.New("observation response has status 200 but no observation")
	}

	if apiResp.Metadata.StatusCode != http.StatusOK {
		c.logger.Debug("observation not available",
			"latitude", latitude,
			"longitude", longitude,
			"status_code", apiResp.Metadata.StatusCode,
		)
	}

	return &apiResp, nil
}

// formatCoordinate renders a coordinate with the shortest exact representation.
func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
