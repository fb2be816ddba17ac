package arcgis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// API Docs: https://developers.arcgis.com/rest/users-groups-and-items/item-data.htm
// Sample requests:
// - http://www.arcgis.com/sharing/rest/content/items/{itemId}/data?f=json
// - {layerUrl}?f=json
// - {layerUrl}/query?where=1%3D1&outFields=*&resultRecordCount=50&outSR=4326&f=json
const (
	basePortalURL = "http://www.arcgis.com/sharing/rest"
)

// ErrLayerNotFound is returned when a web map has no usable operational layer at the requested index.
var ErrLayerNotFound = errors.New("operational layer not found")

type Client struct {
	httpClient *http.Client
	portalURL  string
	logger     *slog.Logger
}

// NewClient creates a client for the given portal; an empty portalURL means ArcGIS Online.
func NewClient(portalURL string, logger *slog.Logger) *Client {
	if portalURL == "" {
		portalURL = basePortalURL
	}
	return &Client{
		httpClient: &http.Client{},
		portalURL:  portalURL,
		logger:     logger.With("component", "arcgis-client"),
	}
}

// GetOperationalLayer fetches a web map item's data and returns operationalLayers[layerIndex].
func (c *Client) GetOperationalLayer(ctx context.Context, itemID string, layerIndex int) (*OperationalLayer, error) {
	u, err := url.JoinPath(c.portalURL, "content", "items", itemID, "data")
	if err != nil {
		return nil, fmt.Errorf("failed to build item data URL: %w", err)
	}

	c.logger.Debug("fetching web map item data", "item_id", itemID, "url", u)

	body, err := c.getJSON(ctx, u, url.Values{"f": {"json"}})
	if err != nil {
		c.logger.Error("failed to fetch web map item data", "item_id", itemID, "error", err)
		return nil, err
	}

	raw := gjson.GetBytes(body, "operationalLayers."+strconv.Itoa(layerIndex))
	if !raw.IsObject() {
		return nil, fmt.Errorf("%w: item %s has no layer at index %d", ErrLayerNotFound, itemID, layerIndex)
	}

	var layer OperationalLayer
	if err := json.Unmarshal([]byte(raw.Raw), &layer); err != nil {
		return nil, fmt.Errorf("failed to decode operational layer: %w", err)
	}
	if layer.URL == "" {
		return nil, fmt.Errorf("%w: layer %d of item %s has no url", ErrLayerNotFound, layerIndex, itemID)
	}

	c.logger.Debug("resolved operational layer",
		"item_id", itemID,
		"layer_index", layerIndex,
		"title", layer.Title,
		"url", layer.URL,
	)

	return &layer, nil
}

// GetLayerInfo fetches the service metadata of a feature layer.
func (c *Client) GetLayerInfo(ctx context.Context, layerURL string) (*LayerInfo, error) {
	body, err := c.getJSON(ctx, layerURL, url.Values{"f": {"json"}})
	if err != nil {
		c.logger.Error("failed to fetch layer info", "url", layerURL, "error", err)
		return nil, err
	}

	var info LayerInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode layer info: %w", err)
	}

	return &info, nil
}

// Query runs a feature query against queryURL, normally "{layerUrl}/query".
func (c *Client) Query(ctx context.Context, queryURL string, params QueryParams) (*QueryResponse, error) {
	q := url.Values{}
	q.Set("where", params.Where)
	q.Set("outFields", params.OutFields)
	q.Set("resultRecordCount", strconv.Itoa(params.ResultRecordCount))
	q.Set("outSR", strconv.Itoa(params.OutSR))
	q.Set("f", "json")

	c.logger.Debug("querying features",
		"url", queryURL,
		"where", params.Where,
		"result_record_count", params.ResultRecordCount,
	)

	body, err := c.getJSON(ctx, queryURL, q)
	if err != nil {
		c.logger.Error("failed to query features", "url", queryURL, "error", err)
		return nil, err
	}

	// Keep attribute numbers verbatim instead of widening them to float64
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var apiResp QueryResponse
	if err := dec.Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	c.logger.Debug("successfully queried features", "feature_count", len(apiResp.Features))

	return &apiResp, nil
}

// getJSON issues a GET with the given parameters merged into rawURL's query string.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch returned status %d: %s", resp.StatusCode, string(body))
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON from %s", u.Redacted())
	}

	if e := gjson.GetBytes(body, "error"); e.IsObject() {
		var svcErr ServiceError
		if err := json.Unmarshal([]byte(e.Raw), &svcErr); err != nil {
			return nil, fmt.Errorf("failed to decode error response: %w", err)
		}
		return nil, &svcErr
	}

	return body, nil
}
