package observations

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"twc-observations/internal/providers/arcgis"
	"twc-observations/internal/providers/twc"
)

const (
	// MaxRecordCount caps every feature query
	MaxRecordCount = 50
	// OutSR is WGS84, the only spatial reference GeoJSON allows
	OutSR = 4326

	matchAll = "1=1"
)

// Query is a ready-to-run feature query
type Query struct {
	URI       string
	OutFields string
	Where     string
}

// resolveLayer fetches the web map item and picks the addressed operational layer
func (s *observationService) resolveLayer(ctx context.Context, id LayerID) (*arcgis.OperationalLayer, error) {
	layer, err := s.layers.GetOperationalLayer(ctx, id.ItemID, id.LayerIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve layer %s: %w", id, err)
	}
	return layer, nil
}

// buildQuery derives the query URI, output fields and filter from the layer's service metadata
func (s *observationService) buildQuery(ctx context.Context, layer *arcgis.OperationalLayer) (*Query, error) {
	info, err := s.layers.GetLayerInfo(ctx, layer.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to get layer info: %w", err)
	}

	uri, err := url.JoinPath(layer.URL, "query")
	if err != nil {
		return nil, fmt.Errorf("failed to build query URL: %w", err)
	}

	query := &Query{
		URI:       uri,
		OutFields: outFields(info),
		Where:     whereClause(layer),
	}

	s.logger.Debug("built feature query",
		"uri", query.URI,
		"out_fields", query.OutFields,
		"where", query.Where,
	)

	return query, nil
}

// fetchFeatures runs the query, capped at MaxRecordCount features in WGS84
func (s *observationService) fetchFeatures(ctx context.Context, query *Query) ([]arcgis.Feature, error) {
	resp, err := s.layers.Query(ctx, query.URI, arcgis.QueryParams{
		Where:             query.Where,
		OutFields:         query.OutFields,
		ResultRecordCount: MaxRecordCount,
		OutSR:             OutSR,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	return resp.Features, nil
}

// enrich looks up every feature's observation concurrently and waits for all of them.
// A nil entry means the weather service had no observation (status_code != 200).
// Any lookup error fails the whole batch.
func (s *observationService) enrich(ctx context.Context, features []arcgis.Feature) ([]*twc.ObservationResponse, error) {
	results := make([]*twc.ObservationResponse, len(features))

	var g errgroup.Group
	for i, feature := range features {
		g.Go(func() error {
			if feature.Geometry == nil {
				return fmt.Errorf("feature %d has no geometry", i)
			}

			resp, err := s.weather.GetObservation(ctx, feature.Geometry.Y, feature.Geometry.X, s.apiKey)
			if err != nil {
				return fmt.Errorf("failed to get observation for feature %d: %w", i, err)
			}

			if resp == nil || resp.Metadata == nil || resp.Metadata.StatusCode != http.StatusOK {
				return nil
			}

			resp.Metadata.OriginalAttributes = feature.Attributes
			results[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("weather enrichment failed", "feature_count", len(features), "error", err)
		return nil, fmt.Errorf("failed to enrich features: %w", err)
	}

	return results, nil
}

// outFields lists every field except the object id, comma-joined
func outFields(info *arcgis.LayerInfo) string {
	names := make([]string, 0, len(info.Fields))
	for _, field := range info.Fields {
		if field.Name == info.ObjectIDField || strings.EqualFold(field.Name, "OBJECTID") {
			continue
		}
		names = append(names, field.Name)
	}
	return strings.Join(names, ",")
}

// whereClause returns the layer's definition expression, or a match-all filter
func whereClause(layer *arcgis.OperationalLayer) string {
	if layer.LayerDefinition != nil && layer.LayerDefinition.DefinitionExpression != "" {
		return layer.LayerDefinition.DefinitionExpression
	}
	return matchAll
}
