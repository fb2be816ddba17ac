package observations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"twc-observations/internal/config"
	"twc-observations/internal/providers/arcgis"
	"twc-observations/internal/providers/twc"
	"twc-observations/internal/timezone"
)

var (
	ErrLayerNotFound = arcgis.ErrLayerNotFound
	ErrMissingAPIKey = twc.ErrMissingAPIKey
)

// LayerProvider reads web maps and feature layers
type LayerProvider interface {
	GetOperationalLayer(ctx context.Context, itemID string, layerIndex int) (*arcgis.OperationalLayer, error)
	GetLayerInfo(ctx context.Context, layerURL string) (*arcgis.LayerInfo, error)
	Query(ctx context.Context, queryURL string, params arcgis.QueryParams) (*arcgis.QueryResponse, error)
}

// ObservationProvider looks up the current weather observation at a point
type ObservationProvider interface {
	GetObservation(ctx context.Context, latitude, longitude float64, apiKey string) (*twc.ObservationResponse, error)
}

// Service produces weather-enriched feature collections for web map layers
type Service interface {
	// GetData resolves id ("<itemId>:<layerIndex>") and returns its enriched features
	GetData(ctx context.Context, id string) (*Result, error)
}

type observationService struct {
	layers  LayerProvider
	weather ObservationProvider
	apiKey  string
	locate  Locator
	logger  *slog.Logger
}

// NewService creates a service backed by ArcGIS and The Weather Company
func NewService(cfg *config.Config, logger *slog.Logger) (Service, error) {
	var locate Locator = UTC
	if cfg.App.TimestampZone == config.TimestampZoneStation {
		tzSvc, err := timezone.NewService()
		if err != nil {
			return nil, fmt.Errorf("failed to create timezone service: %w", err)
		}
		locate = StationLocator(tzSvc, logger)
	}

	return NewServiceWithProviders(
		arcgis.NewClient(cfg.ArcGIS.PortalURL, logger),
		twc.NewClient(cfg.TWC.BaseURL, logger),
		cfg.TWC.APIKey,
		locate,
		logger,
	), nil
}

// NewServiceWithProviders creates a service with custom providers
// A nil locate formats timestamps in UTC
func NewServiceWithProviders(
	layers LayerProvider,
	weather ObservationProvider,
	apiKey string,
	locate Locator,
	logger *slog.Logger,
) Service {
	if locate == nil {
		locate = UTC
	}
	return &observationService{
		layers:  layers,
		weather: weather,
		apiKey:  apiKey,
		locate:  locate,
		logger:  logger.With("component", "observation-service"),
	}
}

func (s *observationService) GetData(ctx context.Context, id string) (*Result, error) {
	start := time.Now()

	layerID, err := ParseLayerID(id)
	if err != nil {
		return nil, err
	}

	// Fail before any outbound call when the key is absent
	if s.apiKey == "" {
		s.logger.Error("no TWC API key configured", "id", id)
		return nil, ErrMissingAPIKey
	}

	layer, err := s.resolveLayer(ctx, layerID)
	if err != nil {
		return nil, err
	}

	query, err := s.buildQuery(ctx, layer)
	if err != nil {
		return nil, err
	}

	features, err := s.fetchFeatures(ctx, query)
	if err != nil {
		return nil, err
	}

	observations, err := s.enrich(ctx, features)
	if err != nil {
		return nil, err
	}

	result := Translate(observations, s.locate)

	s.logger.Info("built observation collection",
		"id", layerID.String(),
		"queried_features", len(features),
		"output_features", len(result.Collection.Features),
		"duration", time.Since(start),
	)

	return result, nil
}
