package observations

import (
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"twc-observations/internal/providers/twc"
	"twc-observations/internal/timezone"
)

const (
	// DefaultTTL is the suggested cache lifetime of a collection, in seconds
	DefaultTTL = 300

	timestampLayout = "2006-01-02 15:04:05 -07:00"
)

// LayerMetadata describes the collection to map clients
type LayerMetadata struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayField string `json:"displayField"`
}

var observationMetadata = LayerMetadata{
	Name:         "Observations",
	Description:  "Observations provided by The Weather Company",
	DisplayField: "obs_name",
}

// Result is an enriched feature collection plus its caching hints.
// TTL and Metadata are encoded as foreign members of the collection.
type Result struct {
	Collection *geojson.FeatureCollection
	TTL        int
	Metadata   LayerMetadata
}

func (r *Result) MarshalJSON() ([]byte, error) {
	fc := *r.Collection
	fc.ExtraMembers = geojson.Properties{
		"ttl":      r.TTL,
		"metadata": r.Metadata,
	}
	return fc.MarshalJSON()
}

// Locator picks the timezone used to format a station's timestamps
type Locator func(latitude, longitude float64) *time.Location

// UTC formats every timestamp in UTC
func UTC(latitude, longitude float64) *time.Location {
	return time.UTC
}

// StationLocator formats timestamps in the station's local timezone, falling back to UTC
func StationLocator(tzSvc timezone.Service, logger *slog.Logger) Locator {
	return func(latitude, longitude float64) *time.Location {
		loc, err := tzSvc.GetLocation(latitude, longitude)
		if err != nil {
			logger.Warn("falling back to UTC timestamps",
				"latitude", latitude,
				"longitude", longitude,
				"error", err,
			)
			return time.UTC
		}
		return loc
	}
}

// Translate turns enrichment results into a GeoJSON FeatureCollection.
// Entries that are nil or not status 200 are dropped.
func Translate(observations []*twc.ObservationResponse, locate Locator) *Result {
	if locate == nil {
		locate = UTC
	}

	fc := geojson.NewFeatureCollection()
	for _, obs := range observations {
		if obs == nil || obs.Metadata == nil || obs.Observation == nil || obs.Metadata.StatusCode != http.StatusOK {
			continue
		}
		fc.Append(formatFeature(obs, locate))
	}

	return &Result{
		Collection: fc,
		TTL:        DefaultTTL,
		Metadata:   observationMetadata,
	}
}

// formatFeature builds a Point feature whose properties are the observation
// overlaid with the original map attributes
func formatFeature(obs *twc.ObservationResponse, locate Locator) *geojson.Feature {
	md := obs.Metadata
	feature := geojson.NewFeature(orb.Point{md.Longitude, md.Latitude})

	props := observationProperties(obs.Observation, locate(md.Latitude, md.Longitude))
	maps.Copy(props, md.OriginalAttributes)
	feature.Properties = props

	return feature
}

func observationProperties(o *twc.Observation, loc *time.Location) geojson.Properties {
	return geojson.Properties{
		"key":                       o.Key,
		"class":                     o.Class,
		"expire_time_gmt":           o.ExpireTimeGMT,
		"expire_time_formatted":     formatUnix(o.ExpireTimeGMT, loc),
		"obs_id":                    o.ObsID,
		"obs_name":                  o.ObsName,
		"valid_time_gmt":            o.ValidTimeGMT,
		"valid_time_formatted":      formatUnix(o.ValidTimeGMT, loc),
		"day_ind":                   o.DayInd,
		"temp":                      o.Temp,
		"wx_icon":                   o.WxIcon,
		"icon_extd":                 o.IconExtd,
		"wx_phrase":                 o.WxPhrase,
		"pressure_tend":             o.PressureTend,
		"pressure_desc":             o.PressureDesc,
		"dewPt":                     o.DewPt,
		"heat_index":                o.HeatIndex,
		"rh":                        o.RH,
		"pressure":                  o.Pressure,
		"vis":                       o.Vis,
		"wc":                        o.WC,
		"wdir":                      o.Wdir,
		"wdir_cardinal":             o.WdirCardinal,
		"gust":                      o.Gust,
		"wspd":                      o.Wspd,
		"max_temp":                  o.MaxTemp,
		"min_temp":                  o.MinTemp,
		"precip_total":              o.PrecipTotal,
		"precip_hrly":               o.PrecipHrly,
		"snow_hrly":                 o.SnowHrly,
		"uv_desc":                   o.UVDesc,
		"feels_like":                o.FeelsLike,
		"uv_index":                  o.UVIndex,
		"qualifier":                 o.Qualifier,
		"qualifier_svrty":           o.QualifierSvrty,
		"blunt_phrase":              o.BluntPhrase,
		"terse_phrase":              o.TersePhrase,
		"clds":                      o.Clds,
		"water_temp":                o.WaterTemp,
		"primary_wave_period":       o.PrimaryWavePeriod,
		"primary_wave_height":       o.PrimaryWaveHeight,
		"primary_swell_period":      o.PrimarySwellPeriod,
		"primary_swell_height":      o.PrimarySwellHeight,
		"primary_swell_direction":   o.PrimarySwellDirection,
		"secondary_swell_period":    o.SecondarySwellPeriod,
		"secondary_swell_height":    o.SecondarySwellHeight,
		"secondary_swell_direction": o.SecondarySwellDirection,
	}
}

// formatTimestamp renders Unix seconds as "YYYY-MM-DD HH:mm:ss +hh:mm"
func formatTimestamp(unix int64, loc *time.Location) string {
	return time.Unix(unix, 0).In(loc).Format(timestampLayout)
}

// formatUnix formats a Unix-seconds reading, or returns nil when it is not a number
func formatUnix(v any, loc *time.Location) any {
	unix, ok := unixSeconds(v)
	if !ok {
		return nil
	}
	return formatTimestamp(unix, loc)
}

func unixSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
