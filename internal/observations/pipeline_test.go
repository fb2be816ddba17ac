package observations

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twc-observations/internal/providers/arcgis"
	"twc-observations/internal/providers/twc"
)

// upstream fakes ArcGIS Online, a feature service and the weather API on one server
type upstream struct {
	srv          *httptest.Server
	weatherCalls atomic.Int32
	recordCount  atomic.Value
}

func newUpstream(t *testing.T, featuresJSON string) *upstream {
	t.Helper()
	u := &upstream{}
	layerPath := "/arcgis/rest/services/Stations/FeatureServer/0"

	mux := http.NewServeMux()
	mux.HandleFunc("/sharing/rest/content/items/item1/data", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"operationalLayers":[{"id":"stations","url":%q}]}`, u.srv.URL+layerPath)
	})
	mux.HandleFunc(layerPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"objectIdField":"OBJECTID","fields":[{"name":"OBJECTID"},{"name":"NAME"}]}`)
	})
	mux.HandleFunc(layerPath+"/query", func(w http.ResponseWriter, r *http.Request) {
		u.recordCount.Store(r.URL.Query().Get("resultRecordCount"))
		_, _ = io.WriteString(w, featuresJSON)
	})
	mux.HandleFunc("/v1/geocode/", func(w http.ResponseWriter, r *http.Request) {
		u.weatherCalls.Add(1)
		// /v1/geocode/{lat}/{lon}/observations.json
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/geocode/"), "/")
		lat, lon := parts[0], parts[1]
		if lat == "0" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"metadata":{"status_code":404},"success":false}`)
			return
		}
		fmt.Fprintf(w, `{"metadata":{"latitude":%s,"longitude":%s,"status_code":200},
			"observation":{"obs_name":"Station %s","expire_time_gmt":0,"valid_time_gmt":0,"temp":50}}`, lat, lon, lat)
	})

	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) service(apiKey string) Service {
	logger := newTestLogger()
	return NewServiceWithProviders(
		arcgis.NewClient(u.srv.URL+"/sharing/rest", logger),
		twc.NewClient(u.srv.URL+"/v1", logger),
		apiKey,
		UTC,
		logger,
	)
}

func TestPipeline_EndToEnd(t *testing.T) {
	up := newUpstream(t, `{"features":[
		{"geometry":{"x":-104.67,"y":39.86},"attributes":{"NAME":"Denver"}},
		{"geometry":{"x":10,"y":0},"attributes":{"NAME":"Null Island"}},
		{"geometry":{"x":-0.12,"y":51.5},"attributes":{"NAME":"London","temp":"map temp"}}
	]}`)

	result, err := up.service("key").GetData(t.Context(), "item1:0")
	require.NoError(t, err)

	assert.Equal(t, "50", up.recordCount.Load())
	assert.Equal(t, int32(3), up.weatherCalls.Load())

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded struct {
		Type     string `json:"type"`
		TTL      int    `json:"ttl"`
		Metadata struct {
			DisplayField string `json:"displayField"`
		} `json:"metadata"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "FeatureCollection", decoded.Type)
	assert.Equal(t, 300, decoded.TTL)
	assert.Equal(t, "obs_name", decoded.Metadata.DisplayField)

	// The 404 lookup is dropped entirely
	require.Len(t, decoded.Features, 2)

	assert.Equal(t, []float64{-104.67, 39.86}, decoded.Features[0].Geometry.Coordinates)
	assert.Equal(t, "Denver", decoded.Features[0].Properties["NAME"])
	assert.Equal(t, "Station 39.86", decoded.Features[0].Properties["obs_name"])
	assert.Equal(t, float64(50), decoded.Features[0].Properties["temp"])
	assert.Equal(t, "1970-01-01 00:00:00 +00:00", decoded.Features[0].Properties["expire_time_formatted"])

	assert.Equal(t, "London", decoded.Features[1].Properties["NAME"])
	assert.Equal(t, "map temp", decoded.Features[1].Properties["temp"])
}

func TestPipeline_MissingAPIKeyMakesNoCalls(t *testing.T) {
	up := newUpstream(t, `{"features":[{"geometry":{"x":1,"y":2},"attributes":{}}]}`)

	_, err := up.service("").GetData(t.Context(), "item1:0")
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, int32(0), up.weatherCalls.Load())
}

func TestPipeline_MissingLayer(t *testing.T) {
	up := newUpstream(t, `{"features":[]}`)

	_, err := up.service("key").GetData(t.Context(), "item1:4")
	require.ErrorIs(t, err, ErrLayerNotFound)
	assert.Equal(t, int32(0), up.weatherCalls.Load())
}
