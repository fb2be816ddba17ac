package twc

// ObservationResponse is the body of a geocode observations.json request.
// Error responses share the same metadata block with a non-200 status_code.
type ObservationResponse struct {
	Metadata    *Metadata    `json:"metadata"`
	Observation *Observation `json:"observation"`
}

type Metadata struct {
	Language      string  `json:"language"`
	TransactionID string  `json:"transaction_id"`
	Version       string  `json:"version"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Units         string  `json:"units"`
	ExpireTimeGMT any     `json:"expire_time_gmt"`
	StatusCode    int     `json:"status_code"`

	// OriginalAttributes carries the map feature's attributes through enrichment.
	OriginalAttributes map[string]any `json:"original_attributes,omitempty"`
}

// Observation is a station reading.
// Readings are passed through as decoded: nil for null or absent, json.Number for numbers.
type Observation struct {
	Key                     any `json:"key"`
	Class                   any `json:"class"`
	ExpireTimeGMT           any `json:"expire_time_gmt"`
	ObsID                   any `json:"obs_id"`
	ObsName                 any `json:"obs_name"`
	ValidTimeGMT            any `json:"valid_time_gmt"`
	DayInd                  any `json:"day_ind"`
	Temp                    any `json:"temp"`
	WxIcon                  any `json:"wx_icon"`
	IconExtd                any `json:"icon_extd"`
	WxPhrase                any `json:"wx_phrase"`
	PressureTend            any `json:"pressure_tend"`
	PressureDesc            any `json:"pressure_desc"`
	DewPt                   any `json:"dewPt"`
	HeatIndex               any `json:"heat_index"`
	RH                      any `json:"rh"`
	Pressure                any `json:"pressure"`
	Vis                     any `json:"vis"`
	WC                      any `json:"wc"`
	Wdir                    any `json:"wdir"`
	WdirCardinal            any `json:"wdir_cardinal"`
	Gust                    any `json:"gust"`
	Wspd                    any `json:"wspd"`
	MaxTemp                 any `json:"max_temp"`
	MinTemp                 any `json:"min_temp"`
	PrecipTotal             any `json:"precip_total"`
	PrecipHrly              any `json:"precip_hrly"`
	SnowHrly                any `json:"snow_hrly"`
	UVDesc                  any `json:"uv_desc"`
	FeelsLike               any `json:"feels_like"`
	UVIndex                 any `json:"uv_index"`
	Qualifier               any `json:"qualifier"`
	QualifierSvrty          any `json:"qualifier_svrty"`
	BluntPhrase             any `json:"blunt_phrase"`
	TersePhrase             any `json:"terse_phrase"`
	Clds                    any `json:"clds"`
	WaterTemp               any `json:"water_temp"`
	PrimaryWavePeriod       any `json:"primary_wave_period"`
	PrimaryWaveHeight       any `json:"primary_wave_height"`
	PrimarySwellPeriod      any `json:"primary_swell_period"`
	PrimarySwellHeight      any `json:"primary_swell_height"`
	PrimarySwellDirection   any `json:"primary_swell_direction"`
	SecondarySwellPeriod    any `json:"secondary_swell_period"`
	SecondarySwellHeight    any `json:"secondary_swell_height"`
	SecondarySwellDirection any `json:"secondary_swell_direction"`
}
