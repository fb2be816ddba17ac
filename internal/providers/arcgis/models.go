package arcgis

import "fmt"

// OperationalLayer is one entry of a web map's operationalLayers array.
type OperationalLayer struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	URL             string           `json:"url"`
	LayerType       string           `json:"layerType"`
	LayerDefinition *LayerDefinition `json:"layerDefinition,omitempty"`
}

type LayerDefinition struct {
	DefinitionExpression string `json:"definitionExpression"`
}

// LayerInfo is the subset of a feature layer's service metadata used to build a query.
type LayerInfo struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	GeometryType  string  `json:"geometryType"`
	ObjectIDField string  `json:"objectIdField"`
	DisplayField  string  `json:"displayField"`
	MaxRecord     int     `json:"maxRecordCount"`
	Fields        []Field `json:"fields"`
}

type Field struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Alias string `json:"alias"`
}

// QueryParams are the arguments of a feature layer /query request.
type QueryParams struct {
	Where             string
	OutFields         string
	ResultRecordCount int
	OutSR             int
}

// QueryResponse is a feature layer query result in Esri JSON.
type QueryResponse struct {
	ObjectIDFieldName     string    `json:"objectIdFieldName"`
	GeometryType          string    `json:"geometryType"`
	ExceededTransferLimit bool      `json:"exceededTransferLimit"`
	Features              []Feature `json:"features"`
}

// Feature attributes are schema-less; numbers decode as json.Number.
type Feature struct {
	Geometry   *PointGeometry `json:"geometry"`
	Attributes map[string]any `json:"attributes"`
}

type PointGeometry struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ServiceError is the error object ArcGIS REST endpoints return with a 200 status.
type ServiceError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *ServiceError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("arcgis error %d: %s (%v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("arcgis error %d: %s", e.Code, e.Message)
}
