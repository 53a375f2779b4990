package httpapi

// NodeResponse is the JSON response for GET /api/v1/nodes/{id}.
type NodeResponse struct {
	ID  uint32  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EdgeJSON represents one adjacent edge in an EdgesResponse.
type EdgeJSON struct {
	Node           uint32  `json:"node"`
	DistanceMeters float64 `json:"distance_meters"`
	Forward        bool    `json:"forward"`
	Backward       bool    `json:"backward"`
}

// EdgesResponse is the JSON response for GET /api/v1/edges?node={id}.
type EdgesResponse struct {
	Node  uint32     `json:"node"`
	Edges []EdgeJSON `json:"edges"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes     uint32  `json:"num_nodes"`
	SegmentCount int     `json:"segment_count"`
	MinLat       float64 `json:"min_lat"`
	MaxLat       float64 `json:"max_lat"`
	MinLon       float64 `json:"min_lon"`
	MaxLon       float64 `json:"max_lon"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
