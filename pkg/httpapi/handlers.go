package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/azybler/roadgraph/pkg/flags"
	"github.com/azybler/roadgraph/pkg/graph"
)

// Handlers holds the read-only introspection handlers and the graph they
// serve. Unlike the teacher's api.Handlers (which answered route queries),
// these only ever read from the storage engine — there is no write path.
type Handlers struct {
	g     *graph.Graph
	codec flags.Codec
}

// NewHandlers creates handlers serving g.
func NewHandlers(g *graph.Graph, codec flags.Codec) *Handlers {
	return &Handlers{g: g, codec: codec}
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	b := h.g.Bounds()
	writeJSON(w, http.StatusOK, StatsResponse{
		NumNodes:     h.g.NumNodes(),
		SegmentCount: h.g.SegmentCount(),
		MinLat:       b.Min[1],
		MaxLat:       b.Max[1],
		MinLon:       b.Min[0],
		MaxLon:       b.Max[0],
	})
}

// HandleNode handles GET /api/v1/nodes/{id}.
func (h *Handlers) HandleNode(w http.ResponseWriter, r *http.Request) {
	id, err := parseNodeID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_node_id", "id")
		return
	}
	if id >= h.g.NumNodes() || h.g.IsDeleted(id) {
		writeError(w, http.StatusNotFound, "node_not_found", "id")
		return
	}
	writeJSON(w, http.StatusOK, NodeResponse{ID: id, Lat: h.g.NodeLat(id), Lon: h.g.NodeLon(id)})
}

// HandleEdges handles GET /api/v1/edges?node={id}.
func (h *Handlers) HandleEdges(w http.ResponseWriter, r *http.Request) {
	id, err := parseNodeID(r.URL.Query().Get("node"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_node_id", "node")
		return
	}
	if id >= h.g.NumNodes() || h.g.IsDeleted(id) {
		writeError(w, http.StatusNotFound, "node_not_found", "node")
		return
	}

	resp := EdgesResponse{Node: id}
	it := h.g.Edges(id)
	for it.Next() {
		resp.Edges = append(resp.Edges, EdgeJSON{
			Node:           it.Node(),
			DistanceMeters: it.Distance(),
			Forward:        h.codec.IsForward(it.Flags()),
			Backward:       h.codec.IsBackward(it.Flags()),
		})
	}
	if err := it.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseNodeID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field})
}
