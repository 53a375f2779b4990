package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/azybler/roadgraph/pkg/flags"
	"github.com/azybler/roadgraph/pkg/graph"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	g := graph.New(0)
	g.SetNode(0, 1.3, 103.8)
	g.SetNode(1, 1.35, 103.85)
	if err := g.Edge(0, 1, 500, flags.StreetCodec{}.Encode(flags.HighwayResidential, true, false, 30)); err != nil {
		t.Fatalf("Edge: %v", err)
	}
	return NewHandlers(g, flags.StreetCodec{})
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want 'ok'", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp StatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.NumNodes != 2 {
		t.Errorf("NumNodes = %d, want 2", resp.NumNodes)
	}
}

func TestHandleNode_Found(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/nodes/0", nil)
	req.SetPathValue("id", "0")
	w := httptest.NewRecorder()
	h.HandleNode(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	var resp NodeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The graph stores coordinates as float32, so the served values are the
	// float32 narrowings of the inputs.
	if resp.Lat != float64(float32(1.3)) || resp.Lon != float64(float32(103.8)) {
		t.Errorf("node = %+v, want (1.3, 103.8) narrowed to float32", resp)
	}
}

func TestHandleNode_NotFound(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/nodes/99", nil)
	req.SetPathValue("id", "99")
	w := httptest.NewRecorder()
	h.HandleNode(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleNode_InvalidID(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/nodes/not-a-number", nil)
	req.SetPathValue("id", "not-a-number")
	w := httptest.NewRecorder()
	h.HandleNode(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleEdges(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/edges?"+url.Values{"node": {"0"}}.Encode(), nil)
	w := httptest.NewRecorder()
	h.HandleEdges(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	var resp EdgesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Edges) != 1 || resp.Edges[0].Node != 1 {
		t.Fatalf("edges = %+v, want one edge to node 1", resp.Edges)
	}
	if !resp.Edges[0].Forward || resp.Edges[0].Backward {
		t.Errorf("edges[0] direction = (fwd=%v,bwd=%v), want (true,false)", resp.Edges[0].Forward, resp.Edges[0].Backward)
	}
}
