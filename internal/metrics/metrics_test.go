package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.ObserveHTTPRequest("GET", "/graph", 200, 25*time.Millisecond)
	r.ObserveHTTPRequest("GET", "/graph", 200, 30*time.Millisecond)
	r.ObserveHTTPRequest("GET", "/graph", 500, 5*time.Millisecond)

	if got := testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("GET", "/graph", "200")); got != 2 {
		t.Errorf("expected 2 successful requests, got %f", got)
	}
	if got := testutil.ToFloat64(r.HTTPRequestsTotal.WithLabelValues("GET", "/graph", "500")); got != 1 {
		t.Errorf("expected 1 failed request, got %f", got)
	}
}

func TestObserveGraphBuild(t *testing.T) {
	r := NewRegistry()

	r.ObserveGraphBuild("full", 10*time.Millisecond, 120, 340)

	if got := testutil.ToFloat64(r.GraphNodes.WithLabelValues("full")); got != 120 {
		t.Errorf("expected node gauge 120, got %f", got)
	}
	if got := testutil.ToFloat64(r.GraphEdges.WithLabelValues("full")); got != 340 {
		t.Errorf("expected edge gauge 340, got %f", got)
	}
}

func TestObserveCacheLookup(t *testing.T) {
	r := NewRegistry()

	r.ObserveCacheLookup(true)
	r.ObserveCacheLookup(false)
	r.ObserveCacheLookup(false)

	if got := testutil.ToFloat64(r.CacheLookupsTotal.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected 1 hit, got %f", got)
	}
	if got := testutil.ToFloat64(r.CacheLookupsTotal.WithLabelValues("miss")); got != 2 {
		t.Errorf("expected 2 misses, got %f", got)
	}
}
