package fidelity

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporterServesEngineMetrics(t *testing.T) {
	ObserveTurn("explore", "flatworm", MetricSet{Overall: 0.8})

	e := NewExporter(":0")
	srv := httptest.NewServer(e.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "simengine_turns_total")
	assert.Contains(t, string(body), "simengine_fidelity_score")
}

func TestExporterRegistryAcceptsExtraCollectors(t *testing.T) {
	e := NewExporter(":0")
	assert.NotNil(t, e.Registry())
}
