package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(pagesProcessed.WithLabelValues("blank"))
	IncPage("blank")
	IncPage("blank")
	assert.Equal(t, before+2, testutil.ToFloat64(pagesProcessed.WithLabelValues("blank")))

	ObserveTool("deskew", "ok", 20*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(toolInvocations.WithLabelValues("deskew", "ok")), 1.0)

	ObserveJob("success", 3*time.Second)
	assert.Equal(t, 3.0, testutil.ToFloat64(jobDuration))
}

func TestPush(t *testing.T) {
	Init()
	ObserveStage("encode", 10*time.Millisecond)

	var hits atomic.Int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, Push(srv.URL, "scanpdf", "desk-scanner"))
	assert.Equal(t, int32(1), hits.Load())
	p, _ := path.Load().(string)
	assert.True(t, strings.HasPrefix(p, "/metrics/job/scanpdf/instance/desk-scanner"), p)
}
