package capture

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBeaconFlushesQueueOnClose(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	beacon := NewBeacon(srv.URL)
	for i := 0; i < 10; i++ {
		beacon.Enqueue("/activity/page-visit", map[string]string{"page": "home"})
	}
	beacon.Close()

	require.Equal(t, int32(10), received.Load())
}

func TestBeaconDropsAfterClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected after close")
	}))
	defer srv.Close()

	beacon := NewBeacon(srv.URL)
	beacon.Close()
	beacon.Enqueue("/activity/page-visit", map[string]string{"page": "home"})
}

func TestBeaconSurvivesSendFailure(t *testing.T) {
	// Target nothing: every send fails, none are retried, Close still returns.
	beacon := NewBeacon("http://127.0.0.1:1")
	beacon.Enqueue("/activity/newActivity", map[string]float64{"activeTime": 5})
	beacon.Close()
}
