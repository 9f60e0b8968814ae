package capture

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/asad-as1/EduAccess/internal/api"
	"github.com/asad-as1/EduAccess/internal/domain"
)

type capturedRequest struct {
	path string
	body []byte
}

type captureServer struct {
	mu       sync.Mutex
	requests []capturedRequest
	srv      *httptest.Server
}

func newCaptureServer() *captureServer {
	cs := &captureServer{}
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		cs.mu.Lock()
		cs.requests = append(cs.requests, capturedRequest{path: r.URL.Path, body: body})
		cs.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	return cs
}

func (cs *captureServer) all() []capturedRequest {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]capturedRequest(nil), cs.requests...)
}

func fixedIdentity(userID, token string) IdentitySource {
	return func() (Identity, bool) {
		if userID == "" {
			return Identity{}, false
		}
		return Identity{UserID: userID, Token: token}, true
	}
}

func TestShouldReset(t *testing.T) {
	require.True(t, ShouldReset("2025-03-01", "2025-03-02"))
	require.True(t, ShouldReset("", "2025-03-02"))
	require.False(t, ShouldReset("2025-03-02", "2025-03-02"))
}

func TestOnActivityFlushEmitsElapsedDelta(t *testing.T) {
	cs := newCaptureServer()
	defer cs.srv.Close()

	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	beacon := NewBeacon(cs.srv.URL)
	recorder := NewRecorder(fixedIdentity("u1", "tok"), beacon, NewMemoryMirror(), WithClock(clock))

	now = now.Add(90 * time.Second)
	recorder.OnActivityFlush()
	beacon.Close()

	requests := cs.all()
	require.Len(t, requests, 1)
	require.Equal(t, "/activity/newActivity", requests[0].path)

	var req api.ActiveTimeRequest
	require.NoError(t, json.Unmarshal(requests[0].body, &req))
	require.Equal(t, "u1", req.UserID)
	require.Equal(t, "tok", req.Token)
	require.Equal(t, 90.0, req.ActiveTime)
	require.Equal(t, now, req.Timestamp)
}

func TestOnActivityFlushResetsSessionStart(t *testing.T) {
	cs := newCaptureServer()
	defer cs.srv.Close()

	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	beacon := NewBeacon(cs.srv.URL)
	recorder := NewRecorder(fixedIdentity("u1", "tok"), beacon, NewMemoryMirror(), WithClock(clock))

	now = now.Add(time.Minute)
	recorder.OnActivityFlush()
	now = now.Add(30 * time.Second)
	recorder.OnActivityFlush()
	beacon.Close()

	requests := cs.all()
	require.Len(t, requests, 2)

	var second api.ActiveTimeRequest
	require.NoError(t, json.Unmarshal(requests[1].body, &second))
	require.Equal(t, 30.0, second.ActiveTime, "second flush covers only the new segment")

	require.Equal(t, 90.0, recorder.AccumulatedToday())
}

func TestOnRouteEnterEmitsPageVisit(t *testing.T) {
	cs := newCaptureServer()
	defer cs.srv.Close()

	beacon := NewBeacon(cs.srv.URL)
	recorder := NewRecorder(fixedIdentity("u1", "tok"), beacon, NewMemoryMirror())

	recorder.OnRouteEnter("studynotes")
	beacon.Close()

	requests := cs.all()
	require.Len(t, requests, 1)
	require.Equal(t, "/activity/page-visit", requests[0].path)

	var req api.PageVisitRequest
	require.NoError(t, json.Unmarshal(requests[0].body, &req))
	require.Equal(t, "studynotes", req.Page)
}

func TestGuardWithoutIdentityEmitsNothing(t *testing.T) {
	cs := newCaptureServer()
	defer cs.srv.Close()

	beacon := NewBeacon(cs.srv.URL)
	recorder := NewRecorder(fixedIdentity("", ""), beacon, NewMemoryMirror())

	recorder.OnRouteEnter("home")
	recorder.OnActivityFlush()
	beacon.Close()

	require.Empty(t, cs.all())
}

func TestDailyRolloverZeroesLocalMirrorOnly(t *testing.T) {
	cs := newCaptureServer()
	defer cs.srv.Close()

	now := time.Date(2025, time.March, 1, 23, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := NewMemoryMirror()
	beacon := NewBeacon(cs.srv.URL)
	recorder := NewRecorder(fixedIdentity("u1", "tok"), beacon, store, WithClock(clock))

	now = now.Add(10 * time.Minute)
	recorder.OnActivityFlush()
	require.Equal(t, 600.0, recorder.AccumulatedToday())

	// Crossing midnight zeroes the running total and stamps the new day.
	now = now.Add(2 * time.Hour)
	require.Equal(t, 0.0, recorder.AccumulatedToday())
	require.Equal(t, domain.DayOf(now), store.Load().LastActiveDate)
	beacon.Close()
}
