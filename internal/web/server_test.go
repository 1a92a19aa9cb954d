package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sweeney/squat-coach/internal/logic"
	"github.com/sweeney/squat-coach/internal/metrics"
	"github.com/sweeney/squat-coach/internal/status"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *status.Tracker, *metrics.Manager) {
	t.Helper()
	cfg := status.Config{
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		FramesTopic: "squat/coach/frames",
		HTTPAddr:    ":8080",
	}
	tr := status.NewTracker(start, "session-1", cfg)
	m, reg := metrics.NewTestManagerAndRegistry()
	return New(":0", tr, reg), tr, m
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func completedRep(n int, correct bool, faults logic.FaultMap) *logic.FrameResult {
	begin := start.Add(time.Duration(n) * 5 * time.Second)
	return &logic.FrameResult{
		Time:  begin.Add(2 * time.Second),
		Reps:  n,
		Phase: logic.PhaseStanding,
		Completed: &logic.RepRecord{
			Number:  n,
			Start:   begin,
			End:     begin.Add(2 * time.Second),
			Correct: correct,
			Faults:  faults,
		},
	}
}

func TestJSONEndpoint(t *testing.T) {
	srv, tr, _ := newTestServer(t)
	tr.Update(start, completedRep(1, true, logic.FaultMap{}), status.EngineView{
		Phase:  logic.PhaseStanding,
		Counts: logic.Counts{Reps: 1, Correct: 1, Faults: map[logic.FaultType]int{}},
	})
	tr.SetMQTTConnected(true)

	rec := get(t, srv, "/index.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var sj status.StatusJSON
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sj))
	assert.Equal(t, "session-1", sj.Status.Session)
	assert.Equal(t, "standing", sj.Status.Phase)
	assert.Equal(t, 1, sj.Status.Reps)
	assert.Equal(t, 1, sj.Status.CorrectReps)
	assert.True(t, sj.Status.MQTT.Connected)
	assert.Equal(t, "tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	assert.InDelta(t, 2.0, sj.Status.Stats.MeanRepSeconds, 1e-9)
}

func TestRepsEndpointNewestFirst(t *testing.T) {
	srv, tr, _ := newTestServer(t)
	tr.Update(start, completedRep(1, true, logic.FaultMap{}), status.EngineView{})
	tr.Update(start, completedRep(2, false, logic.FaultMap{
		logic.PhaseDescending: {logic.FaultFastDescent: "slow down"},
		logic.PhaseBottom:     {logic.FaultBack: "chest up"},
	}), status.EngineView{})

	rec := get(t, srv, "/reps.json")
	assert.Equal(t, http.StatusOK, rec.Code)

	var reps RepsJSON
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reps))
	assert.Equal(t, "session-1", reps.Session)
	require.Len(t, reps.Reps, 2)
	assert.Equal(t, 2, reps.Reps[0].Number)
	assert.False(t, reps.Reps[0].Correct)
	assert.Equal(t, int64(2000), reps.Reps[0].DurationMs)
	assert.Equal(t, []FaultJSON{
		{Phase: "bottom", Type: "Back", Message: "chest up"},
		{Phase: "descending", Type: "FastDescent", Message: "slow down"},
	}, reps.Reps[0].Faults)
	assert.Empty(t, reps.Reps[1].Faults)
}

func TestRepsEndpointEmpty(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := get(t, srv, "/reps.json")
	assert.JSONEq(t, `{"session":"session-1","reps":[]}`, rec.Body.String())
}

func TestHTMLEndpoint(t *testing.T) {
	srv, tr, _ := newTestServer(t)
	tr.Update(start, &logic.FrameResult{
		Phase:    logic.PhaseBottom,
		Feedback: map[logic.Channel]string{logic.ChannelDepth: "Good depth"},
	}, status.EngineView{
		Phase:        logic.PhaseBottom,
		Instructions: map[logic.Phase]map[logic.FaultType]string{logic.PhaseStanding: {logic.FaultShallow: "Squat deeper"}},
	})

	for _, path := range []string{"/", "/index.html"} {
		rec := get(t, srv, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"), path)

		body := rec.Body.String()
		assert.Contains(t, body, `<td id="phase">bottom</td>`)
		assert.Contains(t, body, "Good depth")
		assert.Contains(t, body, "Squat deeper")
		assert.Contains(t, body, "no reps yet")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	srv, _, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/nonexistent").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, m := newTestServer(t)
	m.ObserveRep(*completedRep(1, true, logic.FaultMap{}).Completed)

	rec := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `squat_test_reps_total{correct="true"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	tr := status.NewTracker(start, "s", status.Config{})
	srv := New(":0", tr, nil)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/metrics").Code)
}

func TestServeAndShutdown(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/index.json")
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}
