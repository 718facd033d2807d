package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bryanchriswhite/swayrst/internal/layout"
	"github.com/bryanchriswhite/swayrst/internal/procinfo"
	"github.com/bryanchriswhite/swayrst/internal/profile"
	"github.com/bryanchriswhite/swayrst/internal/restore"
	"github.com/bryanchriswhite/swayrst/internal/window"
	"github.com/bryanchriswhite/swayrst/internal/window/windowtest"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	reports []*restore.Report
}

func (r *recordingReporter) Report(rep *restore.Report) error {
	r.reports = append(r.reports, rep)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *profile.Store, *recordingReporter) {
	t.Helper()

	session := windowtest.NewSession(windowtest.Root(
		windowtest.Output(5, "DP-1",
			windowtest.Workspace(10, "1", 1, "splith",
				[]*window.Node{windowtest.Window(101, 11, "foot", 100, 100)}, nil)),
	))
	store := profile.NewStore(t.TempDir())
	restorer := restore.New(session, store, procinfo.Static{11: {"foot"}}, restore.Options{})
	reporter := &recordingReporter{}

	ts := httptest.NewServer(NewServer(restorer, reporter).Handler())
	t.Cleanup(ts.Close)
	return ts, store, reporter
}

func do(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	return doFrom(t, "", method, url)
}

// doFrom sends the request with an Origin header as a browser would.
func doFrom(t *testing.T, origin, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"status":"healthy","version":"`+Version+`"}`, string(body))
}

func TestTree(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/tree")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tree layout.Tree
	require.NoError(t, json.Unmarshal(body, &tree))
	require.Len(t, tree.Apps(), 1)
	assert.Equal(t, []string{"foot"}, tree.Apps()[0].Command)
}

func TestProfileLifecycle(t *testing.T) {
	ts, store, reporter := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/profiles")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/profiles/desk/save")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, store.Exists("desk"))

	resp, body = do(t, http.MethodGet, ts.URL+"/api/profiles")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `["desk"]`, string(body))

	resp, body = do(t, http.MethodGet, ts.URL+"/api/profiles/desk")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tree layout.Tree
	require.NoError(t, json.Unmarshal(body, &tree))
	assert.Equal(t, []string{"DP-1"}, tree.OutputNames())

	resp, body = do(t, http.MethodPost, ts.URL+"/api/profiles/desk/load")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report restore.Report
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, "desk", report.Profile)
	assert.Equal(t, 1, report.Matched)
	require.Len(t, reporter.reports, 1)
	assert.Equal(t, "desk", reporter.reports[0].Profile)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/profiles/desk")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/profiles/desk")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoadErrors(t *testing.T) {
	ts, store, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/profiles/nope/load")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "doesn't exist")

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/profiles/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, store.Save("tv", &layout.Tree{Outputs: []layout.Output{{Name: "HDMI-A-1"}}}))
	resp, _ = do(t, http.MethodPost, ts.URL+"/api/profiles/tv/load")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestEvents(t *testing.T) {
	ts, _, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/profiles/desk/save")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev restore.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, restore.EventSaved, ev.Type)
	assert.Equal(t, "desk", ev.Profile)
}

func TestCrossOriginRefused(t *testing.T) {
	ts, store, _ := newTestServer(t)
	const foreign = "https://evil.example"

	resp, _ := doFrom(t, foreign, http.MethodPost, ts.URL+"/api/profiles/work/save")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, store.Exists("work"))

	resp, _ = doFrom(t, foreign, http.MethodOptions, ts.URL+"/api/profiles/work")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Methods"))

	require.NoError(t, store.Save("work", &layout.Tree{Outputs: []layout.Output{{Name: "DP-1"}}}))
	resp, _ = doFrom(t, foreign, http.MethodDelete, ts.URL+"/api/profiles/work")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.True(t, store.Exists("work"))

	// Same origin still works
	resp, _ = doFrom(t, ts.URL, http.MethodDelete, ts.URL+"/api/profiles/work")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, store.Exists("work"))
}

func TestEventsCrossOriginRefused(t *testing.T) {
	ts, _, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
