package inspect

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/skellyview/internal/telemetry"
	"github.com/vango-dev/skellyview/pkg/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*store.Registry, *Server, *httptest.Server) {
	t.Helper()
	reg := store.NewRegistry(store.WithLogger(quietLogger()))
	srv := New(reg, Config{
		Metrics: telemetry.NewMetrics(telemetry.WithRegistry(prometheus.NewRegistry())),
		Logger:  quietLogger(),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return reg, srv, ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	_, _, ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	reg, _, ts := newTestServer(t)
	reg.Animation().SetNumFrames(120)
	reg.Fetch().TriggerDataFetch("mediapipe")

	resp := do(t, http.MethodGet, ts.URL+"/api/stores", "")
	snap := decodeBody[store.Snapshot](t, resp)

	if snap.Animation.NumFrames != 120 {
		t.Errorf("NumFrames = %d", snap.Animation.NumFrames)
	}
	if snap.Fetch.TrackerToFetch != "mediapipe" || !snap.Fetch.Pending {
		t.Errorf("Fetch = %+v", snap.Fetch)
	}
}

func TestStoreEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t)

	tests := []struct {
		path   string
		status int
		name   string
	}{
		{"/api/stores/animation", http.StatusOK, "animation"},
		{"/api/stores/rendererStore", http.StatusOK, "renderer"},
		{"/api/stores/skeleton", http.StatusOK, "fetch"},
		{"/api/stores/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := do(t, http.MethodGet, ts.URL+tt.path, "")
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			body := decodeBody[struct {
				Name   string         `json:"name"`
				Fields map[string]any `json:"fields"`
			}](t, resp)
			if body.Name != tt.name {
				t.Errorf("name = %q, want %q", body.Name, tt.name)
			}
			if len(body.Fields) == 0 {
				t.Error("no fields returned")
			}
		})
	}
}

func TestFetchEndpoints(t *testing.T) {
	reg, _, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/fetch", `{"tracker":"motion-capture-1"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("POST status = %d", resp.StatusCode)
	}
	if reg.Fetch().TrackerToFetch() != "motion-capture-1" {
		t.Errorf("tracker = %q", reg.Fetch().TrackerToFetch())
	}

	resp = do(t, http.MethodDelete, ts.URL+"/api/fetch", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", resp.StatusCode)
	}
	if reg.Fetch().TrackerToFetch() != "" {
		t.Errorf("tracker = %q after reset", reg.Fetch().TrackerToFetch())
	}

	for _, body := range []string{`{"tracker":""}`, `{}`, `not json`, `{"tracker":"x","extra":1}`} {
		resp := do(t, http.MethodPost, ts.URL+"/api/fetch", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestAnimationEndpoint(t *testing.T) {
	reg, _, ts := newTestServer(t)

	var mu sync.Mutex
	var changes []store.Change
	reg.Subscribe(func(c store.Change) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})

	resp := do(t, http.MethodPost, ts.URL+"/api/animation", `{"numFrames":120,"frame":45,"playing":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	snap := decodeBody[store.AnimationSnapshot](t, resp)
	if snap.NumFrames != 120 || snap.CurrentFrameNumber != store.Frame(45) || !snap.IsPlaying {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.FPS != store.DefaultFPS {
		t.Errorf("FPS changed to %v without being sent", snap.FPS)
	}
	mu.Lock()
	if len(changes) != 3 {
		t.Errorf("got %d changes, want 3", len(changes))
	}
	mu.Unlock()

	resp = do(t, http.MethodPost, ts.URL+"/api/animation", `{"frame":null}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if reg.Animation().CurrentFrameNumber() != store.NoFrame {
		t.Errorf("frame = %v, want absent", reg.Animation().CurrentFrameNumber())
	}
	if reg.Animation().NumFrames() != 120 {
		t.Error("null frame update touched numFrames")
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/animation", `{"frame":"twelve"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad frame status = %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t)
	do(t, http.MethodGet, ts.URL+"/healthz", "")

	resp := do(t, http.MethodGet, ts.URL+"/metrics", "")
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "skellyview_http_requests_total") {
		t.Error("metrics output missing skellyview_http_requests_total")
	}
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocketFeed(t *testing.T) {
	reg, srv, ts := newTestServer(t)
	reg.Animation().SetNumFrames(30)

	conn := dial(t, ts)
	hello := readMessage(t, conn)
	if hello.Type != MessageHello || hello.ClientID == "" || hello.Snapshot == nil {
		t.Fatalf("hello = %+v", hello)
	}
	if hello.Snapshot.Animation.NumFrames != 30 {
		t.Errorf("hello snapshot NumFrames = %d", hello.Snapshot.Animation.NumFrames)
	}
	if srv.ClientCount() != 1 {
		t.Errorf("ClientCount = %d", srv.ClientCount())
	}

	reg.Fetch().TriggerDataFetch("mediapipe")
	msg := readMessage(t, conn)
	if msg.Type != MessageChange || msg.Change == nil {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Change.Store != store.FetchStoreName || msg.Change.Value != "mediapipe" {
		t.Errorf("change = %+v", msg.Change)
	}
}

func TestWebSocketCommands(t *testing.T) {
	reg, _, ts := newTestServer(t)
	conn := dial(t, ts)
	readMessage(t, conn)

	frame := 12
	if err := conn.WriteJSON(Command{Type: CommandFrame, Frame: &frame}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Change == nil || msg.Change.Field != store.FieldCurrentFrameNumber {
		t.Fatalf("message = %+v", msg)
	}
	if reg.Animation().CurrentFrameNumber() != store.Frame(12) {
		t.Errorf("frame = %v", reg.Animation().CurrentFrameNumber())
	}

	if err := conn.WriteJSON(Command{Type: "rewind"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = readMessage(t, conn)
	if msg.Type != MessageError || !strings.Contains(msg.Error, "rewind") {
		t.Errorf("message = %+v", msg)
	}

	if err := conn.WriteJSON(Command{Type: CommandTrigger, Tracker: "openpose"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = readMessage(t, conn)
	if msg.Change == nil || msg.Change.Value != "openpose" {
		t.Errorf("message = %+v", msg)
	}
}

func TestWebSocketOrigin(t *testing.T) {
	reg := store.NewRegistry(store.WithLogger(quietLogger()))
	srv := New(reg, Config{Logger: quietLogger(), AllowedOrigins: []string{"http://localhost:5173"}})
	defer srv.Close()

	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "localhost:5174", true},
		{"http://localhost:5174", "localhost:5174", true},
		{"http://localhost:5173", "localhost:5174", true},
		{"http://evil.example", "localhost:5174", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := srv.checkOrigin(r); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	reg := store.NewRegistry(store.WithLogger(quietLogger()))
	srv := New(reg, Config{Logger: quietLogger()})
	defer srv.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
