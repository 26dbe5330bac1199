package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"grf-analyzer/acquire"
	"grf-analyzer/config"
	"grf-analyzer/metrics"
	"grf-analyzer/obs"
	"grf-analyzer/storage"
)

func newTestServer(t *testing.T, outDir string) (*httptest.Server, *storage.Store) {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Storage.OutDir = outDir

	runner := &acquire.Runner{Store: store, Metrics: obs.New(prometheus.NewRegistry())}
	mux := http.NewServeMux()
	New(cfg, runner).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func dialIngest(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + IngestPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial ingest: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func streamJump(t *testing.T, conn *websocket.Conn, bw float64) int {
	t.Helper()

	segments := []struct {
		to   float64
		n    int
		ramp bool
	}{
		{1.0, 500, false},
		{0.75, 60, true},
		{0.75, 60, false},
		{2.2, 100, true},
		{2.2, 40, false},
		{0.05, 50, true},
		{0.05, 400, false},
		{2.5, 20, true},
		{1.0, 150, true},
		{1.0, 400, false},
	}

	level := 0.0
	idx := 0
	for _, seg := range segments {
		target := seg.to
		for i := 1; i <= seg.n; i++ {
			v := target
			if seg.ramp {
				v = level + (target-level)*float64(i)/float64(seg.n)
			}
			f := bw * v
			frame := fmt.Sprintf(`{"kind":"sample","sample":{"ts_ms":%d,"left_n":%.3f,"right_n":%.3f}}`,
				idx, f*0.5, f*0.5)
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				t.Fatalf("write sample %d: %v", idx, err)
			}
			idx++
		}
		level = target
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"kind":"stop"}`)); err != nil {
		t.Fatalf("write stop: %v", err)
	}
	return idx
}

func TestIngestSessionRoundTrip(t *testing.T) {
	outDir := t.TempDir()
	srv, store := newTestServer(t, outDir)
	conn := dialIngest(t, srv)

	start := `{"kind":"start","test_type":"cmj","bodyweight_n":700}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(start)); err != nil {
		t.Fatalf("write start: %v", err)
	}
	total := streamJump(t, conn, 700)

	var ack struct {
		Kind      string             `json:"kind"`
		SessionID string             `json:"session_id"`
		Metrics   map[string]float64 `json:"metrics"`
		Error     string             `json:"error"`
	}
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack.Kind != "result" {
		t.Fatalf("ack = %+v", ack)
	}
	if _, ok := ack.Metrics[metrics.MetricJumpHeightFlightM]; !ok {
		t.Fatalf("ack missing jump height: %v", ack.Metrics)
	}

	stored, err := store.LoadSamples(ack.SessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if len(stored) != total {
		t.Fatalf("stored %d samples, want %d", len(stored), total)
	}

	manifest := filepath.Join(outDir, ack.SessionID, "manifest.json")
	if _, err := os.Stat(manifest); err != nil {
		t.Fatalf("bundle manifest missing: %v", err)
	}
}

func TestIngestRejectsMissingStartFrame(t *testing.T) {
	srv, _ := newTestServer(t, "")
	conn := dialIngest(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"kind":"sample"}`)); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	var ack struct {
		Kind  string `json:"kind"`
		Error string `json:"error"`
	}
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack.Kind != "error" || ack.Error == "" {
		t.Fatalf("ack = %+v", ack)
	}
}

func TestSessionsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + SessionsPath)
	if err != nil {
		t.Fatalf("get sessions: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var sessions []storage.SessionSummary
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions yet, got %d", len(sessions))
	}
}
