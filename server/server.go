// Package server exposes the live ingest endpoint. A force plate connects
// over websocket, announces the session with a start frame, streams samples,
// and receives the analyzed summary back on the same connection.
package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	grfnotes "grf-analyzer"
	"grf-analyzer/acquire"
	"grf-analyzer/config"
	"grf-analyzer/pipeline"
)

const (
	// IngestPath accepts plate websocket connections.
	IngestPath = "/v1/ingest"
	// SessionsPath lists stored sessions.
	SessionsPath = "/v1/sessions"

	startFrameWait = 30 * time.Second
	writeWait      = 10 * time.Second
)

// Handler terminates plate connections and hands finished captures to the
// runner.
type Handler struct {
	Config   *config.Config
	Runner   *acquire.Runner
	upgrader websocket.Upgrader
}

func New(cfg *config.Config, runner *acquire.Runner) *Handler {
	return &Handler{
		Config: cfg,
		Runner: runner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Register installs the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(IngestPath, h.Ingest)
	mux.HandleFunc(SessionsPath, h.Sessions)
}

// sessionAck is sent back to the plate after analysis.
type sessionAck struct {
	Kind      string             `json:"kind"`
	SessionID string             `json:"session_id,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Quality   map[string]string  `json:"quality,omitempty"`
	Warnings  []string           `json:"warnings,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Ingest runs one capture session over a websocket connection.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("ingest upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	cfg, err := h.readStartFrame(conn)
	if err != nil {
		log.Error("ingest start frame", "err", err)
		h.writeAck(conn, sessionAck{Kind: "error", Error: err.Error()})
		return
	}

	log.Info("session started", "remote", r.RemoteAddr, "test_type", cfg.TestType)

	res, err := h.Runner.Run(r.Context(), &acquire.ConnCollector{Conn: conn}, cfg)
	if err != nil {
		log.Error("session failed", "remote", r.RemoteAddr, "err", err)
		h.writeAck(conn, sessionAck{Kind: "error", Error: err.Error()})
		return
	}

	if outDir := h.Config.Storage.OutDir; outDir != "" && res.SessionID != "" {
		h.writeBundle(outDir, res)
	}

	h.writeAck(conn, sessionAck{
		Kind:      "result",
		SessionID: res.SessionID,
		Metrics:   res.Analysis.Metrics,
		Quality:   res.Analysis.Quality,
		Warnings:  res.Analysis.Warnings,
	})
}

func (h *Handler) readStartFrame(conn *websocket.Conn) (acquire.SessionConfig, error) {
	conn.SetReadDeadline(time.Now().Add(startFrameWait))

	var frame acquire.Frame
	if err := conn.ReadJSON(&frame); err != nil {
		return acquire.SessionConfig{}, err
	}
	if frame.Kind != "start" {
		return acquire.SessionConfig{}, errUnexpectedFrame(frame.Kind)
	}

	name := frame.TestType
	if name == "" {
		name = h.Config.DefaultTestType
	}
	tt, err := grfnotes.ParseTestType(name)
	if err != nil {
		return acquire.SessionConfig{}, err
	}

	params := h.Config.ParametersFor(tt)
	return acquire.SessionConfig{
		TestType:    tt,
		Parameters:  &params,
		BodyweightN: frame.BodyweightN,
	}, nil
}

func (h *Handler) writeBundle(outDir string, res *acquire.SessionResult) {
	dir := filepath.Join(outDir, res.SessionID)
	if err := pipeline.PrepareOutDir(dir, false); err != nil {
		log.Error("bundle dir", "session", res.SessionID, "err", err)
		return
	}
	if _, err := pipeline.WriteBundle(dir, "live:"+res.SessionID, "parquet", res.Samples, res.Analysis); err != nil {
		log.Error("bundle write", "session", res.SessionID, "err", err)
	}
}

func (h *Handler) writeAck(conn *websocket.Conn, ack sessionAck) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(ack); err != nil {
		log.Error("ingest ack write", "err", err)
	}
}

// Sessions lists stored sessions, newest first.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Runner.Store == nil {
		http.Error(w, "no session store configured", http.StatusServiceUnavailable)
		return
	}

	sessions, err := h.Runner.Store.ListSessions()
	if err != nil {
		log.Error("list sessions", "err", err)
		http.Error(w, "list sessions failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sessions); err != nil {
		log.Error("encode sessions", "err", err)
	}
}

type errUnexpectedFrame string

func (e errUnexpectedFrame) Error() string {
	return "expected start frame, got " + string(e)
}
