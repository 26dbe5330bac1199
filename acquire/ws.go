package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	grfnotes "grf-analyzer"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsReadLimit        = 512 * 1024
	wsPongWait         = 60 * time.Second
)

// Frame is one message on the plate feed. A plate opens a session with a
// "start" frame, streams "sample" frames, and ends with "stop". The client
// collector only ever sees "sample" and "stop"; "start" is for the ingest
// server, which owns session setup.
type Frame struct {
	Kind        string                `json:"kind"`
	TestType    string                `json:"test_type,omitempty"`
	BodyweightN float64               `json:"bodyweight_n,omitempty"`
	Sample      *grfnotes.ForceSample `json:"sample,omitempty"`
}

// WebsocketCollector dials a force plate's websocket feed and streams its
// sample frames until the plate sends a stop frame or closes.
type WebsocketCollector struct {
	URL string

	// Dialer overrides the default dialer, mainly for tests.
	Dialer *websocket.Dialer
}

func (c *WebsocketCollector) Collect(ctx context.Context, out chan<- grfnotes.ForceSample) error {
	dialer := c.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	}

	conn, _, err := dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return fmt.Errorf("dial plate feed %s: %w", c.URL, err)
	}
	defer conn.Close()

	return StreamConn(ctx, conn, out)
}

// ConnCollector streams samples from an already-accepted connection. The
// ingest server uses it after reading the session's start frame.
type ConnCollector struct {
	Conn *websocket.Conn
}

func (c *ConnCollector) Collect(ctx context.Context, out chan<- grfnotes.ForceSample) error {
	return StreamConn(ctx, c.Conn, out)
}

// StreamConn reads sample frames off conn into out until a stop frame, a
// clean close, or cancellation.
func StreamConn(ctx context.Context, conn *websocket.Conn, out chan<- grfnotes.ForceSample) error {
	// Unblock ReadMessage when the session is cancelled.
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read plate feed: %w", err)
		}
		// Any traffic extends the deadline; a plate mid-capture never pings.
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			return fmt.Errorf("decode plate frame: %w", err)
		}
		switch frame.Kind {
		case "sample":
			if frame.Sample == nil {
				return fmt.Errorf("sample frame without sample body")
			}
			select {
			case out <- *frame.Sample:
			case <-ctx.Done():
				return ctx.Err()
			}
		case "stop":
			return nil
		case "start":
			// Some plates re-announce the session on reconnect.
		default:
			return fmt.Errorf("unexpected plate frame kind %q", frame.Kind)
		}
	}
}
