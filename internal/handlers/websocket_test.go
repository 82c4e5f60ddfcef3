package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/chengwu26/heart-rate-monitor/internal/hrs"
	"github.com/chengwu26/heart-rate-monitor/internal/store"
)

func TestParseInterval(t *testing.T) {
	h := newTestHandler(store.New())

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default when missing", "/ws", defaultInterval},
		{"valid interval", "/ws?interval=200ms", 200 * time.Millisecond},
		{"too small clamps up", "/ws?interval=1ms", minInterval},
		{"too large clamps down", "/ws?interval=20s", maxInterval},
		{"invalid falls back", "/ws?interval=bogus", defaultInterval},
		{"negative falls back", "/ws?interval=-1s", defaultInterval},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tc.u, nil)
			if got := h.parseInterval(c); got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

func TestWebSocketStreamsSnapshots(t *testing.T) {
	st := store.New()
	st.SetReading(hrs.Measurement{BPM: 88, ReceivedAt: time.Now()})

	srv := httptest.NewServer(newTestHandler(st).InitRoutes())
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = "interval=100ms"

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	// Initial snapshot arrives immediately.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env wsEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != "heart-rate" {
		t.Fatalf("type = %q, want %q", env.Type, "heart-rate")
	}
	if env.Data.BPM == nil || *env.Data.BPM != 88 {
		t.Fatalf("bpm = %v, want 88", env.Data.BPM)
	}

	// A store update is reflected in a later tick.
	st.SetReading(hrs.Measurement{BPM: 91, ReceivedAt: time.Now()})
	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		env = wsEnvelope{}
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read tick: %v", err)
		}
		if env.Data.BPM != nil && *env.Data.BPM == 91 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("never observed the updated reading")
		}
	}
}

func TestWebSocketClientClose(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(store.New()).InitRoutes())
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}

	// Closing from the client side must not wedge the server; a second
	// client connects fine afterwards.
	conn.Close()

	conn2, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("second dial error: %v", err)
	}
	defer conn2.Close()

	_ = conn2.SetReadDeadline(time.Now().Add(time.Second))
	var env wsEnvelope
	if err := conn2.ReadJSON(&env); err != nil {
		t.Fatalf("read on second connection: %v", err)
	}
}
