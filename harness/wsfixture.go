package harness

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/websocket"
)

// wsFixture is the harness's in-process WebSocket backend: a real
// gorilla/websocket server, loopback-dialed with the real client, not a
// hand-rolled substitute. Grounded directly on the teacher's
// tests/ws/server.go (Upgrader/NextWriter) and its DefaultDialer.Dial
// client-side callers (cloudapi/logs.go, tests/test_browser_proxy.go).
//
// Each registered mock plays back a fixed transcript and then closes the
// connection — there is no back-channel from the evaluator's `send()` to
// the server, matching the single-threaded, no-true-parallelism evaluator
// this backs (eval.Evaluator.wsDial's doc comment).
type wsFixture struct {
	mu      sync.Mutex
	servers map[string]*httptest.Server
}

func newWSFixture() *wsFixture {
	return &wsFixture{servers: make(map[string]*httptest.Server)}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// register starts (or restarts) a local server that, once a client
// connects, writes each of messages as a text frame and then closes.
func (f *wsFixture) register(logicalURL string, messages []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.servers[logicalURL]; ok {
		old.Close()
	}
	f.servers[logicalURL] = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			wr, err := conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			if _, err := wr.Write([]byte(m)); err != nil {
				return
			}
			if err := wr.Close(); err != nil {
				return
			}
		}
	}))
}

// dial connects to the server registered for logicalURL and reads every
// frame it sends until the connection closes, returning them in order.
// Runs to completion before returning — the "connect, send the script,
// hang up" exchange is synchronous from the evaluator's point of view.
func (f *wsFixture) dial(logicalURL string) ([]string, error) {
	f.mu.Lock()
	srv, ok := f.servers[logicalURL]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("websocket: no mock registered for %q", logicalURL)
	}
	wsURL := "ws" + srv.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket: dialing mock for %q: %w", logicalURL, err)
	}
	defer conn.Close()
	var messages []string
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		messages = append(messages, string(data))
	}
	return messages, nil
}

func (f *wsFixture) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, srv := range f.servers {
		srv.Close()
	}
}
