package diagnostics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"barkback/pkg/models"
)

func TestStreamBroadcastsToConnectedClient(t *testing.T) {
	s := NewStream()
	go s.Run()

	server := httptest.NewServer(http.HandlerFunc(s.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	time.Sleep(50 * time.Millisecond) // let the register message land

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.Publish(models.MicState{DBValue: 55})
		time.Sleep(10 * time.Millisecond)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got models.MicState
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.DBValue != 55 {
		t.Fatalf("got %+v, want DBValue=55", got)
	}
}

func TestPublishWithNoClientsDoesNotBlock(t *testing.T) {
	s := NewStream()
	go s.Run()

	done := make(chan struct{})
	go func() {
		s.Publish(models.MicState{DBValue: 1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked with no clients connected")
	}
}
