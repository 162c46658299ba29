package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"roomchat/internal/app/message"
)

type wireFrame struct {
	Type    EventType       `json:"type"`
	AckID   int64           `json:"ackId"`
	Error   string          `json:"error"`
	Payload json.RawMessage `json:"payload"`
}

func newWSServer(t *testing.T, c *Coordinator, opts ClientOptions) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client, err := NewClient(c, conn, opts)
		if err != nil {
			conn.Close()
			return
		}
		go client.WritePump()
		client.ReadPump()
	}))
	t.Cleanup(srv.Close)

	return srv
}

func defaultClientOptions() ClientOptions {
	return ClientOptions{SendQueueSize: 64, EventRate: rate.Inf, EventBurst: 1}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func emit(t *testing.T, conn *websocket.Conn, eventType EventType, ackID int64, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	in := Inbound{Type: eventType, AckID: &ackID, Payload: raw}
	if err := conn.WriteJSON(in); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

// readUntil reads frames until match accepts one, returning every frame read.
func readUntil(t *testing.T, conn *websocket.Conn, match func(wireFrame) bool) []wireFrame {
	t.Helper()

	var seen []wireFrame
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	for {
		var f wireFrame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("ReadJSON() error = %v after %+v", err, seen)
		}
		seen = append(seen, f)
		if match(f) {
			return seen
		}
	}
}

func ackFor(id int64) func(wireFrame) bool {
	return func(f wireFrame) bool { return f.Type == EventAck && f.AckID == id }
}

func TestClientJoinAndChat(t *testing.T) {
	c := newTestCoordinator()
	srv := newWSServer(t, c, defaultClientOptions())

	alice := dial(t, srv)
	emit(t, alice, EventJoin, 1, JoinPayload{Username: "Alice", Room: "Lobby"})
	frames := readUntil(t, alice, ackFor(1))

	if ack := frames[len(frames)-1]; ack.Error != "" {
		t.Fatalf("join ack error = %q", ack.Error)
	}
	if len(frames) != 3 || frames[0].Type != EventMessage || frames[1].Type != EventRoomData {
		t.Fatalf("join frames = %+v, want welcome, roomData, ack", frames)
	}

	bob := dial(t, srv)
	emit(t, bob, EventJoin, 1, JoinPayload{DisplayName: "bob", Room: "lobby"})
	readUntil(t, bob, ackFor(1))
	readUntil(t, alice, func(f wireFrame) bool { return f.Type == EventRoomData })

	emit(t, alice, EventSendMessage, 2, "hello")
	readUntil(t, alice, ackFor(2))

	got := readUntil(t, bob, func(f wireFrame) bool { return f.Type == EventMessage })
	var m message.Message
	if err := json.Unmarshal(got[len(got)-1].Payload, &m); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if m.Sender != "alice" || m.Body != "hello" {
		t.Errorf("bob received %+v, want hello from alice", m)
	}

	emit(t, bob, EventSendLocation, 3, map[string]float64{"latitude": 40, "longitude": -75})
	got = readUntil(t, alice, func(f wireFrame) bool { return f.Type == EventLocationMessage })
	var loc message.LocationShare
	if err := json.Unmarshal(got[len(got)-1].Payload, &loc); err != nil {
		t.Fatalf("decode location: %v", err)
	}
	if loc.Sender != "bob" || loc.URL != "https://www.google.com/maps?q=40,-75" {
		t.Errorf("alice received %+v", loc)
	}

	if err := bob.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got = readUntil(t, alice, func(f wireFrame) bool { return f.Type == EventRoomData })
	var roster message.RoomData
	if err := json.Unmarshal(got[len(got)-1].Payload, &roster); err != nil {
		t.Fatalf("decode roster: %v", err)
	}
	if len(roster.Users) != 1 || roster.Users[0] != "alice" {
		t.Errorf("roster after bob left = %+v", roster)
	}
}

func TestClientAckErrors(t *testing.T) {
	c := newTestCoordinator()
	srv := newWSServer(t, c, defaultClientOptions())

	first := dial(t, srv)
	emit(t, first, EventJoin, 1, JoinPayload{Username: "sam", Room: "lobby"})
	readUntil(t, first, ackFor(1))

	second := dial(t, srv)

	tests := []struct {
		name      string
		eventType EventType
		payload   any
		wantErr   string
	}{
		{"send before join", EventSendMessage, "hi", "Join a room first."},
		{"blank name", EventJoin, JoinPayload{Username: "  ", Room: "lobby"}, "Username and room are required!"},
		{"duplicate name", EventJoin, JoinPayload{Username: "SAM", Room: "lobby"}, "Username already in use!"},
		{"malformed join", EventJoin, []int{1}, "Invalid request parameters."},
		{"missing longitude", EventShareLocation, map[string]float64{"latitude": 1}, "Invalid request parameters."},
		{"join", EventJoin, JoinPayload{Username: "max", Room: "lobby"}, ""},
		{"blocked text", EventSendMessage, "shit", "Profanity is not allowed here."},
		{"non string text", EventSendMessage, 42, "Invalid request parameters."},
		{"second join", EventJoin, JoinPayload{Username: "other", Room: "lobby"}, "Already joined a room."},
	}

	for i, tt := range tests {
		id := int64(100 + i)
		emit(t, second, tt.eventType, id, tt.payload)
		frames := readUntil(t, second, ackFor(id))
		if got := frames[len(frames)-1].Error; got != tt.wantErr {
			t.Errorf("%s: ack error = %q, want %q", tt.name, got, tt.wantErr)
		}
	}
}

func TestClientEventRateLimit(t *testing.T) {
	c := newTestCoordinator()
	srv := newWSServer(t, c, ClientOptions{SendQueueSize: 64, EventRate: rate.Every(time.Hour), EventBurst: 1})

	conn := dial(t, srv)
	emit(t, conn, EventJoin, 1, JoinPayload{Username: "alice", Room: "lobby"})
	readUntil(t, conn, ackFor(1))

	emit(t, conn, EventSendMessage, 2, "hello")
	frames := readUntil(t, conn, ackFor(2))
	if got := frames[len(frames)-1].Error; got != "You are sending messages too fast." {
		t.Errorf("ack error = %q, want rate limit error", got)
	}
}

func TestClientClosedOnShutdown(t *testing.T) {
	c := newTestCoordinator()
	srv := newWSServer(t, c, defaultClientOptions())

	conn := dial(t, srv)
	emit(t, conn, EventJoin, 1, JoinPayload{Username: "alice", Room: "lobby"})
	readUntil(t, conn, ackFor(1))

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- c.Shutdown(ctx)
	}()

	frames := readUntil(t, conn, func(f wireFrame) bool { return f.Type == EventMessage })
	var m message.Message
	if err := json.Unmarshal(frames[len(frames)-1].Payload, &m); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if m.Body != "Server is shutting down." {
		t.Errorf("message = %+v, want shutdown notice", m)
	}

	var f wireFrame
	err := conn.ReadJSON(&f)
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("ReadJSON() error = %v, want going-away close", err)
	}

	if err := <-done; err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
