package chatlink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.Header.Get("X-User-Id") != "bot" {
			t.Errorf("missing header")
		}
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var req ReplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Type != "text" || req.Room != "room1" {
			t.Errorf("bad request %+v err=%v", req, err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHeaderProvider(func() map[string]string { return map[string]string{"X-User-Id": "bot", "X-Empty": ""} }))
	if err := c.SendMessage(context.Background(), "room1", "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestClientNoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).SendImage(context.Background(), "room1", "aGk=")
	if err == nil || !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestGetConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"port":3000,"polling_speed":100,"message_rate":5,"web_server_endpoint":"http://x"}`))
	}))
	defer srv.Close()
	cfg, err := NewClient(srv.URL + "/").GetConfig(context.Background())
	if err != nil || cfg.Port != 3000 || cfg.WebserverEndpoint != "http://x" {
		t.Fatalf("cfg=%+v err=%v", cfg, err)
	}
}

func TestWebSocketIngressAndEgress(t *testing.T) {
	replies := make(chan ReplyRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		sender := "alice"
		_ = wsjson.Write(r.Context(), conn, Message{Msg: "!help", Room: "room1", Sender: &sender})
		var rep ReplyRequest
		if err := wsjson.Read(r.Context(), conn, &rep); err == nil {
			replies <- rep
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _, _ = conn.Read(ctx) // until the client closes
	}))
	defer srv.Close()

	ws := NewWebSocket("ws"+strings.TrimPrefix(srv.URL, "http"), 0, 0, nil)
	got := make(chan *Message, 1)
	ws.OnMessage(func(m *Message) { got <- m })
	if err := ws.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer ws.Close(context.Background())

	select {
	case m := <-got:
		if m.Msg != "!help" || m.SenderName() != "alice" || m.UserID() != "alice" {
			t.Fatalf("message = %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message")
	}

	eg := NewEgress(ModeAuto, false, nil, ws, nil)
	if err := eg.SendText(context.Background(), "room1", "hi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	select {
	case rep := <-replies:
		if rep.Type != "text" || rep.Data != "hi" {
			t.Fatalf("reply = %+v", rep)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no reply frame")
	}
}

func TestDryRunEgress(t *testing.T) {
	eg := NewEgress(ModeHTTP, true, nil, nil, nil)
	if err := eg.SendText(context.Background(), "r", "x"); err != nil {
		t.Fatalf("dryrun SendText: %v", err)
	}
	if err := NewEgress(ModeHTTP, false, nil, nil, nil).SendText(context.Background(), "r", "x"); err == nil {
		t.Fatalf("expected error without client")
	}
}
