package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/bug-fixer/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/bug-fixer/backend/internal/service/chat"
)

type testFrame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

func newWSServer(t *testing.T, completer chatservice.Completer, setupErr error) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	chatSvc := chatservice.NewService(chatservice.NewDriver(completer))
	handler := NewWebSocketHandler(chatSvc, setupErr)

	r := chi.NewRouter()
	handler.RegisterWebSocketRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, chatSvc
}

func wsURL(srv *httptest.Server, sessionID string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
}

func readFrame(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame testFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func frameSession(t *testing.T, frame testFrame) chat.Session {
	t.Helper()
	if frame.Type != FrameSession {
		t.Fatalf("expected session frame, got %s: %s", frame.Type, frame.Data)
	}
	var session chat.Session
	if err := json.Unmarshal(frame.Data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func TestWebSocketSubmitAndReset(t *testing.T) {
	srv, chatSvc := newWSServer(t, &stubCompleter{reply: "fixed"}, nil)
	session, _ := chatSvc.CreateSession(context.Background())

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, session.ID), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	initial := frameSession(t, readFrame(t, conn))
	if initial.ID != session.ID || len(initial.Turns) != 1 {
		t.Fatalf("unexpected initial snapshot: %+v", initial)
	}

	if err := conn.WriteJSON(map[string]any{
		"type": FrameSubmit,
		"data": map[string]string{"content": "def f(: pass"},
	}); err != nil {
		t.Fatalf("write submit: %v", err)
	}

	status := readFrame(t, conn)
	if status.Type != FrameStatus || !strings.Contains(string(status.Data), string(chat.StateAwaitingReply)) {
		t.Fatalf("unexpected status frame: %+v", status)
	}

	updated := frameSession(t, readFrame(t, conn))
	if len(updated.Turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(updated.Turns))
	}
	if !strings.HasPrefix(updated.Turns[2].Content, "fixed\n\n⏱️ **Response Time:** ") {
		t.Fatalf("unexpected reply: %q", updated.Turns[2].Content)
	}

	if err := conn.WriteJSON(map[string]string{"type": FrameReset}); err != nil {
		t.Fatalf("write reset: %v", err)
	}
	cleared := frameSession(t, readFrame(t, conn))
	if len(cleared.Turns) != 1 || cleared.Turns[0].Content != chatservice.ClearedMessage {
		t.Fatalf("unexpected turns after reset: %+v", cleared.Turns)
	}
}

func TestWebSocketRejectsUnknownFrame(t *testing.T) {
	srv, chatSvc := newWSServer(t, &stubCompleter{}, nil)
	session, _ := chatSvc.CreateSession(context.Background())

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, session.ID), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readFrame(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if frame := readFrame(t, conn); frame.Type != FrameError {
		t.Fatalf("expected error frame, got %s", frame.Type)
	}

	if err := conn.WriteJSON(map[string]any{"type": FrameSubmit, "data": map[string]string{"content": ""}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if frame := readFrame(t, conn); frame.Type != FrameError {
		t.Fatalf("expected error frame for empty content, got %s", frame.Type)
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	srv, _ := newWSServer(t, &stubCompleter{}, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "missing"), nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}

func TestWebSocketSetupError(t *testing.T) {
	srv, _ := newWSServer(t, &stubCompleter{}, errors.New("no key"))

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "any"), nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 response, got %+v", resp)
	}
}
