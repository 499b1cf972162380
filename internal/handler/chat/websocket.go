package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/bug-fixer/backend/internal/model/chat"
	chatService "github.com/zhouzirui/bug-fixer/backend/internal/service/chat"
	"github.com/zhouzirui/bug-fixer/backend/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Frame types exchanged over the websocket.
const (
	FrameSubmit  = "submit"
	FrameReset   = "reset"
	FrameSession = "session"
	FrameStatus  = "status"
	FrameError   = "error"
)

// WebSocketHandler WebSocket聊天处理器
type WebSocketHandler struct {
	chatSvc  *chatService.Service
	setupErr error
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(chatSvc *chatService.Service, setupErr error) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc:  chatSvc,
		setupErr: setupErr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SubmitMessage 用户提交的代码
type SubmitMessage struct {
	Content string `json:"content"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// wsConn serialises writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.setupErr != nil {
		utils.RespondError(w, http.StatusServiceUnavailable, SetupErrorMessage(h.setupErr))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer raw.Close()
	conn := &wsConn{conn: raw}

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	raw.SetReadDeadline(time.Now().Add(readTimeout))
	raw.SetPongHandler(func(string) error {
		raw.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.sendSession(conn, session)

	for {
		var msg inboundMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		h.handleMessage(ctx, conn, sessionID, &msg)

		// a submission may outlast the read deadline
		raw.SetReadDeadline(time.Now().Add(readTimeout))
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *wsConn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case FrameSubmit:
		h.handleSubmitMessage(ctx, conn, sessionID, msg.Data)
	case FrameReset:
		session, err := h.chatSvc.Reset(ctx, sessionID)
		if err != nil {
			h.sendError(conn, sessionID, err.Error())
			return
		}
		h.sendSession(conn, session)
	default:
		h.sendError(conn, sessionID, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleSubmitMessage(ctx context.Context, conn *wsConn, sessionID string, raw json.RawMessage) {
	var submit SubmitMessage
	if err := json.Unmarshal(raw, &submit); err != nil {
		h.sendError(conn, sessionID, "invalid submit payload")
		return
	}
	if submit.Content == "" {
		h.sendError(conn, sessionID, "content is required")
		return
	}

	h.send(conn, sessionID, FrameStatus, map[string]any{
		"state": chat.StateAwaitingReply,
		"turn":  chat.UserTurn(submit.Content),
	})

	session, err := h.chatSvc.Submit(ctx, sessionID, submit.Content)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			log.Printf("[websocket] session vanished: %s", sessionID)
		}
		h.sendError(conn, sessionID, err.Error())
		return
	}

	h.sendSession(conn, session)
}

func (h *WebSocketHandler) sendSession(conn *wsConn, session chat.Session) {
	h.send(conn, session.ID, FrameSession, session)
}

func (h *WebSocketHandler) sendError(conn *wsConn, sessionID, message string) {
	h.send(conn, sessionID, FrameError, map[string]string{"message": message})
}

func (h *WebSocketHandler) send(conn *wsConn, sessionID, frameType string, data interface{}) {
	msg := outgoingMessage{
		Type:      frameType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.writeJSON(msg); err != nil {
		log.Printf("[websocket] write %s failed: %v", frameType, err)
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *wsConn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
