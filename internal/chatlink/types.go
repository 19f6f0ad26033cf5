// Package chatlink talks to the chat relay: websocket ingress, HTTP or websocket replies.
package chatlink

// WebSocketState is the ingress connection lifecycle.
type WebSocketState string

const (
	WSStateDisconnected WebSocketState = "disconnected"
	WSStateConnecting   WebSocketState = "connecting"
	WSStateConnected    WebSocketState = "connected"
	WSStateReconnecting WebSocketState = "reconnecting"
	WSStateFailed       WebSocketState = "failed"
)

// Message is one inbound chat line.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

type MessageJSON struct {
	UserID  string `json:"user_id"`
	Message string `json:"message,omitempty"`
	ChatID  string `json:"chat_id,omitempty"`
}

// UserID prefers the structured user id, then the sender name.
func (m *Message) UserID() string {
	if m == nil {
		return ""
	}
	if m.JSON != nil && m.JSON.UserID != "" {
		return m.JSON.UserID
	}
	if m.Sender != nil {
		return *m.Sender
	}
	return ""
}

// SenderName is the display name, or "player" when unknown.
func (m *Message) SenderName() string {
	if m != nil && m.Sender != nil && *m.Sender != "" {
		return *m.Sender
	}
	if id := m.UserID(); id != "" {
		return id
	}
	return "player"
}

// Config is the relay's /config response.
type Config struct {
	Port              int    `json:"port"`
	PollingSpeed      int    `json:"polling_speed"`
	MessageRate       int    `json:"message_rate"`
	WebserverEndpoint string `json:"web_server_endpoint"`
}

// ReplyRequest is sent to /reply or as a websocket frame. Type is "text" or "image".
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}
