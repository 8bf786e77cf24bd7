package ws

import "encoding/json"

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgSubscribe MessageType = "subscribe"
	MsgPing      MessageType = "ping"
)

// Server → Client message types
const (
	MsgStatusChanged MessageType = "status_changed"
	MsgGameFinished  MessageType = "game_finished"
	MsgError         MessageType = "error"
	MsgPong          MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// NewClientMessage creates a new client message
func NewClientMessage(msgType MessageType, payload interface{}) *ClientMessage {
	return &ClientMessage{
		Type:    msgType,
		Payload: payload,
	}
}

// Client message payloads

// SubscribePayload is the payload for subscribe message
type SubscribePayload struct {
	GameID string `json:"gameId"`
}

// Server message payloads

// StatusChangedPayload is the payload for status_changed message
type StatusChangedPayload struct {
	GameID string `json:"gameId"`
	Status string `json:"status"`
}

// GameFinishedPayload is the payload for game_finished message
type GameFinishedPayload struct {
	GameID string `json:"gameId"`
	Result string `json:"result"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
