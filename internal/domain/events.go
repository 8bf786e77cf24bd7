package domain

import "time"

// EventType represents the type of a pushed game event
type EventType string

const (
	EventStatusChanged EventType = "STATUS_CHANGED"
	EventGameFinished  EventType = "GAME_FINISHED"
)

// GameEvent is a status notification pushed by the server
type GameEvent struct {
	Type      EventType    `json:"type"`
	GameID    string       `json:"gameId"`
	Status    Status       `json:"status,omitempty"`
	Result    JudgeOutcome `json:"result,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewStatusEvent creates a status change event
func NewStatusEvent(gameID string, status Status) *GameEvent {
	return &GameEvent{
		Type:      EventStatusChanged,
		GameID:    gameID,
		Status:    status,
		Timestamp: time.Now(),
	}
}

// NewFinishedEvent creates a game finished event
func NewFinishedEvent(gameID string, result JudgeOutcome) *GameEvent {
	return &GameEvent{
		Type:      EventGameFinished,
		GameID:    gameID,
		Result:    result,
		Timestamp: time.Now(),
	}
}
