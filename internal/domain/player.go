package domain

import (
	"encoding/json"
	"strings"
)

// LifeStatus is the alive/dead status reported by /me
type LifeStatus string

const (
	LifeAlive LifeStatus = "alive"
	LifeDead  LifeStatus = "dead"
)

// Member is one entry of the game roster
type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsAlive     bool   `json:"is_alive"`

	// Role is only sent once roles are revealed
	Role Role `json:"role_type,omitempty"`
}

// UnmarshalJSON accepts both the roster shape (alive, display_name) and the
// older game_members shape (is_alive, name). A missing alive flag means alive.
func (m *Member) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          json.RawMessage `json:"id"`
		DisplayName string          `json:"display_name"`
		Name        string          `json:"name"`
		Alive       *bool           `json:"alive"`
		IsAlive     *bool           `json:"is_alive"`
		RoleType    string          `json:"role_type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.ID = rawID(raw.ID)
	m.DisplayName = raw.DisplayName
	if m.DisplayName == "" {
		m.DisplayName = raw.Name
	}

	m.Role = ParseRole(raw.RoleType)

	m.IsAlive = true
	if raw.IsAlive != nil {
		m.IsAlive = *raw.IsAlive
	} else if raw.Alive != nil {
		m.IsAlive = *raw.Alive
	}
	return nil
}

// Label returns the name to show for the member
func (m Member) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return "Player " + m.ID
}

// SelfInfo is the calling player's identity, as returned by /me
type SelfInfo struct {
	GameID       string     `json:"game_id"`
	PlayerID     string     `json:"player_id"`
	GameMemberID string     `json:"game_member_id"`
	Role         Role       `json:"role"`
	IsHost       bool       `json:"is_host"`
	Status       LifeStatus `json:"status"`
}

// UnmarshalJSON normalizes role and status
func (s *SelfInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		GameID       json.RawMessage `json:"game_id"`
		PlayerID     json.RawMessage `json:"player_id"`
		GameMemberID json.RawMessage `json:"game_member_id"`
		Role         string          `json:"role"`
		IsHost       bool            `json:"is_host"`
		Status       string          `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.GameID = rawID(raw.GameID)
	s.PlayerID = rawID(raw.PlayerID)
	s.GameMemberID = rawID(raw.GameMemberID)
	s.Role = ParseRole(raw.Role)
	s.IsHost = raw.IsHost
	s.Status = LifeStatus(strings.ToLower(strings.TrimSpace(raw.Status)))
	return nil
}

// IsDead returns true if the server reports the player as dead
func (s SelfInfo) IsDead() bool {
	return s.Status == LifeDead
}

// rawID renders a JSON string or number id as a string
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
