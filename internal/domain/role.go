package domain

import "strings"

// Role represents a player's role as reported by /me
type Role string

const (
	RoleUnknown  Role = ""
	RoleWerewolf Role = "werewolf"
	RoleSeer     Role = "seer"
	RoleKnight   Role = "knight"
	RoleMedium   Role = "medium"
	RoleMadman   Role = "madman"
	RoleVillager Role = "villager"
)

// ParseRole normalizes the role string. The server is not consistent about
// case, and "wolf" is used interchangeably with "werewolf".
func ParseRole(raw string) Role {
	r := strings.ToLower(strings.TrimSpace(raw))
	switch r {
	case "wolf", "werewolf":
		return RoleWerewolf
	}
	return Role(r)
}

// String returns the string representation of the role
func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// HasNightAction returns true if the role acts during the night
func (r Role) HasNightAction() bool {
	switch r {
	case RoleWerewolf, RoleSeer, RoleKnight:
		return true
	}
	return false
}
