package domain

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Screen identifies a destination the client can show
type Screen string

const (
	ScreenRoleConfirm Screen = "role_confirm"
	ScreenNightAttack Screen = "night_wolf_attack"
	ScreenNightSeer   Screen = "seer_night"
	ScreenNightKnight Screen = "knight_night"
	ScreenNightWait   Screen = "night_wait"
	ScreenDay         Screen = "day"
	ScreenMorning     Screen = "morning"
	ScreenSpectator   Screen = "spectator"
	ScreenResult      Screen = "result"
)

// ScreenPrefix is the path all screens are served under
const ScreenPrefix = "/frontend/"

var screens = []Screen{
	ScreenRoleConfirm,
	ScreenNightAttack,
	ScreenNightSeer,
	ScreenNightKnight,
	ScreenNightWait,
	ScreenDay,
	ScreenMorning,
	ScreenSpectator,
	ScreenResult,
}

// Screens returns every known screen
func Screens() []Screen {
	out := make([]Screen, len(screens))
	copy(out, screens)
	return out
}

// String returns the string representation of the screen
func (s Screen) String() string {
	return string(s)
}

// Page returns the page file name of the screen
func (s Screen) Page() string {
	return string(s) + ".html"
}

// Valid reports whether the screen is one of the known screens
func (s Screen) Valid() bool {
	for _, known := range screens {
		if s == known {
			return true
		}
	}
	return false
}

// IsNight reports whether the screen belongs to the night phase
func (s Screen) IsNight() bool {
	switch s {
	case ScreenNightAttack, ScreenNightSeer, ScreenNightKnight, ScreenNightWait:
		return true
	}
	return false
}

// Location is a screen bound to a game and player
type Location struct {
	Screen   Screen
	GameID   string
	PlayerID string
}

// NewLocation returns a location after checking both ids are present
func NewLocation(screen Screen, gameID, playerID string) (Location, error) {
	if gameID == "" {
		return Location{}, fmt.Errorf("game_id: %w", ErrMissingParam)
	}
	if playerID == "" {
		return Location{}, fmt.Errorf("player_id: %w", ErrMissingParam)
	}
	return Location{Screen: screen, GameID: gameID, PlayerID: playerID}, nil
}

// To returns the same game and player on another screen
func (l Location) To(screen Screen) Location {
	l.Screen = screen
	return l
}

// URL renders the location as a relative screen URL
func (l Location) URL() string {
	q := url.Values{}
	q.Set("game_id", l.GameID)
	q.Set("player_id", l.PlayerID)
	return ScreenPrefix + l.Screen.Page() + "?" + q.Encode()
}

// String returns the URL of the location
func (l Location) String() string {
	return l.URL()
}

// ParseLocation parses a screen URL such as
// /frontend/seer_night.html?game_id=g&player_id=p. Both query parameters are
// mandatory.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse location: %w", err)
	}

	name := strings.TrimSuffix(path.Base(u.Path), ".html")
	screen := Screen(name)
	if !screen.Valid() {
		return Location{}, fmt.Errorf("%q: %w", name, ErrUnknownScreen)
	}

	q := u.Query()
	return NewLocation(screen, q.Get("game_id"), q.Get("player_id"))
}
