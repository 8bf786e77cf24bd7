package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"NIGHT":          StatusNight,
		" night ":        StatusNight,
		"day_discussion": StatusDayDiscussion,
		"Wolf_Win":       StatusWolfWin,
		"":               StatusUnknown,
		"something_else": Status("SOMETHING_ELSE"),
	}
	for raw, want := range tests {
		if got := ParseStatus(raw); got != want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"WEREWOLF": RoleWerewolf,
		"wolf":     RoleWerewolf,
		" Seer ":   RoleSeer,
		"knight":   RoleKnight,
		"":         RoleUnknown,
		"bard":     Role("bard"),
	}
	for raw, want := range tests {
		if got := ParseRole(raw); got != want {
			t.Fatalf("ParseRole(%q) = %q, want %q", raw, got, want)
		}
	}
	if RoleUnknown.String() != "unknown" {
		t.Fatalf("unexpected unknown role string %q", RoleUnknown.String())
	}
}

func TestJudgeResultIsTerminal(t *testing.T) {
	tests := map[JudgeOutcome]bool{
		OutcomeOngoing:    false,
		"ongoing":         false,
		"":                false,
		OutcomeWolfWin:    true,
		OutcomeVillageWin: true,
		"DRAW":            true,
	}
	for result, want := range tests {
		if got := (JudgeResult{Result: result}).IsTerminal(); got != want {
			t.Fatalf("IsTerminal(%q) = %v, want %v", result, got, want)
		}
	}
}

func TestMemberUnmarshal(t *testing.T) {
	var members []Member
	data := `[
		{"id":"a","display_name":"Ann","alive":false},
		{"id":7,"name":"Bob","is_alive":true},
		{"id":"c"}
	]`
	if err := json.Unmarshal([]byte(data), &members); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if members[0].IsAlive || members[0].DisplayName != "Ann" {
		t.Fatalf("unexpected first member %+v", members[0])
	}
	if members[1].ID != "7" || members[1].DisplayName != "Bob" || !members[1].IsAlive {
		t.Fatalf("unexpected second member %+v", members[1])
	}
	if !members[2].IsAlive || members[2].Label() != "Player c" {
		t.Fatalf("missing alive flag should mean alive, got %+v", members[2])
	}
}

func TestSelfInfoUnmarshal(t *testing.T) {
	var me SelfInfo
	data := `{"game_id":"g1","player_id":12,"game_member_id":"m1","role":"Wolf","is_host":true,"status":"DEAD"}`
	if err := json.Unmarshal([]byte(data), &me); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if me.PlayerID != "12" || me.Role != RoleWerewolf || !me.IsHost || !me.IsDead() {
		t.Fatalf("unexpected self info %+v", me)
	}
}

func TestLocationURL(t *testing.T) {
	loc, err := NewLocation(ScreenNightSeer, "g 1", "p&1")
	if err != nil {
		t.Fatalf("new location: %v", err)
	}

	parsed, err := ParseLocation(loc.URL())
	if err != nil {
		t.Fatalf("parse %q: %v", loc.URL(), err)
	}
	if parsed != loc {
		t.Fatalf("round trip changed location: %+v != %+v", parsed, loc)
	}

	if got := loc.To(ScreenDay).URL(); got != "/frontend/day.html?game_id=g+1&player_id=p%261" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestParseLocationErrors(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{"/frontend/day.html?player_id=p", ErrMissingParam},
		{"/frontend/day.html?game_id=g", ErrMissingParam},
		{"/frontend/casino.html?game_id=g&player_id=p", ErrUnknownScreen},
	}
	for _, tt := range tests {
		if _, err := ParseLocation(tt.raw); !errors.Is(err, tt.want) {
			t.Fatalf("ParseLocation(%q): expected %v, got %v", tt.raw, tt.want, err)
		}
	}

	loc, err := ParseLocation("http://host:8000/frontend/knight_night.html?game_id=g&player_id=p")
	if err != nil || loc.Screen != ScreenNightKnight {
		t.Fatalf("absolute url: %+v %v", loc, err)
	}
}

func TestScreens(t *testing.T) {
	for _, s := range Screens() {
		if !s.Valid() {
			t.Fatalf("screen %q not valid", s)
		}
	}
	if Screen("lobby").Valid() {
		t.Fatal("unknown screen reported valid")
	}
	if !ScreenNightWait.IsNight() || ScreenDay.IsNight() {
		t.Fatal("unexpected IsNight")
	}
}

func TestMemberRevealedRole(t *testing.T) {
	var m Member
	if err := json.Unmarshal([]byte(`{"id":"a","display_name":"Ann","role_type":"WEREWOLF"}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Role != RoleWerewolf {
		t.Fatalf("expected werewolf, got %q", m.Role)
	}
}

func TestGamePath(t *testing.T) {
	if got := GamePath("g 1", "seer", "m/1", "inspect"); got != "/games/g%201/seer/m%2F1/inspect" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := GamePath("g1"); got != "/games/g1" {
		t.Fatalf("unexpected path %q", got)
	}
}
