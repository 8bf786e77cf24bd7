package domain

import (
	"encoding/json"
	"net/url"
	"strings"
)

// GameSnapshot is the client's transient copy of GET /games/{id}
type GameSnapshot struct {
	Status  Status   `json:"status"`
	Members []Member `json:"game_members,omitempty"`
}

// UnmarshalJSON normalizes the status string
func (g *GameSnapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status  string   `json:"status"`
		Members []Member `json:"game_members"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.Status = ParseStatus(raw.Status)
	g.Members = raw.Members
	return nil
}

// FindMember looks up a member by id
func FindMember(members []Member, id string) (Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// NightProgress is the aggregate night action completion shown to the host
type NightProgress struct {
	WolvesDone  int  `json:"wolves_done"`
	SeerDone    int  `json:"seer_done"`
	KnightDone  int  `json:"knight_done"`
	WolvesTotal int  `json:"wolves_total"`
	SeerTotal   int  `json:"seer_total"`
	KnightTotal int  `json:"knight_total"`
	AllDone     bool `json:"all_done"`
}

// Done returns the number of completed actions
func (p NightProgress) Done() int {
	return p.WolvesDone + p.SeerDone + p.KnightDone
}

// Total returns the number of expected actions
func (p NightProgress) Total() int {
	return p.WolvesTotal + p.SeerTotal + p.KnightTotal
}

// ActionStatus reports whether a member already acted this night
type ActionStatus struct {
	Done           bool   `json:"done"`
	TargetMemberID string `json:"target_member_id,omitempty"`
}

// DayVoteStatus is the body of GET /games/{id}/day_vote_status. During a
// runoff only the candidates can be voted for.
type DayVoteStatus struct {
	DayNo        int      `json:"day_no"`
	IsRunoff     bool     `json:"is_runoff"`
	CandidateIDs []string `json:"candidate_ids,omitempty"`
}

// RoleReveal is the body of GET /games/{id}/reveal_roles
type RoleReveal struct {
	Enabled bool `json:"enabled"`
}

// GamePath builds /games/{gameId}[/segment...] with every segment escaped
func GamePath(gameID string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/games/")
	b.WriteString(url.PathEscape(gameID))
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
