package app

import (
	"context"
	"encoding/json"
	"fmt"

	"werewolf-client/internal/domain"
)

// CodeAlreadyActed is the structured error code for a repeated night action.
// Servers that do not send codes are matched on their detail text instead.
const CodeAlreadyActed = "ALREADY_ACTED"

// ActionTexts holds the role specific texts of a night screen
type ActionTexts struct {
	Title        string
	SelectPrompt string
	DoneStatus   string
	RoleMismatch string
	AlreadyDone  string
}

// NightAction describes one role's action: where it is sent, what is sent,
// and how the answer is shown. The day vote uses the same contract with
// RoleUnknown, meaning any living player may act.
type NightAction interface {
	Role() domain.Role
	Screen() domain.Screen
	Texts() ActionTexts
	Endpoint(gameID string, me domain.SelfInfo) string
	RequestBody(me domain.SelfInfo, target domain.Member) any
	SuccessMessage(data []byte, target domain.Member) string

	// AlreadyActedPhrases lists detail fragments meaning "you already did
	// this tonight". Matching is case-insensitive.
	AlreadyActedPhrases() []string
}

// AlreadyDoneChecker is implemented by actions that can ask the server
// whether the player already acted tonight.
type AlreadyDoneChecker interface {
	CheckDone(ctx context.Context, api GameAPI, gameID string, me domain.SelfInfo) (done bool, targetID string, err error)
}

// CandidateFilter is implemented by actions whose valid targets the server
// can narrow down. A nil result means every selectable member is allowed.
type CandidateFilter interface {
	Candidates(ctx context.Context, api GameAPI, gameID string) ([]string, error)
}

// roleMatches reports whether role may perform action
func roleMatches(action NightAction, role domain.Role) bool {
	return action.Role() == domain.RoleUnknown || action.Role() == role
}

// ActionForScreen returns the night action driving a screen
func ActionForScreen(screen domain.Screen) (NightAction, bool) {
	switch screen {
	case domain.ScreenNightSeer:
		return SeerAction{}, true
	case domain.ScreenNightKnight:
		return KnightAction{}, true
	case domain.ScreenNightAttack:
		return WerewolfAction{PriorityLevel: 1}, true
	}
	return nil, false
}

// checkActionStatus asks the server whether the member acted tonight
func checkActionStatus(ctx context.Context, api GameAPI, gameID string, me domain.SelfInfo) (bool, string, error) {
	status, err := api.FetchActionStatus(ctx, gameID, me.GameMemberID)
	if err != nil {
		return false, "", err
	}
	return status.Done, status.TargetMemberID, nil
}

// SeerAction inspects one player per night
type SeerAction struct{}

func (SeerAction) Role() domain.Role     { return domain.RoleSeer }
func (SeerAction) Screen() domain.Screen { return domain.ScreenNightSeer }

func (SeerAction) Texts() ActionTexts {
	return ActionTexts{
		Title:        "Night - Seer",
		SelectPrompt: "Choose a player to inspect.",
		DoneStatus:   "Your inspection for tonight is complete.",
		RoleMismatch: "You are not the seer; this screen cannot be used.",
	}
}

func (SeerAction) Endpoint(gameID string, me domain.SelfInfo) string {
	return domain.GamePath(gameID, "seer", me.GameMemberID, "inspect")
}

func (SeerAction) RequestBody(_ domain.SelfInfo, target domain.Member) any {
	return map[string]string{"target_member_id": target.ID}
}

func (SeerAction) SuccessMessage(data []byte, target domain.Member) string {
	var out struct {
		TargetDisplayName string `json:"target_display_name"`
		IsWolf            bool   `json:"is_wolf"`
	}
	name := target.Label()
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Sprintf("You inspected %s.", name)
	}
	if out.TargetDisplayName != "" {
		name = out.TargetDisplayName
	}
	if out.IsWolf {
		return fmt.Sprintf("%s is a werewolf.", name)
	}
	return fmt.Sprintf("%s is not a werewolf.", name)
}

func (SeerAction) AlreadyActedPhrases() []string {
	return []string{"Seer already inspected someone this night", "already inspected"}
}

func (SeerAction) CheckDone(ctx context.Context, api GameAPI, gameID string, me domain.SelfInfo) (bool, string, error) {
	return checkActionStatus(ctx, api, gameID, me)
}

// KnightAction guards one player per night
type KnightAction struct{}

func (KnightAction) Role() domain.Role     { return domain.RoleKnight }
func (KnightAction) Screen() domain.Screen { return domain.ScreenNightKnight }

func (KnightAction) Texts() ActionTexts {
	return ActionTexts{
		Title:        "Night - Knight",
		SelectPrompt: "Choose a player to guard.",
		DoneStatus:   "Your guard for tonight is set.",
		RoleMismatch: "You are not the knight; this screen cannot be used.",
	}
}

func (KnightAction) Endpoint(gameID string, me domain.SelfInfo) string {
	return domain.GamePath(gameID, "knight", me.GameMemberID, "guard")
}

func (KnightAction) RequestBody(_ domain.SelfInfo, target domain.Member) any {
	return map[string]string{"target_member_id": target.ID}
}

func (KnightAction) SuccessMessage(_ []byte, target domain.Member) string {
	return fmt.Sprintf("You are guarding %s tonight.", target.Label())
}

func (KnightAction) AlreadyActedPhrases() []string {
	return []string{"already guarded"}
}

func (KnightAction) CheckDone(ctx context.Context, api GameAPI, gameID string, me domain.SelfInfo) (bool, string, error) {
	return checkActionStatus(ctx, api, gameID, me)
}

// WerewolfAction votes for tonight's attack target. The server keeps one
// vote per wolf and overwrites it, so there is no done pre-check.
type WerewolfAction struct {
	PriorityLevel int
}

func (WerewolfAction) Role() domain.Role     { return domain.RoleWerewolf }
func (WerewolfAction) Screen() domain.Screen { return domain.ScreenNightAttack }

func (WerewolfAction) Texts() ActionTexts {
	return ActionTexts{
		Title:        "Night - Werewolf",
		SelectPrompt: "Choose a player to attack.",
		DoneStatus:   "Your attack vote for tonight is recorded.",
		RoleMismatch: "You are not a werewolf; this screen cannot be used.",
	}
}

func (WerewolfAction) Endpoint(gameID string, _ domain.SelfInfo) string {
	return domain.GamePath(gameID, "wolves", "vote")
}

func (a WerewolfAction) RequestBody(me domain.SelfInfo, target domain.Member) any {
	level := a.PriorityLevel
	if level < 1 || level > 3 {
		level = 1
	}
	return map[string]any{
		"wolf_member_id":   me.GameMemberID,
		"target_member_id": target.ID,
		"priority_level":   level,
	}
}

func (WerewolfAction) SuccessMessage(_ []byte, target domain.Member) string {
	return fmt.Sprintf("You voted to attack %s.", target.Label())
}

func (WerewolfAction) AlreadyActedPhrases() []string {
	return []string{"already voted"}
}

// DayVoteAction votes for today's execution. Every living player votes;
// during a runoff only the runoff candidates can be chosen.
type DayVoteAction struct{}

func (DayVoteAction) Role() domain.Role     { return domain.RoleUnknown }
func (DayVoteAction) Screen() domain.Screen { return domain.ScreenMorning }

func (DayVoteAction) Texts() ActionTexts {
	return ActionTexts{
		Title:        "Day - Vote",
		SelectPrompt: "Choose a player to vote for.",
		DoneStatus:   "Your vote is in. Wait for the host to close the vote.",
		AlreadyDone:  "You have already voted today.",
	}
}

func (DayVoteAction) Endpoint(gameID string, _ domain.SelfInfo) string {
	return domain.GamePath(gameID, "day_vote")
}

func (DayVoteAction) RequestBody(me domain.SelfInfo, target domain.Member) any {
	return map[string]string{
		"voter_member_id":  me.GameMemberID,
		"target_member_id": target.ID,
	}
}

func (DayVoteAction) SuccessMessage(_ []byte, target domain.Member) string {
	return fmt.Sprintf("You voted for %s.", target.Label())
}

func (DayVoteAction) AlreadyActedPhrases() []string {
	return []string{"already voted"}
}

func (DayVoteAction) Candidates(ctx context.Context, api GameAPI, gameID string) ([]string, error) {
	status, err := api.FetchDayVoteStatus(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !status.IsRunoff {
		return nil, nil
	}
	return status.CandidateIDs, nil
}
