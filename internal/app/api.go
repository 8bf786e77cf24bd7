package app

import (
	"context"

	"werewolf-client/internal/domain"
)

// GameAPI is the subset of the game server API the client uses. Every value
// returned may already be stale: the server can advance the phase at any time.
type GameAPI interface {
	FetchSelf(ctx context.Context, gameID, playerID string) (domain.SelfInfo, error)
	FetchRoster(ctx context.Context, gameID string) ([]domain.Member, error)
	FetchGame(ctx context.Context, gameID string) (domain.GameSnapshot, error)
	FetchNightProgress(ctx context.Context, gameID string) (domain.NightProgress, error)
	FetchJudge(ctx context.Context, gameID string) (domain.JudgeResult, error)
	FetchActionStatus(ctx context.Context, gameID, memberID string) (domain.ActionStatus, error)
	FetchDayVoteStatus(ctx context.Context, gameID string) (domain.DayVoteStatus, error)
	FetchRevealRoles(ctx context.Context, gameID string) (domain.RoleReveal, error)
	PostAction(ctx context.Context, path string, body any) ([]byte, error)
}

// Navigator moves the client between screens
type Navigator interface {
	// Current returns the location being shown
	Current() domain.Location

	// Navigate leaves the current screen for to. With replace the current
	// history entry is overwritten, so going back cannot return to it. It
	// returns false when the navigation was ignored.
	Navigate(to domain.Location, replace bool) bool
}

// View renders screen state. Implementations must be safe for concurrent use.
type View interface {
	ShowScreen(loc domain.Location)
	ShowNotice(text string)
	ShowNight(state NightState)
	ShowHost(state HostState)
	ShowRoster(members []domain.Member)
	ShowResult(result domain.JudgeResult, members []domain.Member)
}
