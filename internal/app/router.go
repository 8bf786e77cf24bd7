package app

import (
	"context"
	"fmt"
	"log/slog"

	"werewolf-client/internal/domain"
)

// RouteFor maps a server status and the player's role to the screen the
// player should be looking at. The role only matters at night.
func RouteFor(status domain.Status, role domain.Role) domain.Screen {
	switch status {
	case domain.StatusNight:
		switch role {
		case domain.RoleWerewolf:
			return domain.ScreenNightAttack
		case domain.RoleSeer:
			return domain.ScreenNightSeer
		case domain.RoleKnight:
			return domain.ScreenNightKnight
		default:
			return domain.ScreenNightWait
		}
	case domain.StatusDay:
		return domain.ScreenDay
	case domain.StatusMorning, domain.StatusDayDiscussion:
		return domain.ScreenMorning
	default:
		return domain.ScreenRoleConfirm
	}
}

// Router computes and applies the destination for the current phase
type Router struct {
	api    GameAPI
	logger *slog.Logger
}

// NewRouter creates a new router
func NewRouter(api GameAPI, logger *slog.Logger) *Router {
	return &Router{api: api, logger: logger}
}

// Destination fetches the game (and, at night, the player's role) and
// returns the screen the player belongs on.
func (r *Router) Destination(ctx context.Context, gameID, playerID string) (domain.Screen, error) {
	game, err := r.api.FetchGame(ctx, gameID)
	if err != nil {
		return "", fmt.Errorf("fetch game: %w", err)
	}

	var role domain.Role
	if game.Status.IsNight() {
		me, err := r.api.FetchSelf(ctx, gameID, playerID)
		if err != nil {
			return "", fmt.Errorf("fetch self: %w", err)
		}
		role = me.Role
	}

	return RouteFor(game.Status, role), nil
}

// GotoCurrentPhase navigates to the current phase's screen, replacing the
// history entry. It reports whether a navigation was issued.
func (r *Router) GotoCurrentPhase(ctx context.Context, nav Navigator) (bool, error) {
	return r.Goto(ctx, nav, true)
}

// Goto navigates to the current phase's screen unless the player is already
// there, which keeps repeated polling from reloading the same screen.
func (r *Router) Goto(ctx context.Context, nav Navigator, replace bool) (bool, error) {
	cur := nav.Current()

	dest, err := r.Destination(ctx, cur.GameID, cur.PlayerID)
	if err != nil {
		return false, err
	}

	if dest == cur.Screen {
		return false, nil
	}

	r.logger.Info("routing to phase screen", "from", cur.Screen, "to", dest, "gameID", cur.GameID)
	return nav.Navigate(cur.To(dest), replace), nil
}
