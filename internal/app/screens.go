package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"werewolf-client/internal/domain"
	httpTransport "werewolf-client/internal/transport/http"
)

// CommandKind is a player command typed on a screen
type CommandKind string

const (
	CmdSelect  CommandKind = "select"
	CmdSubmit  CommandKind = "submit"
	CmdAdvance CommandKind = "advance"
	CmdRefresh CommandKind = "refresh"
	CmdReveal  CommandKind = "reveal"
	CmdUnknown CommandKind = "unknown"
)

// Command is a parsed input line
type Command struct {
	Kind  CommandKind
	Index int // 1-based card number for CmdSelect
}

// ParseCommand parses one input line. A bare number selects that card.
func ParseCommand(line string) Command {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{Kind: CmdUnknown}
	}

	switch fields[0] {
	case "s", "submit":
		return Command{Kind: CmdSubmit}
	case "a", "advance":
		return Command{Kind: CmdAdvance}
	case "r", "refresh":
		return Command{Kind: CmdRefresh}
	case "v", "reveal":
		return Command{Kind: CmdReveal}
	case "select", "pick":
		if len(fields) < 2 {
			return Command{Kind: CmdUnknown}
		}
		fields = fields[1:]
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return Command{Kind: CmdUnknown}
	}
	return Command{Kind: CmdSelect, Index: n}
}

// RegisterScreens registers a page for every screen
func RegisterScreens(s *Session) {
	for _, screen := range []domain.Screen{
		domain.ScreenNightAttack,
		domain.ScreenNightSeer,
		domain.ScreenNightKnight,
	} {
		s.Register(screen, PageFunc(NightActionPage))
	}
	s.Register(domain.ScreenRoleConfirm, PageFunc(RoleConfirmPage))
	s.Register(domain.ScreenNightWait, PageFunc(NightWaitPage))
	s.Register(domain.ScreenDay, PageFunc(DayPage))
	s.Register(domain.ScreenMorning, PageFunc(MorningPage))
	s.Register(domain.ScreenSpectator, PageFunc(SpectatorPage))
	s.Register(domain.ScreenResult, PageFunc(ResultPage))
}

// group runs background loops for a page and waits for them on exit
type group struct {
	wg sync.WaitGroup
}

func (g *group) Go(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}

func (g *group) Wait() {
	g.wg.Wait()
}

// startWatchers starts the phase and terminal watchers for a page
func startWatchers(ctx context.Context, env *PageEnv, g *group, phase bool) {
	if phase {
		pw := NewPhaseWatcher(env.API, env.Router, env.Nav, env.Policy, env.Logger)
		pw.Push = env.StatusPush
		g.Go(func() { pw.Run(ctx) })
	}

	tw := NewTerminalWatcher(env.API, env.Nav, env.Policy, env.Logger)
	tw.Push = env.OutcomePush
	g.Go(func() { tw.Run(ctx) })
}

// NightActionPage runs a role's night action screen
func NightActionPage(ctx context.Context, env *PageEnv) error {
	action, ok := ActionForScreen(env.Location.Screen)
	if !ok {
		return fmt.Errorf("%s: %w", env.Location.Screen, domain.ErrUnknownScreen)
	}
	return actionPage(ctx, env, action, HostNight)
}

// actionPage runs a screen where the player picks one target and submits it
// once. The host panel resolving the phase runs alongside.
func actionPage(ctx context.Context, env *PageEnv, action NightAction, mode HostMode) error {
	var g group
	defer g.Wait()

	startWatchers(ctx, env, &g, true)

	wf := NewWorkflow(action, env.API, env.Nav, env.Logger, env.View.ShowNight)
	if err := wf.Load(ctx); err != nil {
		env.Logger.Warn("action screen not ready", "error", err)
	}

	var host *HostPanel
	if wf.State().Phase != PhaseAlreadyDead {
		host = NewHostPanelMode(env.API, env.Location, mode, env.Logger, env.View.ShowHost)
		g.Go(func() { host.Run(ctx, env.Policy.Interval) })
		g.Go(func() { keepLoaded(ctx, env, wf, action) })
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-env.Input:
			handleNightCommand(ctx, env, wf, host, ParseCommand(line))
		}
	}
}

// keepLoaded retries a screen whose load failed, backing off while the
// server keeps failing. Screens with server-side candidates are reloaded
// when the candidate set starts or stops applying.
func keepLoaded(ctx context.Context, env *PageEnv, wf *Workflow, action NightAction) {
	failures := 0
	timer := time.NewTimer(env.Policy.delay(0))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		st := wf.State()
		switch st.Phase {
		case PhaseLoadFailed:
			if err := wf.Reload(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				env.Logger.Debug("reload failed", "error", err, "failures", failures)
			} else {
				failures = 0
			}
		case PhaseSelecting, PhaseDone:
			if candidatesChanged(ctx, env, action, st) {
				if st.Runoff {
					env.View.ShowNotice("The runoff vote is over.")
				} else {
					env.View.ShowNotice("The vote is tied. Vote again between the tied players.")
				}
				if err := wf.Reload(ctx); err != nil {
					env.Logger.Warn("reload failed", "error", err)
				}
			}
		}
		timer.Reset(env.Policy.delay(failures))
	}
}

// candidatesChanged reports whether the server started or stopped narrowing
// down the targets since the screen was loaded
func candidatesChanged(ctx context.Context, env *PageEnv, action NightAction, st NightState) bool {
	filter, ok := action.(CandidateFilter)
	if !ok {
		return false
	}
	candidates, err := filter.Candidates(ctx, env.API, env.Location.GameID)
	if err != nil {
		env.Logger.Debug("candidate check failed", "error", err)
		return false
	}
	return (candidates != nil) != st.Runoff
}

func handleNightCommand(ctx context.Context, env *PageEnv, wf *Workflow, host *HostPanel, cmd Command) {
	switch cmd.Kind {
	case CmdSelect:
		cards := wf.State().Cards
		if cmd.Index > len(cards) {
			env.View.ShowNotice(fmt.Sprintf("No player number %d.", cmd.Index))
			return
		}
		if err := wf.Select(cards[cmd.Index-1].Member.ID); err != nil {
			env.View.ShowNotice(actionNotice(wf, err))
			return
		}
		env.View.ShowNight(wf.State())

	case CmdSubmit:
		err := wf.Submit(ctx)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNoTarget):
			env.View.ShowNotice("Select a player first.")
		case errors.Is(err, domain.ErrSubmitInFlight), errors.Is(err, domain.ErrActionDone),
			errors.Is(err, domain.ErrRoleMismatch), errors.Is(err, domain.ErrPlayerDead),
			errors.Is(err, domain.ErrNotLoaded):
			env.View.ShowNotice(actionNotice(wf, err))
		}

	case CmdAdvance:
		advance(ctx, env, host)

	case CmdRefresh:
		refresh(ctx, env, wf, host)

	default:
		env.View.ShowNotice("Commands: <number> select, s submit, a advance (host), r refresh, q quit.")
	}
}

func actionNotice(wf *Workflow, err error) string {
	switch {
	case errors.Is(err, domain.ErrActionDone):
		return wf.alreadyDoneText()
	case errors.Is(err, domain.ErrSubmitInFlight):
		return "Already sending."
	case errors.Is(err, domain.ErrNotSelectable):
		return "That player cannot be chosen."
	case errors.Is(err, domain.ErrRoleMismatch):
		return "This screen does not match your role."
	case errors.Is(err, domain.ErrPlayerDead):
		return "You are dead."
	case errors.Is(err, domain.ErrNotLoaded):
		return "The screen is not ready. Type r to retry."
	}
	return err.Error()
}

func advance(ctx context.Context, env *PageEnv, host *HostPanel) {
	if host == nil {
		env.View.ShowNotice("Only the host can advance the game.")
		return
	}
	if err := host.Advance(ctx); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotHost):
			env.View.ShowNotice("Only the host can advance the game.")
		case errors.Is(err, domain.ErrAdvanceDisabled):
			env.View.ShowNotice("Not everyone has acted yet.")
		case errors.Is(err, domain.ErrSubmitInFlight):
			env.View.ShowNotice("Already advancing.")
		}
		return
	}
	// the phase watcher picks up the new status; routing now saves a poll
	if _, err := env.Router.GotoCurrentPhase(ctx, env.Nav); err != nil {
		env.Logger.Debug("route after advance failed", "error", err)
	}
}

// refresh reloads a screen that failed to load, then re-checks the host
// panel and the current phase
func refresh(ctx context.Context, env *PageEnv, wf *Workflow, host *HostPanel) {
	if wf != nil && wf.State().Phase == PhaseLoadFailed {
		if err := wf.Reload(ctx); err != nil && !errors.Is(err, domain.ErrLoadInFlight) {
			env.View.ShowNotice("Could not load the screen.")
		}
	}
	if host != nil {
		host.Refresh(ctx)
	}
	if _, err := env.Router.GotoCurrentPhase(ctx, env.Nav); err != nil {
		env.View.ShowNotice("Could not reach the server.")
		env.Logger.Warn("refresh failed", "error", err)
	}
}

// infoPage is a screen with nothing to do but wait for the next phase. It
// routes once on arrival in case the phase moved on already.
func infoPage(ctx context.Context, env *PageEnv, show func(context.Context), withHost bool) error {
	if moved, err := env.Router.GotoCurrentPhase(ctx, env.Nav); err != nil {
		env.Logger.Warn("initial routing failed", "error", err)
	} else if moved {
		return nil
	}

	var g group
	defer g.Wait()

	if show != nil {
		show(ctx)
	}
	startWatchers(ctx, env, &g, true)

	var host *HostPanel
	if withHost {
		host = NewHostPanel(env.API, env.Location, env.Logger, env.View.ShowHost)
		g.Go(func() { host.Run(ctx, env.Policy.Interval) })
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-env.Input:
			switch cmd := ParseCommand(line); cmd.Kind {
			case CmdAdvance:
				advance(ctx, env, host)
			case CmdRefresh:
				refresh(ctx, env, nil, host)
			default:
				env.View.ShowNotice("Commands: r refresh, q quit.")
			}
		}
	}
}

// RoleConfirmPage shows the player's role and waits for the game to move
func RoleConfirmPage(ctx context.Context, env *PageEnv) error {
	return infoPage(ctx, env, func(ctx context.Context) {
		me, err := env.API.FetchSelf(ctx, env.Location.GameID, env.Location.PlayerID)
		if err != nil {
			env.Logger.Warn("fetch self failed", "error", err)
			env.View.ShowNotice("Could not load your role.")
			return
		}
		env.View.ShowNotice(fmt.Sprintf("Your role: %s", me.Role))
		if me.Role.HasNightAction() {
			env.View.ShowNotice("You act at night. Your screen opens when night falls.")
		}
	}, false)
}

// NightWaitPage is shown at night to players without a night action. The
// host also gets the control panel here.
func NightWaitPage(ctx context.Context, env *PageEnv) error {
	return infoPage(ctx, env, func(context.Context) {
		env.View.ShowNotice("Night has fallen. Wait for morning.")
	}, true)
}

// DayPage shows the roster during the day. Voting opens with the day
// discussion, which has its own screen.
func DayPage(ctx context.Context, env *PageEnv) error {
	return infoPage(ctx, env, func(ctx context.Context) {
		env.View.ShowNotice("It is day. Voting opens when the discussion starts.")
		showRoster(ctx, env)
	}, false)
}

// MorningPage is the day discussion screen: the night's outcome is in the
// roster and every living player votes for an execution. The host closes
// the vote.
func MorningPage(ctx context.Context, env *PageEnv) error {
	if moved, err := env.Router.GotoCurrentPhase(ctx, env.Nav); err != nil {
		env.Logger.Warn("initial routing failed", "error", err)
	} else if moved {
		return nil
	}

	env.View.ShowNotice("Morning has come. Discuss, then vote.")
	return actionPage(ctx, env, DayVoteAction{}, HostDay)
}

// SpectatorPage is shown to dead players. It does not follow phases, only
// the end of the game.
func SpectatorPage(ctx context.Context, env *PageEnv) error {
	var g group
	defer g.Wait()

	env.View.ShowNotice("You are dead. You can watch until the game ends.")
	showRoster(ctx, env)
	startWatchers(ctx, env, &g, false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-env.Input:
			if ParseCommand(line).Kind == CmdRefresh {
				showRoster(ctx, env)
			}
		}
	}
}

// ResultPage shows the outcome of the game. The host can reveal everyone's
// role from here.
func ResultPage(ctx context.Context, env *PageEnv) error {
	if !showResult(ctx, env) {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-env.Input:
			switch ParseCommand(line).Kind {
			case CmdReveal:
				if toggleReveal(ctx, env) {
					showResult(ctx, env)
				}
			case CmdRefresh:
				showResult(ctx, env)
			default:
				env.View.ShowNotice("Commands: v reveal roles (host), r refresh, q quit.")
			}
		}
	}
}

// showResult shows the outcome with the roster. Roles are only shown once
// the host revealed them.
func showResult(ctx context.Context, env *PageEnv) bool {
	result, err := env.API.FetchJudge(ctx, env.Location.GameID)
	if err != nil {
		env.Logger.Warn("fetch judge failed", "error", err)
		env.View.ShowNotice("Could not load the result.")
		return false
	}

	members, err := env.API.FetchRoster(ctx, env.Location.GameID)
	if err != nil {
		env.Logger.Warn("fetch roster failed", "error", err)
	}

	reveal, err := env.API.FetchRevealRoles(ctx, env.Location.GameID)
	if err != nil {
		env.Logger.Debug("fetch reveal setting failed", "error", err)
	}
	if !reveal.Enabled {
		for i := range members {
			members[i].Role = domain.RoleUnknown
		}
	}

	env.View.ShowResult(result, members)
	return true
}

// toggleReveal flips role reveal on the results screen. Only the host may.
func toggleReveal(ctx context.Context, env *PageEnv) bool {
	me, err := env.API.FetchSelf(ctx, env.Location.GameID, env.Location.PlayerID)
	if err != nil {
		env.Logger.Warn("fetch self failed", "error", err)
		env.View.ShowNotice("Could not reach the server.")
		return false
	}
	if !me.IsHost {
		env.View.ShowNotice("Only the host can reveal roles.")
		return false
	}

	cur, err := env.API.FetchRevealRoles(ctx, env.Location.GameID)
	if err != nil {
		env.Logger.Warn("fetch reveal setting failed", "error", err)
		env.View.ShowNotice("Could not reach the server.")
		return false
	}

	body := map[string]any{
		"requester_member_id": me.GameMemberID,
		"enabled":             !cur.Enabled,
	}
	if _, err := env.API.PostAction(ctx, domain.GamePath(env.Location.GameID, "reveal_roles"), body); err != nil {
		var fe *httpTransport.FetchError
		if errors.As(err, &fe) && fe.Status == http.StatusForbidden {
			env.View.ShowNotice("Only the host can reveal roles.")
			return false
		}
		env.Logger.Warn("reveal roles failed", "error", err)
		env.View.ShowNotice("Could not change the role reveal.")
		return false
	}

	env.Logger.Info("role reveal changed", "gameID", env.Location.GameID, "enabled", !cur.Enabled)
	return true
}

func showRoster(ctx context.Context, env *PageEnv) {
	members, err := env.API.FetchRoster(ctx, env.Location.GameID)
	if err != nil {
		env.Logger.Warn("fetch roster failed", "error", err)
		return
	}
	env.View.ShowRoster(members)
}
