package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"werewolf-client/internal/domain"
	httpTransport "werewolf-client/internal/transport/http"
)

// NightPhase is the state of a night action screen
type NightPhase int

const (
	PhaseLoading NightPhase = iota
	PhaseLoadFailed
	PhaseRoleMismatch
	PhaseAlreadyDead
	PhaseSelecting
	PhaseSubmitting
	PhaseDone
)

func (p NightPhase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoadFailed:
		return "load_failed"
	case PhaseRoleMismatch:
		return "role_mismatch"
	case PhaseAlreadyDead:
		return "already_dead"
	case PhaseSelecting:
		return "selecting"
	case PhaseSubmitting:
		return "submitting"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

// LogKind classifies a result line
type LogKind string

const (
	LogInfo    LogKind = "info"
	LogSuccess LogKind = "success"
	LogError   LogKind = "error"
)

// LogEntry is one line of the result area
type LogEntry struct {
	Kind LogKind
	Text string
}

// Card is one roster member as shown on a night screen
type Card struct {
	Member     domain.Member
	Self       bool
	Selectable bool
	Selected   bool
}

// NightState is a snapshot of a night screen, everything a view needs
type NightState struct {
	Screen           domain.Screen
	Title            string
	Phase            NightPhase
	Me               domain.SelfInfo
	Cards            []Card
	SelectedTargetID string
	Submitted        bool
	SubmitEnabled    bool
	Runoff           bool
	Status           string
	Log              []LogEntry
}

// Workflow drives one night action screen: load identity and roster, let the
// player pick a target, submit at most once.
type Workflow struct {
	action   NightAction
	api      GameAPI
	nav      Navigator
	logger   *slog.Logger
	onChange func(NightState)

	mu         sync.Mutex
	loc        domain.Location
	phase      NightPhase
	me         domain.SelfInfo
	members    []domain.Member
	selected   string
	submitted  bool
	candidates []string
	status     string
	log        []LogEntry
}

// NewWorkflow creates a workflow for action on the navigator's current
// location. onChange, if set, receives a snapshot after every change.
func NewWorkflow(action NightAction, api GameAPI, nav Navigator, logger *slog.Logger, onChange func(NightState)) *Workflow {
	return &Workflow{
		action:   action,
		api:      api,
		nav:      nav,
		logger:   logger,
		onChange: onChange,
		loc:      nav.Current(),
		phase:    PhaseLoading,
	}
}

// Load runs the loading transitions. It returns an error only when the
// screen could not be initialized.
func (w *Workflow) Load(ctx context.Context) error {
	w.update(func() { w.status = "Loading player information..." })

	me, err := w.api.FetchSelf(ctx, w.loc.GameID, w.loc.PlayerID)
	if err != nil {
		w.fail(err)
		return fmt.Errorf("fetch self: %w", err)
	}

	if me.IsDead() {
		w.update(func() {
			w.me = me
			w.phase = PhaseAlreadyDead
			w.status = "You are dead. Moving to the spectator screen."
		})
		w.nav.Navigate(w.loc.To(domain.ScreenSpectator), true)
		return nil
	}

	if !roleMatches(w.action, me.Role) {
		w.update(func() {
			w.me = me
			w.phase = PhaseRoleMismatch
			w.status = "This screen does not match your role."
			w.appendLog(LogError, w.action.Texts().RoleMismatch)
		})
		return nil
	}

	if checker, ok := w.action.(AlreadyDoneChecker); ok {
		done, targetID, err := checker.CheckDone(ctx, w.api, w.loc.GameID, me)
		var fe *httpTransport.FetchError
		switch {
		case errors.As(err, &fe) && fe.IsNotFound():
			w.logger.Debug("already-acted check not supported", "role", me.Role)
		case err != nil:
			w.logger.Warn("already-acted check failed", "role", me.Role, "error", err)
		case done:
			w.loadDone(ctx, me, targetID)
			return nil
		}
	}

	w.update(func() {
		w.me = me
		w.status = "Loading game information..."
	})

	var candidates []string
	if filter, ok := w.action.(CandidateFilter); ok {
		candidates, err = filter.Candidates(ctx, w.api, w.loc.GameID)
		if err != nil {
			w.fail(err)
			return fmt.Errorf("fetch candidates: %w", err)
		}
	}

	members, err := w.api.FetchRoster(ctx, w.loc.GameID)
	if err != nil {
		w.fail(err)
		return fmt.Errorf("fetch roster: %w", err)
	}

	w.update(func() {
		w.members = members
		w.candidates = candidates
		w.phase = PhaseSelecting
		w.status = w.action.Texts().SelectPrompt
	})
	return nil
}

// Reload resets the screen to loading and runs Load again. It is refused
// while a load or a submission is running.
func (w *Workflow) Reload(ctx context.Context) error {
	var err error
	w.update(func() {
		if w.phase == PhaseLoading || w.phase == PhaseSubmitting {
			err = domain.ErrLoadInFlight
			return
		}
		w.phase = PhaseLoading
		w.me = domain.SelfInfo{}
		w.members = nil
		w.selected = ""
		w.submitted = false
		w.candidates = nil
	})
	if err != nil {
		return err
	}
	return w.Load(ctx)
}

// loadDone shows the roster read-only for a player who already acted
func (w *Workflow) loadDone(ctx context.Context, me domain.SelfInfo, targetID string) {
	members, err := w.api.FetchRoster(ctx, w.loc.GameID)
	if err != nil {
		w.logger.Warn("roster fetch failed", "error", err)
	}

	w.update(func() {
		w.me = me
		w.members = members
		w.phase = PhaseDone
		w.submitted = true
		w.status = w.action.Texts().DoneStatus

		msg := w.alreadyDoneText()
		if target, ok := domain.FindMember(members, targetID); ok && targetID != "" {
			msg = fmt.Sprintf("%s (target: %s).", strings.TrimSuffix(msg, "."), target.Label())
		}
		w.appendLog(LogInfo, msg)
	})
}

// Select records memberID as the target, replacing any previous selection
func (w *Workflow) Select(memberID string) error {
	var err error
	w.update(func() {
		switch w.phase {
		case PhaseDone:
			err = domain.ErrActionDone
			return
		case PhaseSubmitting:
			err = domain.ErrSubmitInFlight
			return
		case PhaseSelecting:
		default:
			err = w.unavailable()
			return
		}

		m, ok := domain.FindMember(w.members, memberID)
		if !ok {
			err = domain.ErrTargetNotFound
			return
		}
		if !w.selectable(m) {
			err = domain.ErrNotSelectable
			return
		}
		w.selected = m.ID
	})
	return err
}

// Submit sends the action for the selected target. The screen leaves the
// selecting phase before the request starts, so concurrent calls send at
// most one request; the losers get ErrSubmitInFlight.
func (w *Workflow) Submit(ctx context.Context) error {
	var (
		target domain.Member
		me     domain.SelfInfo
		err    error
	)
	w.update(func() {
		switch w.phase {
		case PhaseDone:
			err = domain.ErrActionDone
			return
		case PhaseSubmitting:
			err = domain.ErrSubmitInFlight
			return
		case PhaseSelecting:
		default:
			err = w.unavailable()
			return
		}
		if w.selected == "" {
			err = domain.ErrNoTarget
			return
		}
		target, _ = domain.FindMember(w.members, w.selected)
		me = w.me
		w.phase = PhaseSubmitting
		w.status = "Sending..."
	})
	if err != nil {
		return err
	}

	endpoint := w.action.Endpoint(w.loc.GameID, me)
	data, postErr := w.api.PostAction(ctx, endpoint, w.action.RequestBody(me, target))

	if postErr == nil {
		w.logger.Info("action accepted", "role", me.Role, "target", target.ID)
		w.update(func() {
			w.phase = PhaseDone
			w.submitted = true
			w.status = w.action.Texts().DoneStatus
			w.appendLog(LogSuccess, w.action.SuccessMessage(data, target))
		})
		return nil
	}

	if detail, ok := alreadyActed(w.action, postErr); ok {
		w.logger.Info("action already performed", "role", me.Role, "detail", detail)
		w.update(func() {
			w.phase = PhaseDone
			w.submitted = true
			w.status = w.action.Texts().DoneStatus
			w.appendLog(LogInfo, w.alreadyDoneText())
		})
		return nil
	}

	w.logger.Warn("action failed", "role", me.Role, "target", target.ID, "error", postErr)
	w.update(func() {
		w.phase = PhaseSelecting
		w.status = "Sending the action failed. Check the connection or game state and try again."
		w.appendLog(LogError, postErr.Error())
	})
	return postErr
}

// State returns a snapshot of the screen
func (w *Workflow) State() NightState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// update applies fn under the lock and publishes the resulting snapshot
func (w *Workflow) update(fn func()) {
	w.mu.Lock()
	fn()
	state := w.snapshot()
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(state)
	}
}

// fail moves to the load failed state
func (w *Workflow) fail(err error) {
	w.logger.Warn("night screen failed to load", "screen", w.loc.Screen, "error", err)
	w.update(func() {
		w.phase = PhaseLoadFailed
		w.status = "Failed to initialize the screen. Check the URL or game state."
		w.appendLog(LogError, err.Error())
	})
}

// unavailable explains why a screen that is not selecting cannot act.
// Must be called with the lock held.
func (w *Workflow) unavailable() error {
	switch w.phase {
	case PhaseAlreadyDead:
		return domain.ErrPlayerDead
	case PhaseRoleMismatch:
		return domain.ErrRoleMismatch
	}
	return domain.ErrNotLoaded
}

func (w *Workflow) alreadyDoneText() string {
	if text := w.action.Texts().AlreadyDone; text != "" {
		return text
	}
	return "You have already acted tonight."
}

func (w *Workflow) appendLog(kind LogKind, text string) {
	w.log = append(w.log, LogEntry{Kind: kind, Text: text})
}

// selectable: alive, not self, role matches, a candidate when the server
// narrowed them down, and the action is not done
func (w *Workflow) selectable(m domain.Member) bool {
	return m.IsAlive &&
		m.ID != w.me.GameMemberID &&
		roleMatches(w.action, w.me.Role) &&
		w.isCandidate(m.ID) &&
		!w.submitted &&
		w.phase == PhaseSelecting
}

func (w *Workflow) isCandidate(id string) bool {
	if w.candidates == nil {
		return true
	}
	for _, c := range w.candidates {
		if c == id {
			return true
		}
	}
	return false
}

// snapshot must be called with the lock held
func (w *Workflow) snapshot() NightState {
	cards := make([]Card, 0, len(w.members))
	for _, m := range w.members {
		cards = append(cards, Card{
			Member:     m,
			Self:       m.ID == w.me.GameMemberID,
			Selectable: w.selectable(m),
			Selected:   m.ID == w.selected,
		})
	}

	log := make([]LogEntry, len(w.log))
	copy(log, w.log)

	return NightState{
		Screen:           w.loc.Screen,
		Title:            w.action.Texts().Title,
		Phase:            w.phase,
		Me:               w.me,
		Cards:            cards,
		SelectedTargetID: w.selected,
		Submitted:        w.submitted,
		SubmitEnabled:    w.phase == PhaseSelecting && w.selected != "",
		Runoff:           w.candidates != nil,
		Status:           w.status,
		Log:              log,
	}
}

// alreadyActed reports whether err is the server saying the action was
// already performed tonight. A structured code wins; otherwise the detail
// text is matched against the action's known phrases.
func alreadyActed(action NightAction, err error) (string, bool) {
	var fe *httpTransport.FetchError
	if !errors.As(err, &fe) || !fe.IsClientError() {
		return "", false
	}
	if fe.Code == CodeAlreadyActed {
		return fe.Detail, true
	}

	detail := strings.ToLower(fe.Detail)
	if detail == "" {
		return "", false
	}
	for _, phrase := range action.AlreadyActedPhrases() {
		if strings.Contains(detail, strings.ToLower(phrase)) {
			return fe.Detail, true
		}
	}
	return "", false
}
