package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"werewolf-client/internal/domain"
)

const (
	// DefaultPollInterval is how often watchers poll the server
	DefaultPollInterval = 1500 * time.Millisecond

	// DefaultMaxBackoff caps the delay between polls after failures
	DefaultMaxBackoff = 15 * time.Second
)

// PollPolicy controls how often a watcher polls and how it backs off
type PollPolicy struct {
	Interval   time.Duration
	MaxBackoff time.Duration
}

// DefaultPollPolicy returns the default polling policy
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{Interval: DefaultPollInterval, MaxBackoff: DefaultMaxBackoff}
}

// delay returns the wait before the next poll after the given number of
// consecutive failures: the interval doubled per failure, capped.
func (p PollPolicy) delay(failures int) time.Duration {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	d := interval
	for i := 0; i < failures; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return d
}

// PhaseWatcher polls the game status and re-routes when it changes. The
// remembered status starts unknown, so the first observation never navigates.
type PhaseWatcher struct {
	api    GameAPI
	router *Router
	nav    Navigator
	policy PollPolicy
	logger *slog.Logger

	// Push optionally delivers statuses from a push channel; they are handled
	// exactly like polled ones.
	Push <-chan domain.Status

	mu   sync.Mutex
	prev domain.Status
	seen bool
}

// NewPhaseWatcher creates a new phase watcher
func NewPhaseWatcher(api GameAPI, router *Router, nav Navigator, policy PollPolicy, logger *slog.Logger) *PhaseWatcher {
	return &PhaseWatcher{
		api:    api,
		router: router,
		nav:    nav,
		policy: policy,
		logger: logger,
	}
}

// Run polls until ctx is cancelled. Failed polls are logged and the loop
// carries on, backing off while the server keeps failing.
func (w *PhaseWatcher) Run(ctx context.Context) {
	failures := 0
	timer := time.NewTimer(w.policy.delay(0))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-w.Push:
			if !ok {
				w.Push = nil
				continue
			}
			w.observe(ctx, status)
		case <-timer.C:
			if err := w.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				w.logger.Warn("phase poll failed", "error", err, "failures", failures)
			} else {
				failures = 0
			}
			timer.Reset(w.policy.delay(failures))
		}
	}
}

// Tick fetches the status once and routes if it changed
func (w *PhaseWatcher) Tick(ctx context.Context) error {
	game, err := w.api.FetchGame(ctx, w.nav.Current().GameID)
	if err != nil {
		return err
	}
	w.observe(ctx, game.Status)
	return nil
}

// observe compares status with the remembered one. The remembered status is
// only updated once routing succeeded, so a failed route is retried on the
// next observation.
func (w *PhaseWatcher) observe(ctx context.Context, status domain.Status) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.seen {
		w.prev = status
		w.seen = true
		return
	}
	if status == w.prev {
		return
	}

	w.logger.Debug("phase changed", "from", w.prev, "to", status)
	if _, err := w.router.GotoCurrentPhase(ctx, w.nav); err != nil {
		w.logger.Warn("phase routing failed", "status", status, "error", err)
		return
	}
	w.prev = status
}

// TerminalWatcher polls the judge and sends the player to the results
// screen once the game is decided, whatever else is going on.
type TerminalWatcher struct {
	api    GameAPI
	nav    Navigator
	policy PollPolicy
	logger *slog.Logger

	// Push optionally delivers outcomes from a push channel
	Push <-chan domain.JudgeOutcome
}

// NewTerminalWatcher creates a new terminal watcher
func NewTerminalWatcher(api GameAPI, nav Navigator, policy PollPolicy, logger *slog.Logger) *TerminalWatcher {
	return &TerminalWatcher{
		api:    api,
		nav:    nav,
		policy: policy,
		logger: logger,
	}
}

// Run polls until the game ends or ctx is cancelled
func (w *TerminalWatcher) Run(ctx context.Context) {
	failures := 0
	timer := time.NewTimer(w.policy.delay(0))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case outcome, ok := <-w.Push:
			if !ok {
				w.Push = nil
				continue
			}
			if w.finish(domain.JudgeResult{Result: outcome}) {
				return
			}
		case <-timer.C:
			done, err := w.Tick(ctx)
			if done {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				w.logger.Debug("judge poll failed", "error", err, "failures", failures)
			} else {
				failures = 0
			}
			timer.Reset(w.policy.delay(failures))
		}
	}
}

// Tick asks the judge once and reports whether the game has ended
func (w *TerminalWatcher) Tick(ctx context.Context) (bool, error) {
	result, err := w.api.FetchJudge(ctx, w.nav.Current().GameID)
	if err != nil {
		return false, err
	}
	return w.finish(result), nil
}

// finish redirects to the results screen for a terminal result
func (w *TerminalWatcher) finish(result domain.JudgeResult) bool {
	if !result.IsTerminal() {
		return false
	}

	cur := w.nav.Current()
	if cur.Screen == domain.ScreenResult {
		return true
	}

	w.logger.Info("game finished", "result", result.Result, "gameID", cur.GameID)
	w.nav.Navigate(cur.To(domain.ScreenResult), true)
	return true
}
