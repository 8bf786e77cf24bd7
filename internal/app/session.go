package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"werewolf-client/internal/domain"
)

// Page is one screen. Run shows the screen and keeps it alive until ctx is
// cancelled, which happens when the session navigates away.
type Page interface {
	Run(ctx context.Context, env *PageEnv) error
}

// PageFunc adapts a function to Page
type PageFunc func(ctx context.Context, env *PageEnv) error

// Run calls f
func (f PageFunc) Run(ctx context.Context, env *PageEnv) error {
	return f(ctx, env)
}

// PageEnv is what a page gets to work with
type PageEnv struct {
	Location domain.Location
	Nav      Navigator
	API      GameAPI
	Router   *Router
	View     View
	Policy   PollPolicy
	Logger   *slog.Logger

	// Input carries the player's command lines while the page is shown
	Input <-chan string

	// StatusPush and OutcomePush carry pushed events while the page is shown
	StatusPush  <-chan domain.Status
	OutcomePush <-chan domain.JudgeOutcome
}

// Session plays the role of a browser tab: it shows one screen at a time and
// moves between screens on navigation. Leaving a screen cancels its context,
// which stops every poller the screen started.
type Session struct {
	id     string
	api    GameAPI
	view   View
	router *Router
	policy PollPolicy
	logger *slog.Logger
	pages  map[domain.Screen]Page

	mu         sync.Mutex
	current    domain.Location
	history    []domain.Location
	generation int
	pending    *navRequest
	navCh      chan struct{}
}

type navRequest struct {
	to      domain.Location
	replace bool
}

// NewSession creates a new session with no pages registered
func NewSession(api GameAPI, view View, policy PollPolicy, logger *slog.Logger) *Session {
	id := uuid.NewString()
	logger = logger.With("sessionID", id)

	return &Session{
		id:     id,
		api:    api,
		view:   view,
		router: NewRouter(api, logger),
		policy: policy,
		logger: logger,
		pages:  make(map[domain.Screen]Page),
		navCh:  make(chan struct{}, 1),
	}
}

// Register sets the page shown for screen
func (s *Session) Register(screen domain.Screen, page Page) {
	s.pages[screen] = page
}

// ID returns the session id attached to every log line
func (s *Session) ID() string {
	return s.id
}

// Router returns the session's router
func (s *Session) Router() *Router {
	return s.router
}

// Current returns the location being shown
func (s *Session) Current() domain.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// History returns the navigation history, oldest first
func (s *Session) History() []domain.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Location, len(s.history))
	copy(out, s.history)
	return out
}

// Run shows start and then follows navigations until ctx is cancelled, the
// player quits, or a page fails. input carries command lines; events, which
// may be nil, carries pushed game events.
func (s *Session) Run(ctx context.Context, start domain.Location, input <-chan string, events <-chan *domain.GameEvent) error {
	if _, err := domain.NewLocation(start.Screen, start.GameID, start.PlayerID); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = start
	s.history = append(s.history, start)
	s.mu.Unlock()

	for {
		loc := s.Current()
		page, ok := s.pages[loc.Screen]
		if !ok {
			return fmt.Errorf("%s: %w", loc.Screen, domain.ErrUnknownScreen)
		}

		s.logger.Info("showing screen", "screen", loc.Screen, "gameID", loc.GameID, "playerID", loc.PlayerID)
		s.view.ShowScreen(loc)

		next, err := s.runPage(ctx, loc, page, input, events)
		if err != nil || !next {
			return err
		}
	}
}

// runPage runs a single page. It returns true when a navigation happened and
// the next page should be shown.
func (s *Session) runPage(ctx context.Context, loc domain.Location, page Page, input <-chan string, events <-chan *domain.GameEvent) (bool, error) {
	pageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	pageInput := make(chan string, 8)
	statusPush := make(chan domain.Status, 1)
	outcomePush := make(chan domain.JudgeOutcome, 1)

	env := &PageEnv{
		Location:    loc,
		Nav:         &pageNavigator{session: s, generation: gen},
		API:         s.api,
		Router:      s.router,
		View:        s.view,
		Policy:      s.policy,
		Logger:      s.logger.With("screen", loc.Screen),
		Input:       pageInput,
		StatusPush:  statusPush,
		OutcomePush: outcomePush,
	}

	done := make(chan error, 1)
	go func() {
		done <- page.Run(pageCtx, env)
	}()

	stop := func() {
		cancel()
		if done != nil {
			<-done
		}
	}

	for {
		select {
		case <-ctx.Done():
			stop()
			return false, nil

		case <-s.navCh:
			stop()
			s.applyNavigation()
			return true, nil

		case err := <-done:
			if err != nil {
				return false, fmt.Errorf("%s: %w", loc.Screen, err)
			}
			// the page finished on its own; keep it on screen until something
			// navigates or the session ends
			done = nil

		case line, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			if isQuit(line) {
				stop()
				return false, nil
			}
			select {
			case pageInput <- line:
			default:
				s.logger.Debug("input dropped, page busy", "line", line)
			}

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			forwardEvent(ev, statusPush, outcomePush)
		}
	}
}

// navigate records a navigation request from the page of generation gen.
// Only the first request of a page is honored, except that the results
// screen overrides any request that has not been applied yet.
func (s *Session) navigate(gen int, to domain.Location, replace bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	if s.pending != nil {
		if to.Screen != domain.ScreenResult || s.pending.to.Screen == domain.ScreenResult {
			return false
		}
		s.pending = &navRequest{to: to, replace: replace}
		return true
	}

	s.pending = &navRequest{to: to, replace: replace}
	select {
	case s.navCh <- struct{}{}:
	default:
	}
	return true
}

// applyNavigation moves to the pending location
func (s *Session) applyNavigation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := s.pending
	s.pending = nil
	s.generation++
	if req == nil {
		return
	}

	if req.replace && len(s.history) > 0 {
		s.history[len(s.history)-1] = req.to
	} else {
		s.history = append(s.history, req.to)
	}
	s.current = req.to
	s.logger.Debug("navigated", "to", req.to.URL(), "replace", req.replace)
}

// pageNavigator is the Navigator handed to one page. Requests from a page
// that has already been left are ignored.
type pageNavigator struct {
	session    *Session
	generation int
}

func (n *pageNavigator) Current() domain.Location {
	return n.session.Current()
}

func (n *pageNavigator) Navigate(to domain.Location, replace bool) bool {
	return n.session.navigate(n.generation, to, replace)
}

func forwardEvent(ev *domain.GameEvent, statuses chan<- domain.Status, outcomes chan<- domain.JudgeOutcome) {
	if ev == nil {
		return
	}
	switch ev.Type {
	case domain.EventStatusChanged:
		select {
		case statuses <- ev.Status:
		default:
		}
	case domain.EventGameFinished:
		select {
		case outcomes <- ev.Result:
		default:
		}
	}
}

func isQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}
