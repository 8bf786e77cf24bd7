package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"werewolf-client/internal/domain"
)

func startLocation(screen domain.Screen) domain.Location {
	return domain.Location{Screen: screen, GameID: "g1", PlayerID: "p1"}
}

// idlePage waits until the session leaves it
func idlePage(ctx context.Context, env *PageEnv) error {
	<-ctx.Done()
	return nil
}

func runSession(t *testing.T, s *Session, start domain.Location, input chan string) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() {
		errc <- s.Run(context.Background(), start, input, nil)
	}()
	return errc
}

func waitRun(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("session did not stop")
	}
	return nil
}

func TestSessionRequiresIDs(t *testing.T) {
	s := NewSession(&fakeAPI{}, &recordingView{}, DefaultPollPolicy(), discardLogger())

	err := s.Run(context.Background(), domain.Location{Screen: domain.ScreenDay, GameID: "g1"}, nil, nil)
	if !errors.Is(err, domain.ErrMissingParam) {
		t.Fatalf("expected ErrMissingParam, got %v", err)
	}
}

func TestSessionUnknownScreen(t *testing.T) {
	s := NewSession(&fakeAPI{}, &recordingView{}, DefaultPollPolicy(), discardLogger())

	err := s.Run(context.Background(), startLocation(domain.ScreenDay), nil, nil)
	if !errors.Is(err, domain.ErrUnknownScreen) {
		t.Fatalf("expected ErrUnknownScreen, got %v", err)
	}
}

func TestSessionFirstNavigationWins(t *testing.T) {
	view := &recordingView{}
	s := NewSession(&fakeAPI{}, view, DefaultPollPolicy(), discardLogger())

	results := make(chan []bool, 1)
	s.Register(domain.ScreenRoleConfirm, PageFunc(func(ctx context.Context, env *PageEnv) error {
		cur := env.Nav.Current()
		results <- []bool{
			env.Nav.Navigate(cur.To(domain.ScreenDay), false),
			env.Nav.Navigate(cur.To(domain.ScreenMorning), false),
		}
		<-ctx.Done()
		return nil
	}))
	s.Register(domain.ScreenDay, PageFunc(idlePage))

	input := make(chan string)
	errc := runSession(t, s, startLocation(domain.ScreenRoleConfirm), input)

	got := <-results
	if !got[0] || got[1] {
		t.Fatalf("expected only the first navigation honored, got %v", got)
	}

	waitFor(t, "day screen", func() bool { return s.Current().Screen == domain.ScreenDay })
	input <- "quit"
	if err := waitRun(t, errc); err != nil {
		t.Fatalf("run: %v", err)
	}

	history := s.History()
	if len(history) != 2 || history[0].Screen != domain.ScreenRoleConfirm || history[1].Screen != domain.ScreenDay {
		t.Fatalf("unexpected history %v", history)
	}
	screens := view.shownScreens()
	if len(screens) != 2 || screens[1] != domain.ScreenDay {
		t.Fatalf("unexpected screens shown %v", screens)
	}
}

func TestSessionResultOverridesPendingNavigation(t *testing.T) {
	s := NewSession(&fakeAPI{}, &recordingView{}, DefaultPollPolicy(), discardLogger())

	results := make(chan []bool, 1)
	s.Register(domain.ScreenNightSeer, PageFunc(func(ctx context.Context, env *PageEnv) error {
		cur := env.Nav.Current()
		results <- []bool{
			env.Nav.Navigate(cur.To(domain.ScreenDay), false),
			env.Nav.Navigate(cur.To(domain.ScreenResult), true),
			env.Nav.Navigate(cur.To(domain.ScreenMorning), false),
		}
		<-ctx.Done()
		return nil
	}))
	s.Register(domain.ScreenDay, PageFunc(idlePage))
	s.Register(domain.ScreenResult, PageFunc(idlePage))

	input := make(chan string)
	errc := runSession(t, s, startLocation(domain.ScreenNightSeer), input)

	got := <-results
	if !got[0] || !got[1] || got[2] {
		t.Fatalf("unexpected navigation results %v", got)
	}

	waitFor(t, "result screen", func() bool { return s.Current().Screen == domain.ScreenResult })
	input <- "q"
	if err := waitRun(t, errc); err != nil {
		t.Fatalf("run: %v", err)
	}

	// replace overwrote the night entry
	history := s.History()
	if len(history) != 1 || history[0].Screen != domain.ScreenResult {
		t.Fatalf("unexpected history %v", history)
	}
}

func TestSessionIgnoresStaleNavigator(t *testing.T) {
	s := NewSession(&fakeAPI{}, &recordingView{}, DefaultPollPolicy(), discardLogger())

	stale := make(chan Navigator, 1)
	s.Register(domain.ScreenDay, PageFunc(func(ctx context.Context, env *PageEnv) error {
		stale <- env.Nav
		env.Nav.Navigate(env.Nav.Current().To(domain.ScreenMorning), true)
		<-ctx.Done()
		return nil
	}))
	s.Register(domain.ScreenMorning, PageFunc(idlePage))
	s.Register(domain.ScreenResult, PageFunc(idlePage))

	input := make(chan string)
	errc := runSession(t, s, startLocation(domain.ScreenDay), input)

	nav := <-stale
	waitFor(t, "morning screen", func() bool { return s.Current().Screen == domain.ScreenMorning })

	if nav.Navigate(nav.Current().To(domain.ScreenResult), true) {
		t.Fatal("a page that was left must not navigate")
	}

	input <- "quit"
	if err := waitRun(t, errc); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Current().Screen != domain.ScreenMorning {
		t.Fatalf("expected to stay on morning, got %q", s.Current().Screen)
	}
}

func TestSessionForwardsInput(t *testing.T) {
	s := NewSession(&fakeAPI{}, &recordingView{}, DefaultPollPolicy(), discardLogger())

	lines := make(chan string, 1)
	s.Register(domain.ScreenDay, PageFunc(func(ctx context.Context, env *PageEnv) error {
		select {
		case line := <-env.Input:
			lines <- line
		case <-ctx.Done():
		}
		<-ctx.Done()
		return nil
	}))

	input := make(chan string)
	errc := runSession(t, s, startLocation(domain.ScreenDay), input)

	input <- "2"
	select {
	case got := <-lines:
		if got != "2" {
			t.Fatalf("expected 2, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("input not forwarded")
	}

	input <- "exit"
	if err := waitRun(t, errc); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestSessionPageError(t *testing.T) {
	s := NewSession(&fakeAPI{}, &recordingView{}, DefaultPollPolicy(), discardLogger())
	s.Register(domain.ScreenDay, PageFunc(func(ctx context.Context, env *PageEnv) error {
		return errUnavailable
	}))

	err := s.Run(context.Background(), startLocation(domain.ScreenDay), nil, nil)
	if !errors.Is(err, errUnavailable) {
		t.Fatalf("expected page error, got %v", err)
	}
}

func TestSessionNightToResult(t *testing.T) {
	api := &fakeAPI{status: domain.StatusNight, self: seerSelf(), members: testMembers()}
	view := &recordingView{}
	policy := PollPolicy{Interval: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond}

	s := NewSession(api, view, policy, discardLogger())
	RegisterScreens(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- s.Run(ctx, startLocation(domain.ScreenNightSeer), nil, nil)
	}()

	time.Sleep(50 * time.Millisecond)
	if s.Current().Screen != domain.ScreenNightSeer {
		t.Fatalf("left the night screen early: %q", s.Current().Screen)
	}

	api.set(func(f *fakeAPI) { f.judge = domain.OutcomeWolfWin })
	waitFor(t, "result screen", func() bool { return s.Current().Screen == domain.ScreenResult })
	waitFor(t, "result shown", func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		return len(view.results) == 1
	})

	cancel()
	if err := waitRun(t, errc); err != nil {
		t.Fatalf("run: %v", err)
	}

	history := s.History()
	if len(history) != 1 || history[0].Screen != domain.ScreenResult {
		t.Fatalf("expected the night entry replaced by the result, got %v", history)
	}
}

func TestSessionDeadPlayerToSpectator(t *testing.T) {
	me := seerSelf()
	me.Status = domain.LifeDead
	api := &fakeAPI{status: domain.StatusNight, self: me, members: testMembers()}
	policy := PollPolicy{Interval: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond}

	s := NewSession(api, &recordingView{}, policy, discardLogger())
	RegisterScreens(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- s.Run(ctx, startLocation(domain.ScreenNightSeer), nil, nil)
	}()

	waitFor(t, "spectator screen", func() bool { return s.Current().Screen == domain.ScreenSpectator })

	// the phase changing must not pull a dead player off the spectator screen
	api.set(func(f *fakeAPI) { f.status = domain.StatusDay })
	time.Sleep(60 * time.Millisecond)
	if s.Current().Screen != domain.ScreenSpectator {
		t.Fatalf("expected to stay on spectator, got %q", s.Current().Screen)
	}

	cancel()
	if err := waitRun(t, errc); err != nil {
		t.Fatalf("run: %v", err)
	}
	if api.postCount() != 0 {
		t.Fatal("dead player submitted an action")
	}
}

func TestSessionInfoPageRoutesOnArrival(t *testing.T) {
	api := &fakeAPI{status: domain.StatusDayDiscussion}
	policy := PollPolicy{Interval: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond}

	s := NewSession(api, &recordingView{}, policy, discardLogger())
	RegisterScreens(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- s.Run(ctx, startLocation(domain.ScreenRoleConfirm), nil, nil)
	}()

	waitFor(t, "morning screen", func() bool { return s.Current().Screen == domain.ScreenMorning })
	time.Sleep(50 * time.Millisecond)

	cancel()
	if err := waitRun(t, errc); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := len(s.History()); n != 1 {
		t.Fatalf("expected one history entry after a replace, got %d", n)
	}
}
