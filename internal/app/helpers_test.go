package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"werewolf-client/internal/domain"
)

var errUnavailable = errors.New("server unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAPI is an in-memory GameAPI
type fakeAPI struct {
	mu sync.Mutex

	status   domain.Status
	self     domain.SelfInfo
	members  []domain.Member
	judge    domain.JudgeOutcome
	progress domain.NightProgress
	action   domain.ActionStatus
	votes    domain.DayVoteStatus
	reveal   domain.RoleReveal

	gameErr   error
	selfErr   error
	rosterErr error
	actionErr error

	post func(path string, body any) ([]byte, error)

	gameCalls   int
	selfCalls   int
	rosterCalls int
	posts       []string
	bodies      []any
}

func (f *fakeAPI) FetchSelf(ctx context.Context, gameID, playerID string) (domain.SelfInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selfCalls++
	if f.selfErr != nil {
		return domain.SelfInfo{}, f.selfErr
	}
	return f.self, nil
}

func (f *fakeAPI) FetchRoster(ctx context.Context, gameID string) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rosterCalls++
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	out := make([]domain.Member, len(f.members))
	copy(out, f.members)
	return out, nil
}

func (f *fakeAPI) FetchGame(ctx context.Context, gameID string) (domain.GameSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gameCalls++
	if f.gameErr != nil {
		return domain.GameSnapshot{}, f.gameErr
	}
	return domain.GameSnapshot{Status: f.status, Members: f.members}, nil
}

func (f *fakeAPI) FetchNightProgress(ctx context.Context, gameID string) (domain.NightProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress, nil
}

func (f *fakeAPI) FetchJudge(ctx context.Context, gameID string) (domain.JudgeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.judge == "" {
		return domain.JudgeResult{Result: domain.OutcomeOngoing}, nil
	}
	return domain.JudgeResult{Result: f.judge}, nil
}

func (f *fakeAPI) FetchActionStatus(ctx context.Context, gameID, memberID string) (domain.ActionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.actionErr != nil {
		return domain.ActionStatus{}, f.actionErr
	}
	return f.action, nil
}

func (f *fakeAPI) FetchDayVoteStatus(ctx context.Context, gameID string) (domain.DayVoteStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.votes, nil
}

func (f *fakeAPI) FetchRevealRoles(ctx context.Context, gameID string) (domain.RoleReveal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reveal, nil
}

func (f *fakeAPI) PostAction(ctx context.Context, path string, body any) ([]byte, error) {
	f.mu.Lock()
	f.posts = append(f.posts, path)
	f.bodies = append(f.bodies, body)
	post := f.post
	f.mu.Unlock()

	if post != nil {
		return post(path, body)
	}
	return []byte(`{}`), nil
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeAPI) postedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.posts))
	copy(out, f.posts)
	return out
}

func (f *fakeAPI) lastBody() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodies) == 0 {
		return nil
	}
	return f.bodies[len(f.bodies)-1]
}

type navCall struct {
	to      domain.Location
	replace bool
}

// fakeNav records navigations and moves to the destination immediately
type fakeNav struct {
	mu    sync.Mutex
	cur   domain.Location
	calls []navCall
}

func newFakeNav(screen domain.Screen) *fakeNav {
	return &fakeNav{cur: domain.Location{Screen: screen, GameID: "g1", PlayerID: "p1"}}
}

func (n *fakeNav) Current() domain.Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cur
}

func (n *fakeNav) Navigate(to domain.Location, replace bool) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{to: to, replace: replace})
	n.cur = to
	return true
}

func (n *fakeNav) navigations() []navCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]navCall, len(n.calls))
	copy(out, n.calls)
	return out
}

// recordingView collects everything shown
type recordingView struct {
	mu      sync.Mutex
	screens []domain.Location
	notices []string
	nights  []NightState
	hosts   []HostState
	results []domain.JudgeResult
	rosters [][]domain.Member
}

func (v *recordingView) ShowScreen(loc domain.Location) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screens = append(v.screens, loc)
}

func (v *recordingView) ShowNotice(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, text)
}

func (v *recordingView) ShowNight(state NightState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nights = append(v.nights, state)
}

func (v *recordingView) ShowHost(state HostState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hosts = append(v.hosts, state)
}

func (v *recordingView) ShowRoster(members []domain.Member) {}

func (v *recordingView) ShowResult(result domain.JudgeResult, members []domain.Member) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results = append(v.results, result)
	v.rosters = append(v.rosters, members)
}

// lastNight returns the latest action screen state, if any
func (v *recordingView) lastNight() (NightState, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.nights) == 0 {
		return NightState{}, false
	}
	return v.nights[len(v.nights)-1], true
}

func (v *recordingView) lastHost() (HostState, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.hosts) == 0 {
		return HostState{}, false
	}
	return v.hosts[len(v.hosts)-1], true
}

func (v *recordingView) lastRoster() []domain.Member {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.rosters) == 0 {
		return nil
	}
	return v.rosters[len(v.rosters)-1]
}

func (v *recordingView) hasNotice(text string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, n := range v.notices {
		if n == text {
			return true
		}
	}
	return false
}

func (v *recordingView) resultCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.results)
}

func (v *recordingView) shownScreens() []domain.Screen {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.Screen, 0, len(v.screens))
	for _, l := range v.screens {
		out = append(out, l.Screen)
	}
	return out
}

func testMembers() []domain.Member {
	return []domain.Member{
		{ID: "m1", DisplayName: "Alice", IsAlive: true},
		{ID: "m2", DisplayName: "Bob", IsAlive: true},
		{ID: "m3", DisplayName: "Carol", IsAlive: false},
		{ID: "m4", DisplayName: "Dave", IsAlive: true},
	}
}

func seerSelf() domain.SelfInfo {
	return domain.SelfInfo{
		GameID:       "g1",
		PlayerID:     "p1",
		GameMemberID: "m1",
		Role:         domain.RoleSeer,
		Status:       domain.LifeAlive,
	}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
