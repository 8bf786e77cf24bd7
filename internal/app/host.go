package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"werewolf-client/internal/domain"
)

// HostMode selects what the host panel resolves
type HostMode int

const (
	// HostNight gates resolve_night_simple on the night action progress
	HostNight HostMode = iota
	// HostDay closes the day vote with resolve_day_simple
	HostDay
)

// HostState is a snapshot of the host control panel
type HostState struct {
	Loaded         bool
	Day            bool
	IsHost         bool
	Progress       domain.NightProgress
	Votes          domain.DayVoteStatus
	AdvanceEnabled bool
	Advancing      bool
	Note           string
	Message        string
}

// HostPanel shows the host what the current phase is waiting for and gates
// the advance control. It is advisory: failures are logged and never block
// anyone.
type HostPanel struct {
	api      GameAPI
	loc      domain.Location
	mode     HostMode
	logger   *slog.Logger
	onChange func(HostState)

	mu       sync.Mutex
	state    HostState
	memberID string
}

// NewHostPanel creates a night host panel for the given location
func NewHostPanel(api GameAPI, loc domain.Location, logger *slog.Logger, onChange func(HostState)) *HostPanel {
	return NewHostPanelMode(api, loc, HostNight, logger, onChange)
}

// NewHostPanelMode creates a host panel resolving the given phase
func NewHostPanelMode(api GameAPI, loc domain.Location, mode HostMode, logger *slog.Logger, onChange func(HostState)) *HostPanel {
	return &HostPanel{
		api:      api,
		loc:      loc,
		mode:     mode,
		logger:   logger,
		onChange: onChange,
		state:    HostState{Day: mode == HostDay},
	}
}

// Refresh fetches identity and phase progress together and updates the panel
func (p *HostPanel) Refresh(ctx context.Context) {
	var (
		wg          sync.WaitGroup
		me          domain.SelfInfo
		progress    domain.NightProgress
		votes       domain.DayVoteStatus
		meErr, pErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		me, meErr = p.api.FetchSelf(ctx, p.loc.GameID, p.loc.PlayerID)
	}()
	go func() {
		defer wg.Done()
		if p.mode == HostDay {
			votes, pErr = p.api.FetchDayVoteStatus(ctx, p.loc.GameID)
			return
		}
		progress, pErr = p.api.FetchNightProgress(ctx, p.loc.GameID)
	}()
	wg.Wait()

	if meErr != nil || pErr != nil {
		p.logger.Debug("host panel refresh failed", "selfError", meErr, "progressError", pErr)
		return
	}

	p.update(func(s *HostState) {
		s.Loaded = true
		s.IsHost = me.IsHost
		if !me.IsHost {
			p.memberID = ""
			s.Progress = domain.NightProgress{}
			s.Votes = domain.DayVoteStatus{}
			s.AdvanceEnabled = false
			s.Note = "The host advances the game once everyone has acted."
			if p.mode == HostDay {
				s.Note = "The host closes the vote once everyone has voted."
			}
			return
		}
		p.memberID = me.GameMemberID
		s.Note = ""
		if p.mode == HostDay {
			s.Votes = votes
			s.AdvanceEnabled = !s.Advancing
			return
		}
		s.Progress = progress
		s.AdvanceEnabled = progress.AllDone && !s.Advancing
	})
}

// Advance asks the server to resolve the current phase. It only works for
// the host; at night it also waits until every night action is in.
func (p *HostPanel) Advance(ctx context.Context) error {
	var (
		err      error
		memberID string
	)
	p.update(func(s *HostState) {
		memberID = p.memberID
		switch {
		case !s.IsHost:
			err = domain.ErrNotHost
		case s.Advancing:
			err = domain.ErrSubmitInFlight
		case !s.AdvanceEnabled:
			err = domain.ErrAdvanceDisabled
		default:
			s.Advancing = true
			s.AdvanceEnabled = false
			s.Message = "Advancing to morning..."
			if p.mode == HostDay {
				s.Message = "Closing the vote..."
			}
		}
	})
	if err != nil {
		return err
	}

	if p.mode == HostDay {
		return p.resolveDay(ctx, memberID)
	}

	_, postErr := p.api.PostAction(ctx, domain.GamePath(p.loc.GameID, "resolve_night_simple"), struct{}{})

	p.update(func(s *HostState) {
		s.Advancing = false
		if postErr != nil {
			s.AdvanceEnabled = s.Progress.AllDone
			s.Message = fmt.Sprintf("Advancing failed: %v", postErr)
			return
		}
		s.Message = "Night resolved."
	})
	if postErr != nil {
		p.logger.Warn("advance failed", "gameID", p.loc.GameID, "error", postErr)
		return fmt.Errorf("advance: %w", postErr)
	}
	p.logger.Info("night resolved by host", "gameID", p.loc.GameID)
	return nil
}

// resolveDay closes the day vote. A tie answers RUNOFF and the day goes on
// with a runoff vote between the tied players.
func (p *HostPanel) resolveDay(ctx context.Context, memberID string) error {
	body := map[string]string{"requester_member_id": memberID}
	data, postErr := p.api.PostAction(ctx, domain.GamePath(p.loc.GameID, "resolve_day_simple"), body)

	var out struct {
		Status domain.Status `json:"status"`
	}
	if postErr == nil && len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			p.logger.Debug("resolve day response not decoded", "error", err)
		}
	}

	p.update(func(s *HostState) {
		s.Advancing = false
		switch {
		case postErr != nil:
			s.AdvanceEnabled = true
			s.Message = fmt.Sprintf("Closing the vote failed: %v", postErr)
		case out.Status == domain.StatusRunoff:
			s.AdvanceEnabled = true
			s.Message = "The vote is tied. A runoff vote has started."
		default:
			s.Message = "Day resolved."
		}
	})
	if postErr != nil {
		p.logger.Warn("resolve day failed", "gameID", p.loc.GameID, "error", postErr)
		return fmt.Errorf("resolve day: %w", postErr)
	}
	p.logger.Info("day resolved by host", "gameID", p.loc.GameID, "status", out.Status)
	return nil
}

// Run refreshes the panel immediately and then on every interval until ctx
// is cancelled.
func (p *HostPanel) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// State returns a snapshot of the panel
func (p *HostPanel) State() HostState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// update applies fn and publishes the state when it changed
func (p *HostPanel) update(fn func(*HostState)) {
	p.mu.Lock()
	before := p.state
	fn(&p.state)
	state := p.state
	p.mu.Unlock()

	if p.onChange != nil && !reflect.DeepEqual(before, state) {
		p.onChange(state)
	}
}
