package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"werewolf-client/internal/app"
	"werewolf-client/internal/domain"
)

// Console renders screens as plain text on a writer
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console writing to out
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

var screenTitles = map[domain.Screen]string{
	domain.ScreenRoleConfirm: "Role",
	domain.ScreenNightAttack: "Night - Werewolf",
	domain.ScreenNightSeer:   "Night - Seer",
	domain.ScreenNightKnight: "Night - Knight",
	domain.ScreenNightWait:   "Night",
	domain.ScreenDay:         "Day",
	domain.ScreenMorning:     "Morning",
	domain.ScreenSpectator:   "Spectator",
	domain.ScreenResult:      "Result",
}

// ShowScreen prints the heading of a newly shown screen
func (c *Console) ShowScreen(loc domain.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()

	title, ok := screenTitles[loc.Screen]
	if !ok {
		title = loc.Screen.String()
	}
	rule := "=="
	if loc.Screen.IsNight() {
		rule = "**"
	}
	fmt.Fprintf(c.out, "\n%s %s %s  (%s)\n", rule, title, rule, loc.URL())
}

// ShowNotice prints a one-line message
func (c *Console) ShowNotice(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "* %s\n", text)
}

// ShowNight prints the state of an action screen with numbered cards
func (c *Console) ShowNight(state app.NightState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "[%s] %s\n", state.Phase, state.Status)
	if state.Runoff {
		fmt.Fprintln(c.out, "  runoff: only the tied players can be chosen")
	}

	if len(state.Cards) > 0 {
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		for i, card := range state.Cards {
			fmt.Fprintf(tw, "  %s%d\t%s\t%s\n", marker(card), i+1, card.Member.Label(), cardNote(card))
		}
		tw.Flush()
	}

	if n := len(state.Log); n > 0 {
		last := state.Log[n-1]
		fmt.Fprintf(c.out, "  %s: %s\n", strings.ToUpper(string(last.Kind)), last.Text)
	}
	if state.SubmitEnabled {
		fmt.Fprintln(c.out, "  type s to submit")
	}
}

// ShowHost prints the host panel, or only its note for other players
func (c *Console) ShowHost(state app.HostState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !state.Loaded {
		return
	}
	if !state.IsHost {
		if state.Note != "" {
			fmt.Fprintf(c.out, "  (%s)\n", state.Note)
		}
		return
	}

	if state.Day {
		fmt.Fprintf(c.out, "  host: day %d vote", state.Votes.DayNo)
		if state.Votes.IsRunoff {
			fmt.Fprintf(c.out, " (runoff between %d players)", len(state.Votes.CandidateIDs))
		}
		if state.AdvanceEnabled {
			fmt.Fprint(c.out, " - type a to close the vote")
		}
		fmt.Fprintln(c.out)
		if state.Message != "" {
			fmt.Fprintf(c.out, "  %s\n", state.Message)
		}
		return
	}

	p := state.Progress
	fmt.Fprintf(c.out, "  host: %d/%d actions in (wolves %d/%d, seer %d/%d, knight %d/%d)",
		p.Done(), p.Total(), p.WolvesDone, p.WolvesTotal, p.SeerDone, p.SeerTotal, p.KnightDone, p.KnightTotal)
	if state.AdvanceEnabled {
		fmt.Fprint(c.out, " - everyone is done, type a to advance")
	}
	fmt.Fprintln(c.out)
	if state.Message != "" {
		fmt.Fprintf(c.out, "  %s\n", state.Message)
	}
}

// ShowRoster prints the members and whether they are alive
func (c *Console) ShowRoster(members []domain.Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeRoster(members)
}

// ShowResult prints the winner followed by the roster
func (c *Console) ShowResult(result domain.JudgeResult, members []domain.Member) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch result.Result {
	case domain.OutcomeVillageWin:
		fmt.Fprintln(c.out, "The village wins.")
	case domain.OutcomeWolfWin:
		fmt.Fprintln(c.out, "The werewolves win.")
	default:
		fmt.Fprintln(c.out, "The game is still going.")
	}
	c.writeRoster(members)
}

func (c *Console) writeRoster(members []domain.Member) {
	if len(members) == 0 {
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, m := range members {
		status := domain.LifeAlive
		if !m.IsAlive {
			status = domain.LifeDead
		}
		if m.Role != domain.RoleUnknown {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.Label(), status, m.Role)
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\n", m.Label(), status)
	}
	tw.Flush()
}

func marker(card app.Card) string {
	if card.Selected {
		return ">"
	}
	return " "
}

func cardNote(card app.Card) string {
	switch {
	case card.Self:
		return "you"
	case !card.Member.IsAlive:
		return "dead"
	case card.Selectable:
		return ""
	}
	return "-"
}
