package domain

import "strings"

// Status is the server-reported phase of a game
type Status string

const (
	StatusUnknown       Status = ""
	StatusWaiting       Status = "WAITING"
	StatusNight         Status = "NIGHT"
	StatusDay           Status = "DAY"
	StatusDayDiscussion Status = "DAY_DISCUSSION"
	StatusMorning       Status = "MORNING"
	StatusRunoff        Status = "RUNOFF"
	StatusFinished      Status = "FINISHED"
	StatusVillageWin    Status = "VILLAGE_WIN"
	StatusWolfWin       Status = "WOLF_WIN"
)

// ParseStatus normalizes a raw status string. Unrecognized values are kept
// verbatim (upper-cased) so that a change between two unknown values is still
// observable.
func ParseStatus(raw string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(raw)))
}

// String returns the string representation of the status
func (s Status) String() string {
	if s == StatusUnknown {
		return "unknown"
	}
	return string(s)
}

// IsNight returns true during the night phase
func (s Status) IsNight() bool {
	return s == StatusNight
}

// JudgeOutcome is the result reported by the judge endpoint
type JudgeOutcome string

const (
	OutcomeOngoing    JudgeOutcome = "ONGOING"
	OutcomeVillageWin JudgeOutcome = "VILLAGE_WIN"
	OutcomeWolfWin    JudgeOutcome = "WOLF_WIN"
)

// JudgeResult is the body of GET /games/{id}/judge
type JudgeResult struct {
	Result JudgeOutcome `json:"result"`
}

// IsTerminal reports whether the game has ended. Anything other than an
// explicit ONGOING (after normalization) is terminal, except an empty result.
func (j JudgeResult) IsTerminal() bool {
	r := JudgeOutcome(strings.ToUpper(strings.TrimSpace(string(j.Result))))
	return r != "" && r != OutcomeOngoing
}
