package phase

import (
	"encoding/json"
	"fmt"
	"strings"
)

// State Phase 상태 값입니다.
type State int

const (
	StateUnderway State = iota
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnderway:
		return "underway"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal Completed 또는 Failed 상태인지 여부를 반환합니다.
// 종료 상태 이후에는 어떤 상태도 발행되지 않습니다.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}

	switch strings.ToLower(text) {
	case "underway":
		*s = StateUnderway
	case "completed":
		*s = StateCompleted
	case "failed":
		*s = StateFailed
	default:
		return fmt.Errorf("알 수 없는 phase 상태입니다: %q", text)
	}

	return nil
}

// Status Phase가 발행하는 상태 변화 한 건입니다.
type Status struct {
	State       State  `json:"state"`
	Description string `json:"description"`
}

func Underway(description string) Status {
	return Status{State: StateUnderway, Description: description}
}

func Completed(description string) Status {
	return Status{State: StateCompleted, Description: description}
}

func Failed(description string) Status {
	return Status{State: StateFailed, Description: description}
}

func (s Status) String() string {
	return fmt.Sprintf("%s: %s", s.State, s.Description)
}
