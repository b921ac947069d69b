package door

import (
	"encoding/json"
	"strings"

	"github.com/iancoleman/strcase"
)

// Mode 도어 컨트롤러가 보고하는 도어의 현재 모드입니다.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeClosed
	ModeMoving
	ModeOpen
	ModeOffline
)

var modeNames = map[Mode]string{
	ModeUnknown: "UNKNOWN",
	ModeClosed:  "CLOSED",
	ModeMoving:  "MOVING",
	ModeOpen:    "OPEN",
	ModeOffline: "OFFLINE",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return modeNames[ModeUnknown]
}

// ParseMode 대소문자나 구분자 형식(open, Open, MODE_OPEN, mode-open 등)에 관계없이 모드를 해석합니다.
// 해석할 수 없으면 ModeUnknown과 false를 반환합니다.
func ParseMode(s string) (Mode, bool) {
	normalized := strcase.ToScreamingSnake(strings.TrimSpace(s))
	normalized = strings.TrimPrefix(normalized, "MODE_")

	for m, name := range modeNames {
		if name == normalized {
			return m, true
		}
	}

	return ModeUnknown, false
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}

	*m, _ = ParseMode(text)

	return nil
}
