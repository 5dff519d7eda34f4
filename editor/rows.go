package editor

import (
	"strings"

	R "github.com/xiaobei/singbox-manager/rule"
)

type RowState int

const (
	Pending RowState = iota
	Valid
	Invalid
)

func (s RowState) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "pending"
	}
}

// Row is the per-name validation line shown under the values input.
type Row struct {
	Name    string
	State   RowState
	Message string
}

// ValidationRows lists one row per candidate line, in input order. It is
// empty unless the draft is a rule set type with some text.
func (e *Editor) ValidationRows() []Row {
	if e.mode == Closed || !e.draft.RuleType.IsRuleSet() || strings.TrimSpace(e.draft.ValuesText) == "" {
		return nil
	}

	snapshot := e.validator.Snapshot()
	names := R.SplitLines(e.draft.ValuesText)
	rows := make([]Row, 0, len(names))
	for _, name := range names {
		row := Row{Name: name}
		if result, ok := snapshot.Result(name); ok {
			row.Message = result.Message
			if result.Valid {
				row.State = Valid
			} else {
				row.State = Invalid
			}
		}
		rows = append(rows, row)
	}
	return rows
}
