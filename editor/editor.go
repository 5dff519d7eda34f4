// Package editor holds the create/edit form controller for custom rules.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xiaobei/singbox-manager/component/outbound"
	"github.com/xiaobei/singbox-manager/component/ruleset"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/log"
	R "github.com/xiaobei/singbox-manager/rule"
)

const DefaultPriority = 100

var (
	ErrClosed         = errors.New("editor is closed")
	ErrNotSubmittable = errors.New("rule is not ready to submit")
)

type Mode int

const (
	Closed Mode = iota
	Creating
	Editing
)

func (m Mode) String() string {
	switch m {
	case Closed:
		return "Closed"
	case Creating:
		return "Creating"
	case Editing:
		return "Editing"
	default:
		return "Unknown"
	}
}

// RuleWriter is the part of the store a submit goes through.
type RuleWriter interface {
	AddRule(ctx context.Context, rule R.Rule) (*R.Rule, error)
	UpdateRule(ctx context.Context, id string, rule R.Rule) error
}

// ValidatorFactory builds the validator of one editing session.
type ValidatorFactory func() *ruleset.Validator

// Draft is the in-progress copy of a rule. Values are kept as raw text
// until submit.
type Draft struct {
	Name       string
	RuleType   C.RuleType
	ValuesText string
	Outbound   C.Outbound
	Enabled    bool
	Priority   int
}

func defaultDraft() Draft {
	return Draft{
		RuleType: C.DomainSuffix,
		Outbound: C.BuiltInOutbound(C.Proxy),
		Enabled:  true,
		Priority: DefaultPriority,
	}
}

// Editor is driven by a single UI goroutine and is not safe for
// concurrent use; only its validator runs work in the background.
type Editor struct {
	writer       RuleWriter
	newValidator ValidatorFactory

	mode      Mode
	originID  string
	draft     Draft
	options   []outbound.Option
	validator *ruleset.Validator
}

func New(writer RuleWriter, newValidator ValidatorFactory) *Editor {
	return &Editor{
		writer:       writer,
		newValidator: newValidator,
	}
}

// Create opens a session for a new rule.
func (e *Editor) Create(options []outbound.Option) {
	e.open(Creating, "", defaultDraft(), options)
}

// Edit opens a session on a copy of rule. The store's record is never
// touched until submit.
func (e *Editor) Edit(rule R.Rule, options []outbound.Option) {
	rule = rule.Clone()
	draft := Draft{
		Name:       rule.Name,
		RuleType:   rule.RuleType,
		ValuesText: R.JoinValues(rule.Values),
		Outbound:   resolveTarget(options, rule.Outbound),
		Enabled:    rule.Enabled,
		Priority:   rule.Priority,
	}
	e.open(Editing, rule.ID, draft, options)
	e.validator.Trigger(draft.RuleType, draft.ValuesText)
}

func (e *Editor) open(mode Mode, id string, draft Draft, options []outbound.Option) {
	e.Cancel()
	e.mode = mode
	e.originID = id
	e.draft = draft
	e.options = options
	e.validator = e.newValidator()
}

// Cancel closes the session and discards the draft.
func (e *Editor) Cancel() {
	if e.validator != nil {
		e.validator.Close()
		e.validator = nil
	}
	e.mode = Closed
	e.originID = ""
	e.draft = Draft{}
	e.options = nil
}

func (e *Editor) Mode() Mode {
	return e.mode
}

func (e *Editor) Draft() Draft {
	return e.draft
}

func (e *Editor) Options() []outbound.Option {
	return e.options
}

func (e *Editor) SetName(name string) {
	if e.mode == Closed {
		return
	}
	e.draft.Name = name
}

func (e *Editor) SetRuleType(tp C.RuleType) {
	if e.mode == Closed || !tp.Valid() {
		return
	}
	e.draft.RuleType = tp
	e.validator.Trigger(e.draft.RuleType, e.draft.ValuesText)
}

func (e *Editor) SetValuesText(text string) {
	if e.mode == Closed {
		return
	}
	e.draft.ValuesText = text
	e.validator.Trigger(e.draft.RuleType, e.draft.ValuesText)
}

func (e *Editor) SetOutbound(target C.Outbound) {
	if e.mode == Closed {
		return
	}
	e.draft.Outbound = target
}

func (e *Editor) SetEnabled(enabled bool) {
	if e.mode == Closed {
		return
	}
	e.draft.Enabled = enabled
}

func (e *Editor) SetPriority(priority int) {
	if e.mode == Closed {
		return
	}
	e.draft.Priority = priority
}

// SetPriorityText applies raw priority input; unparsable text resets the
// priority to DefaultPriority.
func (e *Editor) SetPriorityText(text string) {
	priority, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		priority = DefaultPriority
	}
	e.SetPriority(priority)
}

func (e *Editor) Placeholder() string {
	return R.Info(e.draft.RuleType).Placeholder
}

func (e *Editor) Validation() ruleset.Snapshot {
	if e.validator == nil {
		return ruleset.Snapshot{}
	}
	return e.validator.Snapshot()
}

// Validator exposes the session validator, e.g. to subscribe to its
// snapshots. It is nil while the editor is closed.
func (e *Editor) Validator() *ruleset.Validator {
	return e.validator
}

// CanSubmit is the save gate.
func (e *Editor) CanSubmit() bool {
	if e.mode == Closed {
		return false
	}
	if strings.TrimSpace(e.draft.Name) == "" || strings.TrimSpace(e.draft.ValuesText) == "" {
		return false
	}
	if e.validator.Validating() {
		return false
	}
	return e.validator.AllPassed(e.draft.RuleType, e.draft.ValuesText)
}

// Submit writes the draft to the store and closes the session. On failure
// the session stays open with the draft intact.
func (e *Editor) Submit(ctx context.Context) (*R.Rule, error) {
	if e.mode == Closed {
		return nil, ErrClosed
	}
	if !e.CanSubmit() {
		return nil, ErrNotSubmittable
	}

	rule := R.Rule{
		Name:     strings.TrimSpace(e.draft.Name),
		RuleType: e.draft.RuleType,
		Values:   R.ParseValues(e.draft.ValuesText),
		Outbound: e.draft.Outbound.String(),
		Enabled:  e.draft.Enabled,
		Priority: e.draft.Priority,
	}

	switch e.mode {
	case Editing:
		rule.ID = e.originID
		if err := e.writer.UpdateRule(ctx, rule.ID, rule); err != nil {
			log.Warnln("[Editor] update rule %s failed: %s", rule.ID, err.Error())
			return nil, fmt.Errorf("update rule %s: %w", rule.ID, err)
		}
	default:
		created, err := e.writer.AddRule(ctx, rule)
		if err != nil {
			log.Warnln("[Editor] add rule %s failed: %s", rule.Name, err.Error())
			return nil, fmt.Errorf("add rule %s: %w", rule.Name, err)
		}
		if created != nil {
			rule = *created
		}
	}

	log.Infoln("[Editor] saved rule %s (%s)", rule.Name, rule.RuleType)
	e.Cancel()
	return &rule, nil
}

func resolveTarget(options []outbound.Option, value string) C.Outbound {
	if option, ok := outbound.Lookup(options, value); ok {
		return option.Target
	}
	return C.Outbound{Kind: C.Unknown, Name: value}
}
