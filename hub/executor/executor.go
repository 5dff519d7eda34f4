package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xiaobei/singbox-manager/component/outbound"
	"github.com/xiaobei/singbox-manager/component/ruleset"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/editor"
	"github.com/xiaobei/singbox-manager/log"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

var ErrDeleteCancelled = errors.New("delete cancelled")

// Confirm asks the user a yes/no question.
type Confirm func(prompt string) bool

// Page backs the rule management screen: the preset rule groups, the
// custom rules and the outbound choices for both. It never edits its
// cached lists in place; every mutation is followed by a reload.
type Page struct {
	store      R.Store
	verifier   ruleset.Verifier
	validators []ruleset.Option

	mux           sync.RWMutex
	groups        []R.RuleGroup
	rules         []R.Rule
	filters       []R.Filter
	countryGroups []R.CountryGroup
}

func New(store R.Store, verifier ruleset.Verifier, options ...ruleset.Option) *Page {
	return &Page{
		store:      store,
		verifier:   verifier,
		validators: options,
	}
}

// Load fetches all four collections concurrently. On error nothing is
// replaced.
func (p *Page) Load(ctx context.Context) error {
	var (
		groups        []R.RuleGroup
		rules         []R.Rule
		filters       []R.Filter
		countryGroups []R.CountryGroup
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		groups, err = p.store.RuleGroups(ctx)
		return
	})
	g.Go(func() (err error) {
		rules, err = p.store.Rules(ctx)
		return
	})
	g.Go(func() (err error) {
		filters, err = p.store.Filters(ctx)
		return
	})
	g.Go(func() (err error) {
		countryGroups, err = p.store.CountryGroups(ctx)
		return
	})
	if err := g.Wait(); err != nil {
		log.Warnln("[Page] load failed: %s", err.Error())
		return err
	}

	p.mux.Lock()
	p.groups = groups
	p.rules = rules
	p.filters = filters
	p.countryGroups = countryGroups
	p.mux.Unlock()
	log.Debugln("[Page] loaded %d rule groups, %d rules", len(groups), len(rules))
	return nil
}

func (p *Page) reloadGroups(ctx context.Context) error {
	groups, err := p.store.RuleGroups(ctx)
	if err != nil {
		return err
	}
	p.mux.Lock()
	p.groups = groups
	p.mux.Unlock()
	return nil
}

func (p *Page) reloadRules(ctx context.Context) error {
	rules, err := p.store.Rules(ctx)
	if err != nil {
		return err
	}
	p.mux.Lock()
	p.rules = rules
	p.mux.Unlock()
	return nil
}

func (p *Page) RuleGroups() []R.RuleGroup {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return lo.Map(p.groups, func(group R.RuleGroup, _ int) R.RuleGroup {
		return group.Clone()
	})
}

func (p *Page) Rules() []R.Rule {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return lo.Map(p.rules, func(rule R.Rule, _ int) R.Rule {
		return rule.Clone()
	})
}

// GroupRows is the rule group list as displayed.
func (p *Page) GroupRows() []R.GroupRow {
	return R.PresentGroups(p.RuleGroups())
}

// RuleRows is the custom rule list as displayed, by ascending priority.
func (p *Page) RuleRows() []R.RuleRow {
	return R.Present(p.Rules())
}

// Options lists every selectable outbound for the current page state.
func (p *Page) Options() []outbound.Option {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return outbound.Resolve(p.countryGroups, p.filters)
}

func (p *Page) ToggleRuleGroup(ctx context.Context, id string, enabled bool) error {
	if err := p.store.ToggleRuleGroup(ctx, id, enabled); err != nil {
		return fmt.Errorf("toggle rule group %s: %w", id, err)
	}
	log.Infoln("[Page] rule group %s enabled=%t", id, enabled)
	return p.reloadGroups(ctx)
}

func (p *Page) SetRuleGroupOutbound(ctx context.Context, id string, target C.Outbound) error {
	if err := p.store.UpdateRuleGroupOutbound(ctx, id, target.String()); err != nil {
		return fmt.Errorf("set outbound of rule group %s: %w", id, err)
	}
	log.Infoln("[Page] rule group %s outbound=%s", id, target)
	return p.reloadGroups(ctx)
}

func (p *Page) findRule(id string) (R.Rule, error) {
	p.mux.RLock()
	defer p.mux.RUnlock()
	rule, ok := lo.Find(p.rules, func(rule R.Rule) bool {
		return rule.ID == id
	})
	if !ok {
		return R.Rule{}, fmt.Errorf("rule %s: %w", id, R.ErrNotFound)
	}
	return rule.Clone(), nil
}

// ToggleRule flips the enabled flag of a custom rule, sending every other
// field unchanged.
func (p *Page) ToggleRule(ctx context.Context, id string) error {
	rule, err := p.findRule(id)
	if err != nil {
		return err
	}
	rule.Enabled = !rule.Enabled
	if err := p.store.UpdateRule(ctx, id, rule); err != nil {
		return fmt.Errorf("toggle rule %s: %w", id, err)
	}
	log.Infoln("[Page] rule %s enabled=%t", rule.Name, rule.Enabled)
	return p.reloadRules(ctx)
}

// DeletePrompt is the confirmation question shown before a delete.
func DeletePrompt(rule R.Rule) string {
	return fmt.Sprintf("Delete rule %q?", rule.Name)
}

// DeleteRule removes a custom rule once confirm agrees. A nil confirm
// always declines.
func (p *Page) DeleteRule(ctx context.Context, id string, confirm Confirm) error {
	rule, err := p.findRule(id)
	if err != nil {
		return err
	}
	if confirm == nil || !confirm(DeletePrompt(rule)) {
		return ErrDeleteCancelled
	}
	if err := p.store.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	log.Infoln("[Page] rule %s deleted", rule.Name)
	return p.reloadRules(ctx)
}

// Editor returns an editor whose sessions validate through the page's
// verifier. Open a session with CreateRule or EditRule.
func (p *Page) Editor() *editor.Editor {
	return editor.New(p.store, func() *ruleset.Validator {
		return ruleset.NewValidator(p.verifier, p.validators...)
	})
}

func (p *Page) CreateRule(e *editor.Editor) {
	e.Create(p.Options())
}

func (p *Page) EditRule(e *editor.Editor, id string) error {
	rule, err := p.findRule(id)
	if err != nil {
		return err
	}
	e.Edit(rule, p.Options())
	return nil
}

// Submit saves the editor's draft and refreshes the rule list.
func (p *Page) Submit(ctx context.Context, e *editor.Editor) (*R.Rule, error) {
	rule, err := e.Submit(ctx)
	if err != nil {
		return nil, err
	}
	return rule, p.reloadRules(ctx)
}
