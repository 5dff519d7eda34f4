package ruleset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xiaobei/singbox-manager/common/observable"
	"github.com/xiaobei/singbox-manager/component/debounce"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/log"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/puzpuzpuz/xsync/v3"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDebounce    = 500 * time.Millisecond
	DefaultConcurrency = 8

	FailedMessage = "validation request failed"
)

var ErrUnsupportedKind = errors.New("rule type is not a rule set")

// Verifier resolves a single geosite/geoip name against the remote
// authority. A returned error is a transport failure, not an invalid name.
type Verifier interface {
	Validate(ctx context.Context, kind C.RuleType, name string) (*R.ValidationResult, error)
}

type Results = orderedmap.OrderedMap[string, R.ValidationResult]

// Snapshot is an immutable view of the validator state.
type Snapshot struct {
	Round      uint64
	Validating bool
	Results    *Results
}

func (s Snapshot) Result(name string) (R.ValidationResult, bool) {
	if s.Results == nil {
		return R.ValidationResult{}, false
	}
	return s.Results.Get(name)
}

type Option func(*Validator)

func WithScheduler(scheduler debounce.Scheduler) Option {
	return func(v *Validator) {
		v.scheduler = scheduler
	}
}

func WithDelay(delay time.Duration) Option {
	return func(v *Validator) {
		if delay > 0 {
			v.delay = delay
		}
	}
}

func WithConcurrency(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// Validator debounces edits of rule set names and verifies them in
// rounds. One Validator belongs to one editing session.
//
// Every edit starts a new round id. A round publishes its results only if
// its id is still current when the last name settles, so results of a
// superseded round are never visible.
type Validator struct {
	verifier    Verifier
	scheduler   debounce.Scheduler
	delay       time.Duration
	concurrency int

	mux         sync.Mutex
	round       uint64
	kind        C.RuleType
	results     *Results
	validating  bool
	pending     debounce.Handle
	roundCancel context.CancelFunc
	closed      bool

	running int
	idle    *sync.Cond
	events  chan Snapshot
	source   *observable.Observable[Snapshot]
}

func NewValidator(verifier Verifier, options ...Option) *Validator {
	events := make(chan Snapshot)
	v := &Validator{
		verifier:    verifier,
		scheduler:   debounce.System(),
		delay:       DefaultDebounce,
		concurrency: DefaultConcurrency,
		results:     orderedmap.New[string, R.ValidationResult](),
		events:      events,
		source:      observable.NewObservable[Snapshot](events),
	}
	v.idle = sync.NewCond(&v.mux)
	for _, option := range options {
		option(v)
	}
	return v
}

// Trigger is called on every change of the rule type or the raw values
// text. It never blocks on the network.
func (v *Validator) Trigger(kind C.RuleType, text string) {
	var names []string
	if kind.IsRuleSet() {
		names = R.SplitLines(text)
	}

	v.mux.Lock()
	defer v.mux.Unlock()
	if v.closed {
		return
	}

	v.supersedeLocked()
	if kind != v.kind {
		v.kind = kind
		v.results = orderedmap.New[string, R.ValidationResult]()
	}

	if len(names) == 0 {
		v.results = orderedmap.New[string, R.ValidationResult]()
		v.publishLocked()
		return
	}

	round := v.round
	v.pending = v.scheduler.Arm(v.delay, func() {
		v.fire(round, kind, names)
	})
	v.publishLocked()
}

// Reset drops pending and in-flight work and clears all results.
func (v *Validator) Reset() {
	v.mux.Lock()
	defer v.mux.Unlock()
	if v.closed {
		return
	}
	v.supersedeLocked()
	v.results = orderedmap.New[string, R.ValidationResult]()
	v.publishLocked()
}

// Close tears the session down. Subscriptions are closed.
func (v *Validator) Close() {
	v.mux.Lock()
	defer v.mux.Unlock()
	if v.closed {
		return
	}
	v.supersedeLocked()
	v.results = orderedmap.New[string, R.ValidationResult]()
	v.closed = true
	close(v.events)
}

// Wait blocks until every round that has already started has settled.
// Safe to call while timers fire concurrently.
func (v *Validator) Wait() {
	v.mux.Lock()
	defer v.mux.Unlock()
	for v.running > 0 {
		v.idle.Wait()
	}
}

func (v *Validator) Validating() bool {
	v.mux.Lock()
	defer v.mux.Unlock()
	return v.validating
}

func (v *Validator) Snapshot() Snapshot {
	v.mux.Lock()
	defer v.mux.Unlock()
	return v.snapshotLocked()
}

// AllPassed reports whether text may be saved as a rule of kind: always
// for non rule set kinds, otherwise only when every candidate name has a
// valid result.
func (v *Validator) AllPassed(kind C.RuleType, text string) bool {
	if !kind.IsRuleSet() {
		return true
	}
	names := R.SplitLines(text)
	if len(names) == 0 {
		return false
	}

	v.mux.Lock()
	defer v.mux.Unlock()
	if v.kind != kind {
		return false
	}
	for _, name := range names {
		result, ok := v.results.Get(name)
		if !ok || !result.Valid {
			return false
		}
	}
	return true
}

func (v *Validator) Subscribe() (observable.Subscription[Snapshot], error) {
	return v.source.Subscribe()
}

func (v *Validator) UnSubscribe(sub observable.Subscription[Snapshot]) {
	v.source.UnSubscribe(sub)
}

func (v *Validator) supersedeLocked() {
	v.round++
	if v.pending != nil {
		v.pending.Cancel()
		v.pending = nil
	}
	if v.roundCancel != nil {
		v.roundCancel()
		v.roundCancel = nil
	}
	v.validating = false
}

func (v *Validator) fire(round uint64, kind C.RuleType, names []string) {
	v.mux.Lock()
	if v.closed || round != v.round {
		v.mux.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.pending = nil
	v.roundCancel = cancel
	v.validating = true
	v.running++
	v.publishLocked()
	v.mux.Unlock()

	go v.run(ctx, cancel, round, kind, names)
}

func (v *Validator) run(ctx context.Context, cancel context.CancelFunc, round uint64, kind C.RuleType, names []string) {
	defer cancel()

	log.Debugln("[RuleSet] start validation round %d: %s %v", round, kind, names)
	collected := xsync.NewMapOf[string, R.ValidationResult]()

	var g errgroup.Group
	g.SetLimit(v.concurrency)
	for _, name := range names {
		name := name
		g.Go(func() error {
			collected.Store(name, v.validate(ctx, kind, name))
			return nil
		})
	}
	_ = g.Wait()

	fresh := orderedmap.New[string, R.ValidationResult]()
	for _, name := range names {
		if result, ok := collected.Load(name); ok {
			fresh.Set(name, result)
		}
	}

	v.mux.Lock()
	defer v.mux.Unlock()
	defer v.settleLocked()
	if v.closed || round != v.round {
		log.Debugln("[RuleSet] drop results of stale round %d", round)
		return
	}
	v.results = fresh
	v.validating = false
	v.roundCancel = nil
	v.publishLocked()
	log.Debugln("[RuleSet] finish validation round %d", round)
}

func (v *Validator) validate(ctx context.Context, kind C.RuleType, name string) R.ValidationResult {
	result, err := v.verifier.Validate(ctx, kind, name)
	if err != nil || result == nil {
		if ctx.Err() != nil {
			log.Debugln("[RuleSet] validate %s %s cancelled: %v", kind, name, err)
		} else {
			log.Warnln("[RuleSet] validate %s %s failed: %v", kind, name, err)
		}
		return R.ValidationResult{Valid: false, Message: FailedMessage}
	}
	return *result
}

func (v *Validator) settleLocked() {
	v.running--
	v.idle.Broadcast()
}

func (v *Validator) snapshotLocked() Snapshot {
	results := orderedmap.New[string, R.ValidationResult](v.results.Len())
	for pair := v.results.Oldest(); pair != nil; pair = pair.Next() {
		results.Set(pair.Key, pair.Value)
	}
	return Snapshot{
		Round:      v.round,
		Validating: v.validating,
		Results:    results,
	}
}

func (v *Validator) publishLocked() {
	v.events <- v.snapshotLocked()
}
