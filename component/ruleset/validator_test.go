package ruleset

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xiaobei/singbox-manager/component/debounce"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/log"
	R "github.com/xiaobei/singbox-manager/rule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	mux     sync.Mutex
	calls   []string
	results map[string]*R.ValidationResult
	errs    map[string]error
	block   map[string]chan struct{}
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		results: map[string]*R.ValidationResult{},
		errs:    map[string]error{},
		block:   map[string]chan struct{}{},
	}
}

func (f *fakeVerifier) valid(names ...string) *fakeVerifier {
	for _, name := range names {
		f.results[name] = &R.ValidationResult{Valid: true, URL: "https://example.com/" + name, Tag: "geosite-" + name, Message: "ok"}
	}
	return f
}

func (f *fakeVerifier) Validate(_ context.Context, kind C.RuleType, name string) (*R.ValidationResult, error) {
	f.mux.Lock()
	f.calls = append(f.calls, kind.String()+":"+name)
	gate := f.block[name]
	result := f.results[name]
	err := f.errs[name]
	f.mux.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &R.ValidationResult{Valid: false, Message: "not found"}, nil
	}
	copied := *result
	return &copied, nil
}

func (f *fakeVerifier) Calls() []string {
	f.mux.Lock()
	defer f.mux.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestValidator(verifier Verifier) (*Validator, *debounce.Manual) {
	scheduler := debounce.NewManual()
	return NewValidator(verifier, WithScheduler(scheduler)), scheduler
}

func TestValidator_NonRuleSetNeverCalls(t *testing.T) {
	verifier := newFakeVerifier().valid("google")
	v, scheduler := newTestValidator(verifier)
	defer v.Close()

	for _, tp := range []C.RuleType{C.DomainSuffix, C.DomainKeyword, C.Domain, C.IPCIDR, C.Port} {
		v.Trigger(tp, "google\nexample.com")
		scheduler.Advance(time.Second)
		v.Wait()

		assert.Equal(t, 0, v.Snapshot().Results.Len())
		assert.True(t, v.AllPassed(tp, "google"))
	}
	assert.Empty(t, verifier.Calls())
	assert.Equal(t, 0, scheduler.Pending())
}

func TestValidator_Debounce(t *testing.T) {
	verifier := newFakeVerifier().valid("google")
	v, scheduler := newTestValidator(verifier)
	defer v.Close()

	v.Trigger(C.GeoSite, "g")
	scheduler.Advance(300 * time.Millisecond)
	v.Trigger(C.GeoSite, "go")
	scheduler.Advance(300 * time.Millisecond)
	v.Trigger(C.GeoSite, "google")
	scheduler.Advance(499 * time.Millisecond)
	assert.Empty(t, verifier.Calls())
	assert.Equal(t, 1, scheduler.Pending())

	scheduler.Advance(time.Millisecond)
	v.Wait()
	assert.Equal(t, []string{"geosite:google"}, verifier.Calls())
	assert.Equal(t, 0, scheduler.Pending())
	assert.True(t, v.AllPassed(C.GeoSite, "google"))
}

func TestValidator_ScenarioA(t *testing.T) {
	verifier := newFakeVerifier().valid("google")
	v, scheduler := newTestValidator(verifier)
	defer v.Close()

	v.Trigger(C.GeoSite, "google\nyoutube")
	scheduler.Advance(DefaultDebounce)
	v.Wait()

	snapshot := v.Snapshot()
	google, ok := snapshot.Result("google")
	require.True(t, ok)
	assert.True(t, google.Valid)
	youtube, ok := snapshot.Result("youtube")
	require.True(t, ok)
	assert.False(t, youtube.Valid)
	assert.Equal(t, "not found", youtube.Message)
	assert.False(t, v.AllPassed(C.GeoSite, "google\nyoutube"))
}

func TestValidator_ScenarioB(t *testing.T) {
	verifier := newFakeVerifier().valid("google", "youtube")
	v, scheduler := newTestValidator(verifier)
	defer v.Close()

	v.Trigger(C.GeoSite, "google\nyoutube")
	scheduler.Advance(DefaultDebounce)
	v.Wait()

	assert.True(t, v.AllPassed(C.GeoSite, "google\nyoutube"))
	assert.True(t, v.AllPassed(C.GeoSite, "  google \n\n youtube\n"))
	assert.False(t, v.Validating())

	var keys []string
	for pair := v.Snapshot().Results.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"google", "youtube"}, keys)
}

func TestValidator_TransportFailureIsScoped(t *testing.T) {
	verifier := newFakeVerifier().valid("youtube")
	verifier.errs["google"] = errors.New("connection reset")
	v, scheduler := newTestValidator(verifier)
	defer v.Close()

	v.Trigger(C.GeoIP, "google\nyoutube")
	scheduler.Advance(DefaultDebounce)
	v.Wait()

	snapshot := v.Snapshot()
	google, _ := snapshot.Result("google")
	assert.Equal(t, R.ValidationResult{Valid: false, Message: FailedMessage}, google)
	youtube, _ := snapshot.Result("youtube")
	assert.True(t, youtube.Valid)
	assert.False(t, v.AllPassed(C.GeoIP, "google\nyoutube"))
	assert.True(t, v.AllPassed(C.GeoIP, "youtube"))
}

func TestValidator_EmptyCandidates(t *testing.T) {
	verifier := newFakeVerifier().valid("google")
	v, scheduler := newTestValidator(verifier)
	defer v.Close()

	v.Trigger(C.GeoSite, "google")
	scheduler.Advance(DefaultDebounce)
	v.Wait()
	require.Equal(t, 1, v.Snapshot().Results.Len())

	v.Trigger(C.GeoSite, " \n\t\n")
	assert.Equal(t, 0, v.Snapshot().Results.Len())
	assert.Equal(t, 0, scheduler.Pending())
	assert.False(t, v.AllPassed(C.GeoSite, " \n\t\n"))
	assert.False(t, v.AllPassed(C.GeoIP, ""))
}

func TestValidator_DuplicateNames(t *testing.T) {
	verifier := newFakeVerifier().valid("google")
	v, scheduler := newTestValidator(verifier)
	defer v.Close()

	v.Trigger(C.GeoSite, "google\ngoogle")
	scheduler.Advance(DefaultDebounce)
	v.Wait()

	assert.Equal(t, []string{"geosite:google", "geosite:google"}, verifier.Calls())
	assert.Equal(t, 1, v.Snapshot().Results.Len())
	assert.True(t, v.AllPassed(C.GeoSite, "google\ngoogle"))
}

func TestValidator_StaleRoundDropped(t *testing.T) {
	verifier := newFakeVerifier().valid("slow", "fast")
	release := make(chan struct{})
	verifier.block["slow"] = release
	v, scheduler := newTestValidator(verifier)
	defer v.Close()

	v.Trigger(C.GeoSite, "slow")
	scheduler.Advance(DefaultDebounce)
	assert.Eventually(t, func() bool {
		return len(verifier.Calls()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, v.Validating())

	v.Trigger(C.GeoSite, "fast")
	scheduler.Advance(DefaultDebounce)
	assert.Eventually(t, func() bool {
		_, ok := v.Snapshot().Result("fast")
		return ok
	}, time.Second, 5*time.Millisecond)

	close(release)
	v.Wait()

	snapshot := v.Snapshot()
	_, ok := snapshot.Result("slow")
	assert.False(t, ok)
	assert.Equal(t, 1, snapshot.Results.Len())
	assert.False(t, snapshot.Validating)
}

func TestValidator_KindChangeInvalidates(t *testing.T) {
	verifier := newFakeVerifier().valid("google")
	v, scheduler := newTestValidator(verifier)
	defer v.Close()

	v.Trigger(C.GeoSite, "google")
	scheduler.Advance(DefaultDebounce)
	v.Wait()
	require.True(t, v.AllPassed(C.GeoSite, "google"))

	v.Trigger(C.GeoIP, "google")
	assert.False(t, v.AllPassed(C.GeoIP, "google"))
	assert.Equal(t, 0, v.Snapshot().Results.Len())

	scheduler.Advance(DefaultDebounce)
	v.Wait()
	assert.True(t, v.AllPassed(C.GeoIP, "google"))
	assert.Equal(t, []string{"geosite:google", "geoip:google"}, verifier.Calls())
}

func TestValidator_Subscribe(t *testing.T) {
	verifier := newFakeVerifier().valid("google")
	v, scheduler := newTestValidator(verifier)

	sub, err := v.Subscribe()
	require.NoError(t, err)

	v.Trigger(C.GeoSite, "google")
	scheduler.Advance(DefaultDebounce)
	v.Wait()

	var published []Snapshot
	timeout := time.After(time.Second)
	for len(published) < 3 {
		select {
		case snapshot := <-sub:
			published = append(published, snapshot)
		case <-timeout:
			t.Fatalf("received %d snapshots", len(published))
		}
	}
	assert.False(t, published[0].Validating)
	assert.True(t, published[1].Validating)
	assert.False(t, published[2].Validating)
	result, ok := published[2].Result("google")
	assert.True(t, ok)
	assert.True(t, result.Valid)

	v.Close()
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-sub:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestValidator_CloseCancelsPending(t *testing.T) {
	verifier := newFakeVerifier().valid("google")
	v, scheduler := newTestValidator(verifier)

	v.Trigger(C.GeoSite, "google")
	v.Close()
	scheduler.Advance(DefaultDebounce)
	v.Wait()

	assert.Empty(t, verifier.Calls())
	v.Trigger(C.GeoSite, "google")
	assert.Equal(t, 0, scheduler.Pending())
}

type cancelAwareVerifier struct {
	started chan string
}

func (c *cancelAwareVerifier) Validate(ctx context.Context, kind C.RuleType, name string) (*R.ValidationResult, error) {
	c.started <- name
	if name == "fast" {
		return &R.ValidationResult{Valid: true, Tag: R.RuleSetTag(kind, name)}, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestValidator_SupersededRequestsAreQuiet(t *testing.T) {
	sub := log.Subscribe()
	defer log.UnSubscribe(sub)

	verifier := &cancelAwareVerifier{started: make(chan string, 4)}
	v, scheduler := newTestValidator(verifier)
	defer v.Close()

	v.Trigger(C.GeoSite, "slow")
	scheduler.Advance(DefaultDebounce)
	require.Equal(t, "slow", <-verifier.started)

	v.Trigger(C.GeoSite, "fast")
	scheduler.Advance(DefaultDebounce)
	v.Wait()
	assert.True(t, v.AllPassed(C.GeoSite, "fast"))

	log.Warnln("[Test] end of validation")
	for event := range sub {
		if event.Payload == "[Test] end of validation" {
			break
		}
		if event.LogLevel >= log.WARNING {
			t.Errorf("unexpected %s log: %s", event.Type(), event.Payload)
		}
	}
}

func TestValidator_WaitWithSystemScheduler(t *testing.T) {
	verifier := newFakeVerifier().valid("google")
	v := NewValidator(verifier, WithDelay(time.Millisecond))
	defer v.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			v.Wait()
		}
	}()
	for i := 0; i < 50; i++ {
		v.Trigger(C.GeoSite, "google")
		time.Sleep(100 * time.Microsecond)
	}
	<-done

	assert.Eventually(t, func() bool {
		v.Wait()
		return v.AllPassed(C.GeoSite, "google")
	}, time.Second, 5*time.Millisecond)
}
