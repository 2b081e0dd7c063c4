package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ppiankov/toolgate/internal/model"
)

// globalKey is the window key when the limiter is not per-agent.
const globalKey = "*"

// sweepEvery bounds stale-key growth under per-agent mode: every N
// checks the limiter walks the whole map and evicts keys whose windows
// have fully expired.
const sweepEvery = 4096

// Limiter is a sliding-window rate limit rule. It counts calls within a
// moving window keyed by agent id (or globally) and blocks once the
// window is full. Window state lives for the life of the rule value and
// is safe for concurrent evaluations.
type Limiter struct {
	max      int
	window   time.Duration
	perAgent bool

	mu      sync.Mutex
	windows map[string][]time.Time
	checks  uint64

	now func() time.Time // test hook
}

// New constructs a sliding-window limiter rule.
// maxCalls and window must be positive; violations are construction-time
// failures, never deferred to evaluation.
func New(maxCalls int, window time.Duration, perAgent bool) (*Limiter, error) {
	if maxCalls <= 0 {
		return nil, fmt.Errorf("ratelimit: maxCalls must be positive, got %d", maxCalls)
	}
	if window <= 0 {
		return nil, fmt.Errorf("ratelimit: window must be positive, got %s", window)
	}
	return &Limiter{
		max:      maxCalls,
		window:   window,
		perAgent: perAgent,
		windows:  make(map[string][]time.Time),
		now:      time.Now,
	}, nil
}

func (l *Limiter) Name() string {
	if l.perAgent {
		return "ratelimit.per_agent"
	}
	return "ratelimit.global"
}

// Evaluate prunes the key's window, blocks if it is already full, and
// otherwise records the call and passes through so later rules (or the
// gate default) decide.
func (l *Limiter) Evaluate(in *model.Intent) (model.Decision, bool, error) {
	key := globalKey
	if l.perAgent {
		key = in.AgentID
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.checks++
	if l.checks%sweepEvery == 0 {
		l.sweep(now)
	}

	win := prune(l.windows[key], now, l.window)
	if len(win) >= l.max {
		wait := l.window - now.Sub(win[0])
		secs := int(math.Ceil(wait.Seconds()))
		l.windows[key] = win
		return model.Block(fmt.Sprintf(
			"rate limit exceeded: %d calls in %s, retry in %ds", l.max, l.window, secs,
		)), true, nil
	}

	l.windows[key] = append(win, now)
	return model.Decision{}, false, nil
}

// prune drops timestamps that have aged out of the window. The surviving
// slice never exceeds max entries at steady state, since eviction runs
// before every append.
func prune(win []time.Time, now time.Time, window time.Duration) []time.Time {
	cut := 0
	for cut < len(win) && now.Sub(win[cut]) >= window {
		cut++
	}
	if cut == 0 {
		return win
	}
	return append(win[:0:0], win[cut:]...)
}

// sweep evicts keys whose windows have fully expired. Caller holds l.mu.
func (l *Limiter) sweep(now time.Time) {
	for key, win := range l.windows {
		if len(win) == 0 || now.Sub(win[len(win)-1]) >= l.window {
			delete(l.windows, key)
		}
	}
}
