package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow while a breaker rejects calls
var ErrCircuitOpen = errors.New("circuit open")

// State of a breaker
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a breaker
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold uint32
	// Cooldown is how long the circuit stays open before a trial call is allowed
	Cooldown time.Duration
	// OnStateChange is called with the lock released
	OnStateChange func(name string, from, to State)
}

// DefaultSettings returns the settings used for inference backends
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 3,
		Cooldown:         time.Minute,
	}
}

// Counts holds breaker statistics since the last state change
type Counts struct {
	Successes           uint32
	Failures            uint32
	ConsecutiveFailures uint32
}

// Breaker guards calls to a single dependency
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probing  bool
}

// New creates a breaker in the closed state
func New(name string, settings Settings) *Breaker {
	defaults := DefaultSettings()
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = defaults.FailureThreshold
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = defaults.Cooldown
	}
	return &Breaker{
		name:     name,
		settings: settings,
		now:      time.Now,
	}
}

func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, promoting open to half-open once the cooldown elapsed
func (b *Breaker) State() State {
	b.mu.Lock()
	promoted := b.refresh()
	state := b.state
	b.mu.Unlock()

	if promoted {
		b.notify(StateOpen, StateHalfOpen)
	}
	return state
}

// Counts returns a copy of the statistics
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Allow reports whether a call may proceed. Half-open admits one trial call at a time.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	promoted := b.refresh()
	var err error
	switch b.state {
	case StateOpen:
		err = ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			err = ErrCircuitOpen
		} else {
			b.probing = true
		}
	}
	b.mu.Unlock()

	if promoted {
		b.notify(StateOpen, StateHalfOpen)
	}
	return err
}

// Done records the outcome of a call admitted by Allow
func (b *Breaker) Done(success bool) {
	b.mu.Lock()
	from := b.state
	if success {
		b.counts.Successes++
		b.counts.ConsecutiveFailures = 0
		if b.state == StateHalfOpen {
			b.transition(StateClosed)
		}
	} else {
		b.counts.Failures++
		b.counts.ConsecutiveFailures++
		if b.state == StateHalfOpen || b.counts.ConsecutiveFailures >= b.settings.FailureThreshold {
			b.transition(StateOpen)
		}
	}
	b.probing = false
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// Cancel releases a call admitted by Allow without recording an outcome
func (b *Breaker) Cancel() {
	b.mu.Lock()
	b.probing = false
	b.mu.Unlock()
}

// Execute runs fn if the breaker allows it and records the outcome
func (b *Breaker) Execute(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	b.Done(err == nil)
	return err
}

// refresh promotes an expired open circuit to half-open. Callers hold the lock.
func (b *Breaker) refresh() bool {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.settings.Cooldown {
		b.transition(StateHalfOpen)
		return true
	}
	return false
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	b.state = to
	b.counts = Counts{}
	if to == StateOpen {
		b.openedAt = b.now()
	}
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}

// Set lazily creates one breaker per key
type Set struct {
	settings Settings

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewSet creates an empty breaker set sharing settings
func NewSet(settings Settings) *Set {
	return &Set{
		settings: settings,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for key, creating it on first use
func (s *Set) Get(key string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.breakers[key]; ok {
		return b
	}
	b := New(key, s.settings)
	s.breakers[key] = b
	return b
}

// States snapshots the state of every known breaker
func (s *Set) States() map[string]State {
	s.mu.Lock()
	breakers := make([]*Breaker, 0, len(s.breakers))
	for _, b := range s.breakers {
		breakers = append(breakers, b)
	}
	s.mu.Unlock()

	states := make(map[string]State, len(breakers))
	for _, b := range breakers {
		states[b.Name()] = b.State()
	}
	return states
}
