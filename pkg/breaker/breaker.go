package breaker

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrOpen = errors.New("circuit breaker is open")

type state uint8

const (
	closed state = iota + 1
	open
	halfOpen
)

// Breaker tracks the failure rate over a sliding window of calls and
// stops calling the wrapped function once the rate crosses the threshold.
// After cooldown it lets probe calls through; recovery consecutive
// successes close it again.
type Breaker struct {
	mu sync.Mutex

	state           state
	window          []bool
	pos             int
	threshold       float64
	cooldown        time.Duration
	recovery        int
	successes       int
	lastAttemptedAt time.Time
}

func New(windowSize int, cooldown time.Duration, threshold float64, recovery int) *Breaker {
	return &Breaker{
		state:     closed,
		window:    make([]bool, windowSize),
		threshold: threshold,
		cooldown:  cooldown,
		recovery:  recovery,
	}
}

func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()
	if b.state == open {
		if time.Since(b.lastAttemptedAt) <= b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = halfOpen
		b.successes = 0
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.window[b.pos] = err != nil
	b.pos = (b.pos + 1) % len(b.window)

	if b.state == halfOpen {
		if err != nil {
			b.trip()
		} else if b.successes++; b.successes >= b.recovery {
			b.Reset()
		}
		return err
	}

	fails := 0
	for _, failed := range b.window {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(len(b.window)) >= b.threshold {
		b.trip()
	}

	return err
}

func (b *Breaker) trip() {
	b.state = open
	b.successes = 0
	b.lastAttemptedAt = time.Now()
}

// Reset closes the breaker and clears the call window.
// Callers must hold no expectations about in-flight calls.
func (b *Breaker) Reset() {
	for i := range b.window {
		b.window[i] = false
	}
	b.pos = 0
	b.successes = 0
	b.state = closed
}
