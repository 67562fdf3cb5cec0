package llm

import (
	"context"
	"errors"
	"sync"
	"time"
)

type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker перестаёт обращаться к провайдеру после серии ошибок
// и через resetTimeout пропускает ровно один пробный запрос. Повторов не делает.
type CircuitBreaker struct {
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time
	state        CircuitState
	failures     int
	lastFailure  time.Time
	trial        bool // пробный запрос в полуоткрытом состоянии уже выполняется
	mu           sync.RWMutex
}

func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        StateClosed,
	}
}

// Call выполняет fn, если цепь не разомкнута.
// Отмена контекста вызывающей стороной ошибкой провайдера не считается.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen && cb.now().Sub(cb.lastFailure) > cb.resetTimeout {
		cb.state = StateHalfOpen
	}
	if cb.state == StateOpen || (cb.state == StateHalfOpen && cb.trial) {
		cb.mu.Unlock()
		return &UpstreamError{Kind: ErrorKindCircuitOpen, Message: "провайдер временно недоступен"}
	}
	trial := cb.state == StateHalfOpen
	if trial {
		cb.trial = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if trial {
		cb.trial = false
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if err != nil {
		cb.failures++
		cb.lastFailure = cb.now()
		if trial || cb.failures >= cb.maxFailures {
			cb.state = StateOpen
		}
		return err
	}

	cb.state = StateClosed
	cb.failures = 0
	return nil
}

func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.trial = false
}
