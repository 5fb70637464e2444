// Package audit provides structured audit logging for storefront session
// events.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Actions recorded by the session layer.
const (
	ActionLogin      = "login"
	ActionLogout     = "logout"
	ActionAutoLogout = "auto_logout"
	ActionRefresh    = "token_refresh"
)

// Event represents one session audit event.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Result    string    `json:"result"` // success, failure
	Details   string    `json:"details,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Handler processes audit events. Implementations should not block.
type Handler func(event Event)

// Logger emits audit events to configured handlers.
type Logger struct {
	handlers []Handler
	queue    chan Event
	done     chan struct{}
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Option configures Logger behavior.
type Option func(*Logger)

// WithStdoutHandler adds a handler that writes JSON events to stdout.
func WithStdoutHandler() Option {
	return func(l *Logger) {
		l.AddHandler(func(e Event) {
			data, _ := json.Marshal(e)
			fmt.Fprintf(os.Stdout, "%s\n", data)
		})
	}
}

// WithHandler adds a custom event handler.
func WithHandler(h Handler) Option {
	return func(l *Logger) {
		l.AddHandler(h)
	}
}

// New creates a new audit logger with buffered async emission.
// bufferSize: event queue buffer size (default: 256).
func New(bufferSize int, opts ...Option) *Logger {
	if bufferSize <= 0 {
		bufferSize = 256
	}

	logger := &Logger{
		handlers: make([]Handler, 0),
		queue:    make(chan Event, bufferSize),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(logger)
	}

	logger.wg.Add(1)
	go logger.drain()
	return logger
}

// AddHandler registers an event handler.
func (l *Logger) AddHandler(h Handler) {
	l.mu.Lock()
	l.handlers = append(l.handlers, h)
	l.mu.Unlock()
}

// Record queues an event for emission, stamping it if unstamped. Events
// are dropped when the queue is full rather than blocking the session
// path.
func (l *Logger) Record(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case l.queue <- e:
	default:
	}
}

// Close flushes queued events and stops the logger.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	close(l.done)
	l.wg.Wait()
	return nil
}

func (l *Logger) drain() {
	defer l.wg.Done()
	for {
		select {
		case e := <-l.queue:
			l.emit(e)
		case <-l.done:
			for {
				select {
				case e := <-l.queue:
					l.emit(e)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) emit(e Event) {
	l.mu.Lock()
	handlers := make([]Handler, len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.Unlock()

	for _, h := range handlers {
		h(e)
	}
}
